// Copyright (C) 2022-2023, VigilantDoomer
//
// This file is part of VigilantBSP program.
//
// VigilantBSP is free software: you can redistribute it
// and/or modify it under the terms of GNU General Public License
// as published by the Free Software Foundation, either version 2 of
// the License, or (at your option) any later version.
//
// VigilantBSP is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with VigilantBSP.  If not, see <https://www.gnu.org/licenses/>.
package bsp

import (
	"math"
)

// Index of half-edge in partitioner's arena
type HEdgeIdx int32

const NO_HEDGE HEdgeIdx = -1

// Linedef of mini half-edges
const NO_LINEDEF = -1

const (
	SIDE_FRONT = 0
	SIDE_BACK  = 1
)

// HEdge is one directed traversal of a wall. Two-sided walls produce a pair
// of twins running in opposite directions. Mini half-edges are not derived
// from any linedef, they close off the partition boundary
type HEdge struct {
	V1, V2     int // start, end vertex
	Sector     int
	Linedef    int // NO_LINEDEF for mini half-edges
	SourceLine int // linedef this half-edge descends from (partition line for minis)
	Side       int // SIDE_FRONT or SIDE_BACK of linedef
	Twin       HEdgeIdx
	// Fragments of the same original half-edge, in order from its start
	// to its end. Maintained across splits
	PrevOnSide HEdgeIdx
	NextOnSide HEdgeIdx

	block       *Superblock // superblock holding this half-edge, if any
	nextInSuper HEdgeIdx
	leaf        *Leaf // leaf this half-edge ended up in, if any

	psx, psy, pex, pey float64 // start, end coordinates
	pdx, pdy           float64 // delta
	pLength            float64
	pAngle             float64 // degrees, [0, 360)
	pPerp, pPara       float64 // used in distance calculations
}

func (h *HEdge) IsMini() bool {
	return h.Linedef == NO_LINEDEF
}

func (h *HEdge) Start() (float64, float64) {
	return h.psx, h.psy
}

func (h *HEdge) End() (float64, float64) {
	return h.pex, h.pey
}

func (h *HEdge) Delta() (float64, float64) {
	return h.pdx, h.pdy
}

func (h *HEdge) Length() float64 {
	return h.pLength
}

func (h *HEdge) Angle() float64 {
	return h.pAngle
}

// Angle of direction (dx, dy) in degrees, counter-clockwise from east,
// in range [0, 360)
func computeAngle(dx, dy float64) float64 {
	if dx == 0 {
		if dy > 0 {
			return 90.0
		}
		if dy < 0 {
			return 270.0
		}
		return 0.0
	}
	angle := math.Atan2(dy, dx) * 180.0 / math.Pi
	if angle < 0 {
		angle += 360.0
	}
	if angle >= 360.0 {
		angle = 0.0
	}
	return angle
}

// Perpendicular distance from the line of part to (x, y). Positive is right
// side, negative is left
func UtilPerpDist(part *HEdge, x, y float64) float64 {
	return (x*part.pdy - y*part.pdx + part.pPerp) / part.pLength
}

// Distance along the line of part from its start to the projection of (x, y)
func UtilParallelDist(part *HEdge, x, y float64) float64 {
	return (x*part.pdx + y*part.pdy + part.pPara) / part.pLength
}

func (p *Partitioner) recomputeHEdge(h *HEdge) {
	v1 := &p.m.Vertices[h.V1]
	v2 := &p.m.Vertices[h.V2]
	h.psx = v1.X
	h.psy = v1.Y
	h.pex = v2.X
	h.pey = v2.Y
	h.pdx = h.pex - h.psx
	h.pdy = h.pey - h.psy
	h.pLength = math.Hypot(h.pdx, h.pdy)
	h.pAngle = computeAngle(h.pdx, h.pdy)
	if h.pLength <= 0 {
		fatalf("half-edge of linedef %d has zero length near (%.1f, %.1f)",
			h.Linedef, h.psx, h.psy)
	}
	h.pPerp = h.psy*h.pdx - h.psx*h.pdy
	h.pPara = -h.psx*h.pdx - h.psy*h.pdy
}

func (p *Partitioner) newHEdge() (HEdgeIdx, *HEdge) {
	idx, h := p.hedges.alloc()
	h.Twin = NO_HEDGE
	h.PrevOnSide = NO_HEDGE
	h.NextOnSide = NO_HEDGE
	h.nextInSuper = NO_HEDGE
	h.Linedef = NO_LINEDEF
	h.SourceLine = NO_LINEDEF
	return HEdgeIdx(idx), h
}

// HEdge gives read access to half-edge record. The record stays owned by the
// partitioner and should not be modified
func (p *Partitioner) HEdge(idx HEdgeIdx) *HEdge {
	return p.hedges.at(int(idx))
}

func (p *Partitioner) hedge(idx HEdgeIdx) *HEdge {
	return p.hedges.at(int(idx))
}

// Cuts half-edge at vertex nv. The original keeps the first part, the new
// fragment takes over the rest and is returned. Twins are not touched here
func (p *Partitioner) divideAt(oldIdx HEdgeIdx, nv int) HEdgeIdx {
	newIdx, nh := p.newHEdge()
	old := p.hedge(oldIdx)
	*nh = *old
	nh.block = nil
	nh.nextInSuper = NO_HEDGE
	nh.leaf = nil
	nh.V1 = nv
	old.V2 = nv

	nh.PrevOnSide = oldIdx
	nh.NextOnSide = old.NextOnSide
	if old.NextOnSide != NO_HEDGE {
		p.hedge(old.NextOnSide).PrevOnSide = newIdx
	}
	old.NextOnSide = newIdx

	// end vertex of the original is now referenced by the new fragment
	// instead, new vertex is referenced by both
	p.m.Vertices[nv].RefCount += 2

	p.recomputeHEdge(old)
	p.recomputeHEdge(nh)
	return newIdx
}

// splitHEdge creates a new vertex at (x, y) and splits the half-edge there,
// as well as its twin if there is one. Returns the new fragment (the one
// starting at the new vertex). Twins stay paired: the first part of the
// original is twinned with the last part of the old twin and vice versa.
func (p *Partitioner) splitHEdge(oldIdx HEdgeIdx, x, y float64) HEdgeIdx {
	p.numSplits++
	nv := p.m.AddVertex(x, y)
	p.vertexTips = append(p.vertexTips, NO_TIP)
	start := p.hedge(oldIdx).V1
	end := p.hedge(oldIdx).V2

	newIdx := p.divideAt(oldIdx, nv)
	// the half-edge that arrives at end vertex is now the new fragment
	p.replaceTipBack(end, oldIdx, newIdx)
	oldTwinIdx := p.hedge(oldIdx).Twin
	newTwinIdx := NO_HEDGE
	if oldTwinIdx != NO_HEDGE {
		newTwinIdx = p.divideAt(oldTwinIdx, nv)
		p.hedge(oldIdx).Twin = newTwinIdx
		p.hedge(newTwinIdx).Twin = oldIdx
		p.hedge(newIdx).Twin = oldTwinIdx
		p.hedge(oldTwinIdx).Twin = newIdx

		// twin fragment must be processed in the same working set as the
		// old twin
		// old twin might be in a finished leaf already, the fragment joins
		// it there
		oldTwin := p.hedge(oldTwinIdx)
		if oldTwin.block != nil {
			oldTwin.block.insertAfter(p, oldTwinIdx, newTwinIdx)
		} else if oldTwin.leaf != nil {
			p.insertIntoLeaf(oldTwin.leaf, oldTwinIdx, newTwinIdx)
		}

		// the half-edge that arrives at start vertex is now the new twin
		p.replaceTipBack(start, oldTwinIdx, newTwinIdx)
	}

	nh := p.hedge(newIdx)
	old := p.hedge(oldIdx)
	p.AddEdgeTip(nv, computeAngle(nh.pdx, nh.pdy), newIdx, nh.Twin)
	p.AddEdgeTip(nv, computeAngle(-old.pdx, -old.pdy), newTwinIdx, oldIdx)
	return newIdx
}

// Creates a pair of twin mini half-edges between two vertices lying on the
// partition line. Returns the one running from v1 to v2
func (p *Partitioner) newMiniPair(v1, v2 int, sector int, sourceLine int) (HEdgeIdx, HEdgeIdx) {
	segIdx, seg := p.newHEdge()
	buddyIdx, buddy := p.newHEdge()
	seg.V1, seg.V2 = v1, v2
	buddy.V1, buddy.V2 = v2, v1
	seg.Twin, buddy.Twin = buddyIdx, segIdx
	seg.Sector, buddy.Sector = sector, sector
	seg.SourceLine, buddy.SourceLine = sourceLine, sourceLine
	buddy.Side = SIDE_BACK
	p.m.Vertices[v1].RefCount += 2
	p.m.Vertices[v2].RefCount += 2
	p.recomputeHEdge(seg)
	p.recomputeHEdge(buddy)
	p.numMinis += 2
	return segIdx, buddyIdx
}
