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

	"github.com/vigilantdoomer/hedgebsp/level"
)

// Edge tips, an idea from glBSP by Andrew Apted: every vertex remembers the
// directions in which walls leave it, so that when partition line passes
// through a vertex, it can be told whether the partition runs through open
// space there (and which sector it is) or along/into a wall.

// Two angles closer than this are the same angle (degrees)
const ANG_EPSILON float64 = 1.0 / 1024.0

type EdgeTipIdx int32

const NO_TIP EdgeTipIdx = -1

type EdgeTip struct {
	// angle that the half-edge leaving the vertex makes, degrees [0, 360)
	Angle float64
	// half-edge leaving the vertex at this angle, its sector is on the
	// clockwise side of the tip. NO_HEDGE if that side is void
	Front HEdgeIdx
	// half-edge arriving at the vertex from this direction, its sector is on
	// the anti-clockwise side. NO_HEDGE if that side is void
	Back HEdgeIdx
	prev EdgeTipIdx
	next EdgeTipIdx
}

// AddEdgeTip inserts a tip into the vertex's list, which is kept sorted
// anti-clockwise by angle
func (p *Partitioner) AddEdgeTip(vertex int, angle float64, front, back HEdgeIdx) {
	idx, tip := p.tips.alloc()
	tipIdx := EdgeTipIdx(idx)
	tip.Angle = angle
	tip.Front = front
	tip.Back = back
	tip.prev = NO_TIP
	tip.next = NO_TIP

	last := NO_TIP
	for cur := p.vertexTips[vertex]; cur != NO_TIP; cur = p.tip(cur).next {
		if !(p.tip(cur).Angle < angle+ANG_EPSILON) {
			// insert before cur
			c := p.tip(cur)
			tip.next = cur
			tip.prev = c.prev
			if c.prev != NO_TIP {
				p.tip(c.prev).next = tipIdx
			} else {
				p.vertexTips[vertex] = tipIdx
			}
			c.prev = tipIdx
			return
		}
		last = cur
	}
	// largest angle so far, goes to the end
	tip.prev = last
	if last != NO_TIP {
		p.tip(last).next = tipIdx
	} else {
		p.vertexTips[vertex] = tipIdx
	}
}

func (p *Partitioner) tip(idx EdgeTipIdx) *EdgeTip {
	return p.tips.at(int(idx))
}

// EdgeTips returns a copy of tips of the vertex, in stored order
func (p *Partitioner) EdgeTips(vertex int) []EdgeTip {
	var res []EdgeTip
	for cur := p.vertexTips[vertex]; cur != NO_TIP; cur = p.tip(cur).next {
		res = append(res, *p.tip(cur))
	}
	return res
}

// When a half-edge got split, the one arriving at the vertex might be a
// different fragment now
func (p *Partitioner) replaceTipBack(vertex int, oldBack, newBack HEdgeIdx) {
	for cur := p.vertexTips[vertex]; cur != NO_TIP; cur = p.tip(cur).next {
		t := p.tip(cur)
		if t.Back == oldBack {
			t.Back = newBack
			return
		}
	}
}

func (p *Partitioner) hedgeSector(idx HEdgeIdx) int {
	if idx == NO_HEDGE {
		return level.NO_SECTOR
	}
	return p.hedge(idx).Sector
}

// checkOpen tells which sector is open when leaving the vertex in direction
// (dx, dy). Returns NO_SECTOR if the direction runs along an existing wall
// or into the void
func (p *Partitioner) checkOpen(vertex int, dx, dy float64) int {
	head := p.vertexTips[vertex]
	if head == NO_TIP {
		v := &p.m.Vertices[vertex]
		fatalf("vertex #%d at (%.1f, %.1f) has no edge tips", vertex, v.X, v.Y)
	}
	angle := computeAngle(dx, dy)

	// first check whether there's a wall in the same direction
	for cur := head; cur != NO_TIP; cur = p.tip(cur).next {
		diff := math.Abs(p.tip(cur).Angle - angle)
		if diff < ANG_EPSILON || diff > (360.0-ANG_EPSILON) {
			return level.NO_SECTOR
		}
	}

	// otherwise, find the first tip at greater angle
	last := head
	for cur := head; cur != NO_TIP; cur = p.tip(cur).next {
		t := p.tip(cur)
		if t.Angle > angle+ANG_EPSILON {
			return p.hedgeSector(t.Front)
		}
		last = cur
	}

	// not found, so it's the back of the tip with the largest angle
	return p.hedgeSector(p.tip(last).Back)
}
