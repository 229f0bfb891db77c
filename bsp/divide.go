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

// Intersection of the half-edge with the partition line, given perpendicular
// distances a and b of its ends
func computeIntersection(cur *HEdge, part *HEdge, a, b float64) (float64, float64) {
	// horizontal partition against vertical half-edge
	if part.pdy == 0 && cur.pdx == 0 {
		return cur.psx, part.psy
	}

	// vertical partition against horizontal half-edge
	if part.pdx == 0 && cur.pdy == 0 {
		return part.psx, cur.psy
	}

	// 0 = start, 1 = end
	ds := a / (a - b)

	x := cur.psx + cur.pdx*ds
	y := cur.psy + cur.pdy*ds
	if cur.pdx == 0 {
		x = cur.psx
	}
	if cur.pdy == 0 {
		y = cur.psy
	}
	return x, y
}

// divideOneHEdge puts the half-edge into the right or left set, splitting it
// if the partition line crosses it. Every vertex found on the partition line
// becomes an intercept
func (p *Partitioner) divideOneHEdge(curIdx HEdgeIdx, part *HEdge,
	rights, lefts *Superblock) {
	cur := p.hedge(curIdx)
	selfRef := !cur.IsMini() && p.lineSelfRef[cur.Linedef]

	var a, b float64
	if cur.SourceLine == part.SourceLine {
		a, b = 0, 0
	} else {
		a = UtilPerpDist(part, cur.psx, cur.psy)
		b = UtilPerpDist(part, cur.pex, cur.pey)
	}

	// co-linear
	if math.Abs(a) <= DIST_EPSILON && math.Abs(b) <= DIST_EPSILON {
		p.addIntercept(cur.V1, part, selfRef)
		p.addIntercept(cur.V2, part, selfRef)
		// direction check
		if cur.pdx*part.pdx+cur.pdy*part.pdy < 0 {
			lefts.Push(curIdx)
		} else {
			rights.Push(curIdx)
		}
		return
	}

	// right side
	if a > -DIST_EPSILON && b > -DIST_EPSILON {
		if a < DIST_EPSILON {
			p.addIntercept(cur.V1, part, selfRef)
		} else if b < DIST_EPSILON {
			p.addIntercept(cur.V2, part, selfRef)
		}
		rights.Push(curIdx)
		return
	}

	// left side
	if a < DIST_EPSILON && b < DIST_EPSILON {
		if a > -DIST_EPSILON {
			p.addIntercept(cur.V1, part, selfRef)
		} else if b > -DIST_EPSILON {
			p.addIntercept(cur.V2, part, selfRef)
		}
		lefts.Push(curIdx)
		return
	}

	// When we reach here, a and b have opposite signs, so the half-edge is
	// split by the partition line. Both ends are at least DIST_EPSILON away
	// from the line (an end any closer was taken as lying on it above), so
	// neither fragment can come out shorter than that
	x, y := computeIntersection(cur, part, a, b)
	newIdx := p.splitHEdge(curIdx, x, y)
	p.addIntercept(p.hedge(newIdx).V1, part, selfRef)

	if a < 0 {
		lefts.Push(curIdx)
		rights.Push(newIdx)
	} else {
		rights.Push(curIdx)
		lefts.Push(newIdx)
	}
}

// partitionHEdges drains every half-edge held by block and its sub-blocks
// into rights and lefts. Blocks are emptied, not freed
func (p *Partitioner) partitionHEdges(block *Superblock, part *HEdge,
	rights, lefts *Superblock) {
	stack := []*Superblock{block}
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		// Fragments of split twins may be appended to the list of this very
		// block while it is being drained, hence popping one at a time
		for idx := b.Pop(); idx != NO_HEDGE; idx = b.Pop() {
			p.divideOneHEdge(idx, part, rights, lefts)
		}
		for num := 1; num >= 0; num-- {
			if b.subs[num] != nil {
				stack = append(stack, b.subs[num])
			}
		}
	}
	if block.TotalNum() != 0 {
		fatalf("%d half-edges left in superblock after dividing by linedef #%d",
			block.TotalNum(), part.Linedef)
	}
}
