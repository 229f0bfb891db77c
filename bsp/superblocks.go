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

	"github.com/golang/geo/r2"
	"github.com/vigilantdoomer/hedgebsp/level"
)

// The grand nodebuilding speed-up technique from AJ-BSP by Andrew Apted:
// superblocks.

// smallest distance between two points before being considered equal
const DIST_EPSILON float64 = 1.0 / 128.0

const IFFY_LEN = 4.0

const MARGIN_LEN = 6 // MUST EQUAL int(IFFY_LEN * 1.5)

// Superblock is no longer divided once both of its dimensions are this or less
const SUPERBLOCK_LEAF_SIZE = 256

const BLOCK_WIDTH = 128
const BLOCK_BITS = 7 // replaces multiplication by BLOCK_WIDTH with left shift

type Superblock struct {
	// parent of this block, or nil for a top-level block
	parent *Superblock
	// coordinates on map for this block, from lower-left corner to
	// upper-right corner.  Pseudo-inclusive, i.e (x,y) is inside block
	// if and only if x1 <= x < x2 and y1 <= y < y2.
	x1, y1 int
	x2, y2 int
	// sub-blocks. Nil when empty. [0] has the lower coordinates, and
	// [1] has the higher coordinates. Division of a square always
	// occurs horizontally (e.g. 512x512 -> 256x512 -> 256x256).
	subs [2]*Superblock
	// number of real half-edges contained by this block
	// (including all sub-blocks below it)
	realNum int
	// number of mini half-edges contained by this block
	// (including all sub-blocks below it)
	miniNum int
	// list of half-edges _directly_ contained by this block. Doesn't include
	// those contained in subblocks.
	hedges HEdgeIdx
	// how many half-edges of each sector this block and sub-blocks contain,
	// partition cost evaluation uses it to tell whether a sector got split
	secCounts map[int]int
	owner     *Partitioner
}

// SuperIsLeaf() == true defines when superblock is no longer divisible into
// subblocks
func (s *Superblock) SuperIsLeaf() bool {
	return (s.x2-s.x1) <= SUPERBLOCK_LEAF_SIZE && (s.y2-s.y1) <= SUPERBLOCK_LEAF_SIZE
}

func (s *Superblock) RealNum() int {
	return s.realNum
}

func (s *Superblock) MiniNum() int {
	return s.miniNum
}

func (s *Superblock) TotalNum() int {
	return s.realNum + s.miniNum
}

func (s *Superblock) Parent() *Superblock {
	return s.parent
}

func (s *Superblock) Child(num int) *Superblock {
	return s.subs[num]
}

// Box of the block, not of the half-edges it holds
func (s *Superblock) Box() (x1, y1, x2, y2 int) {
	return s.x1, s.y1, s.x2, s.y2
}

// First half-edge directly contained by this block, continue with NextInBlock
func (s *Superblock) FirstHEdge() HEdgeIdx {
	return s.hedges
}

func (s *Superblock) NextInBlock(idx HEdgeIdx) HEdgeIdx {
	return s.owner.hedge(idx).nextInSuper
}

func (s *Superblock) incCounts(h *HEdge) {
	if h.IsMini() {
		s.miniNum++
	} else {
		s.realNum++
	}
	s.secCounts[h.Sector]++
}

func (s *Superblock) decCounts(h *HEdge) {
	if h.IsMini() {
		s.miniNum--
	} else {
		s.realNum--
	}
	if n := s.secCounts[h.Sector]; n <= 1 {
		delete(s.secCounts, h.Sector)
	} else {
		s.secCounts[h.Sector] = n - 1
	}
}

func (s *Superblock) link(idx HEdgeIdx, h *HEdge) {
	h.nextInSuper = s.hedges
	h.block = s
	s.hedges = idx
}

// Push adds half-edge to the lowest block that wholly contains it, creating
// sub-blocks as needed. Returns the block where half-edge got stored
func (s *Superblock) Push(idx HEdgeIdx) *Superblock {
	h := s.owner.hedge(idx)
	block := s
	for {
		var p1, p2 bool
		var child int
		xMid := (block.x1 + block.x2) >> 1
		yMid := (block.y1 + block.y2) >> 1
		// update half-edge counts
		block.incCounts(h)
		if block.SuperIsLeaf() {
			// block is not allowed to be subdivised any further
			block.link(idx, h)
			return block
		}
		if block.x2-block.x1 >= block.y2-block.y1 {
			// block is wider than it is high, or square

			p1 = h.psx >= float64(xMid)
			p2 = h.pex >= float64(xMid)
		} else {
			// block is higher than it is wide

			p1 = h.psy >= float64(yMid)
			p2 = h.pey >= float64(yMid)
		}

		if p1 && p2 {
			child = 1
		} else if !p1 && !p2 {
			child = 0
		} else {
			// line crosses midpoint -- link it in and return
			block.link(idx, h)
			return block
		}

		// OK, the half-edge lies in one half of this block.  Create the block
		// if it doesn't already exist, and loop back to add the half-edge.

		if block.subs[child] == nil {
			sub := s.owner.getNewSuperblock()
			block.subs[child] = sub
			sub.parent = block

			if block.x2-block.x1 >= block.y2-block.y1 {
				if child == 1 {
					sub.x1 = xMid
					sub.x2 = block.x2
				} else {
					sub.x1 = block.x1
					sub.x2 = xMid
				}
				sub.y1 = block.y1
				sub.y2 = block.y2
			} else {
				sub.x1 = block.x1
				sub.x2 = block.x2
				if child == 1 {
					sub.y1 = yMid
					sub.y2 = block.y2
				} else {
					sub.y1 = block.y1
					sub.y2 = yMid
				}
			}
		}
		block = block.subs[child]
	}
}

// Puts half-edge right after another one that is already in this block's own
// list. Used for fragments of split twins, which must stay in the same
// working set as the twin they were cut from
func (s *Superblock) insertAfter(p *Partitioner, prevIdx, idx HEdgeIdx) {
	prev := p.hedge(prevIdx)
	h := p.hedge(idx)
	h.nextInSuper = prev.nextInSuper
	h.block = s
	prev.nextInSuper = idx
	for block := s; block != nil; block = block.parent {
		block.incCounts(h)
	}
}

// Pop removes the first half-edge from this block's own list (sub-blocks are
// not looked into). Returns NO_HEDGE when the list is empty
func (s *Superblock) Pop() HEdgeIdx {
	idx := s.hedges
	if idx == NO_HEDGE {
		return NO_HEDGE
	}
	h := s.owner.hedge(idx)
	s.hedges = h.nextInSuper
	h.nextInSuper = NO_HEDGE
	h.block = nil
	for block := s; block != nil; block = block.parent {
		block.decCounts(h)
	}
	return idx
}

// FindHEdgeBounds returns union of bounding boxes of all half-edges in this
// block and its sub-blocks. Traversal is iterative, degenerate maps can make
// block tree deep
func (s *Superblock) FindHEdgeBounds() r2.Rect {
	bounds := r2.EmptyRect()
	stack := []*Superblock{s}
	for len(stack) > 0 {
		block := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for idx := block.hedges; idx != NO_HEDGE; {
			h := s.owner.hedge(idx)
			bounds = bounds.AddPoint(r2.Point{X: h.psx, Y: h.psy})
			bounds = bounds.AddPoint(r2.Point{X: h.pex, Y: h.pey})
			idx = h.nextInSuper
		}
		for num := 1; num >= 0; num-- {
			if block.subs[num] != nil {
				stack = append(stack, block.subs[num])
			}
		}
	}
	return bounds
}

// SuperblockVisitor is called for every block by Traverse. Returning true
// stops the traversal
type SuperblockVisitor interface {
	Visit(block *Superblock) bool
}

// SuperblockVisitorFunc allows to use an ordinary function as visitor
type SuperblockVisitorFunc func(block *Superblock) bool

func (f SuperblockVisitorFunc) Visit(block *Superblock) bool {
	return f(block)
}

// Traverse visits the block and then its sub-blocks in pre-order ([0] before
// [1]). Returns true if visitor aborted the traversal
func (s *Superblock) Traverse(v SuperblockVisitor) bool {
	if v.Visit(s) {
		return true
	}
	for num := 0; num < 2; num++ {
		if s.subs[num] == nil {
			continue
		}
		if s.subs[num].Traverse(v) {
			return true
		}
	}
	return false
}

// rounds the value _up_ to the nearest power of two.
func RoundPOW2(x int) int {
	if x <= 2 {
		return x
	}

	x--

	for tmp := x >> 1; tmp != 0; tmp >>= 1 {
		x |= tmp
	}

	return x + 1
}

// Sets box of a top-level block so that it covers the bounds and its
// dimensions are power of two multiples of BLOCK_WIDTH
func (s *Superblock) SetBounds(box level.Bounds) {
	xmin := int(math.Floor(box.Xmin))
	ymin := int(math.Floor(box.Ymin))
	xmax := int(math.Ceil(box.Xmax))
	ymax := int(math.Ceil(box.Ymax))
	dx := (xmax - xmin + BLOCK_WIDTH) >> BLOCK_BITS
	dy := (ymax - ymin + BLOCK_WIDTH) >> BLOCK_BITS

	s.x1 = xmin
	s.x2 = xmin + (RoundPOW2(dx) << BLOCK_BITS)
	s.y1 = ymin
	s.y2 = ymin + (RoundPOW2(dy) << BLOCK_BITS)
}

func (s *Superblock) copyBounds(template *Superblock) {
	s.x1 = template.x1
	s.y1 = template.y1
	s.x2 = template.x2
	s.y2 = template.y2
}

// Returns -1 for left, +1 for right, or 0 for intersect.
func PointOnLineSide(part *HEdge, x, y float64) int {
	perp := UtilPerpDist(part, x, y)
	if math.Abs(perp) <= DIST_EPSILON {
		return 0
	}
	if perp < 0 {
		return -1
	}
	return +1
}

// Which side of partition line is the superblock?
// Returns -1 for left, +1 for right, or 0 for intersect.
func BoxOnLineSide(box *Superblock, part *HEdge) int {
	x1 := float64(box.x1 - MARGIN_LEN)
	y1 := float64(box.y1 - MARGIN_LEN)
	x2 := float64(box.x2 + MARGIN_LEN)
	y2 := float64(box.y2 + MARGIN_LEN)

	var p1, p2 int

	// handle simple cases (vertical & horizontal lines)
	if part.pdx == 0 {
		if x1 > part.psx {
			p1 = +1
		} else {
			p1 = -1
		}
		if x2 > part.psx {
			p2 = +1
		} else {
			p2 = -1
		}
		if part.pdy < 0 {
			p1 = -p1
			p2 = -p2
		}
	} else if part.pdy == 0 {
		if y1 < part.psy {
			p1 = +1
		} else {
			p1 = -1
		}
		if y2 < part.psy {
			p2 = +1
		} else {
			p2 = -1
		}

		if part.pdx < 0 {
			p1 = -p1
			p2 = -p2
		}
	} else if part.pdx*part.pdy > 0 { // now handle the cases of positive and negative slope
		p1 = PointOnLineSide(part, x1, y2)
		p2 = PointOnLineSide(part, x2, y1)
	} else { // NEGATIVE
		p1 = PointOnLineSide(part, x1, y1)
		p2 = PointOnLineSide(part, x2, y2)
	}

	if p1 == p2 {
		return p1
	}
	return 0
}

func (p *Partitioner) getNewSuperblock() *Superblock {
	if p.qallocSupers == nil {
		return &Superblock{
			hedges:    NO_HEDGE,
			secCounts: make(map[int]int),
			owner:     p,
		}
	}
	ret := p.qallocSupers
	p.qallocSupers = ret.subs[0]
	ret.subs[0] = nil
	return ret
}

// Returns the block and its sub-blocks to the pool. Blocks must hold no
// half-edges by now
func (p *Partitioner) returnSuperblockToPool(block *Superblock) {
	for num := 0; num < 2; num++ {
		if block.subs[num] != nil {
			p.returnSuperblockToPool(block.subs[num])
			block.subs[num] = nil
		}
	}
	for sec := range block.secCounts {
		delete(block.secCounts, sec)
	}
	block.parent = nil
	block.hedges = NO_HEDGE
	block.realNum = 0
	block.miniNum = 0
	block.x1, block.y1, block.x2, block.y2 = 0, 0, 0, 0
	block.subs[0] = p.qallocSupers
	p.qallocSupers = block
}
