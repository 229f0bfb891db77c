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
	"sort"

	"github.com/golang/geo/r2"
)

// Sides of partition
const (
	RIGHT = 0
	LEFT  = 1
)

// Partition line of a node. Direction is not normalized
type Partition struct {
	X, Y   float64
	DX, DY float64
}

// PointOnSide tells on which side of partition the point is. Axis-aligned
// partitions are handled exactly, the rest compares cross products. Points
// lying on the line get a fixed side depending on partition direction
func (pt Partition) PointOnSide(x, y float64) int {
	if pt.DX == 0 {
		if x <= pt.X {
			if pt.DY > 0 {
				return LEFT
			}
			return RIGHT
		}
		if pt.DY < 0 {
			return LEFT
		}
		return RIGHT
	}
	if pt.DY == 0 {
		if y <= pt.Y {
			if pt.DX < 0 {
				return LEFT
			}
			return RIGHT
		}
		if pt.DX > 0 {
			return LEFT
		}
		return RIGHT
	}

	dx := x - pt.X
	dy := y - pt.Y
	left := pt.DY * dx
	right := dy * pt.DX
	if right < left {
		return RIGHT
	}
	return LEFT
}

// PerpDist is signed distance from partition line to the point, positive on
// the right side
func (pt Partition) PerpDist(x, y float64) float64 {
	return ((x-pt.X)*pt.DY - (y-pt.Y)*pt.DX) / math.Hypot(pt.DX, pt.DY)
}

// Leaf is a convex region, bounded by the half-edges listed in clockwise
// order
type Leaf struct {
	Index  int
	HEdges []HEdgeIdx
	// sector of the first real half-edge
	Sector int
}

// TreeNode is either an internal node with two children or a leaf (Leaf is
// not nil)
type TreeNode struct {
	Partition   Partition
	Linedef     int // which the partition line came from
	RightBounds r2.Rect
	LeftBounds  r2.Rect
	Right       *TreeNode
	Left        *TreeNode
	Leaf        *Leaf
	taken       bool
}

func (n *TreeNode) IsLeaf() bool {
	return n.Leaf != nil
}

// Child returns Right for RIGHT, Left for LEFT
func (n *TreeNode) Child(side int) *TreeNode {
	if side == RIGHT {
		return n.Right
	}
	return n.Left
}

func (n *TreeNode) Bounds(side int) r2.Rect {
	if side == RIGHT {
		return n.RightBounds
	}
	return n.LeftBounds
}

// Leaves returns leaves of the subtree, right child first
func (n *TreeNode) Leaves() []*Leaf {
	var res []*Leaf
	stack := []*TreeNode{n}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node.Leaf != nil {
			res = append(res, node.Leaf)
			continue
		}
		stack = append(stack, node.Left, node.Right)
	}
	return res
}

func (p *Partitioner) Root() *TreeNode {
	return p.root
}

func (p *Partitioner) NumNodes() int {
	return p.numNodes
}

func (p *Partitioner) NumLeafs() int {
	return p.numLeafs
}

// Half-edges held by leaves not yet taken
func (p *Partitioner) NumHEdges() int {
	return p.numHEdges
}

func (p *Partitioner) NumVertexes() int {
	return len(p.m.Vertices)
}

// Take transfers ownership of the node (or leaf) to the caller: it is no
// longer counted by the partitioner. Taking the same node again does nothing
func (p *Partitioner) Take(node *TreeNode) *TreeNode {
	if node == nil || node.taken {
		return node
	}
	node.taken = true
	if node.Leaf != nil {
		p.numLeafs--
		p.numHEdges -= len(node.Leaf.HEdges)
	} else {
		p.numNodes--
	}
	return node
}

// LeafAtPoint walks down the tree the way the engine does at run time
func (p *Partitioner) LeafAtPoint(x, y float64) *Leaf {
	node := p.root
	for node != nil && node.Leaf == nil {
		node = node.Child(node.Partition.PointOnSide(x, y))
	}
	if node == nil {
		return nil
	}
	return node.Leaf
}

// Height of the tree, a single leaf has height 1
func (p *Partitioner) Height() int {
	return treeHeight(p.root)
}

func treeHeight(n *TreeNode) int {
	if n == nil {
		return 0
	}
	if n.Leaf != nil {
		return 1
	}
	r := treeHeight(n.Right)
	l := treeHeight(n.Left)
	if r > l {
		return r + 1
	}
	return l + 1
}

// createLeaf gathers all half-edges of the block into a new leaf. The block
// is left empty
func (p *Partitioner) createLeaf(block *Superblock) *Leaf {
	leaf := &Leaf{
		Index: p.nextLeaf,
	}
	p.nextLeaf++
	stack := []*Superblock{block}
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for idx := b.Pop(); idx != NO_HEDGE; idx = b.Pop() {
			leaf.HEdges = append(leaf.HEdges, idx)
			p.hedge(idx).leaf = leaf
		}
		for num := 1; num >= 0; num-- {
			if b.subs[num] != nil {
				stack = append(stack, b.subs[num])
			}
		}
	}
	if len(leaf.HEdges) == 0 {
		fatalf("leaf #%d has no half-edges", leaf.Index)
	}

	p.clockwiseOrder(leaf)
	p.sanityCheckClosed(leaf)

	leaf.Sector = p.hedge(leaf.HEdges[0]).Sector
	p.numLeafs++
	p.numHEdges += len(leaf.HEdges)
	return leaf
}

// Puts fragment of a split half-edge right after the half-edge it was cut
// from. Fragment continues where the other one now ends, so clockwise order
// is kept
func (p *Partitioner) insertIntoLeaf(leaf *Leaf, prevIdx, idx HEdgeIdx) {
	pos := -1
	for i, cur := range leaf.HEdges {
		if cur == prevIdx {
			pos = i
			break
		}
	}
	if pos < 0 {
		fatalf("half-edge %d is not in leaf #%d it claims to belong to",
			prevIdx, leaf.Index)
	}
	leaf.HEdges = append(leaf.HEdges, NO_HEDGE)
	copy(leaf.HEdges[pos+2:], leaf.HEdges[pos+1:])
	leaf.HEdges[pos+1] = idx
	p.hedge(idx).leaf = leaf
	p.numHEdges++
}

// Middle point of the leaf, average of half-edge ends
func (p *Partitioner) leafMiddle(leaf *Leaf) (float64, float64) {
	var midX, midY float64
	for _, idx := range leaf.HEdges {
		h := p.hedge(idx)
		midX += h.psx + h.pex
		midY += h.psy + h.pey
	}
	total := float64(2 * len(leaf.HEdges))
	return midX / total, midY / total
}

// Sorts half-edges of the leaf clockwise around its middle point, then
// rotates the list so that it starts with a real half-edge, preferably of
// a linedef that isn't self-referencing
func (p *Partitioner) clockwiseOrder(leaf *Leaf) {
	midX, midY := p.leafMiddle(leaf)
	angles := make(map[HEdgeIdx]float64, len(leaf.HEdges))
	for _, idx := range leaf.HEdges {
		h := p.hedge(idx)
		angles[idx] = computeAngle(h.psx-midX, h.psy-midY)
	}
	sort.SliceStable(leaf.HEdges, func(i, j int) bool {
		return angles[leaf.HEdges[i]] > angles[leaf.HEdges[j]]
	})

	first := -1
	score := -1
	for i, idx := range leaf.HEdges {
		h := p.hedge(idx)
		curScore := 0
		if !h.IsMini() {
			curScore = 1
			if !p.lineSelfRef[h.Linedef] {
				curScore = 2
			}
		}
		if curScore > score {
			first = i
			score = curScore
		}
		if score == 2 {
			break
		}
	}
	if first > 0 {
		rotated := make([]HEdgeIdx, 0, len(leaf.HEdges))
		rotated = append(rotated, leaf.HEdges[first:]...)
		rotated = append(rotated, leaf.HEdges[:first]...)
		leaf.HEdges = rotated
	}
}

// Logs leaves whose half-edges don't form a closed loop. Not fatal, maps
// with unclosed sectors produce such leaves
func (p *Partitioner) sanityCheckClosed(leaf *Leaf) {
	gaps := 0
	total := len(leaf.HEdges)
	for i, idx := range leaf.HEdges {
		cur := p.hedge(idx)
		next := p.hedge(leaf.HEdges[(i+1)%total])
		if math.Abs(cur.pex-next.psx) > DIST_EPSILON ||
			math.Abs(cur.pey-next.psy) > DIST_EPSILON {
			gaps++
		}
	}
	if gaps > 0 {
		midX, midY := p.leafMiddle(leaf)
		p.log.Verbose(2, "Leaf #%d near (%1.1f,%1.1f) is not closed (%d gaps, %d half-edges)\n",
			leaf.Index, midX, midY, gaps, total)
	}
}
