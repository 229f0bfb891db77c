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

// Package bsp builds a binary space partitioning tree out of map linedefs.
// Walls are turned into half-edges, which are recursively divided by
// partition lines until every remaining set bounds a convex region (leaf).
// Partitions that cut through open space get closed off with mini
// half-edges, so every leaf ends up as a closed polygon.
package bsp

import (
	"math"

	"github.com/pkg/errors"
	"github.com/vigilantdoomer/hedgebsp/level"
	"github.com/vigilantdoomer/hedgebsp/logger"
)

// Default weight of a split in partition cost evaluation
const DEFAULT_SPLIT_COST_FACTOR = 7

type Config struct {
	// Cost of splitting a half-edge, relative to imbalance of half-edge
	// counts on both sides of partition
	SplitCostFactor int
	// How many candidate partition lines are evaluated at most in each
	// node, in scan order. 0 means all of them
	CandidateLimit int
	// Where the build reports to. Nil means the program-wide log
	Log *logger.MiniLogger
}

func DefaultConfig() Config {
	return Config{
		SplitCostFactor: DEFAULT_SPLIT_COST_FACTOR,
	}
}

// Partitioner owns all the state of one build: half-edges, edge tips and
// superblocks, as well as the produced tree until the caller takes parts of
// it. Not safe for concurrent use, but different partitioners can work on
// different maps at the same time
type Partitioner struct {
	m   *level.Map
	cfg Config
	log *logger.MiniLogger

	hedges     pagedArena[HEdge]
	tips       pagedArena[EdgeTip]
	vertexTips []EdgeTipIdx // head of tip list, per vertex

	lineSelfRef []bool
	lineValid   []int // validCount at which linedef was last tried as partition
	validCount  int

	qallocSupers *Superblock // pool of unused superblocks
	cuts         []intercept

	root      *TreeNode
	numNodes  int
	numLeafs  int
	numHEdges int
	nextLeaf  int
	numSplits int
	numMinis  int
	built     bool
}

// NewPartitioner prepares to build nodes for the map. The map is borrowed:
// vertices created by splits are appended to m.Vertices and reference counts
// of vertices are updated
func NewPartitioner(m *level.Map, cfg Config) *Partitioner {
	if cfg.SplitCostFactor <= 0 {
		cfg.SplitCostFactor = DEFAULT_SPLIT_COST_FACTOR
	}
	if cfg.CandidateLimit < 0 {
		cfg.CandidateLimit = 0
	}
	p := &Partitioner{
		m:           m,
		cfg:         cfg,
		log:         cfg.Log,
		hedges:      newPagedArena[HEdge](DEFAULT_ARENA_PAGE_SIZE),
		tips:        newPagedArena[EdgeTip](DEFAULT_ARENA_PAGE_SIZE),
		vertexTips:  make([]EdgeTipIdx, len(m.Vertices)),
		lineSelfRef: make([]bool, len(m.LineDefs)),
		lineValid:   make([]int, len(m.LineDefs)),
	}
	for i := range p.vertexTips {
		p.vertexTips[i] = NO_TIP
	}
	return p
}

func (p *Partitioner) Config() Config {
	return p.cfg
}

// Build runs the whole partitioning. On failure no tree is retained and the
// error names the offending vertex or half-edge
func (p *Partitioner) Build() (err error) {
	if p.built {
		return errors.Errorf("nodes for %s were already built", p.m.Name)
	}
	p.built = true
	defer func() {
		if rerr := handleBuildPanicRecover(recover()); rerr != nil {
			p.root = nil
			p.numNodes = 0
			p.numLeafs = 0
			p.numHEdges = 0
			err = errors.Wrapf(rerr, "building nodes for %s", p.m.Name)
		}
	}()

	p.createHEdges()
	if p.hedges.Len() == 0 {
		return errors.Errorf("map %s has no linedefs of non-zero length", p.m.Name)
	}

	block := p.getNewSuperblock()
	block.SetBounds(p.m.GetBounds())
	for i := 0; i < p.hedges.Len(); i++ {
		block.Push(HEdgeIdx(i))
	}
	p.log.Verbose(1, "Map %s: %d half-edges from %d linedefs\n", p.m.Name,
		p.hedges.Len(), len(p.m.LineDefs))

	p.root = p.buildNodes(block)

	p.log.Verbose(1, "Map %s: %d nodes, %d leafs, %d half-edges (%d splits, %d mini), tree height %d\n",
		p.m.Name, p.numNodes, p.numLeafs, p.numHEdges, p.numSplits, p.numMinis,
		p.Height())
	return nil
}

// One half-edge per existing side of each linedef, twins for two-sided ones,
// and edge tips at both ends
func (p *Partitioner) createHEdges() {
	for i := range p.m.LineDefs {
		line := &p.m.LineDefs[i]
		v1 := &p.m.Vertices[line.Start]
		v2 := &p.m.Vertices[line.End]
		dx := v2.X - v1.X
		dy := v2.Y - v1.Y
		if math.Hypot(dx, dy) < DIST_EPSILON {
			p.log.Verbose(1, "Skipping zero-length linedef #%d at (%.1f, %.1f)\n",
				i, v1.X, v1.Y)
			continue
		}
		if line.Front == level.NO_SIDE && line.Back == level.NO_SIDE {
			p.log.Verbose(1, "Skipping linedef #%d without sidedefs\n", i)
			continue
		}

		front := NO_HEDGE
		back := NO_HEDGE
		if line.Front != level.NO_SIDE {
			front = p.newLineHEdge(i, line.Start, line.End, line.Front, SIDE_FRONT)
		}
		if line.Back != level.NO_SIDE {
			back = p.newLineHEdge(i, line.End, line.Start, line.Back, SIDE_BACK)
		}
		if front != NO_HEDGE && back != NO_HEDGE {
			p.hedge(front).Twin = back
			p.hedge(back).Twin = front
		}
		p.lineSelfRef[i] = p.m.IsSelfReferencing(i)

		p.AddEdgeTip(line.Start, computeAngle(dx, dy), front, back)
		p.AddEdgeTip(line.End, computeAngle(-dx, -dy), back, front)
	}
}

func (p *Partitioner) newLineHEdge(line, v1, v2, side, whichSide int) HEdgeIdx {
	idx, h := p.newHEdge()
	h.V1 = v1
	h.V2 = v2
	h.Sector = p.m.SideSector(side)
	h.Linedef = line
	h.SourceLine = line
	h.Side = whichSide
	p.m.Vertices[v1].RefCount++
	p.m.Vertices[v2].RefCount++
	p.recomputeHEdge(h)
	return idx
}

// Recursive divide. Right side is built before left, so leaf indices grow
// in that order
func (p *Partitioner) buildNodes(block *Superblock) *TreeNode {
	best := p.PickNode(block)
	if best == NO_HEDGE {
		leaf := p.createLeaf(block)
		p.returnSuperblockToPool(block)
		return &TreeNode{Leaf: leaf}
	}

	// partition is a snapshot, the half-edge itself may go on changing
	part := *p.hedge(best)
	p.log.Verbose(3, "Partition by linedef #%d (%.1f, %.1f) -> (%.1f, %.1f)\n",
		part.Linedef, part.psx, part.psy, part.pex, part.pey)

	rights := p.getNewSuperblock()
	lefts := p.getNewSuperblock()
	rights.copyBounds(block)
	lefts.copyBounds(block)

	p.cuts = p.cuts[:0]
	p.partitionHEdges(block, &part, rights, lefts)
	p.returnSuperblockToPool(block)
	p.addMiniHEdges(&part, rights, lefts)

	if rights.realNum == 0 || lefts.realNum == 0 {
		fatalf("partition by linedef #%d at (%.1f, %.1f) left %d real half-edges on the right and %d on the left",
			part.Linedef, part.psx, part.psy, rights.realNum, lefts.realNum)
	}

	node := &TreeNode{
		Partition: Partition{
			X:  part.psx,
			Y:  part.psy,
			DX: part.pdx,
			DY: part.pdy,
		},
		Linedef:     part.Linedef,
		RightBounds: rights.FindHEdgeBounds(),
		LeftBounds:  lefts.FindHEdgeBounds(),
	}
	p.numNodes++
	node.Right = p.buildNodes(rights)
	node.Left = p.buildNodes(lefts)
	return node
}

// Splits and statistics of the build
type Stats struct {
	Splits    int
	MiniHEdge int
	HEdges    int // in the arena, including those that got split
	Vertices  int
}

func (p *Partitioner) Stats() Stats {
	return Stats{
		Splits:    p.numSplits,
		MiniHEdge: p.numMinis,
		HEdges:    p.hedges.Len(),
		Vertices:  len(p.m.Vertices),
	}
}

// Map the partitioner works on
func (p *Partitioner) Map() *level.Map {
	return p.m
}
