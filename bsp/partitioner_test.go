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
	"fmt"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vigilantdoomer/hedgebsp/level"
	"github.com/vigilantdoomer/hedgebsp/logger"
)

func TestSingleRoomIsLeaf(t *testing.T) {
	p := buildTestMap(t, yamlSquareRoom, DefaultConfig())
	root := p.Root()
	require.True(t, root.IsLeaf())
	assert.Equal(t, 0, p.NumNodes())
	assert.Equal(t, 1, p.NumLeafs())
	assert.Equal(t, 4, p.NumHEdges())
	assert.Len(t, root.Leaf.HEdges, 4)
	assert.Equal(t, 0, root.Leaf.Index)
	assert.Equal(t, 0, root.Leaf.Sector)
	assert.Equal(t, 1, p.Height())

	// clockwise order means each half-edge starts where the previous ended
	hedges := root.Leaf.HEdges
	for i, idx := range hedges {
		next := p.HEdge(hedges[(i+1)%len(hedges)])
		assert.Equal(t, p.HEdge(idx).V2, next.V1, "leaf: %s", spew.Sdump(hedges))
	}
}

func TestTwoRooms(t *testing.T) {
	p := buildTestMap(t, yamlTwoRooms, DefaultConfig())
	require.False(t, p.Root().IsLeaf())
	assert.Equal(t, 1, p.NumNodes())
	assert.Equal(t, 2, p.NumLeafs())
	assert.Equal(t, 8, p.NumHEdges())
	assert.Equal(t, 0, p.Stats().Splits)
	assert.Equal(t, 0, p.Stats().MiniHEdge)
	assert.Equal(t, 6, p.NumVertexes())

	// partition is the line between rooms
	part := p.Root().Partition
	assert.Equal(t, 64.0, part.X)
	assert.Equal(t, 0.0, part.DX)

	leaves := p.Root().Leaves()
	require.Len(t, leaves, 2)
	assert.Equal(t, 0, leaves[0].Index)
	assert.Equal(t, 1, leaves[1].Index)
	for _, leaf := range leaves {
		assert.Len(t, leaf.HEdges, 4)
		for _, idx := range leaf.HEdges {
			assert.Equal(t, leaf.Sector, p.HEdge(idx).Sector)
		}
	}

	left := p.LeafAtPoint(32, 32)
	right := p.LeafAtPoint(96, 32)
	require.NotNil(t, left)
	require.NotNil(t, right)
	assert.Equal(t, 0, left.Sector)
	assert.Equal(t, 1, right.Sector)

	rb := p.Root().Bounds(part.PointOnSide(96, 32))
	assert.Equal(t, 64.0, rb.X.Lo)
	assert.Equal(t, 128.0, rb.X.Hi)
	assert.Equal(t, 0.0, rb.Y.Lo)
	assert.Equal(t, 64.0, rb.Y.Hi)
}

func TestCrossingSplit(t *testing.T) {
	p := buildTestMap(t, yamlCrossing, DefaultConfig())
	assert.Equal(t, 1, p.NumNodes())
	assert.Equal(t, 2, p.NumLeafs())
	assert.Equal(t, 1, p.Stats().Splits)
	assert.Equal(t, 7, p.NumVertexes())

	var bottom []*HEdge
	for _, leaf := range p.Root().Leaves() {
		for _, idx := range leaf.HEdges {
			if h := p.HEdge(idx); h.Linedef == 4 {
				bottom = append(bottom, h)
			}
		}
	}
	require.Len(t, bottom, 2, spew.Sdump(bottom))
	for _, h := range bottom {
		assert.InDelta(t, 64.0, h.Length(), 1e-9)
	}
	// fragments share the new vertex
	shared := -1
	if bottom[0].V2 == bottom[1].V1 {
		shared = bottom[0].V2
	} else if bottom[1].V2 == bottom[0].V1 {
		shared = bottom[1].V2
	}
	require.Equal(t, 6, shared)
	v := p.Map().Vertices[shared]
	assert.Equal(t, 64.0, v.X)
	assert.Equal(t, 0.0, v.Y)
	assert.Equal(t, 2, v.RefCount)

	// chain of fragments runs from the start of linedef to its end
	first := bottom[0]
	if first.PrevOnSide != NO_HEDGE {
		first = bottom[1]
	}
	assert.Equal(t, NO_HEDGE, first.PrevOnSide)
	require.NotEqual(t, NO_HEDGE, first.NextOnSide)
	assert.Equal(t, 4, first.V1)
	assert.Equal(t, 0, p.HEdge(first.NextOnSide).V2)
}

func TestBuildTwiceFails(t *testing.T) {
	p := buildTestMap(t, yamlSquareRoom, DefaultConfig())
	assert.Error(t, p.Build())
}

func TestBuildNoUsableLines(t *testing.T) {
	m := &level.Map{
		Name:     "DOT",
		Vertices: []level.Vertex{{X: 5, Y: 5}, {X: 5, Y: 5}},
		LineDefs: []level.LineDef{{Start: 0, End: 1, Front: 0, Back: level.NO_SIDE}},
		SideDefs: []level.SideDef{{Sector: 0}},
		Sectors:  []level.Sector{{}},
	}
	mlog := logger.CreateMiniLogger(1)
	p := NewPartitioner(m, Config{Log: mlog})
	err := p.Build()
	require.Error(t, err)
	assert.False(t, IsInternalError(err))
	assert.Nil(t, p.Root())
	assert.Contains(t, mlog.String(), "Skipping zero-length linedef #0")
}

func TestDefaultsApplied(t *testing.T) {
	p := NewPartitioner(loadTestMap(t, yamlSquareRoom), Config{CandidateLimit: -3})
	assert.Equal(t, DEFAULT_SPLIT_COST_FACTOR, p.Config().SplitCostFactor)
	assert.Equal(t, 0, p.Config().CandidateLimit)
}

var propertyMaps = []testMap{
	{name: "pillar", src: yamlPillar},
	{name: "diagonal", src: yamlDiagonal},
	{name: "tworooms", src: yamlTwoRooms},
	{name: "crossing", src: yamlCrossing},
	{name: "grid", gen: func() *level.Map { return gridMap(3, 2) }},
}

// Every half-edge of a leaf lies on the side (or on the line) of every
// partition above it
func assertConvexLeaves(t *testing.T, p *Partitioner) {
	t.Helper()
	const tolerance = 2 * DIST_EPSILON
	walkLeaves(p.Root(), nil, nil, func(leaf *Leaf, path []Partition, sides []int) {
		for i, part := range path {
			for _, idx := range leaf.HEdges {
				h := p.HEdge(idx)
				for _, d := range []float64{
					part.PerpDist(h.Start()),
					part.PerpDist(h.End()),
				} {
					if sides[i] == RIGHT {
						assert.GreaterOrEqual(t, d, -tolerance,
							"leaf %d, partition %s", leaf.Index, spew.Sdump(part))
					} else {
						assert.LessOrEqual(t, d, tolerance,
							"leaf %d, partition %s", leaf.Index, spew.Sdump(part))
					}
				}
			}
		}
	})
}

func TestLeafConvexity(t *testing.T) {
	for _, tc := range propertyMaps {
		t.Run(tc.name, func(t *testing.T) {
			assertConvexLeaves(t, tc.build(t, DefaultConfig()))
		})
	}
}

// Total length of real half-edges in leaves equals total length of linedef
// sides
func TestCoverage(t *testing.T) {
	for _, tc := range propertyMaps {
		t.Run(tc.name, func(t *testing.T) {
			m := tc.load(t)
			expected := 0.0
			for i, line := range m.LineDefs {
				sides := 0
				if line.Front != level.NO_SIDE {
					sides++
				}
				if line.Back != level.NO_SIDE {
					sides++
				}
				expected += float64(sides) * m.LineLength(i)
			}

			p := NewPartitioner(m, DefaultConfig())
			require.NoError(t, p.Build())
			got := 0.0
			count := 0
			for _, leaf := range p.Root().Leaves() {
				for _, idx := range leaf.HEdges {
					h := p.HEdge(idx)
					if !h.IsMini() {
						got += h.Length()
					}
					count++
				}
			}
			assert.InDelta(t, expected, got, 1e-6)
			assert.Equal(t, p.NumHEdges(), count)
		})
	}
}

func TestTwinSymmetry(t *testing.T) {
	for _, tc := range propertyMaps {
		t.Run(tc.name, func(t *testing.T) {
			p := tc.build(t, DefaultConfig())
			inLeaves := make(map[HEdgeIdx]int)
			for _, leaf := range p.Root().Leaves() {
				for _, idx := range leaf.HEdges {
					inLeaves[idx] = leaf.Index
				}
			}
			for idx := range inLeaves {
				h := p.HEdge(idx)
				if h.Twin == NO_HEDGE {
					assert.False(t, h.IsMini(), "mini half-edge without twin")
					continue
				}
				twin := p.HEdge(h.Twin)
				assert.Equal(t, idx, twin.Twin)
				assert.Equal(t, h.V1, twin.V2)
				assert.Equal(t, h.V2, twin.V1)
				assert.Equal(t, h.Linedef, twin.Linedef)
				_, ok := inLeaves[h.Twin]
				assert.True(t, ok, "twin of %d is not in any leaf", idx)
			}
		})
	}
}

// A point well inside of a leaf must lead back to that very leaf, and no two
// leaves may claim the same point
func TestLeavesDoNotOverlap(t *testing.T) {
	const margin = 0.5
	for _, tc := range propertyMaps {
		t.Run(tc.name, func(t *testing.T) {
			p := tc.build(t, DefaultConfig())
			owners := make(map[*Leaf]int)
			checked := 0
			for _, leaf := range p.Root().Leaves() {
				x, y := p.leafMiddle(leaf)
				inside := true
				for _, idx := range leaf.HEdges {
					if UtilPerpDist(p.HEdge(idx), x, y) < margin {
						inside = false
						break
					}
				}
				// slivers have no room for a point clear of every edge
				if !inside {
					continue
				}
				checked++
				found := p.LeafAtPoint(x, y)
				require.NotNil(t, found, "leaf %d middle (%f,%f)", leaf.Index, x, y)
				assert.Same(t, leaf, found, "leaf %d middle (%f,%f) went to leaf %d",
					leaf.Index, x, y, found.Index)
				owners[found]++
			}
			assert.Greater(t, checked, 0)
			for leaf, n := range owners {
				assert.Equal(t, 1, n, "leaf %d claimed more than once", leaf.Index)
			}
		})
	}
}

func TestGeometryCacheIdempotent(t *testing.T) {
	p := buildTestMap(t, yamlDiagonal, DefaultConfig())
	for i := 0; i < p.hedges.Len(); i++ {
		h := p.HEdge(HEdgeIdx(i))
		again := *h
		p.recomputeHEdge(&again)
		assert.Equal(t, *h, again)
	}
}

func TestDeterminism(t *testing.T) {
	for _, tc := range propertyMaps {
		t.Run(tc.name, func(t *testing.T) {
			var desc [2]string
			for i := range desc {
				p := tc.build(t, DefaultConfig())
				sb := &strings.Builder{}
				describeTree(p, p.Root(), 0, sb)
				desc[i] = sb.String()
			}
			assert.Equal(t, desc[0], desc[1])
		})
	}
}

func TestPillarLeavesContainPoints(t *testing.T) {
	p := buildTestMap(t, yamlPillar, DefaultConfig())
	assert.Greater(t, p.NumNodes(), 1)
	assert.Greater(t, p.Stats().MiniHEdge, 0)
	assert.Equal(t, p.NumLeafs(), len(p.Root().Leaves()))
	assert.Equal(t, p.NumNodes()+1, p.NumLeafs())

	points := [][2]float64{{48, 48}, {200, 200}, {128, 40}, {40, 128}, {220, 30}}
	for _, pt := range points {
		leaf := p.LeafAtPoint(pt[0], pt[1])
		require.NotNil(t, leaf)
		// the point is inside of convex leaf: on the right of its every edge
		for _, idx := range leaf.HEdges {
			h := p.HEdge(idx)
			assert.GreaterOrEqual(t, UtilPerpDist(h, pt[0], pt[1]), -DIST_EPSILON,
				"point %v, leaf %d", pt, leaf.Index)
		}
	}
}

func TestTake(t *testing.T) {
	p := buildTestMap(t, yamlTwoRooms, DefaultConfig())
	root := p.Root()
	leaf := root.Right
	require.True(t, leaf.IsLeaf())

	assert.Same(t, leaf, p.Take(leaf))
	assert.Equal(t, 1, p.NumLeafs())
	assert.Equal(t, 4, p.NumHEdges())
	p.Take(leaf)
	assert.Equal(t, 1, p.NumLeafs())
	assert.Equal(t, 4, p.NumHEdges())

	p.Take(root)
	assert.Equal(t, 0, p.NumNodes())
	p.Take(root)
	assert.Equal(t, 0, p.NumNodes())
	assert.Nil(t, p.Take(nil))
}

// Limit on candidates must never turn a set that still can be divided into
// a leaf
func TestCandidateLimit(t *testing.T) {
	for _, limit := range []int{1, 2, 3} {
		t.Run(fmt.Sprintf("limit%d", limit), func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.CandidateLimit = limit
			var desc [2]string
			for i := range desc {
				p := buildTestMap(t, yamlPillar, cfg)
				assert.Greater(t, p.NumLeafs(), 1)
				assert.Equal(t, p.NumNodes()+1, p.NumLeafs())
				assertConvexLeaves(t, p)
				sb := &strings.Builder{}
				describeTree(p, p.Root(), 0, sb)
				desc[i] = sb.String()
			}
			assert.Equal(t, desc[0], desc[1])
		})
	}
}

// Split cost far above 32-bit range must still leave the only usable
// partition eligible
func TestHugeSplitCostFactor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SplitCostFactor = 100_000_000
	p := buildTestMap(t, yamlCrossing, cfg)
	assert.Equal(t, 1, p.NumNodes())
	assert.Equal(t, 2, p.NumLeafs())
	assert.Equal(t, 1, p.Stats().Splits)
}

// Bottom wall of the crossing map runs under both rooms, so sector #0 leaks
// where the line between rooms meets it
func TestUnclosedSectorWarnedOnce(t *testing.T) {
	mlog := logger.CreateMiniLogger(0)
	cfg := DefaultConfig()
	cfg.Log = mlog
	buildTestMap(t, yamlCrossing, cfg)
	assert.Equal(t, []string{"Warning: sector #0 is unclosed near (64.0,0.0)\n"},
		mlog.Slots())
	assert.NotContains(t, mlog.String(), "unclosed")
}

func TestWarnUnclosedUsesSectorSlot(t *testing.T) {
	mlog := logger.CreateMiniLogger(0)
	cfg := DefaultConfig()
	cfg.Log = mlog
	p := NewPartitioner(loadTestMap(t, yamlTwoRooms), cfg)
	open0 := intercept{vertex: 0, before: level.NO_SECTOR, after: 0}
	open1 := intercept{vertex: 3, before: 1, after: 1}
	closed := intercept{vertex: 1, before: level.NO_SECTOR, after: level.NO_SECTOR}
	p.warnUnclosed(&open0, &closed)
	p.warnUnclosed(&closed, &open1)
	p.warnUnclosed(&closed, &intercept{vertex: 4, before: 1})
	assert.Equal(t, []string{
		"Warning: sector #0 is unclosed near (0.0,0.0)\n",
		"Warning: sector #1 is unclosed near (128.0,0.0)\n",
	}, mlog.Slots())
}

func TestPointOnSide(t *testing.T) {
	north := Partition{X: 0, Y: 0, DX: 0, DY: 10}
	assert.Equal(t, LEFT, north.PointOnSide(-5, 0))
	assert.Equal(t, RIGHT, north.PointOnSide(5, 0))
	assert.Equal(t, LEFT, north.PointOnSide(0, 3))

	south := Partition{X: 0, Y: 0, DX: 0, DY: -10}
	assert.Equal(t, RIGHT, south.PointOnSide(-5, 0))
	assert.Equal(t, LEFT, south.PointOnSide(5, 0))

	east := Partition{X: 0, Y: 0, DX: 10, DY: 0}
	assert.Equal(t, LEFT, east.PointOnSide(0, 5))
	assert.Equal(t, RIGHT, east.PointOnSide(0, -5))
	assert.Equal(t, RIGHT, east.PointOnSide(3, 0))

	west := Partition{X: 0, Y: 0, DX: -10, DY: 0}
	assert.Equal(t, RIGHT, west.PointOnSide(0, 5))
	assert.Equal(t, LEFT, west.PointOnSide(0, -5))

	diag := Partition{X: 0, Y: 0, DX: 1, DY: 1}
	assert.Equal(t, RIGHT, diag.PointOnSide(1, 0))
	assert.Equal(t, LEFT, diag.PointOnSide(0, 1))
	assert.Equal(t, LEFT, diag.PointOnSide(1, 1))

	assert.InDelta(t, 5.0, north.PerpDist(5, 7), 1e-12)
	assert.InDelta(t, -5.0, east.PerpDist(2, 5), 1e-12)
}
