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
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vigilantdoomer/hedgebsp/level"
)

// 64x64 room
const yamlSquareRoom = `
name: ROOM
vertices: [[0, 0], [0, 64], [64, 64], [64, 0]]
sectors: [{floor: 0, ceil: 128}]
sides: [0, 0, 0, 0]
lines:
  - {v1: 0, v2: 1, front: 0}
  - {v1: 1, v2: 2, front: 1}
  - {v1: 2, v2: 3, front: 2}
  - {v1: 3, v2: 0, front: 3}
`

// Two 64x64 rooms side by side, joined by two-sided linedef at x = 64
const yamlTwoRooms = `
name: TWOROOMS
vertices: [[0, 0], [0, 64], [64, 64], [128, 64], [128, 0], [64, 0]]
sectors: [{floor: 0, ceil: 128}, {floor: 16, ceil: 128}]
sides: [0, 0, 1, 1, 1, 0, 1, 0]
lines:
  - {v1: 0, v2: 1, front: 0}
  - {v1: 1, v2: 2, front: 1}
  - {v1: 2, v2: 3, front: 2}
  - {v1: 3, v2: 4, front: 3}
  - {v1: 4, v2: 5, front: 4}
  - {v1: 5, v2: 0, front: 5}
  - {v1: 5, v2: 2, front: 6, back: 7}
`

// Same as two rooms, but bottom wall is a single 128 units long linedef that
// the line between rooms ends on
const yamlCrossing = `
name: CROSSING
vertices: [[0, 0], [0, 64], [64, 64], [128, 64], [128, 0], [64, 0]]
sectors: [{floor: 0, ceil: 128}, {floor: 16, ceil: 128}]
sides: [0, 0, 1, 1, 0, 1, 0]
lines:
  - {v1: 0, v2: 1, front: 0}
  - {v1: 1, v2: 2, front: 1}
  - {v1: 2, v2: 3, front: 2}
  - {v1: 3, v2: 4, front: 3}
  - {v1: 4, v2: 0, front: 4}
  - {v1: 5, v2: 2, front: 5, back: 6}
`

// 256x256 room with 64x64 square pillar in the middle
const yamlPillar = `
name: PILLAR
vertices: [[0, 0], [0, 256], [256, 256], [256, 0],
  [96, 96], [160, 96], [160, 160], [96, 160]]
sectors: [{floor: 0, ceil: 128}]
sides: [0, 0, 0, 0, 0, 0, 0, 0]
lines:
  - {v1: 0, v2: 1, front: 0}
  - {v1: 1, v2: 2, front: 1}
  - {v1: 2, v2: 3, front: 2}
  - {v1: 3, v2: 0, front: 3}
  - {v1: 4, v2: 5, front: 4}
  - {v1: 5, v2: 6, front: 5}
  - {v1: 6, v2: 7, front: 6}
  - {v1: 7, v2: 4, front: 7}
`

// Room split in two sectors by a diagonal two-sided line, with a
// self-referencing line standing inside one of them
const yamlDiagonal = `
name: DIAGONAL
vertices: [[0, 0], [0, 192], [256, 192], [256, 0], [40, 0], [200, 192],
  [200, 20], [200, 100]]
sectors: [{floor: 0, ceil: 128}, {floor: 24, ceil: 128}]
sides: [0, 0, 1, 1, 1, 0, 1, 0, 1, 1]
lines:
  - {v1: 0, v2: 1, front: 0}
  - {v1: 1, v2: 5, front: 1}
  - {v1: 5, v2: 2, front: 2}
  - {v1: 2, v2: 3, front: 3}
  - {v1: 3, v2: 4, front: 4}
  - {v1: 4, v2: 0, front: 5}
  - {v1: 4, v2: 5, front: 6, back: 7}
  - {v1: 6, v2: 7, front: 8, back: 9}
`

// Generated map of cols x rows square rooms, each its own sector, joined by
// two-sided linedefs. Every room has a pillar turned by a different angle,
// so partitions of one room cut through walls shared with the others
func gridMap(cols, rows int) *level.Map {
	const cell = 256.0
	const radius = 48.0
	m := &level.Map{Name: fmt.Sprintf("GRID%dX%d", cols, rows)}
	for j := 0; j <= rows; j++ {
		for i := 0; i <= cols; i++ {
			m.Vertices = append(m.Vertices, level.Vertex{X: float64(i) * cell, Y: float64(j) * cell})
		}
	}
	for k := 0; k < cols*rows; k++ {
		m.Sectors = append(m.Sectors, level.Sector{FloorHeight: int16(8 * k), CeilHeight: 128})
	}
	vertex := func(i, j int) int { return j*(cols+1) + i }
	sector := func(i, j int) int { return j*cols + i }
	side := func(sector int) int {
		m.SideDefs = append(m.SideDefs, level.SideDef{Sector: sector})
		return len(m.SideDefs) - 1
	}
	addLine := func(v1, v2, front, back int) {
		line := level.LineDef{Start: v1, End: v2, Front: side(front), Back: level.NO_SIDE}
		if back != level.NO_SECTOR {
			line.Back = side(back)
		}
		m.LineDefs = append(m.LineDefs, line)
	}

	for j := 0; j < rows; j++ {
		for i := 0; i <= cols; i++ {
			switch i {
			case 0:
				addLine(vertex(i, j), vertex(i, j+1), sector(i, j), level.NO_SECTOR)
			case cols:
				addLine(vertex(i, j+1), vertex(i, j), sector(i-1, j), level.NO_SECTOR)
			default:
				addLine(vertex(i, j), vertex(i, j+1), sector(i, j), sector(i-1, j))
			}
		}
	}
	for j := 0; j <= rows; j++ {
		for i := 0; i < cols; i++ {
			switch j {
			case 0:
				addLine(vertex(i+1, j), vertex(i, j), sector(i, j), level.NO_SECTOR)
			case rows:
				addLine(vertex(i, j), vertex(i+1, j), sector(i, j-1), level.NO_SECTOR)
			default:
				addLine(vertex(i, j), vertex(i+1, j), sector(i, j-1), sector(i, j))
			}
		}
	}

	// pillars go counter-clockwise, so the room is on the right of them
	for j := 0; j < rows; j++ {
		for i := 0; i < cols; i++ {
			k := sector(i, j)
			cx := float64(i)*cell + cell/2
			cy := float64(j)*cell + cell/2
			turn := float64((10+13*k)%90) * math.Pi / 180
			first := len(m.Vertices)
			for c := 0; c < 4; c++ {
				angle := turn + float64(c)*math.Pi/2
				m.Vertices = append(m.Vertices, level.Vertex{
					X: cx + radius*math.Cos(angle),
					Y: cy + radius*math.Sin(angle),
				})
			}
			for c := 0; c < 4; c++ {
				addLine(first+c, first+(c+1)%4, k, level.NO_SECTOR)
			}
		}
	}
	return m
}

type testMap struct {
	name string
	src  string
	gen  func() *level.Map
}

func (tm testMap) load(t *testing.T) *level.Map {
	t.Helper()
	if tm.gen != nil {
		return tm.gen()
	}
	return loadTestMap(t, tm.src)
}

func (tm testMap) build(t *testing.T, cfg Config) *Partitioner {
	t.Helper()
	p := NewPartitioner(tm.load(t), cfg)
	require.NoError(t, p.Build())
	require.NotNil(t, p.Root())
	return p
}

func loadTestMap(t *testing.T, src string) *level.Map {
	t.Helper()
	maps, err := level.LoadYAML(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, maps, 1)
	return maps[0]
}

func buildTestMap(t *testing.T, src string, cfg Config) *Partitioner {
	t.Helper()
	p := NewPartitioner(loadTestMap(t, src), cfg)
	require.NoError(t, p.Build())
	require.NotNil(t, p.Root())
	return p
}

// Calls fn for every leaf together with the partitions (and sides) on the
// way from the root to it
func walkLeaves(n *TreeNode, path []Partition, sides []int,
	fn func(leaf *Leaf, path []Partition, sides []int)) {
	if n.Leaf != nil {
		fn(n.Leaf, path, sides)
		return
	}
	walkLeaves(n.Right, append(path[:len(path):len(path)], n.Partition),
		append(sides[:len(sides):len(sides)], RIGHT), fn)
	walkLeaves(n.Left, append(path[:len(path):len(path)], n.Partition),
		append(sides[:len(sides):len(sides)], LEFT), fn)
}

// Text rendition of the tree, two builds of the same map must produce the
// same one
func describeTree(p *Partitioner, n *TreeNode, depth int, sb *strings.Builder) {
	indent := strings.Repeat(" ", depth)
	if n.Leaf != nil {
		fmt.Fprintf(sb, "%sleaf %d sector %d\n", indent, n.Leaf.Index, n.Leaf.Sector)
		for _, idx := range n.Leaf.HEdges {
			h := p.HEdge(idx)
			x1, y1 := h.Start()
			x2, y2 := h.End()
			fmt.Fprintf(sb, "%s (%.3f,%.3f)-(%.3f,%.3f) line %d sector %d\n",
				indent, x1, y1, x2, y2, h.Linedef, h.Sector)
		}
		return
	}
	fmt.Fprintf(sb, "%snode (%.3f,%.3f) d(%.3f,%.3f) %v %v\n", indent,
		n.Partition.X, n.Partition.Y, n.Partition.DX, n.Partition.DY,
		n.RightBounds, n.LeftBounds)
	describeTree(p, n.Right, depth+1, sb)
	describeTree(p, n.Left, depth+1, sb)
}
