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

// Map geometry as consumed by the nodes builder: vertices, linedefs, sidedefs
// and sectors, independent from the format they were read from
package level

import (
	"math"

	"github.com/pkg/errors"
)

// Sector (and sidedef) references that point nowhere
const NO_SECTOR = -1
const NO_SIDE = -1

// A Vertex is a coordinate on the map. RefCount tracks how many half-edges
// currently start or end at it, nodes builder keeps it up to date
type Vertex struct {
	X        float64
	Y        float64
	RefCount int
}

type LineDef struct {
	Start  int // index of start vertex
	End    int // index of end vertex
	Flags  uint16
	Action uint16
	Tag    uint16
	Front  int // front sidedef number, or NO_SIDE
	Back   int // back sidedef number, or NO_SIDE
}

type SideDef struct {
	Sector int
}

type Sector struct {
	FloorHeight int16
	CeilHeight  int16
	FloorName   string
	CeilName    string
	Light       int16
	Special     uint16
	Tag         uint16
}

type Map struct {
	Name     string
	Format   int // FORMAT_DOOM or FORMAT_HEXEN for maps read from wads
	Vertices []Vertex
	LineDefs []LineDef
	SideDefs []SideDef
	Sectors  []Sector
}

type Bounds struct {
	Xmin float64
	Ymin float64
	Xmax float64
	Ymax float64
}

// SideSector returns sector referenced by sidedef, or NO_SECTOR
func (m *Map) SideSector(side int) int {
	if side < 0 || side >= len(m.SideDefs) {
		return NO_SECTOR
	}
	return m.SideDefs[side].Sector
}

func (m *Map) FrontSector(line int) int {
	return m.SideSector(m.LineDefs[line].Front)
}

func (m *Map) BackSector(line int) int {
	return m.SideSector(m.LineDefs[line].Back)
}

func (m *Map) IsTwoSided(line int) bool {
	l := &m.LineDefs[line]
	return l.Front != NO_SIDE && l.Back != NO_SIDE
}

// Self-referencing lines have the same sector on both sides. Mapping tricks
// (deep water, invisible bridges) rely on them
func (m *Map) IsSelfReferencing(line int) bool {
	if !m.IsTwoSided(line) {
		return false
	}
	front := m.FrontSector(line)
	return front != NO_SECTOR && front == m.BackSector(line)
}

func (m *Map) LineLength(line int) float64 {
	l := &m.LineDefs[line]
	v1 := &m.Vertices[l.Start]
	v2 := &m.Vertices[l.End]
	return math.Hypot(v2.X-v1.X, v2.Y-v1.Y)
}

// AddVertex appends new vertex and returns its index
func (m *Map) AddVertex(x, y float64) int {
	m.Vertices = append(m.Vertices, Vertex{X: x, Y: y})
	return len(m.Vertices) - 1
}

// GetBounds computes bounding box of vertices used by linedefs. Vertices not
// referenced by any linedef are ignored
func (m *Map) GetBounds() Bounds {
	if len(m.LineDefs) == 0 {
		return Bounds{}
	}
	b := Bounds{
		Xmin: math.Inf(1),
		Ymin: math.Inf(1),
		Xmax: math.Inf(-1),
		Ymax: math.Inf(-1),
	}
	for _, line := range m.LineDefs {
		for _, vi := range [2]int{line.Start, line.End} {
			v := &m.Vertices[vi]
			b.Xmin = math.Min(b.Xmin, v.X)
			b.Ymin = math.Min(b.Ymin, v.Y)
			b.Xmax = math.Max(b.Xmax, v.X)
			b.Ymax = math.Max(b.Ymax, v.Y)
		}
	}
	return b
}

// Validate checks that all references between map elements are in range.
// Nodes builder must not be started on a map that fails validation
func (m *Map) Validate() error {
	if len(m.LineDefs) == 0 {
		return errors.Errorf("map %s has no linedefs", m.Name)
	}
	for i, side := range m.SideDefs {
		if side.Sector < 0 || side.Sector >= len(m.Sectors) {
			return errors.Errorf("map %s: sidedef %d references sector %d (have %d sectors)",
				m.Name, i, side.Sector, len(m.Sectors))
		}
	}
	for i, line := range m.LineDefs {
		if line.Start < 0 || line.Start >= len(m.Vertices) ||
			line.End < 0 || line.End >= len(m.Vertices) {
			return errors.Errorf("map %s: linedef %d references vertex out of range (%d, %d)",
				m.Name, i, line.Start, line.End)
		}
		if line.Front == NO_SIDE && line.Back == NO_SIDE {
			return errors.Errorf("map %s: linedef %d has no sidedefs", m.Name, i)
		}
		for _, side := range [2]int{line.Front, line.Back} {
			if side != NO_SIDE && (side < 0 || side >= len(m.SideDefs)) {
				return errors.Errorf("map %s: linedef %d references sidedef %d (have %d sidedefs)",
					m.Name, i, side, len(m.SideDefs))
			}
		}
	}
	return nil
}
