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
package level

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Hand-written maps. One yaml document per map, e.g.
//
//	name: ROOM
//	vertices: [[0, 0], [0, 64], [64, 64], [64, 0]]
//	sectors: [{floor: 0, ceil: 128}]
//	sides: [0]
//	lines:
//	  - {v1: 0, v2: 1, front: 0}
//	  - {v1: 1, v2: 2, front: 0, back: 1}
type yamlMap struct {
	Name     string       `yaml:"name"`
	Vertices [][]float64  `yaml:"vertices"`
	Sectors  []yamlSector `yaml:"sectors"`
	Sides    []int        `yaml:"sides"`
	Lines    []yamlLine   `yaml:"lines"`
}

type yamlSector struct {
	Floor     int16  `yaml:"floor"`
	Ceil      int16  `yaml:"ceil"`
	FloorName string `yaml:"floorpic"`
	CeilName  string `yaml:"ceilpic"`
	Light     int16  `yaml:"light"`
	Special   uint16 `yaml:"special"`
	Tag       uint16 `yaml:"tag"`
}

type yamlLine struct {
	V1     int    `yaml:"v1"`
	V2     int    `yaml:"v2"`
	Front  *int   `yaml:"front"`
	Back   *int   `yaml:"back"`
	Flags  uint16 `yaml:"flags"`
	Action uint16 `yaml:"action"`
	Tag    uint16 `yaml:"tag"`
}

// LoadYAML reads every map of a (possibly multi-document) yaml stream
func LoadYAML(r io.Reader) ([]*Map, error) {
	var res []*Map
	dec := yaml.NewDecoder(r)
	for {
		var ym yamlMap
		err := dec.Decode(&ym)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "yaml map #%d", len(res))
		}
		m, err := ym.toMap(len(res))
		if err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	if len(res) == 0 {
		return nil, errors.New("no maps in yaml input")
	}
	return res, nil
}

func (ym *yamlMap) toMap(ordinal int) (*Map, error) {
	m := &Map{
		Name:   ym.Name,
		Format: FORMAT_YAML,
	}
	if m.Name == "" {
		m.Name = fmt.Sprintf("YAML%02d", ordinal+1)
	}
	for i, v := range ym.Vertices {
		if len(v) != 2 {
			return nil, errors.Errorf("map %s: vertex %d must have exactly 2 coordinates, got %d",
				m.Name, i, len(v))
		}
		m.Vertices = append(m.Vertices, Vertex{X: v[0], Y: v[1]})
	}
	for _, s := range ym.Sectors {
		m.Sectors = append(m.Sectors, Sector{
			FloorHeight: s.Floor,
			CeilHeight:  s.Ceil,
			FloorName:   s.FloorName,
			CeilName:    s.CeilName,
			Light:       s.Light,
			Special:     s.Special,
			Tag:         s.Tag,
		})
	}
	for _, sec := range ym.Sides {
		m.SideDefs = append(m.SideDefs, SideDef{Sector: sec})
	}
	for _, l := range ym.Lines {
		line := LineDef{
			Start:  l.V1,
			End:    l.V2,
			Flags:  l.Flags,
			Action: l.Action,
			Tag:    l.Tag,
			Front:  NO_SIDE,
			Back:   NO_SIDE,
		}
		if l.Front != nil {
			line.Front = *l.Front
		}
		if l.Back != nil {
			line.Back = *l.Back
		}
		m.LineDefs = append(m.LineDefs, line)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}
