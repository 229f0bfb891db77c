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
	"bytes"
	"encoding/binary"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// A level found in wad directory: marker lump plus the lumps that follow it
type LevelMarker struct {
	Name        string
	DirIndex    int
	LevelFormat int
	Lumps       map[string]int // lump name -> directory index
}

type Wad struct {
	r         io.ReaderAt
	Header    WadHeader
	Directory []LumpEntry
	IsIWAD    bool
}

// ByteSliceBeforeTerm returns a part of the original bytes
// excluding everything that starts with zero-byte character.
// This allows string operations (such as pattern matching) to be performed
// correctly on returned value
func ByteSliceBeforeTerm(b []byte) []byte {
	i := bytes.IndexByte(b, 0)
	if i == -1 {
		return b
	} else {
		return b[:i]
	}
}

func lumpName(entry *LumpEntry) string {
	return string(ByteSliceBeforeTerm(entry.Name[:]))
}

func isLevelSpec(name string) bool {
	for _, spec := range LUMP_LEVELSPEC {
		if spec == name {
			return true
		}
	}
	return false
}

// ReadWad reads header and directory. Lumps are read later, on demand
func ReadWad(r io.ReaderAt) (*Wad, error) {
	wad := &Wad{r: r}
	err := binary.Read(io.NewSectionReader(r, 0, 12), binary.LittleEndian,
		&wad.Header)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't read file header")
	}
	if wad.Header.MagicSig == IWAD_MAGIC_SIG {
		wad.IsIWAD = true
	} else if wad.Header.MagicSig != PWAD_MAGIC_SIG {
		return nil, errors.New("the input file is NOT a wad")
	}
	if wad.Header.LumpCount == 0 {
		return nil, errors.New("wad has no lumps")
	}
	// Read in whole directory at once
	wad.Directory = make([]LumpEntry, wad.Header.LumpCount)
	dirSize := int64(binary.Size(wad.Directory))
	err = binary.Read(io.NewSectionReader(r, int64(wad.Header.DirectoryStart),
		dirSize), binary.LittleEndian, wad.Directory)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read lump info from a wad's directory at offset %d",
			wad.Header.DirectoryStart)
	}
	return wad, nil
}

// Levels identifies level markers and the lumps belonging to each of them.
// A level that is missing any lump needed to read geometry is not returned
func (w *Wad) Levels() []LevelMarker {
	var res []LevelMarker
	var action *LevelMarker
	for i := range w.Directory {
		name := lumpName(&w.Directory[i])
		if IsALevel([]byte(name)) {
			res = append(res, LevelMarker{
				Name:        name,
				DirIndex:    i,
				LevelFormat: FORMAT_DOOM,
				Lumps:       make(map[string]int),
			})
			action = &res[len(res)-1]
			continue
		}
		if action == nil {
			continue
		}
		if !isLevelSpec(name) {
			// level ended
			action = nil
			continue
		}
		if name == "BEHAVIOR" {
			action.LevelFormat = FORMAT_HEXEN
		}
		if _, dup := action.Lumps[name]; !dup {
			action.Lumps[name] = i
		}
	}
	valid := res[:0]
	for _, lvl := range res {
		complete := true
		for _, must := range LUMP_MUSTEXIST {
			if _, ok := lvl.Lumps[must]; !ok {
				complete = false
				break
			}
		}
		if complete {
			valid = append(valid, lvl)
		}
	}
	return valid
}

func (w *Wad) readLump(dirIndex int, data interface{}, recSize int) error {
	entry := &w.Directory[dirIndex]
	if int(entry.Size)%recSize != 0 {
		return errors.Errorf("lump %s has size %d not divisible by record size %d",
			lumpName(entry), entry.Size, recSize)
	}
	err := binary.Read(io.NewSectionReader(w.r, int64(entry.FilePos),
		int64(entry.Size)), binary.LittleEndian, data)
	return errors.Wrapf(err, "couldn't read lump %s", lumpName(entry))
}

func (w *Wad) lumpCount(dirIndex int, recSize int) int {
	return int(w.Directory[dirIndex].Size) / recSize
}

// LoadLevel reads the geometry of the level into the format independent Map
func (w *Wad) LoadLevel(marker LevelMarker) (*Map, error) {
	m := &Map{
		Name:   marker.Name,
		Format: marker.LevelFormat,
	}

	vIdx := marker.Lumps["VERTEXES"]
	wverts := make([]WadVertex, w.lumpCount(vIdx, DOOM_VERTEX_SIZE))
	if err := w.readLump(vIdx, wverts, DOOM_VERTEX_SIZE); err != nil {
		return nil, err
	}
	m.Vertices = make([]Vertex, len(wverts))
	for i, v := range wverts {
		m.Vertices[i] = Vertex{X: float64(v.XPos), Y: float64(v.YPos)}
	}

	secIdx := marker.Lumps["SECTORS"]
	wsecs := make([]WadSector, w.lumpCount(secIdx, DOOM_SECTOR_SIZE))
	if err := w.readLump(secIdx, wsecs, DOOM_SECTOR_SIZE); err != nil {
		return nil, err
	}
	m.Sectors = make([]Sector, len(wsecs))
	for i, s := range wsecs {
		m.Sectors[i] = Sector{
			FloorHeight: s.FloorHeight,
			CeilHeight:  s.CeilHeight,
			FloorName:   string(ByteSliceBeforeTerm(s.FloorName[:])),
			CeilName:    string(ByteSliceBeforeTerm(s.CeilName[:])),
			Light:       s.LightLevel,
			Special:     s.Special,
			Tag:         s.Tag,
		}
	}

	sdIdx := marker.Lumps["SIDEDEFS"]
	wsides := make([]WadSidedef, w.lumpCount(sdIdx, DOOM_SIDEDEF_SIZE))
	if err := w.readLump(sdIdx, wsides, DOOM_SIDEDEF_SIZE); err != nil {
		return nil, err
	}
	m.SideDefs = make([]SideDef, len(wsides))
	for i, s := range wsides {
		m.SideDefs[i] = SideDef{Sector: int(s.Sector)}
	}

	ldIdx := marker.Lumps["LINEDEFS"]
	if marker.LevelFormat == FORMAT_HEXEN {
		wlines := make([]HexenLinedef, w.lumpCount(ldIdx, HEXEN_LINEDEF_SIZE))
		if err := w.readLump(ldIdx, wlines, HEXEN_LINEDEF_SIZE); err != nil {
			return nil, err
		}
		m.LineDefs = make([]LineDef, len(wlines))
		for i, l := range wlines {
			m.LineDefs[i] = LineDef{
				Start:  int(l.StartVertex),
				End:    int(l.EndVertex),
				Flags:  l.Flags,
				Action: uint16(l.Action),
				Front:  sideRef(l.FrontSdef),
				Back:   sideRef(l.BackSdef),
			}
		}
	} else {
		wlines := make([]WadLinedef, w.lumpCount(ldIdx, DOOM_LINEDEF_SIZE))
		if err := w.readLump(ldIdx, wlines, DOOM_LINEDEF_SIZE); err != nil {
			return nil, err
		}
		m.LineDefs = make([]LineDef, len(wlines))
		for i, l := range wlines {
			m.LineDefs[i] = LineDef{
				Start:  int(l.StartVertex),
				End:    int(l.EndVertex),
				Flags:  l.Flags,
				Action: l.Action,
				Tag:    l.Tag,
				Front:  sideRef(l.FrontSdef),
				Back:   sideRef(l.BackSdef),
			}
		}
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func sideRef(sdef uint16) int {
	if sdef == SIDEDEF_NONE {
		return NO_SIDE
	}
	return int(sdef)
}

// Returns whether a level should be built given filter of level names. If
// exclude is true, filter lists the levels that must not be built.
// Names are compared case-insensitively
func CanRebuildThisLevel(levelName string, filter []string, exclude bool) bool {
	if len(filter) == 0 {
		return true
	}
	for _, entry := range filter {
		if strings.EqualFold(entry, levelName) {
			return !exclude
		}
	}
	// if filter was inclusive, return false, if it was excluding levels from
	// being rebuilt, return true
	return exclude
}
