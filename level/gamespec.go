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

// Wad specifications for Doom-engine family of games
// (including Heretic, Hexen, etc.), the part needed to read map geometry
package level

import (
	"regexp"
)

// Both brought in accordance with Prboom-Plus 2.6.1um map name ranges, except
// that E1M0x is possible (when it is probably shouldn't be) since I don't
// want to complicate these regexp's (and E9M97 is perfectly legal, for example)
var MAP_SEQUEL *regexp.Regexp = regexp.MustCompile(`^MAP[0-9][0-9]$`)
var MAP_ExMx *regexp.Regexp = regexp.MustCompile(`^E[1-9]M[0-9][0-9]?$`)

const (
	FORMAT_DOOM = iota
	FORMAT_HEXEN
	// Maps hand-written in yaml
	FORMAT_YAML
)

const IWAD_MAGIC_SIG = uint32(0x44415749) // ASCII - 'IWAD'
const PWAD_MAGIC_SIG = uint32(0x44415750) // ASCII - 'PWAD'

const SIDEDEF_NONE = uint16(0xFFFF)

const DOOM_LINEDEF_SIZE = 14  // Size of "WadLinedef" struct
const HEXEN_LINEDEF_SIZE = 16 // Size of "HexenLinedef" struct
const DOOM_SIDEDEF_SIZE = 30  // Size of "WadSidedef" struct
const DOOM_SECTOR_SIZE = 26   // Size of "WadSector" struct
const DOOM_VERTEX_SIZE = 4    // Size of "WadVertex" struct

// Wad header, 12 bytes.
type WadHeader struct {
	MagicSig       uint32
	LumpCount      uint32 // vanilla treats this as signed int32
	DirectoryStart uint32 // vanilla treats this as signed int32
}

// Lump entries listed one after another comprise the directory,
// the first such lump entry is found at WadHeader.DirectoryStart offset into
// the wad file.
// Each lump entry is 16 bytes long
type LumpEntry struct {
	FilePos uint32 // vanilla treats this as signed int32
	Size    uint32 // vanilla treats this as signed int32
	Name    [8]byte
}

// Doom/Heretic linedef format
type WadLinedef struct {
	// Vanilla treats ALL fields as signed int16
	StartVertex uint16
	EndVertex   uint16
	Flags       uint16
	Action      uint16
	Tag         uint16
	FrontSdef   uint16 // Front Sidedef number
	BackSdef    uint16 // Back Sidedef number (0xFFFF special value for one-sided line)
}

// Hexen linedef format
type HexenLinedef struct {
	// Vanilla treats ALL fields as signed
	StartVertex uint16
	EndVertex   uint16
	Flags       uint16
	Action      uint8
	Arg1        uint8
	Arg2        uint8
	Arg3        uint8
	Arg4        uint8
	Arg5        uint8
	FrontSdef   uint16 // Front Sidedef number
	BackSdef    uint16 // Back Sidedef number (0xFFFF special value for one-sided line)
}

type WadSidedef struct {
	XOffset int16
	YOffset int16
	UpName  [8]byte // name of upper texture
	LoName  [8]byte // name of lower texture
	MidName [8]byte // name of middle texture
	Sector  uint16  // sector number; vanilla treats this as signed int16
}

type WadVertex struct {
	XPos int16
	YPos int16
}

type WadSector struct {
	FloorHeight int16
	CeilHeight  int16
	FloorName   [8]byte
	CeilName    [8]byte
	LightLevel  int16
	Special     uint16
	Tag         uint16
}

// Lumps that must be present for geometry of a level to be loaded
var LUMP_MUSTEXIST = []string{"LINEDEFS", "SIDEDEFS", "VERTEXES", "SECTORS"}

// Lumps that may follow level marker. Anything else ends the level
var LUMP_LEVELSPEC = []string{"THINGS", "LINEDEFS", "SIDEDEFS", "VERTEXES",
	"SEGS", "SSECTORS", "NODES", "SECTORS", "REJECT", "BLOCKMAP", "BEHAVIOR",
	"SCRIPTS"}

// Returns true if lump name is a level marker
func IsALevel(lumpName []byte) bool {
	return MAP_SEQUEL.Match(lumpName) || MAP_ExMx.Match(lumpName)
}
