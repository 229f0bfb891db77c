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
package main

import (
	"path/filepath"
	"runtime"
	"strings"

	"github.com/vigilantdoomer/hedgebsp/bsp"
)

const VERSION = "0.1.0"

const (
	INPUT_AUTO = iota // by file extension
	INPUT_WAD
	INPUT_YAML
)

// ProgramConfig holds everything the user asked for on the command line
type ProgramConfig struct {
	InputFileName  string
	InputFormat    int
	SplitFactor    int // cost of a split in partition selection
	CandidateLimit int // 0 = evaluate all candidates
	LevelFilter    []string
	ExcludeLevels  bool // LevelFilter lists levels NOT to build
	Dump           bool
	NoColor        bool
	DrawFileName   string
	Jobs           int
	Verbosity      int
}

func defaultConfig() *ProgramConfig {
	return &ProgramConfig{
		InputFormat: INPUT_AUTO,
		SplitFactor: bsp.DEFAULT_SPLIT_COST_FACTOR,
		Jobs:        runtime.NumCPU(),
	}
}

// IsYAML tells whether input is to be read as yaml map file rather than wad
func (c *ProgramConfig) IsYAML() bool {
	switch c.InputFormat {
	case INPUT_YAML:
		return true
	case INPUT_WAD:
		return false
	}
	ext := strings.ToLower(filepath.Ext(c.InputFileName))
	return ext == ".yaml" || ext == ".yml"
}

// Nodes builder configuration for one level
func (c *ProgramConfig) BuilderConfig() bsp.Config {
	return bsp.Config{
		SplitCostFactor: c.SplitFactor,
		CandidateLimit:  c.CandidateLimit,
	}
}

// Where the picture of the given level goes. With more than one level built,
// level name is appended to file name
func (c *ProgramConfig) DrawFileFor(levelName string, levelCount int) string {
	if c.DrawFileName == "" || levelCount <= 1 {
		return c.DrawFileName
	}
	ext := filepath.Ext(c.DrawFileName)
	base := strings.TrimSuffix(c.DrawFileName, ext)
	if ext == "" {
		ext = ".png"
	}
	return base + "_" + levelName + ext
}
