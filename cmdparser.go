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
	"io"
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/alecthomas/kingpin.v2"
)

// Parses command line arguments (without program name). Help and version
// are written to usage, after which the program exits
func FromCommandLine(args []string, usage io.Writer) (*ProgramConfig, error) {
	c := defaultConfig()
	app := kingpin.New("hedgebsp", "Builds BSP tree (nodes) of Doom-engine maps out of their linedefs.")
	app.Version(VERSION)
	app.HelpFlag.Short('h')
	app.UsageWriter(usage)
	app.ErrorWriter(usage)

	app.Arg("input", "WAD file, or YAML map file (.yaml, .yml)").
		Required().StringVar(&c.InputFileName)
	app.Flag("factor", "Cost of a split when choosing partition lines").
		Short('f').Default(strconv.Itoa(c.SplitFactor)).IntVar(&c.SplitFactor)
	app.Flag("candidates", "Evaluate at most this many partition candidates per node, 0 means all").
		Short('c').Default("0").IntVar(&c.CandidateLimit)
	app.Flag("level", "Build only this level (can be repeated)").
		Short('l').StringsVar(&c.LevelFilter)
	app.Flag("exclude", "Levels given with --level are the ones NOT to build").
		BoolVar(&c.ExcludeLevels)
	yaml := app.Flag("yaml", "Read input as YAML map file regardless of its extension").Bool()
	wad := app.Flag("wad", "Read input as WAD regardless of its extension").Bool()
	app.Flag("dump", "Print the built tree").Short('d').BoolVar(&c.Dump)
	app.Flag("no-color", "Don't colorize the printed tree").BoolVar(&c.NoColor)
	app.Flag("draw", "Draw leaves and partition lines into PNG file").
		PlaceHolder("FILE.png").StringVar(&c.DrawFileName)
	app.Flag("jobs", "How many levels to build at the same time").
		Short('j').Default(strconv.Itoa(c.Jobs)).IntVar(&c.Jobs)
	verbosity := app.Flag("verbose", "More output (can be repeated)").Short('v').Counter()

	if _, err := app.Parse(args); err != nil {
		return nil, errors.Wrap(err, "bad command line")
	}
	c.Verbosity = *verbosity

	if *yaml && *wad {
		return nil, errors.New("--yaml and --wad can't be used together")
	}
	if *yaml {
		c.InputFormat = INPUT_YAML
	} else if *wad {
		c.InputFormat = INPUT_WAD
	}
	if c.SplitFactor <= 0 {
		return nil, errors.Errorf("split cost factor must be positive, got %d", c.SplitFactor)
	}
	if c.CandidateLimit < 0 {
		return nil, errors.Errorf("candidate limit can't be negative, got %d", c.CandidateLimit)
	}
	if c.Jobs < 1 {
		return nil, errors.Errorf("number of jobs must be at least 1, got %d", c.Jobs)
	}
	if c.ExcludeLevels && len(c.LevelFilter) == 0 {
		return nil, errors.New("--exclude needs at least one --level")
	}
	return c, nil
}
