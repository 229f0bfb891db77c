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

// -- This file is where the program entry is.
// HedgeBSP builds a binary space partition of Doom-engine maps using
// half-edges: two-sided lines are a pair of twins, splits keep twins paired,
// and partition lines crossing open space are closed off with mini half-edges.
// Tree goes to stdout (--dump) and/or into a picture (--draw), nothing is
// written back into the wad.
package main

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/vigilantdoomer/hedgebsp/level"
	"github.com/vigilantdoomer/hedgebsp/logger"
)

var Log = logger.Log

func main() {
	timeStart := time.Now()
	config, err := FromCommandLine(os.Args[1:], os.Stdout)
	if err != nil {
		Log.Error("%s\n", err)
		os.Exit(1)
	}
	code := run(config, os.Stdout)
	Log.Printf("Total time: %s\n", time.Since(timeStart))
	Log.Sync()
	os.Exit(code)
}

// run builds every selected level and returns exit code of the program
func run(config *ProgramConfig, out io.Writer) int {
	Log.SetVerbosity(config.Verbosity)
	maps, err := loadLevels(config)
	if err != nil {
		Log.Error("An error has occured while trying to read %s: %s\n",
			config.InputFileName, err)
		return 1
	}
	if len(maps) == 0 {
		Log.Error("No levels to build in %s\n", config.InputFileName)
		return 1
	}

	failed := 0
	for _, res := range buildLevels(maps, config) {
		// errors of the level were reported into its own log, and go to
		// stderr with it. Slots hold warnings reported once per sector
		Log.Merge(res.mlog, "Level "+res.levelMap.Name+":\n")
		Log.Flush()
		if res.err != nil {
			failed++
			continue
		}
		if config.Dump {
			DumpTree(out, res.partitioner, !config.NoColor)
		}
		if drawName := config.DrawFileFor(res.levelMap.Name, len(maps)); drawName != "" {
			if err := DrawTree(res.partitioner, drawName); err != nil {
				Log.Error("Couldn't draw level %s: %s\n", res.levelMap.Name, err)
				failed++
				continue
			}
			Log.Printf("Picture of %s saved to %s\n", res.levelMap.Name, drawName)
		}
	}
	Log.Printf("Built %d of %d levels.\n", len(maps)-failed, len(maps))
	if failed > 0 {
		return 1
	}
	return 0
}

// buildLevels runs at most config.Jobs nodes builders at once. Results come
// back in the order of maps
func buildLevels(maps []*level.Map, config *ProgramConfig) []NodesResult {
	chans := make([]chan NodesResult, len(maps))
	sem := make(chan struct{}, config.Jobs)
	for i, m := range maps {
		// buffered so that builder releases its job slot without waiting
		// for the receiver
		chans[i] = make(chan NodesResult, 1)
		cfg := config.BuilderConfig()
		cfg.Log = logger.CreateMiniLogger(config.Verbosity)
		input := &NodesInput{
			levelMap:  m,
			cfg:       cfg,
			nodesChan: chans[i],
		}
		go func() {
			sem <- struct{}{}
			NodesGenerator(input)
			<-sem
		}()
	}
	results := make([]NodesResult, 0, len(maps))
	for _, ch := range chans {
		results = append(results, <-ch)
	}
	return results
}

// loadLevels reads levels selected by --level (all of them by default) from
// wad or yaml input
func loadLevels(config *ProgramConfig) ([]*level.Map, error) {
	fileName, _ := filepath.Abs(config.InputFileName)
	f, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var maps []*level.Map
	if config.IsYAML() {
		all, err := level.LoadYAML(f)
		if err != nil {
			return nil, err
		}
		for _, m := range all {
			if level.CanRebuildThisLevel(m.Name, config.LevelFilter, config.ExcludeLevels) {
				maps = append(maps, m)
			}
		}
		return maps, nil
	}

	wad, err := level.ReadWad(f)
	if err != nil {
		return nil, err
	}
	if wad.IsIWAD {
		Log.Printf("The input file is an IWAD\n")
	} else {
		Log.Printf("The input file is a PWAD\n")
	}
	Log.Verbose(1, "The directory contains %d lumps and starts at %d byte offset\n",
		wad.Header.LumpCount, wad.Header.DirectoryStart)
	for _, marker := range wad.Levels() {
		if !level.CanRebuildThisLevel(marker.Name, config.LevelFilter, config.ExcludeLevels) {
			continue
		}
		m, err := wad.LoadLevel(marker)
		if err != nil {
			Log.Error("%s\n", errors.Wrapf(err, "skipping level %s", marker.Name))
			continue
		}
		maps = append(maps, m)
	}
	return maps, nil
}
