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
	"time"

	"github.com/pkg/errors"
	"github.com/vigilantdoomer/hedgebsp/bsp"
	"github.com/vigilantdoomer/hedgebsp/level"
	"github.com/vigilantdoomer/hedgebsp/logger"
)

// Passed to the nodes builder goroutine
type NodesInput struct {
	levelMap  *level.Map
	cfg       bsp.Config
	nodesChan chan<- NodesResult
}

// Returned from nodes builder goroutine through a channel
type NodesResult struct {
	levelMap    *level.Map
	partitioner *bsp.Partitioner // nil if build failed
	mlog        *logger.MiniLogger
	elapsed     time.Duration
	err         error
}

// NodesGenerator builds the tree of a single level. Meant to be run as
// goroutine, everything it has to say goes into its own MiniLogger which is
// merged into the main log by receiver, so that output of levels being built
// at the same time doesn't interleave
func NodesGenerator(input *NodesInput) {
	start := time.Now()
	mlog := input.cfg.Log
	if mlog == nil {
		mlog = logger.CreateMiniLogger(logger.Log.Verbosity())
		input.cfg.Log = mlog
	}
	res := NodesResult{
		levelMap: input.levelMap,
		mlog:     mlog,
	}
	if err := input.levelMap.Validate(); err != nil {
		res.err = errors.Wrapf(err, "level %s", input.levelMap.Name)
		mlog.Error("%s\n", res.err)
		res.elapsed = time.Since(start)
		input.nodesChan <- res
		return
	}
	mlog.Verbose(1, "Level has %d vertices, %d linedefs, %d sectors\n",
		len(input.levelMap.Vertices), len(input.levelMap.LineDefs),
		len(input.levelMap.Sectors))
	p := bsp.NewPartitioner(input.levelMap, input.cfg)
	if err := p.Build(); err != nil {
		res.err = errors.Wrapf(err, "level %s", input.levelMap.Name)
		mlog.Error("%s\n", res.err)
	} else {
		res.partitioner = p
		stats := p.Stats()
		mlog.Printf("Created %d leaves, %d nodes. Got %d half-edges. Split half-edges %d times.\n",
			p.NumLeafs(), p.NumNodes(), p.NumHEdges(), stats.Splits)
		mlog.Verbose(1, "Mini half-edges: %d, vertices: %d, tree height: %d\n",
			stats.MiniHEdge, stats.Vertices, p.Height())
	}
	res.elapsed = time.Since(start)
	mlog.Printf("Nodes took %s\n", res.elapsed)
	input.nodesChan <- res
}
