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
	"math"
)

// Partition choice: every real half-edge of the working set is a candidate,
// each is scored by how many half-edges it would split and how unbalanced
// the two sides would end up. Lowest cost wins.

const INITIAL_BIG_COST = math.MaxInt

// Applied (times split cost factor) when the sector of the partition itself
// ends up on both sides of it
const SECTOR_SPLIT_MULTIPLY = 10

const DIAGONAL_PENALTY = 25

// Sector hit flags
const (
	SECTOR_HIT_RIGHT = 1
	SECTOR_HIT_LEFT  = 2
	SECTOR_HIT_BOTH  = SECTOR_HIT_RIGHT | SECTOR_HIT_LEFT
)

type evalInfo struct {
	cost      int
	splits    int
	iffy      int
	nearMiss  int
	realLeft  int
	realRight int
	miniLeft  int
	miniRight int
	// which sides of partition its own sector was found on
	sectorHits uint8
}

func (info *evalInfo) addLeft(h *HEdge, partSector int) {
	if h.IsMini() {
		info.miniLeft++
	} else {
		info.realLeft++
	}
	if h.Sector == partSector {
		info.sectorHits |= SECTOR_HIT_LEFT
	}
}

func (info *evalInfo) addRight(h *HEdge, partSector int) {
	if h.IsMini() {
		info.miniRight++
	} else {
		info.realRight++
	}
	if h.Sector == partSector {
		info.sectorHits |= SECTOR_HIT_RIGHT
	}
}

// If returns true, the partition must be skipped, because its cost already
// exceeds bestCost
func (p *Partitioner) evalPartitionWorker(block *Superblock, part *HEdge,
	bestCost int, info *evalInfo) bool {
	factor := float64(p.cfg.SplitCostFactor)

	// Test the whole block against the partition line first, only when
	// the line intercepts the box do we need to look at the half-edges
	num := BoxOnLineSide(block, part)
	if num < 0 {
		info.realLeft += block.realNum
		info.miniLeft += block.miniNum
		if block.secCounts[part.Sector] > 0 {
			info.sectorHits |= SECTOR_HIT_LEFT
		}
		return false
	} else if num > 0 {
		info.realRight += block.realNum
		info.miniRight += block.miniNum
		if block.secCounts[part.Sector] > 0 {
			info.sectorHits |= SECTOR_HIT_RIGHT
		}
		return false
	}

	for idx := block.hedges; idx != NO_HEDGE; {
		check := p.hedge(idx)
		idx = check.nextInSuper

		// This is the heart of the pruning idea, it catches bad partitions
		// early on
		if info.cost > bestCost {
			return true
		}

		var a, b float64
		if check.SourceLine == part.SourceLine {
			a, b = 0, 0
		} else {
			a = UtilPerpDist(part, check.psx, check.psy)
			b = UtilPerpDist(part, check.pex, check.pey)
		}
		fa := math.Abs(a)
		fb := math.Abs(b)

		// co-linear
		if fa <= DIST_EPSILON && fb <= DIST_EPSILON {
			if check.pdx*part.pdx+check.pdy*part.pdy < 0 {
				info.addLeft(check, part.Sector)
			} else {
				info.addRight(check, part.Sector)
			}
			continue
		}

		// right side
		if a > -DIST_EPSILON && b > -DIST_EPSILON {
			info.addRight(check, part.Sector)
			// check for a near miss
			if (a >= IFFY_LEN && b >= IFFY_LEN) ||
				(a <= DIST_EPSILON && b >= IFFY_LEN) ||
				(b <= DIST_EPSILON && a >= IFFY_LEN) {
				continue
			}
			info.nearMiss++
			// Near misses are bad, since they have the potential to cause
			// really short minisegs to be created in future processing
			var qnty float64
			if a <= DIST_EPSILON || b <= DIST_EPSILON {
				qnty = IFFY_LEN / math.Max(a, b)
			} else {
				qnty = IFFY_LEN / math.Min(a, b)
			}
			info.cost += int(100.0 * factor * (qnty*qnty - 1.0))
			continue
		}

		// left side
		if a < DIST_EPSILON && b < DIST_EPSILON {
			info.addLeft(check, part.Sector)
			if (a <= -IFFY_LEN && b <= -IFFY_LEN) ||
				(a >= -DIST_EPSILON && b <= -IFFY_LEN) ||
				(b >= -DIST_EPSILON && a <= -IFFY_LEN) {
				continue
			}
			info.nearMiss++
			var qnty float64
			if a >= -DIST_EPSILON || b >= -DIST_EPSILON {
				qnty = IFFY_LEN / -math.Min(a, b)
			} else {
				qnty = IFFY_LEN / -math.Max(a, b)
			}
			info.cost += int(70.0 * factor * (qnty*qnty - 1.0))
			continue
		}

		// When we reach here, a and b have opposite signs, so the half-edge
		// is going to be split by the partition line
		info.splits++
		info.cost += int(100.0 * factor)
		info.addLeft(check, part.Sector)
		info.addRight(check, part.Sector)

		// If the split point is very close to one end, which is quite an
		// undesirable situation (producing really short edges), make the
		// cost go up
		if fa < IFFY_LEN || fb < IFFY_LEN {
			info.iffy++
			qnty := IFFY_LEN / math.Min(fa, fb)
			info.cost += int(140.0 * factor * (qnty*qnty - 1.0))
		}
	}

	// handle sub-blocks recursively
	for num := 0; num < 2; num++ {
		if block.subs[num] == nil {
			continue
		}
		if p.evalPartitionWorker(block.subs[num], part, bestCost, info) {
			return true
		}
	}

	// no "bad half-edge" was found
	return false
}

// evalPartition returns the cost of partition, or a negative value if the
// partition cannot be used (no real half-edges on one of the sides, or the
// cost has exceeded bestCost)
func (p *Partitioner) evalPartition(block *Superblock, part *HEdge, bestCost int) int {
	info := evalInfo{}
	factor := p.cfg.SplitCostFactor

	if p.evalPartitionWorker(block, part, bestCost, &info) {
		return -1
	}

	// make sure there is at least one real half-edge on each side
	if info.realLeft == 0 || info.realRight == 0 {
		return -1
	}

	// increase cost by the difference between left & right
	info.cost += 100 * absInt(info.realLeft-info.realRight)
	// mini half-edges are less important, since they don't create visual
	// artifacts, but balance still matters
	info.cost += 50 * absInt(info.miniLeft-info.miniRight)

	// show a slight preference for purely horizontal or vertical partition
	// lines
	if part.pdx != 0 && part.pdy != 0 {
		info.cost += DIAGONAL_PENALTY
	}

	if info.sectorHits == SECTOR_HIT_BOTH {
		info.cost += SECTOR_SPLIT_MULTIPLY * factor
	}

	p.log.Verbose(4, "Candidate linedef #%d: cost %d, splits %d, iffy %d, near miss %d, left %d/%d, right %d/%d\n",
		part.Linedef, info.cost, info.splits, info.iffy, info.nearMiss,
		info.realLeft, info.miniLeft, info.realRight, info.miniRight)
	return info.cost
}

// PickNode chooses the best partition for the half-edges held by block and
// its sub-blocks. Returns NO_HEDGE when no half-edge can divide the set,
// which means the set is convex
func (p *Partitioner) PickNode(block *Superblock) HEdgeIdx {
	best := NO_HEDGE
	bestCost := INITIAL_BIG_COST
	candidates := 0
	limit := p.cfg.CandidateLimit

	// linedefs get tried only once per scan, all their half-edges lie on the
	// same line
	p.validCount++

	block.Traverse(SuperblockVisitorFunc(func(b *Superblock) bool {
		for idx := b.hedges; idx != NO_HEDGE; idx = p.hedge(idx).nextInSuper {
			part := p.hedge(idx)
			// ignore minihedges as partition candidates
			if part.IsMini() {
				continue
			}
			if p.lineValid[part.Linedef] == p.validCount {
				continue
			}
			p.lineValid[part.Linedef] = p.validCount
			// the limit only applies once there is something to pick,
			// otherwise a non-convex set would be taken for a leaf
			if limit > 0 && candidates >= limit && best != NO_HEDGE {
				return true
			}
			candidates++

			cost := p.evalPartition(block, part, bestCost)
			// unsuitable or too costly
			if cost < 0 || (best != NO_HEDGE && cost >= bestCost) {
				continue
			}
			// we have a new better choice
			bestCost = cost
			best = idx
		}
		return false
	}))

	if best != NO_HEDGE {
		p.log.Verbose(3, "Picked linedef #%d out of %d candidates, cost %d\n",
			p.hedge(best).Linedef, candidates, bestCost)
	}
	return best
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
