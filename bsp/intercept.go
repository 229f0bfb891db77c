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
	"sort"

	"github.com/vigilantdoomer/hedgebsp/level"
)

// Intercepts closer than this along the partition are the same point
const INTERCEPT_MERGE_DIST = 0.2

// Vertex lying on the partition line, with sectors open right before and
// right after it (going along the partition)
type intercept struct {
	vertex  int
	along   float64 // distance along partition from its start
	selfRef bool    // came from self-referencing linedef
	before  int     // open sector or NO_SECTOR
	after   int
}

func (p *Partitioner) addIntercept(vertex int, part *HEdge, selfRef bool) {
	for i := range p.cuts {
		if p.cuts[i].vertex == vertex {
			// already there
			return
		}
	}

	v := &p.m.Vertices[vertex]
	dx := part.pdx / part.pLength
	dy := part.pdy / part.pLength
	p.cuts = append(p.cuts, intercept{
		vertex:  vertex,
		along:   UtilParallelDist(part, v.X, v.Y),
		selfRef: selfRef,
		before:  p.checkOpen(vertex, -dx, -dy),
		after:   p.checkOpen(vertex, dx, dy),
	})
}

// mergeIntercepts sorts intercepts along partition and folds those lying
// (almost) at the same point together
func (p *Partitioner) mergeIntercepts(part *HEdge) {
	sort.SliceStable(p.cuts, func(i, j int) bool {
		return p.cuts[i].along < p.cuts[j].along
	})

	i := 0
	for i+1 < len(p.cuts) {
		cur := &p.cuts[i]
		next := &p.cuts[i+1]
		lenGap := next.along - cur.along
		if lenGap < -0.1 {
			fatalf("bad order of intercepts along partition by linedef #%d: %1.3f > %1.3f",
				part.Linedef, cur.along, next.along)
		}
		if lenGap > INTERCEPT_MERGE_DIST {
			i++
			continue
		}
		if lenGap > DIST_EPSILON {
			p.log.Verbose(2, "Skipping very short half-edge (len=%1.3f) near (%1.1f,%1.1f)\n",
				lenGap, p.m.Vertices[cur.vertex].X, p.m.Vertices[cur.vertex].Y)
		}

		// merge the info for sectors open on both sides
		if cur.selfRef && !next.selfRef {
			if cur.before != level.NO_SECTOR && next.before != level.NO_SECTOR {
				cur.before = next.before
			}
			if cur.after != level.NO_SECTOR && next.after != level.NO_SECTOR {
				cur.after = next.after
			}
			cur.selfRef = false
		}
		if cur.before == level.NO_SECTOR && next.before != level.NO_SECTOR {
			cur.before = next.before
		}
		if cur.after == level.NO_SECTOR && next.after != level.NO_SECTOR {
			cur.after = next.after
		}

		// free the unused cut
		p.cuts = append(p.cuts[:i+1], p.cuts[i+2:]...)
	}
}

// addMiniHEdges closes the gaps along partition line which run through open
// space with pairs of mini half-edges, one for each side of partition
func (p *Partitioner) addMiniHEdges(part *HEdge, rights, lefts *Superblock) {
	p.mergeIntercepts(part)

	for i := 0; i+1 < len(p.cuts); i++ {
		cur := &p.cuts[i]
		next := &p.cuts[i+1]

		// nothing is open in between
		if cur.after == level.NO_SECTOR && next.before == level.NO_SECTOR {
			continue
		}

		// one end is open while the other is not
		if cur.after == level.NO_SECTOR || next.before == level.NO_SECTOR {
			if !cur.selfRef && !next.selfRef {
				p.warnUnclosed(cur, next)
			}
			continue
		}

		if cur.after != next.before {
			if !cur.selfRef && !next.selfRef {
				cv := &p.m.Vertices[cur.vertex]
				nv := &p.m.Vertices[next.vertex]
				p.log.Verbose(2, "Sector mismatch: #%d (%1.1f,%1.1f) != #%d (%1.1f,%1.1f)\n",
					cur.after, cv.X, cv.Y, next.before, nv.X, nv.Y)
			}
			// choose the non-self-referencing sector when we can
			if cur.selfRef && !next.selfRef {
				cur.after = next.before
			}
		}

		seg, buddy := p.newMiniPair(cur.vertex, next.vertex, cur.after, part.Linedef)
		rights.Push(seg)
		lefts.Push(buddy)
		p.log.Verbose(4, "Mini half-edges between vertices #%d and #%d, sector #%d\n",
			cur.vertex, next.vertex, cur.after)
	}
	p.cuts = p.cuts[:0]
}

// Unclosed sector is reported once, through the slot of that sector: later
// warnings about the same sector replace earlier ones
func (p *Partitioner) warnUnclosed(cur, next *intercept) {
	sector := cur.after
	v := &p.m.Vertices[cur.vertex]
	if sector == level.NO_SECTOR {
		sector = next.before
		v = &p.m.Vertices[next.vertex]
	}
	p.log.Push(sector, "Warning: sector #%d is unclosed near (%1.1f,%1.1f)\n",
		sector, v.X, v.Y)
}
