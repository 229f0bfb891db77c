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
	"fmt"
	"io"
	"strings"

	"github.com/logrusorgru/aurora"
	"github.com/vigilantdoomer/hedgebsp/bsp"
)

// DumpTree prints the tree built by p, nodes numbered in pre-order, right
// child before left one
func DumpTree(w io.Writer, p *bsp.Partitioner, colors bool) {
	au := aurora.NewAurora(colors)
	fmt.Fprintf(w, "%s %s: %d nodes, %d leaves, %d half-edges\n",
		au.Bold("Level"), au.Bold(p.Map().Name), p.NumNodes(), p.NumLeafs(),
		p.NumHEdges())
	if p.Root() == nil {
		return
	}
	d := &treeDumper{w: w, p: p, au: au}
	d.dump(p.Root(), 0, "")
}

type treeDumper struct {
	w       io.Writer
	p       *bsp.Partitioner
	au      aurora.Aurora
	nodeNum int
}

func (d *treeDumper) dump(node *bsp.TreeNode, depth int, prefix string) {
	indent := strings.Repeat("  ", depth)
	if node.IsLeaf() {
		leaf := node.Leaf
		fmt.Fprintf(d.w, "%s%s%s sector %d, %d half-edges\n", indent, prefix,
			d.au.Green(fmt.Sprintf("Leaf #%d", leaf.Index)), leaf.Sector,
			len(leaf.HEdges))
		for _, idx := range leaf.HEdges {
			h := d.p.HEdge(idx)
			x1, y1 := h.Start()
			x2, y2 := h.End()
			if h.IsMini() {
				fmt.Fprintf(d.w, "%s    %s (%.1f, %.1f) -> (%.1f, %.1f) sector %d\n",
					indent, d.au.Yellow("mini"), x1, y1, x2, y2, h.Sector)
			} else {
				fmt.Fprintf(d.w, "%s    linedef %d (%.1f, %.1f) -> (%.1f, %.1f) sector %d\n",
					indent, h.Linedef, x1, y1, x2, y2, h.Sector)
			}
		}
		return
	}
	part := node.Partition
	fmt.Fprintf(d.w, "%s%s%s linedef %d: (%.1f, %.1f) delta (%.1f, %.1f)\n",
		indent, prefix, d.au.Cyan(fmt.Sprintf("Node #%d", d.nodeNum)),
		node.Linedef, part.X, part.Y, part.DX, part.DY)
	d.nodeNum++
	d.dump(node.Right, depth+1, "R: ")
	d.dump(node.Left, depth+1, "L: ")
}
