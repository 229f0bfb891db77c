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
	"github.com/fogleman/gg"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"github.com/vigilantdoomer/hedgebsp/bsp"
)

const (
	DRAW_MAX_SIZE = 2048 // longest side of the picture, in pixels
	DRAW_PADDING  = 16
)

// Fill colors of leaves, cycled through by leaf index
var leafPalette = [][3]float64{
	{0.20, 0.35, 0.55},
	{0.20, 0.50, 0.30},
	{0.55, 0.40, 0.20},
	{0.45, 0.25, 0.50},
	{0.25, 0.45, 0.50},
	{0.50, 0.25, 0.25},
}

// DrawTree saves picture of the leaves (filled), their half-edges and
// partition lines into PNG file
func DrawTree(p *bsp.Partitioner, fileName string) error {
	root := p.Root()
	if root == nil {
		return errors.New("nothing to draw, tree was not built")
	}
	leaves := root.Leaves()
	extent := leavesExtent(p, leaves)
	if extent.IsEmpty() {
		return errors.New("nothing to draw, tree has no extent")
	}
	size := extent.Size()
	longest := size.X
	if size.Y > longest {
		longest = size.Y
	}
	scale := 1.0
	if longest > 0 {
		scale = float64(DRAW_MAX_SIZE-2*DRAW_PADDING) / longest
	}
	width := int(scale*size.X) + DRAW_PADDING*2
	height := int(scale*size.Y) + DRAW_PADDING*2

	c := gg.NewContext(width, height)
	c.SetRGB(0, 0, 0)
	c.Clear()
	// Doom's y axis goes up
	c.Translate(0, float64(height))
	c.Scale(1, -1)
	c.Translate(DRAW_PADDING, DRAW_PADDING)
	c.Scale(scale, scale)
	c.Translate(-extent.X.Lo, -extent.Y.Lo)

	for _, leaf := range leaves {
		color := leafPalette[leaf.Index%len(leafPalette)]
		for i, idx := range leaf.HEdges {
			x, y := p.HEdge(idx).Start()
			if i == 0 {
				c.MoveTo(x, y)
			} else {
				c.LineTo(x, y)
			}
		}
		c.ClosePath()
		c.SetRGB(color[0], color[1], color[2])
		c.Fill()
	}

	lineWidth := 1.0 / scale
	c.SetLineWidth(2 * lineWidth)
	c.SetRGB(0.8, 0.1, 0.1)
	drawPartitions(c, root)

	c.SetLineWidth(lineWidth)
	for _, leaf := range leaves {
		for _, idx := range leaf.HEdges {
			h := p.HEdge(idx)
			x1, y1 := h.Start()
			x2, y2 := h.End()
			if h.IsMini() {
				c.SetRGB(0.6, 0.6, 0.6)
				c.SetDash(4*lineWidth, 4*lineWidth)
			} else {
				c.SetRGB(1, 1, 1)
				c.SetDash()
			}
			c.DrawLine(x1, y1, x2, y2)
			c.Stroke()
		}
	}
	c.SetDash()
	return errors.Wrapf(c.SavePNG(fileName), "couldn't save %s", fileName)
}

func leavesExtent(p *bsp.Partitioner, leaves []*bsp.Leaf) r2.Rect {
	extent := r2.EmptyRect()
	for _, leaf := range leaves {
		for _, idx := range leaf.HEdges {
			x, y := p.HEdge(idx).Start()
			extent = extent.AddPoint(r2.Point{X: x, Y: y})
		}
	}
	return extent
}

// Partition segments, from the linedef they were taken from
func drawPartitions(c *gg.Context, node *bsp.TreeNode) {
	if node.IsLeaf() {
		return
	}
	part := node.Partition
	c.DrawLine(part.X, part.Y, part.X+part.DX, part.Y+part.DY)
	c.Stroke()
	drawPartitions(c, node.Right)
	drawPartitions(c, node.Left)
}
