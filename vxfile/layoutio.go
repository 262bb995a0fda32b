// Copyright (C) 2024 The Vortex Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package vxfile

import (
	"github.com/Sweetlemon68/vortex/genfb"
	"github.com/Sweetlemon68/vortex/layout"
)

// layoutToNode converts the in-memory Layout tree vxfile.Writer builds
// into its wire form. Chunk statistics sub-layouts are out of scope for
// this writer (see DESIGN.md), so l.Stats is never consulted here.
func layoutToNode(l layout.Layout) genfb.LayoutNode {
	n := genfb.LayoutNode{
		Encoding: uint16(l.Encoding),
		RowCount: uint64(l.RowCount),
		Metadata: l.Metadata,
	}
	if len(l.Buffers) > 0 {
		n.Buffers = make([]genfb.BufferRange, len(l.Buffers))
		for i, r := range l.Buffers {
			n.Buffers[i] = genfb.BufferRange{Begin: r.Begin, End: r.End}
		}
	}
	if len(l.Children) > 0 {
		n.Children = make([]genfb.LayoutNode, len(l.Children))
		for i, c := range l.Children {
			n.Children[i] = layoutToNode(c)
		}
	}
	return n
}

// nodeToLayout is the read-side inverse of layoutToNode.
func nodeToLayout(n genfb.LayoutNode) layout.Layout {
	l := layout.Layout{
		Encoding: layout.Encoding(n.Encoding),
		RowCount: int(n.RowCount),
		Metadata: n.Metadata,
	}
	if len(n.Buffers) > 0 {
		l.Buffers = make([]layout.BufferRange, len(n.Buffers))
		for i, r := range n.Buffers {
			l.Buffers[i] = layout.BufferRange{Begin: r.Begin, End: r.End}
		}
	}
	if len(n.Children) > 0 {
		l.Children = make([]layout.Layout, len(n.Children))
		for i, c := range n.Children {
			l.Children[i] = nodeToLayout(c)
		}
	}
	return l
}

// fieldLayout synthesizes a virtual Chunked layout describing one
// field's data across every batch, by picking out that field's Flat
// sub-layout from each batch's Columnar child (spec.md §4.7 projection:
// a reader need not touch the other fields' bytes at all). Its
// SplitPoints reduce to the original batch boundaries since Flat
// contributes none of its own.
func fieldLayout(root layout.Layout, fieldIndex int) layout.Layout {
	batches := root.DataChildren()
	children := make([]layout.Layout, len(batches))
	for i, b := range batches {
		children[i] = b.Children[fieldIndex]
	}
	return layout.Layout{
		Encoding: layout.Chunked,
		RowCount: root.RowCount,
		Children: children,
	}
}
