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

// Package layout implements the Layout tree (spec.md §4.6): the
// description of how an array's bytes are physically arranged in a
// file, independent of the wire encoding (genfb) and of the in-memory
// array representation (array). It is modeled on the teacher's
// ion/blockfmt.Trailer -- an ordered sequence of Blockdesc-like chunk
// descriptors used to plan reads and prune chunks before touching
// their bytes.
package layout

import (
	"sort"

	"github.com/Sweetlemon68/vortex/vxerr"
)

// Encoding discriminates the three Layout node shapes (spec.md §4.6).
type Encoding uint16

const (
	Flat     Encoding = 1
	Chunked  Encoding = 2
	Columnar Encoding = 3
)

// metadata[0] bit for Chunked: set when the first child is a
// statistics sub-layout rather than a data chunk.
const chunkedHasStatsBit = 1 << 0

// BufferRange is an absolute file byte range.
type BufferRange struct {
	Begin, End uint64
}

// Layout is the in-memory form of a Layout node, built by vxfile.Writer
// and walked by vxfile.Reader. Unlike genfb.LayoutNode (its wire
// counterpart), a Layout additionally carries per-chunk Stats for
// pruning Chunked children. vxfile's Writer does not compute them and
// its Reader does not decode them, so Stats is set only on a Layout a
// caller builds in memory.
type Layout struct {
	Encoding Encoding
	Buffers  []BufferRange
	Children []Layout
	RowCount int
	Metadata []byte

	// Stats is consulted only on a Chunked node that has a statistics
	// child (see HasStatsChild): one entry per data chunk, in
	// DataChildren order.
	Stats []ChunkStats
}

// ChunkStats is the per-chunk summary used for pruning (spec.md §4.6
// "a statistics sub-layout (min/max/null_count per chunk)"), grounded
// on the teacher's blockfmt.SparseIndex per-block min/max timestamps.
type ChunkStats struct {
	HasMin    bool
	Min       []byte // raw orderable encoding; interpreted only by a Predicate, never by layout itself
	HasMax    bool
	Max       []byte
	NullCount int
}

// HasStatsChild reports whether a Chunked layout's first child is a
// statistics sub-layout rather than a data chunk.
func (l Layout) HasStatsChild() bool {
	return l.Encoding == Chunked && len(l.Metadata) > 0 && l.Metadata[0]&chunkedHasStatsBit != 0
}

// DataChildren returns a Chunked layout's data chunk children, skipping
// the leading statistics sub-layout if present.
func (l Layout) DataChildren() []Layout {
	if l.HasStatsChild() {
		return l.Children[1:]
	}
	return l.Children
}

// SplitPoints returns the sorted, deduplicated row positions at which
// a consumer may materialize a batch boundary (spec.md §4.6): Flat
// contributes none, Chunked contributes its data chunk boundaries,
// Columnar contributes the union of its children's splits.
func (l Layout) SplitPoints() []int {
	switch l.Encoding {
	case Flat:
		return nil
	case Chunked:
		pts := make([]int, 0, len(l.DataChildren())+1)
		pos := 0
		for _, c := range l.DataChildren() {
			pts = append(pts, pos)
			pos += c.RowCount
		}
		pts = append(pts, pos)
		return pts
	case Columnar:
		set := map[int]struct{}{0: {}, l.RowCount: {}}
		for _, c := range l.Children {
			for _, p := range c.SplitPoints() {
				set[p] = struct{}{}
			}
		}
		pts := make([]int, 0, len(set))
		for p := range set {
			pts = append(pts, p)
		}
		sort.Ints(pts)
		return pts
	}
	return nil
}

// CombineSplits merges and sorts the split points of several projected
// layouts into one ascending sequence of batch boundaries, used by
// vxfile.Reader to compute the split points across all projected
// fields at once (spec.md §4.7 step "compute the sorted set of split
// points across all projected layouts").
func CombineSplits(layouts []Layout) []int {
	set := map[int]struct{}{}
	for _, l := range layouts {
		pts := l.SplitPoints()
		if len(pts) == 0 {
			set[0] = struct{}{}
			set[l.RowCount] = struct{}{}
			continue
		}
		for _, p := range pts {
			set[p] = struct{}{}
		}
	}
	out := make([]int, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

// RangesFor returns the byte ranges intersecting the row range
// [r0, r1) for a leaf layout (Flat only carries a direct range;
// Chunked is resolved chunk by chunk, applying pruning when a
// predicate is given and the chunk has stats; Columnar has no byte
// ranges of its own, only children).
func (l Layout) RangesFor(r0, r1 int, pred Predicate) ([]BufferRange, error) {
	switch l.Encoding {
	case Flat:
		return l.Buffers, nil
	case Chunked:
		var out []BufferRange
		pos := 0
		chunks := l.DataChildren()
		for i, c := range chunks {
			cs, ce := pos, pos+c.RowCount
			pos = ce
			if ce <= r0 || cs >= r1 {
				continue
			}
			if pred != nil && l.HasStatsChild() && i < len(l.Stats) {
				if !pred.MayMatch(l.Stats[i]) {
					continue
				}
			}
			out = append(out, c.Buffers...)
		}
		return out, nil
	case Columnar:
		return nil, vxerr.New(vxerr.InvalidRange, "layout: RangesFor called on a Columnar node directly; recurse into its children")
	}
	return nil, vxerr.New(vxerr.InvalidSerialization, "layout: unknown encoding %d", l.Encoding)
}

// Predicate prunes Chunked chunks using their cached ChunkStats,
// mirroring spec.md §4.6's minimal pruning contract: "chunks whose
// min/max cannot satisfy E are skipped without reading their data."
// The core ships no expression language (row-filter evaluation is an
// explicit Non-goal); callers construct a Predicate from whatever
// expression representation they use.
type Predicate interface {
	MayMatch(stats ChunkStats) bool
}

// CombineWith merges two sibling Chunked layouts that describe
// logically adjacent row ranges of the same schema into one, the way
// the teacher's Trailer.CombineWith merges two blockfmt trailers
// written by separate flushes of the same table.
func CombineWith(a, b Layout) (Layout, error) {
	if a.Encoding != b.Encoding {
		return Layout{}, vxerr.New(vxerr.TypeMismatch, "layout: CombineWith requires matching encodings, got %d and %d", a.Encoding, b.Encoding)
	}
	switch a.Encoding {
	case Chunked:
		merged := a
		merged.Children = append(append([]Layout(nil), a.Children...), b.Children...)
		merged.Stats = append(append([]ChunkStats(nil), a.Stats...), b.Stats...)
		merged.RowCount = a.RowCount + b.RowCount
		return merged, nil
	case Columnar:
		if len(a.Children) != len(b.Children) {
			return Layout{}, vxerr.New(vxerr.InvalidRange, "layout: CombineWith column count mismatch (%d vs %d)", len(a.Children), len(b.Children))
		}
		merged := a
		merged.Children = make([]Layout, len(a.Children))
		for i := range a.Children {
			c, err := CombineWith(a.Children[i], b.Children[i])
			if err != nil {
				return Layout{}, err
			}
			merged.Children[i] = c
		}
		merged.RowCount = a.RowCount + b.RowCount
		return merged, nil
	}
	return Layout{}, vxerr.New(vxerr.TypeMismatch, "layout: CombineWith not supported for Flat layouts")
}

// Slice returns the logical sub-range [start, end) of a Chunked or
// Columnar layout, trimming whole chunks/children that fall outside
// the range (spec.md §4.6's split-point contract implies readers only
// ever need whole-chunk slices; partial-chunk row selection is handled
// by take/filter downstream of decoding, not by the layout tree).
func (l Layout) Slice(start, end int) (Layout, error) {
	if start < 0 || end < start || end > l.RowCount {
		return Layout{}, vxerr.New(vxerr.InvalidRange, "layout: Slice range [%d, %d) invalid for row count %d", start, end, l.RowCount)
	}
	switch l.Encoding {
	case Flat:
		if start != 0 || end != l.RowCount {
			return Layout{}, vxerr.New(vxerr.InvalidRange, "layout: Flat layouts cannot be partially sliced")
		}
		return l, nil
	case Chunked:
		out := l
		out.Children = nil
		out.Stats = nil
		if l.HasStatsChild() {
			out.Children = append(out.Children, l.Children[0])
		}
		pos := 0
		for i, c := range l.DataChildren() {
			cs, ce := pos, pos+c.RowCount
			pos = ce
			if ce <= start || cs >= end {
				continue
			}
			if cs < start || ce > end {
				return Layout{}, vxerr.New(vxerr.InvalidRange, "layout: Slice range does not align to chunk boundaries")
			}
			out.Children = append(out.Children, c)
			if i < len(l.Stats) {
				out.Stats = append(out.Stats, l.Stats[i])
			}
		}
		out.RowCount = end - start
		return out, nil
	case Columnar:
		out := l
		out.Children = make([]Layout, len(l.Children))
		for i, c := range l.Children {
			sliced, err := c.Slice(start, end)
			if err != nil {
				return Layout{}, err
			}
			out.Children[i] = sliced
		}
		out.RowCount = end - start
		return out, nil
	}
	return Layout{}, vxerr.New(vxerr.InvalidSerialization, "layout: unknown encoding %d", l.Encoding)
}
