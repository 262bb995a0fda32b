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

package layout

import (
	"reflect"
	"testing"
)

func chunk(rowCount int, begin, end uint64) Layout {
	return Layout{
		Encoding: Flat,
		Buffers:  []BufferRange{{Begin: begin, End: end}},
		RowCount: rowCount,
	}
}

func chunked(chunks ...Layout) Layout {
	total := 0
	for _, c := range chunks {
		total += c.RowCount
	}
	return Layout{Encoding: Chunked, Children: chunks, RowCount: total}
}

func TestSplitPointsFlatIsEmpty(t *testing.T) {
	f := chunk(10, 0, 40)
	if pts := f.SplitPoints(); pts != nil {
		t.Errorf("Flat.SplitPoints() = %v, want nil", pts)
	}
}

func TestSplitPointsChunkedIsChunkBoundaries(t *testing.T) {
	c := chunked(chunk(3, 0, 24), chunk(2, 24, 40))
	got := c.SplitPoints()
	want := []int{0, 3, 5}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Chunked.SplitPoints() = %v, want %v", got, want)
	}
}

func TestSplitPointsColumnarUnionsChildren(t *testing.T) {
	col := Layout{
		Encoding: Columnar,
		RowCount: 6,
		Children: []Layout{
			chunked(chunk(3, 0, 24), chunk(3, 24, 48)),
			chunked(chunk(2, 0, 16), chunk(4, 16, 48)),
		},
	}
	got := col.SplitPoints()
	want := []int{0, 2, 3, 6}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Columnar.SplitPoints() = %v, want %v", got, want)
	}
}

func TestCombineSplitsMergesAcrossFields(t *testing.T) {
	a := chunked(chunk(3, 0, 24), chunk(3, 24, 48))
	b := chunked(chunk(2, 0, 16), chunk(4, 16, 48))
	got := CombineSplits([]Layout{a, b})
	want := []int{0, 2, 3, 6}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CombineSplits() = %v, want %v", got, want)
	}
}

func TestCombineSplitsFlatFieldContributesFullRange(t *testing.T) {
	flat := chunk(5, 0, 40)
	got := CombineSplits([]Layout{flat})
	want := []int{0, 5}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CombineSplits(Flat) = %v, want %v", got, want)
	}
}

func TestRangesForChunkedSkipsOutOfRangeChunks(t *testing.T) {
	c := chunked(chunk(3, 100, 124), chunk(3, 124, 148), chunk(3, 148, 172))
	got, err := c.RangesFor(3, 6, nil)
	if err != nil {
		t.Fatalf("RangesFor: %v", err)
	}
	want := []BufferRange{{Begin: 124, End: 148}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RangesFor(3,6) = %v, want %v", got, want)
	}
}

func TestRangesForColumnarErrors(t *testing.T) {
	col := Layout{Encoding: Columnar, RowCount: 4}
	if _, err := col.RangesFor(0, 4, nil); err == nil {
		t.Error("expected RangesFor on a Columnar layout to error")
	}
}

func TestHasStatsChildAndDataChildren(t *testing.T) {
	statsChild := Layout{Encoding: Flat, RowCount: 0}
	data := chunk(3, 0, 24)
	c := Layout{
		Encoding: Chunked,
		Metadata: []byte{chunkedHasStatsBit},
		Children: []Layout{statsChild, data},
		RowCount: 3,
	}
	if !c.HasStatsChild() {
		t.Fatal("expected HasStatsChild() == true")
	}
	dc := c.DataChildren()
	if len(dc) != 1 || dc[0].RowCount != 3 {
		t.Errorf("DataChildren() = %+v, want just the data chunk", dc)
	}
}

func TestCombineWithChunkedConcatenatesChildren(t *testing.T) {
	a := chunked(chunk(2, 0, 16))
	b := chunked(chunk(3, 16, 40))
	merged, err := CombineWith(a, b)
	if err != nil {
		t.Fatalf("CombineWith: %v", err)
	}
	if merged.RowCount != 5 || len(merged.Children) != 2 {
		t.Errorf("merged = %+v, want RowCount=5 and 2 children", merged)
	}
}

func TestCombineWithEncodingMismatchErrors(t *testing.T) {
	a := chunked(chunk(2, 0, 16))
	b := chunk(2, 0, 16)
	if _, err := CombineWith(a, b); err == nil {
		t.Error("expected CombineWith to error on mismatched encodings")
	}
}

func TestSliceChunkedTrimsWholeChunks(t *testing.T) {
	c := chunked(chunk(3, 0, 24), chunk(3, 24, 48), chunk(3, 48, 72))
	sliced, err := c.Slice(3, 6)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	if sliced.RowCount != 3 || len(sliced.Children) != 1 {
		t.Fatalf("Slice(3,6) = %+v, want one 3-row chunk", sliced)
	}
	if sliced.Children[0].Buffers[0].Begin != 24 {
		t.Errorf("sliced chunk begin = %d, want 24", sliced.Children[0].Buffers[0].Begin)
	}
}

func TestSlicePartialChunkMisalignmentErrors(t *testing.T) {
	c := chunked(chunk(3, 0, 24), chunk(3, 24, 48))
	if _, err := c.Slice(1, 4); err == nil {
		t.Error("expected Slice to error when the range splits a chunk")
	}
}

func TestSliceOutOfBoundsErrors(t *testing.T) {
	c := chunked(chunk(3, 0, 24))
	if _, err := c.Slice(0, 10); err == nil {
		t.Error("expected Slice to error for an out-of-bounds end")
	}
}
