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
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/Sweetlemon68/vortex/array"
	"github.com/Sweetlemon68/vortex/vxerr"
	"github.com/Sweetlemon68/vortex/vxio"
)

func buildBatch(t *testing.T, ctx *array.Context, ids []int64, names []string) array.Array {
	t.Helper()
	idArr := array.NewPrimitiveI64(ctx, ids)
	nameArr, err := array.NewUtf8(ctx, names, nil, false)
	if err != nil {
		t.Fatalf("NewUtf8: %v", err)
	}
	batch, err := array.NewStruct(ctx, []string{"id", "name"}, []array.Array{idArr, nameArr}, nil, false, len(ids))
	if err != nil {
		t.Fatalf("NewStruct: %v", err)
	}
	return batch
}

func writeFile(t *testing.T, ctx *array.Context, batches []array.Array, opts ...WriterOption) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := NewWriter(ctx, &buf, opts...)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	for _, b := range batches {
		if err := w.WriteBatch(b); err != nil {
			t.Fatalf("WriteBatch: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return buf.Bytes()
}

func TestWriterReaderRoundTrip(t *testing.T) {
	ctx := array.NewContext()
	b1 := buildBatch(t, ctx, []int64{1, 2, 3}, []string{"a", "b", "c"})
	b2 := buildBatch(t, ctx, []int64{4, 5}, []string{"d", "e"})

	data := writeFile(t, ctx, []array.Array{b1, b2})

	background := context.Background()
	r, err := Open(background, array.NewContext(), vxio.NewBufferSource(data))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if r.RowCount() != 5 {
		t.Fatalf("RowCount: got %d, want 5", r.RowCount())
	}

	batches, err := r.ReadAll(background, ReadOptions{})
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	gotIDs := []int64{}
	gotNames := []string{}
	for _, batch := range batches {
		for row := 0; row < batch.Len(); row++ {
			idScalar, err := array.ScalarAt(batch.Child(0), row)
			if err != nil {
				t.Fatalf("ScalarAt(id): %v", err)
			}
			nameScalar, err := array.ScalarAt(batch.Child(1), row)
			if err != nil {
				t.Fatalf("ScalarAt(name): %v", err)
			}
			gotIDs = append(gotIDs, idScalar.Int())
			gotNames = append(gotNames, nameScalar.String())
		}
	}
	wantIDs := []int64{1, 2, 3, 4, 5}
	wantNames := []string{"a", "b", "c", "d", "e"}
	if len(gotIDs) != len(wantIDs) {
		t.Fatalf("row count: got %d, want %d", len(gotIDs), len(wantIDs))
	}
	for i := range wantIDs {
		if gotIDs[i] != wantIDs[i] || gotNames[i] != wantNames[i] {
			t.Errorf("row %d: got (%d, %q), want (%d, %q)", i, gotIDs[i], gotNames[i], wantIDs[i], wantNames[i])
		}
	}
}

func TestWriterReaderCompressed(t *testing.T) {
	ctx := array.NewContext()
	b1 := buildBatch(t, ctx, []int64{10, 20, 30, 40}, []string{"w", "x", "y", "z"})

	data := writeFile(t, ctx, []array.Array{b1}, WithCompression())

	background := context.Background()
	r, err := Open(background, array.NewContext(), vxio.NewBufferSource(data))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	batches, err := r.ReadAll(background, ReadOptions{})
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(batches) != 1 || batches[0].Len() != 4 {
		t.Fatalf("unexpected batches: %+v", batches)
	}
	s, err := array.ScalarAt(batches[0].Child(0), 2)
	if err != nil {
		t.Fatalf("ScalarAt: %v", err)
	}
	if s.Int() != 30 {
		t.Errorf("row 2 id: got %d, want 30", s.Int())
	}
}

func TestReaderFieldProjection(t *testing.T) {
	ctx := array.NewContext()
	b1 := buildBatch(t, ctx, []int64{1, 2}, []string{"a", "b"})
	data := writeFile(t, ctx, []array.Array{b1})

	background := context.Background()
	r, err := Open(background, array.NewContext(), vxio.NewBufferSource(data))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	batches, err := r.ReadAll(background, ReadOptions{Fields: []int{1}})
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(batches) != 1 {
		t.Fatalf("expected one batch, got %d", len(batches))
	}
	names, _ := batches[0].DType().Fields()
	if len(names) != 1 || names[0] != "name" {
		t.Fatalf("expected projected schema {name}, got %v", names)
	}
}

func TestReaderRowFilter(t *testing.T) {
	ctx := array.NewContext()
	b1 := buildBatch(t, ctx, []int64{1, 2, 3, 4}, []string{"a", "b", "c", "d"})
	data := writeFile(t, ctx, []array.Array{b1})

	background := context.Background()
	r, err := Open(background, array.NewContext(), vxio.NewBufferSource(data))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	filter := func(batch array.Array) ([]bool, error) {
		mask := make([]bool, batch.Len())
		for i := range mask {
			s, err := array.ScalarAt(batch.Child(0), i)
			if err != nil {
				return nil, err
			}
			mask[i] = s.Int()%2 == 0
		}
		return mask, nil
	}
	batches, err := r.ReadAll(background, ReadOptions{RowFilter: filter})
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	total := 0
	for _, batch := range batches {
		total += batch.Len()
		for i := 0; i < batch.Len(); i++ {
			s, err := array.ScalarAt(batch.Child(0), i)
			if err != nil {
				t.Fatalf("ScalarAt: %v", err)
			}
			if s.Int()%2 != 0 {
				t.Errorf("filter let an odd id through: %d", s.Int())
			}
		}
	}
	if total != 2 {
		t.Fatalf("expected 2 surviving rows, got %d", total)
	}
}

func TestReaderRowIndices(t *testing.T) {
	ctx := array.NewContext()
	b1 := buildBatch(t, ctx, []int64{1, 2, 3}, []string{"a", "b", "c"})
	b2 := buildBatch(t, ctx, []int64{4, 5, 6}, []string{"d", "e", "f"})
	data := writeFile(t, ctx, []array.Array{b1, b2})

	background := context.Background()
	r, err := Open(background, array.NewContext(), vxio.NewBufferSource(data))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	batches, err := r.ReadAll(background, ReadOptions{RowIndices: []int64{0, 3, 5}})
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	var got []int64
	for _, batch := range batches {
		for i := 0; i < batch.Len(); i++ {
			s, err := array.ScalarAt(batch.Child(0), i)
			if err != nil {
				t.Fatalf("ScalarAt: %v", err)
			}
			got = append(got, s.Int())
		}
	}
	want := []int64{1, 4, 6}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestOpenTruncatedFileIsInvalidSerialization(t *testing.T) {
	ctx := array.NewContext()
	b1 := buildBatch(t, ctx, []int64{1}, []string{"a"})
	data := writeFile(t, ctx, []array.Array{b1})

	truncated := data[:len(data)-4]
	_, err := Open(context.Background(), array.NewContext(), vxio.NewBufferSource(truncated))
	if err == nil {
		t.Fatal("expected an error opening a truncated file")
	}
	var vxe *vxerr.Error
	if !errors.As(err, &vxe) {
		t.Fatalf("expected a *vxerr.Error, got %T: %v", err, err)
	}
	if vxe.Kind != vxerr.InvalidSerialization {
		t.Errorf("expected InvalidSerialization, got %v", vxe.Kind)
	}
}

func TestOpenAllOpensEveryCollectedItem(t *testing.T) {
	ctx := array.NewContext()
	b1 := buildBatch(t, ctx, []int64{1, 2}, []string{"a", "b"})
	b2 := buildBatch(t, ctx, []int64{10, 20, 30}, []string{"x", "y", "z"})

	infs := vxio.NewMemFS()
	if _, err := infs.WriteFile("one.vtxf", writeFile(t, ctx, []array.Array{b1})); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := infs.WriteFile("two.vtxf", writeFile(t, ctx, []array.Array{b2})); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	collector := &vxio.Collector{Pattern: "*.vtxf"}
	items, err := collector.Collect(infs)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("Collect() returned %d items, want 2", len(items))
	}

	readers, err := OpenAll(context.Background(), array.NewContext(), infs, items)
	if err != nil {
		t.Fatalf("OpenAll: %v", err)
	}
	if len(readers) != 2 {
		t.Fatalf("OpenAll() returned %d readers, want 2", len(readers))
	}
	total := 0
	for _, r := range readers {
		total += r.RowCount()
	}
	if total != 5 {
		t.Errorf("total RowCount across OpenAll readers = %d, want 5", total)
	}
}

func TestEndOfFileMarkerRoundTrip(t *testing.T) {
	e := EndOfFile{Version: Version, FooterLength: 32}
	buf := MarshalEndOfFile(e)
	if len(buf) != 8 {
		t.Fatalf("marker length: got %d, want 8", len(buf))
	}
	got, err := UnmarshalEndOfFile(buf)
	if err != nil {
		t.Fatalf("UnmarshalEndOfFile: %v", err)
	}
	if got != e {
		t.Errorf("got %+v, want %+v", got, e)
	}
	if _, err := UnmarshalEndOfFile(buf[:4]); err == nil {
		t.Error("expected an error for a short buffer")
	}
	bad := append([]byte(nil), buf...)
	bad[4] = 'X'
	if _, err := UnmarshalEndOfFile(bad); err == nil {
		t.Error("expected an error for a bad magic")
	}
}
