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

package sparse

import (
	"testing"

	"github.com/Sweetlemon68/vortex/array"
	"github.com/Sweetlemon68/vortex/dtype"
	"github.com/Sweetlemon68/vortex/scalar"
)

func buildSparse(t *testing.T) array.Array {
	t.Helper()
	ctx := array.NewContext()
	values := array.NewPrimitiveI64(ctx, []int64{100, 200})
	fill := scalar.Int(dtype.I64, 0, false)
	a, err := New(ctx, []int64{2, 5}, values, fill, 8)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestScalarAtReadsPatchesAndFill(t *testing.T) {
	a := buildSparse(t)
	for i, want := range []int64{0, 0, 100, 0, 0, 200, 0, 0} {
		s, err := array.ScalarAt(a, i)
		if err != nil {
			t.Fatalf("ScalarAt(%d): %v", i, err)
		}
		if s.Int() != want {
			t.Errorf("ScalarAt(%d) = %d, want %d", i, s.Int(), want)
		}
	}
}

func TestSliceRemapsIndicesRelativeToStart(t *testing.T) {
	a := buildSparse(t)
	sliced, err := array.Slice(a, 1, 6)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	if sliced.Len() != 5 {
		t.Fatalf("Slice length = %d, want 5", sliced.Len())
	}
	want := []int64{0, 100, 0, 0, 200}
	for i, w := range want {
		s, err := array.ScalarAt(sliced, i)
		if err != nil {
			t.Fatalf("ScalarAt(%d): %v", i, err)
		}
		if s.Int() != w {
			t.Errorf("sliced[%d] = %d, want %d", i, s.Int(), w)
		}
	}
}

func TestTakeGathersPatchedAndFillPositions(t *testing.T) {
	a := buildSparse(t)
	indices := array.NewPrimitiveI64(array.NewContext(), []int64{5, 0, 2})
	got, err := array.Take(a, indices, false)
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	want := []int64{200, 0, 100}
	if got.Len() != len(want) {
		t.Fatalf("Take length = %d, want %d", got.Len(), len(want))
	}
	for i, w := range want {
		s, err := array.ScalarAt(got, i)
		if err != nil {
			t.Fatalf("ScalarAt(%d): %v", i, err)
		}
		if s.Int() != w {
			t.Errorf("Take()[%d] = %d, want %d", i, s.Int(), w)
		}
	}
}

func TestCanonicalizeMaterializesFillEverywhere(t *testing.T) {
	a := buildSparse(t)
	canon, err := Encoding{}.Canonicalize(a)
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}
	if canon.Len() != 8 {
		t.Fatalf("Canonicalize length = %d, want 8", canon.Len())
	}
	s, err := array.ScalarAt(canon, 5)
	if err != nil {
		t.Fatalf("ScalarAt: %v", err)
	}
	if s.Int() != 200 {
		t.Errorf("canonical[5] = %d, want 200", s.Int())
	}
}

func TestNewRejectsNonAscendingIndices(t *testing.T) {
	ctx := array.NewContext()
	values := array.NewPrimitiveI64(ctx, []int64{1, 2})
	fill := scalar.Int(dtype.I64, 0, false)
	if _, err := New(ctx, []int64{3, 3}, values, fill, 8); err == nil {
		t.Error("expected New to reject non-strictly-ascending indices")
	}
}

func TestNewRejectsOutOfRangeIndex(t *testing.T) {
	ctx := array.NewContext()
	values := array.NewPrimitiveI64(ctx, []int64{1})
	fill := scalar.Int(dtype.I64, 0, false)
	if _, err := New(ctx, []int64{10}, values, fill, 4); err == nil {
		t.Error("expected New to reject an out-of-range index")
	}
}
