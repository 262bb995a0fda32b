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

package array

import (
	"testing"

	"github.com/Sweetlemon68/vortex/dtype"
	"github.com/Sweetlemon68/vortex/scalar"
)

func scalarI64(v int64) scalar.Scalar {
	return scalar.Int(dtype.I64, v, false)
}

func TestPrimitiveScalarAtAndSlice(t *testing.T) {
	ctx := NewContext()
	a := NewPrimitiveI64(ctx, []int64{10, 20, 30, 40, 50})

	for i, want := range []int64{10, 20, 30, 40, 50} {
		s, err := ScalarAt(a, i)
		if err != nil {
			t.Fatalf("ScalarAt(%d): %v", i, err)
		}
		if s.Int() != want {
			t.Errorf("ScalarAt(%d) = %d, want %d", i, s.Int(), want)
		}
	}

	sliced, err := Slice(a, 1, 4)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	if sliced.Len() != 3 {
		t.Fatalf("Slice length: got %d, want 3", sliced.Len())
	}
	s, err := ScalarAt(sliced, 0)
	if err != nil {
		t.Fatalf("ScalarAt on slice: %v", err)
	}
	if s.Int() != 20 {
		t.Errorf("Slice(1,4)[0] = %d, want 20", s.Int())
	}
}

func TestScalarAtOutOfBounds(t *testing.T) {
	ctx := NewContext()
	a := NewPrimitiveI64(ctx, []int64{1, 2, 3})
	if _, err := ScalarAt(a, 3); err == nil {
		t.Fatal("expected an out-of-bounds error at index == length")
	}
	if _, err := ScalarAt(a, -1); err == nil {
		t.Fatal("expected an out-of-bounds error for a negative index")
	}
}

func TestTakeGathersByIndex(t *testing.T) {
	ctx := NewContext()
	a := NewPrimitiveI64(ctx, []int64{100, 200, 300, 400})
	indices := NewPrimitiveI64(ctx, []int64{3, 0, 0})

	got, err := Take(a, indices, false)
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	want := []int64{400, 100, 100}
	if got.Len() != len(want) {
		t.Fatalf("Take length: got %d, want %d", got.Len(), len(want))
	}
	for i, w := range want {
		s, err := ScalarAt(got, i)
		if err != nil {
			t.Fatalf("ScalarAt(%d): %v", i, err)
		}
		if s.Int() != w {
			t.Errorf("Take()[%d] = %d, want %d", i, s.Int(), w)
		}
	}
}

func TestTakeOutOfBoundsIndexErrors(t *testing.T) {
	ctx := NewContext()
	a := NewPrimitiveI64(ctx, []int64{1, 2, 3})
	indices := NewPrimitiveI64(ctx, []int64{5})
	if _, err := Take(a, indices, false); err == nil {
		t.Fatal("expected an out-of-bounds error")
	}
}

func TestFilterKeepsOnlyTrueRows(t *testing.T) {
	ctx := NewContext()
	a := NewPrimitiveI64(ctx, []int64{1, 2, 3, 4, 5})
	mask, err := NewBool(ctx, []bool{true, false, true, false, true}, nil, false)
	if err != nil {
		t.Fatalf("NewBool: %v", err)
	}
	got, err := Filter(a, mask)
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	want := []int64{1, 3, 5}
	if got.Len() != len(want) {
		t.Fatalf("Filter length: got %d, want %d", got.Len(), len(want))
	}
	for i, w := range want {
		s, err := ScalarAt(got, i)
		if err != nil {
			t.Fatalf("ScalarAt(%d): %v", i, err)
		}
		if s.Int() != w {
			t.Errorf("Filter()[%d] = %d, want %d", i, s.Int(), w)
		}
	}
}

func TestFilterMaskLengthMismatchErrors(t *testing.T) {
	ctx := NewContext()
	a := NewPrimitiveI64(ctx, []int64{1, 2, 3})
	mask, err := NewBool(ctx, []bool{true, false}, nil, false)
	if err != nil {
		t.Fatalf("NewBool: %v", err)
	}
	if _, err := Filter(a, mask); err == nil {
		t.Fatal("expected a length-mismatch error")
	}
}

func TestSearchSortedFindsLeftAndRight(t *testing.T) {
	ctx := NewContext()
	a := NewPrimitiveI64(ctx, []int64{1, 3, 3, 3, 7, 9})

	left, err := SearchSorted(a, scalarI64(3), Left)
	if err != nil {
		t.Fatalf("SearchSorted(Left): %v", err)
	}
	if !left.Found || left.Index != 1 {
		t.Errorf("SearchSorted(3, Left) = %+v, want {1 true}", left)
	}

	right, err := SearchSorted(a, scalarI64(3), Right)
	if err != nil {
		t.Fatalf("SearchSorted(Right): %v", err)
	}
	if !right.Found || right.Index != 4 {
		t.Errorf("SearchSorted(3, Right) = %+v, want {4 true}", right)
	}

	missing, err := SearchSorted(a, scalarI64(5), Left)
	if err != nil {
		t.Fatalf("SearchSorted(missing): %v", err)
	}
	if missing.Found || missing.Index != 4 {
		t.Errorf("SearchSorted(5) = %+v, want {4 false}", missing)
	}
}

func TestStructFieldAccessAndVarBinRoundTrip(t *testing.T) {
	ctx := NewContext()
	ids := NewPrimitiveI64(ctx, []int64{1, 2})
	names, err := NewUtf8(ctx, []string{"alpha", "beta"}, nil, false)
	if err != nil {
		t.Fatalf("NewUtf8: %v", err)
	}
	st, err := NewStruct(ctx, []string{"id", "name"}, []Array{ids, names}, nil, false, 2)
	if err != nil {
		t.Fatalf("NewStruct: %v", err)
	}
	if st.DType().Kind() != dtype.KindStruct {
		t.Fatalf("expected KindStruct, got %s", st.DType().Kind())
	}
	s, err := ScalarAt(st.Child(1), 1)
	if err != nil {
		t.Fatalf("ScalarAt: %v", err)
	}
	if s.String() != "beta" {
		t.Errorf("field 1 row 1 = %q, want %q", s.String(), "beta")
	}
}

func TestNullArrayScalarAtAndTake(t *testing.T) {
	ctx := NewContext()
	n := NewNull(ctx, 3)
	s, err := ScalarAt(n, 1)
	if err != nil {
		t.Fatalf("ScalarAt: %v", err)
	}
	if !s.IsNull() {
		t.Error("expected a null scalar from a Null array")
	}
	indices := NewPrimitiveI64(ctx, []int64{0, 2})
	got, err := Take(n, indices, false)
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	if got.Len() != 2 || got.DType().Kind() != dtype.KindNull {
		t.Errorf("Take on Null array: got len=%d kind=%s", got.Len(), got.DType().Kind())
	}
}
