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

package varbinview

import (
	"testing"

	"github.com/Sweetlemon68/vortex/array"
)

func TestScalarAtInlineAndReferencePayloads(t *testing.T) {
	ctx := array.NewContext()
	values := []string{"short", "a string longer than twelve bytes", "x"}
	a := NewUtf8(ctx, values, nil, false)

	for i, want := range values {
		s, err := array.ScalarAt(a, i)
		if err != nil {
			t.Fatalf("ScalarAt(%d): %v", i, err)
		}
		if s.String() != want {
			t.Errorf("ScalarAt(%d) = %q, want %q", i, s.String(), want)
		}
	}
}

func TestScalarAtNullEntry(t *testing.T) {
	ctx := array.NewContext()
	a := NewUtf8(ctx, []string{"a", "", "c"}, []bool{true, false, true}, true)
	s, err := array.ScalarAt(a, 1)
	if err != nil {
		t.Fatalf("ScalarAt: %v", err)
	}
	if !s.IsNull() {
		t.Error("expected a null scalar at the invalid position")
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	ctx := array.NewContext()
	payloads := [][]byte{{1, 2, 3}, {9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9}}
	a := NewBinary(ctx, payloads, nil, false)
	for i, want := range payloads {
		s, err := array.ScalarAt(a, i)
		if err != nil {
			t.Fatalf("ScalarAt(%d): %v", i, err)
		}
		got := s.Buffer()
		if len(got) != len(want) {
			t.Fatalf("ScalarAt(%d) len = %d, want %d", i, len(got), len(want))
		}
		for j := range want {
			if got[j] != want[j] {
				t.Errorf("ScalarAt(%d)[%d] = %d, want %d", i, j, got[j], want[j])
			}
		}
	}
}

func TestSliceSharesDataBuffersAndNarrowsViews(t *testing.T) {
	ctx := array.NewContext()
	a := NewUtf8(ctx, []string{"one", "two", "a much longer string past inline"}, nil, false)
	sliced, err := array.Slice(a, 1, 3)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	if sliced.Len() != 2 {
		t.Fatalf("Slice length = %d, want 2", sliced.Len())
	}
	s, err := array.ScalarAt(sliced, 0)
	if err != nil {
		t.Fatalf("ScalarAt: %v", err)
	}
	if s.String() != "two" {
		t.Errorf("sliced[0] = %q, want two", s.String())
	}
	s1, err := array.ScalarAt(sliced, 1)
	if err != nil {
		t.Fatalf("ScalarAt: %v", err)
	}
	if s1.String() != "a much longer string past inline" {
		t.Errorf("sliced[1] = %q, want the long string", s1.String())
	}
}

func TestCanonicalizeToUtf8(t *testing.T) {
	ctx := array.NewContext()
	a := NewUtf8(ctx, []string{"alpha", "beta"}, nil, false)
	canon, err := Encoding{}.Canonicalize(a)
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}
	if canon.Len() != 2 {
		t.Fatalf("Canonicalize length = %d, want 2", canon.Len())
	}
	s, err := array.ScalarAt(canon, 1)
	if err != nil {
		t.Fatalf("ScalarAt: %v", err)
	}
	if s.String() != "beta" {
		t.Errorf("canonical[1] = %q, want beta", s.String())
	}
}
