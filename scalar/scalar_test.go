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

package scalar

import (
	"math"
	"testing"

	"github.com/Sweetlemon68/vortex/dtype"
)

func TestIntUintFloatRoundTrip(t *testing.T) {
	i := Int(dtype.I32, -7, false)
	if i.Int() != -7 {
		t.Errorf("Int() = %d, want -7", i.Int())
	}
	u := Uint(dtype.U16, 42, false)
	if u.Uint() != 42 {
		t.Errorf("Uint() = %d, want 42", u.Uint())
	}
	f := Float(dtype.F64, 3.5, false)
	if f.Float() != 3.5 {
		t.Errorf("Float() = %v, want 3.5", f.Float())
	}
}

func TestIntPanicsOnUnsignedPType(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected Int() construction to panic for an unsigned PType")
		}
	}()
	Int(dtype.U32, 1, false)
}

func TestNullRequiresNullableDType(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected Null() to panic for a non-nullable dtype")
		}
	}()
	Null(dtype.Primitive(dtype.I64, false))
}

func TestNullScalarAccessorsPanic(t *testing.T) {
	n := Null(dtype.Primitive(dtype.I64, true))
	if !n.IsNull() {
		t.Fatal("expected IsNull() == true")
	}
	defer func() {
		if recover() == nil {
			t.Error("expected Int() to panic on a null scalar")
		}
	}()
	n.Int()
}

func TestBufferCopiesInputSlice(t *testing.T) {
	raw := []byte{1, 2, 3}
	s := Buffer(raw, false)
	raw[0] = 99
	if s.Buffer()[0] == 99 {
		t.Error("Buffer() must copy its input rather than alias it")
	}
}

func TestStringRoundTrip(t *testing.T) {
	s := BufferString("hello", false)
	if s.String() != "hello" {
		t.Errorf("String() = %q, want hello", s.String())
	}
}

func TestEqualAcrossKinds(t *testing.T) {
	a := Int(dtype.I64, 10, false)
	b := Int(dtype.I64, 10, false)
	c := Int(dtype.I64, 11, false)
	if !a.Equal(b) {
		t.Error("equal int scalars should compare Equal")
	}
	if a.Equal(c) {
		t.Error("differing int scalars should not compare Equal")
	}

	nanA := Float(dtype.F64, math.NaN(), false)
	nanB := Float(dtype.F64, math.NaN(), false)
	if !nanA.Equal(nanB) {
		t.Error("NaN scalars should compare Equal to each other per the total order")
	}
}

func TestLessTotalOrderWithNaN(t *testing.T) {
	n := Float(dtype.F64, math.NaN(), false)
	seven := Float(dtype.F64, 7, false)
	if n.Less(seven) {
		t.Error("NaN must not be Less than a normal number")
	}
	if !seven.Less(n) {
		t.Error("a normal number must be Less than NaN")
	}
}

func TestStructScalarFieldCountMismatchPanics(t *testing.T) {
	dt := dtype.Struct([]string{"a", "b"}, []dtype.DType{dtype.Bool(false), dtype.Bool(false)}, false)
	defer func() {
		if recover() == nil {
			t.Error("expected Struct() to panic on a field-count mismatch")
		}
	}()
	Struct(dt, []Scalar{Bool(true, false)})
}

func TestListScalarRoundTrip(t *testing.T) {
	elem := dtype.Primitive(dtype.I64, false)
	l := List(elem, []Scalar{Int(dtype.I64, 1, false), Int(dtype.I64, 2, false)}, false)
	got := l.List()
	if len(got) != 2 || got[0].Int() != 1 || got[1].Int() != 2 {
		t.Errorf("List() = %v, want [1 2]", got)
	}
}
