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

package dtype

import "testing"

func TestNullIsAlwaysNullable(t *testing.T) {
	if !Null().Nullable() {
		t.Error("Null() must report Nullable() == true")
	}
}

func TestPrimitiveByteWidthAndClassification(t *testing.T) {
	cases := []struct {
		pt       PType
		width    int
		signed   bool
		unsigned bool
		float    bool
	}{
		{I8, 1, true, false, false},
		{U16, 2, false, true, false},
		{F16, 2, false, false, true},
		{I32, 4, true, false, false},
		{F32, 4, false, false, true},
		{U64, 8, false, true, false},
		{F64, 8, false, false, true},
	}
	for _, c := range cases {
		if got := c.pt.ByteWidth(); got != c.width {
			t.Errorf("%s.ByteWidth() = %d, want %d", c.pt, got, c.width)
		}
		if got := c.pt.IsSigned(); got != c.signed {
			t.Errorf("%s.IsSigned() = %v, want %v", c.pt, got, c.signed)
		}
		if got := c.pt.IsUnsigned(); got != c.unsigned {
			t.Errorf("%s.IsUnsigned() = %v, want %v", c.pt, got, c.unsigned)
		}
		if got := c.pt.IsFloat(); got != c.float {
			t.Errorf("%s.IsFloat() = %v, want %v", c.pt, got, c.float)
		}
	}
}

func TestStructFieldIndexAndDuplicatePanic(t *testing.T) {
	st := Struct([]string{"a", "b"}, []DType{Primitive(I64, false), Utf8(true)}, false)
	if idx := st.FieldIndex("b"); idx != 1 {
		t.Errorf("FieldIndex(b) = %d, want 1", idx)
	}
	if idx := st.FieldIndex("missing"); idx != -1 {
		t.Errorf("FieldIndex(missing) = %d, want -1", idx)
	}

	defer func() {
		if recover() == nil {
			t.Error("expected a panic constructing a Struct with duplicate field names")
		}
	}()
	Struct([]string{"a", "a"}, []DType{Bool(false), Bool(false)}, false)
}

func TestStructNamesChildrenLengthMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected a panic for mismatched names/children lengths")
		}
	}()
	Struct([]string{"a"}, []DType{Bool(false), Bool(false)}, false)
}

func TestEqualComparesStructurally(t *testing.T) {
	a := Struct([]string{"x", "y"}, []DType{Primitive(I32, false), List(Utf8(true), false)}, true)
	b := Struct([]string{"x", "y"}, []DType{Primitive(I32, false), List(Utf8(true), false)}, true)
	if !a.Equal(b) {
		t.Error("structurally identical Struct DTypes should be Equal")
	}

	c := Struct([]string{"x", "y"}, []DType{Primitive(I32, false), List(Utf8(false), false)}, true)
	if a.Equal(c) {
		t.Error("Struct DTypes differing in a nested nullability flag should not be Equal")
	}

	if Primitive(I64, false).Equal(Primitive(I32, false)) {
		t.Error("Primitive DTypes with different PTypes should not be Equal")
	}
}

func TestExtensionRoundTripsIDStorageAndMetadata(t *testing.T) {
	meta := []byte{1, 2, 3}
	ext := Extension("vortex.uuid", Binary(false), meta, true)
	id, storage, gotMeta := ext.ExtensionInfo()
	if id != "vortex.uuid" {
		t.Errorf("extension id = %q, want vortex.uuid", id)
	}
	if storage.Kind() != KindBinary {
		t.Errorf("extension storage kind = %s, want binary", storage.Kind())
	}
	if string(gotMeta) != string(meta) {
		t.Errorf("extension metadata = %v, want %v", gotMeta, meta)
	}

	// mutating the slice passed in must not alias the stored copy.
	meta[0] = 99
	_, _, gotMeta2 := ext.ExtensionInfo()
	if gotMeta2[0] == 99 {
		t.Error("Extension must copy its metadata slice rather than alias the caller's")
	}
}

func TestWithNullableReturnsIndependentCopy(t *testing.T) {
	base := Primitive(F64, false)
	nullable := base.WithNullable(true)
	if base.Nullable() {
		t.Error("WithNullable must not mutate the receiver")
	}
	if !nullable.Nullable() {
		t.Error("WithNullable(true) result should be nullable")
	}
}

func TestStringRendersNestedShapes(t *testing.T) {
	dt := Struct([]string{"id"}, []DType{List(Primitive(I64, false), false)}, false)
	want := "struct{id: list<i64>}"
	if got := dt.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestPTypePanicsOnWrongKind(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected PType() to panic on a non-Primitive DType")
		}
	}()
	Bool(false).PType()
}
