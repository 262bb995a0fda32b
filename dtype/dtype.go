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

// Package dtype implements the logical element-type sum type used
// throughout the array, scalar and file-format packages.
package dtype

import (
	"fmt"
	"strings"
)

// Kind identifies which variant of DType a value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindPrimitive
	KindUtf8
	KindBinary
	KindStruct
	KindList
	KindExtension
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindPrimitive:
		return "primitive"
	case KindUtf8:
		return "utf8"
	case KindBinary:
		return "binary"
	case KindStruct:
		return "struct"
	case KindList:
		return "list"
	case KindExtension:
		return "extension"
	}
	return "unknown"
}

// PType enumerates the physical numeric types a Primitive DType can hold.
type PType uint8

const (
	I8 PType = iota
	I16
	I32
	I64
	U8
	U16
	U32
	U64
	F16
	F32
	F64
)

var ptypeNames = [...]string{"i8", "i16", "i32", "i64", "u8", "u16", "u32", "u64", "f16", "f32", "f64"}

func (p PType) String() string {
	if int(p) < len(ptypeNames) {
		return ptypeNames[p]
	}
	return "invalid"
}

// ByteWidth returns the size, in bytes, of a single value of this PType.
func (p PType) ByteWidth() int {
	switch p {
	case I8, U8:
		return 1
	case I16, U16, F16:
		return 2
	case I32, U32, F32:
		return 4
	case I64, U64, F64:
		return 8
	}
	panic("dtype: invalid PType")
}

// IsSigned reports whether p is one of the signed integer types.
func (p PType) IsSigned() bool {
	switch p {
	case I8, I16, I32, I64:
		return true
	}
	return false
}

// IsUnsigned reports whether p is one of the unsigned integer types.
func (p PType) IsUnsigned() bool {
	switch p {
	case U8, U16, U32, U64:
		return true
	}
	return false
}

// IsFloat reports whether p is one of the floating point types.
func (p PType) IsFloat() bool {
	switch p {
	case F16, F32, F64:
		return true
	}
	return false
}

// DType is a logical element type together with a nullability flag.
//
// DType is a sum type: exactly the fields relevant to Kind are
// meaningful; callers should not read fields outside of the active
// variant. Use the constructor functions (Null, Bool, Primitive, ...)
// rather than composite literals.
type DType struct {
	kind     Kind
	nullable bool

	ptype PType // KindPrimitive

	// KindStruct
	names    []string
	children []DType

	// KindList
	elem *DType

	// KindExtension
	extID      string
	extStorage *DType
	extMeta    []byte
}

// Null returns the Null DType. Null arrays are always "nullable" in
// the sense that every element is invalid, but Null itself carries no
// separate nullability flag.
func Null() DType { return DType{kind: KindNull} }

// Bool returns a Bool DType with the given nullability.
func Bool(nullable bool) DType { return DType{kind: KindBool, nullable: nullable} }

// Primitive returns a Primitive DType for the given physical type.
func Primitive(pt PType, nullable bool) DType {
	return DType{kind: KindPrimitive, ptype: pt, nullable: nullable}
}

// Utf8 returns a Utf8 DType with the given nullability.
func Utf8(nullable bool) DType { return DType{kind: KindUtf8, nullable: nullable} }

// Binary returns a Binary DType with the given nullability.
func Binary(nullable bool) DType { return DType{kind: KindBinary, nullable: nullable} }

// Struct returns a Struct DType. It panics if len(names) != len(children)
// or if names are not unique, enforcing the invariant from spec.md §3.
func Struct(names []string, children []DType, nullable bool) DType {
	if len(names) != len(children) {
		panic(fmt.Sprintf("dtype: Struct names/children length mismatch (%d vs %d)", len(names), len(children)))
	}
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, dup := seen[n]; dup {
			panic("dtype: Struct field names must be unique, got duplicate " + n)
		}
		seen[n] = struct{}{}
	}
	return DType{
		kind:     KindStruct,
		names:    append([]string(nil), names...),
		children: append([]DType(nil), children...),
		nullable: nullable,
	}
}

// List returns a List DType over the given element type.
func List(elem DType, nullable bool) DType {
	e := elem
	return DType{kind: KindList, elem: &e, nullable: nullable}
}

// Extension returns an Extension DType identified by id, physically
// stored as storage, carrying an opaque metadata blob the core never
// interprets (see SPEC_FULL.md §3).
func Extension(id string, storage DType, metadata []byte, nullable bool) DType {
	s := storage
	return DType{
		kind:       KindExtension,
		extID:      id,
		extStorage: &s,
		extMeta:    append([]byte(nil), metadata...),
		nullable:   nullable,
	}
}

// Kind returns which variant d holds.
func (d DType) Kind() Kind { return d.kind }

// Nullable reports whether d can represent an invalid (null) value.
//
// Per spec.md §3, nullability only attaches to types where at least
// one invalid bit is representable; Null is unconditionally "all
// invalid" and does not carry its own flag.
func (d DType) Nullable() bool {
	if d.kind == KindNull {
		return true
	}
	return d.nullable
}

// PType returns the physical numeric type of a Primitive DType. It
// panics if d is not Primitive.
func (d DType) PType() PType {
	if d.kind != KindPrimitive {
		panic("dtype: PType() called on non-Primitive DType " + d.kind.String())
	}
	return d.ptype
}

// Fields returns the field names and child DTypes of a Struct DType.
// It panics if d is not Struct.
func (d DType) Fields() ([]string, []DType) {
	if d.kind != KindStruct {
		panic("dtype: Fields() called on non-Struct DType " + d.kind.String())
	}
	return d.names, d.children
}

// FieldIndex returns the index of the named field in a Struct DType,
// or -1 if no such field exists.
func (d DType) FieldIndex(name string) int {
	if d.kind != KindStruct {
		panic("dtype: FieldIndex() called on non-Struct DType " + d.kind.String())
	}
	for i, n := range d.names {
		if n == name {
			return i
		}
	}
	return -1
}

// Elem returns the element DType of a List DType. It panics if d is
// not List.
func (d DType) Elem() DType {
	if d.kind != KindList {
		panic("dtype: Elem() called on non-List DType " + d.kind.String())
	}
	return *d.elem
}

// ExtensionInfo returns the id, storage DType and opaque metadata of
// an Extension DType. It panics if d is not Extension.
func (d DType) ExtensionInfo() (id string, storage DType, metadata []byte) {
	if d.kind != KindExtension {
		panic("dtype: ExtensionInfo() called on non-Extension DType " + d.kind.String())
	}
	return d.extID, *d.extStorage, d.extMeta
}

// WithNullable returns a copy of d with its nullability flag set to n.
// It is a no-op for Null.
func (d DType) WithNullable(n bool) DType {
	d.nullable = n
	return d
}

// Equal reports whether d and x describe the same logical type,
// including nullability.
func (d DType) Equal(x DType) bool {
	if d.kind != x.kind {
		return false
	}
	if d.Nullable() != x.Nullable() {
		return false
	}
	switch d.kind {
	case KindNull:
		return true
	case KindBool, KindUtf8, KindBinary:
		return true
	case KindPrimitive:
		return d.ptype == x.ptype
	case KindStruct:
		if len(d.names) != len(x.names) {
			return false
		}
		for i := range d.names {
			if d.names[i] != x.names[i] || !d.children[i].Equal(x.children[i]) {
				return false
			}
		}
		return true
	case KindList:
		return d.elem.Equal(*x.elem)
	case KindExtension:
		return d.extID == x.extID && d.extStorage.Equal(*x.extStorage) && string(d.extMeta) == string(x.extMeta)
	}
	return false
}

// String renders d in a compact, debug-oriented form.
func (d DType) String() string {
	var b strings.Builder
	d.write(&b)
	return b.String()
}

func (d DType) write(b *strings.Builder) {
	switch d.kind {
	case KindNull:
		b.WriteString("null")
		return
	case KindPrimitive:
		b.WriteString(d.ptype.String())
	case KindStruct:
		b.WriteString("struct{")
		for i, n := range d.names {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(n)
			b.WriteString(": ")
			d.children[i].write(b)
		}
		b.WriteString("}")
	case KindList:
		b.WriteString("list<")
		d.elem.write(b)
		b.WriteString(">")
	case KindExtension:
		b.WriteString("ext<")
		b.WriteString(d.extID)
		b.WriteString(", ")
		d.extStorage.write(b)
		b.WriteString(">")
	default:
		b.WriteString(d.kind.String())
	}
	if d.nullable {
		b.WriteString("?")
	}
}
