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

// Package scalar implements single typed values, independent of any
// array encoding.
package scalar

import (
	"fmt"
	"math"

	"golang.org/x/exp/slices"

	"github.com/Sweetlemon68/vortex/dtype"
)

// Scalar is a single, possibly-null, typed value.
//
// A Scalar is immutable after construction; the zero value is not a
// valid Scalar (use Null).
type Scalar struct {
	dt       dtype.DType
	isNull   bool
	boolV    bool
	pvalBits uint64 // raw bit pattern for Primitive scalars
	bytesV   []byte // Buffer / BufferString payload
	listV    []Scalar
	structV  []Scalar
}

// Null returns a null Scalar of the given type. dt must be nullable,
// matching the DType invariant that nullability implies a
// representable invalid value.
func Null(dt dtype.DType) Scalar {
	if !dt.Nullable() {
		panic(fmt.Sprintf("scalar: Null() on non-nullable dtype %s", dt))
	}
	return Scalar{dt: dt, isNull: true}
}

// Bool constructs a non-null Bool scalar.
func Bool(v bool, nullable bool) Scalar {
	return Scalar{dt: dtype.Bool(nullable), boolV: v}
}

// Int constructs a non-null signed-integer Primitive scalar.
func Int(pt dtype.PType, v int64, nullable bool) Scalar {
	if !pt.IsSigned() {
		panic("scalar: Int() requires a signed PType")
	}
	return Scalar{dt: dtype.Primitive(pt, nullable), pvalBits: uint64(v)}
}

// Uint constructs a non-null unsigned-integer Primitive scalar.
func Uint(pt dtype.PType, v uint64, nullable bool) Scalar {
	if !pt.IsUnsigned() {
		panic("scalar: Uint() requires an unsigned PType")
	}
	return Scalar{dt: dtype.Primitive(pt, nullable), pvalBits: v}
}

// Float constructs a non-null floating point Primitive scalar (F32 or
// F64; F16 scalars must be built via F16Bits since this package does
// not implement F16 arithmetic conversions).
func Float(pt dtype.PType, v float64, nullable bool) Scalar {
	if pt != dtype.F32 && pt != dtype.F64 {
		panic("scalar: Float() requires F32 or F64")
	}
	var bits uint64
	if pt == dtype.F32 {
		bits = uint64(math.Float32bits(float32(v)))
	} else {
		bits = math.Float64bits(v)
	}
	return Scalar{dt: dtype.Primitive(pt, nullable), pvalBits: bits}
}

// F16Bits constructs a non-null F16 Primitive scalar from its raw
// 16-bit pattern.
func F16Bits(bits uint16, nullable bool) Scalar {
	return Scalar{dt: dtype.Primitive(dtype.F16, nullable), pvalBits: uint64(bits)}
}

// Buffer constructs a non-null Binary scalar.
func Buffer(v []byte, nullable bool) Scalar {
	return Scalar{dt: dtype.Binary(nullable), bytesV: append([]byte(nil), v...)}
}

// BufferString constructs a non-null Utf8 scalar.
func BufferString(v string, nullable bool) Scalar {
	return Scalar{dt: dtype.Utf8(nullable), bytesV: []byte(v)}
}

// List constructs a non-null List scalar. Every element of values
// must match elem's element type; this is not checked.
func List(elem dtype.DType, values []Scalar, nullable bool) Scalar {
	return Scalar{dt: dtype.List(elem, nullable), listV: slices.Clone(values)}
}

// Struct constructs a non-null Struct scalar. len(values) must equal
// len(names); dt must be a Struct DType matching the field layout.
func Struct(dt dtype.DType, values []Scalar) Scalar {
	if dt.Kind() != dtype.KindStruct {
		panic("scalar: Struct() requires a Struct dtype")
	}
	names, _ := dt.Fields()
	if len(values) != len(names) {
		panic(fmt.Sprintf("scalar: Struct() value count %d does not match field count %d", len(values), len(names)))
	}
	return Scalar{dt: dt, structV: slices.Clone(values)}
}

// DType returns the logical type of s.
func (s Scalar) DType() dtype.DType { return s.dt }

// IsNull reports whether s is the null value of its type.
func (s Scalar) IsNull() bool { return s.isNull || s.dt.Kind() == dtype.KindNull }

// Bool returns the boolean payload of s. It panics if s is null or
// not a Bool scalar.
func (s Scalar) Bool() bool {
	s.mustNotNull()
	s.mustKind(dtype.KindBool)
	return s.boolV
}

func (s Scalar) mustNotNull() {
	if s.IsNull() {
		panic("scalar: value access on null Scalar")
	}
}

func (s Scalar) mustKind(k dtype.Kind) {
	if s.dt.Kind() != k {
		panic(fmt.Sprintf("scalar: expected %s, got %s", k, s.dt.Kind()))
	}
}

// Int returns the signed integer payload of s.
func (s Scalar) Int() int64 {
	s.mustNotNull()
	s.mustKind(dtype.KindPrimitive)
	if !s.dt.PType().IsSigned() {
		panic("scalar: Int() on non-signed PType " + s.dt.PType().String())
	}
	return int64(s.pvalBits)
}

// Uint returns the unsigned integer payload of s.
func (s Scalar) Uint() uint64 {
	s.mustNotNull()
	s.mustKind(dtype.KindPrimitive)
	if !s.dt.PType().IsUnsigned() {
		panic("scalar: Uint() on non-unsigned PType " + s.dt.PType().String())
	}
	return s.pvalBits
}

// Float returns the floating point payload of s (F32 or F64).
func (s Scalar) Float() float64 {
	s.mustNotNull()
	s.mustKind(dtype.KindPrimitive)
	switch s.dt.PType() {
	case dtype.F32:
		return float64(math.Float32frombits(uint32(s.pvalBits)))
	case dtype.F64:
		return math.Float64frombits(s.pvalBits)
	}
	panic("scalar: Float() on non-float PType " + s.dt.PType().String())
}

// F16Bits returns the raw bit pattern of an F16 scalar.
func (s Scalar) F16Bits() uint16 {
	s.mustNotNull()
	s.mustKind(dtype.KindPrimitive)
	if s.dt.PType() != dtype.F16 {
		panic("scalar: F16Bits() on non-F16 PType")
	}
	return uint16(s.pvalBits)
}

// Buffer returns the byte payload of a Binary or Utf8 scalar.
func (s Scalar) Buffer() []byte {
	s.mustNotNull()
	if s.dt.Kind() != dtype.KindBinary && s.dt.Kind() != dtype.KindUtf8 {
		panic("scalar: Buffer() on " + s.dt.Kind().String())
	}
	return s.bytesV
}

// String returns the UTF-8 payload of a Utf8 scalar as a string.
func (s Scalar) String() string {
	s.mustNotNull()
	s.mustKind(dtype.KindUtf8)
	return string(s.bytesV)
}

// List returns the element scalars of a List scalar.
func (s Scalar) List() []Scalar {
	s.mustNotNull()
	s.mustKind(dtype.KindList)
	return s.listV
}

// Struct returns the field scalars of a Struct scalar, in field
// order.
func (s Scalar) Struct() []Scalar {
	s.mustNotNull()
	s.mustKind(dtype.KindStruct)
	return s.structV
}

// Equal reports whether s and x have the same type and value.
func (s Scalar) Equal(x Scalar) bool {
	if !s.dt.Equal(x.dt) {
		return false
	}
	if s.IsNull() || x.IsNull() {
		return s.IsNull() == x.IsNull()
	}
	switch s.dt.Kind() {
	case dtype.KindBool:
		return s.boolV == x.boolV
	case dtype.KindPrimitive:
		if s.dt.PType() == dtype.F16 {
			return s.pvalBits == x.pvalBits
		}
		if s.dt.PType().IsFloat() {
			return s.Float() == x.Float() || (isNaNScalar(s) && isNaNScalar(x))
		}
		return s.pvalBits == x.pvalBits
	case dtype.KindUtf8, dtype.KindBinary:
		return string(s.bytesV) == string(x.bytesV)
	case dtype.KindList:
		if len(s.listV) != len(x.listV) {
			return false
		}
		for i := range s.listV {
			if !s.listV[i].Equal(x.listV[i]) {
				return false
			}
		}
		return true
	case dtype.KindStruct:
		if len(s.structV) != len(x.structV) {
			return false
		}
		for i := range s.structV {
			if !s.structV[i].Equal(x.structV[i]) {
				return false
			}
		}
		return true
	}
	return true
}

func isNaNScalar(s Scalar) bool {
	if s.dt.PType() == dtype.F16 {
		return false
	}
	return math.IsNaN(s.Float())
}

// Less defines the total order used by search_sorted (spec.md §4.2):
// NaNs sort greater than every number and equal to themselves.
func (s Scalar) Less(x Scalar) bool {
	switch s.dt.Kind() {
	case dtype.KindPrimitive:
		if s.dt.PType().IsFloat() {
			a, b := s.Float(), x.Float()
			if math.IsNaN(a) {
				return false
			}
			if math.IsNaN(b) {
				return true
			}
			return a < b
		}
		if s.dt.PType().IsSigned() {
			return s.Int() < x.Int()
		}
		return s.Uint() < x.Uint()
	case dtype.KindUtf8, dtype.KindBinary:
		return string(s.bytesV) < string(x.bytesV)
	case dtype.KindBool:
		return !s.boolV && x.boolV
	}
	panic("scalar: Less() unsupported for " + s.dt.Kind().String())
}
