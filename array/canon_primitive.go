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
	"encoding/binary"
	"math"

	"github.com/Sweetlemon68/vortex/buffer"
	"github.com/Sweetlemon68/vortex/dtype"
	"github.com/Sweetlemon68/vortex/scalar"
	"github.com/Sweetlemon68/vortex/vxerr"
)

// primitiveEncoding is the canonical encoding for fixed-width numeric
// DTypes: one buffer of length*width little-endian bytes, a validity
// tag in metadata[0], and an optional validity child at index 0
// (spec.md §4.3).
type primitiveEncoding struct{}

func (primitiveEncoding) ID() string { return IDPrimitive }

func (primitiveEncoding) Canonicalize(a Array) (Canonical, error) { return a, nil }

func (primitiveEncoding) ChildDType(parent dtype.DType, metadata []byte, index int) dtype.DType {
	return dtype.Bool(false)
}

func primitiveValidity(a Array) (Validity, error) {
	tag, err := fromValidityTag(metaByte(a))
	if err != nil {
		return Validity{}, err
	}
	if tag == ArrayValidity {
		if a.NChildren() == 0 {
			return Validity{}, vxerr.New(vxerr.InvalidSerialization, "primitive array: validity tag requires a validity child")
		}
		return Validity{Kind: ArrayValidity, Arr: a.Child(0)}, nil
	}
	return Validity{Kind: tag}, nil
}

func readPrimitive(buf []byte, pt dtype.PType, index int) uint64 {
	w := pt.ByteWidth()
	off := index * w
	switch w {
	case 1:
		return uint64(buf[off])
	case 2:
		return uint64(binary.LittleEndian.Uint16(buf[off:]))
	case 4:
		return uint64(binary.LittleEndian.Uint32(buf[off:]))
	case 8:
		return binary.LittleEndian.Uint64(buf[off:])
	}
	panic("array: invalid primitive byte width")
}

func writePrimitive(buf []byte, pt dtype.PType, index int, bits uint64) {
	w := pt.ByteWidth()
	off := index * w
	switch w {
	case 1:
		buf[off] = byte(bits)
	case 2:
		binary.LittleEndian.PutUint16(buf[off:], uint16(bits))
	case 4:
		binary.LittleEndian.PutUint32(buf[off:], uint32(bits))
	case 8:
		binary.LittleEndian.PutUint64(buf[off:], bits)
	}
}

func scalarFromBits(pt dtype.PType, bits uint64, nullable bool) scalar.Scalar {
	switch {
	case pt.IsSigned():
		var v int64
		switch pt.ByteWidth() {
		case 1:
			v = int64(int8(bits))
		case 2:
			v = int64(int16(bits))
		case 4:
			v = int64(int32(bits))
		default:
			v = int64(bits)
		}
		return scalar.Int(pt, v, nullable)
	case pt.IsUnsigned():
		return scalar.Uint(pt, bits, nullable)
	case pt == dtype.F16:
		return scalar.F16Bits(uint16(bits), nullable)
	case pt == dtype.F32:
		return scalar.Float(pt, float64(math.Float32frombits(uint32(bits))), nullable)
	default:
		return scalar.Float(pt, math.Float64frombits(bits), nullable)
	}
}

func bitsFromScalar(s scalar.Scalar) uint64 {
	pt := s.DType().PType()
	switch {
	case pt.IsSigned():
		return uint64(s.Int())
	case pt.IsUnsigned():
		return s.Uint()
	case pt == dtype.F16:
		return uint64(s.F16Bits())
	case pt == dtype.F32:
		return uint64(math.Float32bits(float32(s.Float())))
	default:
		return math.Float64bits(s.Float())
	}
}

func (primitiveEncoding) ScalarAt(a Array, index int) (scalar.Scalar, error) {
	v, err := primitiveValidity(a)
	if err != nil {
		return scalar.Scalar{}, err
	}
	ok, err := v.IsValid(index)
	if err != nil {
		return scalar.Scalar{}, err
	}
	pt := a.DType().PType()
	nullable := a.DType().Nullable()
	if !ok {
		return scalar.Null(dtype.Primitive(pt, true)), nil
	}
	bits := readPrimitive(a.Buffer().Bytes(), pt, index)
	return scalarFromBits(pt, bits, nullable), nil
}

func (primitiveEncoding) Slice(a Array, start, end int) (Array, error) {
	pt := a.DType().PType()
	w := pt.ByteWidth()
	sliced := a.Buffer().Slice(start*w, end*w)
	v, err := primitiveValidity(a)
	if err != nil {
		return nil, err
	}
	vs, err := v.Slice(start, end)
	if err != nil {
		return nil, err
	}
	return newPrimitiveRaw(ctxOf(a), pt, end-start, sliced, vs, a.DType().Nullable()), nil
}

func (primitiveEncoding) Take(a Array, indices Array, skipBoundsCheck bool) (Array, error) {
	pt := a.DType().PType()
	w := pt.ByteWidth()
	src := a.Buffer().Bytes()
	n := indices.Len()
	out := make([]byte, n*w)
	validMask := make([]bool, n)
	v, err := primitiveValidity(a)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		iv, err := ScalarAt(indices, i)
		if err != nil {
			return nil, err
		}
		idx := asInt(iv)
		bits := readPrimitive(src, pt, idx)
		writePrimitive(out, pt, i, bits)
		ok, err := v.IsValid(idx)
		if err != nil {
			return nil, err
		}
		validMask[i] = ok
	}
	vs := validityFromMask(ctxOf(a), validMask, a.DType().Nullable())
	buf := buffer.New(out, w)
	return newPrimitiveRaw(ctxOf(a), pt, n, buf, vs, a.DType().Nullable()), nil
}

// SearchSorted returns, for Left, the smallest i with a[i] >= value (or
// a.Len()), and for Right, the smallest i with a[i] > value — so Right's
// insertion point sits one past any run of values equal to the needle,
// and Found has to be read off the element *before* it rather than at
// it (spec.md §4.2's "Left ≤ Right" / "a[i] < v iff i < search_sorted
// Left" laws pin down the insertion points; Found is whichever
// neighboring element the insertion point's side actually examined).
func (primitiveEncoding) SearchSorted(a Array, value scalar.Scalar, side Side) (SearchResult, error) {
	n := a.Len()
	lo, hi := 0, n
	for lo < hi {
		mid := (lo + hi) / 2
		v, err := ScalarAt(a, mid)
		if err != nil {
			return SearchResult{}, err
		}
		var goLeft bool
		if side == Left {
			goLeft = v.Less(value)
		} else {
			goLeft = v.Less(value) || v.Equal(value)
		}
		if goLeft {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	var found bool
	if side == Left {
		if lo < n {
			v, err := ScalarAt(a, lo)
			if err == nil && !v.IsNull() && v.Equal(value) {
				found = true
			}
		}
	} else if lo > 0 {
		v, err := ScalarAt(a, lo-1)
		if err == nil && !v.IsNull() && v.Equal(value) {
			found = true
		}
	}
	return SearchResult{Index: lo, Found: found}, nil
}

func (primitiveEncoding) Filter(a Array, mask Array) (Array, error) {
	pt := a.DType().PType()
	w := pt.ByteWidth()
	src := a.Buffer().Bytes()
	var out []byte
	var validMask []bool
	v, err := primitiveValidity(a)
	if err != nil {
		return nil, err
	}
	count := 0
	for i := 0; i < a.Len(); i++ {
		mv, err := ScalarAt(mask, i)
		if err != nil {
			return nil, err
		}
		if mv.IsNull() || !mv.Bool() {
			continue
		}
		bits := readPrimitive(src, pt, i)
		out = append(out, make([]byte, w)...)
		writePrimitive(out, pt, count, bits)
		count++
		ok, err := v.IsValid(i)
		if err != nil {
			return nil, err
		}
		validMask = append(validMask, ok)
	}
	vs := validityFromMask(ctxOf(a), validMask, a.DType().Nullable())
	buf := buffer.New(out, w)
	return newPrimitiveRaw(ctxOf(a), pt, count, buf, vs, a.DType().Nullable()), nil
}

func newPrimitiveRaw(ctx *Context, pt dtype.PType, n int, buf buffer.Buffer, validity Validity, nullable bool) *ArrayData {
	meta := []byte{validityTag(validity.Kind)}
	var children []Array
	if validity.Kind == ArrayValidity {
		children = []Array{validity.Arr}
	}
	return NewOwned(ctx, primitiveEncoding{}, dtype.Primitive(pt, nullable), n, meta, &buf, children)
}

// NewPrimitive constructs a Primitive array from raw little-endian
// bytes (len(raw) must equal n*pt.ByteWidth()) and a parallel valid
// mask.
func NewPrimitive(ctx *Context, pt dtype.PType, raw []byte, n int, valid []bool, nullable bool) (*ArrayData, error) {
	w := pt.ByteWidth()
	if len(raw) != n*w {
		return nil, vxerr.New(vxerr.InvalidRange, "NewPrimitive: raw length %d does not match %d elements of width %d", len(raw), n, w)
	}
	buf := buffer.New(raw, w)
	if !nullable {
		return newPrimitiveRaw(ctx, pt, n, buf, Validity{Kind: NonNullable}, false), nil
	}
	if len(valid) != n {
		return nil, vxerr.New(vxerr.InvalidRange, "NewPrimitive: valid mask length %d does not match %d elements", len(valid), n)
	}
	vs := validityFromMask(ctx, valid, true)
	return newPrimitiveRaw(ctx, pt, n, buf, vs, true), nil
}

// NewPrimitiveI64 is a convenience constructor for non-nullable signed
// 64-bit arrays, the shape take's indices argument most commonly takes.
func NewPrimitiveI64(ctx *Context, values []int64) *ArrayData {
	raw := make([]byte, len(values)*8)
	for i, v := range values {
		binary.LittleEndian.PutUint64(raw[i*8:], uint64(v))
	}
	a, _ := NewPrimitive(ctx, dtype.I64, raw, len(values), nil, false)
	return a
}
