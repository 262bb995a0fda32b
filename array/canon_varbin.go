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
	"github.com/Sweetlemon68/vortex/buffer"
	"github.com/Sweetlemon68/vortex/dtype"
	"github.com/Sweetlemon68/vortex/scalar"
	"github.com/Sweetlemon68/vortex/vxerr"
)

// varBinEncoding is the canonical encoding for Utf8/Binary: a single
// bytes buffer holding every payload back to back, an i32 offsets
// child (n+1 entries, children[0]), an optional validity child
// (children[1]) and a validity tag in metadata[0] (spec.md §4.5:
// "produce an Arrow-style (offsets + bytes) VarBin by copying each
// payload once into a contiguous buffer" is exactly what
// varbinview.Canonicalize targets).
type varBinEncoding struct{}

func (varBinEncoding) ID() string { return IDVarBin }

func (varBinEncoding) Canonicalize(a Array) (Canonical, error) { return a, nil }

func (varBinEncoding) ChildDType(parent dtype.DType, metadata []byte, index int) dtype.DType {
	if index == 0 {
		return dtype.Primitive(dtype.I32, false)
	}
	return dtype.Bool(false)
}

func varBinValidity(a Array) (Validity, error) {
	tag, err := fromValidityTag(metaByte(a))
	if err != nil {
		return Validity{}, err
	}
	if tag == ArrayValidity {
		if a.NChildren() < 2 {
			return Validity{}, vxerr.New(vxerr.InvalidSerialization, "varbin array: validity tag requires a validity child")
		}
		return Validity{Kind: ArrayValidity, Arr: a.Child(1)}, nil
	}
	return Validity{Kind: tag}, nil
}

func varBinOffsets(a Array) []int32 {
	offsets := a.Child(0)
	buf := offsets.Buffer().Bytes()
	n := offsets.Len()
	out := make([]int32, n)
	for i := 0; i < n; i++ {
		out[i] = int32(readPrimitive(buf, dtype.I32, i))
	}
	return out
}

func varBinPayload(a Array, offsets []int32, index int) []byte {
	bytes := a.Buffer().Bytes()
	return bytes[offsets[index]:offsets[index+1]]
}

func (varBinEncoding) ScalarAt(a Array, index int) (scalar.Scalar, error) {
	v, err := varBinValidity(a)
	if err != nil {
		return scalar.Scalar{}, err
	}
	ok, err := v.IsValid(index)
	if err != nil {
		return scalar.Scalar{}, err
	}
	isUtf8 := a.DType().Kind() == dtype.KindUtf8
	nullable := a.DType().Nullable()
	if !ok {
		if isUtf8 {
			return scalar.Null(dtype.Utf8(true)), nil
		}
		return scalar.Null(dtype.Binary(true)), nil
	}
	offsets := varBinOffsets(a)
	payload := varBinPayload(a, offsets, index)
	if isUtf8 {
		return scalar.BufferString(string(payload), nullable), nil
	}
	return scalar.Buffer(payload, nullable), nil
}

func (varBinEncoding) Slice(a Array, start, end int) (Array, error) {
	offsets := varBinOffsets(a)
	payloads := make([][]byte, end-start)
	for i := start; i < end; i++ {
		payloads[i-start] = varBinPayload(a, offsets, i)
	}
	v, err := varBinValidity(a)
	if err != nil {
		return nil, err
	}
	vs, err := v.Slice(start, end)
	if err != nil {
		return nil, err
	}
	return newVarBin(ctxOf(a), a.DType().Kind(), payloads, vs, a.DType().Nullable()), nil
}

func (varBinEncoding) Take(a Array, indices Array, skipBoundsCheck bool) (Array, error) {
	offsets := varBinOffsets(a)
	n := indices.Len()
	payloads := make([][]byte, n)
	validMask := make([]bool, n)
	v, err := varBinValidity(a)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		iv, err := ScalarAt(indices, i)
		if err != nil {
			return nil, err
		}
		idx := asInt(iv)
		payloads[i] = varBinPayload(a, offsets, idx)
		ok, err := v.IsValid(idx)
		if err != nil {
			return nil, err
		}
		validMask[i] = ok
	}
	vs := validityFromMask(ctxOf(a), validMask, a.DType().Nullable())
	return newVarBin(ctxOf(a), a.DType().Kind(), payloads, vs, a.DType().Nullable()), nil
}

func (varBinEncoding) SearchSorted(a Array, value scalar.Scalar, side Side) (SearchResult, error) {
	n := a.Len()
	lo, hi := 0, n
	for lo < hi {
		mid := (lo + hi) / 2
		v, err := ScalarAt(a, mid)
		if err != nil {
			return SearchResult{}, err
		}
		goLeft := v.Less(value)
		eq := !goLeft && !value.Less(v)
		if side == Left {
			if goLeft {
				lo = mid + 1
			} else {
				hi = mid
			}
		} else {
			if goLeft || eq {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
	}
	// Right's insertion point sits past the run of equal elements, so the
	// candidate match is the element before it.
	probe := lo
	if side == Right {
		probe = lo - 1
	}
	if probe >= 0 && probe < n {
		v, err := ScalarAt(a, probe)
		if err == nil && !v.IsNull() && v.Equal(value) {
			return SearchResult{Index: lo, Found: true}, nil
		}
	}
	return SearchResult{Index: lo, Found: false}, nil
}

func (varBinEncoding) Filter(a Array, mask Array) (Array, error) {
	offsets := varBinOffsets(a)
	var payloads [][]byte
	var validMask []bool
	v, err := varBinValidity(a)
	if err != nil {
		return nil, err
	}
	for i := 0; i < a.Len(); i++ {
		mv, err := ScalarAt(mask, i)
		if err != nil {
			return nil, err
		}
		if mv.IsNull() || !mv.Bool() {
			continue
		}
		payloads = append(payloads, varBinPayload(a, offsets, i))
		ok, err := v.IsValid(i)
		if err != nil {
			return nil, err
		}
		validMask = append(validMask, ok)
	}
	vs := validityFromMask(ctxOf(a), validMask, a.DType().Nullable())
	return newVarBin(ctxOf(a), a.DType().Kind(), payloads, vs, a.DType().Nullable()), nil
}

func newVarBin(ctx *Context, kind dtype.Kind, payloads [][]byte, validity Validity, nullable bool) *ArrayData {
	n := len(payloads)
	offsets := make([]int32, n+1)
	var bytes []byte
	for i, p := range payloads {
		bytes = append(bytes, p...)
		offsets[i+1] = offsets[i] + int32(len(p))
	}
	offsetsRaw := make([]byte, (n+1)*4)
	for i, o := range offsets {
		writePrimitive(offsetsRaw, dtype.I32, i, uint64(uint32(o)))
	}
	offsetsArr, _ := NewPrimitive(ctx, dtype.I32, offsetsRaw, n+1, nil, false)

	meta := []byte{validityTag(validity.Kind)}
	children := []Array{offsetsArr}
	if validity.Kind == ArrayValidity {
		children = append(children, validity.Arr)
	}
	buf := buffer.New(bytes, 1)
	var dt dtype.DType
	if kind == dtype.KindUtf8 {
		dt = dtype.Utf8(nullable)
	} else {
		dt = dtype.Binary(nullable)
	}
	return NewOwned(ctx, varBinEncoding{}, dt, n, meta, &buf, children)
}

// NewUtf8 constructs a canonical Utf8 array from string values and a
// parallel valid mask.
func NewUtf8(ctx *Context, values []string, valid []bool, nullable bool) (*ArrayData, error) {
	if nullable && len(valid) != len(values) {
		return nil, vxerr.New(vxerr.InvalidRange, "NewUtf8: valid mask length %d does not match values length %d", len(valid), len(values))
	}
	payloads := make([][]byte, len(values))
	for i, v := range values {
		payloads[i] = []byte(v)
	}
	vs := validityOf(ctx, valid, nullable)
	return newVarBin(ctx, dtype.KindUtf8, payloads, vs, nullable), nil
}

// NewBinary constructs a canonical Binary array from byte payloads and
// a parallel valid mask.
func NewBinary(ctx *Context, values [][]byte, valid []bool, nullable bool) (*ArrayData, error) {
	if nullable && len(valid) != len(values) {
		return nil, vxerr.New(vxerr.InvalidRange, "NewBinary: valid mask length %d does not match values length %d", len(valid), len(values))
	}
	vs := validityOf(ctx, valid, nullable)
	return newVarBin(ctx, dtype.KindBinary, values, vs, nullable), nil
}

func validityOf(ctx *Context, valid []bool, nullable bool) Validity {
	if !nullable {
		return Validity{Kind: NonNullable}
	}
	return validityFromMask(ctx, valid, true)
}
