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

// boolEncoding is the canonical encoding for Bool: a packed
// little-endian bit buffer (one buffer bit per element, LSB first in
// each byte) plus a validity tag in metadata[0] and, when the tag is
// ArrayValidity, a single non-nullable Bool child at index 0.
type boolEncoding struct{}

func (boolEncoding) ID() string { return IDBool }

func (boolEncoding) Canonicalize(a Array) (Canonical, error) { return a, nil }

func (boolEncoding) ChildDType(parent dtype.DType, metadata []byte, index int) dtype.DType {
	return dtype.Bool(false)
}

func boolValidity(a Array) (Validity, error) {
	tag, err := fromValidityTag(metaByte(a))
	if err != nil {
		return Validity{}, err
	}
	if tag == ArrayValidity {
		if a.NChildren() == 0 {
			return Validity{}, vxerr.New(vxerr.InvalidSerialization, "bool array: validity tag requires a validity child")
		}
		return Validity{Kind: ArrayValidity, Arr: a.Child(0)}, nil
	}
	return Validity{Kind: tag}, nil
}

func metaByte(a Array) byte {
	m := a.Metadata()
	if len(m) == 0 {
		return byte(NonNullable)
	}
	return m[0]
}

func getBit(buf []byte, i int) bool {
	return buf[i/8]&(1<<uint(i%8)) != 0
}

func setBit(buf []byte, i int, v bool) {
	if v {
		buf[i/8] |= 1 << uint(i%8)
	}
}

func (boolEncoding) ScalarAt(a Array, index int) (scalar.Scalar, error) {
	v, err := boolValidity(a)
	if err != nil {
		return scalar.Scalar{}, err
	}
	ok, err := v.IsValid(index)
	if err != nil {
		return scalar.Scalar{}, err
	}
	nullable := a.DType().Nullable()
	if !ok {
		return scalar.Null(dtype.Bool(true)), nil
	}
	bits := a.Buffer().Bytes()
	return scalar.Bool(getBit(bits, index), nullable), nil
}

func (boolEncoding) Slice(a Array, start, end int) (Array, error) {
	n := end - start
	bits := a.Buffer().Bytes()
	values := make([]bool, n)
	for i := 0; i < n; i++ {
		values[i] = getBit(bits, start+i)
	}
	v, err := boolValidity(a)
	if err != nil {
		return nil, err
	}
	sliced, err := v.Slice(start, end)
	if err != nil {
		return nil, err
	}
	return newBoolFromBits(ctxOf(a), values, sliced, a.DType().Nullable()), nil
}

func (boolEncoding) Take(a Array, indices Array, skipBoundsCheck bool) (Array, error) {
	bits := a.Buffer().Bytes()
	n := indices.Len()
	values := make([]bool, n)
	validMask := make([]bool, n)
	for i := 0; i < n; i++ {
		iv, err := ScalarAt(indices, i)
		if err != nil {
			return nil, err
		}
		idx := asInt(iv)
		values[i] = getBit(bits, idx)
		v, err := boolValidity(a)
		if err != nil {
			return nil, err
		}
		ok, err := v.IsValid(idx)
		if err != nil {
			return nil, err
		}
		validMask[i] = ok
	}
	validity := validityFromMask(ctxOf(a), validMask, a.DType().Nullable())
	return newBoolFromBits(ctxOf(a), values, validity, a.DType().Nullable()), nil
}

func (boolEncoding) SearchSorted(a Array, value scalar.Scalar, side Side) (SearchResult, error) {
	n := a.Len()
	lo, hi := 0, n
	for lo < hi {
		mid := (lo + hi) / 2
		v, err := ScalarAt(a, mid)
		if err != nil {
			return SearchResult{}, err
		}
		less := v.Less(value)
		eq := !less && !value.Less(v)
		if side == Left {
			if less {
				lo = mid + 1
			} else {
				hi = mid
			}
		} else {
			if less || eq {
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
		if err == nil && !v.IsNull() && v.Bool() == value.Bool() {
			return SearchResult{Index: lo, Found: true}, nil
		}
	}
	return SearchResult{Index: lo, Found: false}, nil
}

func (boolEncoding) Filter(a Array, mask Array) (Array, error) {
	var values []bool
	var validMask []bool
	v, err := boolValidity(a)
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
		s, err := ScalarAt(a, i)
		if err != nil {
			return nil, err
		}
		values = append(values, !s.IsNull() && s.Bool())
		ok, err := v.IsValid(i)
		if err != nil {
			return nil, err
		}
		validMask = append(validMask, ok)
	}
	validity := validityFromMask(ctxOf(a), validMask, a.DType().Nullable())
	return newBoolFromBits(ctxOf(a), values, validity, a.DType().Nullable()), nil
}

// validityFromMask builds the Validity for a freshly computed valid
// mask (used by Take/Filter, which recompute validity element by
// element rather than slicing an existing Validity).
func validityFromMask(ctx *Context, mask []bool, nullable bool) Validity {
	if !nullable {
		return Validity{Kind: NonNullable}
	}
	allValid, allInvalid := true, true
	for _, v := range mask {
		if v {
			allInvalid = false
		} else {
			allValid = false
		}
	}
	switch {
	case allValid:
		return Validity{Kind: AllValid}
	case allInvalid:
		return Validity{Kind: AllInvalid}
	}
	validBits := newBoolFromBits(ctx, mask, Validity{Kind: NonNullable}, false)
	return Validity{Kind: ArrayValidity, Arr: validBits}
}

// newBoolFromBits packs values into a Bool array, honoring validity's
// kind.
func newBoolFromBits(ctx *Context, values []bool, validity Validity, nullable bool) *ArrayData {
	n := len(values)
	packed := make([]byte, (n+7)/8)
	for i, v := range values {
		setBit(packed, i, v)
	}
	buf := buffer.New(packed, 1)
	var children []Array
	meta := []byte{validityTag(validity.Kind)}
	if validity.Kind == ArrayValidity {
		children = []Array{validity.Arr}
	}
	return NewOwned(ctx, boolEncoding{}, dtype.Bool(nullable), n, meta, &buf, children)
}

// NewBool constructs a Bool array from explicit values and a parallel
// valid mask (valid[i]==false means values[i] is null). len(valid)
// must equal len(values) when nullable is true; when false, valid is
// ignored.
func NewBool(ctx *Context, values []bool, valid []bool, nullable bool) (*ArrayData, error) {
	if nullable && len(valid) != len(values) {
		return nil, vxerr.New(vxerr.InvalidRange, "NewBool: valid mask length %d does not match values length %d", len(valid), len(values))
	}
	if !nullable {
		return newBoolFromBits(ctx, values, Validity{Kind: NonNullable}, false), nil
	}
	allValid, allInvalid := true, true
	for _, v := range valid {
		if v {
			allInvalid = false
		} else {
			allValid = false
		}
	}
	switch {
	case allValid:
		return newBoolFromBits(ctx, values, Validity{Kind: AllValid}, true), nil
	case allInvalid:
		return newBoolFromBits(ctx, values, Validity{Kind: AllInvalid}, true), nil
	}
	validBits, _ := NewBool(ctx, valid, nil, false)
	return newBoolFromBits(ctx, values, Validity{Kind: ArrayValidity, Arr: validBits}, true), nil
}
