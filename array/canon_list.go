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
	"github.com/Sweetlemon68/vortex/dtype"
	"github.com/Sweetlemon68/vortex/scalar"
	"github.com/Sweetlemon68/vortex/vxerr"
)

// listEncoding is the canonical encoding for List: children[0] is an
// i32 offsets array (n+1 entries, indexing into children[1]),
// children[1] is the flattened element values array, and an optional
// trailing children[2] is the list's own validity (spec.md §4.3). List
// slicing narrows the offsets window without touching the shared
// values child, the same sharing discipline buffer.Buffer.Slice uses.
type listEncoding struct{}

func (listEncoding) ID() string { return IDList }

func (listEncoding) Canonicalize(a Array) (Canonical, error) { return a, nil }

func (listEncoding) ChildDType(parent dtype.DType, metadata []byte, index int) dtype.DType {
	switch index {
	case 0:
		return dtype.Primitive(dtype.I32, false)
	case 1:
		return parent.Elem()
	default:
		return dtype.Bool(false)
	}
}

func listValidity(a Array) (Validity, error) {
	tag, err := fromValidityTag(metaByte(a))
	if err != nil {
		return Validity{}, err
	}
	if tag == ArrayValidity {
		if a.NChildren() < 3 {
			return Validity{}, vxerr.New(vxerr.InvalidSerialization, "list array: validity tag requires a trailing validity child")
		}
		return Validity{Kind: ArrayValidity, Arr: a.Child(2)}, nil
	}
	return Validity{Kind: tag}, nil
}

func listOffsets(a Array) []int32 {
	offsets := a.Child(0)
	buf := offsets.Buffer().Bytes()
	n := offsets.Len()
	out := make([]int32, n)
	for i := 0; i < n; i++ {
		out[i] = int32(readPrimitive(buf, dtype.I32, i))
	}
	return out
}

func (listEncoding) ScalarAt(a Array, index int) (scalar.Scalar, error) {
	v, err := listValidity(a)
	if err != nil {
		return scalar.Scalar{}, err
	}
	ok, err := v.IsValid(index)
	if err != nil {
		return scalar.Scalar{}, err
	}
	elemType := a.DType().Elem()
	nullable := a.DType().Nullable()
	if !ok {
		return scalar.Null(dtype.List(elemType, true)), nil
	}
	offsets := listOffsets(a)
	values := a.Child(1)
	begin, end := offsets[index], offsets[index+1]
	items := make([]scalar.Scalar, 0, end-begin)
	for i := begin; i < end; i++ {
		iv, err := ScalarAt(values, int(i))
		if err != nil {
			return scalar.Scalar{}, err
		}
		items = append(items, iv)
	}
	return scalar.List(elemType, items, nullable), nil
}

func (listEncoding) Slice(a Array, start, end int) (Array, error) {
	offsetsArr, err := Slice(a.Child(0), start, end+1)
	if err != nil {
		return nil, err
	}
	v, err := listValidity(a)
	if err != nil {
		return nil, err
	}
	vs, err := v.Slice(start, end)
	if err != nil {
		return nil, err
	}
	children := []Array{offsetsArr, a.Child(1)}
	if vs.Kind == ArrayValidity {
		children = append(children, vs.Arr)
	}
	return NewOwned(ctxOf(a), listEncoding{}, a.DType(), end-start, []byte{validityTag(vs.Kind)}, nil, children), nil
}

func (listEncoding) Take(a Array, indices Array, skipBoundsCheck bool) (Array, error) {
	offsets := listOffsets(a)
	n := indices.Len()
	newOffsets := make([]int32, n+1)
	var gather []int64
	validMask := make([]bool, n)
	v, err := listValidity(a)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		iv, err := ScalarAt(indices, i)
		if err != nil {
			return nil, err
		}
		idx := asInt(iv)
		begin, end := offsets[idx], offsets[idx+1]
		for j := begin; j < end; j++ {
			gather = append(gather, int64(j))
		}
		newOffsets[i+1] = newOffsets[i] + (end - begin)
		ok, err := v.IsValid(idx)
		if err != nil {
			return nil, err
		}
		validMask[i] = ok
	}
	gatherIdx := NewPrimitiveI64(ctxOf(a), gather)
	values, err := Take(a.Child(1), gatherIdx, true)
	if err != nil {
		return nil, err
	}
	offsetsArr := packI32Offsets(ctxOf(a), newOffsets)
	vs := validityFromMask(ctxOf(a), validMask, a.DType().Nullable())
	children := []Array{offsetsArr, values}
	if vs.Kind == ArrayValidity {
		children = append(children, vs.Arr)
	}
	return NewOwned(ctxOf(a), listEncoding{}, a.DType(), n, []byte{validityTag(vs.Kind)}, nil, children), nil
}

func (listEncoding) Filter(a Array, mask Array) (Array, error) {
	var idxVals []int64
	for i := 0; i < mask.Len(); i++ {
		mv, err := ScalarAt(mask, i)
		if err != nil {
			return nil, err
		}
		if !mv.IsNull() && mv.Bool() {
			idxVals = append(idxVals, int64(i))
		}
	}
	idxArr := NewPrimitiveI64(ctxOf(a), idxVals)
	return listEncoding{}.Take(a, idxArr, true)
}

func packI32Offsets(ctx *Context, offsets []int32) *ArrayData {
	raw := make([]byte, len(offsets)*4)
	for i, o := range offsets {
		writePrimitive(raw, dtype.I32, i, uint64(uint32(o)))
	}
	a, _ := NewPrimitive(ctx, dtype.I32, raw, len(offsets), nil, false)
	return a
}

// NewList constructs a List array from an element-count-per-row slice
// (rowLens), a flattened values child covering sum(rowLens) elements,
// and an optional valid mask.
func NewList(ctx *Context, elem dtype.DType, rowLens []int, values Array, valid []bool, nullable bool) (*ArrayData, error) {
	n := len(rowLens)
	offsets := make([]int32, n+1)
	for i, l := range rowLens {
		offsets[i+1] = offsets[i] + int32(l)
	}
	if int(offsets[n]) != values.Len() {
		return nil, vxerr.New(vxerr.InvalidRange, "NewList: row lengths sum to %d but values has length %d", offsets[n], values.Len())
	}
	offsetsArr := packI32Offsets(ctx, offsets)
	dt := dtype.List(elem, nullable)
	vs := validityOf(ctx, valid, nullable)
	children := []Array{offsetsArr, values}
	if vs.Kind == ArrayValidity {
		children = append(children, vs.Arr)
	}
	return NewOwned(ctx, listEncoding{}, dt, n, []byte{validityTag(vs.Kind)}, nil, children), nil
}
