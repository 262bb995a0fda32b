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

// structEncoding is the canonical encoding for Struct: no buffer, one
// child array per field in declared order, plus an optional trailing
// validity child after the last field (spec.md §4.3: a struct is
// itself invalid only when the composite is null, independent of its
// fields' own validity).
type structEncoding struct{}

func (structEncoding) ID() string { return IDStruct }

func (structEncoding) Canonicalize(a Array) (Canonical, error) { return a, nil }

func (structEncoding) ChildDType(parent dtype.DType, metadata []byte, index int) dtype.DType {
	_, children := parent.Fields()
	if index < len(children) {
		return children[index]
	}
	return dtype.Bool(false)
}

func structValidity(a Array) (Validity, error) {
	tag, err := fromValidityTag(metaByte(a))
	if err != nil {
		return Validity{}, err
	}
	_, children := a.DType().Fields()
	if tag == ArrayValidity {
		if a.NChildren() <= len(children) {
			return Validity{}, vxerr.New(vxerr.InvalidSerialization, "struct array: validity tag requires a trailing validity child")
		}
		return Validity{Kind: ArrayValidity, Arr: a.Child(len(children))}, nil
	}
	return Validity{Kind: tag}, nil
}

func (structEncoding) ScalarAt(a Array, index int) (scalar.Scalar, error) {
	v, err := structValidity(a)
	if err != nil {
		return scalar.Scalar{}, err
	}
	ok, err := v.IsValid(index)
	if err != nil {
		return scalar.Scalar{}, err
	}
	if !ok {
		return scalar.Null(a.DType().WithNullable(true)), nil
	}
	_, children := a.DType().Fields()
	values := make([]scalar.Scalar, len(children))
	for i := range children {
		fv, err := ScalarAt(a.Child(i), index)
		if err != nil {
			return scalar.Scalar{}, err
		}
		values[i] = fv
	}
	return scalar.Struct(a.DType().WithNullable(false), values), nil
}

func (structEncoding) Slice(a Array, start, end int) (Array, error) {
	_, fieldTypes := a.DType().Fields()
	children := make([]Array, len(fieldTypes))
	for i := range fieldTypes {
		c, err := Slice(a.Child(i), start, end)
		if err != nil {
			return nil, err
		}
		children[i] = c
	}
	v, err := structValidity(a)
	if err != nil {
		return nil, err
	}
	vs, err := v.Slice(start, end)
	if err != nil {
		return nil, err
	}
	return newStruct(ctxOf(a), a.DType(), children, vs, end-start), nil
}

func (structEncoding) Take(a Array, indices Array, skipBoundsCheck bool) (Array, error) {
	_, fieldTypes := a.DType().Fields()
	children := make([]Array, len(fieldTypes))
	for i := range fieldTypes {
		c, err := Take(a.Child(i), indices, skipBoundsCheck)
		if err != nil {
			return nil, err
		}
		children[i] = c
	}
	v, err := structValidity(a)
	if err != nil {
		return nil, err
	}
	vs, err := v.Take(indices, skipBoundsCheck)
	if err != nil {
		return nil, err
	}
	return newStruct(ctxOf(a), a.DType(), children, vs, indices.Len()), nil
}

func (structEncoding) Filter(a Array, mask Array) (Array, error) {
	_, fieldTypes := a.DType().Fields()
	children := make([]Array, len(fieldTypes))
	for i := range fieldTypes {
		c, err := Filter(a.Child(i), mask)
		if err != nil {
			return nil, err
		}
		children[i] = c
	}
	v, err := structValidity(a)
	if err != nil {
		return nil, err
	}
	// validity follows the same element selection as every field; build
	// it by gathering the kept positions the same way a field would.
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
	vs, err := v.Take(idxArr, true)
	if err != nil {
		return nil, err
	}
	n := 0
	if len(children) > 0 {
		n = children[0].Len()
	} else {
		n = len(idxVals)
	}
	return newStruct(ctxOf(a), a.DType(), children, vs, n), nil
}

func newStruct(ctx *Context, dt dtype.DType, children []Array, validity Validity, length int) *ArrayData {
	meta := []byte{validityTag(validity.Kind)}
	all := children
	if validity.Kind == ArrayValidity {
		all = append(append([]Array(nil), children...), validity.Arr)
	}
	return NewOwned(ctx, structEncoding{}, dt, length, meta, nil, all)
}

// NewStruct constructs a Struct array from per-field child arrays,
// which must all share length n, plus an optional valid mask.
func NewStruct(ctx *Context, names []string, children []Array, valid []bool, nullable bool, n int) (*ArrayData, error) {
	for _, c := range children {
		if c.Len() != n {
			return nil, vxerr.New(vxerr.InvalidRange, "NewStruct: field length %d does not match struct length %d", c.Len(), n)
		}
	}
	childTypes := make([]dtype.DType, len(children))
	for i, c := range children {
		childTypes[i] = c.DType()
	}
	dt := dtype.Struct(names, childTypes, nullable)
	vs := validityOf(ctx, valid, nullable)
	return newStruct(ctx, dt, children, vs, n), nil
}
