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

// Flatten decodes a into its canonical form, using the encoding's own
// FlattenEncoding implementation if it has one and falling back to the
// mandatory Canonicalize otherwise (spec.md §4.1/§4.2). Every other
// compute op in this file calls Flatten at most once, and only when the
// array's encoding does not implement that op itself.
func Flatten(a Array) (Canonical, error) {
	if fe, ok := a.Encoding().(FlattenEncoding); ok {
		return fe.Flatten(a)
	}
	return a.Encoding().Canonicalize(a)
}

// ScalarAt returns the element at index, using the encoding's direct
// implementation when present and otherwise flattening first.
func ScalarAt(a Array, index int) (scalar.Scalar, error) {
	if index < 0 || index >= a.Len() {
		return scalar.Scalar{}, vxerr.New(vxerr.OutOfBounds, "scalar_at: index %d out of range [0, %d)", index, a.Len())
	}
	if se, ok := a.Encoding().(ScalarAtEncoding); ok {
		return se.ScalarAt(a, index)
	}
	c, err := Flatten(a)
	if err != nil {
		return scalar.Scalar{}, err
	}
	se, ok := c.Encoding().(ScalarAtEncoding)
	if !ok {
		return scalar.Scalar{}, vxerr.New(vxerr.UnknownEncoding, "canonical encoding %s has no scalar_at", c.Encoding().ID())
	}
	return se.ScalarAt(c, index)
}

// Slice returns the sub-range [start, end) of a.
func Slice(a Array, start, end int) (Array, error) {
	if start < 0 || end < start || end > a.Len() {
		return nil, vxerr.New(vxerr.InvalidRange, "slice: range [%d, %d) invalid for length %d", start, end, a.Len())
	}
	if se, ok := a.Encoding().(SliceEncoding); ok {
		return se.Slice(a, start, end)
	}
	c, err := Flatten(a)
	if err != nil {
		return nil, err
	}
	se, ok := c.Encoding().(SliceEncoding)
	if !ok {
		return nil, vxerr.New(vxerr.UnknownEncoding, "canonical encoding %s has no slice", c.Encoding().ID())
	}
	return se.Slice(c, start, end)
}

// Take gathers the elements of a named by indices, an integer array.
// If skipBoundsCheck is false, every index is validated against a's
// length before any encoding-specific logic runs.
func Take(a Array, indices Array, skipBoundsCheck bool) (Array, error) {
	if indices.DType().Kind() != dtype.KindPrimitive || !indices.DType().PType().IsSigned() && !indices.DType().PType().IsUnsigned() {
		return nil, vxerr.New(vxerr.TypeMismatch, "take: indices must be a primitive integer array")
	}
	if !skipBoundsCheck {
		for i := 0; i < indices.Len(); i++ {
			iv, err := ScalarAt(indices, i)
			if err != nil {
				return nil, err
			}
			if iv.IsNull() {
				continue
			}
			idx := asInt(iv)
			if idx < 0 || idx >= a.Len() {
				return nil, vxerr.New(vxerr.OutOfBounds, "take: index %d out of range [0, %d)", idx, a.Len())
			}
		}
	}
	if te, ok := a.Encoding().(TakeEncoding); ok {
		return te.Take(a, indices, true)
	}
	c, err := Flatten(a)
	if err != nil {
		return nil, err
	}
	te, ok := c.Encoding().(TakeEncoding)
	if !ok {
		return nil, vxerr.New(vxerr.UnknownEncoding, "canonical encoding %s has no take", c.Encoding().ID())
	}
	return te.Take(c, indices, true)
}

// SearchSorted returns the position of value in a, which must already
// be sorted ascending per scalar.Scalar.Less (spec.md §4.2). side
// selects the leftmost or rightmost matching position when value
// appears more than once.
func SearchSorted(a Array, value scalar.Scalar, side Side) (SearchResult, error) {
	if se, ok := a.Encoding().(SearchSortedEncoding); ok {
		return se.SearchSorted(a, value, side)
	}
	c, err := Flatten(a)
	if err != nil {
		return SearchResult{}, err
	}
	se, ok := c.Encoding().(SearchSortedEncoding)
	if !ok {
		return SearchResult{}, vxerr.New(vxerr.UnknownEncoding, "canonical encoding %s has no search_sorted", c.Encoding().ID())
	}
	return se.SearchSorted(c, value, side)
}

// Filter returns the elements of a for which mask (a non-nullable Bool
// array of the same length) is true.
func Filter(a Array, mask Array) (Array, error) {
	if mask.DType().Kind() != dtype.KindBool {
		return nil, vxerr.New(vxerr.TypeMismatch, "filter: mask must be a bool array")
	}
	if mask.Len() != a.Len() {
		return nil, vxerr.New(vxerr.InvalidRange, "filter: mask length %d does not match array length %d", mask.Len(), a.Len())
	}
	if fe, ok := a.Encoding().(FilterEncoding); ok {
		return fe.Filter(a, mask)
	}
	c, err := Flatten(a)
	if err != nil {
		return nil, err
	}
	fe, ok := c.Encoding().(FilterEncoding)
	if !ok {
		return nil, vxerr.New(vxerr.UnknownEncoding, "canonical encoding %s has no filter", c.Encoding().ID())
	}
	return fe.Filter(c, mask)
}

// asInt reads an index scalar as a plain int, accepting either signed
// or unsigned primitive payloads (take's indices array may be either).
func asInt(s scalar.Scalar) int {
	if s.DType().PType().IsSigned() {
		return int(s.Int())
	}
	return int(s.Uint())
}
