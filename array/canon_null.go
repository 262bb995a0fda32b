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
)

// nullEncoding is the canonical encoding for the Null DType: every
// element is invalid, nothing is stored (spec.md §4.3).
type nullEncoding struct{}

func (nullEncoding) ID() string { return IDNull }

func (nullEncoding) Canonicalize(a Array) (Canonical, error) { return a, nil }

func (nullEncoding) ScalarAt(a Array, index int) (scalar.Scalar, error) {
	return scalar.Null(dtype.Null()), nil
}

func (nullEncoding) Slice(a Array, start, end int) (Array, error) {
	return NewNull(ctxOf(a), end-start), nil
}

func (nullEncoding) Take(a Array, indices Array, skipBoundsCheck bool) (Array, error) {
	return NewNull(ctxOf(a), indices.Len()), nil
}

func (nullEncoding) SearchSorted(a Array, value scalar.Scalar, side Side) (SearchResult, error) {
	// every element is null, and null sorts nowhere in particular;
	// by convention a Null array reports the needle absent at 0.
	return SearchResult{Index: 0, Found: false}, nil
}

func (nullEncoding) Filter(a Array, mask Array) (Array, error) {
	count := 0
	for i := 0; i < mask.Len(); i++ {
		v, err := ScalarAt(mask, i)
		if err != nil {
			return nil, err
		}
		if !v.IsNull() && v.Bool() {
			count++
		}
	}
	return NewNull(ctxOf(a), count), nil
}

// contextHaver is implemented by ArrayData/ArrayView; canonical
// encodings use it via ctxOf to build fresh result arrays without
// threading an extra *Context parameter through every compute call.
type contextHaver interface {
	Context() *Context
}

// ctxOf returns the Context a was built against.
func ctxOf(a Array) *Context { return a.(contextHaver).Context() }

// NewNull constructs a Null array of the given length.
func NewNull(ctx *Context, length int) *ArrayData {
	return NewOwned(ctx, nullEncoding{}, dtype.Null(), length, nil, nil, nil)
}
