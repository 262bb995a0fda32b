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

// Encoding describes how a single array node's buffer(s) and children
// are to be interpreted. Encoding is intentionally a small mandatory
// interface (id + canonicalize); everything else is an optional
// capability an encoding may implement, discovered at dispatch time
// via a type assertion rather than Rust's explicit with_dyn/as_any
// downcast (spec.md §4.1's "trait objects" map onto Go's implicit
// interface satisfaction, the same way the teacher's compr package
// dispatches on the optional io.ReaderFrom/io.WriterTo interfaces a
// Compressor may or may not implement).
type Encoding interface {
	// ID returns the encoding's stable string identifier, persisted
	// only indirectly: the wire format stores a Context-assigned
	// numeric code, and ID is how that code is assigned.
	ID() string

	// Canonicalize decodes a into one of the canonical forms (Null,
	// Bool, Primitive, VarBin, Struct, List). Every registered
	// encoding must implement this without error for any array it
	// produced; it is the mandatory fallback every compute op dispatches
	// through when the encoding does not implement that op directly.
	Canonicalize(a Array) (Canonical, error)
}

// Side selects which boundary search_sorted reports when the needle
// is present more than once (spec.md §4.2).
type Side uint8

const (
	// Left reports the index of the first element equal to the needle.
	Left Side = iota
	// Right reports the index one past the last element equal to the needle.
	Right
)

// SearchResult is the outcome of a search_sorted call: Found
// distinguishes "needle present" (at Index for Left, at Index-1 for
// Right) from "needle absent, Index is its insertion point" (mirrors Go's sort.Search / Rust's
// Result<usize, usize>, flattened into one struct since both branches
// carry the same payload shape).
type SearchResult struct {
	Index int
	Found bool
}

// ScalarAtEncoding is implemented by encodings that can read a single
// element without fully canonicalizing (spec.md §4.1/§4.2 scalar_at).
type ScalarAtEncoding interface {
	ScalarAt(a Array, index int) (scalar.Scalar, error)
}

// SliceEncoding is implemented by encodings that can produce a
// zero-copy sub-range directly (spec.md §4.1/§4.2 slice).
type SliceEncoding interface {
	Slice(a Array, start, end int) (Array, error)
}

// TakeEncoding is implemented by encodings that can gather by index
// array directly (spec.md §4.1/§4.2 take).
type TakeEncoding interface {
	Take(a Array, indices Array, skipBoundsCheck bool) (Array, error)
}

// FlattenEncoding lets an encoding override the default
// Canonicalize-is-the-fallback behavior of Flatten with something
// cheaper. Most encodings do not implement this; Flatten then falls
// back to Canonicalize, which is mandatory.
type FlattenEncoding interface {
	Flatten(a Array) (Canonical, error)
}

// SearchSortedEncoding is implemented by encodings that can binary
// search their own representation directly (spec.md §4.2).
type SearchSortedEncoding interface {
	SearchSorted(a Array, value scalar.Scalar, side Side) (SearchResult, error)
}

// FilterEncoding is implemented by encodings that can apply a boolean
// mask directly (spec.md §4.1/§4.2 filter).
type FilterEncoding interface {
	Filter(a Array, mask Array) (Array, error)
}

// ChildDTypeEncoding is implemented by encodings whose children do not
// all share the parent's DType (Struct, List, and any encoding whose
// children include non-self-describing helper arrays such as offsets
// or validity). The core dtype is never duplicated into the wire
// format's Array message (spec.md §3: "each child's dtype is implied
// by the parent"); ChildDType is how a decoder recovers it.
type ChildDTypeEncoding interface {
	ChildDType(parentDType dtype.DType, metadata []byte, index int) dtype.DType
}
