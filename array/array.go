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

// Package array implements the in-memory array representation:
// logically-typed, possibly-nested, possibly-compressed sequences of
// values addressed through a pluggable Encoding (spec.md §4.1-§4.3).
//
// Every array node has the same generic shape regardless of which
// encoding produced it -- a DType, a length, an opaque metadata blob,
// at most one raw data Buffer, and zero or more child Array values --
// the same way the teacher's ion.Datum is one generic struct whose
// meaning is entirely determined by a tag byte rather than a distinct
// Go type per ion value kind. Encodings interpret that generic shape;
// they do not define their own Array implementations.
package array

import (
	"github.com/Sweetlemon68/vortex/buffer"
	"github.com/Sweetlemon68/vortex/dtype"
)

// Array is the common read interface over both owned and
// file-backed (viewed) array nodes. Concrete values are always either
// *ArrayData or *ArrayView, both defined in this package; other
// packages that contribute encodings (array/sparse, array/varbinview)
// never construct Array values directly -- they call NewOwned with an
// Encoding they implement and get one back.
type Array interface {
	// DType returns the logical element type of this array.
	DType() dtype.DType
	// Len returns the number of logical elements.
	Len() int
	// Encoding returns the encoding interpreting this node's buffer
	// and children.
	Encoding() Encoding
	// Metadata returns the encoding-private metadata blob, opaque to
	// everything but Encoding.
	Metadata() []byte
	// HasBuffer reports whether this node carries a raw data buffer.
	HasBuffer() bool
	// Buffer returns the node's raw data buffer. It panics if
	// HasBuffer is false.
	Buffer() buffer.Buffer
	// NChildren returns the number of child arrays.
	NChildren() int
	// Child returns the i'th child array.
	Child(i int) Array
}

// Canonical is the subset of Array values produced by Encoding.Canonicalize:
// one of the Null, Bool, Primitive, VarBin, Struct or List encodings.
// Every canonical encoding implements ScalarAtEncoding, SliceEncoding,
// TakeEncoding and FilterEncoding; Null, Bool, Primitive and VarBin
// also implement SearchSortedEncoding, while Struct and List do not
// (compute.go's SearchSorted reports an UnknownEncoding error for
// them). None implements FlattenEncoding, since they are already
// canonical. Canonical is a documentation alias rather than a distinct
// method set, because Go does not let a marker interface require
// "every other interface".
type Canonical = Array

// ArrayData is an owned, in-memory array node: every buffer and child
// lives in process memory rather than behind a lazily-read file
// offset (contrast ArrayView).
type ArrayData struct {
	ctx      *Context
	enc      Encoding
	dt       dtype.DType
	length   int
	metadata []byte
	buf      buffer.Buffer
	hasBuf   bool
	children []Array
	stats    *statsCache
}

// NewOwned constructs an ArrayData. Encodings call this from their own
// typed constructors (e.g. sparse.New) after validating their
// encoding-specific invariants; NewOwned itself only enforces the
// generic invariants every node must satisfy.
func NewOwned(ctx *Context, enc Encoding, dt dtype.DType, length int, metadata []byte, buf *buffer.Buffer, children []Array) *ArrayData {
	if length < 0 {
		panic("array: negative length")
	}
	a := &ArrayData{
		ctx:      ctx,
		enc:      enc,
		dt:       dt,
		length:   length,
		metadata: metadata,
		children: children,
		stats:    newStatsCache(),
	}
	if buf != nil {
		a.buf = *buf
		a.hasBuf = true
	}
	return a
}

func (a *ArrayData) DType() dtype.DType    { return a.dt }
func (a *ArrayData) Len() int              { return a.length }
func (a *ArrayData) Encoding() Encoding     { return a.enc }
func (a *ArrayData) Metadata() []byte      { return a.metadata }
func (a *ArrayData) HasBuffer() bool       { return a.hasBuf }
func (a *ArrayData) NChildren() int        { return len(a.children) }

func (a *ArrayData) Buffer() buffer.Buffer {
	if !a.hasBuf {
		panic("array: Buffer() called on node with no buffer")
	}
	return a.buf
}

func (a *ArrayData) Child(i int) Array {
	return a.children[i]
}

// Context returns the encoding registry this array was built against,
// used by decoders that need to resolve further nested encodings (for
// example when reconstructing a tree read from a vxfile).
func (a *ArrayData) Context() *Context { return a.ctx }

// ArrayView is a file-backed array node: its buffer (if any) is a
// zero-copy slice over a memory-mapped or otherwise lazily-read
// ByteSource, and its children are resolved from the same decoded
// genfb.ArrayNode tree on construction. Only the buffer bytes are
// truly lazy; the tree shape itself (encoding, length, child count) is
// cheap enough to decode eagerly once at open time, which is the
// simplification this package makes versus a fully lazy per-field
// vtable accessor.
type ArrayView struct {
	ctx      *Context
	enc      Encoding
	dt       dtype.DType
	length   int
	metadata []byte
	buf      buffer.Buffer
	hasBuf   bool
	children []Array
	stats    *statsCache
}

// NewViewed constructs an ArrayView. Called by vxfile.Reader while
// walking a decoded genfb.ArrayNode tree; buf, when present, is a
// zero-copy buffer.Buffer slice over the file's ByteSource.
func NewViewed(ctx *Context, enc Encoding, dt dtype.DType, length int, metadata []byte, buf *buffer.Buffer, children []Array) *ArrayView {
	v := &ArrayView{
		ctx:      ctx,
		enc:      enc,
		dt:       dt,
		length:   length,
		metadata: metadata,
		children: children,
		stats:    newStatsCache(),
	}
	if buf != nil {
		v.buf = *buf
		v.hasBuf = true
	}
	return v
}

func (v *ArrayView) DType() dtype.DType    { return v.dt }
func (v *ArrayView) Len() int              { return v.length }
func (v *ArrayView) Encoding() Encoding     { return v.enc }
func (v *ArrayView) Metadata() []byte      { return v.metadata }
func (v *ArrayView) HasBuffer() bool       { return v.hasBuf }
func (v *ArrayView) NChildren() int        { return len(v.children) }

func (v *ArrayView) Buffer() buffer.Buffer {
	if !v.hasBuf {
		panic("array: Buffer() called on node with no buffer")
	}
	return v.buf
}

func (v *ArrayView) Child(i int) Array {
	return v.children[i]
}

func (v *ArrayView) Context() *Context { return v.ctx }
