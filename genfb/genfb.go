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

// Package genfb implements the flatbuffer wire messages described in
// spec.md §6 (Schema, Array message, Layout, Postscript) directly
// against the github.com/google/flatbuffers Go runtime (Builder for
// encoding, Table for decoding), the same library named by
// original_source/vortex-flatbuffers and present in the example
// corpus's dependency surface.
//
// There is no .fbs-driven code generator involved: these are
// hand-written encoders/decoders following the same vtable
// conventions flatc-generated code uses, scoped to exactly the
// messages this format needs.
package genfb

import (
	flatbuffers "github.com/google/flatbuffers/go"
)

// vtable slot helpers. flatc-generated code addresses struct fields
// by a small integer "slot" that maps to vtable offset 4+2*slot; we
// keep that same convention here so the encode/decode sides agree
// without needing a shared generated header.

// fieldOffset returns the absolute byte offset of table field slot,
// or 0 if the field was omitted from the vtable (i.e. it was either
// never written, or written with a value equal to its declared
// default).
func fieldOffset(t *flatbuffers.Table, slot int) flatbuffers.UOffsetT {
	o := t.Offset(flatbuffers.VOffsetT(4 + 2*slot))
	if o == 0 {
		return 0
	}
	return o + t.Pos
}

// rawOffset is like fieldOffset but returns the offset relative to
// the table (not absolute), as needed by Table.Vector/Indirect/String/
// ByteVector, which add t.Pos themselves via the caller passing
// o+t.Pos; to avoid double-adding, callers needing the "vtable-offset
// kind" (for Vector/String/ByteVector, which take an offset already
// relative to t.Pos) should use this variant.
func rawOffset(t *flatbuffers.Table, slot int) flatbuffers.UOffsetT {
	return t.Offset(flatbuffers.VOffsetT(4 + 2*slot))
}

// newTable wraps buf as a root table at byte offset off, following
// the standard flatbuffers root-indirection: the first 4 bytes at off
// are a UOffsetT pointing (relative to off) at the actual table.
func newTable(buf []byte, off flatbuffers.UOffsetT) *flatbuffers.Table {
	n := flatbuffers.GetUOffsetT(buf[off:])
	return &flatbuffers.Table{Bytes: buf, Pos: n + off}
}

// finishAt finishes b with root as its root table and returns the
// finished bytes; the root offset sits at byte 0 of the result.
func finishAt(b *flatbuffers.Builder, root flatbuffers.UOffsetT) []byte {
	b.Finish(root)
	return b.FinishedBytes()
}
