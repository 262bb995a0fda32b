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

// Package vxfile implements the on-disk .vtxf file format (spec.md
// §4.7-§4.8, §6): a Reader that resolves the Postscript/Schema/Layout
// footer and produces ArrayView-backed Struct batches in logical row
// order, and a Writer that serializes a stream of Struct arrays into
// that same format. It is grounded on the teacher's
// ion/blockfmt.Trailer-driven reader/writer pair, adapted from ion's
// block-of-records model to vortex's columnar Array/Layout model.
package vxfile

import (
	"encoding/binary"

	"github.com/Sweetlemon68/vortex/vxerr"
)

// Magic is the 4-byte file signature at the start and end of every
// .vtxf file (spec.md §6).
const Magic = "VTXF"

// Version is the current file format version. Any change to the
// Postscript/EndOfFile layout requires a bump (spec.md §6
// "Versioning").
const Version uint16 = 1

// V1FooterFBSSize is the exact byte size of a version-1 Postscript
// flatbuffer: two u64 slots plus the fixed vtable/root overhead the
// flatbuffers Go runtime emits for a two-scalar-field table with no
// string/vector fields. Pinned by scenario 7 of spec.md §8 as a
// regression guard against accidental Postscript schema drift.
const V1FooterFBSSize = 32

// bufferAlign is the byte alignment raw data buffers are padded to
// within the file (spec.md §6: "Buffers are 64-byte aligned").
const bufferAlign = 64

// EndOfFile is the decoded form of the trailing 8-byte marker
// (spec.md §6): "u16 version (little endian) | u16 footer_length |
// magic".
type EndOfFile struct {
	Version      uint16
	FooterLength uint16
}

// MarshalEndOfFile encodes e as the 8 trailing bytes of a .vtxf file.
func MarshalEndOfFile(e EndOfFile) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint16(buf[0:2], e.Version)
	binary.LittleEndian.PutUint16(buf[2:4], e.FooterLength)
	copy(buf[4:8], Magic)
	return buf
}

// UnmarshalEndOfFile decodes the trailing 8 bytes of a .vtxf file,
// verifying the magic tag.
func UnmarshalEndOfFile(buf []byte) (EndOfFile, error) {
	if len(buf) != 8 {
		return EndOfFile{}, vxerr.New(vxerr.InvalidSerialization, "EndOfFile marker must be 8 bytes, got %d", len(buf))
	}
	if string(buf[4:8]) != Magic {
		return EndOfFile{}, vxerr.New(vxerr.InvalidSerialization, "EndOfFile marker has bad magic %q", buf[4:8])
	}
	return EndOfFile{
		Version:      binary.LittleEndian.Uint16(buf[0:2]),
		FooterLength: binary.LittleEndian.Uint16(buf[2:4]),
	}, nil
}

// padTo64 returns the number of zero bytes needed after absolute file
// position pos so that the next byte written lands on a bufferAlign
// boundary.
func padTo64(pos int64) int64 {
	rem := pos % bufferAlign
	if rem == 0 {
		return 0
	}
	return bufferAlign - rem
}
