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

package vxfile

import (
	"encoding/binary"

	"github.com/klauspost/compress/s2"

	"github.com/Sweetlemon68/vortex/vxerr"
)

// compressedMetadataBit marks a file whose data buffers are
// s2-compressed, carried in the root Layout's Metadata byte.
// Compression is all-or-nothing per file: either every data buffer
// carries a compressed payload or none do, so a Reader only needs to
// check this once at Open rather than per buffer.
const compressedMetadataBit = 0x02

func rootMetadata(compress bool) []byte {
	if !compress {
		return nil
	}
	return []byte{compressedMetadataBit}
}

func isCompressed(metadata []byte) bool {
	return len(metadata) > 0 && metadata[0]&compressedMetadataBit != 0
}

// compressBuffer returns raw's s2-compressed form prefixed with an
// 8-byte little-endian compressed length. The decompressed length
// does not need to be stored: it is already implied by the owning
// array's element count and dtype (see bufferLength), so the prefix
// only needs to tell a reader how many further bytes to consume.
func compressBuffer(raw []byte) []byte {
	compressed := s2.Encode(nil, raw)
	out := make([]byte, 8+len(compressed))
	binary.LittleEndian.PutUint64(out[0:8], uint64(len(compressed)))
	copy(out[8:], compressed)
	return out
}

// decompressBuffer reads an s2 payload prefixed the way compressBuffer
// writes it, starting at blob[0], and returns the decompressed bytes
// plus the number of blob bytes consumed (header + compressed data).
func decompressBuffer(blob []byte, wantLen int64) ([]byte, int64, error) {
	if len(blob) < 8 {
		return nil, 0, vxerr.New(vxerr.InvalidSerialization, "vxfile: compressed buffer header truncated")
	}
	compLen := int64(binary.LittleEndian.Uint64(blob[0:8]))
	if compLen < 0 || 8+compLen > int64(len(blob)) {
		return nil, 0, vxerr.New(vxerr.InvalidSerialization, "vxfile: compressed buffer length %d exceeds available %d bytes", compLen, len(blob)-8)
	}
	dst := make([]byte, wantLen)
	got, err := s2.Decode(dst, blob[8:8+compLen])
	if err != nil {
		return nil, 0, vxerr.Wrap(vxerr.InvalidSerialization, err, "vxfile: s2 decompress failed")
	}
	if int64(len(got)) != wantLen {
		return nil, 0, vxerr.New(vxerr.InvalidSerialization, "vxfile: decompressed buffer length %d does not match expected %d", len(got), wantLen)
	}
	return got, 8 + compLen, nil
}
