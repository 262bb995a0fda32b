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

// Package vxio implements the random-access byte sources and
// filesystem abstractions vxfile.Reader/Writer are driven against
// (SPEC_FULL.md §4.7), grounded on the teacher's aws/s3.Reader
// (io.ReaderAt + Size) and ion/blockfmt.InputFS/UploadFS/Collector.
package vxio

import "context"

// ByteSource is the random-access read side of spec.md §4.7: "a
// random-access byte source with size() and read_range(pos, len)".
// Every suspension point the core defines (spec.md §5) funnels through
// a ByteSource call, matching the teacher's posture of using plain
// blocking Go calls taking a context.Context rather than a distinct
// async/await surface.
type ByteSource interface {
	// Size returns the total number of bytes in the source.
	Size(ctx context.Context) (int64, error)
	// ReadRange returns the n bytes starting at pos. Implementations
	// may return a buffer that aliases shared memory (as FileSource
	// does via mmap); callers must not mutate the result.
	ReadRange(ctx context.Context, pos, n int64) ([]byte, error)
}
