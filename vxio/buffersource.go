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

package vxio

import (
	"context"

	"github.com/Sweetlemon68/vortex/vxerr"
)

// BufferSource is a ByteSource backed by an in-memory byte slice,
// grounded on the teacher's BufferUploader/in-memory test harness
// pattern (ion/blockfmt/uploader.go's BufferUploader, read back
// through a Reader rather than written). Used for tests and for
// files small enough that memory-mapping is not worth the syscalls.
type BufferSource struct {
	buf []byte
}

// NewBufferSource wraps buf as a ByteSource. buf is not copied;
// callers must not mutate it afterward.
func NewBufferSource(buf []byte) *BufferSource {
	return &BufferSource{buf: buf}
}

func (b *BufferSource) Size(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return int64(len(b.buf)), nil
}

func (b *BufferSource) ReadRange(ctx context.Context, pos, n int64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if pos < 0 || n < 0 || pos+n > int64(len(b.buf)) {
		return nil, vxerr.New(vxerr.IO, "BufferSource: range [%d, %d) out of bounds (len %d)", pos, pos+n, len(b.buf))
	}
	return b.buf[pos : pos+n], nil
}
