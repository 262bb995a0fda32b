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
	"context"
	"io/fs"

	"github.com/Sweetlemon68/vortex/array"
	"github.com/Sweetlemon68/vortex/vxerr"
	"github.com/Sweetlemon68/vortex/vxio"
)

// OpenAll opens every item a vxio.Collector found on infs as an
// independent Reader, the thin layer vxio.Collector's doc comment
// refers to: the Collector only globs paths, it has no notion of
// .vtxf footers. Grounded on the teacher's plan-building step that
// turns a Collector's matched Items into openable inputs, simplified
// here since this package opens each file's whole Reader rather than
// feeding a query planner.
//
// Every item is read into memory in full (via fs.ReadFile) and wrapped
// in a vxio.BufferSource; callers opening a large fleet of large files
// from local disk should prefer vxfile.OpenFile directly per path to
// take advantage of FileSource's mmap instead.
func OpenAll(ctx context.Context, actx *array.Context, infs vxio.InputFS, items []vxio.Item) ([]*Reader, error) {
	readers := make([]*Reader, 0, len(items))
	for _, item := range items {
		data, err := fs.ReadFile(infs, item.Path)
		if err != nil {
			return nil, vxerr.Wrap(vxerr.IO, err, "vxfile: OpenAll: read %s", item.Path)
		}
		r, err := Open(ctx, actx, vxio.NewBufferSource(data))
		if err != nil {
			return nil, vxerr.Wrap(vxerr.IO, err, "vxfile: OpenAll: open %s", item.Path)
		}
		readers = append(readers, r)
	}
	return readers, nil
}
