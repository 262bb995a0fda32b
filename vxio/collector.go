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
	"io/fs"
	"path"
	"sort"
)

// Item is one matched file from a Collect call.
type Item struct {
	Path string
	ETag string
	Size int64
}

// Collector glob-collects a set of files from an InputFS, grounded on
// the teacher's ion/blockfmt.Collector/Collect (SPEC_FULL.md §4.7
// expansion). It does not understand .vtxf internals; vxfile.OpenAll
// is the thin layer that turns a Collector's Items into opened
// Readers.
type Collector struct {
	// Pattern is a path/filepath.Match-style glob; empty matches
	// everything.
	Pattern string
	// MaxItems, if non-zero, caps the number of items returned.
	MaxItems int
}

// Collect walks from (rooted at ".") and returns every regular file
// matching c.Pattern, sorted by path for deterministic iteration.
func (c *Collector) Collect(from InputFS) ([]Item, error) {
	var items []Item
	err := fs.WalkDir(from, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if c.Pattern != "" {
			ok, merr := path.Match(c.Pattern, path.Base(p))
			if merr != nil {
				return merr
			}
			if !ok {
				return nil
			}
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		etag, err := from.ETag(p, info)
		if err != nil {
			return err
		}
		items = append(items, Item{Path: p, ETag: etag, Size: info.Size()})
		if c.MaxItems > 0 && len(items) >= c.MaxItems {
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Path < items[j].Path })
	return items, nil
}
