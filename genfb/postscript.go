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

package genfb

import (
	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/Sweetlemon68/vortex/vxerr"
)

const (
	psSchemaOffset = 0
	psLayoutOffset = 1
)

// Postscript is the decoded form of the Postscript message (spec.md §6):
// "{schema_offset: u64, layout_offset: u64}".
type Postscript struct {
	SchemaOffset uint64
	LayoutOffset uint64
}

// WritePostscript finishes a fresh builder with p as its root and
// returns the encoded bytes.
func WritePostscript(p Postscript) []byte {
	b := flatbuffers.NewBuilder(64)
	b.StartObject(2)
	b.PrependUint64Slot(psLayoutOffset, p.LayoutOffset, ^uint64(0))
	b.PrependUint64Slot(psSchemaOffset, p.SchemaOffset, ^uint64(0))
	off := b.EndObject()
	return finishAt(b, off)
}

// ReadPostscript decodes a Postscript message from the start of buf.
func ReadPostscript(buf []byte) (Postscript, error) {
	if len(buf) < 4 {
		return Postscript{}, vxerr.New(vxerr.InvalidSerialization, "postscript buffer too short (%d bytes)", len(buf))
	}
	t := newTable(buf, 0)
	var p Postscript
	if o := rawOffset(t, psSchemaOffset); o != 0 {
		p.SchemaOffset = t.GetUint64(o + t.Pos)
	}
	if o := rawOffset(t, psLayoutOffset); o != 0 {
		p.LayoutOffset = t.GetUint64(o + t.Pos)
	}
	return p, nil
}
