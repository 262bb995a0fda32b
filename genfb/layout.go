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
	bufBegin = 0
	bufEnd   = 1
)

const (
	layEncoding = 0
	layBuffers  = 1
	layChildren = 2
	layRowCount = 3
	layMetadata = 4
)

// BufferRange is the decoded form of the Layout message's
// Buffer{begin, end} pair (spec.md §6): absolute file offsets.
type BufferRange struct {
	Begin, End uint64
}

// LayoutNode is the decoded form of a Layout message (spec.md §6 / §4.6):
// "{encoding: u16, buffers: [Buffer], children: [Layout], row_count:
// u64, metadata: [u8]}".
type LayoutNode struct {
	Encoding uint16
	Buffers  []BufferRange
	Children []LayoutNode
	RowCount uint64
	Metadata []byte
}

func buildBufferRange(b *flatbuffers.Builder, r BufferRange) flatbuffers.UOffsetT {
	b.StartObject(2)
	b.PrependUint64Slot(bufEnd, r.End, ^uint64(0))
	b.PrependUint64Slot(bufBegin, r.Begin, ^uint64(0))
	return b.EndObject()
}

func readBufferRange(t *flatbuffers.Table) BufferRange {
	var r BufferRange
	if o := rawOffset(t, bufBegin); o != 0 {
		r.Begin = t.GetUint64(o + t.Pos)
	}
	if o := rawOffset(t, bufEnd); o != 0 {
		r.End = t.GetUint64(o + t.Pos)
	}
	return r
}

// BuildLayoutNode recursively encodes n into b and returns the table
// offset.
func BuildLayoutNode(b *flatbuffers.Builder, n LayoutNode) flatbuffers.UOffsetT {
	childOffs := make([]flatbuffers.UOffsetT, len(n.Children))
	for i, c := range n.Children {
		childOffs[i] = BuildLayoutNode(b, c)
	}
	childrenVec := buildOffsetVector(b, childOffs)

	bufOffs := make([]flatbuffers.UOffsetT, len(n.Buffers))
	for i, r := range n.Buffers {
		bufOffs[i] = buildBufferRange(b, r)
	}
	buffersVec := buildOffsetVector(b, bufOffs)

	var metaOff flatbuffers.UOffsetT
	if len(n.Metadata) > 0 {
		metaOff = b.CreateByteVector(n.Metadata)
	}

	b.StartObject(5)
	if metaOff != 0 {
		b.PrependUOffsetTSlot(layMetadata, metaOff, 0)
	}
	b.PrependUint64Slot(layRowCount, n.RowCount, ^uint64(0))
	b.PrependUOffsetTSlot(layChildren, childrenVec, 0)
	b.PrependUOffsetTSlot(layBuffers, buffersVec, 0)
	b.PrependUint16Slot(layEncoding, n.Encoding, 0xFFFF)
	return b.EndObject()
}

// WriteLayout finishes a fresh builder with n as its root and returns
// the encoded bytes (the "Layout" message at layout_offset, spec.md §6).
func WriteLayout(n LayoutNode) []byte {
	b := flatbuffers.NewBuilder(512)
	off := BuildLayoutNode(b, n)
	return finishAt(b, off)
}

// ReadLayout decodes a Layout message rooted at byte offset off in buf.
func ReadLayout(buf []byte, off uint64) (LayoutNode, error) {
	t := newTable(buf, flatbuffers.UOffsetT(off))
	return readLayoutNode(t)
}

func readLayoutNode(t *flatbuffers.Table) (LayoutNode, error) {
	var n LayoutNode
	if o := rawOffset(t, layEncoding); o != 0 {
		n.Encoding = t.GetUint16(o + t.Pos)
	} else {
		return n, vxerr.New(vxerr.InvalidSerialization, "Layout message missing encoding")
	}
	if o := rawOffset(t, layRowCount); o != 0 {
		n.RowCount = t.GetUint64(o + t.Pos)
	}
	if o := rawOffset(t, layMetadata); o != 0 {
		n.Metadata = t.ByteVector(o + t.Pos)
	}
	if bo := rawOffset(t, layBuffers); bo != 0 {
		vecStart := t.Vector(bo + t.Pos)
		count := t.VectorLen(bo + t.Pos)
		n.Buffers = make([]BufferRange, count)
		for i := 0; i < count; i++ {
			elemOff := vecStart + flatbuffers.UOffsetT(i)*4
			elemOff = t.Indirect(elemOff)
			bt := &flatbuffers.Table{Bytes: t.Bytes, Pos: elemOff}
			n.Buffers[i] = readBufferRange(bt)
		}
	}
	if co := rawOffset(t, layChildren); co != 0 {
		vecStart := t.Vector(co + t.Pos)
		count := t.VectorLen(co + t.Pos)
		n.Children = make([]LayoutNode, count)
		for i := 0; i < count; i++ {
			elemOff := vecStart + flatbuffers.UOffsetT(i)*4
			elemOff = t.Indirect(elemOff)
			ct := &flatbuffers.Table{Bytes: t.Bytes, Pos: elemOff}
			child, err := readLayoutNode(ct)
			if err != nil {
				return n, err
			}
			n.Children[i] = child
		}
	}
	return n, nil
}
