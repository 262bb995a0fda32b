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

	"github.com/Sweetlemon68/vortex/dtype"
	"github.com/Sweetlemon68/vortex/vxerr"
)

const (
	arrEncoding    = 0
	arrMetadata    = 1
	arrStats       = 2
	arrHasBufIndex = 3
	arrBufIndex    = 4
	arrChildren    = 5
	arrCount       = 6
)

// ArrayNode is the decoded form of an Array message (spec.md §6):
// "{encoding: u16, metadata: [u8], stats: Stats?, buffer_index: u32?,
// children: [Array]}", extended with an explicit element Count (see
// DESIGN.md: spec.md's named fields give a decoder no way to recover
// how many elements a node holds or how many bytes its buffer
// occupies, and the bit-exact requirement of spec.md §6 binds only the
// Postscript/EndOfFile footer, not this message).
type ArrayNode struct {
	Encoding    uint16
	Metadata    []byte
	Stats       Stats
	HasStats    bool
	BufferIndex uint32
	HasBuffer   bool
	Count       uint32
	Children    []ArrayNode
}

// BuildArrayNodeInput is the write-side counterpart of ArrayNode,
// parameterized by the DType needed to encode Stats' tagged scalars.
type BuildArrayNodeInput struct {
	Encoding    uint16
	Metadata    []byte
	Stats       Stats
	HasStats    bool
	BufferIndex uint32
	HasBuffer   bool
	Count       uint32
	Children    []BuildArrayNodeInput
	ChildDTypes []dtype.DType
	DType       dtype.DType
}

// BuildArrayNode recursively encodes n into b and returns the table
// offset. Children are built first, depth-first, as flatbuffers
// requires.
func BuildArrayNode(b *flatbuffers.Builder, n BuildArrayNodeInput) flatbuffers.UOffsetT {
	childOffs := make([]flatbuffers.UOffsetT, len(n.Children))
	for i, c := range n.Children {
		childOffs[i] = BuildArrayNode(b, c)
	}
	childrenVec := buildOffsetVector(b, childOffs)

	var metaOff flatbuffers.UOffsetT
	if len(n.Metadata) > 0 {
		metaOff = b.CreateByteVector(n.Metadata)
	}
	var statsOff flatbuffers.UOffsetT
	if n.HasStats {
		statsOff = BuildStats(b, n.Stats, n.DType)
	}

	b.StartObject(7)
	b.PrependUOffsetTSlot(arrChildren, childrenVec, 0)
	b.PrependUint32Slot(arrCount, n.Count, ^uint32(0))
	if n.HasBuffer {
		b.PrependUint32Slot(arrBufIndex, n.BufferIndex, ^uint32(0))
	}
	b.PrependBoolSlot(arrHasBufIndex, n.HasBuffer, !n.HasBuffer)
	if statsOff != 0 {
		b.PrependUOffsetTSlot(arrStats, statsOff, 0)
	}
	if metaOff != 0 {
		b.PrependUOffsetTSlot(arrMetadata, metaOff, 0)
	}
	b.PrependUint16Slot(arrEncoding, n.Encoding, 0xFFFF)
	return b.EndObject()
}

// WriteArrayMessage finishes a fresh builder with n as its root and
// returns the encoded bytes (the flatbuffer portion of the "Array
// message" from spec.md §6; the length prefix and raw buffers are
// written separately by vxfile.Writer).
func WriteArrayMessage(n BuildArrayNodeInput) []byte {
	b := flatbuffers.NewBuilder(256)
	off := BuildArrayNode(b, n)
	return finishAt(b, off)
}

// ChildDTypeFunc resolves the DType of a child array given its
// parent's DType, wire encoding code, and metadata. An Array message
// carries no DType of its own (spec.md §3: "each child's dtype is
// implied by the parent encoding"), so ReadArrayMessage calls back
// into resolve at every level of the tree rather than only at the
// root; vxfile supplies an implementation backed by the decoding
// array.Context's encoding registry.
type ChildDTypeFunc func(parentDType dtype.DType, parentEncoding uint16, parentMetadata []byte, index int) dtype.DType

// ReadArrayMessage decodes an Array message rooted at byte offset off
// in buf. dt is the DType of the root node itself (taken from the
// Schema message); resolve is consulted for every child at every
// depth of the tree.
func ReadArrayMessage(buf []byte, off uint64, dt dtype.DType, resolve ChildDTypeFunc) (ArrayNode, error) {
	t := newTable(buf, flatbuffers.UOffsetT(off))
	return readArrayNode(t, dt, resolve)
}

func readArrayNode(t *flatbuffers.Table, dt dtype.DType, resolve ChildDTypeFunc) (ArrayNode, error) {
	var n ArrayNode
	if o := rawOffset(t, arrEncoding); o != 0 {
		n.Encoding = t.GetUint16(o + t.Pos)
	} else {
		return n, vxerr.New(vxerr.InvalidSerialization, "Array message missing encoding")
	}
	if o := rawOffset(t, arrMetadata); o != 0 {
		n.Metadata = t.ByteVector(o + t.Pos)
	}
	if o := rawOffset(t, arrCount); o != 0 {
		n.Count = t.GetUint32(o + t.Pos)
	}
	if o := rawOffset(t, arrHasBufIndex); o != 0 {
		n.HasBuffer = t.GetBool(o + t.Pos)
	}
	if n.HasBuffer {
		if o := rawOffset(t, arrBufIndex); o != 0 {
			n.BufferIndex = t.GetUint32(o + t.Pos)
		}
	}
	if so := fieldOffset(t, arrStats); so != 0 {
		statsInd := t.Indirect(so)
		statsTab := &flatbuffers.Table{Bytes: t.Bytes, Pos: statsInd}
		st, err := ReadStats(statsTab, dt)
		if err != nil {
			return n, err
		}
		n.Stats = st
		n.HasStats = true
	}
	if co := rawOffset(t, arrChildren); co != 0 {
		vecStart := t.Vector(co + t.Pos)
		count := t.VectorLen(co + t.Pos)
		n.Children = make([]ArrayNode, count)
		for i := 0; i < count; i++ {
			elemOff := vecStart + flatbuffers.UOffsetT(i)*4
			elemOff = t.Indirect(elemOff)
			childTab := &flatbuffers.Table{Bytes: t.Bytes, Pos: elemOff}
			cdt := dt
			if resolve != nil {
				cdt = resolve(dt, n.Encoding, n.Metadata, i)
			}
			child, err := readArrayNode(childTab, cdt, resolve)
			if err != nil {
				return n, err
			}
			n.Children[i] = child
		}
	}
	return n, nil
}
