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
	"fmt"

	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/Sweetlemon68/vortex/dtype"
	"github.com/Sweetlemon68/vortex/vxerr"
)

// DType field slots.
const (
	dtKind       = 0
	dtNullable   = 1
	dtPType      = 2
	dtNames      = 3
	dtChildren   = 4
	dtElem       = 5
	dtExtID      = 6
	dtExtStorage = 7
	dtExtMeta    = 8
)

// WriteSchema encodes dt as the root message of a fresh builder and
// returns the finished bytes -- this is the "Schema" message at
// schema_offset from spec.md §6.
func WriteSchema(dt dtype.DType) []byte {
	b := flatbuffers.NewBuilder(256)
	off := BuildDType(b, dt)
	return finishAt(b, off)
}

// BuildDType recursively encodes dt into b and returns the table
// offset, without finishing the builder. Used both for the top-level
// Schema message and for nested DTypes (Struct field types, List
// element types, Extension storage types).
func BuildDType(b *flatbuffers.Builder, dt dtype.DType) flatbuffers.UOffsetT {
	switch dt.Kind() {
	case dtype.KindStruct:
		names, children := dt.Fields()
		nameOffs := make([]flatbuffers.UOffsetT, len(names))
		for i, n := range names {
			nameOffs[i] = b.CreateString(n)
		}
		childOffs := make([]flatbuffers.UOffsetT, len(children))
		for i, c := range children {
			childOffs[i] = BuildDType(b, c)
		}
		namesVec := buildOffsetVector(b, nameOffs)
		childrenVec := buildOffsetVector(b, childOffs)
		b.StartObject(9)
		b.PrependUOffsetTSlot(dtChildren, childrenVec, 0)
		b.PrependUOffsetTSlot(dtNames, namesVec, 0)
		prependCommon(b, dt)
		return b.EndObject()
	case dtype.KindList:
		elemOff := BuildDType(b, dt.Elem())
		b.StartObject(9)
		b.PrependUOffsetTSlot(dtElem, elemOff, 0)
		prependCommon(b, dt)
		return b.EndObject()
	case dtype.KindExtension:
		id, storage, meta := dt.ExtensionInfo()
		idOff := b.CreateString(id)
		storageOff := BuildDType(b, storage)
		metaOff := b.CreateByteVector(meta)
		b.StartObject(9)
		b.PrependUOffsetTSlot(dtExtMeta, metaOff, 0)
		b.PrependUOffsetTSlot(dtExtStorage, storageOff, 0)
		b.PrependUOffsetTSlot(dtExtID, idOff, 0)
		prependCommon(b, dt)
		return b.EndObject()
	default:
		b.StartObject(9)
		prependCommon(b, dt)
		return b.EndObject()
	}
}

// prependCommon writes the kind/nullable/ptype slots shared by every
// DType variant. Must be called after any UOffsetT slots for the
// current object so that all child offsets referenced by earlier
// Prepend*Offset calls remain valid (flatbuffers objects must be
// built depth-first; scalar slot order within StartObject/EndObject
// does not matter).
func prependCommon(b *flatbuffers.Builder, dt dtype.DType) {
	b.PrependByteSlot(dtPType, ptypeByte(dt), 0xFF)
	b.PrependBoolSlot(dtNullable, dt.Nullable(), !dt.Nullable())
	b.PrependByteSlot(dtKind, byte(dt.Kind()), 0xFF)
}

func ptypeByte(dt dtype.DType) byte {
	if dt.Kind() != dtype.KindPrimitive {
		return 0xFF
	}
	return byte(dt.PType())
}

func buildOffsetVector(b *flatbuffers.Builder, offs []flatbuffers.UOffsetT) flatbuffers.UOffsetT {
	b.StartVector(4, len(offs), 4)
	for i := len(offs) - 1; i >= 0; i-- {
		b.PrependUOffsetT(offs[i])
	}
	return b.EndVector(len(offs))
}

// ReadSchema decodes a Schema message (spec.md §6) back into a
// dtype.DType.
func ReadSchema(buf []byte, off uint64) (dtype.DType, error) {
	t := newTable(buf, flatbuffers.UOffsetT(off))
	return readDType(t)
}

func readDType(t *flatbuffers.Table) (dtype.DType, error) {
	kindOff := rawOffset(t, dtKind)
	kind := dtype.Kind(0xFF)
	if kindOff != 0 {
		kind = dtype.Kind(t.GetByte(kindOff + t.Pos))
	}
	nullable := false
	if o := rawOffset(t, dtNullable); o != 0 {
		nullable = t.GetBool(o + t.Pos)
	}

	switch kind {
	case dtype.KindNull:
		return dtype.Null(), nil
	case dtype.KindBool:
		return dtype.Bool(nullable), nil
	case dtype.KindUtf8:
		return dtype.Utf8(nullable), nil
	case dtype.KindBinary:
		return dtype.Binary(nullable), nil
	case dtype.KindPrimitive:
		ptOff := rawOffset(t, dtPType)
		if ptOff == 0 {
			return dtype.DType{}, vxerr.New(vxerr.InvalidSerialization, "Primitive DType missing ptype")
		}
		pt := dtype.PType(t.GetByte(ptOff + t.Pos))
		return dtype.Primitive(pt, nullable), nil
	case dtype.KindStruct:
		names, err := readStringVector(t, dtNames)
		if err != nil {
			return dtype.DType{}, err
		}
		children, err := readDTypeVector(t, dtChildren)
		if err != nil {
			return dtype.DType{}, err
		}
		return dtype.Struct(names, children, nullable), nil
	case dtype.KindList:
		elemOff := fieldOffset(t, dtElem)
		if elemOff == 0 {
			return dtype.DType{}, vxerr.New(vxerr.InvalidSerialization, "List DType missing elem")
		}
		elemInd := t.Indirect(elemOff)
		elemTab := &flatbuffers.Table{Bytes: t.Bytes, Pos: elemInd}
		elem, err := readDType(elemTab)
		if err != nil {
			return dtype.DType{}, err
		}
		return dtype.List(elem, nullable), nil
	case dtype.KindExtension:
		idFieldOff := fieldOffset(t, dtExtID)
		if idFieldOff == 0 {
			return dtype.DType{}, vxerr.New(vxerr.InvalidSerialization, "Extension DType missing id")
		}
		id := t.String(idFieldOff)
		storageOff := fieldOffset(t, dtExtStorage)
		if storageOff == 0 {
			return dtype.DType{}, vxerr.New(vxerr.InvalidSerialization, "Extension DType missing storage")
		}
		storageInd := t.Indirect(storageOff)
		storageTab := &flatbuffers.Table{Bytes: t.Bytes, Pos: storageInd}
		storage, err := readDType(storageTab)
		if err != nil {
			return dtype.DType{}, err
		}
		var meta []byte
		if mo := rawOffset(t, dtExtMeta); mo != 0 {
			meta = t.ByteVector(mo + t.Pos)
		}
		return dtype.Extension(id, storage, meta, nullable), nil
	default:
		return dtype.DType{}, vxerr.New(vxerr.InvalidArrowType, "unrecognized DType kind tag %d", kind)
	}
}

func readStringVector(t *flatbuffers.Table, slot int) ([]string, error) {
	o := rawOffset(t, slot)
	if o == 0 {
		return nil, nil
	}
	vecStart := t.Vector(o + t.Pos)
	n := t.VectorLen(o + t.Pos)
	out := make([]string, n)
	for i := 0; i < n; i++ {
		// vector-of-strings elements are absolute slots whose value is a
		// relative offset to a length-prefixed byte buffer; Table.String
		// performs that indirection itself, so no manual Indirect here
		// (unlike vector-of-tables, where Indirect must be applied first).
		out[i] = t.String(vecStart + flatbuffers.UOffsetT(i)*4)
	}
	return out, nil
}

func readDTypeVector(t *flatbuffers.Table, slot int) ([]dtype.DType, error) {
	o := rawOffset(t, slot)
	if o == 0 {
		return nil, nil
	}
	vecStart := t.Vector(o + t.Pos)
	n := t.VectorLen(o + t.Pos)
	out := make([]dtype.DType, n)
	for i := 0; i < n; i++ {
		elemOff := vecStart + flatbuffers.UOffsetT(i)*4
		elemOff = t.Indirect(elemOff)
		childTab := &flatbuffers.Table{Bytes: t.Bytes, Pos: elemOff}
		d, err := readDType(childTab)
		if err != nil {
			return nil, fmt.Errorf("decoding child %d: %w", i, err)
		}
		out[i] = d
	}
	return out, nil
}
