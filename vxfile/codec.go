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

	"github.com/Sweetlemon68/vortex/array"
	"github.com/Sweetlemon68/vortex/array/varbinview"
	"github.com/Sweetlemon68/vortex/buffer"
	"github.com/Sweetlemon68/vortex/dtype"
	"github.com/Sweetlemon68/vortex/genfb"
	"github.com/Sweetlemon68/vortex/vxerr"
)

func contextOf(a array.Array) *array.Context {
	type contextHaver interface{ Context() *array.Context }
	return a.(contextHaver).Context()
}

// encodeArrayNode walks a in post-order, returning its wire form and
// the ordered list of every raw buffer in the subtree (descendants'
// buffers first, this node's own buffer last, matching the order
// BufferIndex values are assigned in). Writer writes one field's
// buffers, in this order, after that field's Array message.
func encodeArrayNode(a array.Array) (genfb.BuildArrayNodeInput, [][]byte, error) {
	ctx := contextOf(a)
	n := a.NChildren()
	children := make([]genfb.BuildArrayNodeInput, n)
	var bufs [][]byte
	for i := 0; i < n; i++ {
		ci, cbufs, err := encodeArrayNode(a.Child(i))
		if err != nil {
			return genfb.BuildArrayNodeInput{}, nil, err
		}
		children[i] = ci
		bufs = append(bufs, cbufs...)
	}
	code, ok := ctx.Code(a.Encoding().ID())
	if !ok {
		return genfb.BuildArrayNodeInput{}, nil, vxerr.New(vxerr.UnknownEncoding, "vxfile: encoding %q is not registered in the writer's context", a.Encoding().ID())
	}
	in := genfb.BuildArrayNodeInput{
		Encoding: code,
		Metadata: a.Metadata(),
		Count:    uint32(a.Len()),
		Children: children,
	}
	if a.HasBuffer() {
		in.HasBuffer = true
		in.BufferIndex = uint32(len(bufs))
		bufs = append(bufs, a.Buffer().Bytes())
	}
	return in, bufs, nil
}

// bufferLength computes the byte length of enc's own buffer from its
// element Count and, where the rule needs it, its already-decoded
// children (see DESIGN.md: the Array message's Count field is the
// extension that makes this computable at decode time without
// re-deriving it from row_count, which Sparse's variable-length
// patch children cannot do).
func bufferLength(enc array.Encoding, dt dtype.DType, count uint32, children []array.Array) (int64, error) {
	switch enc.ID() {
	case array.IDPrimitive:
		return int64(count) * int64(dt.PType().ByteWidth()), nil
	case array.IDBool:
		return int64((count + 7) / 8), nil
	case array.IDVarBin:
		if len(children) == 0 {
			return 0, vxerr.New(vxerr.InvalidSerialization, "vxfile: varbin array missing offsets child")
		}
		offsets := children[0]
		if offsets.Len() == 0 {
			return 0, nil
		}
		last, err := array.ScalarAt(offsets, offsets.Len()-1)
		if err != nil {
			return 0, err
		}
		return last.Int(), nil
	case varbinview.ID:
		return int64(count) * 16, nil
	default:
		return 0, vxerr.New(vxerr.InvalidSerialization, "vxfile: encoding %q declares a buffer but has no known buffer-length rule", enc.ID())
	}
}

// decodeArrayNode is the read-side mirror of encodeArrayNode: it walks
// a decoded genfb.ArrayNode tree together with the root dtype,
// re-deriving each child's dtype via ChildDTypeEncoding the same way
// genfb.ReadArrayMessage did internally, and slices cursor-advancing
// zero-copy buffer.Buffer views out of blob as it goes. cursor is an
// absolute file position (needed because buffer alignment is computed
// against absolute, not blob-relative, offsets); blobAbsBegin is the
// field blob's absolute starting file offset.
func decodeArrayNode(ctx *array.Context, node genfb.ArrayNode, dt dtype.DType, blob []byte, blobAbsBegin int64, cursor *int64, compressed bool) (array.Array, error) {
	enc := ctx.Lookup(node.Encoding)
	children := make([]array.Array, len(node.Children))
	for i, cn := range node.Children {
		cdt := dt
		if cde, ok := enc.(array.ChildDTypeEncoding); ok {
			cdt = cde.ChildDType(dt, node.Metadata, i)
		}
		c, err := decodeArrayNode(ctx, cn, cdt, blob, blobAbsBegin, cursor, compressed)
		if err != nil {
			return nil, err
		}
		children[i] = c
	}
	var bufPtr *buffer.Buffer
	if node.HasBuffer {
		length, err := bufferLength(enc, dt, node.Count, children)
		if err != nil {
			return nil, err
		}
		*cursor += padTo64(*cursor)
		start := *cursor - blobAbsBegin
		if start < 0 || start > int64(len(blob)) {
			return nil, vxerr.New(vxerr.InvalidSerialization, "vxfile: buffer start %d falls outside its field blob (len %d)", start, len(blob))
		}
		if compressed {
			decoded, consumed, err := decompressBuffer(blob[start:], length)
			if err != nil {
				return nil, err
			}
			b := buffer.New(decoded, bufferAlign)
			bufPtr = &b
			*cursor += consumed
		} else {
			end := start + length
			if end > int64(len(blob)) {
				return nil, vxerr.New(vxerr.InvalidSerialization, "vxfile: buffer [%d, %d) falls outside its field blob (len %d)", start, end, len(blob))
			}
			b := buffer.New(blob[start:end], bufferAlign)
			bufPtr = &b
			*cursor += length
		}
	}
	return array.NewViewed(ctx, enc, dt, int(node.Count), node.Metadata, bufPtr, children), nil
}

// decodeFieldBlob decodes one field's complete Flat buffer (spec.md §6:
// "u32 flatbuffer length | flatbuffer(Array) | padding | raw data
// buffer(s)") into an ArrayView, given the field's DType and the
// blob's absolute file starting offset (needed to replay the writer's
// 64-byte alignment decisions).
func decodeFieldBlob(ctx *array.Context, dt dtype.DType, blob []byte, blobAbsBegin int64, compressed bool) (array.Array, error) {
	if len(blob) < 4 {
		return nil, vxerr.New(vxerr.InvalidSerialization, "vxfile: field blob too short to hold an Array message length prefix")
	}
	fbLen := int64(binary.LittleEndian.Uint32(blob[0:4]))
	if 4+fbLen > int64(len(blob)) {
		return nil, vxerr.New(vxerr.InvalidSerialization, "vxfile: Array message length %d exceeds blob size %d", fbLen, len(blob))
	}
	fbBytes := blob[4 : 4+fbLen]
	root, err := genfb.ReadArrayMessage(fbBytes, 0, dt, childDTypeFunc(ctx))
	if err != nil {
		return nil, err
	}
	cursor := blobAbsBegin + 4 + fbLen
	return decodeArrayNode(ctx, root, dt, blob, blobAbsBegin, &cursor, compressed)
}

// childDTypeFunc adapts a Context's encoding registry into the
// genfb.ChildDTypeFunc callback ReadArrayMessage threads through every
// level of an Array message tree.
func childDTypeFunc(ctx *array.Context) genfb.ChildDTypeFunc {
	return func(parentDType dtype.DType, parentEncoding uint16, parentMetadata []byte, index int) dtype.DType {
		enc := ctx.Lookup(parentEncoding)
		if cde, ok := enc.(array.ChildDTypeEncoding); ok {
			return cde.ChildDType(parentDType, parentMetadata, index)
		}
		return parentDType
	}
}

