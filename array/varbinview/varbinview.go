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

// Package varbinview implements the VarBinView encoding (spec.md
// §4.5): Utf8/Binary values stored as 16-byte inline-or-reference view
// words over a set of shared data buffers, the second of the two
// encodings the spec singles out as representative of a pluggable,
// non-canonical encoding (the other is array/sparse).
package varbinview

import (
	"encoding/binary"

	"github.com/Sweetlemon68/vortex/array"
	"github.com/Sweetlemon68/vortex/dtype"
	"github.com/Sweetlemon68/vortex/scalar"
	"github.com/Sweetlemon68/vortex/vxerr"
)

// ID is the stable encoding identifier VarBinView registers under.
const ID = "vortex.varbinview"

const viewWidth = 16
const inlineMax = 12

// view is the decoded form of one 16-byte view word (spec.md §4.5).
type view struct {
	size        uint32
	inline      [12]byte
	prefix      [4]byte
	bufferIndex uint32
	offset      uint32
}

func (v view) isInline() bool { return v.size <= inlineMax }

func decodeView(word []byte) view {
	var v view
	v.size = binary.LittleEndian.Uint32(word[0:4])
	if v.isInline() {
		copy(v.inline[:], word[4:16])
		return v
	}
	copy(v.prefix[:], word[4:8])
	v.bufferIndex = binary.LittleEndian.Uint32(word[8:12])
	v.offset = binary.LittleEndian.Uint32(word[12:16])
	return v
}

func encodeView(v view) [viewWidth]byte {
	var word [viewWidth]byte
	binary.LittleEndian.PutUint32(word[0:4], v.size)
	if v.isInline() {
		copy(word[4:16], v.inline[:])
		return word
	}
	copy(word[4:8], v.prefix[:])
	binary.LittleEndian.PutUint32(word[8:12], v.bufferIndex)
	binary.LittleEndian.PutUint32(word[12:16], v.offset)
	return word
}

// Encoding implements array.Encoding for VarBinView.
type Encoding struct{}

func (Encoding) ID() string { return ID }

// ChildDType reports the dtype of VarBinView's children: the leading
// numDataBuffers children are non-nullable U8 primitive data buffers,
// and the optional trailing child (present when metadata[0] tags
// ArrayValidity) is Bool. Neither matches the "children inherit the
// parent dtype" default, so VarBinView must implement
// array.ChildDTypeEncoding for the wire decoder to type them.
func (Encoding) ChildDType(parent dtype.DType, metadata []byte, index int) dtype.DType {
	k := 0
	if len(metadata) >= 2 {
		k = int(metadata[1])
	}
	if index < k {
		return dtype.Primitive(dtype.U8, false)
	}
	return dtype.Bool(false)
}

func (Encoding) Canonicalize(a array.Array) (array.Canonical, error) {
	n := a.Len()
	isUtf8 := a.DType().Kind() == dtype.KindUtf8
	nullable := a.DType().Nullable()
	valid, err := validMask(a)
	if err != nil {
		return nil, err
	}
	ctx := ctxOf(a)
	if isUtf8 {
		strs := make([]string, n)
		for i := 0; i < n; i++ {
			if !valid[i] {
				continue
			}
			payload, err := payloadAt(a, i)
			if err != nil {
				return nil, err
			}
			strs[i] = string(payload)
		}
		return array.NewUtf8(ctx, strs, valid, nullable)
	}
	bufs := make([][]byte, n)
	for i := 0; i < n; i++ {
		if !valid[i] {
			continue
		}
		payload, err := payloadAt(a, i)
		if err != nil {
			return nil, err
		}
		bufs[i] = payload
	}
	return array.NewBinary(ctx, bufs, valid, nullable)
}

func (Encoding) ScalarAt(a array.Array, index int) (scalar.Scalar, error) {
	valid, err := validMask(a)
	if err != nil {
		return scalar.Scalar{}, err
	}
	isUtf8 := a.DType().Kind() == dtype.KindUtf8
	nullable := a.DType().Nullable()
	if !valid[index] {
		if isUtf8 {
			return scalar.Null(dtype.Utf8(true)), nil
		}
		return scalar.Null(dtype.Binary(true)), nil
	}
	payload, err := payloadAt(a, index)
	if err != nil {
		return scalar.Scalar{}, err
	}
	if isUtf8 {
		return scalar.BufferString(string(payload), nullable), nil
	}
	return scalar.Buffer(payload, nullable), nil
}

// Slice shares the data children untouched and narrows only the views
// buffer's byte range, an O(1) operation per spec.md §4.5.
func (Encoding) Slice(a array.Array, start, end int) (array.Array, error) {
	views := a.Buffer().Slice(start*viewWidth, end*viewWidth)
	k := numDataBuffers(a)
	dataChildren := make([]array.Array, k)
	for i := 0; i < k; i++ {
		dataChildren[i] = a.Child(i)
	}
	v, err := validity(a)
	if err != nil {
		return nil, err
	}
	vs, err := v.Slice(start, end)
	if err != nil {
		return nil, err
	}
	return build(ctxOf(a), a.DType(), views, dataChildren, vs, end-start), nil
}

func payloadAt(a array.Array, index int) ([]byte, error) {
	word := a.Buffer().Bytes()[index*viewWidth : (index+1)*viewWidth]
	v := decodeView(word)
	if v.isInline() {
		return v.inline[:v.size], nil
	}
	if int(v.bufferIndex) >= numDataBuffers(a) {
		return nil, vxerr.New(vxerr.InvalidSerialization, "varbinview: buffer_index %d out of range", v.bufferIndex)
	}
	data := a.Child(int(v.bufferIndex)).Buffer().Bytes()
	end := v.offset + v.size
	if uint64(end) > uint64(len(data)) {
		return nil, vxerr.New(vxerr.InvalidSerialization, "varbinview: reference view out of range")
	}
	return data[v.offset:end], nil
}

func numDataBuffers(a array.Array) int {
	if len(a.Metadata()) < 2 {
		return 0
	}
	return int(a.Metadata()[1])
}

func validity(a array.Array) (array.Validity, error) {
	if len(a.Metadata()) == 0 {
		return array.Validity{Kind: array.NonNullable}, nil
	}
	tag := a.Metadata()[0]
	if tag > byte(array.ArrayValidity) {
		return array.Validity{}, vxerr.New(vxerr.InvalidMetadata, "varbinview: invalid validity tag %d", tag)
	}
	kind := array.ValidityKind(tag)
	if kind != array.ArrayValidity {
		return array.Validity{Kind: kind}, nil
	}
	k := numDataBuffers(a)
	if a.NChildren() <= k {
		return array.Validity{}, vxerr.New(vxerr.InvalidSerialization, "varbinview: validity tag requires a trailing validity child")
	}
	return array.Validity{Kind: array.ArrayValidity, Arr: a.Child(k)}, nil
}

func validMask(a array.Array) ([]bool, error) {
	v, err := validity(a)
	if err != nil {
		return nil, err
	}
	n := a.Len()
	out := make([]bool, n)
	for i := 0; i < n; i++ {
		ok, err := v.IsValid(i)
		if err != nil {
			return nil, err
		}
		out[i] = ok
	}
	return out, nil
}

func ctxOf(a array.Array) *array.Context {
	type contextHaver interface{ Context() *array.Context }
	return a.(contextHaver).Context()
}
