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

package varbinview

import (
	"github.com/Sweetlemon68/vortex/array"
	"github.com/Sweetlemon68/vortex/buffer"
	"github.com/Sweetlemon68/vortex/dtype"
)

func build(ctx *array.Context, dt dtype.DType, views buffer.Buffer, dataChildren []array.Array, v array.Validity, n int) *array.ArrayData {
	meta := []byte{byte(v.Kind), byte(len(dataChildren))}
	children := append([]array.Array(nil), dataChildren...)
	if v.Kind == array.ArrayValidity {
		children = append(children, v.Arr)
	}
	return array.NewOwned(ctx, Encoding{}, dt, n, meta, &views, children)
}

func validityOf(ctx *array.Context, valid []bool, nullable bool) array.Validity {
	if !nullable {
		return array.Validity{Kind: array.NonNullable}
	}
	allValid, allInvalid := true, true
	for _, v := range valid {
		if v {
			allInvalid = false
		} else {
			allValid = false
		}
	}
	switch {
	case allValid:
		return array.Validity{Kind: array.AllValid}
	case allInvalid:
		return array.Validity{Kind: array.AllInvalid}
	}
	boolArr, _ := array.NewBool(ctx, valid, nil, false)
	return array.Validity{Kind: array.ArrayValidity, Arr: boolArr}
}

// newViews is the shared tail of NewUtf8/NewBinary: every payload longer
// than 12 bytes is appended to a single shared data buffer
// (buffer_index always 0), matching the round-trip scenario in
// spec.md §8.
func newViews(ctx *array.Context, kind dtype.Kind, payloads [][]byte, valid []bool, nullable bool) *array.ArrayData {
	n := len(payloads)
	var dataBuf []byte
	words := make([]byte, n*viewWidth)
	for i, p := range payloads {
		var v view
		v.size = uint32(len(p))
		if v.isInline() {
			copy(v.inline[:], p)
		} else {
			copy(v.prefix[:], p[:4])
			v.bufferIndex = 0
			v.offset = uint32(len(dataBuf))
			dataBuf = append(dataBuf, p...)
		}
		w := encodeView(v)
		copy(words[i*viewWidth:], w[:])
	}
	viewsBuf := buffer.New(words, 8)
	dataArr, _ := array.NewPrimitive(ctx, dtype.U8, dataBuf, len(dataBuf), nil, false)
	var dt dtype.DType
	if kind == dtype.KindUtf8 {
		dt = dtype.Utf8(nullable)
	} else {
		dt = dtype.Binary(nullable)
	}
	vs := validityOf(ctx, valid, nullable)
	return build(ctx, dt, viewsBuf, []array.Array{dataArr}, vs, n)
}

// NewUtf8 constructs a VarBinView array of Utf8 values.
func NewUtf8(ctx *array.Context, values []string, valid []bool, nullable bool) *array.ArrayData {
	payloads := make([][]byte, len(values))
	for i, v := range values {
		payloads[i] = []byte(v)
	}
	return newViews(ctx, dtype.KindUtf8, payloads, valid, nullable)
}

// NewBinary constructs a VarBinView array of Binary values.
func NewBinary(ctx *array.Context, values [][]byte, valid []bool, nullable bool) *array.ArrayData {
	return newViews(ctx, dtype.KindBinary, values, valid, nullable)
}
