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

package sparse

import (
	"encoding/binary"
	"math"

	"github.com/Sweetlemon68/vortex/array"
	"github.com/Sweetlemon68/vortex/dtype"
	"github.com/Sweetlemon68/vortex/scalar"
	"github.com/Sweetlemon68/vortex/vxerr"
)

// fill scalar tags for the metadata blob's tiny tagged encoding
// (narrower than genfb's Stats tagging since Sparse's metadata never
// needs struct/list fills -- patches only ever replace scalar leaves).
const (
	tagNull byte = 0
	tagBool byte = 1
	tagNum  byte = 2
	tagStr  byte = 3
)

// New constructs a Sparse array: idx (strictly ascending, in [0,
// length)) names the positions where values differs from fill; every
// other position reads as fill. idx and values must have the same
// length.
func New(ctx *array.Context, idx []int64, values array.Array, fill scalar.Scalar, length int) (*array.ArrayData, error) {
	if len(idx) != values.Len() {
		return nil, vxerr.New(vxerr.InvalidRange, "sparse: indices length %d does not match values length %d", len(idx), values.Len())
	}
	for i := 1; i < len(idx); i++ {
		if idx[i] <= idx[i-1] {
			return nil, vxerr.New(vxerr.InvalidMetadata, "sparse: indices must be strictly ascending")
		}
	}
	for _, i := range idx {
		if i < 0 || int(i) >= length {
			return nil, vxerr.New(vxerr.OutOfBounds, "sparse: index %d out of range [0, %d)", i, length)
		}
	}
	indicesArr := array.NewPrimitiveI64(ctx, idx)
	meta, err := encodeFill(fill)
	if err != nil {
		return nil, err
	}
	return array.NewOwned(ctx, Encoding{}, values.DType(), length, meta, nil, []array.Array{indicesArr, values}), nil
}

func encodeFill(fill scalar.Scalar) ([]byte, error) {
	if fill.IsNull() {
		return []byte{tagNull}, nil
	}
	switch fill.DType().Kind() {
	case dtype.KindBool:
		b := byte(0)
		if fill.Bool() {
			b = 1
		}
		return []byte{tagBool, b}, nil
	case dtype.KindPrimitive:
		buf := make([]byte, 9)
		buf[0] = tagNum
		binary.LittleEndian.PutUint64(buf[1:], bitsOf(fill))
		return buf, nil
	case dtype.KindUtf8, dtype.KindBinary:
		raw := fill.Buffer()
		buf := make([]byte, 1+len(raw))
		buf[0] = tagStr
		copy(buf[1:], raw)
		return buf, nil
	}
	return nil, vxerr.New(vxerr.TypeMismatch, "sparse: unsupported fill dtype %s", fill.DType())
}

func decodeFill(meta []byte, dt dtype.DType) (scalar.Scalar, error) {
	if len(meta) == 0 {
		return scalar.Scalar{}, vxerr.New(vxerr.InvalidMetadata, "sparse: missing fill metadata")
	}
	switch meta[0] {
	case tagNull:
		return scalar.Null(dt.WithNullable(true)), nil
	case tagBool:
		return scalar.Bool(meta[1] != 0, dt.Nullable()), nil
	case tagNum:
		bits := binary.LittleEndian.Uint64(meta[1:9])
		return scalarFromBits(dt.PType(), bits, dt.Nullable()), nil
	case tagStr:
		if dt.Kind() == dtype.KindUtf8 {
			return scalar.BufferString(string(meta[1:]), dt.Nullable()), nil
		}
		return scalar.Buffer(meta[1:], dt.Nullable()), nil
	}
	return scalar.Scalar{}, vxerr.New(vxerr.InvalidMetadata, "sparse: unknown fill tag %d", meta[0])
}

func bitsOf(s scalar.Scalar) uint64 {
	pt := s.DType().PType()
	switch {
	case pt.IsSigned():
		return uint64(s.Int())
	case pt.IsUnsigned():
		return s.Uint()
	case pt == dtype.F16:
		return uint64(s.F16Bits())
	case pt == dtype.F32:
		return uint64(math.Float32bits(float32(s.Float())))
	default:
		return math.Float64bits(s.Float())
	}
}

func scalarFromBits(pt dtype.PType, bits uint64, nullable bool) scalar.Scalar {
	switch {
	case pt.IsSigned():
		var v int64
		switch pt.ByteWidth() {
		case 1:
			v = int64(int8(bits))
		case 2:
			v = int64(int16(bits))
		case 4:
			v = int64(int32(bits))
		default:
			v = int64(bits)
		}
		return scalar.Int(pt, v, nullable)
	case pt.IsUnsigned():
		return scalar.Uint(pt, bits, nullable)
	case pt == dtype.F16:
		return scalar.F16Bits(uint16(bits), nullable)
	case pt == dtype.F32:
		return scalar.Float(pt, float64(math.Float32frombits(uint32(bits))), nullable)
	default:
		return scalar.Float(pt, math.Float64frombits(bits), nullable)
	}
}

func floatBits(pt dtype.PType, v float64) uint64 {
	if pt == dtype.F32 {
		return uint64(math.Float32bits(float32(v)))
	}
	return math.Float64bits(v)
}
