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
	"math"

	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/Sweetlemon68/vortex/dtype"
	"github.com/Sweetlemon68/vortex/scalar"
	"github.com/Sweetlemon68/vortex/vxerr"
)

// Scalar value tags for the Stats message's tagged union
// (spec.md §6: "Primitive scalars in the Stats message use a tagged
// union; consumers reject unknown tags").
const (
	tagNull   byte = 0
	tagBool   byte = 1
	tagInt    byte = 2
	tagUint   byte = 3
	tagFloat  byte = 4
	tagBytes  byte = 5
	tagString byte = 6
)

const (
	statsHasMin      = 0
	statsMinTag      = 1
	statsMinBits     = 2
	statsMinBytes    = 3
	statsHasMax      = 4
	statsMaxTag      = 5
	statsMaxBits     = 6
	statsMaxBytes    = 7
	statsNullCount   = 8
	statsHasNullCnt  = 9
)

// Stats is the decoded form of the Stats message attached to an
// Array message (spec.md §6).
type Stats struct {
	Min       scalar.Scalar
	HasMin    bool
	Max       scalar.Scalar
	HasMax    bool
	NullCount uint64
	HasNulls  bool
}

// BuildStats encodes st into b and returns the table offset.
func BuildStats(b *flatbuffers.Builder, st Stats, dt dtype.DType) flatbuffers.UOffsetT {
	var minBytesOff, maxBytesOff flatbuffers.UOffsetT
	if st.HasMin {
		if buf, ok := scalarBytes(st.Min); ok {
			minBytesOff = b.CreateByteVector(buf)
		}
	}
	if st.HasMax {
		if buf, ok := scalarBytes(st.Max); ok {
			maxBytesOff = b.CreateByteVector(buf)
		}
	}
	b.StartObject(10)
	if st.HasNulls {
		b.PrependUint64Slot(statsNullCount, st.NullCount, ^uint64(0))
	}
	b.PrependBoolSlot(statsHasNullCnt, st.HasNulls, !st.HasNulls)
	if maxBytesOff != 0 {
		b.PrependUOffsetTSlot(statsMaxBytes, maxBytesOff, 0)
	}
	if st.HasMax {
		b.PrependUint64Slot(statsMaxBits, scalarBits(st.Max), 0)
		b.PrependByteSlot(statsMaxTag, scalarTag(st.Max), 0xFF)
	}
	b.PrependBoolSlot(statsHasMax, st.HasMax, !st.HasMax)
	if minBytesOff != 0 {
		b.PrependUOffsetTSlot(statsMinBytes, minBytesOff, 0)
	}
	if st.HasMin {
		b.PrependUint64Slot(statsMinBits, scalarBits(st.Min), 0)
		b.PrependByteSlot(statsMinTag, scalarTag(st.Min), 0xFF)
	}
	b.PrependBoolSlot(statsHasMin, st.HasMin, !st.HasMin)
	return b.EndObject()
}

// ReadStats decodes a Stats table given the DType the min/max scalars
// belong to (needed to reconstruct a typed scalar.Scalar from the raw
// tagged bits).
func ReadStats(t *flatbuffers.Table, dt dtype.DType) (Stats, error) {
	var st Stats
	if o := rawOffset(t, statsHasMin); o != 0 {
		st.HasMin = t.GetBool(o + t.Pos)
	}
	if o := rawOffset(t, statsHasMax); o != 0 {
		st.HasMax = t.GetBool(o + t.Pos)
	}
	if o := rawOffset(t, statsHasNullCnt); o != 0 {
		st.HasNulls = t.GetBool(o + t.Pos)
	}
	if st.HasNulls {
		if o := rawOffset(t, statsNullCount); o != 0 {
			st.NullCount = t.GetUint64(o + t.Pos)
		}
	}
	if st.HasMin {
		min, err := readScalarValue(t, dt, statsMinTag, statsMinBits, statsMinBytes)
		if err != nil {
			return Stats{}, err
		}
		st.Min = min
	}
	if st.HasMax {
		max, err := readScalarValue(t, dt, statsMaxTag, statsMaxBits, statsMaxBytes)
		if err != nil {
			return Stats{}, err
		}
		st.Max = max
	}
	return st, nil
}

func readScalarValue(t *flatbuffers.Table, dt dtype.DType, tagSlot, bitsSlot, bytesSlot int) (scalar.Scalar, error) {
	tagOff := rawOffset(t, tagSlot)
	if tagOff == 0 {
		return scalar.Scalar{}, vxerr.New(vxerr.InvalidSerialization, "Stats value missing tag")
	}
	tag := t.GetByte(tagOff + t.Pos)
	switch tag {
	case tagNull:
		return scalar.Null(dt), nil
	case tagBool:
		return scalar.Bool(t.GetUint64(rawOffset(t, bitsSlot)+t.Pos) != 0, dt.Nullable()), nil
	case tagInt:
		return scalar.Int(dt.PType(), int64(t.GetUint64(rawOffset(t, bitsSlot)+t.Pos)), dt.Nullable()), nil
	case tagUint:
		return scalar.Uint(dt.PType(), t.GetUint64(rawOffset(t, bitsSlot)+t.Pos), dt.Nullable()), nil
	case tagFloat:
		bits := t.GetUint64(rawOffset(t, bitsSlot) + t.Pos)
		if dt.Kind() == dtype.KindPrimitive && dt.PType() == dtype.F32 {
			return scalar.Float(dtype.F32, float64(math.Float32frombits(uint32(bits))), dt.Nullable()), nil
		}
		return scalar.Float(dtype.F64, math.Float64frombits(bits), dt.Nullable()), nil
	case tagBytes:
		bo := rawOffset(t, bytesSlot)
		var buf []byte
		if bo != 0 {
			buf = t.ByteVector(bo + t.Pos)
		}
		return scalar.Buffer(buf, dt.Nullable()), nil
	case tagString:
		bo := rawOffset(t, bytesSlot)
		var buf []byte
		if bo != 0 {
			buf = t.ByteVector(bo + t.Pos)
		}
		return scalar.BufferString(string(buf), dt.Nullable()), nil
	default:
		return scalar.Scalar{}, vxerr.New(vxerr.InvalidSerialization, "unknown Stats value tag %d", tag)
	}
}

func scalarTag(s scalar.Scalar) byte {
	if s.IsNull() {
		return tagNull
	}
	switch s.DType().Kind() {
	case dtype.KindBool:
		return tagBool
	case dtype.KindPrimitive:
		if s.DType().PType().IsSigned() {
			return tagInt
		}
		if s.DType().PType().IsUnsigned() {
			return tagUint
		}
		return tagFloat
	case dtype.KindBinary:
		return tagBytes
	case dtype.KindUtf8:
		return tagString
	}
	return tagNull
}

func scalarBits(s scalar.Scalar) uint64 {
	switch scalarTag(s) {
	case tagBool:
		if s.Bool() {
			return 1
		}
		return 0
	case tagInt:
		return uint64(s.Int())
	case tagUint:
		return s.Uint()
	case tagFloat:
		if s.DType().PType() == dtype.F32 {
			return uint64(math.Float32bits(float32(s.Float())))
		}
		return math.Float64bits(s.Float())
	}
	return 0
}

func scalarBytes(s scalar.Scalar) ([]byte, bool) {
	switch scalarTag(s) {
	case tagBytes, tagString:
		return s.Buffer(), true
	}
	return nil, false
}
