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

// Package sparse implements the Sparse encoding (spec.md §4.4): a
// compressed representation of an array that is mostly one repeated
// fill value, storing only the positions and values that differ.
//
// Sparse is one of the two encodings the spec singles out as
// "representative" of a pluggable, non-canonical encoding (the other
// is array/varbinview); it is registered into an array.Context
// explicitly by callers rather than being wired into the canonical
// fallback chain.
package sparse

import (
	"sort"

	"github.com/Sweetlemon68/vortex/array"
	"github.com/Sweetlemon68/vortex/dtype"
	"github.com/Sweetlemon68/vortex/scalar"
	"github.com/Sweetlemon68/vortex/vxerr"
)

// ID is the stable encoding identifier Sparse registers under.
const ID = "vortex.sparse"

// takeHashThreshold is the indices length above which Take builds a
// position hash map rather than binary-searching per requested index,
// mirroring spec.md §4.4's two take strategies.
const takeHashThreshold = 128

// Encoding implements array.Encoding for the Sparse representation.
// It carries no state itself; every array built with it stores its
// own indices/values/fill/length as children and metadata, the same
// generic-node discipline the canonical encodings use.
type Encoding struct{}

func (Encoding) ID() string { return ID }

// ChildDType reports the dtype of Sparse's two children: the int64
// index child at 0, the parent-element-dtype values child at 1. This
// differs from the default "children inherit the parent dtype"
// convention, so Sparse must implement array.ChildDTypeEncoding for
// the wire decoder to type its children correctly.
func (Encoding) ChildDType(parent dtype.DType, metadata []byte, index int) dtype.DType {
	if index == 0 {
		return dtype.Primitive(dtype.I64, false)
	}
	return parent
}

// Canonicalize expands a Sparse array into its Primitive/Bool/VarBin/
// etc. canonical form by materializing fill everywhere and overlaying
// values at indices.
func (Encoding) Canonicalize(a array.Array) (array.Canonical, error) {
	n := a.Len()
	idx, vals, fill, err := unpack(a)
	if err != nil {
		return nil, err
	}
	out := make([]scalar.Scalar, n)
	for i := range out {
		out[i] = fill
	}
	for i, pos := range idx {
		v, err := array.ScalarAt(vals, i)
		if err != nil {
			return nil, err
		}
		out[pos] = v
	}
	return canonicalizeScalars(ctxOf(a), a.DType(), out)
}

func (Encoding) ScalarAt(a array.Array, index int) (scalar.Scalar, error) {
	idx, vals, fill, err := unpack(a)
	if err != nil {
		return scalar.Scalar{}, err
	}
	// The last patch at index wins, as in Canonicalize.
	pos := sort.Search(len(idx), func(i int) bool { return idx[i] > index })
	if pos > 0 && idx[pos-1] == index {
		return array.ScalarAt(vals, pos-1)
	}
	return fill, nil
}

func (Encoding) Slice(a array.Array, start, end int) (array.Array, error) {
	idx, vals, fill, err := unpack(a)
	if err != nil {
		return nil, err
	}
	lo := sort.Search(len(idx), func(i int) bool { return idx[i] >= start })
	hi := sort.Search(len(idx), func(i int) bool { return idx[i] >= end })
	newIdx := make([]int64, hi-lo)
	for i := lo; i < hi; i++ {
		newIdx[i-lo] = int64(idx[i] - start)
	}
	slicedVals, err := array.Slice(vals, lo, hi)
	if err != nil {
		return nil, err
	}
	return New(ctxOf(a), newIdx, slicedVals, fill, end-start)
}

func (Encoding) Take(a array.Array, indices array.Array, skipBoundsCheck bool) (array.Array, error) {
	idx, vals, fill, err := unpack(a)
	if err != nil {
		return nil, err
	}
	n := indices.Len()
	var posOf map[int]int
	if n > takeHashThreshold {
		posOf = make(map[int]int, len(idx))
		for i, v := range idx {
			posOf[v] = i
		}
	}
	var newIdx []int64
	var gather []int64
	for i := 0; i < n; i++ {
		iv, err := array.ScalarAt(indices, i)
		if err != nil {
			return nil, err
		}
		reqIdx := int(asInt(iv))
		var pos int
		found := false
		if posOf != nil {
			pos, found = posOf[reqIdx]
		} else {
			j := sort.Search(len(idx), func(k int) bool { return idx[k] >= reqIdx })
			if j < len(idx) && idx[j] == reqIdx {
				pos, found = j, true
			}
		}
		if found {
			newIdx = append(newIdx, int64(i))
			gather = append(gather, int64(pos))
		}
	}
	gatherArr := array.NewPrimitiveI64(ctxOf(a), gather)
	newVals, err := array.Take(vals, gatherArr, true)
	if err != nil {
		return nil, err
	}
	return New(ctxOf(a), newIdx, newVals, fill, n)
}

// unpack pulls the indices/values/fill triple out of a Sparse node's
// children and metadata.
func unpack(a array.Array) (idx []int, vals array.Array, fill scalar.Scalar, err error) {
	if a.NChildren() != 2 {
		return nil, nil, scalar.Scalar{}, vxerr.New(vxerr.InvalidSerialization, "sparse array: expected 2 children, got %d", a.NChildren())
	}
	indicesArr := a.Child(0)
	vals = a.Child(1)
	idx = make([]int, indicesArr.Len())
	for i := range idx {
		iv, err := array.ScalarAt(indicesArr, i)
		if err != nil {
			return nil, nil, scalar.Scalar{}, err
		}
		idx[i] = int(asInt(iv))
	}
	fill, err = decodeFill(a.Metadata(), a.DType())
	return idx, vals, fill, err
}

func asInt(s scalar.Scalar) int64 {
	if s.DType().PType().IsSigned() {
		return s.Int()
	}
	return int64(s.Uint())
}

func ctxOf(a array.Array) *array.Context {
	type contextHaver interface{ Context() *array.Context }
	return a.(contextHaver).Context()
}

// canonicalizeScalars builds a canonical array from a plain slice of
// already-materialized scalars; it is the shared tail of Canonicalize
// for every element DType Sparse might wrap.
func canonicalizeScalars(ctx *array.Context, dt dtype.DType, values []scalar.Scalar) (array.Canonical, error) {
	n := len(values)
	nullable := dt.Nullable()
	switch dt.Kind() {
	case dtype.KindBool:
		bits := make([]bool, n)
		valid := make([]bool, n)
		for i, v := range values {
			valid[i] = !v.IsNull()
			if valid[i] {
				bits[i] = v.Bool()
			}
		}
		return array.NewBool(ctx, bits, valid, nullable)
	case dtype.KindPrimitive:
		pt := dt.PType()
		raw := make([]byte, n*pt.ByteWidth())
		valid := make([]bool, n)
		for i, v := range values {
			valid[i] = !v.IsNull()
			if !valid[i] {
				continue
			}
			writeRaw(raw, pt, i, v)
		}
		return array.NewPrimitive(ctx, pt, raw, n, valid, nullable)
	case dtype.KindUtf8:
		strs := make([]string, n)
		valid := make([]bool, n)
		for i, v := range values {
			valid[i] = !v.IsNull()
			if valid[i] {
				strs[i] = v.String()
			}
		}
		return array.NewUtf8(ctx, strs, valid, nullable)
	case dtype.KindBinary:
		bufs := make([][]byte, n)
		valid := make([]bool, n)
		for i, v := range values {
			valid[i] = !v.IsNull()
			if valid[i] {
				bufs[i] = v.Buffer()
			}
		}
		return array.NewBinary(ctx, bufs, valid, nullable)
	}
	return nil, vxerr.New(vxerr.TypeMismatch, "sparse: canonicalize unsupported for element dtype %s", dt)
}

func writeRaw(raw []byte, pt dtype.PType, index int, v scalar.Scalar) {
	// Reuses the same little-endian packing convention as
	// array.NewPrimitive's raw buffer (see array/canon_primitive.go);
	// duplicated narrowly here since that helper is unexported.
	var bits uint64
	switch {
	case pt.IsSigned():
		bits = uint64(v.Int())
	case pt.IsUnsigned():
		bits = v.Uint()
	case pt == dtype.F16:
		bits = uint64(v.F16Bits())
	default:
		bits = floatBits(pt, v.Float())
	}
	w := pt.ByteWidth()
	off := index * w
	for i := 0; i < w; i++ {
		raw[off+i] = byte(bits >> (8 * uint(i)))
	}
}
