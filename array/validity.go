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

package array

import "github.com/Sweetlemon68/vortex/vxerr"

// ValidityKind discriminates the four shapes a canonical encoding's
// validity can take (spec.md §4.3): a dedicated Array(bool) is only
// materialized when individual elements actually vary.
type ValidityKind uint8

const (
	// NonNullable means every element is valid and the DType itself
	// is not nullable; IsValid always returns true.
	NonNullable ValidityKind = iota
	// AllValid means the DType is nullable but no element happens to
	// be null.
	AllValid
	// AllInvalid means every element is null.
	AllInvalid
	// ArrayValidity means validity varies per element and is recorded
	// in an explicit non-nullable Bool child array.
	ArrayValidity
)

// validityTag/fromValidityTag encode/decode ValidityKind as the
// single metadata byte (metadata[0]) every canonical encoding in this
// package reserves for it.
func validityTag(k ValidityKind) byte { return byte(k) }

func fromValidityTag(b byte) (ValidityKind, error) {
	if b > byte(ArrayValidity) {
		return 0, vxerr.New(vxerr.InvalidMetadata, "invalid validity tag %d", b)
	}
	return ValidityKind(b), nil
}

// Validity is the decoded validity bitmap of a canonical array: either
// one of the three degenerate cases, or a reference to the explicit
// bool Array carrying per-element validity.
type Validity struct {
	Kind ValidityKind
	Arr  Array // only set when Kind == ArrayValidity
}

// IsValid reports whether the element at index is non-null.
func (v Validity) IsValid(index int) (bool, error) {
	switch v.Kind {
	case NonNullable, AllValid:
		return true, nil
	case AllInvalid:
		return false, nil
	case ArrayValidity:
		s, err := ScalarAt(v.Arr, index)
		if err != nil {
			return false, err
		}
		return s.Bool(), nil
	}
	return false, vxerr.New(vxerr.InvalidMetadata, "invalid validity kind %d", v.Kind)
}

// Slice returns the validity of the sub-range [start, end).
func (v Validity) Slice(start, end int) (Validity, error) {
	if v.Kind != ArrayValidity {
		return v, nil
	}
	sliced, err := Slice(v.Arr, start, end)
	if err != nil {
		return Validity{}, err
	}
	return Validity{Kind: ArrayValidity, Arr: sliced}, nil
}

// Take returns the validity gathered at indices. Per spec.md §4.3,
// taking validity reuses the take op of the underlying bool array
// rather than any bespoke logic.
func (v Validity) Take(indices Array, skipBoundsCheck bool) (Validity, error) {
	if v.Kind != ArrayValidity {
		return v, nil
	}
	taken, err := Take(v.Arr, indices, skipBoundsCheck)
	if err != nil {
		return Validity{}, err
	}
	return Validity{Kind: ArrayValidity, Arr: taken}, nil
}

// NullCount returns the number of invalid elements out of n.
func (v Validity) NullCount(n int) (int, error) {
	switch v.Kind {
	case NonNullable, AllValid:
		return 0, nil
	case AllInvalid:
		return n, nil
	case ArrayValidity:
		count := 0
		for i := 0; i < n; i++ {
			ok, err := v.IsValid(i)
			if err != nil {
				return 0, err
			}
			if !ok {
				count++
			}
		}
		return count, nil
	}
	return 0, vxerr.New(vxerr.InvalidMetadata, "invalid validity kind %d", v.Kind)
}
