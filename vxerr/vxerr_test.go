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

package vxerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestNewAndErrorMessage(t *testing.T) {
	err := New(OutOfBounds, "index %d out of range [0, %d)", 5, 3)
	want := "out of bounds: index 5 out of range [0, 3)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWrapIncludesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(IO, cause, "writing buffer")
	if !errors.Is(err, cause) {
		t.Error("Wrap result should unwrap to the original cause via errors.Is")
	}
	want := "io error: writing buffer: disk full"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestIsMatchesByKindNotMessage(t *testing.T) {
	a := New(InvalidRange, "range A")
	b := New(InvalidRange, "range B")
	c := New(TypeMismatch, "range A")
	if !errors.Is(a, b) {
		t.Error("two *Error values with the same Kind should satisfy errors.Is regardless of message")
	}
	if errors.Is(a, c) {
		t.Error("*Error values with different Kinds must not satisfy errors.Is")
	}
}

func TestKindOfUnwrapsThroughFmtErrorf(t *testing.T) {
	base := New(UnknownEncoding, "code 7")
	wrapped := fmt.Errorf("decoding field: %w", base)
	kind, ok := KindOf(wrapped)
	if !ok || kind != UnknownEncoding {
		t.Errorf("KindOf(wrapped) = (%v, %v), want (UnknownEncoding, true)", kind, ok)
	}

	if _, ok := KindOf(errors.New("plain error")); ok {
		t.Error("KindOf on a non-vxerr error should report ok=false")
	}
}

func TestSentinelsMatchViaErrorsIs(t *testing.T) {
	err := New(OutOfBounds, "whatever")
	if !errors.Is(err, OutOfBoundsErr) {
		t.Error("a freshly constructed Error should match the OutOfBoundsErr sentinel via errors.Is")
	}
	if errors.Is(err, InvalidRangeErr) {
		t.Error("an OutOfBounds Error should not match the InvalidRangeErr sentinel")
	}
}

func TestKindStringCoversAllKinds(t *testing.T) {
	kinds := []Kind{OutOfBounds, InvalidRange, TypeMismatch, InvalidSerialization, InvalidArrowType, UnknownEncoding, IO, InvalidMetadata}
	for _, k := range kinds {
		if k.String() == "unknown error kind" {
			t.Errorf("Kind %d has no String() case", k)
		}
	}
}
