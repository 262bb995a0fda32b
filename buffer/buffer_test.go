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

package buffer

import "testing"

func TestNewRejectsNonPowerOfTwoAlign(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected New() to panic for a non-power-of-two alignment")
		}
	}()
	New([]byte{1, 2, 3}, 3)
}

func TestBytesAndLen(t *testing.T) {
	b := New([]byte{1, 2, 3, 4}, 1)
	if b.Len() != 4 {
		t.Errorf("Len() = %d, want 4", b.Len())
	}
	if got := b.Bytes(); len(got) != 4 || got[0] != 1 || got[3] != 4 {
		t.Errorf("Bytes() = %v, want [1 2 3 4]", got)
	}
}

func TestSliceSharesStorageAndPreservesAlignment(t *testing.T) {
	raw := make([]byte, 128)
	for i := range raw {
		raw[i] = byte(i)
	}
	b := New(raw, 64)
	s := b.Slice(64, 96)
	if s.Len() != 32 {
		t.Fatalf("Slice length = %d, want 32", s.Len())
	}
	if s.Align() != 64 {
		t.Errorf("Slice at a multiple of align should preserve alignment, got %d", s.Align())
	}
	if s.Bytes()[0] != raw[64] {
		t.Error("Slice must share the backing storage, not copy it")
	}

	unaligned := b.Slice(1, 33)
	if unaligned.Align() != 1 {
		t.Errorf("Slice at a non-multiple of align should drop to align=1, got %d", unaligned.Align())
	}
}

func TestSliceOutOfRangePanics(t *testing.T) {
	b := New([]byte{1, 2, 3}, 1)
	defer func() {
		if recover() == nil {
			t.Error("expected Slice() to panic for an out-of-range slice")
		}
	}()
	b.Slice(1, 10)
}

func TestEmpty(t *testing.T) {
	var zero Buffer
	if !zero.Empty() {
		t.Error("zero Buffer should be Empty")
	}
	b := New([]byte{1}, 1)
	if b.Empty() {
		t.Error("a one-byte buffer should not be Empty")
	}
}
