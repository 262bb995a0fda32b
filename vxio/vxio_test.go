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

package vxio

import (
	"bytes"
	"context"
	"testing"
)

func TestBufferSourceSizeAndReadRange(t *testing.T) {
	src := NewBufferSource([]byte("hello world"))
	ctx := context.Background()
	n, err := src.Size(ctx)
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if n != 11 {
		t.Fatalf("Size() = %d, want 11", n)
	}
	got, err := src.ReadRange(ctx, 6, 5)
	if err != nil {
		t.Fatalf("ReadRange: %v", err)
	}
	if string(got) != "world" {
		t.Errorf("ReadRange(6,5) = %q, want %q", got, "world")
	}
}

func TestBufferSourceReadRangeOutOfBoundsErrors(t *testing.T) {
	src := NewBufferSource([]byte("abc"))
	if _, err := src.ReadRange(context.Background(), 1, 10); err == nil {
		t.Error("expected an out-of-bounds error")
	}
}

func TestBufferSourceRespectsCanceledContext(t *testing.T) {
	src := NewBufferSource([]byte("abc"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.Size(ctx); err == nil {
		t.Error("expected Size to error on a canceled context")
	}
	if _, err := src.ReadRange(ctx, 0, 1); err == nil {
		t.Error("expected ReadRange to error on a canceled context")
	}
}

func TestMemFSWriteFileOpenRoundTrip(t *testing.T) {
	m := NewMemFS()
	etag, err := m.WriteFile("a/b.vtxf", []byte("payload"))
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if etag == "" {
		t.Error("expected a non-empty ETag")
	}
	f, err := m.Open("a/b.vtxf")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(f); err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	if buf.String() != "payload" {
		t.Errorf("read back %q, want payload", buf.String())
	}
}

func TestMemFSCreateUploaderMakesFileVisibleOnUpload(t *testing.T) {
	m := NewMemFS()
	u, err := m.Create("c.vtxf")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := u.Write([]byte("part1-")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := m.Open("c.vtxf"); err == nil {
		t.Fatal("file must not be visible before Upload")
	}
	if err := u.Upload([]byte("part2")); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	f, err := m.Open("c.vtxf")
	if err != nil {
		t.Fatalf("Open after Upload: %v", err)
	}
	var buf bytes.Buffer
	buf.ReadFrom(f)
	if buf.String() != "part1-part2" {
		t.Errorf("uploaded content = %q, want part1-part2", buf.String())
	}
}

func TestCollectorMatchesPatternSortedByPath(t *testing.T) {
	m := NewMemFS()
	m.WriteFile("b.vtxf", []byte("1"))
	m.WriteFile("a.vtxf", []byte("2"))
	m.WriteFile("c.txt", []byte("3"))

	c := &Collector{Pattern: "*.vtxf"}
	items, err := c.Collect(m)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("Collect() returned %d items, want 2", len(items))
	}
	if items[0].Path != "a.vtxf" || items[1].Path != "b.vtxf" {
		t.Errorf("Collect() paths = [%s %s], want sorted [a.vtxf b.vtxf]", items[0].Path, items[1].Path)
	}
}

func TestCollectorMaxItemsCapsResults(t *testing.T) {
	m := NewMemFS()
	m.WriteFile("1.vtxf", []byte("1"))
	m.WriteFile("2.vtxf", []byte("2"))
	m.WriteFile("3.vtxf", []byte("3"))

	c := &Collector{Pattern: "*.vtxf", MaxItems: 2}
	items, err := c.Collect(m)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("Collect() returned %d items, want 2 (MaxItems cap)", len(items))
	}
}
