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
	"testing"

	"github.com/Sweetlemon68/vortex/dtype"
)

func TestSchemaRoundTripPrimitive(t *testing.T) {
	dt := dtype.Primitive(dtype.I64, true)
	buf := WriteSchema(dt)
	got, err := ReadSchema(buf, 0)
	if err != nil {
		t.Fatalf("ReadSchema: %v", err)
	}
	if !got.Equal(dt) {
		t.Errorf("round trip = %s, want %s", got, dt)
	}
}

func TestSchemaRoundTripNestedStructListExtension(t *testing.T) {
	dt := dtype.Struct(
		[]string{"id", "tags", "uuid"},
		[]dtype.DType{
			dtype.Primitive(dtype.I64, false),
			dtype.List(dtype.Utf8(false), true),
			dtype.Extension("vortex.uuid", dtype.Binary(false), []byte{0xDE, 0xAD}, true),
		},
		false,
	)
	buf := WriteSchema(dt)
	got, err := ReadSchema(buf, 0)
	if err != nil {
		t.Fatalf("ReadSchema: %v", err)
	}
	if !got.Equal(dt) {
		t.Errorf("round trip = %s, want %s", got, dt)
	}
	_, children := got.Fields()
	_, _, meta := children[2].ExtensionInfo()
	if string(meta) != "\xde\xad" {
		t.Errorf("extension metadata = %v, want [0xde 0xad]", meta)
	}
}

func TestSchemaRoundTripNull(t *testing.T) {
	buf := WriteSchema(dtype.Null())
	got, err := ReadSchema(buf, 0)
	if err != nil {
		t.Fatalf("ReadSchema: %v", err)
	}
	if got.Kind() != dtype.KindNull {
		t.Errorf("got kind %s, want null", got.Kind())
	}
}

func TestPostscriptRoundTrip(t *testing.T) {
	ps := Postscript{SchemaOffset: 12, LayoutOffset: 512}
	buf := WritePostscript(ps)
	got, err := ReadPostscript(buf)
	if err != nil {
		t.Fatalf("ReadPostscript: %v", err)
	}
	if got != ps {
		t.Errorf("round trip = %+v, want %+v", got, ps)
	}
}

func TestPostscriptTooShortErrors(t *testing.T) {
	if _, err := ReadPostscript([]byte{1, 2}); err == nil {
		t.Error("expected an error decoding a too-short postscript buffer")
	}
}

func TestLayoutRoundTripNested(t *testing.T) {
	n := LayoutNode{
		Encoding: 2, // Chunked
		RowCount: 6,
		Metadata: []byte{0x01},
		Children: []LayoutNode{
			{
				Encoding: 1, // Flat
				RowCount: 3,
				Buffers:  []BufferRange{{Begin: 64, End: 128}},
			},
			{
				Encoding: 1,
				RowCount: 3,
				Buffers:  []BufferRange{{Begin: 128, End: 192}},
			},
		},
	}
	buf := WriteLayout(n)
	got, err := ReadLayout(buf, 0)
	if err != nil {
		t.Fatalf("ReadLayout: %v", err)
	}
	if got.Encoding != n.Encoding || got.RowCount != n.RowCount {
		t.Fatalf("got %+v, want %+v", got, n)
	}
	if len(got.Children) != 2 {
		t.Fatalf("got %d children, want 2", len(got.Children))
	}
	if got.Children[0].Buffers[0] != n.Children[0].Buffers[0] {
		t.Errorf("child 0 buffer = %+v, want %+v", got.Children[0].Buffers[0], n.Children[0].Buffers[0])
	}
	if len(got.Metadata) != 1 || got.Metadata[0] != 0x01 {
		t.Errorf("metadata = %v, want [1]", got.Metadata)
	}
}

func TestLayoutMissingEncodingErrors(t *testing.T) {
	// Encoding 0xFFFF equals PrependUint16Slot's declared default, so
	// the builder omits the field from the vtable entirely -- the same
	// wire shape as a message that never set it. Decoding must treat a
	// missing encoding as mandatory and error rather than default to 0.
	n := LayoutNode{Encoding: 0xFFFF, RowCount: 1}
	buf := WriteLayout(n)
	if _, err := ReadLayout(buf, 0); err == nil {
		t.Error("expected an error decoding a Layout message with encoding omitted")
	}
}
