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

package vxfile

import (
	"encoding/binary"
	"io"

	"github.com/Sweetlemon68/vortex/array"
	"github.com/Sweetlemon68/vortex/dtype"
	"github.com/Sweetlemon68/vortex/genfb"
	"github.com/Sweetlemon68/vortex/layout"
	"github.com/Sweetlemon68/vortex/vxerr"
	"github.com/Sweetlemon68/vortex/vxio"
)

// Writer serializes a stream of Struct arrays sharing a common schema
// into the .vtxf format (spec.md §4.8), grounded on the teacher's
// ion/blockfmt block writer: batches are appended one at a time and
// the footer (schema, layout, postscript, marker) is only emitted on
// Close, after which the sink is flushed and shut down.
//
// A Writer is not safe for concurrent use.
type Writer struct {
	ctx  *array.Context
	sink io.Writer
	up   vxio.Uploader
	pos  int64

	compress bool

	dt      dtype.DType
	haveDT  bool
	batches []layout.Layout
	rows    int
	closed  bool
}

// WriterOption configures a Writer at construction time.
type WriterOption func(*Writer)

// WithCompression s2-compresses every data buffer written. The choice
// is recorded in the file's root Layout metadata so a Reader never
// needs to be told out of band whether a file is compressed.
func WithCompression() WriterOption {
	return func(w *Writer) { w.compress = true }
}

// NewWriter returns a Writer that streams directly to w. Close also
// closes w if it implements io.Closer; use Create instead to target a
// vxio.UploadFS.
func NewWriter(ctx *array.Context, w io.Writer, opts ...WriterOption) (*Writer, error) {
	wr := &Writer{ctx: ctx, sink: w}
	for _, opt := range opts {
		opt(wr)
	}
	if err := wr.writeAll([]byte(Magic)); err != nil {
		return nil, err
	}
	return wr, nil
}

// Create opens a new .vtxf file at path on fsys via its Uploader,
// which only becomes visible once Close succeeds (spec.md §4.8: "the
// writer flushes and shuts down the sink only after emitting the
// marker").
func Create(ctx *array.Context, fsys vxio.UploadFS, path string, opts ...WriterOption) (*Writer, error) {
	up, err := fsys.Create(path)
	if err != nil {
		return nil, err
	}
	w, err := NewWriter(ctx, up, opts...)
	if err != nil {
		return nil, err
	}
	w.up = up
	return w, nil
}

func (w *Writer) writeAll(p []byte) error {
	n, err := w.sink.Write(p)
	w.pos += int64(n)
	if err != nil {
		return vxerr.Wrap(vxerr.IO, err, "vxfile: write failed at offset %d", w.pos)
	}
	return nil
}

func (w *Writer) writePadding(n int64) error {
	if n == 0 {
		return nil
	}
	return w.writeAll(make([]byte, n))
}

// writeField serializes one Flat buffer for a single field array,
// recording its absolute (begin, end) byte range.
func (w *Writer) writeField(a array.Array) (layout.BufferRange, error) {
	begin := w.pos
	node, bufs, err := encodeArrayNode(a)
	if err != nil {
		return layout.BufferRange{}, err
	}
	fb := genfb.WriteArrayMessage(node)

	lp := make([]byte, 4)
	binary.LittleEndian.PutUint32(lp, uint32(len(fb)))
	if err := w.writeAll(lp); err != nil {
		return layout.BufferRange{}, err
	}
	if err := w.writeAll(fb); err != nil {
		return layout.BufferRange{}, err
	}
	for _, buf := range bufs {
		if w.compress {
			buf = compressBuffer(buf)
		}
		if err := w.writePadding(padTo64(w.pos)); err != nil {
			return layout.BufferRange{}, err
		}
		if err := w.writeAll(buf); err != nil {
			return layout.BufferRange{}, err
		}
	}
	return layout.BufferRange{Begin: uint64(begin), End: uint64(w.pos)}, nil
}

// WriteBatch appends one Struct array as the next batch. Every batch
// written to a Writer must share the same DType (checked against the
// first batch written).
func (w *Writer) WriteBatch(a array.Array) error {
	if w.closed {
		return vxerr.New(vxerr.IO, "vxfile: WriteBatch called after Close")
	}
	if a.DType().Kind() != dtype.KindStruct {
		return vxerr.New(vxerr.TypeMismatch, "vxfile: WriteBatch requires a Struct array, got %s", a.DType())
	}
	if !w.haveDT {
		w.dt = a.DType()
		w.haveDT = true
	} else if !w.dt.Equal(a.DType()) {
		return vxerr.New(vxerr.TypeMismatch, "vxfile: batch schema %s does not match established schema %s", a.DType(), w.dt)
	}
	_, fieldTypes := a.DType().Fields()
	flats := make([]layout.Layout, len(fieldTypes))
	for i := range fieldTypes {
		br, err := w.writeField(a.Child(i))
		if err != nil {
			return err
		}
		flats[i] = layout.Layout{
			Encoding: layout.Flat,
			Buffers:  []layout.BufferRange{br},
			RowCount: a.Len(),
		}
	}
	w.batches = append(w.batches, layout.Layout{
		Encoding: layout.Columnar,
		Children: flats,
		RowCount: a.Len(),
	})
	w.rows += a.Len()
	return nil
}

// Close assembles and writes the schema, layout, postscript and
// EndOfFile marker, then flushes and shuts down the sink (spec.md
// §4.8 steps 3-7). It is an error to call Close before at least one
// batch has been written, since the file's schema is derived from the
// first batch rather than declared up front.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if !w.haveDT {
		return vxerr.New(vxerr.InvalidSerialization, "vxfile: Close called with no batches written; schema is unknown")
	}

	root := layout.Layout{
		Encoding: layout.Chunked,
		Children: w.batches,
		RowCount: w.rows,
		Metadata: rootMetadata(w.compress),
	}

	schemaOffset := w.pos
	if err := w.writeAll(genfb.WriteSchema(w.dt)); err != nil {
		return err
	}

	layoutOffset := w.pos
	if err := w.writeAll(genfb.WriteLayout(layoutToNode(root))); err != nil {
		return err
	}

	ps := genfb.WritePostscript(genfb.Postscript{
		SchemaOffset: uint64(schemaOffset),
		LayoutOffset: uint64(layoutOffset),
	})
	if err := w.writeAll(ps); err != nil {
		return err
	}

	eof := MarshalEndOfFile(EndOfFile{Version: Version, FooterLength: uint16(len(ps))})
	if err := w.writeAll(eof); err != nil {
		return err
	}

	if w.up != nil {
		if err := w.up.Upload(nil); err != nil {
			return err
		}
		return w.up.Close()
	}
	if c, ok := w.sink.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
