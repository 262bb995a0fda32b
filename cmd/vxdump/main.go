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

// Command vxdump prints the rows of one or more .vtxf files as
// newline-delimited JSON, grounded on the teacher's cmd/dump
// (ion-to-JSON) tool but retargeted at vortex's columnar Array model
// instead of ion's record stream.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/Sweetlemon68/vortex/array"
	"github.com/Sweetlemon68/vortex/dtype"
	"github.com/Sweetlemon68/vortex/scalar"
	"github.com/Sweetlemon68/vortex/vxfile"
)

func main() {
	fields := flag.String("fields", "", "comma-separated field names to project (default: all)")
	schemaOnly := flag.Bool("schema", false, "print only the file's schema, not its rows")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: vxdump [-fields a,b,c] [-schema] file.vtxf ...")
		os.Exit(2)
	}

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	status := 0
	for _, path := range args {
		if err := dump(out, path, *fields, *schemaOnly); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %s\n", path, err)
			status = 1
		}
	}
	if err := out.Flush(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		status = 1
	}
	os.Exit(status)
}

func dump(out *bufio.Writer, path, fieldList string, schemaOnly bool) error {
	ctx := context.Background()
	actx := array.NewContext()

	r, err := vxfile.OpenFile(ctx, actx, path)
	if err != nil {
		return err
	}
	defer r.Close()

	if schemaOnly {
		fmt.Fprintf(out, "%s  rows=%d\n", r.DType(), r.RowCount())
		return nil
	}

	var opts vxfile.ReadOptions
	if fieldList != "" {
		idx, err := fieldIndices(r.DType(), strings.Split(fieldList, ","))
		if err != nil {
			return err
		}
		opts.Fields = idx
	}

	c, err := r.Cursor(opts)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	for {
		batch, ok, err := c.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		names, _ := batch.DType().Fields()
		for row := 0; row < batch.Len(); row++ {
			rec := make(map[string]any, len(names))
			for i, name := range names {
				v, err := array.ScalarAt(batch.Child(i), row)
				if err != nil {
					return err
				}
				rec[name] = jsonValue(v)
			}
			if err := enc.Encode(rec); err != nil {
				return err
			}
		}
	}
	return nil
}

func fieldIndices(dt dtype.DType, names []string) ([]int, error) {
	schemaNames, _ := dt.Fields()
	out := make([]int, len(names))
	for i, n := range names {
		n = strings.TrimSpace(n)
		idx := dt.FieldIndex(n)
		if idx < 0 {
			return nil, fmt.Errorf("no such field %q (have %v)", n, schemaNames)
		}
		out[i] = idx
	}
	return out, nil
}

// jsonValue converts a Scalar to a plain Go value json.Marshal can
// render, since scalar.Scalar itself has no JSON encoding of its own.
func jsonValue(s scalar.Scalar) any {
	if s.IsNull() {
		return nil
	}
	switch s.DType().Kind() {
	case dtype.KindBool:
		return s.Bool()
	case dtype.KindPrimitive:
		pt := s.DType().PType()
		switch {
		case pt.IsFloat():
			return s.Float()
		case pt.IsSigned():
			return s.Int()
		default:
			return s.Uint()
		}
	case dtype.KindUtf8:
		return s.String()
	case dtype.KindBinary:
		return s.Buffer()
	case dtype.KindList:
		elems := s.List()
		out := make([]any, len(elems))
		for i, e := range elems {
			out[i] = jsonValue(e)
		}
		return out
	case dtype.KindStruct:
		names, _ := s.DType().Fields()
		vals := s.Struct()
		rec := make(map[string]any, len(names))
		for i, name := range names {
			rec[name] = jsonValue(vals[i])
		}
		return rec
	default:
		return nil
	}
}
