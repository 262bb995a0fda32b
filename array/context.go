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

import "sync"

// builtin canonical encoding ids, reserved at the low end of the code
// space so that they are stable across Context instances no matter
// what else is registered (spec.md §4.1 / SPEC_FULL.md §4.1).
const (
	IDNull      = "vortex.null"
	IDBool      = "vortex.bool"
	IDPrimitive = "vortex.primitive"
	IDVarBin    = "vortex.varbin"
	IDStruct    = "vortex.struct"
	IDList      = "vortex.list"
)

// Context maps encoding ids to stable 16-bit codes and back, the way
// the teacher's compr package maps compression algorithm names to
// Compressor/Decompressor implementations (SPEC_FULL.md DOMAIN STACK
// / §4.1).
//
// A Context is safe for concurrent use; lookups vastly outnumber
// registrations in practice so the mutex is an RWMutex.
type Context struct {
	mu     sync.RWMutex
	byCode map[uint16]Encoding
	byID   map[string]uint16
	next   uint16
}

// NewContext returns a Context with the canonical encodings
// pre-registered at codes 0-5.
func NewContext() *Context {
	c := &Context{
		byCode: make(map[uint16]Encoding),
		byID:   make(map[string]uint16),
	}
	for _, e := range []Encoding{
		nullEncoding{},
		boolEncoding{},
		primitiveEncoding{},
		varBinEncoding{},
		structEncoding{},
		listEncoding{},
	} {
		c.Register(e)
	}
	return c
}

// Register assigns e the next available code and returns it. Encodings
// are expected to be registered once at startup; Register panics if id
// is already registered, since a dynamic re-registration is always a
// programming error rather than a recoverable runtime condition.
func (c *Context) Register(e Encoding) uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, dup := c.byID[e.ID()]; dup {
		panic("array: encoding id already registered: " + e.ID())
	}
	code := c.next
	c.next++
	c.byCode[code] = e
	c.byID[e.ID()] = code
	return code
}

// Code returns the code assigned to the encoding with the given id.
func (c *Context) Code(id string) (uint16, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	code, ok := c.byID[id]
	return code, ok
}

// Lookup returns the Encoding registered at code, or an Opaque
// encoding carrying that code if none is registered (spec.md §4.1:
// "Lookups that fail because a code is unknown yield an Opaque
// encoding").
func (c *Context) Lookup(code uint16) Encoding {
	c.mu.RLock()
	e, ok := c.byCode[code]
	c.mu.RUnlock()
	if ok {
		return e
	}
	return Opaque{code: code}
}

// Encoding returns the Encoding registered under id, or nil.
func (c *Context) Encoding(id string) Encoding {
	code, ok := c.Code(id)
	if !ok {
		return nil
	}
	return c.Lookup(code)
}
