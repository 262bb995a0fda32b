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

// Package vxerr implements the error-kind taxonomy from spec.md §7.
//
// There is deliberately no third-party errors package here: the
// teacher's core packages (ion, ion/blockfmt, compr) use only the
// standard library's fmt.Errorf("...: %w", err) / errors.Is idiom, so
// this package follows suit rather than introducing something like
// pkg/errors.
package vxerr

import (
	"errors"
	"fmt"
)

// Kind classifies an Error. See spec.md §7 for the full taxonomy.
type Kind int

const (
	OutOfBounds Kind = iota
	InvalidRange
	TypeMismatch
	InvalidSerialization
	InvalidArrowType
	UnknownEncoding
	IO
	InvalidMetadata
)

func (k Kind) String() string {
	switch k {
	case OutOfBounds:
		return "out of bounds"
	case InvalidRange:
		return "invalid range"
	case TypeMismatch:
		return "type mismatch"
	case InvalidSerialization:
		return "invalid serialization"
	case InvalidArrowType:
		return "invalid arrow type"
	case UnknownEncoding:
		return "unknown encoding"
	case IO:
		return "io error"
	case InvalidMetadata:
		return "invalid metadata"
	}
	return "unknown error kind"
}

// Error is the concrete error type produced by this module's
// compute, construction and serialization paths.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is supports errors.Is(err, vxerr.OutOfBoundsErr) style checks by
// comparing Kind against the Kind of the target *Error (such as one of
// the sentinel values below).
func (e *Error) Is(target error) bool {
	var k *Error
	if errors.As(target, &k) {
		return e.Kind == k.Kind
	}
	return false
}

// New constructs an *Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap constructs an *Error of the given kind, wrapping cause.
func Wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf reports the Kind of err if it is (or wraps) a *Error, and ok=false
// otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// sentinel kind-matcher values for errors.Is(err, vxerr.OutOfBoundsErr) use
var (
	OutOfBoundsErr           = &Error{Kind: OutOfBounds}
	InvalidRangeErr          = &Error{Kind: InvalidRange}
	TypeMismatchErr          = &Error{Kind: TypeMismatch}
	InvalidSerializationErr  = &Error{Kind: InvalidSerialization}
	InvalidArrowTypeErr      = &Error{Kind: InvalidArrowType}
	UnknownEncodingErr       = &Error{Kind: UnknownEncoding}
	IOErr                    = &Error{Kind: IO}
	InvalidMetadataErr       = &Error{Kind: InvalidMetadata}
)
