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

import (
	"fmt"

	"github.com/Sweetlemon68/vortex/vxerr"
)

// Opaque is returned by Context.Lookup for a wire-format encoding code
// that has no registered Encoding (spec.md §4.1: unrecognized
// encodings must still round-trip their buffers and children so a
// writer's data is never silently discarded by an older reader).
// Opaque preserves the array's shape but refuses every compute
// operation, including flatten, so a reader that genuinely needs the
// values must upgrade rather than silently reading garbage.
type Opaque struct {
	code uint16
}

// Code returns the unrecognized wire-format code this Opaque stands in for.
func (o Opaque) Code() uint16 { return o.code }

func (o Opaque) ID() string { return fmt.Sprintf("vortex.opaque[%d]", o.code) }

func (o Opaque) Canonicalize(a Array) (Canonical, error) {
	return nil, vxerr.New(vxerr.UnknownEncoding, "array encoding code %d is not registered in this Context", o.code)
}
