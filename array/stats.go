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
	"sync"

	"github.com/Sweetlemon68/vortex/dtype"
	"github.com/Sweetlemon68/vortex/scalar"
)

// Stats is the computed summary of an array's values, mirroring the
// Stats wire message in genfb/stats.go (spec.md §6) but as a plain
// in-memory value with no flatbuffer dependency.
type Stats struct {
	Min       scalar.Scalar
	HasMin    bool
	Max       scalar.Scalar
	HasMax    bool
	NullCount int
	HasNulls  bool
}

// statsCache memoizes Stats per array node the way the teacher's
// blockfmt.SparseIndex caches per-column min/max rather than
// rescanning a block on every query (SPEC_FULL.md DOMAIN STACK). It is
// computed lazily, on first Compute call, and is safe for concurrent
// readers the same array is shared across (ArrayData/ArrayView are
// immutable once built).
type statsCache struct {
	mu    sync.RWMutex
	have  bool
	stats Stats
}

func newStatsCache() *statsCache { return &statsCache{} }

// Compute returns the cached Stats for a, computing them via fn on
// first use. fn is expected to scan the array's canonical form once;
// callers should make it cheap to call more than once (it normally
// is not, since the cache suppresses repeats).
func (c *statsCache) Compute(fn func() (Stats, error)) (Stats, error) {
	c.mu.RLock()
	if c.have {
		st := c.stats
		c.mu.RUnlock()
		return st, nil
	}
	c.mu.RUnlock()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.have {
		return c.stats, nil
	}
	st, err := fn()
	if err != nil {
		return Stats{}, err
	}
	c.stats = st
	c.have = true
	return st, nil
}

// ComputeStats returns a's memoized Stats, computing them from its
// canonical form if not already cached. This is the exported entry
// point for callers outside this package.
func ComputeStats(a Array) (Stats, error) {
	sc := statsOf(a)
	if sc == nil {
		return computeStatsUncached(a)
	}
	return sc.Compute(func() (Stats, error) { return computeStatsUncached(a) })
}

func statsOf(a Array) *statsCache {
	switch v := a.(type) {
	case *ArrayData:
		return v.stats
	case *ArrayView:
		return v.stats
	}
	return nil
}

func computeStatsUncached(a Array) (Stats, error) {
	n := a.Len()
	st := Stats{HasNulls: true}
	var min, max scalar.Scalar
	haveMinMax := false
	nullCount := 0
	orderable := isOrderable(a.DType())
	for i := 0; i < n; i++ {
		v, err := ScalarAt(a, i)
		if err != nil {
			return Stats{}, err
		}
		if v.IsNull() {
			nullCount++
			continue
		}
		if !orderable {
			continue
		}
		if !haveMinMax {
			min, max = v, v
			haveMinMax = true
			continue
		}
		if v.Less(min) {
			min = v
		}
		if max.Less(v) {
			max = v
		}
	}
	st.NullCount = nullCount
	if haveMinMax {
		st.Min, st.HasMin = min, true
		st.Max, st.HasMax = max, true
	}
	return st, nil
}

// isOrderable reports whether scalar.Less is defined for dt's kind
// (spec.md §4.2 defines the total order only over Primitive, Utf8,
// Binary and Bool).
func isOrderable(dt dtype.DType) bool {
	switch dt.Kind() {
	case dtype.KindPrimitive, dtype.KindUtf8, dtype.KindBinary, dtype.KindBool:
		return true
	}
	return false
}
