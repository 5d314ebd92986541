/*
SPDX-License-Identifier: Apache-2.0

Copyright 2026 The Virtugrid Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package heights tracks variable row heights for a virtualized grid.
//
// A Cache answers the two questions a scrolling grid asks on every frame:
// how tall is everything up to row i (Query), and which row sits at a given
// pixel offset (RowIndex). Both run in O(log N); changing one row's height
// (for example when its detail panel is expanded) is also O(log N).
//
// The cache is owned by a single caller and is not safe for concurrent
// mutation.
package heights

import "math"

// Cache is a Fenwick tree over row slots. The zero value is an empty cache.
//
// tree[i] holds the sum of heights[i&(i+1) .. i].
type Cache struct {
	tree    []float64
	heights []float64
}

// Reset discards the current contents and rebuilds the cache from the given
// slot heights in O(N). Invalid heights are stored as 0.
func (c *Cache) Reset(heights []float64) {
	n := len(heights)
	c.heights = make([]float64, n)
	c.tree = make([]float64, n)
	for i, h := range heights {
		h = sanitize(h)
		c.heights[i] = h
		c.tree[i] = h
	}
	for i := 0; i < n; i++ {
		if j := i | (i + 1); j < n {
			c.tree[j] += c.tree[i]
		}
	}
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.tree = nil
	c.heights = nil
}

// Len returns the number of row slots.
func (c *Cache) Len() int {
	return len(c.tree)
}

// IsEmpty reports whether the cache holds no slots, either because it was
// never built or because it was built for zero rows.
func (c *Cache) IsEmpty() bool {
	return len(c.tree) == 0
}

// Height returns the height of a single slot, or 0 when index is out of range.
func (c *Cache) Height(index int) float64 {
	if index < 0 || index >= len(c.heights) {
		return 0
	}
	return c.heights[index]
}

// Total returns the sum of all slot heights.
func (c *Cache) Total() float64 {
	return c.Query(len(c.tree) - 1)
}

// Query returns the cumulative height of slots 0..index inclusive.
// Query(-1) is 0 and any index past the last slot returns the total.
func (c *Cache) Query(index int) float64 {
	n := len(c.tree)
	if index >= n {
		index = n - 1
	}
	sum := 0.0
	for i := index; i >= 0; i = (i & (i + 1)) - 1 {
		sum += c.tree[i]
	}
	return sum
}

// QueryBetween returns the combined height of slots from..to inclusive.
func (c *Cache) QueryBetween(from, to int) float64 {
	if to < from {
		return 0
	}
	return c.Query(to) - c.Query(from-1)
}

// RowIndex returns the index of the slot containing the pixel offset: the
// greatest i such that Query(i-1) <= offset, clamped to [0, Len()-1].
// Offsets at or below zero map to 0, as does any offset on an empty cache.
func (c *Cache) RowIndex(offset float64) int {
	n := len(c.tree)
	if n == 0 || !(offset > 0) {
		return 0
	}
	pos := -1
	remaining := offset
	for step := highestBit(n); step > 0; step >>= 1 {
		next := pos + step
		if next < n && remaining >= c.tree[next] {
			remaining -= c.tree[next]
			pos = next
		}
	}
	idx := min(pos+1, n-1)
	// The descent sums nodes in a different order than Query, so with
	// fractional heights it can land one slot off. Settle against Query.
	for idx < n-1 && c.Query(idx) <= offset {
		idx++
	}
	for idx > 0 && c.Query(idx-1) > offset {
		idx--
	}
	return idx
}

// Update sets the height of one slot and propagates the difference to the
// tree nodes covering it. Out of range indexes are ignored: callers may race
// with a shrinking row count while pages load.
func (c *Cache) Update(index int, height float64) {
	if index < 0 || index >= len(c.heights) {
		return
	}
	height = sanitize(height)
	c.add(index, height-c.heights[index])
	c.heights[index] = height
}

// Adjust adds delta to the height of one slot. The resulting height never
// drops below 0.
func (c *Cache) Adjust(index int, delta float64) {
	if index < 0 || index >= len(c.heights) {
		return
	}
	c.Update(index, c.heights[index]+delta)
}

func (c *Cache) add(index int, delta float64) {
	if delta == 0 {
		return
	}
	for i := index; i < len(c.tree); i |= i + 1 {
		c.tree[i] += delta
	}
}

// highestBit returns the largest power of two <= n, for n > 0.
func highestBit(n int) int {
	b := 1
	for b<<1 <= n {
		b <<= 1
	}
	return b
}

// sanitize maps heights that would corrupt the tree (NaN, infinities,
// negatives) to 0.
func sanitize(h float64) float64 {
	if math.IsNaN(h) || math.IsInf(h, 0) || h < 0 {
		return 0
	}
	return h
}
