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

package heights

// HeightResolver computes the base height of a loaded row.
type HeightResolver[R any] interface {
	HeightOf(row R) float64
}

// DetailHeightResolver computes the extra height of an expanded row's detail
// panel. index is the row's slot index in the cache.
type DetailHeightResolver[R any] interface {
	DetailHeightOf(row R, index int) float64
}

// Scalar is implemented by resolvers whose value does not depend on the row.
// The scalar value doubles as the height of rows that are not loaded yet.
type Scalar interface {
	Scalar() float64
}

// FixedHeight gives every row the same height.
type FixedHeight[R any] float64

func (h FixedHeight[R]) HeightOf(R) float64 { return float64(h) }

func (h FixedHeight[R]) Scalar() float64 { return float64(h) }

// HeightFunc adapts a function to HeightResolver.
type HeightFunc[R any] func(row R) float64

func (f HeightFunc[R]) HeightOf(row R) float64 { return f(row) }

// HeightTable looks row heights up by key. Rows whose key is absent get
// Default, which is also used as the height of unloaded rows.
type HeightTable[R any, K comparable] struct {
	Key     func(R) K
	Heights map[K]float64
	Default float64
}

func (t HeightTable[R, K]) HeightOf(row R) float64 {
	if h, ok := t.Heights[t.Key(row)]; ok {
		return h
	}
	return t.Default
}

func (t HeightTable[R, K]) Scalar() float64 { return t.Default }

// FixedDetailHeight gives every expanded row the same detail height.
type FixedDetailHeight[R any] float64

func (h FixedDetailHeight[R]) DetailHeightOf(R, int) float64 { return float64(h) }

// DetailHeightFunc adapts a function to DetailHeightResolver.
type DetailHeightFunc[R any] func(row R, index int) float64

func (f DetailHeightFunc[R]) DetailHeightOf(row R, index int) float64 { return f(row, index) }

// RowSource is an ordered window of rows. Row reports false for slots whose
// row has not been loaded yet.
type RowSource[R any] interface {
	Len() int
	Row(i int) (R, bool)
}

// Rows is a fully loaded RowSource.
type Rows[R any] []R

func (r Rows[R]) Len() int { return len(r) }

func (r Rows[R]) Row(i int) (R, bool) {
	if i < 0 || i >= len(r) {
		var zero R
		return zero, false
	}
	return r[i], true
}

// Window is a RowSource with an explicit loaded mask. A nil mask means every
// row is loaded; indexes past the end of a non-nil mask are not loaded.
type Window[R any] struct {
	Rows   []R
	Loaded []bool
}

func (w Window[R]) Len() int { return len(w.Rows) }

func (w Window[R]) Row(i int) (R, bool) {
	var zero R
	if i < 0 || i >= len(w.Rows) {
		return zero, false
	}
	if w.Loaded != nil && (i >= len(w.Loaded) || !w.Loaded[i]) {
		return zero, false
	}
	return w.Rows[i], true
}
