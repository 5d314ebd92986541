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

import (
	"maps"
	"slices"
)

// Expander reports whether a row is currently showing its detail panel.
type Expander[R any] interface {
	Expanded(row R) bool
}

// ExpansionSet tracks expanded rows by identity key rather than by value, so
// rows rebuilt between renders keep their expansion state. Create sets with
// NewExpansionSet; a zero value only supports the key methods, since it has
// no identity function.
type ExpansionSet[R any, K comparable] struct {
	identity func(R) K
	keys     map[K]struct{}
}

// NewExpansionSet creates a set keyed by identity, with the given rows
// already expanded.
func NewExpansionSet[R any, K comparable](identity func(R) K, expanded ...R) *ExpansionSet[R, K] {
	s := &ExpansionSet[R, K]{
		identity: identity,
		keys:     make(map[K]struct{}, len(expanded)),
	}
	for _, row := range expanded {
		s.Expand(row)
	}
	return s
}

// Expanded implements Expander. A nil set has nothing expanded.
func (s *ExpansionSet[R, K]) Expanded(row R) bool {
	if s == nil {
		return false
	}
	return s.HasKey(s.identity(row))
}

// HasKey reports whether the row with the given key is expanded.
func (s *ExpansionSet[R, K]) HasKey(key K) bool {
	if s == nil {
		return false
	}
	_, ok := s.keys[key]
	return ok
}

func (s *ExpansionSet[R, K]) Expand(row R) {
	s.ExpandKey(s.identity(row))
}

func (s *ExpansionSet[R, K]) ExpandKey(key K) {
	if s.keys == nil {
		s.keys = make(map[K]struct{})
	}
	s.keys[key] = struct{}{}
}

func (s *ExpansionSet[R, K]) Collapse(row R) {
	delete(s.keys, s.identity(row))
}

// CollapseKey removes a key directly, for rows that are not loaded.
func (s *ExpansionSet[R, K]) CollapseKey(key K) {
	delete(s.keys, key)
}

// Toggle flips the row's state and returns whether it is now expanded.
func (s *ExpansionSet[R, K]) Toggle(row R) bool {
	key := s.identity(row)
	if _, ok := s.keys[key]; ok {
		delete(s.keys, key)
		return false
	}
	s.ExpandKey(key)
	return true
}

// Set expands or collapses the row.
func (s *ExpansionSet[R, K]) Set(row R, expanded bool) {
	if expanded {
		s.Expand(row)
	} else {
		s.Collapse(row)
	}
}

func (s *ExpansionSet[R, K]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

func (s *ExpansionSet[R, K]) Clear() {
	clear(s.keys)
}

// Keys returns the expanded keys in no particular order.
func (s *ExpansionSet[R, K]) Keys() []K {
	if s == nil {
		return nil
	}
	return slices.Collect(maps.Keys(s.keys))
}
