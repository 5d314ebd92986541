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

// Package paging keeps a sparse, page-aligned copy of a row set that lives
// elsewhere (typically behind a server API). Pages are loaded lazily on
// demand; rows that are not loaded yet show up as gaps to the height cache.
package paging

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// ErrPageOutOfRange is returned when a page lies past the known total.
var ErrPageOutOfRange = errors.New("page out of range")

// Fetcher loads one page of rows and reports the total row count.
type Fetcher[R any] interface {
	FetchPage(ctx context.Context, page, size int) (rows []R, total int, err error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc[R any] func(ctx context.Context, page, size int) ([]R, int, error)

func (f FetcherFunc[R]) FetchPage(ctx context.Context, page, size int) ([]R, int, error) {
	return f(ctx, page, size)
}

// Store holds loaded pages. It implements heights.RowSource over the full
// logical row range, so a cache built from it sizes itself to Total and
// treats unloaded rows as gaps.
type Store[R any] struct {
	fetcher  Fetcher[R]
	pageSize int

	mu    sync.RWMutex
	pages map[int][]R
	total int
	known bool

	group singleflight.Group
}

// NewStore creates a store fetching pageSize rows at a time.
func NewStore[R any](fetcher Fetcher[R], pageSize int) *Store[R] {
	return &Store[R]{
		fetcher:  fetcher,
		pageSize: max(pageSize, 1),
		pages:    make(map[int][]R),
	}
}

func (s *Store[R]) PageSize() int {
	return s.pageSize
}

// Total returns the row count reported by the latest fetch, 0 before the
// first one.
func (s *Store[R]) Total() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}

// Len implements heights.RowSource.
func (s *Store[R]) Len() int {
	return s.Total()
}

// Row implements heights.RowSource. It never fetches.
func (s *Store[R]) Row(i int) (R, bool) {
	var zero R
	if i < 0 {
		return zero, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, ok := s.pages[i/s.pageSize]
	if !ok {
		return zero, false
	}
	k := i % s.pageSize
	if k >= len(rows) {
		return zero, false
	}
	return rows[k], true
}

// Loaded reports whether a page is held in memory.
func (s *Store[R]) Loaded(page int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.pages[page]
	return ok
}

// LoadedPages returns the number of pages held in memory.
func (s *Store[R]) LoadedPages() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pages)
}

// Evict drops a page. Its rows become gaps again.
func (s *Store[R]) Evict(page int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pages, page)
}

// Load fetches a page unless it is already held. Concurrent loads of the
// same page share one fetch.
func (s *Store[R]) Load(ctx context.Context, page int) error {
	if page < 0 {
		return fmt.Errorf("load page %d: %w", page, ErrPageOutOfRange)
	}
	s.mu.RLock()
	_, loaded := s.pages[page]
	outOfRange := s.known && page*s.pageSize >= s.total && page > 0
	s.mu.RUnlock()
	if loaded {
		return nil
	}
	if outOfRange {
		return fmt.Errorf("load page %d: %w", page, ErrPageOutOfRange)
	}

	_, err, _ := s.group.Do(strconv.Itoa(page), func() (interface{}, error) {
		rows, total, err := s.fetcher.FetchPage(ctx, page, s.pageSize)
		if err != nil {
			return nil, err
		}
		if len(rows) > s.pageSize {
			rows = rows[:s.pageSize]
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		s.pages[page] = rows
		s.total = max(total, page*s.pageSize+len(rows))
		s.known = true
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("load page %d: %w", page, err)
	}
	return nil
}

// LoadRange loads every page touching rows first..last-1, fetching missing
// pages concurrently.
func (s *Store[R]) LoadRange(ctx context.Context, first, last int) error {
	if last <= first {
		return nil
	}
	g, ctx := errgroup.WithContext(ctx)
	for page := max(first, 0) / s.pageSize; page <= (last-1)/s.pageSize; page++ {
		if s.Loaded(page) {
			continue
		}
		g.Go(func() error {
			return s.Load(ctx, page)
		})
	}
	return g.Wait()
}

// SliceFetcher serves pages from an in-memory slice.
type SliceFetcher[R any] []R

func (f SliceFetcher[R]) FetchPage(ctx context.Context, page, size int) ([]R, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	start := page * size
	if page < 0 || (start >= len(f) && page > 0) {
		return nil, len(f), ErrPageOutOfRange
	}
	end := min(start+size, len(f))
	return f[start:end], len(f), nil
}
