// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package concurrent provides concurrency-safe data structures.
package concurrent

import "sync"

// Cache is a concurrency-safe map which never evicts entries. It is meant
// for memoizing values that are expensive to build and never change once
// built, e.g. compiled path templates.
type Cache[K comparable, V any] struct {
	mu   sync.RWMutex
	data map[K]V
}

// NewCache initializes an empty [Cache].
func NewCache[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{
		data: make(map[K]V),
	}
}

// Get
func (c *Cache[K, V]) Get(k K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.data[k]
	return v, ok
}

// GetOr returns the cached value for k or builds, stores and returns it
// with f. Values f fails to build are not stored. At most one f runs at
// a time.
func (c *Cache[K, V]) GetOr(k K, f func() (V, error)) (V, error) {
	v, ok := c.Get(k)
	if ok {
		return v, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok = c.data[k]
	if ok {
		return v, nil
	}

	v, err := f()
	if err != nil {
		return v, err
	}

	c.data[k] = v
	return v, nil
}

// Len
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.data)
}
