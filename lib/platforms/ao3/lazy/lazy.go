// Package lazy holds values that are computed once from a backing
// document and kept until the owner explicitly clears them.
package lazy

import "sync"

// Cell is a compute-once slot. The zero value is empty and ready to use.
//
// Concurrent first reads block on each other so the compute function runs
// at most once until the next Reset. A failed computation is not stored.
type Cell[T any] struct {
	mu     sync.Mutex
	loaded bool
	value  T
}

// Get returns the stored value, computing and storing it first if the
// cell is empty.
func (c *Cell[T]) Get(compute func() (T, error)) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded {
		return c.value, nil
	}
	value, err := compute()
	if err != nil {
		var zero T
		return zero, err
	}
	c.value = value
	c.loaded = true
	return value, nil
}

// Value is Get for computations that cannot fail.
func (c *Cell[T]) Value(compute func() T) T {
	value, _ := c.Get(func() (T, error) {
		return compute(), nil
	})
	return value
}

// Set stores a value directly, replacing whatever was there.
func (c *Cell[T]) Set(value T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = value
	c.loaded = true
}

// Reset empties the cell without recomputing anything.
func (c *Cell[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	c.value = zero
	c.loaded = false
}

// Peek returns the stored value without computing it.
func (c *Cell[T]) Peek() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, c.loaded
}

func (c *Cell[T]) Loaded() bool {
	_, ok := c.Peek()
	return ok
}
