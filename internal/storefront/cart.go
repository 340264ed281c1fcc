package storefront

import "sync"

// Cart is the storefront's cart counter. It tracks a count only; items
// carry no identity and nothing is persisted.
type Cart struct {
	mu    sync.Mutex
	count int
}

// Add increments the counter and returns the new count.
func (c *Cart) Add() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
	return c.count
}

// Count returns the current count.
func (c *Cart) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}
