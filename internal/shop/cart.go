// Package shop carries the peripheral storefront state: the shopping cart
// and the garment selection set feeding multi-item try-ons.
package shop

import (
	"sync"

	"vton/internal/domain"
)

// Cart is the shopping cart. Adding a garment already present bumps its
// quantity.
type Cart struct {
	mu    sync.Mutex
	items []domain.CartItem
}

func NewCart() *Cart {
	return &Cart{}
}

func (c *Cart) Add(g domain.Garment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].ID == g.ID {
			c.items[i].Quantity++
			return
		}
	}
	c.items = append(c.items, domain.CartItem{Garment: g, Quantity: 1})
}

func (c *Cart) Remove(garmentID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.items[:0]
	for _, item := range c.items {
		if item.ID != garmentID {
			out = append(out, item)
		}
	}
	c.items = out
}

func (c *Cart) Items() []domain.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.CartItem(nil), c.items...)
}
