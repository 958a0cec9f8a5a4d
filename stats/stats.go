// Package stats aggregates summary statistics over accepted product rows.
package stats

import (
	"sync"

	"github.com/aluiziolira/go-scrape-products/models"
)

// Collector accumulates count, price range, and category distribution.
type Collector struct {
	mu         sync.Mutex
	count      int
	minPrice   float64
	maxPrice   float64
	totalPrice float64
	categories map[string]int
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{
		categories: make(map[string]int),
	}
}

// Observe folds one accepted row into the running aggregates.
// The price range is seeded from the first observed row.
func (c *Collector) Observe(p *models.Product) {
	if p == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.count == 0 {
		c.minPrice = p.Price
		c.maxPrice = p.Price
	} else {
		if p.Price < c.minPrice {
			c.minPrice = p.Price
		}
		if p.Price > c.maxPrice {
			c.maxPrice = p.Price
		}
	}

	c.count++
	c.totalPrice += p.Price
	c.categories[p.Category]++
}

// Finalize snapshots the current aggregates. It does not mutate the
// collector and may be called repeatedly.
func (c *Collector) Finalize() models.Statistics {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := models.Statistics{
		Count:          c.count,
		MinPrice:       c.minPrice,
		MaxPrice:       c.maxPrice,
		TotalPrice:     c.totalPrice,
		CategoryCounts: make(map[string]int, len(c.categories)),
	}
	for category, n := range c.categories {
		out.CategoryCounts[category] = n
	}
	return out
}
