package catalog

import "time"

// DefaultLowStockThreshold applies when a product carries no threshold of its own.
const DefaultLowStockThreshold = 5

// Product is the catalog view of a product as consumed by pricing and analytics.
type Product struct {
	ID                string    `json:"_id"`
	Name              string    `json:"name"`
	Price             float64   `json:"price"`
	Stock             int       `json:"stock"`
	LowStockThreshold *int      `json:"lowStockThreshold,omitempty"`
	CategoryID        Ref       `json:"categoryId"`
	IsActive          bool      `json:"isActive"`
	IsDeleted         bool      `json:"isDeleted"`
	CreatedAt         time.Time `json:"createdAt"`
}

// Threshold returns the low-stock threshold, falling back to DefaultLowStockThreshold.
func (p *Product) Threshold() int {
	if p.LowStockThreshold == nil {
		return DefaultLowStockThreshold
	}
	return *p.LowStockThreshold
}
