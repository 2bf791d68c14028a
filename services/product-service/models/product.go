package models

import (
	"time"

	"github.com/groceazy/backend/pkg/catalog"
	"github.com/groceazy/backend/pkg/pricing"
)

// Product is a grocery catalog item as stored in DynamoDB.
type Product struct {
	ID                string    `json:"_id"`
	Name              string    `json:"name"`
	Description       string    `json:"description,omitempty"`
	Brand             string    `json:"brand,omitempty"`
	SKU               string    `json:"sku,omitempty"`
	Price             float64   `json:"price"`
	Stock             int       `json:"stock"`
	LowStockThreshold *int      `json:"lowStockThreshold,omitempty"`
	CategoryID        string    `json:"categoryId"`
	Images            []string  `json:"images"`
	IsActive          bool      `json:"isActive"`
	IsDeleted         bool      `json:"isDeleted"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// ToCatalog returns the view pricing and analytics work on.
func (p *Product) ToCatalog() catalog.Product {
	return catalog.Product{
		ID:                p.ID,
		Name:              p.Name,
		Price:             p.Price,
		Stock:             p.Stock,
		LowStockThreshold: p.LowStockThreshold,
		CategoryID:        catalog.NewRef(p.CategoryID),
		IsActive:          p.IsActive,
		IsDeleted:         p.IsDeleted,
		CreatedAt:         p.CreatedAt,
	}
}

// ProductRequest is the create/replace payload.
type ProductRequest struct {
	Name              string   `json:"name" validate:"required,min=2,max=200"`
	Description       string   `json:"description" validate:"max=2000"`
	Brand             string   `json:"brand" validate:"max=100"`
	SKU               string   `json:"sku" validate:"omitempty,alphanumunicode,max=64"`
	Price             float64  `json:"price" validate:"gte=0"`
	Stock             int      `json:"stock" validate:"gte=0"`
	LowStockThreshold *int     `json:"lowStockThreshold" validate:"omitempty,gte=0"`
	CategoryID        string   `json:"categoryId" validate:"required,max=64"`
	Images            []string `json:"images" validate:"max=10,dive,url"`
	IsActive          *bool    `json:"isActive"`
}

// Apply copies the request onto p.
func (r *ProductRequest) Apply(p *Product) {
	p.Name = r.Name
	p.Description = r.Description
	p.Brand = r.Brand
	p.SKU = r.SKU
	p.Price = r.Price
	p.Stock = r.Stock
	p.LowStockThreshold = r.LowStockThreshold
	p.CategoryID = r.CategoryID
	p.Images = r.Images
	if p.Images == nil {
		p.Images = []string{}
	}
	p.IsActive = true
	if r.IsActive != nil {
		p.IsActive = *r.IsActive
	}
}

// StockUpdateRequest sets the on-hand quantity and optionally the threshold.
type StockUpdateRequest struct {
	Stock             *int `json:"stock" validate:"required,gte=0"`
	LowStockThreshold *int `json:"lowStockThreshold" validate:"omitempty,gte=0"`
}

// ProductPrice is a product together with its best current offer price.
type ProductPrice struct {
	Product *Product            `json:"product"`
	Pricing pricing.PriceResult `json:"pricing"`
}
