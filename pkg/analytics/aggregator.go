// Package analytics derives dashboard summaries from a flat product list.
package analytics

import (
	"math"
	"time"

	"github.com/groceazy/backend/pkg/catalog"
	"github.com/shopspring/decimal"
)

// MonthLabelLayout renders bucket labels such as "Jan 2024".
const MonthLabelLayout = "Jan 2006"

// StockHealth is the stock bucket a product falls into.
type StockHealth string

const (
	StockHealthy    StockHealth = "healthy"
	StockLow        StockHealth = "low"
	StockOutOfStock StockHealth = "out"
)

// Classify buckets p by comparing its stock to its low-stock threshold.
func Classify(p *catalog.Product) StockHealth {
	switch {
	case p.Stock <= 0:
		return StockOutOfStock
	case p.Stock <= p.Threshold():
		return StockLow
	default:
		return StockHealthy
	}
}

// MonthBucket groups the active products created in one calendar month.
type MonthBucket struct {
	Label    string            `json:"label"`
	Revenue  float64           `json:"revenue"`
	Products []catalog.Product `json:"products"`
}

// RevenueBar is a chart-ready projection of monthly revenue.
type RevenueBar struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// ProductStatus counts active against inactive products.
type ProductStatus struct {
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
}

// InventoryHealth counts active products per stock bucket.
type InventoryHealth struct {
	Healthy int `json:"healthy"`
	Low     int `json:"low"`
	Out     int `json:"out"`
}

// Charts bundles the chart-ready projections of a Summary.
type Charts struct {
	RevenueBar      RevenueBar      `json:"revenueBar"`
	ProductStatus   ProductStatus   `json:"productStatus"`
	InventoryHealth InventoryHealth `json:"inventoryHealth"`
}

// Summary is the dashboard view of a product list.
type Summary struct {
	Revenue            float64           `json:"revenue"`
	ActiveProducts     int               `json:"activeProducts"`
	LowStock           int               `json:"lowStock"`
	OutOfStock         int               `json:"outOfStock"`
	LowStockProducts   []catalog.Product `json:"lowStockProducts"`
	OutOfStockProducts []catalog.Product `json:"outOfStockProducts"`
	HealthyProducts    []catalog.Product `json:"healthyProducts"`
	ActiveProductList  []catalog.Product `json:"activeProductList"`
	InactiveProducts   []catalog.Product `json:"inactiveProducts"`
	MonthlyProducts    []MonthBucket     `json:"monthlyProducts"`
	Charts             Charts            `json:"charts"`
}

// Build aggregates products in a single pass. Soft-deleted products are
// ignored, inactive products are only listed, and active products feed the
// revenue, month and stock-health figures. Months are ordered by first
// appearance; products without a creation time are not bucketed.
func Build(products []catalog.Product) *Summary {
	s := &Summary{
		LowStockProducts:   []catalog.Product{},
		OutOfStockProducts: []catalog.Product{},
		HealthyProducts:    []catalog.Product{},
		ActiveProductList:  []catalog.Product{},
		InactiveProducts:   []catalog.Product{},
		MonthlyProducts:    []MonthBucket{},
	}

	revenue := decimal.Zero
	monthRevenue := make([]decimal.Decimal, 0)
	monthIdx := make(map[string]int)

	for i := range products {
		p := products[i]
		if p.IsDeleted {
			continue
		}
		if !p.IsActive {
			s.InactiveProducts = append(s.InactiveProducts, p)
			continue
		}

		s.ActiveProductList = append(s.ActiveProductList, p)
		value := stockValue(&p)
		revenue = revenue.Add(value)

		if !p.CreatedAt.IsZero() {
			label := monthLabel(p.CreatedAt)
			idx, ok := monthIdx[label]
			if !ok {
				idx = len(s.MonthlyProducts)
				monthIdx[label] = idx
				s.MonthlyProducts = append(s.MonthlyProducts, MonthBucket{Label: label, Products: []catalog.Product{}})
				monthRevenue = append(monthRevenue, decimal.Zero)
			}
			s.MonthlyProducts[idx].Products = append(s.MonthlyProducts[idx].Products, p)
			monthRevenue[idx] = monthRevenue[idx].Add(value)
		}

		switch Classify(&p) {
		case StockOutOfStock:
			s.OutOfStockProducts = append(s.OutOfStockProducts, p)
		case StockLow:
			s.LowStockProducts = append(s.LowStockProducts, p)
		default:
			s.HealthyProducts = append(s.HealthyProducts, p)
		}
	}

	s.Revenue = revenue.Round(2).InexactFloat64()
	s.ActiveProducts = len(s.ActiveProductList)
	s.LowStock = len(s.LowStockProducts)
	s.OutOfStock = len(s.OutOfStockProducts)

	bar := RevenueBar{
		Labels: make([]string, 0, len(s.MonthlyProducts)),
		Values: make([]float64, 0, len(s.MonthlyProducts)),
	}
	for i := range s.MonthlyProducts {
		v := monthRevenue[i].Round(2).InexactFloat64()
		s.MonthlyProducts[i].Revenue = v
		bar.Labels = append(bar.Labels, s.MonthlyProducts[i].Label)
		bar.Values = append(bar.Values, v)
	}

	s.Charts = Charts{
		RevenueBar:    bar,
		ProductStatus: ProductStatus{Active: s.ActiveProducts, Inactive: len(s.InactiveProducts)},
		InventoryHealth: InventoryHealth{
			Healthy: len(s.HealthyProducts),
			Low:     s.LowStock,
			Out:     s.OutOfStock,
		},
	}
	return s
}

func monthLabel(t time.Time) string {
	return t.UTC().Format(MonthLabelLayout)
}

// stockValue is price*stock, treating unrepresentable prices as zero.
func stockValue(p *catalog.Product) decimal.Decimal {
	if !(p.Price > 0) || math.IsInf(p.Price, 1) || p.Stock <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(p.Price).Mul(decimal.NewFromInt(int64(p.Stock)))
}
