package catalog

import "time"

// OfferType selects how DiscountValue is interpreted.
type OfferType string

const (
	OfferTypePercentage OfferType = "percentage"
	OfferTypeFixed      OfferType = "fixed"
)

// Valid reports whether t is a known offer type.
func (t OfferType) Valid() bool {
	return t == OfferTypePercentage || t == OfferTypeFixed
}

// Offer is a promotional rule granting a percentage or fixed discount to
// qualifying products.
type Offer struct {
	ID                   string    `json:"_id"`
	Title                string    `json:"title"`
	OfferType            OfferType `json:"offerType"`
	DiscountValue        float64   `json:"discountValue"`
	MaxDiscountAmount    *float64  `json:"maxDiscountAmount,omitempty"`
	ApplicableProducts   RefSet    `json:"applicableProducts"`
	ApplicableCategories RefSet    `json:"applicableCategories"`
	ExcludedProducts     RefSet    `json:"excludedProducts"`
	StartDate            time.Time `json:"startDate"`
	EndDate              time.Time `json:"endDate"`
	IsActive             bool      `json:"isActive"`
}

// ActiveAt reports whether the offer is switched on and inside its date window.
// A zero EndDate means the offer never expires.
func (o *Offer) ActiveAt(now time.Time) bool {
	if !o.IsActive {
		return false
	}
	if !o.StartDate.IsZero() && now.Before(o.StartDate) {
		return false
	}
	if !o.EndDate.IsZero() && now.After(o.EndDate) {
		return false
	}
	return true
}

// AppliesTo reports whether the offer targets p. Exclusion always wins over
// product or category inclusion.
func (o *Offer) AppliesTo(p *Product) bool {
	if p == nil {
		return false
	}
	if o.ExcludedProducts.Contains(p.ID) {
		return false
	}
	return o.ApplicableProducts.Contains(p.ID) || o.ApplicableCategories.Contains(p.CategoryID.ID)
}
