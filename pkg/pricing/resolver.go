// Package pricing selects the best promotional offer for a product and
// computes the resulting discounted price.
package pricing

import (
	"math"

	"github.com/groceazy/backend/pkg/catalog"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// PriceResult is the outcome of pricing one product against the active offers.
type PriceResult struct {
	OriginalPrice      float64        `json:"originalPrice"`
	DiscountedPrice    float64        `json:"discountedPrice"`
	DiscountAmount     float64        `json:"discountAmount"`
	DiscountPercentage int            `json:"discountPercentage"`
	AppliedOffer       *catalog.Offer `json:"appliedOffer"`
}

// DiscountAmount returns the discount a single rule grants against base,
// clamped to [0, base]. A maxDiscount <= 0 means the percentage is uncapped.
// Unknown rule kinds grant nothing.
func DiscountAmount(kind catalog.OfferType, value float64, maxDiscount *float64, base float64) float64 {
	if !positive(base) || !positive(value) {
		return 0
	}
	b := decimal.NewFromFloat(base)

	var d decimal.Decimal
	switch kind {
	case catalog.OfferTypePercentage:
		d = percentOf(b, value, maxDiscount)
	case catalog.OfferTypeFixed:
		d = decimal.NewFromFloat(value)
	default:
		return 0
	}

	if d.GreaterThan(b) {
		d = b
	}
	return d.InexactFloat64()
}

// GetBestOffer returns the applicable offer ranking highest for product, or
// nil when none applies. Two percentage offers rank by their raw percentage;
// otherwise offers rank by uncapped monetary savings against product.Price.
// The first maximal offer in input order wins ties. The returned offer is a
// copy.
func GetBestOffer(product *catalog.Product, active []catalog.Offer) *catalog.Offer {
	if product == nil || len(active) == 0 {
		return nil
	}

	bestIdx := -1
	for i := range active {
		if !active[i].AppliesTo(product) {
			continue
		}
		if bestIdx == -1 || outranks(&active[i], &active[bestIdx], product.Price) {
			bestIdx = i
		}
	}

	if bestIdx == -1 {
		return nil
	}
	best := active[bestIdx]
	return &best
}

// CalculateProductPrice prices product against the active offers. A nil
// product yields the zero result; no applicable offer yields the original
// price with no discount.
func CalculateProductPrice(product *catalog.Product, active []catalog.Offer) PriceResult {
	if product == nil {
		return PriceResult{}
	}

	original := product.Price
	result := PriceResult{
		OriginalPrice:   original,
		DiscountedPrice: original,
	}
	if math.IsNaN(original) || math.IsInf(original, 0) {
		return result
	}

	offer := GetBestOffer(product, active)
	if offer == nil {
		return result
	}

	amount := decimal.NewFromFloat(DiscountAmount(offer.OfferType, offer.DiscountValue, offer.MaxDiscountAmount, original))
	orig := decimal.NewFromFloat(original)

	discounted := orig.Sub(amount).Round(2)
	if discounted.GreaterThan(orig) {
		discounted = orig
	}
	if discounted.IsNegative() {
		discounted = decimal.Zero
	}

	result.DiscountAmount = amount.Round(2).InexactFloat64()
	result.DiscountedPrice = discounted.InexactFloat64()
	if orig.IsPositive() {
		result.DiscountPercentage = int(amount.Div(orig).Mul(hundred).Round(0).IntPart())
	}
	result.AppliedOffer = offer
	return result
}

// outranks reports whether a ranks strictly above b.
func outranks(a, b *catalog.Offer, price float64) bool {
	if a.OfferType == catalog.OfferTypePercentage && b.OfferType == catalog.OfferTypePercentage {
		return rankValue(a.DiscountValue).GreaterThan(rankValue(b.DiscountValue))
	}
	return savings(a, price).GreaterThan(savings(b, price))
}

// savings is the uncapped monetary value used in cross-type ranking: fixed
// offers save their face value, percentage offers their share of price.
func savings(o *catalog.Offer, price float64) decimal.Decimal {
	switch o.OfferType {
	case catalog.OfferTypeFixed:
		return rankValue(o.DiscountValue)
	case catalog.OfferTypePercentage:
		if positive(price) {
			return percentOf(decimal.NewFromFloat(price), rankValue(o.DiscountValue).InexactFloat64(), nil)
		}
	}
	return decimal.Zero
}

func rankValue(x float64) decimal.Decimal {
	if !positive(x) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(x)
}

func percentOf(base decimal.Decimal, percent float64, maxDiscount *float64) decimal.Decimal {
	d := base.Mul(decimal.NewFromFloat(percent)).Div(hundred)
	if maxDiscount != nil && positive(*maxDiscount) {
		if limit := decimal.NewFromFloat(*maxDiscount); d.GreaterThan(limit) {
			d = limit
		}
	}
	return d
}

// positive reports x > 0 and finite; decimal cannot represent NaN or Inf.
func positive(x float64) bool {
	return x > 0 && !math.IsInf(x, 1)
}
