package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/groceazy/backend/pkg/catalog"
	"gorm.io/gorm"
)

// Coupon is a code-entered offer with usage tracking. Its discount follows
// the same percentage/fixed rules as offers, applied to a cart total.
type Coupon struct {
	ID                uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"_id"`
	Code              string            `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`
	DiscountType      catalog.OfferType `gorm:"column:type;type:varchar(20);not null" json:"discountType"`
	DiscountValue     float64           `gorm:"column:value;not null" json:"discountValue"`
	MaxDiscountAmount *float64          `json:"maxDiscountAmount,omitempty"`
	MinOrderValue     float64           `gorm:"not null;default:0" json:"minOrderValue"`
	UsageLimit        int               `gorm:"not null;default:0" json:"usageLimit"` // 0 = unlimited
	UsedCount         int               `gorm:"not null;default:0" json:"usedCount"`
	ExpiresAt         time.Time         `gorm:"not null" json:"expiresAt"`
	IsActive          bool              `gorm:"column:active;not null;default:true" json:"isActive"`
	CreatedAt         time.Time         `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt         time.Time         `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt         gorm.DeletedAt    `gorm:"index" json:"-"`
}

// CreateCouponRequest is the payload for creating a new coupon.
type CreateCouponRequest struct {
	Code              string            `json:"code" binding:"required,min=3,max=64,alphanum"`
	DiscountType      catalog.OfferType `json:"discountType" binding:"required,oneof=percentage fixed"`
	DiscountValue     float64           `json:"discountValue" binding:"required,gt=0"`
	MaxDiscountAmount *float64          `json:"maxDiscountAmount" binding:"omitempty,gte=0"`
	MinOrderValue     float64           `json:"minOrderValue" binding:"gte=0"`
	UsageLimit        int               `json:"usageLimit" binding:"gte=0"`
	ExpiresAt         time.Time         `json:"expiresAt" binding:"required"`
}

// CouponCheckRequest is used by both validate (dry run) and apply.
type CouponCheckRequest struct {
	Code      string  `json:"code" binding:"required"`
	CartTotal float64 `json:"cartTotal" binding:"required,gt=0"`
}

// CouponCheckResponse reports whether a coupon can be used on a cart.
type CouponCheckResponse struct {
	Valid          bool              `json:"valid"`
	Code           string            `json:"code"`
	DiscountType   catalog.OfferType `json:"discountType,omitempty"`
	DiscountAmount float64           `json:"discountAmount"`
	FinalTotal     float64           `json:"finalTotal"`
	Message        string            `json:"message,omitempty"`
}

// CouponAppliedEvent is published to SNS when a coupon is successfully applied.
type CouponAppliedEvent struct {
	EventType      string    `json:"event_type"`
	CouponID       string    `json:"coupon_id"`
	CouponCode     string    `json:"coupon_code"`
	DiscountType   string    `json:"discount_type"`
	DiscountAmount float64   `json:"discount_amount"`
	CartTotal      float64   `json:"cart_total"`
	UserID         string    `json:"user_id,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

const EventCouponApplied = "coupon_applied"
