package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/groceazy/backend/pkg/catalog"
	"gorm.io/gorm"
)

// Offer is a promotional rule stored in Postgres. Reference lists are kept
// as JSON arrays of ids.
type Offer struct {
	ID                   uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"_id"`
	Title                string            `gorm:"type:varchar(200);not null" json:"title"`
	Description          string            `gorm:"type:text" json:"description,omitempty"`
	OfferType            catalog.OfferType `gorm:"type:varchar(20);not null" json:"offerType"`
	DiscountValue        float64           `gorm:"not null" json:"discountValue"`
	MaxDiscountAmount    *float64          `json:"maxDiscountAmount,omitempty"`
	ApplicableProducts   []string          `gorm:"serializer:json;type:jsonb" json:"applicableProducts"`
	ApplicableCategories []string          `gorm:"serializer:json;type:jsonb" json:"applicableCategories"`
	ExcludedProducts     []string          `gorm:"serializer:json;type:jsonb" json:"excludedProducts"`
	StartDate            time.Time         `gorm:"not null;index" json:"startDate"`
	EndDate              time.Time         `gorm:"not null;index" json:"endDate"`
	IsActive             bool              `gorm:"not null;index" json:"isActive"`
	CreatedBy            string            `gorm:"type:varchar(64)" json:"createdBy,omitempty"`
	CreatedAt            time.Time         `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt            time.Time         `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt            gorm.DeletedAt    `gorm:"index" json:"-"`
}

// ToCatalog converts the stored row into the shape the pricing resolver works on.
func (o *Offer) ToCatalog() catalog.Offer {
	return catalog.Offer{
		ID:                   o.ID.String(),
		Title:                o.Title,
		OfferType:            o.OfferType,
		DiscountValue:        o.DiscountValue,
		MaxDiscountAmount:    o.MaxDiscountAmount,
		ApplicableProducts:   catalog.RefsFromIDs(o.ApplicableProducts),
		ApplicableCategories: catalog.RefsFromIDs(o.ApplicableCategories),
		ExcludedProducts:     catalog.RefsFromIDs(o.ExcludedProducts),
		StartDate:            o.StartDate,
		EndDate:              o.EndDate,
		IsActive:             o.IsActive,
	}
}

// OfferRequest is the create/update payload. Reference lists accept plain
// ids or embedded objects carrying an id.
type OfferRequest struct {
	Title                string            `json:"title" binding:"required,min=3,max=200"`
	Description          string            `json:"description" binding:"max=2000"`
	OfferType            catalog.OfferType `json:"offerType" binding:"required,oneof=percentage fixed"`
	DiscountValue        float64           `json:"discountValue" binding:"gte=0"`
	MaxDiscountAmount    *float64          `json:"maxDiscountAmount" binding:"omitempty,gte=0"`
	ApplicableProducts   catalog.RefSet    `json:"applicableProducts"`
	ApplicableCategories catalog.RefSet    `json:"applicableCategories"`
	ExcludedProducts     catalog.RefSet    `json:"excludedProducts"`
	StartDate            time.Time         `json:"startDate" binding:"required"`
	EndDate              time.Time         `json:"endDate" binding:"required"`
	IsActive             *bool             `json:"isActive"`
}

// Apply copies the request onto o.
func (r *OfferRequest) Apply(o *Offer) {
	o.Title = r.Title
	o.Description = r.Description
	o.OfferType = r.OfferType
	o.DiscountValue = r.DiscountValue
	o.MaxDiscountAmount = r.MaxDiscountAmount
	o.ApplicableProducts = r.ApplicableProducts.IDs()
	o.ApplicableCategories = r.ApplicableCategories.IDs()
	o.ExcludedProducts = r.ExcludedProducts.IDs()
	o.StartDate = r.StartDate
	o.EndDate = r.EndDate
	o.IsActive = true
	if r.IsActive != nil {
		o.IsActive = *r.IsActive
	}
}

// PriceRequest asks for prices of one product or a batch.
type PriceRequest struct {
	Product  *catalog.Product  `json:"product"`
	Products []catalog.Product `json:"products"`
}

// OfferEvent is published to SNS on every offer write.
type OfferEvent struct {
	EventType string    `json:"event_type"`
	OfferID   string    `json:"offer_id"`
	Title     string    `json:"title,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Offer event types.
const (
	EventOfferCreated = "offer_created"
	EventOfferUpdated = "offer_updated"
	EventOfferDeleted = "offer_deleted"
)
