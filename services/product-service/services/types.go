package services

import (
	"context"
	"time"

	awspkg "github.com/groceazy/backend/pkg/aws"
	"github.com/groceazy/backend/pkg/catalog"
)

// ListProductsParams contains parameters for listing products with filters.
type ListProductsParams struct {
	Page       int
	Limit      int
	CategoryID string
	Active     *bool
}

// OfferSource returns the offers promotion-service currently considers active.
type OfferSource interface {
	ActiveOffers(ctx context.Context) ([]catalog.Offer, error)
}

// ImagePresigner issues direct-upload URLs for product images.
type ImagePresigner interface {
	PresignPut(ctx context.Context, key, contentType string, expiry time.Duration) (*awspkg.PresignedUpload, error)
}

// ImageUpload is a presigned PUT plus the URL the object will be served from.
type ImageUpload struct {
	*awspkg.PresignedUpload
	PublicURL string `json:"publicUrl"`
}
