package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	awspkg "github.com/groceazy/backend/pkg/aws"
	"github.com/groceazy/backend/pkg/catalog"
	"github.com/groceazy/backend/pkg/pricing"
	"github.com/groceazy/backend/services/promotion-service/models"
	"github.com/groceazy/backend/services/promotion-service/repository"
	"go.uber.org/zap"
)

// MaxPriceBatch bounds POST /offers/price.
const MaxPriceBatch = 200

// OfferService defines offer management and pricing.
type OfferService interface {
	CreateOffer(ctx context.Context, req *models.OfferRequest, createdBy string) (*models.Offer, *ServiceError)
	GetOffer(ctx context.Context, id string) (*models.Offer, *ServiceError)
	ListOffers(ctx context.Context, page, limit int) ([]models.Offer, int64, *ServiceError)
	UpdateOffer(ctx context.Context, id string, req *models.OfferRequest) (*models.Offer, *ServiceError)
	DeleteOffer(ctx context.Context, id string) *ServiceError
	ActiveOffers(ctx context.Context) ([]catalog.Offer, *ServiceError)
	PriceProducts(ctx context.Context, products []catalog.Product) ([]pricing.PriceResult, *ServiceError)
}

type offerServiceImpl struct {
	repo    repository.OfferRepository
	cache   ActiveOfferCache
	events  eventPublisher
	metrics awspkg.MetricsRecorder
	logger  *zap.Logger
	now     func() time.Time
}

// NewOfferService wires the offer service. cache and metrics may be nil.
func NewOfferService(
	repo repository.OfferRepository,
	cache ActiveOfferCache,
	snsClient awspkg.SNSPublisher,
	snsTopicArn string,
	metrics awspkg.MetricsRecorder,
	logger *zap.Logger,
) OfferService {
	return &offerServiceImpl{
		repo:    repo,
		cache:   cache,
		events:  eventPublisher{sns: snsClient, topicArn: snsTopicArn, logger: logger},
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

func validateOffer(req *models.OfferRequest) *ServiceError {
	if !req.OfferType.Valid() {
		return badRequest("offerType must be percentage or fixed")
	}
	if req.DiscountValue < 0 {
		return badRequest("discountValue must not be negative")
	}
	if req.OfferType == catalog.OfferTypePercentage && req.DiscountValue > 100 {
		return badRequest("Percentage discount cannot exceed 100")
	}
	if !req.EndDate.After(req.StartDate) {
		return badRequest("endDate must be after startDate")
	}
	if len(req.ApplicableProducts) == 0 && len(req.ApplicableCategories) == 0 {
		return badRequest("Offer must target at least one product or category")
	}
	return nil
}

func parseOfferID(id string) (uuid.UUID, *ServiceError) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, badRequest("Invalid offer id")
	}
	return uid, nil
}

func (s *offerServiceImpl) CreateOffer(ctx context.Context, req *models.OfferRequest, createdBy string) (*models.Offer, *ServiceError) {
	if svcErr := validateOffer(req); svcErr != nil {
		return nil, svcErr
	}

	offer := &models.Offer{CreatedBy: createdBy}
	req.Apply(offer)

	if err := s.repo.Create(ctx, offer); err != nil {
		s.logger.Error("Failed to create offer", zap.Error(err))
		return nil, internal("Failed to create offer")
	}

	s.afterWrite(ctx, models.EventOfferCreated, offer)
	if metricsOn(s.metrics) {
		_ = s.metrics.RecordCount(ctx, awspkg.MetricOffersCreated, map[string]string{"OfferType": string(offer.OfferType)})
	}
	s.logger.Info("Offer created", zap.String("offer_id", offer.ID.String()), zap.String("type", string(offer.OfferType)))
	return offer, nil
}

func (s *offerServiceImpl) GetOffer(ctx context.Context, id string) (*models.Offer, *ServiceError) {
	uid, svcErr := parseOfferID(id)
	if svcErr != nil {
		return nil, svcErr
	}

	offer, err := s.repo.FindByID(ctx, uid)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("Offer not found")
	}
	if err != nil {
		s.logger.Error("Failed to load offer", zap.String("offer_id", id), zap.Error(err))
		return nil, internal("Failed to load offer")
	}
	return offer, nil
}

func (s *offerServiceImpl) ListOffers(ctx context.Context, page, limit int) ([]models.Offer, int64, *ServiceError) {
	offers, total, err := s.repo.FindAll(ctx, page, limit)
	if err != nil {
		s.logger.Error("Failed to list offers", zap.Error(err))
		return nil, 0, internal("Failed to list offers")
	}
	return offers, total, nil
}

func (s *offerServiceImpl) UpdateOffer(ctx context.Context, id string, req *models.OfferRequest) (*models.Offer, *ServiceError) {
	if svcErr := validateOffer(req); svcErr != nil {
		return nil, svcErr
	}

	offer, svcErr := s.GetOffer(ctx, id)
	if svcErr != nil {
		return nil, svcErr
	}
	req.Apply(offer)

	if err := s.repo.Update(ctx, offer); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("Offer not found")
		}
		s.logger.Error("Failed to update offer", zap.String("offer_id", id), zap.Error(err))
		return nil, internal("Failed to update offer")
	}

	s.afterWrite(ctx, models.EventOfferUpdated, offer)
	return offer, nil
}

func (s *offerServiceImpl) DeleteOffer(ctx context.Context, id string) *ServiceError {
	uid, svcErr := parseOfferID(id)
	if svcErr != nil {
		return svcErr
	}

	if err := s.repo.Delete(ctx, uid); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("Offer not found")
		}
		s.logger.Error("Failed to delete offer", zap.String("offer_id", id), zap.Error(err))
		return internal("Failed to delete offer")
	}

	s.afterWrite(ctx, models.EventOfferDeleted, &models.Offer{ID: uid})
	return nil
}

// ActiveOffers returns offers live right now. Cached lists are re-filtered
// against the clock so an offer never outlives its end date by the TTL.
func (s *offerServiceImpl) ActiveOffers(ctx context.Context) ([]catalog.Offer, *ServiceError) {
	now := s.now()

	var version int64
	if s.cache != nil {
		cached, v, ok := s.cache.Get(ctx)
		if ok {
			return filterActive(cached, now), nil
		}
		version = v
	}

	rows, err := s.repo.FindActive(ctx, now)
	if err != nil {
		s.logger.Error("Failed to load active offers", zap.Error(err))
		return nil, internal("Failed to load active offers")
	}

	offers := make([]catalog.Offer, 0, len(rows))
	for i := range rows {
		offers = append(offers, rows[i].ToCatalog())
	}
	if s.cache != nil {
		s.cache.Set(ctx, version, offers)
	}
	return offers, nil
}

// PriceProducts prices every product against one snapshot of the active offers.
func (s *offerServiceImpl) PriceProducts(ctx context.Context, products []catalog.Product) ([]pricing.PriceResult, *ServiceError) {
	if len(products) == 0 {
		return nil, badRequest("At least one product is required")
	}
	if len(products) > MaxPriceBatch {
		return nil, badRequest(fmt.Sprintf("At most %d products can be priced per request", MaxPriceBatch))
	}

	offers, svcErr := s.ActiveOffers(ctx)
	if svcErr != nil {
		return nil, svcErr
	}

	results := make([]pricing.PriceResult, len(products))
	for i := range products {
		results[i] = pricing.CalculateProductPrice(&products[i], offers)
	}
	if metricsOn(s.metrics) {
		_ = s.metrics.RecordValue(ctx, awspkg.MetricOfferPriceRequests, float64(len(products)), nil)
	}
	return results, nil
}

func (s *offerServiceImpl) afterWrite(ctx context.Context, eventType string, offer *models.Offer) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.Error("Failed to invalidate active offer cache", zap.Error(err))
		}
	}
	s.events.publish(ctx, eventType, models.OfferEvent{
		EventType: eventType,
		OfferID:   offer.ID.String(),
		Title:     offer.Title,
		Timestamp: s.now().UTC(),
	})
}

func filterActive(offers []catalog.Offer, now time.Time) []catalog.Offer {
	live := make([]catalog.Offer, 0, len(offers))
	for i := range offers {
		if offers[i].ActiveAt(now) {
			live = append(live, offers[i])
		}
	}
	return live
}

func metricsOn(m awspkg.MetricsRecorder) bool {
	return m != nil && m.IsEnabled()
}
