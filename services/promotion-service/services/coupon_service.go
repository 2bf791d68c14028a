package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	awspkg "github.com/groceazy/backend/pkg/aws"
	"github.com/groceazy/backend/pkg/catalog"
	"github.com/groceazy/backend/pkg/pricing"
	"github.com/groceazy/backend/services/promotion-service/models"
	"github.com/groceazy/backend/services/promotion-service/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CouponService defines the interface for coupon business logic.
type CouponService interface {
	CreateCoupon(ctx context.Context, req *models.CreateCouponRequest) (*models.Coupon, *ServiceError)
	ValidateCoupon(ctx context.Context, req *models.CouponCheckRequest) (*models.CouponCheckResponse, *ServiceError)
	ApplyCoupon(ctx context.Context, req *models.CouponCheckRequest, userID string) (*models.CouponCheckResponse, *ServiceError)
	GetCoupon(ctx context.Context, code string) (*models.Coupon, *ServiceError)
	DeactivateCoupon(ctx context.Context, code string) *ServiceError
	ListCoupons(ctx context.Context, page, limit int) ([]models.Coupon, int64, *ServiceError)
}

type couponServiceImpl struct {
	repo    repository.CouponRepository
	events  eventPublisher
	metrics awspkg.MetricsRecorder
	logger  *zap.Logger
	now     func() time.Time
}

// NewCouponService creates a new CouponService. metrics may be nil.
func NewCouponService(
	repo repository.CouponRepository,
	snsClient awspkg.SNSPublisher,
	snsTopicArn string,
	metrics awspkg.MetricsRecorder,
	logger *zap.Logger,
) CouponService {
	return &couponServiceImpl{
		repo:    repo,
		events:  eventPublisher{sns: snsClient, topicArn: snsTopicArn, logger: logger},
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *couponServiceImpl) CreateCoupon(ctx context.Context, req *models.CreateCouponRequest) (*models.Coupon, *ServiceError) {
	if !req.ExpiresAt.After(s.now()) {
		return nil, badRequest("Expiry date must be in the future")
	}
	if !req.DiscountType.Valid() {
		return nil, badRequest("discountType must be percentage or fixed")
	}
	if req.DiscountType == catalog.OfferTypePercentage && req.DiscountValue > 100 {
		return nil, badRequest("Percentage discount cannot exceed 100")
	}

	coupon := &models.Coupon{
		Code:              strings.ToUpper(strings.TrimSpace(req.Code)),
		DiscountType:      req.DiscountType,
		DiscountValue:     req.DiscountValue,
		MaxDiscountAmount: req.MaxDiscountAmount,
		MinOrderValue:     req.MinOrderValue,
		UsageLimit:        req.UsageLimit,
		ExpiresAt:         req.ExpiresAt,
		IsActive:          true,
	}

	if err := s.repo.Create(ctx, coupon); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &ServiceError{StatusCode: http.StatusConflict, Message: "Coupon code already exists"}
		}
		s.logger.Error("Failed to create coupon", zap.Error(err))
		return nil, internal("Failed to create coupon")
	}

	s.logger.Info("Coupon created", zap.String("code", coupon.Code), zap.String("type", string(coupon.DiscountType)))
	return coupon, nil
}

// ValidateCoupon is a dry run: it reports the discount without consuming a use.
func (s *couponServiceImpl) ValidateCoupon(ctx context.Context, req *models.CouponCheckRequest) (*models.CouponCheckResponse, *ServiceError) {
	_, resp, svcErr := s.check(ctx, req)
	return resp, svcErr
}

// ApplyCoupon validates, consumes one use and publishes coupon_applied.
func (s *couponServiceImpl) ApplyCoupon(ctx context.Context, req *models.CouponCheckRequest, userID string) (*models.CouponCheckResponse, *ServiceError) {
	coupon, resp, svcErr := s.check(ctx, req)
	if svcErr != nil || !resp.Valid {
		s.recordRejection(ctx, resp)
		return resp, svcErr
	}

	if err := s.repo.IncrementUsedCount(ctx, coupon.Code); err != nil {
		if errors.Is(err, repository.ErrUsageExhausted) {
			resp = invalid(req.Code, req.CartTotal, "Coupon usage limit reached")
			s.recordRejection(ctx, resp)
			return resp, nil
		}
		s.logger.Error("Failed to increment coupon usage", zap.String("code", coupon.Code), zap.Error(err))
		return nil, internal("Failed to apply coupon")
	}

	s.events.publish(ctx, models.EventCouponApplied, models.CouponAppliedEvent{
		EventType:      models.EventCouponApplied,
		CouponID:       coupon.ID.String(),
		CouponCode:     coupon.Code,
		DiscountType:   string(coupon.DiscountType),
		DiscountAmount: resp.DiscountAmount,
		CartTotal:      req.CartTotal,
		UserID:         userID,
		Timestamp:      s.now().UTC(),
	})
	if metricsOn(s.metrics) {
		_ = s.metrics.RecordCount(ctx, awspkg.MetricCouponsApplied, map[string]string{"DiscountType": string(coupon.DiscountType)})
	}

	resp.Message = "Coupon applied successfully"
	return resp, nil
}

// check runs every eligibility rule in order and prices the coupon against
// the cart total. Ineligible coupons yield a response with Valid=false.
func (s *couponServiceImpl) check(ctx context.Context, req *models.CouponCheckRequest) (*models.Coupon, *models.CouponCheckResponse, *ServiceError) {
	coupon, err := s.repo.FindByCode(ctx, req.Code)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, invalid(req.Code, req.CartTotal, "Coupon not found or inactive"), nil
	}
	if err != nil {
		s.logger.Error("Failed to load coupon", zap.String("code", req.Code), zap.Error(err))
		return nil, nil, internal("Failed to validate coupon")
	}

	switch {
	case s.now().After(coupon.ExpiresAt):
		return coupon, invalid(coupon.Code, req.CartTotal, "Coupon has expired"), nil
	case coupon.UsageLimit > 0 && coupon.UsedCount >= coupon.UsageLimit:
		return coupon, invalid(coupon.Code, req.CartTotal, "Coupon usage limit reached"), nil
	case req.CartTotal < coupon.MinOrderValue:
		return coupon, invalid(coupon.Code, req.CartTotal, fmt.Sprintf("Minimum order value of %.2f required", coupon.MinOrderValue)), nil
	}

	total := decimal.NewFromFloat(req.CartTotal)
	discount := decimal.NewFromFloat(
		pricing.DiscountAmount(coupon.DiscountType, coupon.DiscountValue, coupon.MaxDiscountAmount, req.CartTotal),
	).Round(2)
	if discount.GreaterThan(total) {
		discount = total
	}

	return coupon, &models.CouponCheckResponse{
		Valid:          true,
		Code:           coupon.Code,
		DiscountType:   coupon.DiscountType,
		DiscountAmount: discount.InexactFloat64(),
		FinalTotal:     total.Sub(discount).Round(2).InexactFloat64(),
		Message:        "Coupon is valid",
	}, nil
}

func invalid(code string, cartTotal float64, msg string) *models.CouponCheckResponse {
	return &models.CouponCheckResponse{
		Valid:      false,
		Code:       code,
		FinalTotal: cartTotal,
		Message:    msg,
	}
}

func (s *couponServiceImpl) recordRejection(ctx context.Context, resp *models.CouponCheckResponse) {
	if resp == nil || resp.Valid {
		return
	}
	s.logger.Info("Coupon rejected", zap.String("code", resp.Code), zap.String("reason", resp.Message))
	if metricsOn(s.metrics) {
		_ = s.metrics.RecordCount(ctx, awspkg.MetricCouponsRejected, nil)
	}
}

// GetCoupon retrieves a coupon by code.
func (s *couponServiceImpl) GetCoupon(ctx context.Context, code string) (*models.Coupon, *ServiceError) {
	coupon, err := s.repo.FindByCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("Coupon not found")
	}
	if err != nil {
		s.logger.Error("Failed to load coupon", zap.String("code", code), zap.Error(err))
		return nil, internal("Failed to load coupon")
	}
	return coupon, nil
}

// DeactivateCoupon deactivates a coupon by code.
func (s *couponServiceImpl) DeactivateCoupon(ctx context.Context, code string) *ServiceError {
	if err := s.repo.Deactivate(ctx, code); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("Coupon not found")
		}
		s.logger.Error("Failed to deactivate coupon", zap.String("code", code), zap.Error(err))
		return internal("Failed to deactivate coupon")
	}

	s.logger.Info("Coupon deactivated", zap.String("code", code))
	return nil
}

// ListCoupons returns paginated coupons.
func (s *couponServiceImpl) ListCoupons(ctx context.Context, page, limit int) ([]models.Coupon, int64, *ServiceError) {
	coupons, total, err := s.repo.FindAll(ctx, page, limit)
	if err != nil {
		s.logger.Error("Failed to list coupons", zap.Error(err))
		return nil, 0, internal("Failed to list coupons")
	}
	return coupons, total, nil
}
