package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/groceazy/backend/pkg/analytics"
	awspkg "github.com/groceazy/backend/pkg/aws"
	"github.com/groceazy/backend/pkg/catalog"
	"github.com/groceazy/backend/pkg/pricing"
	apperrors "github.com/groceazy/backend/services/common/errors"
	"github.com/groceazy/backend/services/product-service/models"
	"github.com/groceazy/backend/services/product-service/repository"
	"go.uber.org/zap"
)

const (
	DefaultPresignExpiry = 15 * time.Minute
	MaxPresignExpiry     = time.Hour
	metricsTimeout       = 5 * time.Second
)

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ProductService is the catalog API the controllers depend on.
type ProductService interface {
	ListProducts(ctx context.Context, params ListProductsParams) ([]*models.Product, int, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	CreateProduct(ctx context.Context, req *models.ProductRequest) (*models.Product, error)
	UpdateProduct(ctx context.Context, id string, req *models.ProductRequest) (*models.Product, error)
	UpdateStock(ctx context.Context, id string, req *models.StockUpdateRequest) (*models.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	GetProductPrice(ctx context.Context, id string) (*models.ProductPrice, error)
	GetAnalytics(ctx context.Context) (*analytics.Summary, error)
	PresignImageUpload(ctx context.Context, productID, filename, contentType string, expiry time.Duration) (*ImageUpload, error)
}

type productService struct {
	repo          repository.ProductRepo
	cache         Cache
	offers        OfferSource
	presigner     ImagePresigner
	imagesBaseURL string
	metrics       awspkg.MetricsRecorder
	logger        *zap.Logger
	now           func() time.Time
}

// NewProductService wires the catalog service. cache, presigner and metrics
// may be nil.
func NewProductService(
	repo repository.ProductRepo,
	cache Cache,
	offers OfferSource,
	presigner ImagePresigner,
	imagesBaseURL string,
	metrics awspkg.MetricsRecorder,
	logger *zap.Logger,
) ProductService {
	return &productService{
		repo:          repo,
		cache:         cache,
		offers:        offers,
		presigner:     presigner,
		imagesBaseURL: strings.TrimRight(imagesBaseURL, "/"),
		metrics:       metrics,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *productService) ListProducts(ctx context.Context, params ListProductsParams) ([]*models.Product, int, error) {
	products, err := s.repo.Find(ctx, repository.ProductFilter{
		CategoryID: params.CategoryID,
		Active:     params.Active,
	})
	if err != nil {
		s.logger.Error("Failed to list products", zap.Error(err))
		return nil, 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	total := len(products)
	start := (params.Page - 1) * params.Limit
	if start >= total {
		return []*models.Product{}, total, nil
	}
	end := min(start+params.Limit, total)
	return products[start:end], total, nil
}

func (s *productService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.repoError(err, "get", id)
	}
	return product, nil
}

func (s *productService) CreateProduct(ctx context.Context, req *models.ProductRequest) (*models.Product, error) {
	now := s.now()
	product := &models.Product{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
	req.Apply(product)

	if err := s.repo.Create(ctx, product); err != nil {
		if errors.Is(err, repository.ErrExists) {
			return nil, apperrors.WithMessage(apperrors.ErrConflict, "Product already exists")
		}
		s.logger.Error("Failed to create product", zap.Error(err))
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.invalidate(ctx)
	s.recordAsync(func(ctx context.Context) error {
		return s.metrics.RecordCount(ctx, awspkg.MetricProductsCreated, map[string]string{"CategoryID": product.CategoryID})
	})
	s.logger.Info("Product created", zap.String("product_id", product.ID), zap.String("name", product.Name))
	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, id string, req *models.ProductRequest) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.repoError(err, "update", id)
	}

	req.Apply(product)
	product.UpdatedAt = s.now()
	if err := s.repo.Replace(ctx, product); err != nil {
		return nil, s.repoError(err, "update", id)
	}

	s.invalidate(ctx)
	return product, nil
}

func (s *productService) UpdateStock(ctx context.Context, id string, req *models.StockUpdateRequest) (*models.Product, error) {
	if req.Stock == nil || *req.Stock < 0 {
		return nil, apperrors.ErrInvalidStock
	}

	product, err := s.repo.UpdateStock(ctx, id, *req.Stock, req.LowStockThreshold, s.now())
	if err != nil {
		return nil, s.repoError(err, "update stock", id)
	}

	s.invalidate(ctx)
	if health := analytics.Classify(ptr(product.ToCatalog())); health != analytics.StockHealthy {
		s.logger.Info("Product stock needs attention",
			zap.String("product_id", id),
			zap.Int("stock", product.Stock),
			zap.String("health", string(health)),
		)
	}
	return product, nil
}

func (s *productService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.SoftDelete(ctx, id, s.now()); err != nil {
		return s.repoError(err, "delete", id)
	}
	s.invalidate(ctx)
	s.logger.Info("Product deleted", zap.String("product_id", id))
	return nil
}

// GetProductPrice prices one product against the active offers.
func (s *productService) GetProductPrice(ctx context.Context, id string) (*models.ProductPrice, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	offers, err := s.activeOffers(ctx)
	if err != nil {
		return nil, err
	}

	view := product.ToCatalog()
	return &models.ProductPrice{
		Product: product,
		Pricing: pricing.CalculateProductPrice(&view, offers),
	}, nil
}

func (s *productService) activeOffers(ctx context.Context) ([]catalog.Offer, error) {
	var offers []catalog.Offer
	var version int64
	cached := false
	if s.cache != nil {
		offers, version, cached = s.cache.GetActiveOffers(ctx)
	}
	s.recordCacheLookup("offers", cached)

	if !cached {
		fetched, err := s.offers.ActiveOffers(ctx)
		if err != nil {
			s.logger.Error("Failed to fetch active offers", zap.Error(err))
			return nil, apperrors.Wrap(apperrors.ErrBadGateway, err)
		}
		offers = fetched
		if s.cache != nil {
			s.cache.SetActiveOffersAsync(version, offers)
		}
	}

	// A cached list can outlive an offer's end date.
	now := s.now()
	live := make([]catalog.Offer, 0, len(offers))
	for i := range offers {
		if offers[i].ActiveAt(now) {
			live = append(live, offers[i])
		}
	}
	return live, nil
}

// GetAnalytics aggregates every stored product, including soft-deleted ones
// which the aggregator skips itself.
func (s *productService) GetAnalytics(ctx context.Context) (*analytics.Summary, error) {
	var version int64
	if s.cache != nil {
		summary, v, ok := s.cache.GetAnalytics(ctx)
		if ok {
			s.recordCacheLookup("analytics", true)
			return summary, nil
		}
		version = v
	}
	s.recordCacheLookup("analytics", false)

	products, err := s.repo.Find(ctx, repository.ProductFilter{IncludeDeleted: true})
	if err != nil {
		s.logger.Error("Failed to load products for analytics", zap.Error(err))
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	views := make([]catalog.Product, len(products))
	for i, p := range products {
		views[i] = p.ToCatalog()
	}
	summary := analytics.Build(views)

	if s.cache != nil {
		s.cache.SetAnalyticsAsync(version, summary)
	}
	s.recordAsync(func(ctx context.Context) error {
		if err := s.metrics.RecordValue(ctx, awspkg.MetricInventoryLow, float64(summary.LowStock), nil); err != nil {
			return err
		}
		if err := s.metrics.RecordValue(ctx, awspkg.MetricInventoryOut, float64(summary.OutOfStock), nil); err != nil {
			return err
		}
		return s.metrics.RecordValue(ctx, awspkg.MetricInventoryValue, summary.Revenue, nil)
	})
	return summary, nil
}

// PresignImageUpload issues a PUT URL for a new image of an existing product.
func (s *productService) PresignImageUpload(ctx context.Context, productID, filename, contentType string, expiry time.Duration) (*ImageUpload, error) {
	if s.presigner == nil {
		return nil, apperrors.WithMessage(apperrors.ErrServiceUnavailable, "Image uploads are not configured")
	}
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput,
			fmt.Sprintf("Invalid content type. Allowed: %s", strings.Join(AllowedImageTypes(), ", ")))
	}
	if _, err := s.GetProduct(ctx, productID); err != nil {
		return nil, err
	}

	if expiry <= 0 {
		expiry = DefaultPresignExpiry
	}
	expiry = min(expiry, MaxPresignExpiry)

	if fileExt := strings.ToLower(path.Ext(filename)); fileExt != "" {
		ext = fileExt
	}
	key := fmt.Sprintf("products/%s/%s%s", productID, uuid.NewString(), ext)

	upload, err := s.presigner.PresignPut(ctx, key, contentType, expiry)
	if err != nil {
		s.logger.Error("Failed to presign image upload", zap.String("product_id", productID), zap.Error(err))
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := &ImageUpload{PresignedUpload: upload}
	if s.imagesBaseURL != "" {
		result.PublicURL = s.imagesBaseURL + "/" + key
	}
	return result, nil
}

// AllowedImageTypes lists the accepted upload content types.
func AllowedImageTypes() []string {
	return []string{"image/gif", "image/jpeg", "image/png", "image/webp"}
}

func (s *productService) repoError(err error, op, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.ErrProductNotFound
	}
	s.logger.Error("Product repository error", zap.String("op", op), zap.String("product_id", id), zap.Error(err))
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}

func (s *productService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("Failed to invalidate product cache", zap.Error(err))
	}
}

func (s *productService) recordCacheLookup(cache string, hit bool) {
	name := awspkg.MetricCacheMisses
	if hit {
		name = awspkg.MetricCacheHits
	}
	s.recordAsync(func(ctx context.Context) error {
		return s.metrics.RecordCount(ctx, name, map[string]string{"Cache": cache})
	})
}

func (s *productService) recordAsync(record func(ctx context.Context) error) {
	if s.metrics == nil || !s.metrics.IsEnabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsTimeout)
		defer cancel()
		if err := record(ctx); err != nil {
			s.logger.Debug("Failed to record metric", zap.Error(err))
		}
	}()
}

func ptr[T any](v T) *T { return &v }
