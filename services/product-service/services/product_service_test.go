package services_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/groceazy/backend/pkg/analytics"
	awspkg "github.com/groceazy/backend/pkg/aws"
	"github.com/groceazy/backend/pkg/catalog"
	apperrors "github.com/groceazy/backend/services/common/errors"
	"github.com/groceazy/backend/services/product-service/models"
	"github.com/groceazy/backend/services/product-service/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	repo      *fakeRepo
	cache     *fakeCache
	offers    *fakeOffers
	presigner *fakePresigner
	metrics   *fakeMetrics
	svc       services.ProductService
}

func newFixture(products ...*models.Product) *fixture {
	f := &fixture{
		repo:      newFakeRepo(products...),
		cache:     &fakeCache{},
		offers:    &fakeOffers{},
		presigner: &fakePresigner{},
		metrics:   newFakeMetrics(),
	}
	f.svc = services.NewProductService(f.repo, f.cache, f.offers, f.presigner, "https://cdn.example.com/", f.metrics, zap.NewNop())
	return f
}

func statusOf(err error) int {
	return apperrors.From(err).Code
}

func TestListProducts_Paginates(t *testing.T) {
	f := newFixture(product("a", "fruit", 1, 5), product("b", "fruit", 2, 5), product("c", "dairy", 3, 5))
	ctx := context.Background()

	page, total, err := f.svc.ListProducts(ctx, services.ListProductsParams{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page, 1)
	assert.Equal(t, "c", page[0].ID)

	page, total, err = f.svc.ListProducts(ctx, services.ListProductsParams{Page: 5, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Empty(t, page)
}

func TestListProducts_PassesFilters(t *testing.T) {
	f := newFixture(product("a", "fruit", 1, 5), product("b", "dairy", 2, 5))
	active := true

	page, total, err := f.svc.ListProducts(context.Background(), services.ListProductsParams{
		Page: 1, Limit: 10, CategoryID: "fruit", Active: &active,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "a", page[0].ID)
	assert.Equal(t, "fruit", f.repo.lastFind.CategoryID)
	assert.False(t, f.repo.lastFind.IncludeDeleted)
}

func TestListProducts_RepoError(t *testing.T) {
	f := newFixture()
	f.repo.fail = errors.New("throttled")

	_, _, err := f.svc.ListProducts(context.Background(), services.ListProductsParams{Page: 1, Limit: 10})
	assert.Equal(t, http.StatusInternalServerError, statusOf(err))
}

func TestGetProduct_NotFound(t *testing.T) {
	f := newFixture()

	_, err := f.svc.GetProduct(context.Background(), "missing")
	assert.True(t, errors.Is(err, apperrors.ErrProductNotFound))
}

func TestCreateProduct(t *testing.T) {
	f := newFixture()

	p, err := f.svc.CreateProduct(context.Background(), &models.ProductRequest{
		Name:       "Basmati Rice 5kg",
		Price:      649,
		Stock:      40,
		CategoryID: "grains",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.True(t, p.IsActive)
	assert.Equal(t, []string{}, p.Images)
	assert.False(t, p.CreatedAt.IsZero())
	assert.Equal(t, p.CreatedAt, p.UpdatedAt)
	assert.Contains(t, f.repo.products, p.ID)
	assert.Equal(t, 1, f.cache.invalidated)
	assert.Eventually(t, func() bool {
		return f.metrics.count(awspkg.MetricProductsCreated) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestUpdateProduct_KeepsCreatedAt(t *testing.T) {
	orig := product("p1", "fruit", 10, 5)
	f := newFixture(orig)
	inactive := false

	p, err := f.svc.UpdateProduct(context.Background(), "p1", &models.ProductRequest{
		Name:       "Alphonso Mango",
		Price:      120,
		Stock:      8,
		CategoryID: "fruit",
		IsActive:   &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, "Alphonso Mango", p.Name)
	assert.False(t, p.IsActive)
	assert.Equal(t, orig.CreatedAt, p.CreatedAt)
	assert.True(t, p.UpdatedAt.After(orig.CreatedAt))
	assert.Equal(t, 120.0, f.repo.products["p1"].Price)
	assert.Equal(t, 1, f.cache.invalidated)
}

func TestUpdateProduct_NotFound(t *testing.T) {
	f := newFixture()

	_, err := f.svc.UpdateProduct(context.Background(), "nope", &models.ProductRequest{Name: "x", CategoryID: "c"})
	assert.Equal(t, http.StatusNotFound, statusOf(err))
	assert.Zero(t, f.cache.invalidated)
}

func TestUpdateStock(t *testing.T) {
	f := newFixture(product("p1", "fruit", 10, 50))

	p, err := f.svc.UpdateStock(context.Background(), "p1", &models.StockUpdateRequest{
		Stock:             intPtr(3),
		LowStockThreshold: intPtr(5),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, p.Stock)
	assert.Equal(t, 5, *p.LowStockThreshold)
	assert.Equal(t, 1, f.cache.invalidated)

	_, err = f.svc.UpdateStock(context.Background(), "p1", &models.StockUpdateRequest{Stock: intPtr(-1)})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidStock))

	_, err = f.svc.UpdateStock(context.Background(), "missing", &models.StockUpdateRequest{Stock: intPtr(1)})
	assert.Equal(t, http.StatusNotFound, statusOf(err))
}

func TestDeleteProduct(t *testing.T) {
	f := newFixture(product("p1", "fruit", 10, 5))
	ctx := context.Background()

	require.NoError(t, f.svc.DeleteProduct(ctx, "p1"))
	assert.True(t, f.repo.products["p1"].IsDeleted)
	assert.Equal(t, 1, f.cache.invalidated)

	_, err := f.svc.GetProduct(ctx, "p1")
	assert.Equal(t, http.StatusNotFound, statusOf(err))

	err = f.svc.DeleteProduct(ctx, "p1")
	assert.Equal(t, http.StatusNotFound, statusOf(err))
}

func TestGetProductPrice_FetchesThenCachesOffers(t *testing.T) {
	f := newFixture(product("p1", "fruit", 100, 5))
	f.offers.offers = []catalog.Offer{
		liveOffer("o1", catalog.OfferTypePercentage, 20, "p1"),
		liveOffer("o2", catalog.OfferTypeFixed, 5, "p1"),
	}
	ctx := context.Background()

	price, err := f.svc.GetProductPrice(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", price.Product.ID)
	assert.Equal(t, 100.0, price.Pricing.OriginalPrice)
	assert.Equal(t, 80.0, price.Pricing.DiscountedPrice)
	assert.Equal(t, 20.0, price.Pricing.DiscountAmount)
	assert.Equal(t, 20, price.Pricing.DiscountPercentage)
	require.NotNil(t, price.Pricing.AppliedOffer)
	assert.Equal(t, "o1", price.Pricing.AppliedOffer.ID)

	_, err = f.svc.GetProductPrice(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, f.offers.calls)
}

func TestGetProductPrice_DropsExpiredCachedOffers(t *testing.T) {
	f := newFixture(product("p1", "fruit", 100, 5))
	stale := liveOffer("o1", catalog.OfferTypePercentage, 50, "p1")
	stale.EndDate = time.Now().Add(-time.Minute)
	f.cache.offers = []catalog.Offer{stale}
	f.cache.hasOffers = true

	price, err := f.svc.GetProductPrice(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 100.0, price.Pricing.DiscountedPrice)
	assert.Nil(t, price.Pricing.AppliedOffer)
	assert.Zero(t, f.offers.calls)
}

func TestGetProductPrice_OffersInvalidatedDuringFetch(t *testing.T) {
	f := newFixture(product("p1", "fruit", 100, 5))
	f.offers.offers = []catalog.Offer{liveOffer("o1", catalog.OfferTypeFixed, 5, "p1")}
	f.offers.onFetch = func() {
		if f.offers.calls == 1 {
			require.NoError(t, f.cache.InvalidateOffers(context.Background()))
		}
	}
	ctx := context.Background()

	_, err := f.svc.GetProductPrice(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), f.cache.offersAt)

	_, err = f.svc.GetProductPrice(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, f.offers.calls)
	assert.Equal(t, int64(1), f.cache.offersAt)
}

func TestGetProductPrice_UpstreamFailure(t *testing.T) {
	f := newFixture(product("p1", "fruit", 100, 5))
	f.offers.err = errors.New("connection refused")

	_, err := f.svc.GetProductPrice(context.Background(), "p1")
	assert.Equal(t, http.StatusBadGateway, statusOf(err))
}

func TestGetProductPrice_UnknownProduct(t *testing.T) {
	f := newFixture()

	_, err := f.svc.GetProductPrice(context.Background(), "missing")
	assert.Equal(t, http.StatusNotFound, statusOf(err))
	assert.Zero(t, f.offers.calls)
}

func TestGetAnalytics_BuildsAndCaches(t *testing.T) {
	deleted := product("d", "fruit", 1000, 100)
	deleted.IsDeleted = true
	low := product("low", "fruit", 10, 3)
	out := product("out", "dairy", 20, 0)
	ok := product("ok", "dairy", 5, 100)
	f := newFixture(deleted, low, out, ok)
	ctx := context.Background()

	summary, err := f.svc.GetAnalytics(ctx)
	require.NoError(t, err)
	assert.True(t, f.repo.lastFind.IncludeDeleted)
	assert.Equal(t, 3, summary.ActiveProducts)
	assert.Equal(t, 1, summary.LowStock)
	assert.Equal(t, 1, summary.OutOfStock)
	assert.Equal(t, 530.0, summary.Revenue)

	assert.Eventually(t, func() bool {
		v, ok := f.metrics.value(awspkg.MetricInventoryValue)
		return ok && v == 530
	}, time.Second, 10*time.Millisecond)

	f.repo.fail = errors.New("should not be called")
	cached, err := f.svc.GetAnalytics(ctx)
	require.NoError(t, err)
	assert.Same(t, summary, cached)
}

func TestGetAnalytics_InvalidatedDuringLoad(t *testing.T) {
	f := newFixture(product("a", "fruit", 10, 50))
	ctx := context.Background()
	loads := 0
	f.repo.onFind = func() {
		loads++
		if loads == 1 {
			require.NoError(t, f.cache.Invalidate(ctx))
		}
	}

	_, err := f.svc.GetAnalytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), f.cache.summaryAt)

	_, err = f.svc.GetAnalytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
	assert.Equal(t, int64(1), f.cache.summaryAt)
}

func TestGetAnalytics_RepoError(t *testing.T) {
	f := newFixture()
	f.repo.fail = errors.New("throttled")

	_, err := f.svc.GetAnalytics(context.Background())
	assert.Equal(t, http.StatusInternalServerError, statusOf(err))
}

func TestGetAnalytics_WithoutCache(t *testing.T) {
	repo := newFakeRepo(product("a", "fruit", 10, 50))
	svc := services.NewProductService(repo, nil, &fakeOffers{}, nil, "", nil, zap.NewNop())

	summary, err := svc.GetAnalytics(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &analytics.Summary{}, summary)
	assert.Equal(t, 1, summary.ActiveProducts)
}

func TestPresignImageUpload(t *testing.T) {
	f := newFixture(product("p1", "fruit", 10, 5))

	upload, err := f.svc.PresignImageUpload(context.Background(), "p1", "Mango.PNG", "image/png", 2*time.Hour)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(upload.Key, "products/p1/"))
	assert.True(t, strings.HasSuffix(upload.Key, ".png"))
	assert.Equal(t, time.Hour, f.presigner.expiry)
	assert.Equal(t, "image/png", f.presigner.contentType)
	assert.Equal(t, "https://cdn.example.com/"+upload.Key, upload.PublicURL)
}

func TestPresignImageUpload_Rejects(t *testing.T) {
	f := newFixture(product("p1", "fruit", 10, 5))
	ctx := context.Background()

	_, err := f.svc.PresignImageUpload(ctx, "p1", "doc.pdf", "application/pdf", 0)
	assert.Equal(t, http.StatusBadRequest, statusOf(err))

	_, err = f.svc.PresignImageUpload(ctx, "missing", "a.jpg", "image/jpeg", 0)
	assert.Equal(t, http.StatusNotFound, statusOf(err))

	svc := services.NewProductService(f.repo, nil, f.offers, nil, "", nil, zap.NewNop())
	_, err = svc.PresignImageUpload(ctx, "p1", "a.jpg", "image/jpeg", 0)
	assert.Equal(t, http.StatusServiceUnavailable, statusOf(err))
}

func TestPresignImageUpload_DefaultExpiry(t *testing.T) {
	f := newFixture(product("p1", "fruit", 10, 5))

	upload, err := f.svc.PresignImageUpload(context.Background(), "p1", "", "image/jpeg", 0)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(upload.Key, ".jpg"))
	assert.Equal(t, services.DefaultPresignExpiry, f.presigner.expiry)
}
