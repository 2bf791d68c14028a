package services_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/groceazy/backend/pkg/analytics"
	awspkg "github.com/groceazy/backend/pkg/aws"
	"github.com/groceazy/backend/pkg/catalog"
	"github.com/groceazy/backend/services/product-service/models"
	"github.com/groceazy/backend/services/product-service/repository"
)

// --- Product repository ---

type fakeRepo struct {
	products map[string]*models.Product
	lastFind repository.ProductFilter
	fail     error
	onFind   func()
}

func newFakeRepo(products ...*models.Product) *fakeRepo {
	r := &fakeRepo{products: map[string]*models.Product{}}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *fakeRepo) FindByID(_ context.Context, id string) (*models.Product, error) {
	if r.fail != nil {
		return nil, r.fail
	}
	p, ok := r.products[id]
	if !ok || p.IsDeleted {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeRepo) Find(_ context.Context, filter repository.ProductFilter) ([]*models.Product, error) {
	r.lastFind = filter
	if r.onFind != nil {
		r.onFind()
	}
	if r.fail != nil {
		return nil, r.fail
	}
	out := []*models.Product{}
	for _, p := range r.products {
		if p.IsDeleted && !filter.IncludeDeleted {
			continue
		}
		if filter.CategoryID != "" && p.CategoryID != filter.CategoryID {
			continue
		}
		if filter.Active != nil && p.IsActive != *filter.Active {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeRepo) Create(_ context.Context, p *models.Product) error {
	if _, ok := r.products[p.ID]; ok {
		return repository.ErrExists
	}
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *fakeRepo) Replace(_ context.Context, p *models.Product) error {
	if _, ok := r.products[p.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *fakeRepo) UpdateStock(_ context.Context, id string, stock int, threshold *int, now time.Time) (*models.Product, error) {
	p, ok := r.products[id]
	if !ok || p.IsDeleted {
		return nil, repository.ErrNotFound
	}
	p.Stock = stock
	if threshold != nil {
		p.LowStockThreshold = threshold
	}
	p.UpdatedAt = now
	cp := *p
	return &cp, nil
}

func (r *fakeRepo) SoftDelete(_ context.Context, id string, now time.Time) error {
	p, ok := r.products[id]
	if !ok || p.IsDeleted {
		return repository.ErrNotFound
	}
	p.IsDeleted = true
	p.IsActive = false
	p.UpdatedAt = now
	return nil
}

// --- Cache ---

type fakeCache struct {
	mu               sync.Mutex
	summary          *analytics.Summary
	summaryAt        int64
	analyticsVersion int64
	offers           []catalog.Offer
	hasOffers        bool
	offersAt         int64
	offersVersion    int64
	invalidated      int
	offersDropped    int
	failOffers       bool
}

func (c *fakeCache) GetAnalytics(context.Context) (*analytics.Summary, int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.summary == nil || c.summaryAt != c.analyticsVersion {
		return nil, c.analyticsVersion, false
	}
	return c.summary, c.analyticsVersion, true
}

func (c *fakeCache) SetAnalyticsAsync(version int64, s *analytics.Summary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.summary = s
	c.summaryAt = version
}

func (c *fakeCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated++
	c.analyticsVersion++
	return nil
}

func (c *fakeCache) GetActiveOffers(context.Context) ([]catalog.Offer, int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasOffers || c.offersAt != c.offersVersion {
		return nil, c.offersVersion, false
	}
	return c.offers, c.offersVersion, true
}

func (c *fakeCache) SetActiveOffersAsync(version int64, offers []catalog.Offer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offers = offers
	c.hasOffers = true
	c.offersAt = version
}

func (c *fakeCache) InvalidateOffers(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failOffers {
		return errors.New("redis down")
	}
	c.offersDropped++
	c.offersVersion++
	c.hasOffers = false
	return nil
}

// --- Offer source ---

type fakeOffers struct {
	offers  []catalog.Offer
	calls   int
	err     error
	onFetch func()
}

func (f *fakeOffers) ActiveOffers(context.Context) ([]catalog.Offer, error) {
	f.calls++
	if f.onFetch != nil {
		f.onFetch()
	}
	return f.offers, f.err
}

// --- Presigner ---

type fakePresigner struct {
	key         string
	contentType string
	expiry      time.Duration
}

func (p *fakePresigner) PresignPut(_ context.Context, key, contentType string, expiry time.Duration) (*awspkg.PresignedUpload, error) {
	p.key, p.contentType, p.expiry = key, contentType, expiry
	return &awspkg.PresignedUpload{
		URL:       "https://bucket.s3.amazonaws.com/" + key + "?X-Amz-Signature=abc",
		Key:       key,
		ExpiresAt: time.Now().Add(expiry),
	}, nil
}

// --- Metrics ---

type fakeMetrics struct {
	mu     sync.Mutex
	counts map[string]int
	values map[string]float64
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{counts: map[string]int{}, values: map[string]float64{}}
}

func (m *fakeMetrics) RecordCount(_ context.Context, name string, _ map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[name]++
	return nil
}

func (m *fakeMetrics) RecordLatency(context.Context, string, time.Duration, map[string]string) error {
	return nil
}

func (m *fakeMetrics) RecordValue(_ context.Context, name string, v float64, _ map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[name] = v
	return nil
}

func (m *fakeMetrics) IsEnabled() bool { return m != nil }

func (m *fakeMetrics) count(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[name]
}

func (m *fakeMetrics) value(name string) (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[name]
	return v, ok
}

// --- Builders ---

func intPtr(v int) *int { return &v }

func product(id, category string, price float64, stock int) *models.Product {
	return &models.Product{
		ID:         id,
		Name:       "Product " + id,
		Price:      price,
		Stock:      stock,
		CategoryID: category,
		Images:     []string{},
		IsActive:   true,
		CreatedAt:  time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC),
	}
}

func liveOffer(id string, kind catalog.OfferType, value float64, products ...string) catalog.Offer {
	return catalog.Offer{
		ID:                 id,
		Title:              "Offer " + id,
		OfferType:          kind,
		DiscountValue:      value,
		ApplicableProducts: catalog.RefsFromIDs(products),
		StartDate:          time.Now().Add(-time.Hour),
		EndDate:            time.Now().Add(time.Hour),
		IsActive:           true,
	}
}
