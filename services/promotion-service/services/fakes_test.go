package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/groceazy/backend/pkg/catalog"
	"github.com/groceazy/backend/services/promotion-service/models"
	"github.com/groceazy/backend/services/promotion-service/repository"
)

const testTopic = "arn:aws:sns:us-east-1:000000000000:promotion-events"

// --- Offer repository ---

type fakeOfferRepo struct {
	offers      []*models.Offer
	activeCalls int
	failActive  bool
	onActive    func()
}

func (r *fakeOfferRepo) Create(_ context.Context, o *models.Offer) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	o.CreatedAt = time.Now()
	r.offers = append(r.offers, o)
	return nil
}

func (r *fakeOfferRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Offer, error) {
	for _, o := range r.offers {
		if o.ID == id {
			cp := *o
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeOfferRepo) FindAll(_ context.Context, _, _ int) ([]models.Offer, int64, error) {
	out := make([]models.Offer, 0, len(r.offers))
	for _, o := range r.offers {
		out = append(out, *o)
	}
	return out, int64(len(out)), nil
}

func (r *fakeOfferRepo) FindActive(_ context.Context, now time.Time) ([]models.Offer, error) {
	r.activeCalls++
	if r.onActive != nil {
		r.onActive()
	}
	if r.failActive {
		return nil, errors.New("connection refused")
	}
	var out []models.Offer
	for _, o := range r.offers {
		if o.IsActive && !now.Before(o.StartDate) && !now.After(o.EndDate) {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *fakeOfferRepo) Update(_ context.Context, o *models.Offer) error {
	for i, existing := range r.offers {
		if existing.ID == o.ID {
			cp := *o
			r.offers[i] = &cp
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeOfferRepo) Delete(_ context.Context, id uuid.UUID) error {
	for i, o := range r.offers {
		if o.ID == id {
			r.offers = append(r.offers[:i], r.offers[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

// --- Coupon repository ---

type fakeCouponRepo struct {
	coupons map[string]*models.Coupon
}

func newFakeCouponRepo(coupons ...*models.Coupon) *fakeCouponRepo {
	r := &fakeCouponRepo{coupons: make(map[string]*models.Coupon)}
	for _, c := range coupons {
		r.coupons[c.Code] = c
	}
	return r
}

func (r *fakeCouponRepo) Create(_ context.Context, c *models.Coupon) error {
	if _, ok := r.coupons[c.Code]; ok {
		return repository.ErrDuplicate
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.coupons[c.Code] = c
	return nil
}

func (r *fakeCouponRepo) FindByCode(_ context.Context, code string) (*models.Coupon, error) {
	c, ok := r.coupons[strings.ToUpper(code)]
	if !ok || !c.IsActive {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCouponRepo) IncrementUsedCount(_ context.Context, code string) error {
	c, ok := r.coupons[code]
	if !ok {
		return repository.ErrNotFound
	}
	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return repository.ErrUsageExhausted
	}
	c.UsedCount++
	return nil
}

func (r *fakeCouponRepo) Deactivate(_ context.Context, code string) error {
	c, ok := r.coupons[strings.ToUpper(code)]
	if !ok {
		return repository.ErrNotFound
	}
	c.IsActive = false
	return nil
}

func (r *fakeCouponRepo) FindAll(_ context.Context, _, _ int) ([]models.Coupon, int64, error) {
	out := make([]models.Coupon, 0, len(r.coupons))
	for _, c := range r.coupons {
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

// --- Cache ---

type fakeCache struct {
	offers      []catalog.Offer
	hit         bool
	version     int64
	storedAt    int64
	setVersions []int64
	invalidated int
}

func (c *fakeCache) Get(_ context.Context) ([]catalog.Offer, int64, bool) {
	if !c.hit || c.storedAt != c.version {
		return nil, c.version, false
	}
	return c.offers, c.version, true
}

func (c *fakeCache) Set(_ context.Context, version int64, offers []catalog.Offer) {
	c.setVersions = append(c.setVersions, version)
	c.offers = offers
	c.storedAt = version
	c.hit = true
}

func (c *fakeCache) Invalidate(_ context.Context) error {
	c.invalidated++
	c.version++
	return nil
}

// --- SNS ---

type fakeSNS struct {
	mu       sync.Mutex
	messages []map[string]interface{}
	err      error
}

func (s *fakeSNS) Publish(_ context.Context, _ string, message []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	var m map[string]interface{}
	_ = json.Unmarshal(message, &m)
	s.messages = append(s.messages, m)
	return nil
}

func (s *fakeSNS) eventTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, m := range s.messages {
		out = append(out, m["event_type"].(string))
	}
	return out
}

// --- Metrics ---

type fakeMetrics struct {
	mu     sync.Mutex
	counts map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{counts: make(map[string]int)}
}

func (m *fakeMetrics) RecordCount(_ context.Context, name string, _ map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[name]++
	return nil
}

func (m *fakeMetrics) RecordLatency(_ context.Context, name string, _ time.Duration, _ map[string]string) error {
	return m.RecordCount(context.Background(), name, nil)
}

func (m *fakeMetrics) RecordValue(_ context.Context, name string, _ float64, _ map[string]string) error {
	return m.RecordCount(context.Background(), name, nil)
}

func (m *fakeMetrics) IsEnabled() bool { return m != nil }

func (m *fakeMetrics) count(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[name]
}
