package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/groceazy/backend/services/promotion-service/models"
	"gorm.io/gorm"
)

// OfferRepository defines the data access used by the offer service.
type OfferRepository interface {
	Create(ctx context.Context, offer *models.Offer) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Offer, error)
	FindAll(ctx context.Context, page, limit int) ([]models.Offer, int64, error)
	FindActive(ctx context.Context, now time.Time) ([]models.Offer, error)
	Update(ctx context.Context, offer *models.Offer) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// GormOfferRepository implements OfferRepository using GORM.
type GormOfferRepository struct {
	db *gorm.DB
}

func NewGormOfferRepository(db *gorm.DB) OfferRepository {
	return &GormOfferRepository{db: db}
}

func (r *GormOfferRepository) Create(ctx context.Context, offer *models.Offer) error {
	return r.db.WithContext(ctx).Create(offer).Error
}

func (r *GormOfferRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&offer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

// FindAll returns one page of offers, newest first.
func (r *GormOfferRepository) FindAll(ctx context.Context, page, limit int) ([]models.Offer, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Offer{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offers := []models.Offer{}
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&offers).Error
	if err != nil {
		return nil, 0, err
	}
	return offers, total, nil
}

// FindActive returns switched-on offers whose window contains now, oldest
// first. The order is stable so ties between equally good offers resolve
// the same way on every request.
func (r *GormOfferRepository) FindActive(ctx context.Context, now time.Time) ([]models.Offer, error) {
	offers := []models.Offer{}
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND start_date <= ? AND end_date >= ?", true, now, now).
		Order("created_at ASC").
		Order("id ASC").
		Find(&offers).Error
	if err != nil {
		return nil, err
	}
	return offers, nil
}

// Update writes every mutable column of offer.
func (r *GormOfferRepository) Update(ctx context.Context, offer *models.Offer) error {
	result := r.db.WithContext(ctx).
		Model(&models.Offer{}).
		Where("id = ?", offer.ID).
		Select("*").
		Omit("id", "created_at", "deleted_at", "created_by").
		Updates(offer)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete soft-deletes the offer.
func (r *GormOfferRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Offer{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
