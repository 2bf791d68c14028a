package repository_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/groceazy/backend/pkg/catalog"
	"github.com/groceazy/backend/services/promotion-service/models"
	"github.com/groceazy/backend/services/promotion-service/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	require.NoError(t, err)
	return gormDB, mock
}

var offerColumns = []string{
	"id", "title", "offer_type", "discount_value", "max_discount_amount",
	"applicable_products", "applicable_categories", "excluded_products",
	"start_date", "end_date", "is_active", "created_at", "updated_at",
}

func TestOfferCreate_Success(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOfferRepository(gormDB)

	id := uuid.New()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "offers"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id.String()))
	mock.ExpectCommit()

	offer := &models.Offer{
		Title:              "Dairy week",
		OfferType:          catalog.OfferTypePercentage,
		DiscountValue:      10,
		ApplicableProducts: []string{"p1"},
		StartDate:          time.Now(),
		EndDate:            time.Now().Add(24 * time.Hour),
		IsActive:           true,
	}
	err := repo.Create(context.Background(), offer)

	assert.NoError(t, err)
	assert.Equal(t, id, offer.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOfferFindByID_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOfferRepository(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "offers"`)).
		WillReturnRows(sqlmock.NewRows(offerColumns))

	offer, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Nil(t, offer)
}

func TestOfferFindActive_DecodesReferenceLists(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOfferRepository(gormDB)

	now := time.Now()
	first, second := uuid.New(), uuid.New()
	rows := sqlmock.NewRows(offerColumns).
		AddRow(first.String(), "Fruit fest", "percentage", 20.0, 15.0, `["p1","p2"]`, `["fruit"]`, `["p3"]`, now.Add(-time.Hour), now.Add(time.Hour), true, now, now).
		AddRow(second.String(), "Flat 5", "fixed", 5.0, nil, `[]`, `["dairy"]`, `[]`, now.Add(-time.Hour), now.Add(time.Hour), true, now, now)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "offers" WHERE`)).
		WillReturnRows(rows)

	offers, err := repo.FindActive(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, offers, 2)

	assert.Equal(t, first, offers[0].ID)
	assert.Equal(t, []string{"p1", "p2"}, offers[0].ApplicableProducts)
	assert.Equal(t, []string{"fruit"}, offers[0].ApplicableCategories)
	assert.Equal(t, []string{"p3"}, offers[0].ExcludedProducts)
	require.NotNil(t, offers[0].MaxDiscountAmount)
	assert.Equal(t, 15.0, *offers[0].MaxDiscountAmount)

	assert.Nil(t, offers[1].MaxDiscountAmount)
	assert.Equal(t, catalog.OfferTypeFixed, offers[1].OfferType)

	converted := offers[0].ToCatalog()
	assert.True(t, converted.ApplicableProducts.Contains("p2"))
	assert.True(t, converted.ExcludedProducts.Contains("p3"))
}

func TestOfferUpdate_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOfferRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "offers"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.Update(context.Background(), &models.Offer{ID: uuid.New(), Title: "Gone"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestOfferDelete_SoftDeletes(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOfferRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "offers" SET "deleted_at"=`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	assert.NoError(t, repo.Delete(context.Background(), uuid.New()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCouponCreate_Duplicate(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormCouponRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "coupons"`)).
		WillReturnError(errors.New(`ERROR: duplicate key value violates unique constraint "idx_coupons_code" (SQLSTATE 23505)`))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Coupon{
		Code:          "SAVE10",
		DiscountType:  catalog.OfferTypePercentage,
		DiscountValue: 10,
		ExpiresAt:     time.Now().Add(time.Hour),
		IsActive:      true,
	})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestCouponFindByCode_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormCouponRepository(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "coupons"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code"}))

	_, err := repo.FindByCode(context.Background(), "GHOST")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCouponIncrementUsedCount_Exhausted(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormCouponRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "coupons" SET "used_count"=used_count + 1`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.IncrementUsedCount(context.Background(), "save10")
	assert.ErrorIs(t, err, repository.ErrUsageExhausted)
}

func TestCouponDeactivate_Success(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormCouponRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "coupons" SET "active"=`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	assert.NoError(t, repo.Deactivate(context.Background(), "SAVE10"))
}

func TestCouponFindAll_Paginates(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormCouponRepository(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "coupons"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "coupons"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "type", "value", "active"}).
			AddRow(uuid.New().String(), "A", "fixed", 5.0, true).
			AddRow(uuid.New().String(), "B", "percentage", 10.0, true))

	coupons, total, err := repo.FindAll(context.Background(), 2, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(12), total)
	require.Len(t, coupons, 2)
	assert.Equal(t, catalog.OfferTypePercentage, coupons[1].DiscountType)
	assert.Equal(t, 10.0, coupons[1].DiscountValue)
}
