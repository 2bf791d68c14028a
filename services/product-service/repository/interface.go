package repository

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/groceazy/backend/services/product-service/models"
)

var (
	ErrNotFound = errors.New("product not found")
	ErrExists   = errors.New("product already exists")
)

// ProductFilter narrows a listing. Deleted products are left out unless
// IncludeDeleted is set.
type ProductFilter struct {
	CategoryID     string
	Active         *bool
	IncludeDeleted bool
}

// ProductRepo defines the operations used by product-service.
type ProductRepo interface {
	FindByID(ctx context.Context, id string) (*models.Product, error)
	Find(ctx context.Context, filter ProductFilter) ([]*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Replace(ctx context.Context, product *models.Product) error
	UpdateStock(ctx context.Context, id string, stock int, threshold *int, now time.Time) (*models.Product, error)
	SoftDelete(ctx context.Context, id string, now time.Time) error
}

// DynamoAPI is the subset of the DynamoDB client the adapter calls.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}
