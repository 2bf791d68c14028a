package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/groceazy/backend/services/product-service/models"
)

// HashKey is the partition key of the products table.
const HashKey = "product_id"

const liveCondition = "attribute_exists(product_id) AND is_deleted = :false"

// DynamoAdapter is a DynamoDB-backed ProductRepo. Products live in a table
// keyed by `product_id` (string).
type DynamoAdapter struct {
	client DynamoAPI
	table  string
}

func NewDynamoAdapter(client DynamoAPI, table string) *DynamoAdapter {
	return &DynamoAdapter{client: client, table: table}
}

type ddbProduct struct {
	ProductID         string   `dynamodbav:"product_id"`
	Name              string   `dynamodbav:"name"`
	Description       *string  `dynamodbav:"description,omitempty"`
	Brand             *string  `dynamodbav:"brand,omitempty"`
	SKU               string   `dynamodbav:"sku,omitempty"`
	Price             float64  `dynamodbav:"price"`
	Stock             int      `dynamodbav:"stock"`
	LowStockThreshold *int     `dynamodbav:"low_stock_threshold,omitempty"`
	CategoryID        string   `dynamodbav:"category_id"`
	Images            []string `dynamodbav:"images,omitempty"`
	IsActive          bool     `dynamodbav:"is_active"`
	IsDeleted         bool     `dynamodbav:"is_deleted"`
	CreatedAt         string   `dynamodbav:"created_at"`
	UpdatedAt         string   `dynamodbav:"updated_at"`
}

func toDDB(p *models.Product) ddbProduct {
	dp := ddbProduct{
		ProductID:         p.ID,
		Name:              p.Name,
		SKU:               p.SKU,
		Price:             p.Price,
		Stock:             p.Stock,
		LowStockThreshold: p.LowStockThreshold,
		CategoryID:        p.CategoryID,
		Images:            p.Images,
		IsActive:          p.IsActive,
		IsDeleted:         p.IsDeleted,
		CreatedAt:         p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:         p.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if p.Description != "" {
		dp.Description = &p.Description
	}
	if p.Brand != "" {
		dp.Brand = &p.Brand
	}
	return dp
}

func (dp *ddbProduct) toModel() *models.Product {
	p := &models.Product{
		ID:                dp.ProductID,
		Name:              dp.Name,
		SKU:               dp.SKU,
		Price:             dp.Price,
		Stock:             dp.Stock,
		LowStockThreshold: dp.LowStockThreshold,
		CategoryID:        dp.CategoryID,
		Images:            dp.Images,
		IsActive:          dp.IsActive,
		IsDeleted:         dp.IsDeleted,
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	if dp.Description != nil {
		p.Description = *dp.Description
	}
	if dp.Brand != nil {
		p.Brand = *dp.Brand
	}
	if t, err := time.Parse(time.RFC3339, dp.CreatedAt); err == nil {
		p.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, dp.UpdatedAt); err == nil {
		p.UpdatedAt = t
	}
	return p
}

func productKey(id string) (map[string]types.AttributeValue, error) {
	key, err := attributevalue.MarshalMap(map[string]string{HashKey: id})
	if err != nil {
		return nil, fmt.Errorf("marshal key: %w", err)
	}
	return key, nil
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

func (d *DynamoAdapter) FindByID(ctx context.Context, id string) (*models.Product, error) {
	key, err := productKey(id)
	if err != nil {
		return nil, err
	}
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{TableName: &d.table, Key: key})
	if err != nil {
		return nil, fmt.Errorf("dynamodb GetItem failed: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}

	var dp ddbProduct
	if err := attributevalue.UnmarshalMap(out.Item, &dp); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	if dp.IsDeleted {
		return nil, ErrNotFound
	}
	return dp.toModel(), nil
}

// Find scans the table with a server-side filter. Results are ordered newest
// first, ties broken by id, so offset pagination over them is stable.
func (d *DynamoAdapter) Find(ctx context.Context, filter ProductFilter) ([]*models.Product, error) {
	input := &dynamodb.ScanInput{TableName: &d.table}

	var conds []string
	values := make(map[string]types.AttributeValue)
	if !filter.IncludeDeleted {
		conds = append(conds, "is_deleted = :false")
		values[":false"] = &types.AttributeValueMemberBOOL{Value: false}
	}
	if filter.CategoryID != "" {
		conds = append(conds, "category_id = :cat")
		values[":cat"] = &types.AttributeValueMemberS{Value: filter.CategoryID}
	}
	if filter.Active != nil {
		conds = append(conds, "is_active = :active")
		values[":active"] = &types.AttributeValueMemberBOOL{Value: *filter.Active}
	}
	if len(conds) > 0 {
		expr := strings.Join(conds, " AND ")
		input.FilterExpression = &expr
		input.ExpressionAttributeValues = values
	}

	var results []*models.Product
	paginator := dynamodb.NewScanPaginator(d.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan page failed: %w", err)
		}
		for _, it := range page.Items {
			var dp ddbProduct
			if err := attributevalue.UnmarshalMap(it, &dp); err != nil {
				return nil, fmt.Errorf("unmarshal item: %w", err)
			}
			results = append(results, dp.toModel())
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if !results[i].CreatedAt.Equal(results[j].CreatedAt) {
			return results[i].CreatedAt.After(results[j].CreatedAt)
		}
		return results[i].ID < results[j].ID
	})
	return results, nil
}

// Create inserts product, refusing to overwrite an existing id.
func (d *DynamoAdapter) Create(ctx context.Context, product *models.Product) error {
	item, err := attributevalue.MarshalMap(toDDB(product))
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}
	cond := "attribute_not_exists(product_id)"
	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &d.table,
		Item:                item,
		ConditionExpression: &cond,
	})
	if err != nil {
		if isConditionFailed(err) {
			return ErrExists
		}
		return fmt.Errorf("dynamodb PutItem failed: %w", err)
	}
	return nil
}

// Replace overwrites a live (not deleted) product.
func (d *DynamoAdapter) Replace(ctx context.Context, product *models.Product) error {
	item, err := attributevalue.MarshalMap(toDDB(product))
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}
	cond := liveCondition
	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 &d.table,
		Item:                      item,
		ConditionExpression:       &cond,
		ExpressionAttributeValues: map[string]types.AttributeValue{":false": &types.AttributeValueMemberBOOL{Value: false}},
	})
	if err != nil {
		if isConditionFailed(err) {
			return ErrNotFound
		}
		return fmt.Errorf("dynamodb PutItem failed: %w", err)
	}
	return nil
}

// UpdateStock sets stock (and threshold when given) and returns the updated product.
func (d *DynamoAdapter) UpdateStock(ctx context.Context, id string, stock int, threshold *int, now time.Time) (*models.Product, error) {
	key, err := productKey(id)
	if err != nil {
		return nil, err
	}

	expr := "SET stock = :stock, updated_at = :now"
	values := map[string]types.AttributeValue{
		":stock": &types.AttributeValueMemberN{Value: fmt.Sprint(stock)},
		":now":   &types.AttributeValueMemberS{Value: now.UTC().Format(time.RFC3339)},
		":false": &types.AttributeValueMemberBOOL{Value: false},
	}
	if threshold != nil {
		expr += ", low_stock_threshold = :threshold"
		values[":threshold"] = &types.AttributeValueMemberN{Value: fmt.Sprint(*threshold)}
	}
	cond := liveCondition

	out, err := d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 &d.table,
		Key:                       key,
		UpdateExpression:          &expr,
		ConditionExpression:       &cond,
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionFailed(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update stock failed: %w", err)
	}

	var dp ddbProduct
	if err := attributevalue.UnmarshalMap(out.Attributes, &dp); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return dp.toModel(), nil
}

// SoftDelete flags the product deleted and inactive; the item is kept.
func (d *DynamoAdapter) SoftDelete(ctx context.Context, id string, now time.Time) error {
	key, err := productKey(id)
	if err != nil {
		return err
	}

	expr := "SET is_deleted = :true, is_active = :false, updated_at = :now"
	cond := liveCondition
	_, err = d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           &d.table,
		Key:                 key,
		UpdateExpression:    &expr,
		ConditionExpression: &cond,
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":true":  &types.AttributeValueMemberBOOL{Value: true},
			":false": &types.AttributeValueMemberBOOL{Value: false},
			":now":   &types.AttributeValueMemberS{Value: now.UTC().Format(time.RFC3339)},
		},
	})
	if err != nil {
		if isConditionFailed(err) {
			return ErrNotFound
		}
		return fmt.Errorf("soft delete failed: %w", err)
	}
	return nil
}
