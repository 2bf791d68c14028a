package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/groceazy/backend/services/common/errors"
	"github.com/groceazy/backend/services/product-service/services"
	"go.uber.org/zap"
)

// ProductController serves the catalog, pricing and analytics endpoints.
type ProductController struct {
	service   services.ProductService
	validator *RequestValidator
	timeout   time.Duration
}

func NewProductController(service services.ProductService) *ProductController {
	return &ProductController{
		service:   service,
		validator: NewRequestValidator(),
		timeout:   DefaultContextTimeout,
	}
}

// ListProducts handles GET /products.
func (pc *ProductController) ListProducts(c *gin.Context) {
	page, perPage, err := pc.validator.ParsePagination(c)
	if err != nil {
		c.Error(apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	filters, err := pc.validator.ParseFilters(c)
	if err != nil {
		c.Error(apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), pc.timeout)
	defer cancel()

	products, total, err := pc.service.ListProducts(ctx, services.ListProductsParams{
		Page:       page,
		Limit:      perPage,
		CategoryID: filters.CategoryID,
		Active:     filters.Active,
	})
	if err != nil {
		c.Error(err)
		return
	}

	zap.L().Debug("Products fetched",
		zap.Int("page", page),
		zap.Int("perPage", perPage),
		zap.Int("total", total),
	)

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"meta":     pageMeta(page, perPage, total),
	})
}

// GetProduct handles GET /products/:id.
func (pc *ProductController) GetProduct(c *gin.Context) {
	id, err := pc.validator.ParseProductID(c)
	if err != nil {
		c.Error(err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), pc.timeout)
	defer cancel()

	product, err := pc.service.GetProduct(ctx, id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// GetProductPrice handles GET /products/:id/price.
func (pc *ProductController) GetProductPrice(c *gin.Context) {
	id, err := pc.validator.ParseProductID(c)
	if err != nil {
		c.Error(err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), pc.timeout)
	defer cancel()

	price, err := pc.service.GetProductPrice(ctx, id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, price)
}

// CreateProduct handles POST /products.
func (pc *ProductController) CreateProduct(c *gin.Context) {
	req, err := pc.validator.BindProductRequest(c)
	if err != nil {
		c.Error(err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), pc.timeout)
	defer cancel()

	product, err := pc.service.CreateProduct(ctx, req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"product": product})
}

// UpdateProduct handles PUT /products/:id.
func (pc *ProductController) UpdateProduct(c *gin.Context) {
	id, err := pc.validator.ParseProductID(c)
	if err != nil {
		c.Error(err)
		return
	}
	req, err := pc.validator.BindProductRequest(c)
	if err != nil {
		c.Error(err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), pc.timeout)
	defer cancel()

	product, err := pc.service.UpdateProduct(ctx, id, req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

// UpdateStock handles PATCH /products/:id/stock.
func (pc *ProductController) UpdateStock(c *gin.Context) {
	id, err := pc.validator.ParseProductID(c)
	if err != nil {
		c.Error(err)
		return
	}
	req, err := pc.validator.BindStockRequest(c)
	if err != nil {
		c.Error(err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), pc.timeout)
	defer cancel()

	product, err := pc.service.UpdateStock(ctx, id, req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

// DeleteProduct handles DELETE /products/:id.
func (pc *ProductController) DeleteProduct(c *gin.Context) {
	id, err := pc.validator.ParseProductID(c)
	if err != nil {
		c.Error(err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), pc.timeout)
	defer cancel()

	if err := pc.service.DeleteProduct(ctx, id); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}

// GetAnalytics handles GET /products/analytics.
func (pc *ProductController) GetAnalytics(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), pc.timeout)
	defer cancel()

	summary, err := pc.service.GetAnalytics(ctx)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
