package controllers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	apperrors "github.com/groceazy/backend/services/common/errors"
	"github.com/groceazy/backend/services/product-service/models"
)

// Validation constants
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	MaxPageNumber   = 1000000
)

// ProductFilters holds the supported listing filters.
type ProductFilters struct {
	CategoryID string
	Active     *bool
}

// RequestValidator handles all input validation
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{
		validate: validator.New(),
	}
}

// ParsePagination validates and parses pagination parameters
func (rv *RequestValidator) ParsePagination(c *gin.Context) (int, int, error) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 0, 0, errors.New("invalid page number")
	}
	page = min(page, MaxPageNumber)

	perPage, err := strconv.Atoi(c.DefaultQuery("perPage", strconv.Itoa(DefaultPageSize)))
	if err != nil || perPage < 1 {
		return 0, 0, errors.New("invalid page size")
	}
	perPage = min(perPage, MaxPageSize)

	return page, perPage, nil
}

// ParseFilters validates and parses the categoryId and active filters.
func (rv *RequestValidator) ParseFilters(c *gin.Context) (*ProductFilters, error) {
	filters := &ProductFilters{
		CategoryID: strings.TrimSpace(c.Query("categoryId")),
	}

	if raw := strings.TrimSpace(c.Query("active")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, errors.New("invalid boolean value for 'active'")
		}
		filters.Active = &v
	}
	return filters, nil
}

// ParseProductID rejects ids that are not UUIDs.
func (rv *RequestValidator) ParseProductID(c *gin.Context) (string, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid UUID format")
	}
	return id.String(), nil
}

// BindProductRequest decodes and validates a create/replace payload.
func (rv *RequestValidator) BindProductRequest(c *gin.Context) (*models.ProductRequest, error) {
	var req models.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid request body")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.CategoryID = strings.TrimSpace(req.CategoryID)

	if err := rv.validate.Struct(&req); err != nil {
		return nil, validationError(err)
	}
	return &req, nil
}

// BindStockRequest decodes and validates a stock update.
func (rv *RequestValidator) BindStockRequest(c *gin.Context) (*models.StockUpdateRequest, error) {
	var req models.StockUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid request body")
	}
	if err := rv.validate.Struct(&req); err != nil {
		return nil, validationError(err)
	}
	return &req, nil
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.Wrap(apperrors.ErrValidation, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return apperrors.WithMessage(apperrors.ErrValidation, "Validation failed: "+strings.Join(msgs, "; "))
}
