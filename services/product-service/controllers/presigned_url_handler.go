package controllers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/groceazy/backend/services/product-service/services"
)

// PresignedURLHandler handles presigned URL generation for S3 uploads
type PresignedURLHandler struct {
	productService services.ProductService
	validator      *RequestValidator
	timeout        time.Duration
}

func NewPresignedURLHandler(ps services.ProductService) *PresignedURLHandler {
	return &PresignedURLHandler{
		productService: ps,
		validator:      NewRequestValidator(),
		timeout:        DefaultContextTimeout,
	}
}

// PresignImageUpload returns a presigned PUT URL for a new image of the product.
func (h *PresignedURLHandler) PresignImageUpload(c *gin.Context) {
	id, err := h.validator.ParseProductID(c)
	if err != nil {
		c.Error(err)
		return
	}
	params := parsePresignParams(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	upload, err := h.productService.PresignImageUpload(ctx, id, params.Filename, params.ContentType, params.Expires)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"upload_url": upload.URL,
		"method":     http.MethodPut,
		"key":        upload.Key,
		"headers":    upload.Headers,
		"public_url": upload.PublicURL,
		"expires_at": upload.ExpiresAt,
	})
}

type presignParams struct {
	Filename    string
	ContentType string
	Expires     time.Duration
}

// parsePresignParams falls back to the service defaults for a missing or
// malformed expires value.
func parsePresignParams(c *gin.Context) presignParams {
	params := presignParams{
		Filename:    c.DefaultQuery("filename", "upload"),
		ContentType: c.DefaultQuery("content_type", "image/jpeg"),
	}
	if secs, err := strconv.ParseInt(c.Query("expires"), 10, 64); err == nil && secs > 0 {
		params.Expires = time.Duration(secs) * time.Second
	}
	return params
}
