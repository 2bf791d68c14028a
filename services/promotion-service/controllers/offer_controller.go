package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/groceazy/backend/pkg/catalog"
	"github.com/groceazy/backend/services/common/middleware"
	"github.com/groceazy/backend/services/promotion-service/models"
	"github.com/groceazy/backend/services/promotion-service/services"
)

// OfferController handles HTTP requests for offers and offer pricing.
type OfferController struct {
	offerService services.OfferService
}

func NewOfferController(offerService services.OfferService) *OfferController {
	return &OfferController{offerService: offerService}
}

// CreateOffer handles POST /offers.
func (oc *OfferController) CreateOffer(ctx *gin.Context) {
	var req models.OfferRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	offer, svcErr := oc.offerService.CreateOffer(ctx.Request.Context(), &req, ctx.GetString(middleware.UserIDKey))
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"offer": offer})
}

// ListOffers handles GET /offers.
func (oc *OfferController) ListOffers(ctx *gin.Context) {
	page, limit := parsePaginationParams(ctx)

	offers, total, svcErr := oc.offerService.ListOffers(ctx.Request.Context(), page, limit)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"offers": offers,
		"meta":   paginationMeta(page, limit, total),
	})
}

// GetActiveOffers handles GET /offers/active.
func (oc *OfferController) GetActiveOffers(ctx *gin.Context) {
	offers, svcErr := oc.offerService.ActiveOffers(ctx.Request.Context())
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"offers": offers})
}

// GetOffer handles GET /offers/:id.
func (oc *OfferController) GetOffer(ctx *gin.Context) {
	offer, svcErr := oc.offerService.GetOffer(ctx.Request.Context(), ctx.Param("id"))
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"offer": offer})
}

// UpdateOffer handles PUT /offers/:id. The body replaces every editable field.
func (oc *OfferController) UpdateOffer(ctx *gin.Context) {
	var req models.OfferRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	offer, svcErr := oc.offerService.UpdateOffer(ctx.Request.Context(), ctx.Param("id"), &req)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"offer": offer})
}

// DeleteOffer handles DELETE /offers/:id.
func (oc *OfferController) DeleteOffer(ctx *gin.Context) {
	if svcErr := oc.offerService.DeleteOffer(ctx.Request.Context(), ctx.Param("id")); svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Offer deleted"})
}

// PriceProducts handles POST /offers/price. A single {"product"} body gets a
// single result back; {"products":[...]} gets {"results":[...]} in order.
func (oc *OfferController) PriceProducts(ctx *gin.Context) {
	var req models.PriceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	if req.Product != nil {
		results, svcErr := oc.offerService.PriceProducts(ctx.Request.Context(), []catalog.Product{*req.Product})
		if svcErr != nil {
			ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
			return
		}
		ctx.JSON(http.StatusOK, results[0])
		return
	}

	results, svcErr := oc.offerService.PriceProducts(ctx.Request.Context(), req.Products)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"results": results})
}
