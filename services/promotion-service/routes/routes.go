package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/groceazy/backend/services/common/auth"
	"github.com/groceazy/backend/services/common/middleware"
	"github.com/groceazy/backend/services/promotion-service/controllers"
)

// RegisterOfferRoutes sets up offer management and public pricing routes.
func RegisterOfferRoutes(r *gin.Engine, oc *controllers.OfferController, verifier *auth.Verifier) {
	offerRoutes := r.Group("/offers")

	// Public: storefront and product-service read these.
	offerRoutes.GET("/active", oc.GetActiveOffers)
	offerRoutes.POST("/price", oc.PriceProducts)

	staff := offerRoutes.Group("")
	staff.Use(middleware.Authenticate(verifier), middleware.RequireRoles(auth.RoleAdmin, auth.RoleManager))
	staff.POST("", oc.CreateOffer)
	staff.GET("", oc.ListOffers)
	staff.GET("/:id", oc.GetOffer)
	staff.PUT("/:id", oc.UpdateOffer)
	staff.DELETE("/:id", oc.DeleteOffer)
}

// RegisterCouponRoutes sets up all coupon-related routes.
func RegisterCouponRoutes(r *gin.Engine, cc *controllers.CouponController, verifier *auth.Verifier, limiter *middleware.RateLimiter) {
	couponRoutes := r.Group("/coupons")
	couponRoutes.Use(middleware.Authenticate(verifier))

	checks := couponRoutes.Group("")
	checks.Use(middleware.RateLimit(limiter))
	checks.POST("/validate", cc.ValidateCoupon)
	checks.POST("/apply", cc.ApplyCoupon)

	couponRoutes.GET("/:code", cc.GetCoupon)

	adminRoutes := couponRoutes.Group("")
	adminRoutes.Use(middleware.RequireRoles(auth.RoleAdmin))
	adminRoutes.POST("", cc.CreateCoupon)
	adminRoutes.GET("", cc.ListCoupons)
	adminRoutes.DELETE("/:code", cc.DeactivateCoupon)
}
