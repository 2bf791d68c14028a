package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/groceazy/backend/services/common/auth"
	"github.com/groceazy/backend/services/common/middleware"
	"github.com/groceazy/backend/services/product-service/controllers"
)

// RegisterProductRoutes sets up the storefront catalog and staff inventory routes.
func RegisterProductRoutes(r *gin.Engine, pc *controllers.ProductController, ph *controllers.PresignedURLHandler, verifier *auth.Verifier) {
	productRoutes := r.Group("/products")

	productRoutes.GET("", pc.ListProducts)
	productRoutes.GET("/:id", pc.GetProduct)
	productRoutes.GET("/:id/price", pc.GetProductPrice)

	staff := productRoutes.Group("")
	staff.Use(middleware.Authenticate(verifier), middleware.RequireRoles(auth.RoleAdmin, auth.RoleManager))
	staff.GET("/analytics", pc.GetAnalytics)
	staff.POST("", pc.CreateProduct)
	staff.PUT("/:id", pc.UpdateProduct)
	staff.PATCH("/:id/stock", pc.UpdateStock)
	staff.DELETE("/:id", pc.DeleteProduct)
	staff.GET("/:id/images/presign", ph.PresignImageUpload)
}
