package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/groceazy/backend/api-gateway/utils"
)

// Targets are the base URLs of the services behind the gateway.
type Targets struct {
	ProductService   string
	PromotionService string
}

// RegisterAllRoutes mounts every public API prefix. Authorization is
// enforced by the owning service.
func RegisterAllRoutes(r *gin.Engine, fw *utils.Forwarder, targets Targets) {
	products := fw.To(targets.ProductService)
	r.Any("/products", products)
	r.Any("/products/*any", products)

	promotions := fw.To(targets.PromotionService)
	r.Any("/offers", promotions)
	r.Any("/offers/*any", promotions)
	r.Any("/coupons", promotions)
	r.Any("/coupons/*any", promotions)
}
