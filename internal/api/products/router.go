package products

import (
	"github.com/gin-gonic/gin"

	"github.com/vipogroup/vipo-api/internal/shared"
	"github.com/vipogroup/vipo-api/internal/types"
)

func RegisterRoutes(router *gin.RouterGroup, service *Service) {
	controller := NewController(service)

	router.GET("/products", controller.List)
	router.GET("/products/:ref", controller.Get)

	admin := router.Group("/admin/products", shared.RequireRole(types.RoleAdmin))
	admin.POST("", controller.Create)
	admin.PATCH("/:id", controller.Update)
}
