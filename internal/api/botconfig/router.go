package botconfig

import (
	"github.com/gin-gonic/gin"

	"github.com/vipogroup/vipo-api/internal/shared"
)

func RegisterRoutes(router *gin.RouterGroup, service *Service, limiter *shared.RateLimiter) {
	controller := NewController(service)

	group := router.Group("/bot-config")
	group.GET("", limiter.Middleware(shared.LimitPublicConfig), controller.Get)
	group.GET("/public", limiter.Middleware(shared.LimitPublicConfig), controller.Public)

	write := group.Group("", shared.RequireAuth(), limiter.Middleware(shared.LimitAdmin))
	write.PUT("", controller.Update)
	write.POST("", controller.Add)
	write.DELETE("", controller.Delete)
	write.POST("/import", controller.Import)
}
