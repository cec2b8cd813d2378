package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/vipogroup/vipo-api/internal/shared"
)

func RegisterRoutes(router *gin.RouterGroup, service *Service, limiter *shared.RateLimiter, secureCookie bool) {
	controller := NewController(service, secureCookie)

	group := router.Group("/auth")
	group.POST("/register", limiter.Middleware(shared.LimitRegister), controller.Register)
	group.POST("/login", limiter.Middleware(shared.LimitLogin), controller.Login)
	group.POST("/logout", controller.Logout)
	group.GET("/me", shared.RequireAuth(), controller.Me)
}
