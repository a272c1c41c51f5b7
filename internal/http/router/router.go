package router

import (
	"github.com/gin-gonic/gin"

	"projectchat.app/relay/internal/http/handler"
	"projectchat.app/relay/internal/http/middleware"
	"projectchat.app/relay/internal/service"
)

type RouterConfig struct {
	Verifier middleware.TokenVerifier
}

func SetupRoutes(router *gin.Engine, services *service.Services, cfg RouterConfig) {
	health := func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	}
	router.GET("/health", health)

	api := router.Group("/api")
	{
		api.GET("/health", health)

		chatHandler := handler.NewChatHandler(services.Exchanges())
		ChatRouter(api.Group("/chat", middleware.RequireAuth(cfg.Verifier)), chatHandler)
	}
}
