package router

import (
	"github.com/gin-gonic/gin"

	"projectchat.app/relay/internal/http/handler"
)

func ChatRouter(router *gin.RouterGroup, h *handler.ChatHandler) {
	router.POST("/:projectId", h.Send)
	router.GET("/:projectId/history", h.History)
}
