package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"projectchat.app/relay/common/logger"
)

const RequestIDHeader = "X-Request-ID"

// RequestID echoes the caller's X-Request-ID, or a new UUID, and adds it to the
// log fields of the request context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.NewString()
		}

		c.Header(RequestIDHeader, requestID)
		ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{
			RequestID: &requestID,
		})
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
