package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4/request"

	"projectchat.app/relay/common/logger"
	"projectchat.app/relay/internal/model"
)

type contextKey string

const principalContextKey contextKey = "principal"

// TokenVerifier is satisfied by *auth.Gate.
type TokenVerifier interface {
	Verify(token string) (*model.Principal, error)
}

// RequireAuth rejects requests without a valid bearer token and puts the
// principal on the request context.
func RequireAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		token, ok := bearerToken(c.Request)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no token provided"})
			return
		}

		principal, err := verifier.Verify(token)
		if err != nil {
			slog.InfoContext(ctx, "rejected bearer token", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		ctx = context.WithValue(ctx, principalContextKey, principal)
		ctx = logger.WithLogFields(ctx, logger.LogFields{
			PrincipalID: &principal.ID,
		})
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetPrincipal returns the principal set by RequireAuth, or nil.
func GetPrincipal(ctx context.Context) *model.Principal {
	principal, _ := ctx.Value(principalContextKey).(*model.Principal)
	return principal
}

// bearerToken extracts the token from the Authorization header. A missing header
// or a bare "Bearer " counts as no token; other schemes are left for the
// verifier to reject.
func bearerToken(r *http.Request) (string, bool) {
	token, err := request.AuthorizationHeaderExtractor.ExtractToken(r)
	if err != nil {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
