package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/docshare-app/docshare/internal/pkg/jwt"
	"github.com/docshare-app/docshare/internal/pkg/response"
)

const ContextUserIDKey = "user_id"

func JWTAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := bearerUserID(c, secret)
		if !ok {
			response.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid authorization")
			c.Abort()
			return
		}
		c.Set(ContextUserIDKey, userID)
		c.Next()
	}
}

// OptionalJWTAuth records the user when a valid bearer token is present
// and lets the request through either way. Public share endpoints use it:
// the same route serves owners, collaborators and anonymous guests.
func OptionalJWTAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID, ok := bearerUserID(c, secret); ok {
			c.Set(ContextUserIDKey, userID)
		}
		c.Next()
	}
}

func bearerUserID(c *gin.Context, secret []byte) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	claims, err := jwt.ParseToken(parts[1], secret)
	if err != nil {
		return "", false
	}
	return claims.UserID, true
}
