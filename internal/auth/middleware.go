package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"buzzatt/internal/apperr"
	"buzzatt/internal/logger"
	"buzzatt/internal/model"
)

const claimsKey = "claims"

// Authenticator validates bearer tokens.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (Claims, error)
}

// Bearer enforces a valid, unrevoked bearer token and stores its claims in
// the gin context.
func Bearer(authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if len(authz) < len("bearer ") || !strings.EqualFold(authz[:len("bearer ")], "bearer ") {
			unauthorized(c, "Not authenticated")
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])

		claims, err := authn.Authenticate(c.Request.Context(), tokenStr)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindAuthentication {
				unauthorized(c, apperr.PublicMessage(err))
				return
			}
			logger.FromContext(c.Request.Context()).Error("token check failed", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": apperr.PublicMessage(err)})
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireProfile rejects authenticated callers whose profile type differs.
// It must run after Bearer.
func RequireProfile(p model.ProfileType) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		if !ok {
			unauthorized(c, "Not authenticated")
			return
		}
		if claims.Role != p {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": ErrWrongProfile.Message})
			return
		}
		c.Next()
	}
}

// ClaimsFrom returns the claims stored by Bearer.
func ClaimsFrom(c *gin.Context) (Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return Claims{}, false
	}
	claims, ok := v.(Claims)
	return claims, ok
}

func unauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": msg})
}
