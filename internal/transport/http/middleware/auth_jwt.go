package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"user-management/internal/core/auth"
	resp "user-management/internal/transport/http/response"
)

const (
	KeyClaims   = "claims"
	KeyUsername = "username"
)

// AuthJWT 校验 Bearer token；required=false 时只解析不拦截
func AuthJWT(j *auth.JWTer, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			if required {
				c.AbortWithStatusJSON(http.StatusUnauthorized, resp.Error(http.StatusUnauthorized, "missing token"))
				return
			}
			c.Next()
			return
		}
		claims, err := j.Parse(strings.TrimPrefix(ah, "Bearer "))
		if err != nil {
			if required {
				c.AbortWithStatusJSON(http.StatusUnauthorized, resp.Error(http.StatusUnauthorized, "invalid token"))
				return
			}
			c.Next()
			return
		}
		c.Set(KeyClaims, claims)
		c.Set(KeyUsername, claims.Username)
		c.Next()
	}
}
