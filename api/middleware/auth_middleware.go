package middleware

import (
	"net/http"
	"strings"

	"github.com/anoixa/image-api/api/common"
	"github.com/anoixa/image-api/internal/auth"
	"github.com/gin-gonic/gin"
)

const (
	ContextSubjectKey = "subject"
)

// BearerAuth 校验 Authorization: Bearer <token>，jwtService 为 nil 时不做认证
func BearerAuth(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if jwtService == nil {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			common.RespondErrorAbort(c, http.StatusUnauthorized, "No Authorization request header")
			return
		}

		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			common.RespondErrorAbort(c, http.StatusUnauthorized, "Authorization field format error")
			return
		}

		claims, err := jwtService.ParseToken(strings.TrimSpace(token))
		if err != nil {
			common.RespondErrorAbort(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		c.Set(ContextSubjectKey, claims.Subject)
		c.Next()
	}
}
