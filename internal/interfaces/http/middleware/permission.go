package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/installments/backend/internal/infrastructure/auth"
	"github.com/installments/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// PermissionGuard builds per-route permission checks against the role table
type PermissionGuard struct {
	logger *zap.Logger
}

// NewPermissionGuard creates a guard. A nil logger disables denial logging.
func NewPermissionGuard(logger *zap.Logger) *PermissionGuard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PermissionGuard{logger: logger.Named("rbac")}
}

// Require lets the request through only when the caller's role grants permission
func (g *PermissionGuard) Require(permission auth.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			abortWithError(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}
		if !claims.Can(permission) {
			g.logger.Info("permission denied",
				zap.String("user_id", claims.UserID),
				zap.String("role", string(claims.Role)),
				zap.String("permission", string(permission)),
				zap.String("path", c.Request.URL.Path),
			)
			abortWithError(c, http.StatusForbidden, dto.ErrCodeForbidden,
				"Role "+string(claims.Role)+" lacks permission "+string(permission))
			return
		}
		c.Next()
	}
}

// RequirePermission is Require on a guard without logging
func RequirePermission(permission auth.Permission) gin.HandlerFunc {
	return NewPermissionGuard(nil).Require(permission)
}
