package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/installments/backend/internal/infrastructure/auth"
	"github.com/installments/backend/internal/infrastructure/logger"
	"github.com/installments/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// JWT context keys
const (
	JWTClaimsKey  = "jwt_claims"
	JWTUserIDKey  = "jwt_user_id"
	JWTRoleKey    = "jwt_role"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// TokenVerifier validates bearer tokens
type TokenVerifier interface {
	Validate(tokenString string) (*auth.Claims, error)
}

// JWTConfig configures JWTAuth
type JWTConfig struct {
	Verifier TokenVerifier
	// SkipPaths are served without a token
	SkipPaths []string
	Logger    *zap.Logger
}

// JWTAuth requires a valid bearer token and stores its claims on the context
func JWTAuth(cfg JWTConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		header := c.GetHeader(AuthHeaderKey)
		if !strings.HasPrefix(header, BearerPrefix) || strings.TrimPrefix(header, BearerPrefix) == "" {
			abortWithError(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}

		claims, err := cfg.Verifier.Validate(strings.TrimPrefix(header, BearerPrefix))
		if err != nil {
			log.Warn("jwt rejected",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", GetRequestID(c)),
				zap.Error(err))
			code, message := authErrorCode(err)
			abortWithError(c, http.StatusUnauthorized, code, message)
			return
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTUserIDKey, claims.UserID)
		c.Set(JWTRoleKey, string(claims.Role))
		c.Request = c.Request.WithContext(logger.WithUser(c.Request.Context(), claims.UserID, string(claims.Role)))
		c.Next()
	}
}

func authErrorCode(err error) (string, string) {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenNotYetValid):
		return dto.ErrCodeTokenInvalid, "Token is not yet valid"
	case errors.Is(err, auth.ErrInvalidRole):
		return dto.ErrCodeTokenInvalid, "Token carries no valid role"
	}
	return dto.ErrCodeTokenInvalid, "Invalid token"
}

// GetJWTClaims returns the claims stored by JWTAuth, or nil
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(JWTClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetJWTUserID returns the authenticated user id, or ""
func GetJWTUserID(c *gin.Context) string {
	return c.GetString(JWTUserIDKey)
}

// GetJWTRole returns the authenticated role, or ""
func GetJWTRole(c *gin.Context) string {
	return c.GetString(JWTRoleKey)
}
