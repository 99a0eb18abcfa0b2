package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/installments/backend/internal/domain/shared"
	"github.com/installments/backend/internal/infrastructure/config"
)

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingUserID    = errors.New("missing user_id in claims")
	ErrInvalidRole      = errors.New("missing or unknown role in claims")
)

// Claims are the bearer token claims this service trusts
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`
	Username string `json:"username,omitempty"`
	Role     Role   `json:"role"`
}

// UserUUID parses the user id
func (c *Claims) UserUUID() (uuid.UUID, error) {
	return uuid.Parse(c.UserID)
}

// Can reports whether the token's role grants permission
func (c *Claims) Can(permission Permission) bool {
	return c.Role.Can(permission)
}

// JWTService verifies bearer tokens. Tokens are issued by an external
// identity provider sharing the HMAC secret; Sign exists for tooling and tests.
type JWTService struct {
	secret []byte
	issuer string
	clock  shared.Clock
}

// NewJWTService creates a JWT service. A nil clock means the system clock.
func NewJWTService(cfg config.JWTConfig, clock shared.Clock) *JWTService {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &JWTService{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		clock:  clock,
	}
}

// TokenInput describes a token to sign
type TokenInput struct {
	UserID   uuid.UUID
	Username string
	Role     Role
	TTL      time.Duration
}

// Sign creates an HS256 token for input
func (s *JWTService) Sign(input TokenInput) (string, time.Time, error) {
	if !input.Role.IsValid() {
		return "", time.Time{}, ErrInvalidRole
	}
	ttl := input.TTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	now := s.clock.Now()
	expiresAt := now.Add(ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   input.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID:   input.UserID.String(),
		Username: input.Username,
		Role:     input.Role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Validate parses tokenString, checks signature, time window, issuer and
// the role claim, and returns the claims
func (s *JWTService) Validate(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg(), jwt.SigningMethodHS384.Alg(), jwt.SigningMethodHS512.Alg()}),
		jwt.WithTimeFunc(s.clock.Now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.UserID == "" {
		return nil, ErrMissingUserID
	}
	if !claims.Role.IsValid() {
		return nil, ErrInvalidRole
	}

	return claims, nil
}
