package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/avensio/avensio-web/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the statements carried inside an issued token. Verification is
// a pure function of the token string and the signing secret, so tokens can
// be checked without a store lookup.
type Claims struct {
	jwt.RegisteredClaims
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
}

// TokenService issues and verifies HMAC-signed authentication tokens.
// The secret is held in memory only and must never be logged.
type TokenService struct {
	secret   []byte
	issuer   string
	lifetime time.Duration
}

// NewTokenService creates a TokenService signing with the given secret and
// stamping tokens with the given issuer and lifetime.
func NewTokenService(secret []byte, issuer string, lifetime time.Duration) *TokenService {
	return &TokenService{secret: secret, issuer: issuer, lifetime: lifetime}
}

// Issue signs a token for the user and returns it together with its
// lifetime in seconds.
func (s *TokenService) Issue(user *domain.User) (string, int64, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.lifetime)),
		},
		Email:    user.Email,
		Username: user.Username,
		Role:     user.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", 0, fmt.Errorf("sign token: %w", err)
	}
	return signed, int64(s.lifetime / time.Second), nil
}

// Verify parses and validates a token string, checking signature, issuer,
// and expiry. Expired tokens return domain.ErrTokenExpired; every other
// failure collapses to domain.ErrTokenInvalid.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}
	if !token.Valid {
		return nil, domain.ErrTokenInvalid
	}
	return claims, nil
}
