package service

import (
	"fmt"
	"time"

	"github.com/fluxiabiz/fluxiabiz-api/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

// ============================================================
// Access token verification
// ============================================================

// authenticatedRole is the role claim the hosted auth service puts on user sessions.
const authenticatedRole = "authenticated"

// JWTClaims are the claims of a hosted-auth access token.
type JWTClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenVerifier validates HS256 access tokens signed with the project's JWT secret.
type TokenVerifier struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenVerifier creates a verifier; ttl applies to dev tokens.
func NewTokenVerifier(secret string, ttl time.Duration) *TokenVerifier {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenVerifier{secret: []byte(secret), ttl: ttl}
}

// Verify parses tokenString and returns the Principal it identifies.
func (v *TokenVerifier) Verify(tokenString string) (*domain.Principal, error) {
	if len(v.secret) == 0 {
		return nil, &domain.ErrUnauthorized{Message: "token verification is not configured"}
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "invalid or expired token"}
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, &domain.ErrUnauthorized{Message: "invalid token"}
	}
	if claims.Subject == "" {
		return nil, &domain.ErrUnauthorized{Message: "token has no subject"}
	}
	if claims.Role != authenticatedRole {
		return nil, &domain.ErrUnauthorized{Message: "token is not a user session"}
	}

	return &domain.Principal{
		ID:          claims.Subject,
		Email:       claims.Email,
		AccessToken: tokenString,
	}, nil
}

// SignDevToken issues a user-session token for local development.
func (v *TokenVerifier) SignDevToken(userID, email string) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, &domain.ErrValidation{Field: "user_id", Message: "required"}
	}
	now := time.Now()
	expires := now.Add(v.ttl)
	claims := JWTClaims{
		Email: email,
		Role:  authenticatedRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Audience:  jwt.ClaimStrings{authenticatedRole},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			Issuer:    "fluxia-dev",
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign dev token: %w", err)
	}
	return signed, expires, nil
}
