package service_test

import (
	"errors"
	"testing"
	"time"

	"github.com/fluxiabiz/fluxiabiz-api/internal/domain"
	"github.com/fluxiabiz/fluxiabiz-api/internal/service"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

func TestTokenVerifier_RoundTrip(t *testing.T) {
	v := service.NewTokenVerifier(testSecret, time.Hour)

	token, expires, err := v.SignDevToken("u-1", "owner@akwa.cm")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if time.Until(expires) < 59*time.Minute {
		t.Errorf("unexpected expiry %v", expires)
	}

	p, err := v.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if p.ID != "u-1" || p.Email != "owner@akwa.cm" || p.AccessToken != token {
		t.Errorf("unexpected principal: %+v", p)
	}
}

func TestTokenVerifier_Rejects(t *testing.T) {
	v := service.NewTokenVerifier(testSecret, time.Hour)
	sign := func(secret string, claims service.JWTClaims) string {
		t.Helper()
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return s
	}
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))

	tests := map[string]string{
		"wrong secret": sign("another-secret-another-secret-another", service.JWTClaims{
			Role: "authenticated", RegisteredClaims: jwt.RegisteredClaims{Subject: "u-1", ExpiresAt: future},
		}),
		"expired": sign(testSecret, service.JWTClaims{
			Role: "authenticated", RegisteredClaims: jwt.RegisteredClaims{Subject: "u-1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
		}),
		"no expiry": sign(testSecret, service.JWTClaims{
			Role: "authenticated", RegisteredClaims: jwt.RegisteredClaims{Subject: "u-1"},
		}),
		"anon role": sign(testSecret, service.JWTClaims{
			Role: "anon", RegisteredClaims: jwt.RegisteredClaims{Subject: "u-1", ExpiresAt: future},
		}),
		"no subject": sign(testSecret, service.JWTClaims{
			Role: "authenticated", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future},
		}),
		"garbage": "not.a.jwt",
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(token)
			var ue *domain.ErrUnauthorized
			if !errors.As(err, &ue) {
				t.Fatalf("expected unauthorized, got %v", err)
			}
		})
	}
}

func TestTokenVerifier_NoSecret(t *testing.T) {
	v := service.NewTokenVerifier("", time.Hour)
	_, err := v.Verify("anything")
	var ue *domain.ErrUnauthorized
	if !errors.As(err, &ue) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}
