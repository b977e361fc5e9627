package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"orga/internal/domain"
)

func testUser() domain.User {
	return domain.User{
		ID:        "u1",
		Email:     "user@example.com",
		Role:      domain.RoleTenantAdmin,
		TenantID:  "t1",
		CreatedAt: time.Now().UTC(),
	}
}

func TestJWTService_GenerateParseAccess(t *testing.T) {
	svc := NewJWTService("secret", 15*time.Minute, 30*time.Minute, nil)

	pair, err := svc.GeneratePair(context.Background(), testUser())
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" || pair.ExpiresIn != 900 {
		t.Fatalf("unexpected pair: %+v", pair)
	}

	claims, err := svc.ParseAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("parse access: %v", err)
	}
	if claims.Subject != "user@example.com" || claims.UserID != "u1" {
		t.Fatalf("unexpected identity claims: %+v", claims)
	}
	if claims.Role != domain.RoleTenantAdmin || claims.TenantID != "t1" {
		t.Fatalf("unexpected role/tenant claims: %+v", claims)
	}
}

func TestJWTService_RefreshRotation(t *testing.T) {
	ctx := context.Background()
	svc := NewJWTService("secret", 15*time.Minute, 30*time.Minute, NewMemoryRefreshTokenStore())

	pair, err := svc.GeneratePair(ctx, testUser())
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}

	claims, err := svc.ConsumeRefresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("consume refresh: %v", err)
	}
	if claims.Subject != "user@example.com" {
		t.Fatalf("unexpected subject %q", claims.Subject)
	}

	if _, err := svc.ConsumeRefresh(ctx, pair.RefreshToken); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected reused refresh token to be rejected, got %v", err)
	}
}

func TestJWTService_RevokeRefresh(t *testing.T) {
	ctx := context.Background()
	svc := NewJWTService("secret", 15*time.Minute, 30*time.Minute, nil)
	pair, err := svc.GeneratePair(ctx, testUser())
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}

	if err := svc.RevokeRefresh(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("revoke refresh: %v", err)
	}
	if _, err := svc.ConsumeRefresh(ctx, pair.RefreshToken); err == nil {
		t.Fatalf("expected refresh to fail after revoke")
	}
}

func TestJWTService_RejectsEmptySecret(t *testing.T) {
	svc := NewJWTService("", 15*time.Minute, 30*time.Minute, nil)
	if _, err := svc.GeneratePair(context.Background(), testUser()); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected ErrJWTInvalid on empty secret, got %v", err)
	}
}

func TestJWTService_TokenTypesAreNotInterchangeable(t *testing.T) {
	ctx := context.Background()
	svc := NewJWTService("secret", 15*time.Minute, 30*time.Minute, nil)
	pair, err := svc.GeneratePair(ctx, testUser())
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}

	if _, err := svc.ConsumeRefresh(ctx, pair.AccessToken); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected ErrJWTInvalid for access token used as refresh, got %v", err)
	}
	if _, err := svc.ParseAccessToken(pair.RefreshToken); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected ErrJWTInvalid for refresh token used as access, got %v", err)
	}
}

func TestJWTService_RejectsWrongIssuerAndExpired(t *testing.T) {
	svc := NewJWTService("secret", 15*time.Minute, 30*time.Minute, nil)
	now := time.Now().UTC()
	sign := func(issuer string, exp time.Time) string {
		claims := Claims{
			UserID:    "u1",
			TokenType: tokenTypeAccess,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    issuer,
				Subject:   "user@example.com",
				IssuedAt:  jwt.NewNumericDate(now.Add(-time.Hour)),
				ExpiresAt: jwt.NewNumericDate(exp),
			},
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		if err != nil {
			t.Fatalf("sign token: %v", err)
		}
		return signed
	}

	if _, err := svc.ParseAccessToken(sign("other-issuer", now.Add(10*time.Minute))); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected ErrJWTInvalid for wrong issuer, got %v", err)
	}
	if _, err := svc.ParseAccessToken(sign("orga", now.Add(-time.Minute))); !errors.Is(err, ErrJWTExpired) {
		t.Fatalf("expected ErrJWTExpired, got %v", err)
	}
}
