// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/AleutianAI/AleutianInventory/pkg/extensions"
	"github.com/AleutianAI/AleutianInventory/services/inventory/datatypes"
)

const (
	tokenIssuer = "aleutian-inventory"
	// rememberTTL replaces the session TTL when the user asks to be
	// remembered.
	rememberTTL = 30 * 24 * time.Hour
)

// Claims are the custom JWT claims.
type Claims struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Admin    bool   `json:"admin"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and parses HS256 session tokens.
type TokenIssuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewTokenIssuer returns an issuer. An empty secret is an error.
func NewTokenIssuer(secret string, ttl time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("token secret is empty")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{key: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL returns the session lifetime, for cookie max-age.
func (t *TokenIssuer) TTL(remember bool) time.Duration {
	if remember {
		return rememberTTL
	}
	return t.ttl
}

// Issue returns a signed token for user.
func (t *TokenIssuer) Issue(user datatypes.User, remember bool) (string, error) {
	now := t.now()
	claims := Claims{
		Username: user.Username,
		Email:    user.Email,
		Admin:    user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.TTL(remember))),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies token and returns its claims. Every failure wraps
// extensions.ErrUnauthorized.
func (t *TokenIssuer) Parse(token string) (*Claims, error) {
	if token == "" {
		return nil, fmt.Errorf("missing token: %w", extensions.ErrUnauthorized)
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) { return t.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", extensions.ErrUnauthorized, err)
	}
	return claims, nil
}

// JWTProvider validates session tokens for the HTTP middleware.
type JWTProvider struct {
	issuer *TokenIssuer
}

func NewJWTProvider(issuer *TokenIssuer) *JWTProvider {
	return &JWTProvider{issuer: issuer}
}

// Validate implements extensions.AuthProvider.
func (p *JWTProvider) Validate(_ context.Context, token string) (*extensions.AuthInfo, error) {
	claims, err := p.issuer.Parse(token)
	if err != nil {
		return nil, err
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("bad subject %q: %w", claims.Subject, extensions.ErrUnauthorized)
	}
	info := &extensions.AuthInfo{UserID: id, Username: claims.Username, Email: claims.Email}
	if claims.Admin {
		info.Roles = []string{extensions.RoleAdmin}
	}
	return info, nil
}

var _ extensions.AuthProvider = (*JWTProvider)(nil)
