// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package auth registers users, checks passwords and issues session
// tokens.
//
// # Description
//
// Passwords are hashed with bcrypt. A successful login yields an HS256
// JWT whose subject is the user id; JWTProvider validates those tokens
// for the HTTP middleware through the extensions.AuthProvider interface.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/AleutianAI/AleutianInventory/services/inventory/datatypes"
	"github.com/AleutianAI/AleutianInventory/services/inventory/storage"
)

var (
	ErrUsernameTaken      = errors.New("Username already exists")
	ErrEmailTaken         = errors.New("Email already registered")
	ErrInvalidCredentials = errors.New("Invalid username or password")
)

// Service handles registration and login.
//
// # Thread Safety
//
// Safe for concurrent use.
type Service struct {
	store  *storage.Store
	tokens *TokenIssuer
	cost   int
}

// NewService returns a Service using bcrypt.DefaultCost.
func NewService(store *storage.Store, tokens *TokenIssuer) *Service {
	return &Service{store: store, tokens: tokens, cost: bcrypt.DefaultCost}
}

// WithCost sets the bcrypt cost. Tests use bcrypt.MinCost.
func (s *Service) WithCost(cost int) *Service {
	s.cost = cost
	return s
}

// Tokens returns the issuer used by Login.
func (s *Service) Tokens() *TokenIssuer { return s.tokens }

// Register creates a user after validating req. The first user of an
// empty database becomes an admin.
//
// # Outputs
//
//   - datatypes.User: the stored user.
//   - error: *datatypes.ValidationError, ErrUsernameTaken, ErrEmailTaken
//     or a storage failure.
func (s *Service) Register(ctx context.Context, req datatypes.RegisterRequest) (datatypes.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := datatypes.Validate(req); err != nil {
		return datatypes.User{}, err
	}

	hash, err := s.HashPassword(req.Password)
	if err != nil {
		return datatypes.User{}, err
	}

	var user datatypes.User
	err = s.store.InTx(ctx, func(q *storage.Queries) error {
		if _, err := q.UserByUsername(ctx, req.Username); err == nil {
			return ErrUsernameTaken
		} else if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		if _, err := q.UserByEmail(ctx, req.Email); err == nil {
			return ErrEmailTaken
		} else if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		n, err := q.CountUsers(ctx)
		if err != nil {
			return err
		}
		user = datatypes.User{Username: req.Username, Email: req.Email, PasswordHash: hash, IsAdmin: n == 0}
		err = q.CreateUser(ctx, &user)
		if errors.Is(err, storage.ErrDuplicate) {
			return ErrUsernameTaken
		}
		return err
	})
	if err != nil {
		return datatypes.User{}, err
	}
	slog.Info("user registered", "user_id", user.ID, "username", user.Username, "admin", user.IsAdmin)
	return user, nil
}

// Session is the result of a successful login.
type Session struct {
	User  datatypes.User
	Token string
}

// Login checks the password and issues a token. Unknown users and wrong
// passwords both return ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, req datatypes.LoginRequest) (Session, error) {
	if err := datatypes.Validate(req); err != nil {
		return Session{}, err
	}
	user, err := s.store.Queries().UserByUsername(ctx, strings.TrimSpace(req.Username))
	if errors.Is(err, storage.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(user, req.Remember)
	if err != nil {
		return Session{}, err
	}
	return Session{User: user, Token: token}, nil
}

// HashPassword returns a bcrypt hash of password.
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", &datatypes.ValidationError{Fields: map[string]string{"password": "must be at most 72 bytes"}}
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
