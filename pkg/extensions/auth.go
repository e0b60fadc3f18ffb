// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package extensions

import (
	"context"
	"errors"
)

// ErrUnauthorized is returned by AuthProvider implementations when the
// token is missing, malformed, expired or signed with the wrong key.
// Wrap it so callers can test with errors.Is:
//
//	return nil, fmt.Errorf("token expired: %w", extensions.ErrUnauthorized)
var ErrUnauthorized = errors.New("unauthorized")

// RoleAdmin is granted to users created with the admin flag.
const RoleAdmin = "admin"

// AuthInfo is the identity attached to a request after authentication.
type AuthInfo struct {
	// UserID is the users.id primary key. Never zero for a real user.
	UserID int64

	Username string
	Email    string

	// Roles holds role names. Only RoleAdmin is used today.
	Roles []string
}

// HasRole reports whether the user has the given role.
func (a *AuthInfo) HasRole(role string) bool {
	if a == nil {
		return false
	}
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin is shorthand for HasRole(RoleAdmin).
func (a *AuthInfo) IsAdmin() bool {
	return a.HasRole(RoleAdmin)
}

// AuthProvider validates a session token and returns the caller's
// identity.
//
// # Description
//
// Validate is called once per authenticated request by the HTTP
// middleware. Implementations return an error wrapping ErrUnauthorized
// for any token that should be rejected with 401; other errors are
// treated as infrastructure failures and also rejected, but logged.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use.
type AuthProvider interface {
	Validate(ctx context.Context, token string) (*AuthInfo, error)
}

// NopAuthProvider accepts any token as the local admin (user id 1).
// Used by tests and single-user local runs.
type NopAuthProvider struct{}

func (p *NopAuthProvider) Validate(_ context.Context, _ string) (*AuthInfo, error) {
	return &AuthInfo{
		UserID:   1,
		Username: "local-user",
		Roles:    []string{RoleAdmin},
	}, nil
}

var _ AuthProvider = (*NopAuthProvider)(nil)
