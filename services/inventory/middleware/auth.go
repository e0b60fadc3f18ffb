// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package middleware provides Gin middleware for the inventory API.
//
// # Authentication Flow
//
// The auth middleware takes the session token from the Authorization
// header or, failing that, from the session cookie set at login. The
// token is validated by the configured AuthProvider and the resulting
// AuthInfo is stored in the Gin context.
//
//	Request
//	   │
//	   ▼
//	Auth
//	   │
//	   ├─► "Authorization: Bearer <token>"  or  cookie inventory_session
//	   │
//	   ├─► provider.Validate(ctx, token)
//	   │
//	   └─► SetAuthInfo ─► Handler (UserID / GetAuthInfo)
package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianInventory/pkg/extensions"
)

// SessionCookie is the cookie holding the session token for browser
// clients.
const SessionCookie = "inventory_session"

const authInfoKey = "inventory_auth_info"

// SetAuthInfo stores the authenticated identity in the Gin context.
func SetAuthInfo(c *gin.Context, info *extensions.AuthInfo) {
	c.Set(authInfoKey, info)
}

// GetAuthInfo returns the identity stored by Auth, or nil.
//
// # Examples
//
//	info := middleware.GetAuthInfo(c)
//	if info == nil {
//	    c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
//	    return
//	}
func GetAuthInfo(c *gin.Context) *extensions.AuthInfo {
	if v, ok := c.Get(authInfoKey); ok {
		if info, ok := v.(*extensions.AuthInfo); ok {
			return info
		}
	}
	return nil
}

// UserID returns the authenticated user id, or zero.
func UserID(c *gin.Context) int64 {
	if info := GetAuthInfo(c); info != nil {
		return info.UserID
	}
	return 0
}

// Auth rejects requests whose token the provider does not accept.
//
// # Description
//
// Failures abort with 401 and a JSON body. ErrUnauthorized failures say
// "unauthorized"; any other provider error says "authentication failed"
// and is logged.
//
// # Inputs
//
//   - provider: validates tokens. Must not be nil.
//
// # Thread Safety
//
// The returned handler is safe for concurrent use.
func Auth(provider extensions.AuthProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		info, err := provider.Validate(c.Request.Context(), ExtractToken(c))
		if err != nil {
			if errors.Is(err, extensions.ErrUnauthorized) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
				return
			}
			slog.Warn("auth provider failed", "path", c.Request.URL.Path, "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
			return
		}
		SetAuthInfo(c, info)
		c.Next()
	}
}

// RequireAdmin aborts with 403 unless the caller has the admin role. It
// must run after Auth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetAuthInfo(c).IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin role required"})
			return
		}
		c.Next()
	}
}

// ExtractToken returns the bearer token, falling back to the session
// cookie. The "Bearer" scheme is case-insensitive.
func ExtractToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if token := strings.TrimSpace(parts[1]); token != "" {
				return token
			}
		}
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return cookie
	}
	return ""
}
