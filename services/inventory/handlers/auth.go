// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianInventory/services/inventory/auth"
	"github.com/AleutianAI/AleutianInventory/services/inventory/datatypes"
	"github.com/AleutianAI/AleutianInventory/services/inventory/middleware"
)

// Register creates an account. It does not log the user in.
func Register(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
		user, err := svc.Register(c.Request.Context(), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Registration successful! You can now log in.", "user": user})
	}
}

// Login checks credentials, sets the session cookie and returns the
// token for API clients.
func Login(svc *auth.Service, secureCookie bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
		sess, err := svc.Login(c.Request.Context(), req)
		if err != nil {
			respondError(c, err)
			return
		}
		ttl := svc.Tokens().TTL(req.Remember)
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(middleware.SessionCookie, sess.Token, int(ttl.Seconds()), "/", "", secureCookie, true)
		c.JSON(http.StatusOK, gin.H{
			"token":      sess.Token,
			"expires_in": int(ttl.Seconds()),
			"user":       sess.User,
		})
	}
}

// Logout clears the session cookie. Bearer tokens stay valid until they
// expire.
func Logout(secureCookie bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(middleware.SessionCookie, "", -1, "/", "", secureCookie, true)
		c.JSON(http.StatusOK, gin.H{"message": "You have been logged out"})
	}
}
