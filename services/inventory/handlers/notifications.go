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

	"github.com/AleutianAI/AleutianInventory/services/inventory/notify"
)

// ListNotifications returns unread notifications first, newest first.
func ListNotifications(n *notify.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := n.List(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"notifications": list})
	}
}

func MarkNotificationRead(n *notify.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		if err := n.MarkRead(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// ScanNotifications runs the low stock and irregular activity checks
// now instead of waiting for the scheduler.
func ScanNotifications(s *notify.Scheduler) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := s.RunNow(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"low_stock": res.LowStock, "irregular": res.Irregular, "created": res.Total()})
	}
}
