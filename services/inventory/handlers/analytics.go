// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianInventory/services/inventory/analytics"
)

// GetAnalytics returns the latest run, running one first if none exists.
func GetAnalytics(a *analytics.Analyzer) gin.HandlerFunc {
	return func(c *gin.Context) {
		results, err := a.LatestOrRun(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ml_results": results})
	}
}

// RunAnalytics starts a run and waits for it.
func RunAnalytics(a *analytics.Analyzer) gin.HandlerFunc {
	return func(c *gin.Context) {
		run, err := a.Run(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "run_id": run.ID, "products": len(run.Results)})
	}
}

// EmailAnalytics mails the latest results, dated now, to every user.
func EmailAnalytics(a *analytics.Analyzer, r *analytics.Reporter, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		results, err := a.LatestOrRun(ctx)
		if err == nil {
			_, err = r.Send(ctx, results, now())
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
