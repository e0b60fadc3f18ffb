// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianInventory/services/inventory/dashboard"
	"github.com/AleutianAI/AleutianInventory/services/inventory/datatypes"
	"github.com/AleutianAI/AleutianInventory/services/inventory/storage"
)

// GetDashboard returns the dashboard for ?period=. A missing or unknown
// period shows the current week.
func GetDashboard(store *storage.Store, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := datatypes.DashboardQuery{Period: c.Query("period")}
		if err := datatypes.Validate(q); err != nil {
			slog.Debug("unknown dashboard period, using week", "period", q.Period)
			q.Period = datatypes.PeriodWeek
		}
		view, err := dashboard.Build(c.Request.Context(), store, dashboard.ParsePeriod(q.Period), now())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}
