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

	"github.com/AleutianAI/AleutianInventory/services/inventory/datatypes"
	"github.com/AleutianAI/AleutianInventory/services/inventory/middleware"
	"github.com/AleutianAI/AleutianInventory/services/inventory/stock"
	"github.com/AleutianAI/AleutianInventory/services/inventory/storage"
)

// ListTransactions returns transactions newest first. ?type=purchase
// selects stock in rows and ?type=sale stock out rows. The totals always
// cover every row.
func ListTransactions(store *storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		q := store.Queries()
		filter := c.Query("type")
		txns, err := q.ListTransactions(ctx, stock.TransactionsFor(filter))
		if err != nil {
			respondError(c, err)
			return
		}
		totals, err := q.GetTransactionTotals(ctx)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"transactions":    txns,
			"stock_in_count":  totals.StockIn,
			"stock_out_count": totals.StockOut,
			"total_value":     totals.TotalValue,
			"active_filter":   filter,
		})
	}
}

// CreateTransaction records a purchase, sale or adjustment.
func CreateTransaction(svc *stock.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.TransactionRequest
		if !bind(c, &req) {
			return
		}
		tx, err := svc.RecordTransaction(c.Request.Context(), req, middleware.UserID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Transaction added successfully", "transaction": tx})
	}
}
