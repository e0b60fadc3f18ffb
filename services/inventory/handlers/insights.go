// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianInventory/services/inventory/assistant"
	"github.com/AleutianAI/AleutianInventory/services/inventory/datatypes"
	"github.com/AleutianAI/AleutianInventory/services/inventory/storage"
)

const (
	topSellerDays  = 30
	topSellerCount = 5
)

// Recommendations asks the assistant for restocking advice based on the
// catalog, the last month's top sellers and low stock products.
func Recommendations(store *storage.Store, asst *assistant.Assistant, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		q := store.Queries()
		products, err := q.AllProducts(ctx)
		if err != nil {
			respondError(c, err)
			return
		}
		txns, err := q.TransactionsSince(ctx, now().AddDate(0, 0, -topSellerDays))
		if err != nil {
			respondError(c, err)
			return
		}
		low, err := q.LowStockProducts(ctx, true, 0)
		if err != nil {
			respondError(c, err)
			return
		}
		top := TopSellers(products, txns, topSellerCount)
		c.JSON(http.StatusOK, gin.H{
			"recommendations": asst.InventoryRecommendations(ctx, products, top, low),
			"top_sellers":     top,
			"low_stock":       low,
		})
	}
}

// TopSellers ranks products by units sold in txns, highest first, ties
// by name. Products with no sales are left out.
func TopSellers(products []datatypes.Product, txns []datatypes.Transaction, limit int) []assistant.TopSeller {
	sold := map[int64]int{}
	for _, t := range txns {
		if strings.EqualFold(t.Type, datatypes.TxSale) {
			sold[t.ProductID] += t.Quantity
		}
	}
	var out []assistant.TopSeller
	for _, p := range products {
		if n := sold[p.ID]; n > 0 {
			out = append(out, assistant.TopSeller{Product: p, Quantity: n})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		return out[i].Product.Name < out[j].Product.Name
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
