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

	"github.com/AleutianAI/AleutianInventory/services/inventory/assistant"
	"github.com/AleutianAI/AleutianInventory/services/inventory/datatypes"
	"github.com/AleutianAI/AleutianInventory/services/inventory/middleware"
	"github.com/AleutianAI/AleutianInventory/services/inventory/stock"
	"github.com/AleutianAI/AleutianInventory/services/inventory/storage"
)

const (
	productsPerPage = 10
	// trendWindowDays is the history the product analysis looks at.
	trendWindowDays = 30
)

// ListProducts returns one page of products, optionally filtered by
// ?category_id=.
func ListProducts(store *storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := store.Queries().ListProducts(c.Request.Context(), storage.ProductFilter{
			CategoryID: int64(queryInt(c, "category_id", 0)),
			Page:       queryInt(c, "page", 1),
			PerPage:    productsPerPage,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

// CreateProduct adds a product. A barcode warning does not fail the
// request; it is returned alongside the product.
func CreateProduct(svc *stock.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.ProductRequest
		if !bind(c, &req) {
			return
		}
		res, err := svc.CreateProduct(c.Request.Context(), req, middleware.UserID(c))
		if err != nil {
			if res.Warning != "" {
				c.Header("X-Barcode-Warning", res.Warning)
			}
			respondError(c, err)
			return
		}
		body := gin.H{"message": "Product added successfully", "product": res.Product}
		if res.Warning != "" {
			body["warning"] = res.Warning
		}
		c.JSON(http.StatusCreated, body)
	}
}

// GetProduct returns the product with its history, an assistant trend
// analysis and a restock prediction.
func GetProduct(store *storage.Store, asst *assistant.Assistant, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		q := store.Queries()
		p, err := q.GetProduct(ctx, id)
		if err != nil {
			respondError(c, err)
			return
		}
		txns, err := q.ProductTransactions(ctx, id)
		if err != nil {
			respondError(c, err)
			return
		}
		at := now()
		c.JSON(http.StatusOK, gin.H{
			"product":            p,
			"transactions":       txns,
			"analysis":           asst.InventoryTrends(ctx, p, txns, trendWindowDays, at),
			"restock_prediction": assistant.PredictRestockTiming(p, txns, at),
		})
	}
}

// GetProductInfo returns the short product record used by order forms.
func GetProductInfo(store *storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		p, err := store.Queries().GetProduct(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status": "success",
			"product": gin.H{
				"id":                p.ID,
				"name":              p.Name,
				"sku":               p.SKU,
				"quantity_in_stock": p.QuantityInStock,
				"unit_price":        p.UnitPrice,
				"reorder_level":     p.ReorderLevel,
				"reorder_quantity":  p.ReorderQuantity,
			},
		})
	}
}

// UpdateProduct edits a product, recording an adjustment when the stock
// quantity changes.
func UpdateProduct(svc *stock.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var req datatypes.ProductRequest
		if !bind(c, &req) {
			return
		}
		p, err := svc.UpdateProduct(c.Request.Context(), id, req, middleware.UserID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully", "product": p})
	}
}

// DeleteProduct removes a product and its history.
func DeleteProduct(svc *stock.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		if err := svc.DeleteProduct(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
	}
}
