// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianInventory/services/inventory/assistant"
	"github.com/AleutianAI/AleutianInventory/services/inventory/datatypes"
	"github.com/AleutianAI/AleutianInventory/services/inventory/middleware"
	"github.com/AleutianAI/AleutianInventory/services/inventory/stock"
	"github.com/AleutianAI/AleutianInventory/services/inventory/storage"
)

func ListPurchaseOrders(store *storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := store.Queries().ListPurchaseOrders(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"purchase_orders": orders})
	}
}

func CreatePurchaseOrder(svc *stock.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.PurchaseOrderRequest
		if !bind(c, &req) {
			return
		}
		order, err := svc.CreatePurchaseOrder(c.Request.Context(), req, middleware.UserID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Purchase order created successfully", "purchase_order": order})
	}
}

// GetPurchaseOrder returns the order, its items and an assistant summary.
func GetPurchaseOrder(store *storage.Store, asst *assistant.Assistant) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		order, err := store.Queries().GetPurchaseOrder(ctx, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"purchase_order": order,
			"ai_summary":     asst.PurchaseOrderSummary(ctx, order),
		})
	}
}

func UpdatePurchaseOrder(svc *stock.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var req datatypes.PurchaseOrderRequest
		if !bind(c, &req) {
			return
		}
		order, err := svc.UpdatePurchaseOrder(c.Request.Context(), id, req, middleware.UserID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Purchase order updated successfully", "purchase_order": order})
	}
}

// SetPurchaseOrderStatus changes status; "received" adds the items to
// stock.
func SetPurchaseOrderStatus(svc *stock.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var req datatypes.StatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
		order, err := svc.SetPurchaseOrderStatus(c.Request.Context(), id, req.Status, middleware.UserID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":        fmt.Sprintf("Purchase order status updated to %s", order.Status),
			"purchase_order": order,
		})
	}
}

func DeletePurchaseOrder(svc *stock.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		if err := svc.DeletePurchaseOrder(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Purchase order deleted successfully"})
	}
}
