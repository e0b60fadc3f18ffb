// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianInventory/services/inventory/datatypes"
	"github.com/AleutianAI/AleutianInventory/services/inventory/stock"
	"github.com/AleutianAI/AleutianInventory/services/inventory/storage"
)

// =============================================================================
// Categories
// =============================================================================

func ListCategories(store *storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		cats, err := store.Queries().ListCategories(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"categories": cats})
	}
}

func GetCategory(store *storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		cat, err := store.Queries().GetCategory(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, cat)
	}
}

func CreateCategory(store *storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.CategoryRequest
		if !bind(c, &req) {
			return
		}
		cat := datatypes.Category{Name: strings.TrimSpace(req.Name), Description: req.Description}
		if err := store.Queries().CreateCategory(c.Request.Context(), &cat); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Category added successfully", "category": cat})
	}
}

func UpdateCategory(store *storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var req datatypes.CategoryRequest
		if !bind(c, &req) {
			return
		}
		ctx := c.Request.Context()
		q := store.Queries()
		cat, err := q.GetCategory(ctx, id)
		if err != nil {
			respondError(c, err)
			return
		}
		cat.Name, cat.Description = strings.TrimSpace(req.Name), req.Description
		if err := q.UpdateCategory(ctx, &cat); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Category updated successfully", "category": cat})
	}
}

func DeleteCategory(svc *stock.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		if err := svc.DeleteCategory(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
	}
}

// =============================================================================
// Suppliers
// =============================================================================

func ListSuppliers(store *storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		sups, err := store.Queries().ListSuppliers(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"suppliers": sups})
	}
}

// SupplierStats returns active and received order counts, supplied
// product count and the top suppliers by product count.
func SupplierStats(store *storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := store.Queries().GetSupplierStats(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

func GetSupplier(store *storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		sup, err := store.Queries().GetSupplier(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, sup)
	}
}

func CreateSupplier(store *storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.SupplierRequest
		if !bind(c, &req) {
			return
		}
		sup := supplierFrom(req)
		if err := store.Queries().CreateSupplier(c.Request.Context(), &sup); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Supplier added successfully", "supplier": sup})
	}
}

func UpdateSupplier(store *storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var req datatypes.SupplierRequest
		if !bind(c, &req) {
			return
		}
		ctx := c.Request.Context()
		q := store.Queries()
		existing, err := q.GetSupplier(ctx, id)
		if err != nil {
			respondError(c, err)
			return
		}
		sup := supplierFrom(req)
		sup.ID, sup.CreatedAt = existing.ID, existing.CreatedAt
		if err := q.UpdateSupplier(ctx, &sup); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Supplier updated successfully", "supplier": sup})
	}
}

func DeleteSupplier(svc *stock.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		if err := svc.DeleteSupplier(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Supplier deleted successfully"})
	}
}

func supplierFrom(req datatypes.SupplierRequest) datatypes.Supplier {
	return datatypes.Supplier{
		Name:          strings.TrimSpace(req.Name),
		ContactPerson: req.ContactPerson,
		Email:         req.Email,
		Phone:         req.Phone,
		Address:       req.Address,
	}
}

// supplierCSVHeader is the export column order.
var supplierCSVHeader = []string{"ID", "Name", "Contact Person", "Email", "Phone", "Address", "Products Count"}

// ExportSuppliers streams every supplier as a CSV attachment named
// suppliers_export_YYYYMMDD_HHMMSS.csv.
func ExportSuppliers(store *storage.Store, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		sups, err := store.Queries().ListSuppliers(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		name := fmt.Sprintf("suppliers_export_%s.csv", now().Format("20060102_150405"))
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
		c.Status(http.StatusOK)

		w := csv.NewWriter(c.Writer)
		_ = w.Write(supplierCSVHeader)
		for _, s := range sups {
			_ = w.Write([]string{
				strconv.FormatInt(s.ID, 10), s.Name, s.ContactPerson, s.Email, s.Phone, s.Address,
				strconv.Itoa(s.ProductCount),
			})
		}
		w.Flush()
		if err := w.Error(); err != nil {
			_ = c.Error(err)
		}
	}
}
