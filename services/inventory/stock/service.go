// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package stock holds the inventory business rules: product lifecycle,
// stock transactions and purchase orders.
//
// Every stock movement is written inside one database transaction. After
// the commit the movement is reported to the audit trail and counted in
// the Prometheus metrics.
package stock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/AleutianAI/AleutianInventory/pkg/extensions"
	"github.com/AleutianAI/AleutianInventory/services/inventory/barcode"
	"github.com/AleutianAI/AleutianInventory/services/inventory/datatypes"
	"github.com/AleutianAI/AleutianInventory/services/inventory/observability"
	"github.com/AleutianAI/AleutianInventory/services/inventory/storage"
)

// Service applies inventory rules on top of the store.
//
// # Thread Safety
//
// Safe for concurrent use. Consistency between the stock check and the
// update relies on the database transaction.
type Service struct {
	store   *storage.Store
	audit   extensions.AuditLogger
	metrics *observability.Metrics
	now     func() time.Time
}

// NewService creates a Service. audit and metrics may be nil.
func NewService(store *storage.Store, audit extensions.AuditLogger, metrics *observability.Metrics) *Service {
	if audit == nil {
		audit = &extensions.NopAuditLogger{}
	}
	return &Service{store: store, audit: audit, metrics: metrics, now: func() time.Time { return time.Now().UTC() }}
}

// Store exposes the underlying store for read paths.
func (s *Service) Store() *storage.Store { return s.store }

// =============================================================================
// Movement reporting
// =============================================================================

// movement is a committed stock change waiting to be reported.
type movement struct {
	tx     datatypes.Transaction
	sku    string
	delta  int
	after  int
	source string
}

func (s *Service) report(ctx context.Context, moves []movement) {
	for _, m := range moves {
		s.metrics.RecordStockMovement(m.tx.Type, m.source, m.delta)
		var userID int64
		if m.tx.CreatedBy != nil {
			userID = *m.tx.CreatedBy
		}
		err := s.audit.Log(ctx, extensions.AuditEvent{
			EventType:  "stock." + strings.ToLower(m.tx.Type),
			Timestamp:  m.tx.TransactionDate,
			UserID:     userID,
			ProductID:  m.tx.ProductID,
			ProductSKU: m.sku,
			TxType:     m.tx.Type,
			Quantity:   m.tx.Quantity,
			Delta:      m.delta,
			UnitPrice:  m.tx.UnitPrice,
			StockAfter: m.after,
			Source:     m.source,
		})
		if err != nil {
			slog.Warn("audit log failed", "product_id", m.tx.ProductID, "error", err)
		}
	}
}

func userRef(userID int64) *int64 {
	if userID == 0 {
		return nil
	}
	return &userID
}

// =============================================================================
// Products
// =============================================================================

// ProductResult is returned by CreateProduct. Warning carries a barcode
// decoding problem that did not stop the creation.
type ProductResult struct {
	Product datatypes.Product `json:"product"`
	Warning string            `json:"warning,omitempty"`
}

// CreateProduct validates SKU uniqueness, inserts the product and records
// the initial stock as a purchase.
//
// # Description
//
// When BarcodeImage holds a data URL, the decoded barcode text replaces
// the SKU. A decoding failure is reported in ProductResult.Warning and
// the submitted SKU is kept.
//
// # Outputs
//
//   - ErrDuplicateSKU when the SKU is taken.
//   - A *datatypes.ValidationError when no SKU is available.
func (s *Service) CreateProduct(ctx context.Context, req datatypes.ProductRequest, userID int64) (ProductResult, error) {
	var res ProductResult
	sku := strings.TrimSpace(req.SKU)
	if req.BarcodeImage != "" {
		decoded, err := barcode.DecodeDataURL(req.BarcodeImage)
		switch {
		case err == nil:
			sku = decoded
		case errors.Is(err, barcode.ErrNoBarcode):
			res.Warning = "No barcode detected in the captured image."
		default:
			res.Warning = fmt.Sprintf("Barcode decoding error: %v", err)
		}
	}
	if sku == "" {
		return res, &datatypes.ValidationError{Fields: map[string]string{"sku": "This field is required."}}
	}

	level, reorderQty := req.Levels()
	p := datatypes.Product{
		Name:            strings.TrimSpace(req.Name),
		Description:     req.Description,
		SKU:             sku,
		UnitPrice:       req.UnitPrice,
		QuantityInStock: req.QuantityInStock,
		ReorderLevel:    level,
		ReorderQuantity: reorderQty,
		CategoryID:      req.CategoryID,
		SupplierID:      req.SupplierID,
	}

	var moves []movement
	err := s.store.InTx(ctx, func(q *storage.Queries) error {
		if err := ensureSKUFree(ctx, q, sku, 0); err != nil {
			return err
		}
		if err := q.CreateProduct(ctx, &p); err != nil {
			return mapDuplicate(err)
		}
		if p.QuantityInStock <= 0 {
			return nil
		}
		tx := datatypes.Transaction{
			ProductID:       p.ID,
			Type:            datatypes.TxPurchase,
			Quantity:        p.QuantityInStock,
			TransactionDate: s.now(),
			UnitPrice:       p.UnitPrice,
			TotalPrice:      p.UnitPrice * float64(p.QuantityInStock),
			Notes:           "Initial inventory for " + p.Name,
			CreatedBy:       userRef(userID),
		}
		if err := q.CreateTransaction(ctx, &tx); err != nil {
			return err
		}
		moves = append(moves, movement{tx: tx, sku: p.SKU, delta: tx.Quantity, after: p.QuantityInStock, source: extensions.SourceWeb})
		return nil
	})
	if err != nil {
		return res, err
	}
	s.report(ctx, moves)
	res.Product = p
	slog.Info("product created", "product_id", p.ID, "sku", p.SKU, "quantity", p.QuantityInStock)
	return res, nil
}

// UpdateProduct rewrites a product. A changed quantity is recorded as an
// adjustment transaction with the absolute difference.
func (s *Service) UpdateProduct(ctx context.Context, id int64, req datatypes.ProductRequest, userID int64) (datatypes.Product, error) {
	var (
		p     datatypes.Product
		moves []movement
	)
	err := s.store.InTx(ctx, func(q *storage.Queries) error {
		current, err := q.GetProduct(ctx, id)
		if err != nil {
			return err
		}
		sku := strings.TrimSpace(req.SKU)
		if sku == "" {
			sku = current.SKU
		}
		if err := ensureSKUFree(ctx, q, sku, id); err != nil {
			return err
		}
		level, reorderQty := req.Levels()
		p = current
		p.Name = strings.TrimSpace(req.Name)
		p.Description = req.Description
		p.SKU = sku
		p.UnitPrice = req.UnitPrice
		p.QuantityInStock = req.QuantityInStock
		p.ReorderLevel = level
		p.ReorderQuantity = reorderQty
		p.CategoryID = req.CategoryID
		p.SupplierID = req.SupplierID
		if err := q.UpdateProduct(ctx, &p); err != nil {
			return mapDuplicate(err)
		}

		delta := p.QuantityInStock - current.QuantityInStock
		if delta == 0 {
			return nil
		}
		direction := "increased"
		if delta < 0 {
			direction = "decreased"
		}
		tx := datatypes.Transaction{
			ProductID:       p.ID,
			Type:            datatypes.TxAdjustment,
			Quantity:        abs(delta),
			TransactionDate: s.now(),
			UnitPrice:       p.UnitPrice,
			TotalPrice:      p.UnitPrice * float64(abs(delta)),
			Notes:           fmt.Sprintf("Manual adjustment: %s by %d", direction, abs(delta)),
			CreatedBy:       userRef(userID),
		}
		if err := q.CreateTransaction(ctx, &tx); err != nil {
			return err
		}
		moves = append(moves, movement{tx: tx, sku: p.SKU, delta: delta, after: p.QuantityInStock, source: extensions.SourceWeb})
		return nil
	})
	if err != nil {
		return datatypes.Product{}, err
	}
	s.report(ctx, moves)
	return p, nil
}

// DeleteProduct removes a product and everything that references it.
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	err := s.store.InTx(ctx, func(q *storage.Queries) error {
		return q.DeleteProduct(ctx, id)
	})
	if err != nil {
		return err
	}
	slog.Info("product deleted", "product_id", id)
	return nil
}

// DeleteCategory refuses to delete a category that still has products.
func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	return s.store.InTx(ctx, func(q *storage.Queries) error {
		if _, err := q.GetCategory(ctx, id); err != nil {
			return err
		}
		n, err := q.CategoryProductCount(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return &InUseError{Kind: "category"}
		}
		return q.DeleteCategory(ctx, id)
	})
}

// DeleteSupplier refuses to delete a supplier that still has products.
func (s *Service) DeleteSupplier(ctx context.Context, id int64) error {
	return s.store.InTx(ctx, func(q *storage.Queries) error {
		if _, err := q.GetSupplier(ctx, id); err != nil {
			return err
		}
		n, err := q.SupplierProductCount(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return &InUseError{Kind: "supplier"}
		}
		return q.DeleteSupplier(ctx, id)
	})
}

func ensureSKUFree(ctx context.Context, q *storage.Queries, sku string, selfID int64) error {
	existing, err := q.ProductBySKU(ctx, sku)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != selfID:
		return ErrDuplicateSKU
	}
	return nil
}

func mapDuplicate(err error) error {
	if errors.Is(err, storage.ErrDuplicate) {
		return ErrDuplicateSKU
	}
	return err
}

// addStock returns current + delta, or ErrInvalidQuantity when the sum
// overflows int.
func addStock(current, delta int) (int, error) {
	if delta == math.MinInt || (delta > 0 && current > math.MaxInt-delta) {
		return 0, ErrInvalidQuantity
	}
	return current + delta, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
