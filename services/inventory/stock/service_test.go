// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package stock_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"image/png"
	"math"
	"testing"
	"time"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianInventory/pkg/extensions"
	"github.com/AleutianAI/AleutianInventory/services/inventory/datatypes"
	"github.com/AleutianAI/AleutianInventory/services/inventory/observability"
	"github.com/AleutianAI/AleutianInventory/services/inventory/stock"
	"github.com/AleutianAI/AleutianInventory/services/inventory/storage"
	"github.com/AleutianAI/AleutianInventory/services/inventory/storage/storagetest"
)

type harness struct {
	svc     *stock.Service
	store   *storage.Store
	fx      storagetest.Fixture
	audit   *extensions.MemoryAuditLogger
	metrics *observability.Metrics
}

func newHarness(t *testing.T) harness {
	t.Helper()
	store := storagetest.New(t)
	audit := &extensions.MemoryAuditLogger{}
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	return harness{
		svc:     stock.NewService(store, audit, metrics),
		store:   store,
		fx:      storagetest.Seed(t, store),
		audit:   audit,
		metrics: metrics,
	}
}

func (h harness) productRequest(name, sku string, qty int) datatypes.ProductRequest {
	return datatypes.ProductRequest{
		Name:            name,
		SKU:             sku,
		UnitPrice:       25,
		QuantityInStock: qty,
		CategoryID:      h.fx.CategoryID,
		SupplierID:      h.fx.SupplierID,
	}
}

// =============================================================================
// Products
// =============================================================================

func TestCreateProduct_RecordsInitialPurchase(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res, err := h.svc.CreateProduct(ctx, h.productRequest("Laptop", "EL-LAP-001", 4), h.fx.UserID)
	require.NoError(t, err)
	assert.Empty(t, res.Warning)
	assert.Equal(t, datatypes.DefaultReorderLevel, res.Product.ReorderLevel)
	assert.Equal(t, datatypes.DefaultReorderQuantity, res.Product.ReorderQuantity)

	txns, err := h.store.Queries().ProductTransactions(ctx, res.Product.ID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, datatypes.TxPurchase, txns[0].Type)
	assert.Equal(t, 4, txns[0].Quantity)
	assert.InDelta(t, 100.0, txns[0].TotalPrice, 1e-9)
	assert.Equal(t, "Initial inventory for Laptop", txns[0].Notes)

	events := h.audit.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "stock.purchase", events[0].EventType)
	assert.Equal(t, 4, events[0].Delta)
	assert.Equal(t, extensions.SourceWeb, events[0].Source)
	assert.Equal(t, 4.0, testutil.ToFloat64(h.metrics.StockUnitsTotal.WithLabelValues("in")))
}

func TestCreateProduct_ZeroQuantityHasNoTransaction(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res, err := h.svc.CreateProduct(ctx, h.productRequest("Cable", "EL-CAB-001", 0), h.fx.UserID)
	require.NoError(t, err)

	txns, err := h.store.Queries().ProductTransactions(ctx, res.Product.ID)
	require.NoError(t, err)
	assert.Empty(t, txns)
	assert.Empty(t, h.audit.Events())
}

func TestCreateProduct_DuplicateSKU(t *testing.T) {
	h := newHarness(t)
	h.fx.Product(t, h.store, "Laptop", "EL-LAP-001", 5, 3)

	_, err := h.svc.CreateProduct(context.Background(), h.productRequest("Other", "EL-LAP-001", 1), h.fx.UserID)
	assert.ErrorIs(t, err, stock.ErrDuplicateSKU)
	assert.Equal(t, "A product with this SKU already exists. Please enter a unique SKU.", err.Error())
}

func TestCreateProduct_BarcodeReplacesSKU(t *testing.T) {
	h := newHarness(t)
	matrix, err := qrcode.NewQRCodeWriter().Encode("QR-SKU-42", gozxing.BarcodeFormat_QR_CODE, 240, 240, nil)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, matrix))

	req := h.productRequest("Scanner", "typed", 0)
	req.BarcodeImage = "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())

	res, err := h.svc.CreateProduct(context.Background(), req, h.fx.UserID)
	require.NoError(t, err)
	assert.Equal(t, "QR-SKU-42", res.Product.SKU)
}

func TestCreateProduct_BadBarcodeKeepsSKU(t *testing.T) {
	h := newHarness(t)
	req := h.productRequest("Scanner", "SC-001", 0)
	req.BarcodeImage = "not a data url"

	res, err := h.svc.CreateProduct(context.Background(), req, h.fx.UserID)
	require.NoError(t, err)
	assert.Equal(t, "SC-001", res.Product.SKU)
	assert.Contains(t, res.Warning, "Barcode decoding error")
}

func TestCreateProduct_MissingSKU(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.CreateProduct(context.Background(), h.productRequest("Nameless", " ", 0), h.fx.UserID)

	var verr *datatypes.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "sku")
}

func TestUpdateProduct_AdjustmentTransaction(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.fx.Product(t, h.store, "Mouse", "EL-MOU-001", 10, 5)

	req := h.productRequest("Mouse", "EL-MOU-001", 7)
	updated, err := h.svc.UpdateProduct(ctx, p.ID, req, h.fx.UserID)
	require.NoError(t, err)
	assert.Equal(t, 7, updated.QuantityInStock)

	txns, err := h.store.Queries().ProductTransactions(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, datatypes.TxAdjustment, txns[0].Type)
	assert.Equal(t, 3, txns[0].Quantity)
	assert.Equal(t, "Manual adjustment: decreased by 3", txns[0].Notes)

	req.QuantityInStock = 12
	_, err = h.svc.UpdateProduct(ctx, p.ID, req, h.fx.UserID)
	require.NoError(t, err)
	txns, err = h.store.Queries().ProductTransactions(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, "Manual adjustment: increased by 5", txns[0].Notes)
}

func TestUpdateProduct_SKUConflict(t *testing.T) {
	h := newHarness(t)
	h.fx.Product(t, h.store, "Mouse", "EL-MOU-001", 10, 5)
	kb := h.fx.Product(t, h.store, "Keyboard", "EL-KEY-001", 10, 5)

	_, err := h.svc.UpdateProduct(context.Background(), kb.ID, h.productRequest("Keyboard", "EL-MOU-001", 10), h.fx.UserID)
	assert.ErrorIs(t, err, stock.ErrDuplicateSKU)

	_, err = h.svc.UpdateProduct(context.Background(), kb.ID, h.productRequest("Keyboard 2", "EL-KEY-001", 10), h.fx.UserID)
	assert.NoError(t, err, "keeping its own SKU is allowed")
}

func TestUpdateProduct_NotFound(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.UpdateProduct(context.Background(), 999, h.productRequest("X", "X-1", 1), h.fx.UserID)
	assert.ErrorIs(t, err, stock.ErrNotFound)
}

func TestDeleteCategoryAndSupplier_InUse(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.fx.Product(t, h.store, "Mouse", "EL-MOU-001", 10, 5)

	err := h.svc.DeleteCategory(ctx, h.fx.CategoryID)
	assert.ErrorIs(t, err, stock.ErrInUse)
	assert.Equal(t, "Cannot delete category because it is in use by one or more products", err.Error())

	err = h.svc.DeleteSupplier(ctx, h.fx.SupplierID)
	assert.ErrorIs(t, err, stock.ErrInUse)
	assert.Contains(t, err.Error(), "Cannot delete supplier")

	require.NoError(t, h.svc.DeleteProduct(ctx, p.ID))
	assert.NoError(t, h.svc.DeleteCategory(ctx, h.fx.CategoryID))
	assert.NoError(t, h.svc.DeleteSupplier(ctx, h.fx.SupplierID))
	assert.ErrorIs(t, h.svc.DeleteCategory(ctx, h.fx.CategoryID), stock.ErrNotFound)
}

// =============================================================================
// Transactions
// =============================================================================

func TestRecordTransaction(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.fx.Product(t, h.store, "Monitor", "EL-MON-001", 5, 2)

	tests := []struct {
		name    string
		kind    string
		qty     int
		want    int
		wantErr error
	}{
		{"purchase adds", datatypes.TxPurchase, 3, 8, nil},
		{"sale subtracts", datatypes.TxSale, 6, 2, nil},
		{"adjustment records only", datatypes.TxAdjustment, 4, 2, nil},
		{"oversell rejected", datatypes.TxSale, 3, 2, stock.ErrInsufficientStock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := h.svc.RecordTransaction(ctx, datatypes.TransactionRequest{
				ProductID: p.ID, Type: tt.kind, Quantity: tt.qty, UnitPrice: 12.5,
			}, h.fx.UserID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.InDelta(t, 12.5*float64(tt.qty), tx.TotalPrice, 1e-9)
			}
			got, err := h.store.Queries().GetProduct(ctx, p.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.QuantityInStock)
		})
	}

	txns, err := h.store.Queries().ProductTransactions(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, txns, 3, "rejected sale leaves no row")
}

func TestRecordTransaction_KeepsGivenDate(t *testing.T) {
	h := newHarness(t)
	p := h.fx.Product(t, h.store, "Monitor", "EL-MON-001", 5, 2)
	at := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	tx, err := h.svc.RecordTransaction(context.Background(), datatypes.TransactionRequest{
		ProductID: p.ID, Type: datatypes.TxPurchase, Quantity: 1, TransactionDate: &at,
	}, h.fx.UserID)
	require.NoError(t, err)
	assert.True(t, at.Equal(tx.TransactionDate))
}

func TestApplyStockDelta(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.fx.Product(t, h.store, "Headphones", "EL-HEA-001", 2, 5)

	change, err := h.svc.ApplyStockDelta(ctx, p.ID, 5, h.fx.UserID, "")
	require.NoError(t, err)
	assert.Equal(t, 2, change.From)
	assert.Equal(t, 7, change.To)
	assert.Equal(t, 7, change.Product.QuantityInStock)

	change, err = h.svc.ApplyStockDelta(ctx, p.ID, -7, h.fx.UserID, extensions.SourceDiscord)
	require.NoError(t, err)
	assert.Equal(t, 0, change.To)

	_, err = h.svc.ApplyStockDelta(ctx, p.ID, -1, h.fx.UserID, "")
	assert.ErrorIs(t, err, stock.ErrInsufficientStock)

	txns, err := h.store.Queries().ProductTransactions(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, datatypes.TxOut, txns[0].Type)
	assert.Equal(t, 7, txns[0].Quantity)
	assert.Equal(t, "Stock update via chatbot", txns[0].Notes)
	assert.Equal(t, datatypes.TxIn, txns[1].Type)

	events := h.audit.Events()
	require.Len(t, events, 2)
	assert.Equal(t, extensions.SourceChatbot, events[0].Source)
	assert.Equal(t, extensions.SourceDiscord, events[1].Source)
	assert.Equal(t, -7, events[1].Delta)
}

func TestApplyStockDelta_Zero(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.ApplyStockDelta(context.Background(), 1, 0, h.fx.UserID, "")
	assert.Error(t, err)
}

func TestStockCounter_Overflow(t *testing.T) {
	tests := []struct {
		name  string
		apply func(h harness, id int64) error
	}{
		{"purchase", func(h harness, id int64) error {
			_, err := h.svc.RecordTransaction(context.Background(), datatypes.TransactionRequest{
				ProductID: id, Type: datatypes.TxPurchase, Quantity: 10,
			}, h.fx.UserID)
			return err
		}},
		{"chatbot delta", func(h harness, id int64) error {
			_, err := h.svc.ApplyStockDelta(context.Background(), id, 10, h.fx.UserID, "")
			return err
		}},
		{"order receipt", func(h harness, id int64) error {
			_, err := h.svc.CreatePurchaseOrder(context.Background(), datatypes.PurchaseOrderRequest{
				SupplierID: h.fx.SupplierID,
				Status:     datatypes.POReceived,
				Items:      []datatypes.PurchaseOrderItemRequest{{ProductID: id, Quantity: 10, UnitPrice: 1}},
			}, h.fx.UserID)
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			ctx := context.Background()
			p := h.fx.Product(t, h.store, "Cable", "EL-CAB-001", 0, 5)
			require.NoError(t, h.store.Queries().SetProductStock(ctx, p.ID, math.MaxInt-3))

			assert.ErrorIs(t, tt.apply(h, p.ID), stock.ErrInvalidQuantity)

			got, err := h.store.Queries().GetProduct(ctx, p.ID)
			require.NoError(t, err)
			assert.Equal(t, math.MaxInt-3, got.QuantityInStock)
			txns, err := h.store.Queries().ProductTransactions(ctx, p.ID)
			require.NoError(t, err)
			assert.Empty(t, txns)
			assert.Empty(t, h.audit.Events())
		})
	}
}

func TestTransactionsFor(t *testing.T) {
	assert.Equal(t, []string{"purchase", "IN"}, stock.TransactionsFor("purchase"))
	assert.Equal(t, []string{"sale", "OUT"}, stock.TransactionsFor("sale"))
	assert.Equal(t, []string{"adjustment"}, stock.TransactionsFor("adjustment"))
	assert.Nil(t, stock.TransactionsFor(""))
}

// =============================================================================
// Purchase orders
// =============================================================================

func TestPurchaseOrder_Lifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	mouse := h.fx.Product(t, h.store, "Mouse", "EL-MOU-001", 1, 5)
	kb := h.fx.Product(t, h.store, "Keyboard", "EL-KEY-001", 0, 5)

	order, err := h.svc.CreatePurchaseOrder(ctx, datatypes.PurchaseOrderRequest{
		SupplierID: h.fx.SupplierID,
		Items: []datatypes.PurchaseOrderItemRequest{
			{ProductID: mouse.ID, Quantity: 10, UnitPrice: 15},
			{ProductID: kb.ID, Quantity: 4, UnitPrice: 40},
		},
	}, h.fx.UserID)
	require.NoError(t, err)
	assert.Equal(t, datatypes.POPending, order.Status)
	assert.InDelta(t, 310.0, order.TotalAmount, 1e-9)

	order, err = h.svc.UpdatePurchaseOrder(ctx, order.ID, datatypes.PurchaseOrderRequest{
		SupplierID: h.fx.SupplierID,
		Notes:      "rush",
		Items:      []datatypes.PurchaseOrderItemRequest{{ProductID: mouse.ID, Quantity: 20, UnitPrice: 15}},
	}, h.fx.UserID)
	require.NoError(t, err)
	assert.InDelta(t, 300.0, order.TotalAmount, 1e-9)

	_, err = h.svc.SetPurchaseOrderStatus(ctx, order.ID, "shipped", h.fx.UserID)
	assert.ErrorIs(t, err, stock.ErrInvalidStatus)

	_, err = h.svc.SetPurchaseOrderStatus(ctx, order.ID, datatypes.POApproved, h.fx.UserID)
	require.NoError(t, err)

	received, err := h.svc.SetPurchaseOrderStatus(ctx, order.ID, datatypes.POReceived, h.fx.UserID)
	require.NoError(t, err)
	assert.NotNil(t, received.ReceivedAt)

	got, err := h.store.Queries().GetProduct(ctx, mouse.ID)
	require.NoError(t, err)
	assert.Equal(t, 21, got.QuantityInStock)

	txns, err := h.store.Queries().ProductTransactions(ctx, mouse.ID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "Received from PO #1", txns[0].Notes)

	_, err = h.svc.SetPurchaseOrderStatus(ctx, order.ID, datatypes.POReceived, h.fx.UserID)
	assert.ErrorIs(t, err, stock.ErrAlreadyReceived)
	got, err = h.store.Queries().GetProduct(ctx, mouse.ID)
	require.NoError(t, err)
	assert.Equal(t, 21, got.QuantityInStock, "second receive adds nothing")

	_, err = h.svc.UpdatePurchaseOrder(ctx, order.ID, datatypes.PurchaseOrderRequest{SupplierID: h.fx.SupplierID}, h.fx.UserID)
	assert.ErrorIs(t, err, stock.ErrAlreadyReceived)

	require.NoError(t, h.svc.DeletePurchaseOrder(ctx, order.ID))
	_, err = h.store.Queries().GetPurchaseOrder(ctx, order.ID)
	assert.ErrorIs(t, err, stock.ErrNotFound)
}

func TestCreatePurchaseOrder_ReceivedImmediately(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.fx.Product(t, h.store, "Mouse", "EL-MOU-001", 0, 5)

	order, err := h.svc.CreatePurchaseOrder(ctx, datatypes.PurchaseOrderRequest{
		SupplierID: h.fx.SupplierID,
		Status:     datatypes.POReceived,
		Items:      []datatypes.PurchaseOrderItemRequest{{ProductID: p.ID, Quantity: 3, UnitPrice: 2}},
	}, h.fx.UserID)
	require.NoError(t, err)
	assert.Equal(t, datatypes.POReceived, order.Status)

	got, err := h.store.Queries().GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.QuantityInStock)
	require.Len(t, h.audit.Events(), 1)
	assert.Equal(t, extensions.SourcePurchaseOrder, h.audit.Events()[0].Source)
}

func TestSetPurchaseOrderStatus_ReceivedIsFinal(t *testing.T) {
	for _, next := range []string{datatypes.POPending, datatypes.POApproved, datatypes.POCanceled} {
		t.Run(next, func(t *testing.T) {
			h := newHarness(t)
			ctx := context.Background()
			p := h.fx.Product(t, h.store, "Mouse", "EL-MOU-001", 5, 2)

			order, err := h.svc.CreatePurchaseOrder(ctx, datatypes.PurchaseOrderRequest{
				SupplierID: h.fx.SupplierID,
				Status:     datatypes.POReceived,
				Items:      []datatypes.PurchaseOrderItemRequest{{ProductID: p.ID, Quantity: 3, UnitPrice: 2}},
			}, h.fx.UserID)
			require.NoError(t, err)

			_, err = h.svc.SetPurchaseOrderStatus(ctx, order.ID, next, h.fx.UserID)
			assert.ErrorIs(t, err, stock.ErrAlreadyReceived)

			stored, err := h.store.Queries().GetPurchaseOrder(ctx, order.ID)
			require.NoError(t, err)
			assert.Equal(t, datatypes.POReceived, stored.Status)
			assert.NotNil(t, stored.ReceivedAt)
			got, err := h.store.Queries().GetProduct(ctx, p.ID)
			require.NoError(t, err)
			assert.Equal(t, 8, got.QuantityInStock)
		})
	}
}

func TestCreatePurchaseOrder_UnknownProduct(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.CreatePurchaseOrder(context.Background(), datatypes.PurchaseOrderRequest{
		SupplierID: h.fx.SupplierID,
		Items:      []datatypes.PurchaseOrderItemRequest{{ProductID: 404, Quantity: 1}},
	}, h.fx.UserID)
	assert.ErrorIs(t, err, stock.ErrNotFound)
}
