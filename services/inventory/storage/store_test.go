// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package storage_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianInventory/services/inventory/datatypes"
	"github.com/AleutianAI/AleutianInventory/services/inventory/storage"
	"github.com/AleutianAI/AleutianInventory/services/inventory/storage/storagetest"
)

func TestMigrate_Idempotent(t *testing.T) {
	store := storagetest.New(t)
	require.NoError(t, store.Migrate())
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := storage.Open(context.Background(), "mysql", "x")
	require.Error(t, err)
}

func TestUsers(t *testing.T) {
	store := storagetest.New(t)
	ctx := context.Background()
	q := store.Queries()

	u := datatypes.User{Username: "alice", Email: "alice@example.com", PasswordHash: "hash"}
	require.NoError(t, q.CreateUser(ctx, &u))
	assert.NotZero(t, u.ID)

	dup := datatypes.User{Username: "alice", Email: "other@example.com", PasswordHash: "hash"}
	err := q.CreateUser(ctx, &dup)
	assert.ErrorIs(t, err, storage.ErrDuplicate)

	got, err := q.UserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.False(t, got.IsAdmin)

	_, err = q.UserByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	emails, err := q.UserEmails(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice@example.com"}, emails)
}

func TestProducts_ListAndFilter(t *testing.T) {
	store := storagetest.New(t)
	fx := storagetest.Seed(t, store)
	ctx := context.Background()
	q := store.Queries()

	other := datatypes.Category{Name: "Furniture"}
	require.NoError(t, q.CreateCategory(ctx, &other))

	for i, name := range []string{"Mouse", "Keyboard", "Laptop"} {
		fx.Product(t, store, name, "EL-"+name, 10+i, 5)
	}
	desk := fx.Product(t, store, "Desk", "FN-DSK-001", 8, 2)
	desk.CategoryID = other.ID
	require.NoError(t, q.UpdateProduct(ctx, &desk))

	page, err := q.ListProducts(ctx, storage.ProductFilter{PerPage: 2})
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)
	assert.Equal(t, 2, page.Pages)
	require.Len(t, page.Products, 2)
	assert.Equal(t, "Desk", page.Products[0].Name)
	assert.Equal(t, "Furniture", page.Products[0].CategoryName)
	assert.Equal(t, "Tech Supplies Inc.", page.Products[0].SupplierName)

	page, err = q.ListProducts(ctx, storage.ProductFilter{CategoryID: fx.CategoryID})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
}

func TestProducts_Lookups(t *testing.T) {
	store := storagetest.New(t)
	fx := storagetest.Seed(t, store)
	ctx := context.Background()
	q := store.Queries()

	laptop := fx.Product(t, store, "Laptop", "EL-LAP-001", 25, 5)
	fx.Product(t, store, "Monitor", "EL-MON-001", 15, 3)

	got, err := q.FindProductBySKULike(ctx, "lap")
	require.NoError(t, err)
	assert.Equal(t, laptop.ID, got.ID)

	got, err = q.FindProductBySKULike(ctx, "EL-")
	require.NoError(t, err)
	assert.Equal(t, laptop.ID, got.ID, "first match by id")

	_, err = q.FindProductBySKULike(ctx, "zzz")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	found, err := q.SearchProducts(ctx, "monitor", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "EL-MON-001", found[0].SKU)

	// Wildcards in the input match only themselves.
	_, err = q.FindProductBySKULike(ctx, "%")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	found, err = q.SearchProducts(ctx, "_", 10)
	require.NoError(t, err)
	assert.Empty(t, found)
	odd := fx.Product(t, store, "Cable 100%", "EL_CAB_001", 4, 2)
	got, err = q.FindProductBySKULike(ctx, "l_c")
	require.NoError(t, err)
	assert.Equal(t, odd.ID, got.ID)
	found, err = q.SearchProducts(ctx, "100%", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, odd.ID, found[0].ID)

	dup := datatypes.Product{Name: "Other", SKU: "EL-LAP-001", CategoryID: fx.CategoryID, SupplierID: fx.SupplierID}
	assert.ErrorIs(t, q.CreateProduct(ctx, &dup), storage.ErrDuplicate)
}

func TestProducts_LowStock(t *testing.T) {
	store := storagetest.New(t)
	fx := storagetest.Seed(t, store)
	ctx := context.Background()
	q := store.Queries()

	fx.Product(t, store, "At level", "A", 5, 5)
	fx.Product(t, store, "Below", "B", 2, 5)
	fx.Product(t, store, "Plenty", "C", 50, 5)

	inclusive, err := q.LowStockProducts(ctx, true, 0)
	require.NoError(t, err)
	require.Len(t, inclusive, 2)
	assert.Equal(t, "Below", inclusive[0].Name)

	strict, err := q.LowStockProducts(ctx, false, 0)
	require.NoError(t, err)
	require.Len(t, strict, 1)

	n, err := q.CountLowStock(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDeleteProduct_Cascades(t *testing.T) {
	store := storagetest.New(t)
	fx := storagetest.Seed(t, store)
	ctx := context.Background()

	p := fx.Product(t, store, "Laptop", "EL-LAP-001", 25, 5)
	storagetest.Transaction(t, store, p.ID, datatypes.TxPurchase, 25, 999.99, time.Now())
	require.NoError(t, store.Queries().CreateNotification(ctx, &datatypes.Notification{
		ProductID: p.ID, Type: datatypes.NotifyLowStock, Message: "m",
	}))

	require.NoError(t, store.InTx(ctx, func(q *storage.Queries) error {
		return q.DeleteProduct(ctx, p.ID)
	}))

	q := store.Queries()
	_, err := q.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	txns, err := q.ListTransactions(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, txns)
	unread, err := q.CountUnreadNotifications(ctx)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestDeleteProduct_RecomputesOrderTotals(t *testing.T) {
	store := storagetest.New(t)
	fx := storagetest.Seed(t, store)
	ctx := context.Background()
	q := store.Queries()
	laptop := fx.Product(t, store, "Laptop", "EL-LAP-001", 2, 5)
	mouse := fx.Product(t, store, "Mouse", "EL-MOU-001", 2, 5)

	newOrder := func(items ...datatypes.PurchaseOrderItem) int64 {
		o := datatypes.PurchaseOrder{SupplierID: fx.SupplierID, Status: datatypes.POPending}
		require.NoError(t, q.CreatePurchaseOrder(ctx, &o))
		require.NoError(t, q.ReplacePurchaseOrderItems(ctx, o.ID, items))
		for _, it := range items {
			o.TotalAmount += it.TotalPrice
		}
		require.NoError(t, q.UpdatePurchaseOrder(ctx, &o))
		return o.ID
	}
	mixed := newOrder(
		datatypes.PurchaseOrderItem{ProductID: laptop.ID, Quantity: 3, UnitPrice: 2.5},
		datatypes.PurchaseOrderItem{ProductID: mouse.ID, Quantity: 2, UnitPrice: 10},
	)
	mouseOnly := newOrder(datatypes.PurchaseOrderItem{ProductID: mouse.ID, Quantity: 1, UnitPrice: 10})

	require.NoError(t, store.InTx(ctx, func(q *storage.Queries) error {
		return q.DeleteProduct(ctx, mouse.ID)
	}))

	got, err := q.GetPurchaseOrder(ctx, mixed)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.InDelta(t, 7.5, got.TotalAmount, 1e-9)

	got, err = q.GetPurchaseOrder(ctx, mouseOnly)
	require.NoError(t, err)
	assert.Empty(t, got.Items)
	assert.Zero(t, got.TotalAmount)
}

func TestInTx_Rollback(t *testing.T) {
	store := storagetest.New(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.InTx(ctx, func(q *storage.Queries) error {
		require.NoError(t, q.CreateCategory(ctx, &datatypes.Category{Name: "Temp"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	n, err := store.Queries().CountCategories(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestTransactions_FiltersAndTotals(t *testing.T) {
	store := storagetest.New(t)
	fx := storagetest.Seed(t, store)
	ctx := context.Background()
	q := store.Queries()

	p := fx.Product(t, store, "Laptop", "EL-LAP-001", 25, 5)
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	storagetest.Transaction(t, store, p.ID, datatypes.TxPurchase, 10, 5, base)
	storagetest.Transaction(t, store, p.ID, datatypes.TxIn, 4, 5, base.Add(time.Hour))
	storagetest.Transaction(t, store, p.ID, datatypes.TxSale, 3, 5, base.Add(2*time.Hour))
	storagetest.Transaction(t, store, p.ID, datatypes.TxOut, 2, 5, base.Add(3*time.Hour))
	storagetest.Transaction(t, store, p.ID, datatypes.TxAdjustment, 7, 5, base.Add(4*time.Hour))

	purchases, err := q.ListTransactions(ctx, []string{datatypes.TxPurchase, datatypes.TxIn})
	require.NoError(t, err)
	require.Len(t, purchases, 2)
	assert.Equal(t, datatypes.TxIn, purchases[0].Type, "newest first")
	assert.Equal(t, "EL-LAP-001", purchases[0].ProductSKU)

	totals, err := q.GetTransactionTotals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 14, totals.StockIn)
	assert.Equal(t, 5, totals.StockOut)
	assert.InDelta(t, 26*5.0, totals.TotalValue, 1e-9)

	between, err := q.TransactionsBetween(ctx, base.Add(time.Hour), base.Add(3*time.Hour))
	require.NoError(t, err)
	require.Len(t, between, 2)
	assert.Equal(t, datatypes.TxIn, between[0].Type)

	since, err := q.TransactionsSince(ctx, base.Add(4*time.Hour))
	require.NoError(t, err)
	require.Len(t, since, 1)
	assert.True(t, since[0].TransactionDate.Equal(base.Add(4*time.Hour)))
}

func TestNotifications_Ordering(t *testing.T) {
	store := storagetest.New(t)
	fx := storagetest.Seed(t, store)
	ctx := context.Background()
	q := store.Queries()
	p := fx.Product(t, store, "Laptop", "EL-LAP-001", 2, 5)

	first := datatypes.Notification{ProductID: p.ID, Type: datatypes.NotifyLowStock, Message: "first"}
	require.NoError(t, q.CreateNotification(ctx, &first))
	second := datatypes.Notification{ProductID: p.ID, Type: datatypes.NotifyIrregularActivity, Message: "second"}
	require.NoError(t, q.CreateNotification(ctx, &second))
	require.NoError(t, q.MarkNotificationRead(ctx, second.ID))

	list, err := q.ListNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "first", list[0].Message, "unread first")
	assert.Equal(t, "Laptop", list[0].ProductName)

	has, err := q.HasUnreadNotification(ctx, p.ID, datatypes.NotifyLowStock)
	require.NoError(t, err)
	assert.True(t, has)
	has, err = q.HasUnreadNotification(ctx, p.ID, datatypes.NotifyIrregularActivity)
	require.NoError(t, err)
	assert.False(t, has)

	assert.ErrorIs(t, q.MarkNotificationRead(ctx, 9999), storage.ErrNotFound)
}

func TestPurchaseOrders(t *testing.T) {
	store := storagetest.New(t)
	fx := storagetest.Seed(t, store)
	ctx := context.Background()
	q := store.Queries()
	p := fx.Product(t, store, "Laptop", "EL-LAP-001", 2, 5)

	order := datatypes.PurchaseOrder{SupplierID: fx.SupplierID, Status: datatypes.POPending}
	require.NoError(t, q.CreatePurchaseOrder(ctx, &order))
	items := []datatypes.PurchaseOrderItem{{ProductID: p.ID, Quantity: 3, UnitPrice: 2.5}}
	require.NoError(t, q.ReplacePurchaseOrderItems(ctx, order.ID, items))
	assert.InDelta(t, 7.5, items[0].TotalPrice, 1e-9)

	got, err := q.GetPurchaseOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tech Supplies Inc.", got.SupplierName)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "EL-LAP-001", got.Items[0].ProductSKU)
	assert.Nil(t, got.ReceivedAt)

	received := time.Now()
	require.NoError(t, q.SetPurchaseOrderStatus(ctx, order.ID, datatypes.POReceived, &received))
	got, err = q.GetPurchaseOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, datatypes.POReceived, got.Status)
	require.NotNil(t, got.ReceivedAt)

	stats, err := q.GetSupplierStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.ActiveOrders)
	assert.Equal(t, 1, stats.ReceivedOrders)
	assert.Equal(t, 1, stats.TotalProducts)
	require.Len(t, stats.TopSuppliers, 1)
	assert.Equal(t, 1, stats.TopSuppliers[0].ProductCount)

	require.NoError(t, q.DeletePurchaseOrder(ctx, order.ID))
	_, err = q.GetPurchaseOrder(ctx, order.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMLResults_Latest(t *testing.T) {
	store := storagetest.New(t)
	fx := storagetest.Seed(t, store)
	ctx := context.Background()
	q := store.Queries()
	a := fx.Product(t, store, "Zebra", "Z", 1, 1)
	b := fx.Product(t, store, "Apple", "A", 1, 1)

	empty, err := q.LatestMLResults(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	old := time.Date(2026, 1, 1, 2, 0, 0, 0, time.UTC)
	recent := old.Add(24 * time.Hour)
	require.NoError(t, q.InsertMLResults(ctx, []datatypes.MLResult{
		{RunID: "old", RunDate: old, ProductID: a.ID, ProductName: "Zebra"},
	}))
	require.NoError(t, q.InsertMLResults(ctx, []datatypes.MLResult{
		{RunID: "new", RunDate: recent, ProductID: a.ID, ProductName: "Zebra"},
		{RunID: "new", RunDate: recent, ProductID: b.ID, ProductName: "Apple"},
	}))

	latest, err := q.LatestMLResults(ctx)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "Apple", latest[0].ProductName)
	assert.Equal(t, "new", latest[1].RunID)
}
