// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package storagetest provides migrated in-memory stores and fixture
// builders for tests in other packages.
package storagetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/AleutianAI/AleutianInventory/services/inventory/datatypes"
	"github.com/AleutianAI/AleutianInventory/services/inventory/storage"
)

// MemoryDSN is an in-memory SQLite database with the pragmas the store
// expects.
const MemoryDSN = "file::memory:?_pragma=foreign_keys(1)&_time_format=sqlite"

// New returns a migrated in-memory store closed at test cleanup.
func New(t testing.TB) *storage.Store {
	t.Helper()
	ctx := context.Background()
	store, err := storage.Open(ctx, storage.DriverSQLite, MemoryDSN)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

// Fixture holds the ids created by Seed.
type Fixture struct {
	UserID     int64
	CategoryID int64
	SupplierID int64
}

// Seed inserts one user, one category and one supplier.
func Seed(t testing.TB, store *storage.Store) Fixture {
	t.Helper()
	ctx := context.Background()
	q := store.Queries()

	user := datatypes.User{Username: "admin", Email: "admin@example.com", PasswordHash: "x", IsAdmin: true}
	must(t, q.CreateUser(ctx, &user))
	cat := datatypes.Category{Name: "Electronics", Description: "Electronic devices and accessories"}
	must(t, q.CreateCategory(ctx, &cat))
	sup := datatypes.Supplier{Name: "Tech Supplies Inc.", ContactPerson: "John Smith", Email: "john@techsupplies.com"}
	must(t, q.CreateSupplier(ctx, &sup))

	return Fixture{UserID: user.ID, CategoryID: cat.ID, SupplierID: sup.ID}
}

// Product inserts a product under the fixture's category and supplier.
func (f Fixture) Product(t testing.TB, store *storage.Store, name, sku string, qty, reorderLevel int) datatypes.Product {
	t.Helper()
	p := datatypes.Product{
		Name:            name,
		SKU:             sku,
		UnitPrice:       10,
		QuantityInStock: qty,
		ReorderLevel:    reorderLevel,
		ReorderQuantity: 20,
		CategoryID:      f.CategoryID,
		SupplierID:      f.SupplierID,
	}
	must(t, store.Queries().CreateProduct(context.Background(), &p))
	return p
}

// Transaction inserts a transaction dated at.
func Transaction(t testing.TB, store *storage.Store, productID int64, kind string, qty int, price float64, at time.Time) datatypes.Transaction {
	t.Helper()
	tx := datatypes.Transaction{
		ProductID:       productID,
		Type:            kind,
		Quantity:        qty,
		UnitPrice:       price,
		TotalPrice:      price * float64(qty),
		TransactionDate: at,
		Notes:           fmt.Sprintf("%s of %d", kind, qty),
	}
	must(t, store.Queries().CreateTransaction(context.Background(), &tx))
	return tx
}

func must(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("fixture: %v", err)
	}
}
