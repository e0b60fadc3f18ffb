// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package seed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianInventory/pkg/extensions"
	"github.com/AleutianAI/AleutianInventory/services/inventory/datatypes"
	"github.com/AleutianAI/AleutianInventory/services/inventory/storage/storagetest"
)

type plainHasher struct{}

func (plainHasher) HashPassword(p string) (string, error) { return "hash:" + p, nil }

func TestSampleData(t *testing.T) {
	d, err := SampleData()
	require.NoError(t, err)
	assert.Equal(t, 30, d.PurchaseDaysAgo)
	assert.Len(t, d.Users, 2)
	assert.Len(t, d.Suppliers, 3)
	assert.Len(t, d.Categories, 3)
	assert.Len(t, d.Products, 15)
	assert.Len(t, d.Sales, 7)
	require.Len(t, d.StockOverrides, 1)
	assert.Equal(t, "EL-HEAD-001", d.StockOverrides[0].SKU)
}

func TestParse_UnknownReferences(t *testing.T) {
	tests := map[string]string{
		"category": `
categories: [{name: A}]
suppliers: [{name: S}]
products: [{sku: X-1, category: B, supplier: S}]`,
		"supplier": `
categories: [{name: A}]
suppliers: [{name: S}]
products: [{sku: X-1, category: A, supplier: T}]`,
		"sale": `
categories: [{name: A}]
suppliers: [{name: S}]
products: [{sku: X-1, category: A, supplier: S}]
sales: [{sku: X-2, quantity: 1}]`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(raw))
			assert.Error(t, err)
		})
	}

	_, err := Parse([]byte("users: [oops"))
	assert.Error(t, err)
}

func TestLoad_SampleData(t *testing.T) {
	store := storagetest.New(t)
	audit := &extensions.MemoryAuditLogger{}
	d, err := SampleData()
	require.NoError(t, err)
	ctx := context.Background()
	now := time.Date(2026, 3, 18, 12, 0, 0, 0, time.UTC)

	sum, err := NewLoader(store, plainHasher{}, audit).Load(ctx, d, Options{Now: now})
	require.NoError(t, err)
	assert.Equal(t, Summary{Users: 2, Suppliers: 3, Categories: 3, Products: 15, Transactions: 22}, sum)
	assert.Len(t, audit.Events(), 22)
	for _, ev := range audit.Events() {
		assert.Equal(t, extensions.SourceSeed, ev.Source)
	}

	q := store.Queries()
	laptop, err := q.ProductBySKU(ctx, "EL-LAP-001")
	require.NoError(t, err)
	assert.Equal(t, 20, laptop.QuantityInStock)

	headphones, err := q.ProductBySKU(ctx, "EL-HEAD-001")
	require.NoError(t, err)
	assert.Equal(t, 2, headphones.QuantityInStock)

	low, err := q.LowStockProducts(ctx, false, 0)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "Headphones", low[0].Name)

	admin, err := q.UserByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)
	assert.Equal(t, "hash:admin123", admin.PasswordHash)
	staff, err := q.UserByUsername(ctx, "user")
	require.NoError(t, err)
	assert.False(t, staff.IsAdmin)

	txns, err := q.ProductTransactions(ctx, laptop.ID)
	require.NoError(t, err)
	require.Len(t, txns, 3)
	for _, tx := range txns {
		switch tx.Type {
		case datatypes.TxPurchase:
			assert.Equal(t, "Initial stock purchase of Laptop", tx.Notes)
			assert.True(t, tx.TransactionDate.Equal(now.AddDate(0, 0, -30)))
			require.NotNil(t, tx.CreatedBy)
			assert.Equal(t, admin.ID, *tx.CreatedBy)
		case datatypes.TxSale:
			assert.Equal(t, "Sale of Laptop", tx.Notes)
			require.NotNil(t, tx.CreatedBy)
			assert.Equal(t, staff.ID, *tx.CreatedBy)
		default:
			t.Fatalf("unexpected transaction type %q", tx.Type)
		}
	}
}

func TestLoad_RefusesPopulatedDatabase(t *testing.T) {
	store := storagetest.New(t)
	storagetest.Seed(t, store)
	d, err := SampleData()
	require.NoError(t, err)
	loader := NewLoader(store, plainHasher{}, nil)

	_, err = loader.Load(context.Background(), d, Options{})
	assert.ErrorIs(t, err, ErrNotEmpty)

	sum, err := loader.Load(context.Background(), d, Options{Force: true})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Users, "admin already exists")
	assert.Equal(t, 2, sum.Suppliers, "Tech Supplies Inc. already exists")
	assert.Equal(t, 2, sum.Categories, "Electronics already exists")
	assert.Equal(t, 15, sum.Products)
}
