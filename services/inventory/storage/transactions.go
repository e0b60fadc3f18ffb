// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package storage

import (
	"context"
	"strings"
	"time"

	"github.com/AleutianAI/AleutianInventory/services/inventory/datatypes"
)

const transactionSelect = `
	SELECT t.id, t.product_id, t.transaction_type, t.quantity, t.transaction_date, t.unit_price,
	       t.total_price, t.notes, t.created_by, t.created_at,
	       COALESCE(p.name, '') AS product_name, COALESCE(p.sku, '') AS product_sku
	FROM inventory_transactions t
	LEFT JOIN products p ON p.id = t.product_id`

// CreateTransaction inserts t. A zero TransactionDate is set to now.
func (q *Queries) CreateTransaction(ctx context.Context, t *datatypes.Transaction) error {
	ts := now()
	if t.TransactionDate.IsZero() {
		t.TransactionDate = ts
	}
	t.TransactionDate = t.TransactionDate.UTC()
	id, err := q.insert(ctx, `INSERT INTO inventory_transactions (product_id, transaction_type, quantity, transaction_date,
		unit_price, total_price, notes, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ProductID, t.Type, t.Quantity, t.TransactionDate, t.UnitPrice, t.TotalPrice, t.Notes, t.CreatedBy, ts)
	if err != nil {
		return err
	}
	t.ID, t.CreatedAt = id, ts
	return nil
}

// ListTransactions returns all transactions, newest first. A non-empty
// types slice restricts the result to those transaction types.
func (q *Queries) ListTransactions(ctx context.Context, types []string) ([]datatypes.Transaction, error) {
	query, args := transactionSelect, []any{}
	if len(types) > 0 {
		query += ` WHERE t.transaction_type IN (?` + strings.Repeat(", ?", len(types)-1) + `)`
		for _, ty := range types {
			args = append(args, ty)
		}
	}
	var out []datatypes.Transaction
	err := q.selectAll(ctx, &out, query+` ORDER BY t.transaction_date DESC, t.id DESC`, args...)
	return out, err
}

// ProductTransactions returns a product's history, newest first.
func (q *Queries) ProductTransactions(ctx context.Context, productID int64) ([]datatypes.Transaction, error) {
	var out []datatypes.Transaction
	err := q.selectAll(ctx, &out, transactionSelect+` WHERE t.product_id = ? ORDER BY t.transaction_date DESC, t.id DESC`, productID)
	return out, err
}

// ProductTransactionsSince returns a product's transactions on or after
// since, oldest first.
func (q *Queries) ProductTransactionsSince(ctx context.Context, productID int64, since time.Time) ([]datatypes.Transaction, error) {
	var out []datatypes.Transaction
	err := q.selectAll(ctx, &out, transactionSelect+` WHERE t.product_id = ? AND t.transaction_date >= ?
		ORDER BY t.transaction_date, t.id`, productID, since.UTC())
	return out, err
}

// TransactionsSince returns every transaction on or after since, oldest
// first.
func (q *Queries) TransactionsSince(ctx context.Context, since time.Time) ([]datatypes.Transaction, error) {
	var out []datatypes.Transaction
	err := q.selectAll(ctx, &out, transactionSelect+` WHERE t.transaction_date >= ? ORDER BY t.transaction_date, t.id`, since.UTC())
	return out, err
}

// TransactionsBetween returns transactions in [start, end), oldest first.
func (q *Queries) TransactionsBetween(ctx context.Context, start, end time.Time) ([]datatypes.Transaction, error) {
	var out []datatypes.Transaction
	err := q.selectAll(ctx, &out, transactionSelect+` WHERE t.transaction_date >= ? AND t.transaction_date < ?
		ORDER BY t.transaction_date, t.id`, start.UTC(), end.UTC())
	return out, err
}

// RecentTransactionsBetween returns the newest limit transactions in
// [start, end).
func (q *Queries) RecentTransactionsBetween(ctx context.Context, start, end time.Time, limit int) ([]datatypes.Transaction, error) {
	var out []datatypes.Transaction
	err := q.selectAll(ctx, &out, transactionSelect+` WHERE t.transaction_date >= ? AND t.transaction_date < ?
		ORDER BY t.transaction_date DESC, t.id DESC LIMIT ?`, start.UTC(), end.UTC(), limit)
	return out, err
}

func (q *Queries) CountTransactionsBetween(ctx context.Context, start, end time.Time) (int, error) {
	return q.count(ctx, `SELECT COUNT(*) FROM inventory_transactions WHERE transaction_date >= ? AND transaction_date < ?`,
		start.UTC(), end.UTC())
}

// TransactionTotals summarises every transaction row.
type TransactionTotals struct {
	StockIn    int     `db:"stock_in" json:"stock_in"`
	StockOut   int     `db:"stock_out" json:"stock_out"`
	TotalValue float64 `db:"total_value" json:"total_value"`
}

// GetTransactionTotals sums quantities of stock-in types (purchase, IN)
// and stock-out types (sale, OUT), case-insensitively, and the total
// value of all rows.
func (q *Queries) GetTransactionTotals(ctx context.Context) (TransactionTotals, error) {
	var tt TransactionTotals
	err := q.get(ctx, &tt, `
		SELECT
		  COALESCE(SUM(CASE WHEN LOWER(transaction_type) IN ('purchase', 'in') THEN quantity ELSE 0 END), 0) AS stock_in,
		  COALESCE(SUM(CASE WHEN LOWER(transaction_type) IN ('sale', 'out') THEN quantity ELSE 0 END), 0) AS stock_out,
		  COALESCE(SUM(total_price), 0) AS total_value
		FROM inventory_transactions`)
	return tt, err
}
