// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package storage

import (
	"context"

	"github.com/AleutianAI/AleutianInventory/services/inventory/datatypes"
)

const supplierSelect = `
	SELECT s.id, s.name, s.contact_person, s.email, s.phone, s.address, s.created_at, s.updated_at,
	       (SELECT COUNT(*) FROM products p WHERE p.supplier_id = s.id) AS product_count
	FROM suppliers s`

// ListSuppliers returns suppliers by name with their product counts.
func (q *Queries) ListSuppliers(ctx context.Context) ([]datatypes.Supplier, error) {
	var out []datatypes.Supplier
	err := q.selectAll(ctx, &out, supplierSelect+` ORDER BY s.name`)
	return out, err
}

func (q *Queries) GetSupplier(ctx context.Context, id int64) (datatypes.Supplier, error) {
	var s datatypes.Supplier
	err := q.get(ctx, &s, supplierSelect+` WHERE s.id = ?`, id)
	return s, err
}

func (q *Queries) CreateSupplier(ctx context.Context, s *datatypes.Supplier) error {
	ts := now()
	id, err := q.insert(ctx, `INSERT INTO suppliers (name, contact_person, email, phone, address, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, s.Name, s.ContactPerson, s.Email, s.Phone, s.Address, ts, ts)
	if err != nil {
		return err
	}
	s.ID, s.CreatedAt, s.UpdatedAt = id, ts, ts
	return nil
}

func (q *Queries) UpdateSupplier(ctx context.Context, s *datatypes.Supplier) error {
	s.UpdatedAt = now()
	return q.execOne(ctx, `UPDATE suppliers SET name = ?, contact_person = ?, email = ?, phone = ?, address = ?, updated_at = ?
		WHERE id = ?`, s.Name, s.ContactPerson, s.Email, s.Phone, s.Address, s.UpdatedAt, s.ID)
}

func (q *Queries) DeleteSupplier(ctx context.Context, id int64) error {
	return q.execOne(ctx, `DELETE FROM suppliers WHERE id = ?`, id)
}

func (q *Queries) CountSuppliers(ctx context.Context) (int, error) {
	return q.count(ctx, `SELECT COUNT(*) FROM suppliers`)
}

func (q *Queries) SupplierProductCount(ctx context.Context, id int64) (int, error) {
	return q.count(ctx, `SELECT COUNT(*) FROM products WHERE supplier_id = ?`, id)
}

// SupplierStats backs the supplier list header.
type SupplierStats struct {
	ActiveOrders   int                  `json:"active_orders"`
	TotalProducts  int                  `json:"total_products"`
	ReceivedOrders int                  `json:"received_orders"`
	TopSuppliers   []datatypes.Supplier `json:"top_suppliers"`
}

// GetSupplierStats counts pending and approved orders as active,
// products that have a supplier, received orders, and returns the five
// suppliers with the most products.
func (q *Queries) GetSupplierStats(ctx context.Context) (SupplierStats, error) {
	var st SupplierStats
	var err error
	if st.ActiveOrders, err = q.count(ctx, `SELECT COUNT(*) FROM purchase_orders WHERE status IN (?, ?)`,
		datatypes.POPending, datatypes.POApproved); err != nil {
		return st, err
	}
	if st.TotalProducts, err = q.count(ctx, `SELECT COUNT(DISTINCT id) FROM products WHERE supplier_id IS NOT NULL`); err != nil {
		return st, err
	}
	if st.ReceivedOrders, err = q.count(ctx, `SELECT COUNT(*) FROM purchase_orders WHERE status = ?`, datatypes.POReceived); err != nil {
		return st, err
	}
	err = q.selectAll(ctx, &st.TopSuppliers, supplierSelect+` ORDER BY product_count DESC, s.name LIMIT 5`)
	return st, err
}
