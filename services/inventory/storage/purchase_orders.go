// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package storage

import (
	"context"
	"time"

	"github.com/AleutianAI/AleutianInventory/services/inventory/datatypes"
)

const purchaseOrderSelect = `
	SELECT o.id, o.supplier_id, o.order_date, o.expected_delivery_date, o.status, o.total_amount, o.notes,
	       o.created_by, o.received_at, o.created_at, o.updated_at,
	       COALESCE(s.name, '') AS supplier_name
	FROM purchase_orders o
	LEFT JOIN suppliers s ON s.id = o.supplier_id`

// ListPurchaseOrders returns orders newest first, without items.
func (q *Queries) ListPurchaseOrders(ctx context.Context) ([]datatypes.PurchaseOrder, error) {
	var out []datatypes.PurchaseOrder
	err := q.selectAll(ctx, &out, purchaseOrderSelect+` ORDER BY o.order_date DESC, o.id DESC`)
	return out, err
}

// RecentPurchaseOrdersBetween returns the newest limit orders with an
// order date in [start, end).
func (q *Queries) RecentPurchaseOrdersBetween(ctx context.Context, start, end time.Time, limit int) ([]datatypes.PurchaseOrder, error) {
	var out []datatypes.PurchaseOrder
	err := q.selectAll(ctx, &out, purchaseOrderSelect+` WHERE o.order_date >= ? AND o.order_date < ?
		ORDER BY o.order_date DESC, o.id DESC LIMIT ?`, start.UTC(), end.UTC(), limit)
	return out, err
}

// GetPurchaseOrder loads an order with its items.
func (q *Queries) GetPurchaseOrder(ctx context.Context, id int64) (datatypes.PurchaseOrder, error) {
	var o datatypes.PurchaseOrder
	if err := q.get(ctx, &o, purchaseOrderSelect+` WHERE o.id = ?`, id); err != nil {
		return o, err
	}
	items, err := q.PurchaseOrderItems(ctx, id)
	if err != nil {
		return o, err
	}
	o.Items = items
	return o, nil
}

func (q *Queries) PurchaseOrderItems(ctx context.Context, orderID int64) ([]datatypes.PurchaseOrderItem, error) {
	var out []datatypes.PurchaseOrderItem
	err := q.selectAll(ctx, &out, `
		SELECT i.id, i.purchase_order_id, i.product_id, i.quantity, i.unit_price, i.total_price,
		       COALESCE(p.name, '') AS product_name, COALESCE(p.sku, '') AS product_sku
		FROM purchase_order_items i
		LEFT JOIN products p ON p.id = i.product_id
		WHERE i.purchase_order_id = ?
		ORDER BY i.id`, orderID)
	return out, err
}

// CreatePurchaseOrder inserts the header row only; use ReplacePurchaseOrderItems
// for lines.
func (q *Queries) CreatePurchaseOrder(ctx context.Context, o *datatypes.PurchaseOrder) error {
	ts := now()
	if o.OrderDate.IsZero() {
		o.OrderDate = ts
	}
	o.OrderDate = o.OrderDate.UTC()
	id, err := q.insert(ctx, `INSERT INTO purchase_orders (supplier_id, order_date, expected_delivery_date, status, total_amount,
		notes, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.SupplierID, o.OrderDate, utcPtr(o.ExpectedDeliveryDate), o.Status, o.TotalAmount, o.Notes, o.CreatedBy, ts, ts)
	if err != nil {
		return err
	}
	o.ID, o.CreatedAt, o.UpdatedAt = id, ts, ts
	return nil
}

// UpdatePurchaseOrder rewrites the editable header columns. Status and
// received_at are changed through SetPurchaseOrderStatus.
func (q *Queries) UpdatePurchaseOrder(ctx context.Context, o *datatypes.PurchaseOrder) error {
	o.UpdatedAt = now()
	return q.execOne(ctx, `UPDATE purchase_orders SET supplier_id = ?, order_date = ?, expected_delivery_date = ?,
		total_amount = ?, notes = ?, updated_at = ? WHERE id = ?`,
		o.SupplierID, o.OrderDate.UTC(), utcPtr(o.ExpectedDeliveryDate), o.TotalAmount, o.Notes, o.UpdatedAt, o.ID)
}

// ReplacePurchaseOrderItems deletes the order's lines and inserts items.
// Each item's TotalPrice is computed and returned in place.
func (q *Queries) ReplacePurchaseOrderItems(ctx context.Context, orderID int64, items []datatypes.PurchaseOrderItem) error {
	if _, err := q.exec(ctx, `DELETE FROM purchase_order_items WHERE purchase_order_id = ?`, orderID); err != nil {
		return err
	}
	for i := range items {
		it := &items[i]
		it.PurchaseOrderID = orderID
		it.TotalPrice = float64(it.Quantity) * it.UnitPrice
		id, err := q.insert(ctx, `INSERT INTO purchase_order_items (purchase_order_id, product_id, quantity, unit_price, total_price)
			VALUES (?, ?, ?, ?, ?)`, orderID, it.ProductID, it.Quantity, it.UnitPrice, it.TotalPrice)
		if err != nil {
			return err
		}
		it.ID = id
	}
	return nil
}

// SetPurchaseOrderStatus updates status, stamping received_at when
// receivedAt is non-nil.
func (q *Queries) SetPurchaseOrderStatus(ctx context.Context, id int64, status string, receivedAt *time.Time) error {
	if receivedAt != nil {
		return q.execOne(ctx, `UPDATE purchase_orders SET status = ?, received_at = ?, updated_at = ? WHERE id = ?`,
			status, receivedAt.UTC(), now(), id)
	}
	return q.execOne(ctx, `UPDATE purchase_orders SET status = ?, updated_at = ? WHERE id = ?`, status, now(), id)
}

// DeletePurchaseOrder removes the order and its lines.
func (q *Queries) DeletePurchaseOrder(ctx context.Context, id int64) error {
	if _, err := q.exec(ctx, `DELETE FROM purchase_order_items WHERE purchase_order_id = ?`, id); err != nil {
		return err
	}
	return q.execOne(ctx, `DELETE FROM purchase_orders WHERE id = ?`, id)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
