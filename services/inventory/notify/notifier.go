// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package notify creates low stock and irregular activity notifications
// and runs the periodic scan that looks for them.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AleutianAI/AleutianInventory/services/inventory/assistant"
	"github.com/AleutianAI/AleutianInventory/services/inventory/datatypes"
	"github.com/AleutianAI/AleutianInventory/services/inventory/observability"
	"github.com/AleutianAI/AleutianInventory/services/inventory/storage"
)

// DefaultIrregularWindow is the look-back of CheckIrregularActivity.
const DefaultIrregularWindow = 7 * 24 * time.Hour

// deviationThreshold flags quantities above 2× or below 0.5× the average.
const deviationThreshold = 2.0

// Notifier scans inventory state and stores notifications.
type Notifier struct {
	store     *storage.Store
	assistant *assistant.Assistant
	metrics   *observability.Metrics
	now       func() time.Time
}

// New creates a Notifier. metrics may be nil.
func New(store *storage.Store, asst *assistant.Assistant, metrics *observability.Metrics) *Notifier {
	return &Notifier{
		store:     store,
		assistant: asst,
		metrics:   metrics,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ScanResult counts notifications created by one Scan.
type ScanResult struct {
	LowStock  int `json:"low_stock"`
	Irregular int `json:"irregular_activity"`
}

// Total is the number of notifications created.
func (r ScanResult) Total() int { return r.LowStock + r.Irregular }

// Scan runs both checks. A failing check does not stop the other; their
// errors are joined.
func (n *Notifier) Scan(ctx context.Context) (ScanResult, error) {
	var res ScanResult
	low, lowErr := n.CheckLowStock(ctx)
	res.LowStock = len(low)
	irregular, irrErr := n.CheckIrregularActivity(ctx, DefaultIrregularWindow)
	res.Irregular = len(irregular)
	return res, errors.Join(lowErr, irrErr)
}

// CheckLowStock creates a low_stock notification for every product at or
// below its reorder level that has no unread one yet.
func (n *Notifier) CheckLowStock(ctx context.Context) ([]datatypes.Notification, error) {
	q := n.store.Queries()
	products, err := q.LowStockProducts(ctx, true, 0)
	if err != nil {
		return nil, fmt.Errorf("load low stock products: %w", err)
	}

	var created []datatypes.Notification
	for _, p := range products {
		exists, err := q.HasUnreadNotification(ctx, p.ID, datatypes.NotifyLowStock)
		if err != nil {
			return created, err
		}
		if exists {
			continue
		}
		note := datatypes.Notification{
			ProductID: p.ID,
			Type:      datatypes.NotifyLowStock,
			Message: fmt.Sprintf("Low stock alert for %s. Current stock: %d, Reorder level: %d",
				p.Name, p.QuantityInStock, p.ReorderLevel),
			AISummary:   n.assistant.LowStockNotification(ctx, p, p.SupplierName),
			ProductName: p.Name,
		}
		if err := q.CreateNotification(ctx, &note); err != nil {
			return created, fmt.Errorf("create low stock notification: %w", err)
		}
		n.metrics.RecordNotification(note.Type)
		created = append(created, note)
	}
	if len(created) > 0 {
		slog.Info("low stock notifications created", "count", len(created))
	}
	return created, nil
}

type txGroup struct {
	total int
	txns  []datatypes.Transaction
}

// CheckIrregularActivity flags transactions whose quantity is far from
// the average of their (product, type) group.
//
// # Description
//
// Transactions from the last window are grouped by product and type.
// Groups with at least two rows are checked: a row is irregular when
// quantity / average is above 2 or strictly between 0 and 0.5. At most
// one unread irregular_activity notification exists per product, so the
// first irregular row of a product wins.
func (n *Notifier) CheckIrregularActivity(ctx context.Context, window time.Duration) ([]datatypes.Notification, error) {
	q := n.store.Queries()
	txns, err := q.TransactionsSince(ctx, n.now().Add(-window))
	if err != nil {
		return nil, fmt.Errorf("load recent transactions: %w", err)
	}

	type key struct {
		productID int64
		kind      string
	}
	groups := map[key]*txGroup{}
	var order []key
	for _, t := range txns {
		k := key{t.ProductID, t.Type}
		g, ok := groups[k]
		if !ok {
			g = &txGroup{}
			groups[k] = g
			order = append(order, k)
		}
		g.total += t.Quantity
		g.txns = append(g.txns, t)
	}

	var created []datatypes.Notification
	for _, k := range order {
		g := groups[k]
		if len(g.txns) < 2 {
			continue
		}
		avg := float64(g.total) / float64(len(g.txns))
		for _, t := range g.txns {
			if !isIrregular(t.Quantity, avg) {
				continue
			}
			exists, err := q.HasUnreadNotification(ctx, t.ProductID, datatypes.NotifyIrregularActivity)
			if err != nil {
				return created, err
			}
			if exists {
				continue
			}
			p, err := q.GetProduct(ctx, t.ProductID)
			if err != nil {
				return created, fmt.Errorf("load product %d: %w", t.ProductID, err)
			}
			note := datatypes.Notification{
				ProductID: p.ID,
				Type:      datatypes.NotifyIrregularActivity,
				Message: fmt.Sprintf("Irregular activity detected for %s. Transaction quantity: %d, Average: %.2f",
					p.Name, t.Quantity, avg),
				AISummary:   n.assistant.IrregularActivityAlert(ctx, p, t, avg),
				ProductName: p.Name,
			}
			if err := q.CreateNotification(ctx, &note); err != nil {
				return created, fmt.Errorf("create irregular activity notification: %w", err)
			}
			n.metrics.RecordNotification(note.Type)
			created = append(created, note)
		}
	}
	if len(created) > 0 {
		slog.Info("irregular activity notifications created", "count", len(created))
	}
	return created, nil
}

func isIrregular(qty int, avg float64) bool {
	if avg <= 0 {
		return false
	}
	deviation := float64(qty) / avg
	return deviation > deviationThreshold || (deviation > 0 && deviation < 1/deviationThreshold)
}

// List returns all notifications, unread first.
func (n *Notifier) List(ctx context.Context) ([]datatypes.Notification, error) {
	return n.store.Queries().ListNotifications(ctx)
}

// MarkRead marks one notification as read.
func (n *Notifier) MarkRead(ctx context.Context, id int64) error {
	return n.store.Queries().MarkNotificationRead(ctx, id)
}
