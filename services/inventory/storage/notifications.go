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

const notificationSelect = `
	SELECT n.id, n.product_id, n.notification_type, n.message, n.ai_summary, n.is_read, n.created_at, n.updated_at,
	       COALESCE(p.name, '') AS product_name
	FROM notifications n
	LEFT JOIN products p ON p.id = n.product_id`

func (q *Queries) CreateNotification(ctx context.Context, n *datatypes.Notification) error {
	ts := now()
	id, err := q.insert(ctx, `INSERT INTO notifications (product_id, notification_type, message, ai_summary, is_read, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, n.ProductID, n.Type, n.Message, n.AISummary, false, ts, ts)
	if err != nil {
		return err
	}
	n.ID, n.IsRead, n.CreatedAt, n.UpdatedAt = id, false, ts, ts
	return nil
}

// ListNotifications returns unread notifications first, newest first
// within each group.
func (q *Queries) ListNotifications(ctx context.Context) ([]datatypes.Notification, error) {
	var out []datatypes.Notification
	err := q.selectAll(ctx, &out, notificationSelect+` ORDER BY n.is_read, n.created_at DESC, n.id DESC`)
	return out, err
}

// LatestNotifications returns the newest limit notifications regardless
// of read state.
func (q *Queries) LatestNotifications(ctx context.Context, limit int) ([]datatypes.Notification, error) {
	var out []datatypes.Notification
	err := q.selectAll(ctx, &out, notificationSelect+` ORDER BY n.created_at DESC, n.id DESC LIMIT ?`, limit)
	return out, err
}

func (q *Queries) CountUnreadNotifications(ctx context.Context) (int, error) {
	return q.count(ctx, `SELECT COUNT(*) FROM notifications WHERE is_read = ?`, false)
}

// HasUnreadNotification reports whether an unread notification of the
// given type exists for the product.
func (q *Queries) HasUnreadNotification(ctx context.Context, productID int64, kind string) (bool, error) {
	n, err := q.count(ctx, `SELECT COUNT(*) FROM notifications WHERE product_id = ? AND notification_type = ? AND is_read = ?`,
		productID, kind, false)
	return n > 0, err
}

func (q *Queries) MarkNotificationRead(ctx context.Context, id int64) error {
	return q.execOne(ctx, `UPDATE notifications SET is_read = ?, updated_at = ? WHERE id = ?`, true, now(), id)
}
