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

// ListCategories returns categories by name with their product counts.
func (q *Queries) ListCategories(ctx context.Context) ([]datatypes.Category, error) {
	var out []datatypes.Category
	err := q.selectAll(ctx, &out, `
		SELECT c.id, c.name, c.description, c.created_at, c.updated_at,
		       (SELECT COUNT(*) FROM products p WHERE p.category_id = c.id) AS product_count
		FROM categories c
		ORDER BY c.name`)
	return out, err
}

func (q *Queries) GetCategory(ctx context.Context, id int64) (datatypes.Category, error) {
	var c datatypes.Category
	err := q.get(ctx, &c, `
		SELECT c.id, c.name, c.description, c.created_at, c.updated_at,
		       (SELECT COUNT(*) FROM products p WHERE p.category_id = c.id) AS product_count
		FROM categories c WHERE c.id = ?`, id)
	return c, err
}

func (q *Queries) CreateCategory(ctx context.Context, c *datatypes.Category) error {
	ts := now()
	id, err := q.insert(ctx, `INSERT INTO categories (name, description, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		c.Name, c.Description, ts, ts)
	if err != nil {
		return err
	}
	c.ID, c.CreatedAt, c.UpdatedAt = id, ts, ts
	return nil
}

func (q *Queries) UpdateCategory(ctx context.Context, c *datatypes.Category) error {
	c.UpdatedAt = now()
	return q.execOne(ctx, `UPDATE categories SET name = ?, description = ?, updated_at = ? WHERE id = ?`,
		c.Name, c.Description, c.UpdatedAt, c.ID)
}

func (q *Queries) DeleteCategory(ctx context.Context, id int64) error {
	return q.execOne(ctx, `DELETE FROM categories WHERE id = ?`, id)
}

func (q *Queries) CountCategories(ctx context.Context) (int, error) {
	return q.count(ctx, `SELECT COUNT(*) FROM categories`)
}

func (q *Queries) CategoryProductCount(ctx context.Context, id int64) (int, error) {
	return q.count(ctx, `SELECT COUNT(*) FROM products WHERE category_id = ?`, id)
}
