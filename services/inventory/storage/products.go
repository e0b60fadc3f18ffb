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

const productSelect = `
	SELECT p.id, p.name, p.description, p.sku, p.unit_price, p.quantity_in_stock, p.reorder_level,
	       p.reorder_quantity, p.category_id, p.supplier_id, p.created_at, p.updated_at,
	       COALESCE(c.name, '') AS category_name, COALESCE(s.name, '') AS supplier_name
	FROM products p
	LEFT JOIN categories c ON c.id = p.category_id
	LEFT JOIN suppliers s ON s.id = p.supplier_id`

// DefaultPerPage is the product list page size.
const DefaultPerPage = 10

// ProductFilter narrows ListProducts. Page is 1-based.
type ProductFilter struct {
	CategoryID int64
	Page       int
	PerPage    int
}

// ProductPage is one page of products plus paging metadata.
type ProductPage struct {
	Products []datatypes.Product `json:"products"`
	Page     int                 `json:"page"`
	PerPage  int                 `json:"per_page"`
	Total    int                 `json:"total"`
	Pages    int                 `json:"pages"`
}

// ListProducts returns a page of products ordered by name.
func (q *Queries) ListProducts(ctx context.Context, f ProductFilter) (ProductPage, error) {
	if f.PerPage <= 0 {
		f.PerPage = DefaultPerPage
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	where, args := "", []any{}
	if f.CategoryID > 0 {
		where = ` WHERE p.category_id = ?`
		args = append(args, f.CategoryID)
	}

	page := ProductPage{Page: f.Page, PerPage: f.PerPage}
	total, err := q.count(ctx, `SELECT COUNT(*) FROM products p`+where, args...)
	if err != nil {
		return page, err
	}
	page.Total = total
	page.Pages = (total + f.PerPage - 1) / f.PerPage

	args = append(args, f.PerPage, (f.Page-1)*f.PerPage)
	err = q.selectAll(ctx, &page.Products, productSelect+where+` ORDER BY p.name, p.id LIMIT ? OFFSET ?`, args...)
	return page, err
}

// AllProducts returns every product ordered by name.
func (q *Queries) AllProducts(ctx context.Context) ([]datatypes.Product, error) {
	var out []datatypes.Product
	err := q.selectAll(ctx, &out, productSelect+` ORDER BY p.name, p.id`)
	return out, err
}

func (q *Queries) GetProduct(ctx context.Context, id int64) (datatypes.Product, error) {
	var p datatypes.Product
	err := q.get(ctx, &p, productSelect+` WHERE p.id = ?`, id)
	return p, err
}

// ProductBySKU matches the SKU exactly.
func (q *Queries) ProductBySKU(ctx context.Context, sku string) (datatypes.Product, error) {
	var p datatypes.Product
	err := q.get(ctx, &p, productSelect+` WHERE p.sku = ?`, sku)
	return p, err
}

// FindProductBySKULike returns the lowest-id product whose SKU contains
// fragment, ignoring case.
func (q *Queries) FindProductBySKULike(ctx context.Context, fragment string) (datatypes.Product, error) {
	var p datatypes.Product
	err := q.get(ctx, &p, productSelect+` WHERE LOWER(p.sku) LIKE ? ESCAPE '\' ORDER BY p.id LIMIT 1`, likePattern(fragment))
	return p, err
}

// SearchProducts matches query against name, SKU and description,
// ignoring case.
func (q *Queries) SearchProducts(ctx context.Context, query string, limit int) ([]datatypes.Product, error) {
	pattern := likePattern(query)
	var out []datatypes.Product
	err := q.selectAll(ctx, &out, productSelect+`
		WHERE LOWER(p.name) LIKE ? ESCAPE '\' OR LOWER(p.sku) LIKE ? ESCAPE '\' OR LOWER(p.description) LIKE ? ESCAPE '\'
		ORDER BY p.name, p.id LIMIT ?`, pattern, pattern, pattern, limit)
	return out, err
}

// CreateProduct inserts p and sets its ID and timestamps.
func (q *Queries) CreateProduct(ctx context.Context, p *datatypes.Product) error {
	ts := now()
	id, err := q.insert(ctx, `INSERT INTO products (name, description, sku, unit_price, quantity_in_stock, reorder_level,
		reorder_quantity, category_id, supplier_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.Description, p.SKU, p.UnitPrice, p.QuantityInStock, p.ReorderLevel,
		p.ReorderQuantity, p.CategoryID, p.SupplierID, ts, ts)
	if err != nil {
		return err
	}
	p.ID, p.CreatedAt, p.UpdatedAt = id, ts, ts
	return nil
}

func (q *Queries) UpdateProduct(ctx context.Context, p *datatypes.Product) error {
	p.UpdatedAt = now()
	return q.execOne(ctx, `UPDATE products SET name = ?, description = ?, sku = ?, unit_price = ?, quantity_in_stock = ?,
		reorder_level = ?, reorder_quantity = ?, category_id = ?, supplier_id = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, p.Description, p.SKU, p.UnitPrice, p.QuantityInStock, p.ReorderLevel,
		p.ReorderQuantity, p.CategoryID, p.SupplierID, p.UpdatedAt, p.ID)
}

// SetProductStock overwrites quantity_in_stock.
func (q *Queries) SetProductStock(ctx context.Context, id int64, qty int) error {
	return q.execOne(ctx, `UPDATE products SET quantity_in_stock = ?, updated_at = ? WHERE id = ?`, qty, now(), id)
}

// DeleteProduct removes the product together with its transactions,
// notifications, purchase order lines and analytics rows. Orders that lose
// a line get their total_amount recomputed from the lines left. Call it
// inside InTx.
func (q *Queries) DeleteProduct(ctx context.Context, id int64) error {
	var orders []int64
	if err := q.selectAll(ctx, &orders,
		`SELECT DISTINCT purchase_order_id FROM purchase_order_items WHERE product_id = ?`, id); err != nil {
		return err
	}
	for _, stmt := range []string{
		`DELETE FROM inventory_transactions WHERE product_id = ?`,
		`DELETE FROM notifications WHERE product_id = ?`,
		`DELETE FROM purchase_order_items WHERE product_id = ?`,
		`DELETE FROM ml_results WHERE product_id = ?`,
	} {
		if _, err := q.exec(ctx, stmt, id); err != nil {
			return err
		}
	}
	ts := now()
	for _, orderID := range orders {
		if _, err := q.exec(ctx, `UPDATE purchase_orders SET total_amount = COALESCE(
			(SELECT SUM(total_price) FROM purchase_order_items WHERE purchase_order_id = ?), 0), updated_at = ?
			WHERE id = ?`, orderID, ts, orderID); err != nil {
			return err
		}
	}
	return q.execOne(ctx, `DELETE FROM products WHERE id = ?`, id)
}

func (q *Queries) CountProducts(ctx context.Context) (int, error) {
	return q.count(ctx, `SELECT COUNT(*) FROM products`)
}

// LowStockProducts returns products at or below (inclusive) or strictly
// below their reorder level, lowest stock first. limit <= 0 means all.
func (q *Queries) LowStockProducts(ctx context.Context, inclusive bool, limit int) ([]datatypes.Product, error) {
	cmp := "<"
	if inclusive {
		cmp = "<="
	}
	query := productSelect + ` WHERE p.quantity_in_stock ` + cmp + ` p.reorder_level ORDER BY p.quantity_in_stock, p.name`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	var out []datatypes.Product
	err := q.selectAll(ctx, &out, query, args...)
	return out, err
}

// CountLowStock counts products strictly below their reorder level.
func (q *Queries) CountLowStock(ctx context.Context) (int, error) {
	return q.count(ctx, `SELECT COUNT(*) FROM products WHERE quantity_in_stock < reorder_level`)
}

// RecentProducts returns the most recently created products.
func (q *Queries) RecentProducts(ctx context.Context, limit int) ([]datatypes.Product, error) {
	var out []datatypes.Product
	err := q.selectAll(ctx, &out, productSelect+` ORDER BY p.created_at DESC, p.id DESC LIMIT ?`, limit)
	return out, err
}
