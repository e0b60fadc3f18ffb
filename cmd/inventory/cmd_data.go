// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianInventory/pkg/ux"
	"github.com/AleutianAI/AleutianInventory/services/inventory"
	"github.com/AleutianAI/AleutianInventory/services/inventory/auth"
	"github.com/AleutianAI/AleutianInventory/services/inventory/datatypes"
	"github.com/AleutianAI/AleutianInventory/services/inventory/seed"
)

func runMigrate(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, true, func(_ context.Context, app *inventory.App) error {
		p := printer(cmd)
		if migrateDown {
			if err := app.Store.MigrateDown(); err != nil {
				return err
			}
			p.Success("rolled back every migration")
			return nil
		}
		if err := app.Store.Migrate(); err != nil {
			return err
		}
		p.Success("database schema is up to date")
		return nil
	})
}

func runSeed(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, true, func(ctx context.Context, app *inventory.App) error {
		if err := app.Store.Migrate(); err != nil {
			return err
		}
		// Seeding needs only hashing, so a missing SECRET_KEY is fine.
		hasher := app.Auth
		if hasher == nil {
			hasher = auth.NewService(app.Store, nil)
		}
		data, err := seed.SampleData()
		if err != nil {
			return err
		}
		summary, err := seed.NewLoader(app.Store, hasher, app.Audit).Load(ctx, data, seed.Options{Force: seedForce})
		p := printer(cmd)
		if errors.Is(err, seed.ErrNotEmpty) {
			p.Warning(err.Error())
			return nil
		}
		if err != nil {
			return err
		}
		p.Success("sample data loaded")
		p.Summary("users", summary.Users, "suppliers", summary.Suppliers, "categories", summary.Categories,
			"products", summary.Products, "transactions", summary.Transactions)
		return nil
	})
}

func runProducts(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, true, func(ctx context.Context, app *inventory.App) error {
		q := app.Store.Queries()
		var (
			products []datatypes.Product
			err      error
		)
		if lowOnly {
			products, err = q.LowStockProducts(ctx, true, productLimit)
		} else {
			products, err = q.AllProducts(ctx)
			if productLimit > 0 && len(products) > productLimit {
				products = products[:productLimit]
			}
		}
		if err != nil {
			return err
		}

		p := printer(cmd)
		if len(products) == 0 {
			p.Info("no products found")
			return nil
		}
		p.Title("Products")
		renderProducts(p, products)
		return nil
	})
}

// renderProducts prints one row per product, highlighting those at or
// below their reorder level.
func renderProducts(p *ux.Printer, products []datatypes.Product) {
	rows := make([][]string, len(products))
	for i, prod := range products {
		rows[i] = []string{
			strconv.FormatInt(prod.ID, 10),
			prod.SKU,
			prod.Name,
			prod.CategoryName,
			strconv.Itoa(prod.QuantityInStock),
			strconv.Itoa(prod.ReorderLevel),
			fmt.Sprintf("%.2f", prod.UnitPrice),
		}
	}
	p.Table([]string{"ID", "SKU", "Name", "Category", "Stock", "Reorder", "Price"}, rows,
		func(row int) bool { return products[row].IsLowStock() })
}
