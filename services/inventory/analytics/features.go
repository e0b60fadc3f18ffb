// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package analytics scores products from their recent transaction history.
//
// # Description
//
// A run builds per-product features over a trailing window, clusters the
// products into popularity groups with k-means, fits a linear model of
// days until reorder, asks the assistant for a short summary per product
// and stores the result rows under one run id.
package analytics

import (
	"strings"

	"github.com/AleutianAI/AleutianInventory/services/inventory/datatypes"
)

// minDailySale replaces a zero sales rate so days until reorder stays
// finite.
const minDailySale = 0.1

// Features are the per-product inputs of a run.
type Features struct {
	Product datatypes.Product

	StockIn      int
	StockOut     int
	TotalMoved   int
	AvgUnitPrice float64
	CurrentStock int

	AvgDailySale     float64
	DaysUntilReorder float64
}

// clusterVector is the k-means input.
func (f Features) clusterVector() []float64 {
	return []float64{
		float64(f.CurrentStock),
		float64(f.StockOut),
		float64(f.StockIn),
		float64(f.TotalMoved),
		f.AvgUnitPrice,
	}
}

// regressionVector is the linear model input, without the intercept.
func (f Features) regressionVector() []float64 {
	return []float64{
		float64(f.CurrentStock),
		float64(f.Product.ReorderLevel),
		float64(f.Product.ReorderQuantity),
		float64(f.StockIn),
		float64(f.StockOut),
	}
}

// BuildFeatures aggregates txns per product. Purchases count as stock in
// and sales as stock out; other types are ignored. AvgUnitPrice is the
// mean unit price of the product's sales.
//
// # Inputs
//
//   - products: every product to score, in output order.
//   - txns: transactions already restricted to the window.
//   - windowDays: the window length used for the daily sales rate.
//
// # Outputs
//
//   - []Features: one entry per product, aligned with products.
func BuildFeatures(products []datatypes.Product, txns []datatypes.Transaction, windowDays int) []Features {
	if windowDays <= 0 {
		windowDays = 1
	}
	type agg struct {
		in, out   int
		priceSum  float64
		saleCount int
	}
	byProduct := make(map[int64]*agg, len(products))
	for _, tx := range txns {
		a := byProduct[tx.ProductID]
		if a == nil {
			a = &agg{}
			byProduct[tx.ProductID] = a
		}
		switch {
		case strings.EqualFold(tx.Type, datatypes.TxPurchase):
			a.in += tx.Quantity
		case strings.EqualFold(tx.Type, datatypes.TxSale):
			a.out += tx.Quantity
			a.priceSum += tx.UnitPrice
			a.saleCount++
		}
	}

	out := make([]Features, len(products))
	for i, p := range products {
		f := Features{Product: p, CurrentStock: p.QuantityInStock}
		if a := byProduct[p.ID]; a != nil {
			f.StockIn, f.StockOut = a.in, a.out
			if a.saleCount > 0 {
				f.AvgUnitPrice = a.priceSum / float64(a.saleCount)
			}
		}
		f.TotalMoved = f.StockIn + f.StockOut
		f.AvgDailySale = float64(f.StockOut) / float64(windowDays)
		if f.AvgDailySale == 0 {
			f.AvgDailySale = minDailySale
		}
		f.DaysUntilReorder = max(0, float64(f.CurrentStock-p.ReorderLevel)/f.AvgDailySale)
		out[i] = f
	}
	return out
}
