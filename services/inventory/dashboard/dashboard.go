// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package dashboard assembles the dashboard view: headline counts, recent
// activity within a period and a stock in/out chart.
package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AleutianAI/AleutianInventory/services/inventory/datatypes"
	"github.com/AleutianAI/AleutianInventory/services/inventory/storage"
)

// Period selects the dashboard date range.
type Period string

const (
	PeriodToday Period = datatypes.PeriodToday
	PeriodWeek  Period = datatypes.PeriodWeek
	PeriodMonth Period = datatypes.PeriodMonth
	PeriodYear  Period = datatypes.PeriodYear
)

const recentLimit = 5

// ParsePeriod returns the named period. Unknown values fall back to week.
func ParsePeriod(s string) Period {
	if p := strings.ToLower(strings.TrimSpace(s)); datatypes.ValidPeriod(p) {
		return Period(p)
	}
	return PeriodWeek
}

// Range returns [start, end) for the period containing now, in now's
// location. Weeks start on Monday.
func (p Period) Range(now time.Time) (time.Time, time.Time) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch p {
	case PeriodToday:
		return today, today.AddDate(0, 0, 1)
	case PeriodMonth:
		start := today.AddDate(0, 0, 1-today.Day())
		return start, start.AddDate(0, 1, 0)
	case PeriodYear:
		start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
		return start, start.AddDate(1, 0, 0)
	default:
		offset := (int(today.Weekday()) + 6) % 7
		start := today.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 7)
	}
}

// Chart is the stock in/out series. StockIn sums purchases and StockOut
// sums sales per bucket.
type Chart struct {
	Labels   []string `json:"labels"`
	StockIn  []int    `json:"stock_in"`
	StockOut []int    `json:"stock_out"`
}

// View is the dashboard payload.
type View struct {
	Period     Period    `json:"period"`
	RangeStart time.Time `json:"range_start"`
	RangeEnd   time.Time `json:"range_end"`

	ProductCount      int `json:"product_count"`
	CategoryCount     int `json:"category_count"`
	SupplierCount     int `json:"supplier_count"`
	TransactionCount  int `json:"transaction_count"`
	NotificationCount int `json:"notification_count"`

	RecentTransactions   []datatypes.Transaction   `json:"recent_transactions"`
	RecentPurchaseOrders []datatypes.PurchaseOrder `json:"recent_purchase_orders"`
	LowStockProducts     []datatypes.Product       `json:"low_stock_products"`
	Notifications        []datatypes.Notification  `json:"notifications"`

	Chart Chart `json:"chart"`
}

// Build assembles the dashboard for period as of now. It only reads;
// notification scans run on their own schedule.
//
// # Outputs
//
//   - View: counts are global except TransactionCount, which covers the
//     period. Lists hold at most five rows.
//   - error: the first storage failure.
func Build(ctx context.Context, store *storage.Store, period Period, now time.Time) (View, error) {
	period = ParsePeriod(string(period))
	start, end := period.Range(now)
	v := View{Period: period, RangeStart: start, RangeEnd: end}
	q := store.Queries()

	var err error
	steps := []struct {
		name string
		run  func() error
	}{
		{"products", func() error { v.ProductCount, err = q.CountProducts(ctx); return err }},
		{"categories", func() error { v.CategoryCount, err = q.CountCategories(ctx); return err }},
		{"suppliers", func() error { v.SupplierCount, err = q.CountSuppliers(ctx); return err }},
		{"transactions", func() error { v.TransactionCount, err = q.CountTransactionsBetween(ctx, start, end); return err }},
		{"unread notifications", func() error { v.NotificationCount, err = q.CountUnreadNotifications(ctx); return err }},
		{"recent transactions", func() error {
			v.RecentTransactions, err = q.RecentTransactionsBetween(ctx, start, end, recentLimit)
			return err
		}},
		{"recent purchase orders", func() error {
			v.RecentPurchaseOrders, err = q.RecentPurchaseOrdersBetween(ctx, start, end, recentLimit)
			return err
		}},
		{"low stock", func() error { v.LowStockProducts, err = q.LowStockProducts(ctx, true, recentLimit); return err }},
		{"notifications", func() error { v.Notifications, err = q.LatestNotifications(ctx, recentLimit); return err }},
	}
	for _, s := range steps {
		if err := s.run(); err != nil {
			return View{}, fmt.Errorf("dashboard %s: %w", s.name, err)
		}
	}

	txns, err := q.TransactionsBetween(ctx, start, end)
	if err != nil {
		return View{}, fmt.Errorf("dashboard chart: %w", err)
	}
	v.Chart = BuildChart(period, start, txns)
	return v, nil
}

// BuildChart buckets txns for period starting at start: 24 hours for
// today, 7 days for a week, 30 days for a month and 12 months for a year.
// Transactions outside the buckets are dropped.
func BuildChart(period Period, start time.Time, txns []datatypes.Transaction) Chart {
	var (
		n      int
		label  func(i int) string
		bucket func(t time.Time) int
	)
	loc := start.Location()
	switch period {
	case PeriodToday:
		n = 24
		label = func(i int) string { return fmt.Sprintf("%02d:00", i) }
		bucket = func(t time.Time) int { return int(t.Sub(start) / time.Hour) }
	case PeriodYear:
		n = 12
		label = func(i int) string { return time.Month(i + 1).String()[:3] }
		bucket = func(t time.Time) int {
			if t.Year() != start.Year() {
				return -1
			}
			return int(t.Month()) - 1
		}
	default:
		n = 7
		if period == PeriodMonth {
			n = 30
		}
		label = func(i int) string {
			d := start.AddDate(0, 0, i)
			if period == PeriodMonth {
				return d.Format("02")
			}
			return d.Format("Mon")
		}
		bucket = func(t time.Time) int {
			day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
			for i := range n {
				if start.AddDate(0, 0, i).Equal(day) {
					return i
				}
			}
			return -1
		}
	}

	c := Chart{Labels: make([]string, n), StockIn: make([]int, n), StockOut: make([]int, n)}
	for i := range n {
		c.Labels[i] = label(i)
	}
	for _, tx := range txns {
		at := tx.TransactionDate.In(loc)
		if at.Before(start) {
			continue
		}
		i := bucket(at)
		if i < 0 || i >= n {
			continue
		}
		switch {
		case strings.EqualFold(tx.Type, datatypes.TxPurchase):
			c.StockIn[i] += tx.Quantity
		case strings.EqualFold(tx.Type, datatypes.TxSale):
			c.StockOut[i] += tx.Quantity
		}
	}
	return c
}
