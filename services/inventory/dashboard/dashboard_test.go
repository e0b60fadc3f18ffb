// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianInventory/services/inventory/datatypes"
	"github.com/AleutianAI/AleutianInventory/services/inventory/storage/storagetest"
)

// Wednesday.
var now = time.Date(2026, 3, 18, 14, 30, 0, 0, time.UTC)

func TestParsePeriod(t *testing.T) {
	assert.Equal(t, PeriodToday, ParsePeriod("today"))
	assert.Equal(t, PeriodYear, ParsePeriod(" YEAR "))
	assert.Equal(t, PeriodWeek, ParsePeriod(""))
	assert.Equal(t, PeriodWeek, ParsePeriod("decade"))
}

func TestPeriodRange(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }
	tests := []struct {
		period     Period
		start, end time.Time
	}{
		{PeriodToday, day(2026, 3, 18), day(2026, 3, 19)},
		{PeriodWeek, day(2026, 3, 16), day(2026, 3, 23)},
		{PeriodMonth, day(2026, 3, 1), day(2026, 4, 1)},
		{PeriodYear, day(2026, 1, 1), day(2027, 1, 1)},
	}
	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			start, end := tt.period.Range(now)
			assert.Equal(t, tt.start, start)
			assert.Equal(t, tt.end, end)
		})
	}

	sunday := time.Date(2026, 3, 22, 9, 0, 0, 0, time.UTC)
	start, _ := PeriodWeek.Range(sunday)
	assert.Equal(t, day(2026, 3, 16), start)

	december := time.Date(2026, 12, 31, 9, 0, 0, 0, time.UTC)
	_, end := PeriodMonth.Range(december)
	assert.Equal(t, day(2027, 1, 1), end)
}

func TestBuildChart(t *testing.T) {
	tx := func(kind string, qty int, at time.Time) datatypes.Transaction {
		return datatypes.Transaction{Type: kind, Quantity: qty, TransactionDate: at}
	}

	t.Run("today", func(t *testing.T) {
		start, _ := PeriodToday.Range(now)
		c := BuildChart(PeriodToday, start, []datatypes.Transaction{
			tx(datatypes.TxPurchase, 5, start.Add(9*time.Hour+10*time.Minute)),
			tx(datatypes.TxSale, 2, start.Add(9*time.Hour+50*time.Minute)),
			tx(datatypes.TxAdjustment, 7, start.Add(9*time.Hour)),
		})
		require.Len(t, c.Labels, 24)
		assert.Equal(t, "00:00", c.Labels[0])
		assert.Equal(t, "23:00", c.Labels[23])
		assert.Equal(t, 5, c.StockIn[9])
		assert.Equal(t, 2, c.StockOut[9])
	})

	t.Run("week", func(t *testing.T) {
		start, _ := PeriodWeek.Range(now)
		c := BuildChart(PeriodWeek, start, []datatypes.Transaction{
			tx(datatypes.TxSale, 3, start.AddDate(0, 0, 2).Add(time.Hour)),
		})
		assert.Equal(t, []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}, c.Labels)
		assert.Equal(t, []int{0, 0, 3, 0, 0, 0, 0}, c.StockOut)
	})

	t.Run("month drops the 31st", func(t *testing.T) {
		start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		c := BuildChart(PeriodMonth, start, []datatypes.Transaction{
			tx(datatypes.TxPurchase, 4, start),
			tx(datatypes.TxPurchase, 9, start.AddDate(0, 0, 30)),
		})
		require.Len(t, c.Labels, 30)
		assert.Equal(t, "01", c.Labels[0])
		assert.Equal(t, "30", c.Labels[29])
		assert.Equal(t, 4, c.StockIn[0])
		total := 0
		for _, v := range c.StockIn {
			total += v
		}
		assert.Equal(t, 4, total)
	})

	t.Run("year", func(t *testing.T) {
		start, _ := PeriodYear.Range(now)
		c := BuildChart(PeriodYear, start, []datatypes.Transaction{
			tx(datatypes.TxSale, 6, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)),
			tx(datatypes.TxSale, 1, time.Date(2026, 12, 31, 23, 0, 0, 0, time.UTC)),
		})
		assert.Equal(t, "Jan", c.Labels[0])
		assert.Equal(t, "Dec", c.Labels[11])
		assert.Equal(t, 6, c.StockOut[2])
		assert.Equal(t, 1, c.StockOut[11])
	})
}

func TestBuild(t *testing.T) {
	store := storagetest.New(t)
	fx := storagetest.Seed(t, store)
	low := fx.Product(t, store, "Mouse", "EL-MOU-001", 5, 10)
	edge := fx.Product(t, store, "Cable", "EL-CAB-001", 10, 10)
	fx.Product(t, store, "Laptop", "EL-LAP-001", 50, 10)

	start, _ := PeriodWeek.Range(now)
	storagetest.Transaction(t, store, low.ID, datatypes.TxSale, 3, 10, start.Add(26*time.Hour))
	storagetest.Transaction(t, store, edge.ID, datatypes.TxPurchase, 8, 10, start.Add(2*time.Hour))
	storagetest.Transaction(t, store, edge.ID, datatypes.TxPurchase, 99, 10, start.AddDate(0, 0, -3))

	v, err := Build(context.Background(), store, "bogus", now)
	require.NoError(t, err)
	assert.Equal(t, PeriodWeek, v.Period)
	assert.Equal(t, 3, v.ProductCount)
	assert.Equal(t, 1, v.CategoryCount)
	assert.Equal(t, 1, v.SupplierCount)
	assert.Equal(t, 2, v.TransactionCount)
	require.Len(t, v.RecentTransactions, 2)
	assert.Equal(t, "Mouse", v.RecentTransactions[0].ProductName)
	assert.Len(t, v.LowStockProducts, 2)
	assert.Zero(t, v.NotificationCount)
	assert.Equal(t, 8, v.Chart.StockIn[0])
	assert.Equal(t, 3, v.Chart.StockOut[1])
}
