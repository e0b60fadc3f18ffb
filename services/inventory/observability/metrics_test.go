// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	return NewMetrics(prometheus.NewRegistry())
}

func TestRecordStockMovement(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordStockMovement("purchase", "web", 10)
	m.RecordStockMovement("sale", "web", -3)
	m.RecordStockMovement("adjustment", "web", 0)
	m.RecordStockMovement("OUT", "chatbot", -2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.StockMovementsTotal.WithLabelValues("purchase", "web")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StockMovementsTotal.WithLabelValues("adjustment", "web")))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.StockUnitsTotal.WithLabelValues("in")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.StockUnitsTotal.WithLabelValues("out")))
}

func TestRecordAnalyticsRun(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordAnalyticsRun(true, 2*time.Second, 15)
	m.RecordAnalyticsRun(false, time.Second, 99)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnalyticsRunsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnalyticsRunsTotal.WithLabelValues("error")))
	assert.Equal(t, 15.0, testutil.ToFloat64(m.AnalyticsProductsScored))
}

func TestLLMObserver(t *testing.T) {
	m := newTestMetrics(t)
	observe := m.LLMObserver("gemini")
	observe("success")
	observe("error")
	observe("success")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.LLMRequestsTotal.WithLabelValues("gemini", "success")))
}

func TestRecordHTTPRequest(t *testing.T) {
	m := newTestMetrics(t)
	m.RecordHTTPRequest("GET", "/api/v1/products/:id", 200, 5*time.Millisecond)
	m.RecordHTTPRequest("GET", "", 404, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/products/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordStockMovement("sale", "web", -1)
		m.RecordNotification("low_stock")
		m.RecordChatIntent("listing")
		m.LLMObserver("gemini")("success")
		m.RecordAnalyticsRun(true, time.Second, 1)
		m.RecordHTTPRequest("GET", "/api/v1/products", 200, time.Millisecond)
	})
}

func TestCollectorsRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.RecordNotification("low_stock")
	m.RecordChatIntent("stock_update")

	n, err := testutil.GatherAndCount(reg)
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, n, 2)
}
