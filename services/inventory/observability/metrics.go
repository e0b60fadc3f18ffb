// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides Prometheus metrics for the inventory
// service.
//
// # Description
//
// Metrics cover stock movements, notification creation, chatbot traffic,
// LLM calls and analytics runs. They are exposed on /metrics.
//
// Every recorder method is safe on a nil *Metrics, so packages can be
// constructed without metrics in tests and CLI commands.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Metric Definitions
// =============================================================================

const metricsNamespace = "inventory"

// Metrics holds every inventory collector.
type Metrics struct {
	// StockMovementsTotal counts transaction rows.
	// Labels: type (purchase, sale, adjustment, IN, OUT), source
	StockMovementsTotal *prometheus.CounterVec

	// StockUnitsTotal counts units moved.
	// Labels: direction (in, out)
	StockUnitsTotal *prometheus.CounterVec

	// NotificationsCreatedTotal counts notifications by type.
	NotificationsCreatedTotal *prometheus.CounterVec

	// ChatbotMessagesTotal counts chatbot messages by resolved intent.
	ChatbotMessagesTotal *prometheus.CounterVec

	// LLMRequestsTotal counts model calls.
	// Labels: backend, status (success, error)
	LLMRequestsTotal *prometheus.CounterVec

	// AnalyticsRunsTotal counts analytics runs by status.
	AnalyticsRunsTotal *prometheus.CounterVec

	// AnalyticsRunDurationSeconds measures successful run duration.
	AnalyticsRunDurationSeconds prometheus.Histogram

	// AnalyticsProductsScored is the product count of the latest run.
	AnalyticsProductsScored prometheus.Gauge

	// HTTPRequestsTotal counts API requests.
	// Labels: method, route (the gin full path), status
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDurationSeconds measures API latency by route.
	HTTPRequestDurationSeconds *prometheus.HistogramVec
}

// DefaultMetrics is set by InitMetrics.
var DefaultMetrics *Metrics

// InitMetrics registers the collectors on the default registry.
//
// # Limitations
//
//   - Panics if called twice (duplicate registration).
func InitMetrics() *Metrics {
	DefaultMetrics = NewMetrics(prometheus.DefaultRegisterer)
	return DefaultMetrics
}

// NewMetrics registers the collectors on reg. Tests pass a fresh
// prometheus.NewRegistry().
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		StockMovementsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "stock",
			Name:      "movements_total",
			Help:      "Inventory transactions recorded by type and source",
		}, []string{"type", "source"}),

		StockUnitsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "stock",
			Name:      "units_total",
			Help:      "Units moved in or out of stock",
		}, []string{"direction"}),

		NotificationsCreatedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "notifications",
			Name:      "created_total",
			Help:      "Notifications created by type",
		}, []string{"type"}),

		ChatbotMessagesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "chatbot",
			Name:      "messages_total",
			Help:      "Chatbot messages by resolved intent",
		}, []string{"intent"}),

		LLMRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "llm",
			Name:      "requests_total",
			Help:      "LLM generation calls by backend and status",
		}, []string{"backend", "status"}),

		AnalyticsRunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "analytics",
			Name:      "runs_total",
			Help:      "Analytics runs by status",
		}, []string{"status"}),

		AnalyticsRunDurationSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "analytics",
			Name:      "run_duration_seconds",
			Help:      "Duration of successful analytics runs",
			Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 120, 300},
		}),

		AnalyticsProductsScored: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "analytics",
			Name:      "products_scored",
			Help:      "Products scored by the latest analytics run",
		}),

		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "API requests by method, route and status",
		}, []string{"method", "route", "status"}),

		HTTPRequestDurationSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "API request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// =============================================================================
// Recorders
// =============================================================================

// RecordStockMovement counts one transaction row and its units. delta is
// the signed change to stock on hand; adjustments pass zero.
func (m *Metrics) RecordStockMovement(txType, source string, delta int) {
	if m == nil {
		return
	}
	m.StockMovementsTotal.WithLabelValues(txType, source).Inc()
	switch {
	case delta > 0:
		m.StockUnitsTotal.WithLabelValues("in").Add(float64(delta))
	case delta < 0:
		m.StockUnitsTotal.WithLabelValues("out").Add(float64(-delta))
	}
}

func (m *Metrics) RecordNotification(kind string) {
	if m == nil {
		return
	}
	m.NotificationsCreatedTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordChatIntent(intent string) {
	if m == nil {
		return
	}
	m.ChatbotMessagesTotal.WithLabelValues(intent).Inc()
}

// LLMObserver returns a callback for llm.NewInstrumented.
func (m *Metrics) LLMObserver(backend string) func(status string) {
	return func(status string) {
		if m == nil {
			return
		}
		m.LLMRequestsTotal.WithLabelValues(backend, status).Inc()
	}
}

// RecordAnalyticsRun records a finished run. Duration and product count
// are only recorded on success.
func (m *Metrics) RecordAnalyticsRun(success bool, elapsed time.Duration, products int) {
	if m == nil {
		return
	}
	if !success {
		m.AnalyticsRunsTotal.WithLabelValues("error").Inc()
		return
	}
	m.AnalyticsRunsTotal.WithLabelValues("success").Inc()
	m.AnalyticsRunDurationSeconds.Observe(elapsed.Seconds())
	m.AnalyticsProductsScored.Set(float64(products))
}

// RecordHTTPRequest counts one finished request. route is empty for
// unmatched paths and recorded as "unmatched".
func (m *Metrics) RecordHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDurationSeconds.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
