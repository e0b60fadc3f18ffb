// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package telemetry writes the stock movement audit trail to InfluxDB.
package telemetry

import (
	"context"
	"fmt"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/AleutianAI/AleutianInventory/pkg/extensions"
)

const measurement = "stock_movement"

// pointWriter is the subset of api.WriteAPIBlocking used here.
type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
	Flush(ctx context.Context) error
}

// InfluxAuditLogger implements extensions.AuditLogger.
type InfluxAuditLogger struct {
	client   influxdb2.Client
	writeAPI pointWriter
	bucket   string
	org      string
}

// NewInfluxAuditLogger connects to url with token. The client is lazy:
// connection errors surface on the first Log.
func NewInfluxAuditLogger(url, token, org, bucket string) *InfluxAuditLogger {
	client := influxdb2.NewClient(url, token)
	return &InfluxAuditLogger{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		bucket:   bucket,
		org:      org,
	}
}

func newWithWriter(w pointWriter) *InfluxAuditLogger {
	return &InfluxAuditLogger{writeAPI: w}
}

// Log writes one point per movement.
//
// Tags: product_sku, type, source. Fields: product_id, user_id,
// quantity, delta, unit_price, stock_after.
func (l *InfluxAuditLogger) Log(ctx context.Context, e extensions.AuditEvent) error {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	p := influxdb2.NewPointWithMeasurement(measurement).
		AddTag("product_sku", e.ProductSKU).
		AddTag("type", strings.ToLower(e.TxType)).
		AddTag("source", e.Source).
		AddField("product_id", e.ProductID).
		AddField("user_id", e.UserID).
		AddField("quantity", e.Quantity).
		AddField("delta", e.Delta).
		AddField("unit_price", e.UnitPrice).
		AddField("stock_after", e.StockAfter).
		SetTime(ts)
	if err := l.writeAPI.WritePoint(ctx, p); err != nil {
		return fmt.Errorf("write stock movement to influx: %w", err)
	}
	return nil
}

func (l *InfluxAuditLogger) Flush(ctx context.Context) error {
	return l.writeAPI.Flush(ctx)
}

// Close releases the HTTP client.
func (l *InfluxAuditLogger) Close() {
	if l.client != nil {
		l.client.Close()
	}
}

var _ extensions.AuditLogger = (*InfluxAuditLogger)(nil)
