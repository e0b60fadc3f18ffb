// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianInventory/pkg/extensions"
)

type fakeWriter struct {
	points  []*write.Point
	err     error
	flushed int
}

func (f *fakeWriter) WritePoint(_ context.Context, points ...*write.Point) error {
	if f.err != nil {
		return f.err
	}
	f.points = append(f.points, points...)
	return nil
}

func (f *fakeWriter) Flush(context.Context) error {
	f.flushed++
	return nil
}

func TestInfluxAuditLogger_Log(t *testing.T) {
	w := &fakeWriter{}
	logger := newWithWriter(w)
	at := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

	err := logger.Log(context.Background(), extensions.AuditEvent{
		EventType:  "stock.out",
		Timestamp:  at,
		ProductID:  4,
		ProductSKU: "EL-MOU-001",
		TxType:     "OUT",
		Quantity:   3,
		Delta:      -3,
		UnitPrice:  29.99,
		StockAfter: 17,
		Source:     extensions.SourceChatbot,
	})
	require.NoError(t, err)
	require.Len(t, w.points, 1)

	line := write.PointToLineProtocol(w.points[0], time.Second)
	assert.Contains(t, line, "stock_movement,")
	assert.Contains(t, line, "product_sku=EL-MOU-001")
	assert.Contains(t, line, "source=chatbot")
	assert.Contains(t, line, "type=out")
	assert.Contains(t, line, "delta=-3i")
	assert.Contains(t, line, "stock_after=17i")
	assert.Equal(t, at, w.points[0].Time())
}

func TestInfluxAuditLogger_WriteError(t *testing.T) {
	logger := newWithWriter(&fakeWriter{err: errors.New("401 unauthorized")})
	err := logger.Log(context.Background(), extensions.AuditEvent{ProductSKU: "X"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write stock movement")
}

func TestInfluxAuditLogger_Flush(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, newWithWriter(w).Flush(context.Background()))
	assert.Equal(t, 1, w.flushed)
}
