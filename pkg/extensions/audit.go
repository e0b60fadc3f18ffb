// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package extensions

import (
	"context"
	"sync"
	"time"
)

// Stock event sources.
const (
	SourceWeb           = "web"
	SourceChatbot       = "chatbot"
	SourceDiscord       = "discord"
	SourcePurchaseOrder = "purchase_order"
	SourceSeed          = "seed"
)

// AuditEvent describes one stock movement.
//
// One event is emitted per stock transaction row, including adjustment
// rows that leave the on-hand quantity untouched (Delta is then zero).
//
// Example:
//
//	event := AuditEvent{
//	    EventType:  "stock.sale",
//	    Timestamp:  time.Now().UTC(),
//	    UserID:     authInfo.UserID,
//	    ProductID:  p.ID,
//	    ProductSKU: p.SKU,
//	    TxType:     "sale",
//	    Quantity:   3,
//	    Delta:      -3,
//	    UnitPrice:  999.99,
//	    StockAfter: 22,
//	    Source:     SourceWeb,
//	}
type AuditEvent struct {
	// EventType is "stock." followed by the lower-cased transaction type.
	EventType string

	// Timestamp is when the movement was recorded, in UTC.
	Timestamp time.Time

	// UserID is the acting user, zero for background jobs.
	UserID int64

	ProductID  int64
	ProductSKU string

	// TxType is the transaction type as stored (purchase, sale,
	// adjustment, IN, OUT).
	TxType string

	// Quantity is the transaction quantity, always positive.
	Quantity int

	// Delta is the signed change applied to quantity_in_stock.
	Delta int

	UnitPrice  float64
	StockAfter int

	// Source is one of the Source* constants.
	Source string
}

// AuditLogger records stock movements to an external trail.
//
// # Description
//
// Log is called synchronously after the database transaction that
// produced the movement has committed. A failing Log never rolls back the
// movement; callers log the error and continue.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use.
type AuditLogger interface {
	Log(ctx context.Context, event AuditEvent) error
	Flush(ctx context.Context) error
}

// NopAuditLogger discards all events.
type NopAuditLogger struct{}

func (l *NopAuditLogger) Log(context.Context, AuditEvent) error { return nil }
func (l *NopAuditLogger) Flush(context.Context) error           { return nil }

// MemoryAuditLogger keeps events in memory. Useful in tests and for the
// `products` CLI dry runs.
type MemoryAuditLogger struct {
	mu     sync.Mutex
	events []AuditEvent
}

func (l *MemoryAuditLogger) Log(_ context.Context, event AuditEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
	return nil
}

func (l *MemoryAuditLogger) Flush(context.Context) error { return nil }

// Events returns a copy of the recorded events.
func (l *MemoryAuditLogger) Events() []AuditEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]AuditEvent, len(l.events))
	copy(out, l.events)
	return out
}

var (
	_ AuditLogger = (*NopAuditLogger)(nil)
	_ AuditLogger = (*MemoryAuditLogger)(nil)
)
