// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package chatbot answers inventory chat messages: stock updates with
// confirmation, low stock and stock listings, and free-form questions
// answered by the assistant.
package chatbot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/AleutianAI/AleutianInventory/pkg/extensions"
	"github.com/AleutianAI/AleutianInventory/services/inventory/assistant"
	"github.com/AleutianAI/AleutianInventory/services/inventory/observability"
	"github.com/AleutianAI/AleutianInventory/services/inventory/stock"
	"github.com/AleutianAI/AleutianInventory/services/inventory/storage"
)

// Default confirmation windows.
const (
	WebPendingTTL     = 10 * time.Minute
	DiscordPendingTTL = 60 * time.Second
)

// Intents reported to metrics.
const (
	IntentConfirm     = "confirm"
	IntentConfirmNoop = "confirm_without_pending"
	IntentStockUpdate = "stock_update"
	IntentLowStock    = "low_stock"
	IntentListing     = "listing"
	IntentGeneral     = "general"
)

// ProductInfo describes the product of a pending update.
type ProductInfo struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	SKU          string `json:"sku"`
	CurrentStock int    `json:"current_stock"`
	Operation    string `json:"operation"`
	Quantity     int    `json:"quantity"`
}

// Response is the chatbot reply. Text may contain HTML.
type Response struct {
	Text              string       `json:"response"`
	NeedsConfirmation bool         `json:"needsConfirmation,omitempty"`
	IsConfirmation    bool         `json:"isConfirmation,omitempty"`
	Success           *bool        `json:"success,omitempty"`
	Product           *ProductInfo `json:"product,omitempty"`
	Intent            string       `json:"-"`
}

// Bot routes chat messages.
//
// # Description
//
// A message is handled by the first matching rule:
//
//  1. A confirmation with a pending update for the session applies it.
//  2. A confirmation without a pending update is acknowledged.
//  3. A stock update request looks up the product and stores a pending
//     update that the next confirmation applies.
//  4. A low stock request lists products below their reorder level.
//  5. A listing request lists every product.
//  6. Anything else goes to the assistant with inventory context.
//
// # Thread Safety
//
// Safe for concurrent use.
type Bot struct {
	stock      *stock.Service
	assistant  *assistant.Assistant
	pending    *PendingStore
	metrics    *observability.Metrics
	source     string
	pendingTTL time.Duration
}

// NewBot creates a Bot for the web channel.
func NewBot(svc *stock.Service, asst *assistant.Assistant, pending *PendingStore, metrics *observability.Metrics) *Bot {
	return &Bot{
		stock:      svc,
		assistant:  asst,
		pending:    pending,
		metrics:    metrics,
		source:     extensions.SourceChatbot,
		pendingTTL: WebPendingTTL,
	}
}

// ForChannel returns a Bot sharing b's state that records movements with
// source and keeps pending updates for ttl.
func (b *Bot) ForChannel(source string, ttl time.Duration) *Bot {
	c := *b
	c.source = source
	c.pendingTTL = ttl
	return &c
}

// PendingTTL is how long a pending update waits for confirmation.
func (b *Bot) PendingTTL() time.Duration { return b.pendingTTL }

// ProcessMessage answers one chat message. sessionKey scopes pending
// updates (web session, Discord user).
func (b *Bot) ProcessMessage(ctx context.Context, sessionKey string, userID int64, message string) Response {
	resp := b.route(ctx, sessionKey, userID, message)
	b.metrics.RecordChatIntent(resp.Intent)
	return resp
}

func (b *Bot) route(ctx context.Context, sessionKey string, userID int64, message string) Response {
	update := ParseStockUpdate(message)
	lower := strings.ToLower(strings.TrimSpace(message))
	if IsConfirmation(message) && (update == nil || isExactConfirmation(lower)) {
		resp, err := b.Confirm(ctx, sessionKey, userID)
		if errors.Is(err, ErrNoPendingUpdate) {
			return Response{
				Text:           "Thank you for confirming. I'll process the stock update now.",
				IsConfirmation: true,
				Intent:         IntentConfirmNoop,
			}
		}
		return resp
	}
	if update != nil {
		return b.requestUpdate(ctx, sessionKey, *update)
	}
	if IsLowStockRequest(message) {
		return b.lowStock(ctx)
	}
	if IsStockListingRequest(message) {
		return b.listing(ctx)
	}
	return b.general(ctx, message)
}

// Confirm applies the session's pending update.
//
// # Outputs
//
//   - ErrNoPendingUpdate when nothing is pending. Response.Text then
//     holds the message to show.
//   - Other failures are reported in Response with Success false and a
//     nil error.
func (b *Bot) Confirm(ctx context.Context, sessionKey string, userID int64) (Response, error) {
	pending, err := b.pending.Take(sessionKey)
	if err != nil {
		if !errors.Is(err, ErrNoPendingUpdate) {
			slog.Error("read pending update", "session", sessionKey, "error", err)
		}
		return Response{Text: ErrNoPendingUpdate.Error(), Success: boolPtr(false), Intent: IntentConfirmNoop}, ErrNoPendingUpdate
	}

	change, err := b.stock.ApplyStockDelta(ctx, pending.ProductID, pending.Delta(), userID, b.source)
	switch {
	case errors.Is(err, stock.ErrInsufficientStock):
		return Response{
			Text:    fmt.Sprintf("There are no longer enough units of %s in stock to remove %d. The stock update was cancelled.", pending.ProductName, pending.Quantity),
			Success: boolPtr(false),
			Intent:  IntentConfirm,
		}, nil
	case errors.Is(err, stock.ErrNotFound):
		return Response{Text: "Product not found", Success: boolPtr(false), Intent: IntentConfirm}, nil
	case err != nil:
		slog.Error("apply chatbot stock update", "product_id", pending.ProductID, "error", err)
		return Response{Text: fmt.Sprintf("Error updating stock: %v", err), Success: boolPtr(false), Intent: IntentConfirm}, nil
	}
	return Response{
		Text:    fmt.Sprintf("Successfully updated %s stock from %d to %d.", change.Product.Name, change.From, change.To),
		Success: boolPtr(true),
		Intent:  IntentConfirm,
	}, nil
}

func (b *Bot) requestUpdate(ctx context.Context, sessionKey string, req UpdateRequest) Response {
	q := b.stock.Store().Queries()
	p, err := q.FindProductBySKULike(ctx, req.SKU)
	if errors.Is(err, storage.ErrNotFound) {
		return Response{
			Text:   fmt.Sprintf("I couldn't find a product with SKU similar to '%s'. Please check the SKU and try again.", req.SKU),
			Intent: IntentStockUpdate,
		}
	}
	if err != nil {
		slog.Error("chatbot sku lookup", "sku", req.SKU, "error", err)
		return Response{Text: "Sorry, I couldn't look up that product right now.", Intent: IntentStockUpdate}
	}

	if req.Operation == OpRemove && p.QuantityInStock < req.Quantity {
		return Response{
			Text: fmt.Sprintf("I found %s with SKU-%s, but there are only %d units in stock. You cannot remove %d units.",
				p.Name, p.SKU, p.QuantityInStock, req.Quantity),
			Intent: IntentStockUpdate,
		}
	}

	err = b.pending.Put(sessionKey, PendingUpdate{
		ProductID:   p.ID,
		ProductName: p.Name,
		SKU:         p.SKU,
		Operation:   req.Operation,
		Quantity:    req.Quantity,
		CreatedAt:   time.Now().UTC(),
	}, b.pendingTTL)
	if err != nil {
		slog.Error("store pending update", "session", sessionKey, "error", err)
		return Response{Text: "Sorry, I couldn't prepare that stock update. Please try again.", Intent: IntentStockUpdate}
	}

	verb := "add to"
	if req.Operation == OpRemove {
		verb = "remove from"
	}
	return Response{
		Text: fmt.Sprintf("I found %s with SKU-%s. Current stock level is %d. Would you like to %s the stock by %d units?",
			p.Name, p.SKU, p.QuantityInStock, verb, req.Quantity),
		NeedsConfirmation: true,
		Product: &ProductInfo{
			ID:           p.ID,
			Name:         p.Name,
			SKU:          p.SKU,
			CurrentStock: p.QuantityInStock,
			Operation:    req.Operation,
			Quantity:     req.Quantity,
		},
		Intent: IntentStockUpdate,
	}
}

func (b *Bot) lowStock(ctx context.Context) Response {
	products, err := b.stock.Store().Queries().LowStockProducts(ctx, false, 0)
	if err != nil {
		slog.Error("chatbot low stock query", "error", err)
		return Response{Text: "Sorry, I couldn't load the low stock products.", Intent: IntentLowStock}
	}
	if len(products) == 0 {
		return Response{
			Text:   "<p>All products are sufficiently stocked. There are no products with inventory levels below their reorder points.</p>",
			Intent: IntentLowStock,
		}
	}
	sort.SliceStable(products, func(i, j int) bool { return products[i].Name < products[j].Name })

	var sb strings.Builder
	sb.WriteString("<p>Here are the products that need reordering:</p>\n<ul>")
	for _, p := range products {
		fmt.Fprintf(&sb, "\n    <li><strong>%s</strong>: SKU: %s, Stock: %d units (Reorder level: %d units)</li>",
			html.EscapeString(p.Name), html.EscapeString(p.SKU), p.QuantityInStock, p.ReorderLevel)
	}
	sb.WriteString("\n</ul>")
	return Response{Text: sb.String(), Intent: IntentLowStock}
}

func (b *Bot) listing(ctx context.Context) Response {
	products, err := b.stock.Store().Queries().AllProducts(ctx)
	if err != nil {
		slog.Error("chatbot listing query", "error", err)
		return Response{Text: "Sorry, I couldn't load the inventory.", Intent: IntentListing}
	}
	if len(products) == 0 {
		return Response{Text: "There are no products in the inventory.", Intent: IntentListing}
	}

	var sb strings.Builder
	sb.WriteString("<p>Here's the current inventory stock levels:</p>\n<ul>")
	for _, p := range products {
		fmt.Fprintf(&sb, "\n    <li><strong>%s</strong>: SKU: %s, Stock: %d units</li>",
			html.EscapeString(p.Name), html.EscapeString(p.SKU), p.QuantityInStock)
	}
	sb.WriteString("\n</ul>")
	return Response{Text: sb.String(), Intent: IntentListing}
}

func (b *Bot) general(ctx context.Context, message string) Response {
	q := b.stock.Store().Queries()
	var ic assistant.InventoryContext
	var err error
	if ic.ProductCount, err = q.CountProducts(ctx); err != nil {
		slog.Warn("chatbot context: count products", "error", err)
	}
	if ic.LowStockCount, err = q.CountLowStock(ctx); err != nil {
		slog.Warn("chatbot context: count low stock", "error", err)
	}
	if ic.Recent, err = q.RecentProducts(ctx, 3); err != nil {
		slog.Warn("chatbot context: recent products", "error", err)
	}
	return Response{Text: b.assistant.GeneralQuery(ctx, message, ic), Intent: IntentGeneral}
}

func boolPtr(v bool) *bool { return &v }
