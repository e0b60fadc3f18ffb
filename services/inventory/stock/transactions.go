// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package stock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AleutianAI/AleutianInventory/pkg/extensions"
	"github.com/AleutianAI/AleutianInventory/services/inventory/datatypes"
	"github.com/AleutianAI/AleutianInventory/services/inventory/storage"
)

// RecordTransaction stores a manual transaction and applies it to stock.
//
// # Description
//
// purchase adds Quantity to the product, sale subtracts it and fails with
// ErrInsufficientStock when stock would go negative, adjustment is
// recorded without touching stock. TotalPrice is UnitPrice × Quantity.
// A purchase that would overflow the stock counter returns
// ErrInvalidQuantity.
func (s *Service) RecordTransaction(ctx context.Context, req datatypes.TransactionRequest, userID int64) (datatypes.Transaction, error) {
	tx := datatypes.Transaction{
		ProductID:  req.ProductID,
		Type:       req.Type,
		Quantity:   req.Quantity,
		UnitPrice:  req.UnitPrice,
		TotalPrice: req.UnitPrice * float64(req.Quantity),
		Notes:      req.Notes,
		CreatedBy:  userRef(userID),
	}
	if req.TransactionDate != nil {
		tx.TransactionDate = req.TransactionDate.UTC()
	} else {
		tx.TransactionDate = s.now()
	}

	var moves []movement
	err := s.store.InTx(ctx, func(q *storage.Queries) error {
		p, err := q.GetProduct(ctx, req.ProductID)
		if err != nil {
			return err
		}
		delta := 0
		switch req.Type {
		case datatypes.TxPurchase:
			delta = req.Quantity
		case datatypes.TxSale:
			if p.QuantityInStock < req.Quantity {
				return ErrInsufficientStock
			}
			delta = -req.Quantity
		}
		after, err := addStock(p.QuantityInStock, delta)
		if err != nil {
			return err
		}
		if err := q.CreateTransaction(ctx, &tx); err != nil {
			return err
		}
		if delta != 0 {
			if err := q.SetProductStock(ctx, p.ID, after); err != nil {
				return err
			}
		}
		moves = append(moves, movement{tx: tx, sku: p.SKU, delta: delta, after: after, source: extensions.SourceWeb})
		return nil
	})
	if err != nil {
		return datatypes.Transaction{}, err
	}
	s.report(ctx, moves)
	return tx, nil
}

// StockChange describes a chatbot stock update after it was applied.
type StockChange struct {
	Product datatypes.Product
	From    int
	To      int
}

// ApplyStockDelta adds (delta > 0) or removes (delta < 0) units on behalf
// of the chatbot or the Discord bot. The movement is stored as an IN or
// OUT transaction priced at the product's unit price.
//
// The stock is re-read inside the transaction; a removal that would now
// go below zero returns ErrInsufficientStock.
func (s *Service) ApplyStockDelta(ctx context.Context, productID int64, delta int, userID int64, source string) (StockChange, error) {
	if delta == 0 {
		return StockChange{}, fmt.Errorf("stock delta must not be zero")
	}
	if source == "" {
		source = extensions.SourceChatbot
	}
	var (
		change StockChange
		moves  []movement
	)
	err := s.store.InTx(ctx, func(q *storage.Queries) error {
		p, err := q.GetProduct(ctx, productID)
		if err != nil {
			return err
		}
		after, err := addStock(p.QuantityInStock, delta)
		if err != nil {
			return err
		}
		if after < 0 {
			return ErrInsufficientStock
		}
		txType := datatypes.TxIn
		if delta < 0 {
			txType = datatypes.TxOut
		}
		tx := datatypes.Transaction{
			ProductID:       p.ID,
			Type:            txType,
			Quantity:        abs(delta),
			TransactionDate: s.now(),
			UnitPrice:       p.UnitPrice,
			TotalPrice:      p.UnitPrice * float64(abs(delta)),
			Notes:           "Stock update via chatbot",
			CreatedBy:       userRef(userID),
		}
		if err := q.CreateTransaction(ctx, &tx); err != nil {
			return err
		}
		if err := q.SetProductStock(ctx, p.ID, after); err != nil {
			return err
		}
		change = StockChange{Product: p, From: p.QuantityInStock, To: after}
		change.Product.QuantityInStock = after
		moves = append(moves, movement{tx: tx, sku: p.SKU, delta: delta, after: after, source: source})
		return nil
	})
	if err != nil {
		return StockChange{}, err
	}
	s.report(ctx, moves)
	slog.Info("stock updated", "product_id", productID, "from", change.From, "to", change.To, "source", source)
	return change, nil
}

// TransactionsFor maps the listing filter to stored types: purchase also
// matches chatbot IN rows, sale also matches OUT rows.
func TransactionsFor(filter string) []string {
	switch filter {
	case datatypes.TxPurchase:
		return []string{datatypes.TxPurchase, datatypes.TxIn}
	case datatypes.TxSale:
		return []string{datatypes.TxSale, datatypes.TxOut}
	case datatypes.TxAdjustment:
		return []string{datatypes.TxAdjustment}
	}
	return nil
}

// SetClock replaces the time source used for new transactions.
func (s *Service) SetClock(now func() time.Time) { s.now = now }
