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

	"github.com/AleutianAI/AleutianInventory/pkg/extensions"
	"github.com/AleutianAI/AleutianInventory/services/inventory/datatypes"
	"github.com/AleutianAI/AleutianInventory/services/inventory/storage"
)

// CreatePurchaseOrder stores the header and its lines. TotalAmount is the
// sum of quantity × unit price over the lines. A request with status
// received is received immediately.
func (s *Service) CreatePurchaseOrder(ctx context.Context, req datatypes.PurchaseOrderRequest, userID int64) (datatypes.PurchaseOrder, error) {
	order := datatypes.PurchaseOrder{
		SupplierID:           req.SupplierID,
		ExpectedDeliveryDate: req.ExpectedDeliveryDate,
		Status:               datatypes.POPending,
		Notes:                req.Notes,
		CreatedBy:            userRef(userID),
	}
	if req.OrderDate != nil {
		order.OrderDate = req.OrderDate.UTC()
	} else {
		order.OrderDate = s.now()
	}

	var moves []movement
	err := s.store.InTx(ctx, func(q *storage.Queries) error {
		if _, err := q.GetSupplier(ctx, req.SupplierID); err != nil {
			return err
		}
		if err := q.CreatePurchaseOrder(ctx, &order); err != nil {
			return err
		}
		if err := s.writeItems(ctx, q, &order, req.Items); err != nil {
			return err
		}
		if req.Status != "" && req.Status != datatypes.POPending {
			m, err := s.changeStatus(ctx, q, &order, req.Status, userID)
			if err != nil {
				return err
			}
			moves = m
		}
		return nil
	})
	if err != nil {
		return datatypes.PurchaseOrder{}, err
	}
	s.report(ctx, moves)
	slog.Info("purchase order created", "order_id", order.ID, "items", len(order.Items), "total", order.TotalAmount)
	return order, nil
}

// UpdatePurchaseOrder replaces the header fields and every line. Received
// orders are immutable and return ErrAlreadyReceived.
func (s *Service) UpdatePurchaseOrder(ctx context.Context, id int64, req datatypes.PurchaseOrderRequest, userID int64) (datatypes.PurchaseOrder, error) {
	var (
		order datatypes.PurchaseOrder
		moves []movement
	)
	err := s.store.InTx(ctx, func(q *storage.Queries) error {
		var err error
		order, err = q.GetPurchaseOrder(ctx, id)
		if err != nil {
			return err
		}
		if order.Status == datatypes.POReceived || order.ReceivedAt != nil {
			return ErrAlreadyReceived
		}
		if _, err := q.GetSupplier(ctx, req.SupplierID); err != nil {
			return err
		}
		order.SupplierID = req.SupplierID
		if req.OrderDate != nil {
			order.OrderDate = req.OrderDate.UTC()
		}
		order.ExpectedDeliveryDate = req.ExpectedDeliveryDate
		order.Notes = req.Notes
		if err := s.writeItems(ctx, q, &order, req.Items); err != nil {
			return err
		}
		if req.Status != "" && req.Status != order.Status {
			moves, err = s.changeStatus(ctx, q, &order, req.Status, userID)
			return err
		}
		return nil
	})
	if err != nil {
		return datatypes.PurchaseOrder{}, err
	}
	s.report(ctx, moves)
	return order, nil
}

// SetPurchaseOrderStatus changes the order status.
//
// # Description
//
// Moving to received records one purchase transaction per line, with the
// note "Received from PO #{id}", and adds the quantities to stock. This
// happens once: any status change on an already received order returns
// ErrAlreadyReceived and changes nothing.
//
// # Outputs
//
//   - ErrInvalidStatus for a status outside pending, approved, received,
//     canceled.
//   - ErrNotFound for an unknown order.
func (s *Service) SetPurchaseOrderStatus(ctx context.Context, id int64, status string, userID int64) (datatypes.PurchaseOrder, error) {
	if !datatypes.ValidPOStatus(status) {
		return datatypes.PurchaseOrder{}, ErrInvalidStatus
	}
	var (
		order datatypes.PurchaseOrder
		moves []movement
	)
	err := s.store.InTx(ctx, func(q *storage.Queries) error {
		var err error
		order, err = q.GetPurchaseOrder(ctx, id)
		if err != nil {
			return err
		}
		moves, err = s.changeStatus(ctx, q, &order, status, userID)
		return err
	})
	if err != nil {
		return datatypes.PurchaseOrder{}, err
	}
	s.report(ctx, moves)
	slog.Info("purchase order status updated", "order_id", id, "status", status)
	return order, nil
}

// DeletePurchaseOrder removes the order and its lines. Stock received
// through the order stays.
func (s *Service) DeletePurchaseOrder(ctx context.Context, id int64) error {
	return s.store.InTx(ctx, func(q *storage.Queries) error {
		return q.DeletePurchaseOrder(ctx, id)
	})
}

func (s *Service) writeItems(ctx context.Context, q *storage.Queries, order *datatypes.PurchaseOrder, reqs []datatypes.PurchaseOrderItemRequest) error {
	items := make([]datatypes.PurchaseOrderItem, 0, len(reqs))
	for _, r := range reqs {
		p, err := q.GetProduct(ctx, r.ProductID)
		if err != nil {
			return fmt.Errorf("product %d: %w", r.ProductID, err)
		}
		items = append(items, datatypes.PurchaseOrderItem{
			ProductID:   r.ProductID,
			Quantity:    r.Quantity,
			UnitPrice:   r.UnitPrice,
			ProductName: p.Name,
			ProductSKU:  p.SKU,
		})
	}
	if err := q.ReplacePurchaseOrderItems(ctx, order.ID, items); err != nil {
		return err
	}
	total := 0.0
	for _, it := range items {
		total += it.TotalPrice
	}
	order.Items = items
	order.TotalAmount = total
	return q.UpdatePurchaseOrder(ctx, order)
}

// changeStatus must run inside InTx. order.Items must be loaded.
func (s *Service) changeStatus(ctx context.Context, q *storage.Queries, order *datatypes.PurchaseOrder, status string, userID int64) ([]movement, error) {
	if !datatypes.ValidPOStatus(status) {
		return nil, ErrInvalidStatus
	}
	// Received orders are final: their stock has already been added.
	if order.Status == datatypes.POReceived || order.ReceivedAt != nil {
		return nil, ErrAlreadyReceived
	}
	if status != datatypes.POReceived {
		if err := q.SetPurchaseOrderStatus(ctx, order.ID, status, nil); err != nil {
			return nil, err
		}
		order.Status = status
		return nil, nil
	}

	at := s.now()
	moves := make([]movement, 0, len(order.Items))
	for _, it := range order.Items {
		p, err := q.GetProduct(ctx, it.ProductID)
		if err != nil {
			return nil, err
		}
		tx := datatypes.Transaction{
			ProductID:       it.ProductID,
			Type:            datatypes.TxPurchase,
			Quantity:        it.Quantity,
			TransactionDate: at,
			UnitPrice:       it.UnitPrice,
			TotalPrice:      it.TotalPrice,
			Notes:           fmt.Sprintf("Received from PO #%d", order.ID),
			CreatedBy:       userRef(userID),
		}
		after, err := addStock(p.QuantityInStock, it.Quantity)
		if err != nil {
			return nil, err
		}
		if err := q.CreateTransaction(ctx, &tx); err != nil {
			return nil, err
		}
		if err := q.SetProductStock(ctx, p.ID, after); err != nil {
			return nil, err
		}
		moves = append(moves, movement{tx: tx, sku: p.SKU, delta: it.Quantity, after: after, source: extensions.SourcePurchaseOrder})
	}
	if err := q.SetPurchaseOrderStatus(ctx, order.ID, status, &at); err != nil {
		return nil, err
	}
	order.Status = status
	order.ReceivedAt = &at
	return moves, nil
}
