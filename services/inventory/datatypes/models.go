// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes holds the persisted entities and the validated request
// bodies shared by storage, business services and HTTP handlers.
package datatypes

import (
	"strings"
	"time"
)

// =============================================================================
// Transaction and Status Vocabulary
// =============================================================================

// Transaction types. The lower-case ones come from the web forms and
// purchase orders; IN and OUT are written by the chatbot.
const (
	TxPurchase   = "purchase"
	TxSale       = "sale"
	TxAdjustment = "adjustment"
	TxIn         = "IN"
	TxOut        = "OUT"
)

// Purchase order statuses.
const (
	POPending  = "pending"
	POApproved = "approved"
	POReceived = "received"
	POCanceled = "canceled"
)

// Dashboard periods.
const (
	PeriodToday = "today"
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodYear  = "year"
)

// Notification types.
const (
	NotifyLowStock          = "low_stock"
	NotifyIrregularActivity = "irregular_activity"
)

// Product defaults applied when a request leaves them at zero.
const (
	DefaultReorderLevel    = 10
	DefaultReorderQuantity = 50
)

// IsStockInType reports whether a transaction type adds stock.
func IsStockInType(t string) bool {
	switch strings.ToLower(t) {
	case "purchase", "in":
		return true
	}
	return false
}

// IsStockOutType reports whether a transaction type removes stock.
func IsStockOutType(t string) bool {
	switch strings.ToLower(t) {
	case "sale", "out":
		return true
	}
	return false
}

// ValidPOStatus reports whether s is a known purchase order status.
func ValidPOStatus(s string) bool {
	switch s {
	case POPending, POApproved, POReceived, POCanceled:
		return true
	}
	return false
}

// ValidPeriod reports whether s names a dashboard period.
func ValidPeriod(s string) bool {
	switch s {
	case PeriodToday, PeriodWeek, PeriodMonth, PeriodYear:
		return true
	}
	return false
}

// =============================================================================
// Entities
// =============================================================================

type User struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	IsAdmin      bool      `db:"is_admin" json:"is_admin"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

type Supplier struct {
	ID            int64     `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	ContactPerson string    `db:"contact_person" json:"contact_person"`
	Email         string    `db:"email" json:"email"`
	Phone         string    `db:"phone" json:"phone"`
	Address       string    `db:"address" json:"address"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`

	// ProductCount is filled by listing queries only.
	ProductCount int `db:"product_count" json:"product_count"`
}

type Category struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`

	ProductCount int `db:"product_count" json:"product_count"`
}

type Product struct {
	ID              int64     `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	Description     string    `db:"description" json:"description"`
	SKU             string    `db:"sku" json:"sku"`
	UnitPrice       float64   `db:"unit_price" json:"unit_price"`
	QuantityInStock int       `db:"quantity_in_stock" json:"quantity_in_stock"`
	ReorderLevel    int       `db:"reorder_level" json:"reorder_level"`
	ReorderQuantity int       `db:"reorder_quantity" json:"reorder_quantity"`
	CategoryID      int64     `db:"category_id" json:"category_id"`
	SupplierID      int64     `db:"supplier_id" json:"supplier_id"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`

	CategoryName string `db:"category_name" json:"category_name,omitempty"`
	SupplierName string `db:"supplier_name" json:"supplier_name,omitempty"`
}

// IsLowStock uses the inclusive comparison of the notification scanner
// and the dashboard.
func (p Product) IsLowStock() bool {
	return p.QuantityInStock <= p.ReorderLevel
}

// BelowReorderLevel uses the strict comparison of the chatbot and the
// Discord bot.
func (p Product) BelowReorderLevel() bool {
	return p.QuantityInStock < p.ReorderLevel
}

type Transaction struct {
	ID              int64     `db:"id" json:"id"`
	ProductID       int64     `db:"product_id" json:"product_id"`
	Type            string    `db:"transaction_type" json:"transaction_type"`
	Quantity        int       `db:"quantity" json:"quantity"`
	TransactionDate time.Time `db:"transaction_date" json:"transaction_date"`
	UnitPrice       float64   `db:"unit_price" json:"unit_price"`
	TotalPrice      float64   `db:"total_price" json:"total_price"`
	Notes           string    `db:"notes" json:"notes"`
	CreatedBy       *int64    `db:"created_by" json:"created_by,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`

	ProductName string `db:"product_name" json:"product_name,omitempty"`
	ProductSKU  string `db:"product_sku" json:"product_sku,omitempty"`
}

func (t Transaction) IsStockIn() bool  { return IsStockInType(t.Type) }
func (t Transaction) IsStockOut() bool { return IsStockOutType(t.Type) }

type Notification struct {
	ID        int64     `db:"id" json:"id"`
	ProductID int64     `db:"product_id" json:"product_id"`
	Type      string    `db:"notification_type" json:"notification_type"`
	Message   string    `db:"message" json:"message"`
	AISummary string    `db:"ai_summary" json:"ai_summary"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	ProductName string `db:"product_name" json:"product_name,omitempty"`
}

type PurchaseOrder struct {
	ID                   int64      `db:"id" json:"id"`
	SupplierID           int64      `db:"supplier_id" json:"supplier_id"`
	OrderDate            time.Time  `db:"order_date" json:"order_date"`
	ExpectedDeliveryDate *time.Time `db:"expected_delivery_date" json:"expected_delivery_date,omitempty"`
	Status               string     `db:"status" json:"status"`
	TotalAmount          float64    `db:"total_amount" json:"total_amount"`
	Notes                string     `db:"notes" json:"notes"`
	CreatedBy            *int64     `db:"created_by" json:"created_by,omitempty"`
	ReceivedAt           *time.Time `db:"received_at" json:"received_at,omitempty"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`

	SupplierName string              `db:"supplier_name" json:"supplier_name,omitempty"`
	Items        []PurchaseOrderItem `db:"-" json:"items,omitempty"`
}

type PurchaseOrderItem struct {
	ID              int64   `db:"id" json:"id"`
	PurchaseOrderID int64   `db:"purchase_order_id" json:"purchase_order_id"`
	ProductID       int64   `db:"product_id" json:"product_id"`
	Quantity        int     `db:"quantity" json:"quantity"`
	UnitPrice       float64 `db:"unit_price" json:"unit_price"`
	TotalPrice      float64 `db:"total_price" json:"total_price"`

	ProductName string `db:"product_name" json:"product_name,omitempty"`
	ProductSKU  string `db:"product_sku" json:"product_sku,omitempty"`
}

// MLResult is one product's row of an analytics run.
type MLResult struct {
	ID                        int64     `db:"id" json:"id"`
	RunID                     string    `db:"run_id" json:"run_id"`
	RunDate                   time.Time `db:"run_date" json:"run_date"`
	ProductID                 int64     `db:"product_id" json:"product_id"`
	ProductName               string    `db:"product_name" json:"product_name"`
	CategoryName              string    `db:"category_name" json:"category_name"`
	SupplierName              string    `db:"supplier_name" json:"supplier_name"`
	PopularityIndex           int       `db:"popularity_index" json:"popularity_index"`
	PredictedDaysUntilReorder float64   `db:"predicted_days_until_reorder" json:"predicted_days_until_reorder"`
	AISummary                 string    `db:"ai_summary" json:"ai_summary"`
}
