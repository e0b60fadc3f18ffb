// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = validate.RegisterValidation("txtype", validateTxType)
	_ = validate.RegisterValidation("postatus", validatePOStatus)
	_ = validate.RegisterValidation("notblank", validateNotBlank)
	_ = validate.RegisterValidation("period", validatePeriod)
}

func validateTxType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case TxPurchase, TxSale, TxAdjustment:
		return true
	}
	return false
}

func validatePOStatus(fl validator.FieldLevel) bool {
	return ValidPOStatus(fl.Field().String())
}

func validatePeriod(fl validator.FieldLevel) bool {
	return ValidPeriod(strings.ToLower(strings.TrimSpace(fl.Field().String())))
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// ValidationError carries one message per offending field, keyed by the
// JSON field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validate runs struct tag validation on v.
//
// # Description
//
// Returns nil when v is valid, a *ValidationError when one or more fields
// fail, or the raw validator error for programming mistakes such as
// passing a non-struct.
//
// # Examples
//
//	var req datatypes.ProductRequest
//	if err := c.ShouldBindJSON(&req); err != nil { ... }
//	if err := datatypes.Validate(req); err != nil {
//	    var verr *datatypes.ValidationError
//	    if errors.As(err, &verr) { c.JSON(400, gin.H{"error": verr.Error(), "fields": verr.Fields}) }
//	}
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		out.Fields[jsonName(fe)] = fieldMessage(fe)
	}
	return out
}

func jsonName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "This field is required."
	case "min":
		return fmt.Sprintf("Must be at least %s characters long.", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Must be at most %s characters long.", fe.Param())
		}
		return fmt.Sprintf("Must be at most %s.", fe.Param())
	case "gte":
		return fmt.Sprintf("Must be at least %s.", fe.Param())
	case "period":
		return "Must be one of today, week, month, year."
	case "email":
		return "Invalid email address."
	case "eqfield":
		return "Passwords must match."
	case "txtype":
		return "Must be one of purchase, sale, adjustment."
	case "postatus":
		return "Must be one of pending, approved, received, canceled."
	default:
		return fmt.Sprintf("Failed the %q check.", fe.Tag())
	}
}

// =============================================================================
// Auth Requests
// =============================================================================

type RegisterRequest struct {
	Username        string `json:"username" validate:"required,min=3,max=64"`
	Email           string `json:"email" validate:"required,email,max=120"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Remember bool   `json:"remember"`
}

// =============================================================================
// Catalog Requests
// =============================================================================

// ProductRequest is the body of product create and update.
//
// # Description
//
// SKU may be left empty when BarcodeImage carries a decodable barcode;
// the decoded text then becomes the SKU. Zero ReorderLevel and
// ReorderQuantity are replaced with the defaults by ApplyDefaults.
//
// # Limitations
//
//   - Whether the SKU is ultimately present can only be checked after
//     barcode decoding, so it is not a struct-tag rule.
type ProductRequest struct {
	Name            string  `json:"name" validate:"notblank,max=100"`
	Description     string  `json:"description"`
	SKU             string  `json:"sku" validate:"max=50"`
	UnitPrice       float64 `json:"unit_price" validate:"gte=0"`
	QuantityInStock int     `json:"quantity_in_stock" validate:"gte=0,max=1000000"`
	ReorderLevel    *int    `json:"reorder_level" validate:"omitempty,gte=0"`
	ReorderQuantity *int    `json:"reorder_quantity" validate:"omitempty,gte=1"`
	CategoryID      int64   `json:"category_id" validate:"required"`
	SupplierID      int64   `json:"supplier_id" validate:"required"`
	BarcodeImage    string  `json:"barcode_image_data"`
}

// Levels returns the reorder level and quantity with defaults applied.
func (r ProductRequest) Levels() (level, quantity int) {
	level, quantity = DefaultReorderLevel, DefaultReorderQuantity
	if r.ReorderLevel != nil {
		level = *r.ReorderLevel
	}
	if r.ReorderQuantity != nil {
		quantity = *r.ReorderQuantity
	}
	return level, quantity
}

type CategoryRequest struct {
	Name        string `json:"name" validate:"notblank,max=64"`
	Description string `json:"description" validate:"max=200"`
}

type SupplierRequest struct {
	Name          string `json:"name" validate:"notblank,max=100"`
	ContactPerson string `json:"contact_person" validate:"max=100"`
	Email         string `json:"email" validate:"omitempty,email,max=120"`
	Phone         string `json:"phone" validate:"max=20"`
	Address       string `json:"address" validate:"max=200"`
}

// =============================================================================
// Stock Requests
// =============================================================================

type TransactionRequest struct {
	ProductID       int64      `json:"product_id" validate:"required"`
	Type            string     `json:"transaction_type" validate:"txtype"`
	Quantity        int        `json:"quantity" validate:"gte=1,max=1000000"`
	UnitPrice       float64    `json:"unit_price" validate:"gte=0"`
	TransactionDate *time.Time `json:"transaction_date"`
	Notes           string     `json:"notes"`
}

type PurchaseOrderItemRequest struct {
	ProductID int64   `json:"product_id" validate:"required"`
	Quantity  int     `json:"quantity" validate:"gte=1,max=1000000"`
	UnitPrice float64 `json:"unit_price" validate:"gte=0"`
}

type PurchaseOrderRequest struct {
	SupplierID           int64                      `json:"supplier_id" validate:"required"`
	OrderDate            *time.Time                 `json:"order_date"`
	ExpectedDeliveryDate *time.Time                 `json:"expected_delivery_date"`
	Status               string                     `json:"status" validate:"omitempty,postatus"`
	Notes                string                     `json:"notes"`
	Items                []PurchaseOrderItemRequest `json:"items" validate:"dive"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"postatus"`
}

// DashboardQuery is the ?period= filter of the dashboard. An empty period
// means week.
type DashboardQuery struct {
	Period string `json:"period" form:"period" validate:"omitempty,period"`
}

// =============================================================================
// Chat Requests
// =============================================================================

type ChatRequest struct {
	Message string `json:"message" validate:"notblank,max=2000"`
}

type ConfirmRequest struct {
	Confirmation bool `json:"confirmation"`
}
