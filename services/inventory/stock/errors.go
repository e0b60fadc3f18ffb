// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package stock

import (
	"errors"
	"fmt"

	"github.com/AleutianAI/AleutianInventory/services/inventory/storage"
)

// User-facing sentinel errors. Their text is shown verbatim by the API and
// the chatbot, so it is written as a sentence.
var (
	ErrNotFound          = storage.ErrNotFound
	ErrDuplicateSKU      = errors.New("A product with this SKU already exists. Please enter a unique SKU.")
	ErrInsufficientStock = errors.New("Insufficient stock for this sale")
	ErrInUse             = errors.New("in use by one or more products")
	ErrInvalidStatus     = errors.New("Invalid purchase order status")
	ErrAlreadyReceived   = errors.New("Purchase order has already been received")
	ErrInvalidQuantity   = errors.New("Quantity would exceed the maximum stock level")
)

// InUseError reports a category or supplier that still has products.
// errors.Is(err, ErrInUse) matches it.
type InUseError struct {
	Kind string // "category" or "supplier"
}

func (e *InUseError) Error() string {
	return fmt.Sprintf("Cannot delete %s because it is in use by one or more products", e.Kind)
}

func (e *InUseError) Is(target error) bool { return target == ErrInUse }
