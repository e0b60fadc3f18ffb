// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package chatbot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStockUpdate(t *testing.T) {
	tests := []struct {
		msg  string
		want *UpdateRequest
	}{
		{"add 20 units to product SKU-1234", &UpdateRequest{SKU: "1234", Quantity: 20, Operation: OpAdd}},
		{"Add 5 items for EL-LAP-001", &UpdateRequest{SKU: "el-lap-001", Quantity: 5, Operation: OpAdd}},
		{"increase 3 pieces to sku mouse", &UpdateRequest{SKU: "mouse", Quantity: 3, Operation: OpAdd}},
		{"update SKU-5678 with 10 units", &UpdateRequest{SKU: "5678", Quantity: 10, Operation: OpAdd}},
		{"add to product EL-MOU-001 add 7 stock", &UpdateRequest{SKU: "el-mou-001", Quantity: 7, Operation: OpAdd}},
		{"remove 15 units from SKU-1234", &UpdateRequest{SKU: "1234", Quantity: 15, Operation: OpRemove}},
		{"please reduce 2 items from of-pap-001", &UpdateRequest{SKU: "of-pap-001", Quantity: 2, Operation: OpRemove}},
		{"reduce EL-HEA-001 remove 4 units", &UpdateRequest{SKU: "el-hea-001", Quantity: 4, Operation: OpRemove}},
		{"remove from product x-1 subtract 1 unit", &UpdateRequest{SKU: "x-1", Quantity: 1, Operation: OpRemove}},
		{"decrease SKU-5678 by 5 units", nil},
		{"add 0 units to SKU-1", nil},
		{"how many laptops do we have", nil},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseStockUpdate(tt.msg))
		})
	}
}

func TestUpdateRequest_Delta(t *testing.T) {
	assert.Equal(t, 4, UpdateRequest{Operation: OpAdd, Quantity: 4}.Delta())
	assert.Equal(t, -4, UpdateRequest{Operation: OpRemove, Quantity: 4}.Delta())
}

func TestIsConfirmation(t *testing.T) {
	yes := []string{"yes", " Y ", "OK", "go ahead", "sure, do it", "yeah please", "Confirm."}
	no := []string{"yesterday's sales", "looks fine", "okra stock", "why", "my stock", "no"}
	for _, m := range yes {
		assert.True(t, IsConfirmation(m), m)
	}
	for _, m := range no {
		assert.False(t, IsConfirmation(m), m)
	}
}

func TestIntentPhrases(t *testing.T) {
	assert.True(t, IsLowStockRequest("Which products have LOW STOCK?"))
	assert.True(t, IsLowStockRequest("what do we need to reorder"))
	assert.False(t, IsLowStockRequest("list all products"))

	assert.True(t, IsStockListingRequest("show me all"))
	assert.True(t, IsStockListingRequest("List inventory"))
	assert.False(t, IsStockListingRequest("list all products with low stock"), "low stock wins")
	assert.False(t, IsStockListingRequest("what's the price of a laptop"))
}
