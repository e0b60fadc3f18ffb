// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package chatbot

import (
	"regexp"
	"strconv"
	"strings"
)

// Operations of an UpdateRequest.
const (
	OpAdd    = "add"
	OpRemove = "remove"
)

// UpdateRequest is a stock change parsed from a chat message.
type UpdateRequest struct {
	SKU       string
	Quantity  int
	Operation string
}

// Delta is the signed stock change.
func (r UpdateRequest) Delta() int {
	if r.Operation == OpRemove {
		return -r.Quantity
	}
	return r.Quantity
}

const units = `(?:units?|items?|stock|pieces?)`
const skuRef = `(?:product\s+)?(?:sku[\s-]*)?([a-zA-Z0-9-]+)`

// updatePatterns are tried in order. skuFirst marks patterns where the SKU
// group precedes the quantity group.
var updatePatterns = []struct {
	re        *regexp.Regexp
	skuFirst  bool
	operation string
}{
	{regexp.MustCompile(`(?:add|update|increase)\s+(\d+)\s+` + units + `\s+(?:to|for)\s+` + skuRef), false, OpAdd},
	{regexp.MustCompile(`(?:update|add\s+to)\s+` + skuRef + `\s+(?:add|with)\s+(\d+)\s+` + units), true, OpAdd},
	{regexp.MustCompile(`(?:decrease|reduce|remove|subtract)\s+(\d+)\s+` + units + `\s+(?:from)\s+` + skuRef), false, OpRemove},
	{regexp.MustCompile(`(?:update|decrease|reduce|remove\s+from)\s+` + skuRef + `\s+(?:decrease|reduce|remove|subtract)\s+(\d+)\s+` + units), true, OpRemove},
}

// ParseStockUpdate extracts a stock update from msg, or returns nil.
//
// Recognized forms (case-insensitive):
//
//	add 20 units to product SKU-1234
//	update SKU-5678 with 10 units
//	remove 15 units from SKU-1234
//	reduce SKU-5678 remove 5 units
//
// The SKU is returned lower-cased; lookups are case-insensitive.
func ParseStockUpdate(msg string) *UpdateRequest {
	lower := strings.ToLower(msg)
	for _, p := range updatePatterns {
		m := p.re.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		sku, qty := m[2], m[1]
		if p.skuFirst {
			sku, qty = m[1], m[2]
		}
		n, err := strconv.Atoi(qty)
		if err != nil || n <= 0 {
			continue
		}
		return &UpdateRequest{SKU: sku, Quantity: n, Operation: p.operation}
	}
	return nil
}

var confirmationWords = []string{"yes", "confirm", "approved", "ok", "okay", "sure", "go ahead", "do it", "y", "yep", "yeah"}

var confirmationPattern = func() *regexp.Regexp {
	quoted := make([]string, len(confirmationWords))
	for i, w := range confirmationWords {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
}()

// IsConfirmation reports whether msg confirms a pending request. A
// confirmation word must appear as a whole word: "y" matches "y" and
// "y please" but not "yesterday's stock".
func IsConfirmation(msg string) bool {
	lower := strings.ToLower(strings.TrimSpace(msg))
	if isExactConfirmation(lower) {
		return true
	}
	return confirmationPattern.MatchString(lower)
}

func isExactConfirmation(lower string) bool {
	for _, w := range confirmationWords {
		if lower == w {
			return true
		}
	}
	return false
}

var lowStockPhrases = []string{
	"low stock",
	"stock below",
	"reorder level",
	"need to reorder",
	"running low",
	"stock alert",
	"inventory alert",
	"products to reorder",
	"items to reorder",
	"low inventory",
	"inventory running low",
	"list all products with low stock",
	"show products with low stock",
	"which products have low stock",
	"which all have low stock",
}

var listingPhrases = []string{
	"list all stock",
	"show all stock",
	"list all products",
	"show all products",
	"list inventory",
	"show inventory",
	"what products do we have",
	"what items do we have",
	"all products",
	"all items",
	"all stock",
	"show me all",
	"list all",
	"all available products",
	"available stock",
}

// IsLowStockRequest reports whether msg asks for products to reorder.
func IsLowStockRequest(msg string) bool {
	return containsAny(strings.ToLower(strings.TrimSpace(msg)), lowStockPhrases)
}

// IsStockListingRequest reports whether msg asks for the full stock list.
// Low stock requests are never listing requests.
func IsStockListingRequest(msg string) bool {
	if IsLowStockRequest(msg) {
		return false
	}
	return containsAny(strings.ToLower(strings.TrimSpace(msg)), listingPhrases)
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
