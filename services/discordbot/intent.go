// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package discordbot

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	"github.com/AleutianAI/AleutianInventory/services/llm"
)

const (
	IntentCheckInventory = "check_inventory"
	IntentAddStock       = "add_stock"
	IntentRemoveStock    = "remove_stock"
	IntentProductInfo    = "product_info"
	IntentUnknown        = "unknown"
)

// Intent is the model's reading of a conversational message.
type Intent struct {
	Intent   string   `json:"intent"`
	Entities Entities `json:"entities"`
}

type Entities struct {
	ProductSKU  string   `json:"product_sku"`
	ProductName string   `json:"product_name"`
	Quantity    Quantity `json:"quantity"`
}

// SearchTerm prefers the SKU over the product name.
func (e Entities) SearchTerm() string {
	if e.ProductSKU != "" {
		return e.ProductSKU
	}
	return e.ProductName
}

// Quantity accepts a JSON number or a numeric string. Anything else
// decodes as zero.
type Quantity int

func (q *Quantity) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		*q = Quantity(int(f))
	} else {
		*q = 0
	}
	return nil
}

var unknownIntent = Intent{Intent: IntentUnknown}

const intentPrompt = `Extract the inventory management intent and entities from the following message.
Return a JSON object with the following structure:
{
    "intent": one of ["check_inventory", "add_stock", "remove_stock", "product_info", "unknown"],
    "entities": {
        "product_sku": "SKU if mentioned",
        "quantity": number if mentioned,
        "product_name": "product name if mentioned"
    }
}

For example:
- "add 20 units to product SKU-1234" should return:
  {"intent": "add_stock", "entities": {"product_sku": "SKU-1234", "quantity": 20}}
- "how many units of blue t-shirts do we have?" should return:
  {"intent": "check_inventory", "entities": {"product_name": "blue t-shirts"}}
- "remove 15 items from SKU-5678" should return:
  {"intent": "remove_stock", "entities": {"product_sku": "SKU-5678", "quantity": 15}}

MESSAGE:
`

// IntentExtractor asks the model to classify a message. A nil client
// always yields the unknown intent.
type IntentExtractor struct {
	client llm.LLMClient
}

func NewIntentExtractor(client llm.LLMClient) *IntentExtractor {
	return &IntentExtractor{client: client}
}

func (x *IntentExtractor) Enabled() bool { return x != nil && x.client != nil }

// Extract never fails; model and parse errors are logged and reported as
// the unknown intent.
func (x *IntentExtractor) Extract(ctx context.Context, message string) Intent {
	if !x.Enabled() {
		return unknownIntent
	}
	text, err := x.client.Generate(ctx, intentPrompt+message, llm.GenerationParams{
		Temperature: llm.Float32(0),
		MaxTokens:   llm.Int(256),
	})
	if err != nil {
		slog.Warn("intent extraction failed", "error", err)
		return unknownIntent
	}
	return parseIntent(text)
}

func parseIntent(text string) Intent {
	body := stripCodeFence(text)
	var in Intent
	if err := json.Unmarshal([]byte(body), &in); err != nil {
		slog.Warn("unparseable intent response", "error", err, "raw", text)
		return unknownIntent
	}
	switch in.Intent {
	case IntentCheckInventory, IntentAddStock, IntentRemoveStock, IntentProductInfo:
		in.Entities.ProductSKU = strings.TrimSpace(in.Entities.ProductSKU)
		in.Entities.ProductName = strings.TrimSpace(in.Entities.ProductName)
		return in
	default:
		return unknownIntent
	}
}

// stripCodeFence returns the body of the first ``` block, or text
// trimmed when there is none.
func stripCodeFence(text string) string {
	if _, after, ok := strings.Cut(text, "```json"); ok {
		body, _, _ := strings.Cut(after, "```")
		return strings.TrimSpace(body)
	}
	if _, after, ok := strings.Cut(text, "```"); ok {
		body, _, _ := strings.Cut(after, "```")
		return strings.TrimSpace(body)
	}
	return strings.TrimSpace(text)
}
