// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package assistant produces the natural-language text of the inventory
// service: notification summaries, purchase order summaries, trend
// analyses, recommendations, chatbot answers and analytics summaries.
//
// Every method works without a model. When the client is nil or a call
// fails, a deterministic fallback sentence is returned instead.
package assistant

import (
	"context"
	"log/slog"
	"strings"

	"github.com/AleutianAI/AleutianInventory/services/llm"
)

// Assistant wraps an optional LLM client.
//
// # Thread Safety
//
// Safe for concurrent use if the client is.
type Assistant struct {
	client llm.LLMClient
	params llm.GenerationParams
}

// New returns an Assistant. client may be nil.
func New(client llm.LLMClient) *Assistant {
	return &Assistant{
		client: client,
		params: llm.GenerationParams{
			Temperature: llm.Float32(0.4),
			MaxTokens:   llm.Int(1024),
		},
	}
}

// Enabled reports whether a model is configured.
func (a *Assistant) Enabled() bool {
	return a != nil && a.client != nil
}

// generate calls the model and returns fallback when there is no model,
// the call fails or the answer is empty.
func (a *Assistant) generate(ctx context.Context, task, prompt, fallback string) string {
	if !a.Enabled() {
		return fallback
	}
	out, err := a.client.Generate(ctx, prompt, a.params)
	if err != nil {
		slog.Warn("llm generation failed, using fallback", "task", task, "error", err)
		return fallback
	}
	out = strings.TrimSpace(out)
	if out == "" {
		slog.Warn("llm returned empty text, using fallback", "task", task)
		return fallback
	}
	return out
}
