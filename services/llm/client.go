// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package llm wraps the text generation backends used by the inventory
// assistant: Gemini (default), OpenAI and a local Ollama server.
package llm

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned by New when the selected backend is
// disabled or has no credentials. Callers treat it as "no model" and use
// their deterministic fallbacks.
var ErrNotConfigured = errors.New("llm backend not configured")

type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	TopK        *int     `json:"top_k"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

// LLMClient defines the standard interface for any LLM backend.
type LLMClient interface {
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)
}

// Float32 and Int return pointers for GenerationParams literals.
func Float32(v float32) *float32 { return &v }
func Int(v int) *int             { return &v }
