// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import (
	"context"
	"fmt"
	"strings"
)

// Backend names accepted by Config.Backend.
const (
	BackendGemini   = "gemini"
	BackendOpenAI   = "openai"
	BackendOllama   = "ollama"
	BackendDisabled = "disabled"
)

// Config selects and configures a backend.
type Config struct {
	Backend string

	GeminiAPIKey string
	GeminiModel  string

	OpenAIAPIKey string
	OpenAIModel  string

	OllamaBaseURL string
	OllamaModel   string

	// RateLimit is requests per second across all callers. Zero disables
	// limiting.
	RateLimit float64
	Burst     int
}

// New builds the configured backend wrapped in a rate limiter.
//
// # Description
//
// Returns an error wrapping ErrNotConfigured when the backend is
// "disabled" or its credentials are missing. Any other error means the
// backend was configured but could not be constructed.
//
// # Outputs
//
//   - LLMClient: the client, rate limited when cfg.RateLimit > 0.
//   - string: the normalized backend name, for metrics labels.
func New(ctx context.Context, cfg Config) (LLMClient, string, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	if backend == "" {
		backend = BackendGemini
	}

	var (
		client LLMClient
		err    error
	)
	switch backend {
	case BackendGemini:
		client, err = NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	case BackendOpenAI:
		client, err = NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	case BackendOllama:
		client, err = NewOllamaClient(cfg.OllamaBaseURL, cfg.OllamaModel)
	case BackendDisabled, "none":
		return nil, BackendDisabled, fmt.Errorf("backend disabled: %w", ErrNotConfigured)
	default:
		return nil, backend, fmt.Errorf("unknown LLM backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, backend, err
	}
	if cfg.RateLimit > 0 {
		client = NewRateLimited(client, cfg.RateLimit, cfg.Burst)
	}
	return client, backend, nil
}
