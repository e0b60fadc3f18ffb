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

	"golang.org/x/time/rate"
)

// RateLimited throttles an LLMClient with a token bucket. The analytics
// job summarises every product concurrently and would otherwise burst
// past provider quotas.
type RateLimited struct {
	next    LLMClient
	limiter *rate.Limiter
}

// NewRateLimited wraps next. burst below 1 is raised to 1.
func NewRateLimited(next LLMClient, perSecond float64, burst int) *RateLimited {
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{next: next, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Generate waits for a token, then delegates. A cancelled context while
// waiting returns the context error without calling the backend.
func (r *RateLimited) Generate(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("llm rate limit wait: %w", err)
	}
	return r.next.Generate(ctx, prompt, params)
}

// ObserveFunc receives the outcome of each call: "success" or "error".
type ObserveFunc func(status string)

// Instrumented reports every call outcome to an observer.
type Instrumented struct {
	next    LLMClient
	observe ObserveFunc
}

func NewInstrumented(next LLMClient, observe ObserveFunc) *Instrumented {
	return &Instrumented{next: next, observe: observe}
}

func (i *Instrumented) Generate(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	out, err := i.next.Generate(ctx, prompt, params)
	if i.observe != nil {
		if err != nil {
			i.observe("error")
		} else {
			i.observe("success")
		}
	}
	return out, err
}

var (
	_ LLMClient = (*RateLimited)(nil)
	_ LLMClient = (*Instrumented)(nil)
	_ LLMClient = (*GeminiClient)(nil)
	_ LLMClient = (*OpenAIClient)(nil)
	_ LLMClient = (*OllamaClient)(nil)
)
