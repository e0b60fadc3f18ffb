// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// =============================================================================
// Scan Scheduler
// =============================================================================

// Scanner is the work the scheduler repeats. *Notifier implements it.
type Scanner interface {
	Scan(ctx context.Context) (ScanResult, error)
}

// Scheduler runs a Scanner at a fixed interval.
//
// # Description
//
// Uses the ticker + done channel pattern. The first scan runs as soon as
// Start is called; later scans follow every Interval.
//
// # Thread Safety
//
// All public methods are thread-safe.
type Scheduler struct {
	scanner  Scanner
	interval time.Duration
	done     chan struct{}
	stopped  chan struct{}
	mu       sync.Mutex
	running  bool
}

// NewScheduler creates a Scheduler. A non-positive interval defaults to
// 15 minutes.
func NewScheduler(scanner Scanner, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &Scheduler{scanner: scanner, interval: interval}
}

// Start launches the background loop. The loop ends when ctx is canceled
// or Stop is called; either way the scheduler can be started again.
//
// # Outputs
//
//   - error: Non-nil if the scheduler is already running.
//
// # Examples
//
//	sched := notify.NewScheduler(notifier, cfg.NotifyInterval)
//	if err := sched.Start(ctx); err != nil {
//	    return err
//	}
//	defer sched.Stop()
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("scheduler is already running")
	}
	s.running = true
	s.done = make(chan struct{})
	s.stopped = make(chan struct{})

	slog.Info("notification scheduler starting", "interval", s.interval.String())
	go s.runLoop(ctx, s.done, s.stopped)
	return nil
}

// Stop signals the loop and waits for the scan in progress to finish.
// Safe to call multiple times.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	slog.Info("notification scheduler stopping")
	close(s.done)
	s.running = false
	stopped := s.stopped
	s.mu.Unlock()
	<-stopped
}

// RunNow performs one scan immediately.
func (s *Scheduler) RunNow(ctx context.Context) (ScanResult, error) {
	return s.scanner.Scan(ctx)
}

func (s *Scheduler) runLoop(ctx context.Context, done <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)
	defer func() {
		// A canceled context ends the run too; allow Start again.
		s.mu.Lock()
		if s.stopped == stopped {
			s.running = false
		}
		s.mu.Unlock()
	}()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.execute(ctx)
	for {
		select {
		case <-ctx.Done():
			slog.Info("notification scheduler stopped (context cancelled)")
			return
		case <-done:
			slog.Info("notification scheduler stopped (stop requested)")
			return
		case <-ticker.C:
			s.execute(ctx)
		}
	}
}

func (s *Scheduler) execute(ctx context.Context) {
	start := time.Now()
	res, err := s.scanner.Scan(ctx)
	if err != nil {
		slog.Error("notification scan failed", "error", err)
	}
	if res.Total() > 0 {
		slog.Info("notification scan completed",
			"low_stock", res.LowStock,
			"irregular_activity", res.Irregular,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	} else {
		slog.Debug("notification scan completed (nothing new)")
	}
}
