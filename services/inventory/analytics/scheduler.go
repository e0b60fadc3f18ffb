// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package analytics

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Job is the scheduled work.
type Job func(ctx context.Context) error

// Scheduler runs a Job on a cron expression. Overlapping runs are skipped
// and panics are recovered.
type Scheduler struct {
	cron  *cron.Cron
	entry cron.EntryID
	spec  string
}

// NewScheduler parses spec (five-field cron or a descriptor such as
// "@daily") and registers job. ctx is passed to every invocation.
func NewScheduler(ctx context.Context, spec string, job Job) (*Scheduler, error) {
	logger := cron.PrintfLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelDebug))
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	id, err := c.AddFunc(spec, func() {
		if err := job(ctx); err != nil {
			slog.Error("scheduled analytics run failed", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid analytics schedule %q: %w", spec, err)
	}
	return &Scheduler{cron: c, entry: id, spec: spec}, nil
}

// Start begins scheduling in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("analytics scheduler started", "schedule", s.spec, "next", s.cron.Entry(s.entry).Next)
}

// Stop halts scheduling and returns a context done when the running job,
// if any, has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
