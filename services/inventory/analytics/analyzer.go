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
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/AleutianInventory/services/inventory/assistant"
	"github.com/AleutianAI/AleutianInventory/services/inventory/datatypes"
	"github.com/AleutianAI/AleutianInventory/services/inventory/observability"
	"github.com/AleutianAI/AleutianInventory/services/inventory/storage"
)

var tracer = otel.Tracer("aleutian.inventory.analytics")

// Options tune an Analyzer. Zero values take the defaults.
type Options struct {
	// WindowDays is the trailing transaction window. Default 90.
	WindowDays int
	// Concurrency bounds parallel summary generation. Default 4.
	Concurrency int
	// Seed is the k-means RNG seed. Default 42.
	Seed uint64
}

// Run is one analytics run.
type Run struct {
	ID      string               `json:"run_id"`
	RunDate time.Time            `json:"run_date"`
	Results []datatypes.MLResult `json:"results"`
}

// Analyzer computes and stores analytics runs.
//
// # Thread Safety
//
// Safe for concurrent use. Concurrent runs produce separate run ids.
type Analyzer struct {
	store     *storage.Store
	assistant *assistant.Assistant
	metrics   *observability.Metrics
	opts      Options
	now       func() time.Time
}

// NewAnalyzer returns an Analyzer. asst and metrics may be nil.
func NewAnalyzer(store *storage.Store, asst *assistant.Assistant, metrics *observability.Metrics, opts Options) *Analyzer {
	if opts.WindowDays <= 0 {
		opts.WindowDays = 90
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.Seed == 0 {
		opts.Seed = DefaultSeed
	}
	return &Analyzer{store: store, assistant: asst, metrics: metrics, opts: opts, now: time.Now}
}

// Run scores every product and persists the rows under a new run id.
//
// # Description
//
// Features come from transactions in the trailing window. Products are
// clustered on current stock, stock out, stock in, total moved and average
// sale price; the popularity index ranks clusters by mean stock out. A
// linear model over current stock, reorder level, reorder quantity, stock
// in and stock out predicts days until reorder, clipped at zero. Each
// product then gets an assistant summary.
//
// # Outputs
//
//   - Run: the stored rows ordered by product name. An empty product table
//     yields a run with no results and nothing is stored.
//   - error: storage failures or context cancellation.
func (a *Analyzer) Run(ctx context.Context) (Run, error) {
	ctx, span := tracer.Start(ctx, "analytics.Run")
	defer span.End()

	start := a.now()
	run, err := a.run(ctx, start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		a.metrics.RecordAnalyticsRun(false, 0, 0)
		slog.Error("analytics run failed", "error", err)
		return Run{}, err
	}
	elapsed := a.now().Sub(start)
	span.SetAttributes(attribute.String("run_id", run.ID), attribute.Int("products", len(run.Results)))
	a.metrics.RecordAnalyticsRun(true, elapsed, len(run.Results))
	slog.Info("analytics run complete", "run_id", run.ID, "products", len(run.Results), "elapsed", elapsed)
	return run, nil
}

func (a *Analyzer) run(ctx context.Context, start time.Time) (Run, error) {
	run := Run{ID: uuid.NewString(), RunDate: start.UTC()}
	q := a.store.Queries()

	products, err := q.AllProducts(ctx)
	if err != nil {
		return run, fmt.Errorf("load products: %w", err)
	}
	if len(products) == 0 {
		return run, nil
	}
	since := start.AddDate(0, 0, -a.opts.WindowDays)
	txns, err := q.TransactionsBetween(ctx, since, start)
	if err != nil {
		return run, fmt.Errorf("load transactions: %w", err)
	}

	features := BuildFeatures(products, txns, a.opts.WindowDays)
	points := make([][]float64, len(features))
	xs := make([][]float64, len(features))
	ys := make([]float64, len(features))
	stockOut := make([]float64, len(features))
	for i, f := range features {
		points[i] = f.clusterVector()
		xs[i] = f.regressionVector()
		ys[i] = f.DaysUntilReorder
		stockOut[i] = float64(f.StockOut)
	}

	clusters := KMeans(points, a.opts.Seed)
	popularity, clusterCount := PopularityIndex(clusters.Labels, stockOut)

	predicted := make([]float64, len(features))
	model, err := FitLinear(xs, ys)
	if err != nil {
		slog.Warn("reorder model fit failed, using direct estimate", "error", err)
		copy(predicted, ys)
	} else {
		for i, x := range xs {
			predicted[i] = max(0, model.Predict(x))
		}
	}

	run.Results = make([]datatypes.MLResult, len(features))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Concurrency)
	for i, f := range features {
		p := f.Product
		run.Results[i] = datatypes.MLResult{
			RunID:                     run.ID,
			RunDate:                   run.RunDate,
			ProductID:                 p.ID,
			ProductName:               p.Name,
			CategoryName:              p.CategoryName,
			SupplierName:              p.SupplierName,
			PopularityIndex:           popularity[i],
			PredictedDaysUntilReorder: predicted[i],
		}
		facts := assistant.ProductFacts{
			ProductID:                 p.ID,
			ProductName:               p.Name,
			CategoryName:              p.CategoryName,
			SupplierName:              p.SupplierName,
			PopularityIndex:           popularity[i],
			Clusters:                  clusterCount,
			CurrentStock:              f.CurrentStock,
			ReorderLevel:              p.ReorderLevel,
			StockIn:                   f.StockIn,
			StockOut:                  f.StockOut,
			PredictedDaysUntilReorder: predicted[i],
			WindowDays:                a.opts.WindowDays,
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			run.Results[i].AISummary = a.assistant.ProductSummary(gctx, facts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return run, fmt.Errorf("summaries: %w", err)
	}

	if err := a.store.InTx(ctx, func(q *storage.Queries) error {
		return q.InsertMLResults(ctx, run.Results)
	}); err != nil {
		return run, fmt.Errorf("store results: %w", err)
	}
	return run, nil
}

// Latest returns the rows of the most recent stored run.
func (a *Analyzer) Latest(ctx context.Context) ([]datatypes.MLResult, error) {
	return a.store.Queries().LatestMLResults(ctx)
}

// LatestOrRun returns the latest stored rows, running the analysis first
// when none exist.
func (a *Analyzer) LatestOrRun(ctx context.Context) ([]datatypes.MLResult, error) {
	latest, err := a.Latest(ctx)
	if err != nil {
		return nil, err
	}
	if len(latest) > 0 {
		return latest, nil
	}
	run, err := a.Run(ctx)
	if err != nil {
		return nil, err
	}
	return run.Results, nil
}
