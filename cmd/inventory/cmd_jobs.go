// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianInventory/pkg/ux"
	"github.com/AleutianAI/AleutianInventory/services/inventory"
	"github.com/AleutianAI/AleutianInventory/services/inventory/datatypes"
)

var errMailNotConfigured = errors.New("outgoing mail is not configured; set MAIL_SERVER and MAIL_DEFAULT_SENDER")

func runAnalytics(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, true, func(ctx context.Context, app *inventory.App) error {
		if err := app.Store.Migrate(); err != nil {
			return err
		}
		run, err := app.Analyzer.Run(ctx)
		if err != nil {
			return err
		}
		p := printer(cmd)
		p.Success(fmt.Sprintf("analytics run %s scored %d products", run.ID, len(run.Results)))
		renderResults(p, run.Results)
		return nil
	})
}

func showAnalytics(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, true, func(ctx context.Context, app *inventory.App) error {
		results, err := app.Analyzer.Latest(ctx)
		if err != nil {
			return err
		}
		p := printer(cmd)
		if len(results) == 0 {
			p.Info("no analytics results yet; run `inventory analytics run`")
			return nil
		}
		p.Title("Analytics " + results[0].RunDate.Format("2006-01-02 15:04"))
		renderResults(p, results)
		return nil
	})
}

func emailAnalytics(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, true, func(ctx context.Context, app *inventory.App) error {
		if !app.Config.MailConfigured() {
			return errMailNotConfigured
		}
		results, err := app.Analyzer.LatestOrRun(ctx)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			printer(cmd).Warning("no products to report on")
			return nil
		}
		n, err := app.Reporter.Send(ctx, results, results[0].RunDate)
		if err != nil {
			return err
		}
		printer(cmd).Success(fmt.Sprintf("analytics report sent to %d recipients", n))
		return nil
	})
}

func runNotifyScan(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, true, func(ctx context.Context, app *inventory.App) error {
		res, err := app.Notifier.Scan(ctx)
		p := printer(cmd)
		p.Summary("low_stock", res.LowStock, "irregular_activity", res.Irregular)
		return err
	})
}

func renderResults(p *ux.Printer, results []datatypes.MLResult) {
	rows := make([][]string, len(results))
	for i, r := range results {
		rows[i] = []string{
			r.ProductName,
			r.CategoryName,
			strconv.Itoa(r.PopularityIndex),
			fmt.Sprintf("%.1f", r.PredictedDaysUntilReorder),
		}
	}
	p.Table([]string{"Product", "Category", "Popularity", "Days to reorder"}, rows,
		func(row int) bool { return results[row].PredictedDaysUntilReorder < 7 })
}
