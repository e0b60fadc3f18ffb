// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package storage

import (
	"context"

	"github.com/AleutianAI/AleutianInventory/services/inventory/datatypes"
)

// InsertMLResults stores one analytics run. Call it inside InTx so a run
// is visible all at once.
func (q *Queries) InsertMLResults(ctx context.Context, rows []datatypes.MLResult) error {
	for i := range rows {
		r := &rows[i]
		id, err := q.insert(ctx, `INSERT INTO ml_results (run_id, run_date, product_id, product_name, category_name,
			supplier_name, popularity_index, predicted_days_until_reorder, ai_summary)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.RunID, r.RunDate.UTC(), r.ProductID, r.ProductName, r.CategoryName, r.SupplierName,
			r.PopularityIndex, r.PredictedDaysUntilReorder, r.AISummary)
		if err != nil {
			return err
		}
		r.ID = id
	}
	return nil
}

// LatestMLResults returns the rows of the most recent run ordered by
// product name. No runs yields an empty slice and no error.
func (q *Queries) LatestMLResults(ctx context.Context) ([]datatypes.MLResult, error) {
	var out []datatypes.MLResult
	err := q.selectAll(ctx, &out, `
		SELECT id, run_id, run_date, product_id, product_name, category_name, supplier_name,
		       popularity_index, predicted_days_until_reorder, ai_summary
		FROM ml_results
		WHERE run_date = (SELECT MAX(run_date) FROM ml_results)
		ORDER BY product_name, id`)
	return out, err
}
