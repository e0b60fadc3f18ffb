// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package assistant

import (
	"math"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/AleutianAI/AleutianInventory/services/inventory/datatypes"
)

// Confidence levels of a restock prediction.
const (
	ConfidenceLow    = "low"
	ConfidenceMedium = "medium"
	ConfidenceHigh   = "high"
)

// RestockPrediction estimates when a product runs out.
type RestockPrediction struct {
	DaysUntilRestock *int       `json:"days_until_restock"`
	PredictedDate    *time.Time `json:"predicted_date"`
	Confidence       string     `json:"confidence"`
	SalesVelocity    float64    `json:"sales_velocity"`
}

// PredictRestockTiming projects stock-out from the sales velocity.
//
// # Description
//
// Only sale transactions count. Velocity is total units sold divided by
// the number of calendar days spanned by the sales (first to last,
// inclusive). Days until restock is stock / velocity, truncated.
//
// Confidence needs at least five sales and is derived from the
// coefficient of variation of sale quantities (population standard
// deviation over the mean, the mean floored at 1): below 0.2 is high,
// below 0.5 medium, otherwise low.
//
// # Examples
//
//	pred := PredictRestockTiming(product, txns, time.Now())
//	if pred.DaysUntilRestock != nil && *pred.DaysUntilRestock < 7 { ... }
func PredictRestockTiming(p datatypes.Product, txns []datatypes.Transaction, now time.Time) RestockPrediction {
	out := RestockPrediction{Confidence: ConfidenceLow}

	var (
		quantities []float64
		first      time.Time
		last       time.Time
		total      int
	)
	for _, t := range txns {
		if !strings.EqualFold(t.Type, datatypes.TxSale) {
			continue
		}
		if len(quantities) == 0 || t.TransactionDate.Before(first) {
			first = t.TransactionDate
		}
		if len(quantities) == 0 || t.TransactionDate.After(last) {
			last = t.TransactionDate
		}
		quantities = append(quantities, float64(t.Quantity))
		total += t.Quantity
	}
	if len(quantities) == 0 {
		return out
	}

	span := int(last.Sub(first).Hours()/24) + 1
	out.SalesVelocity = float64(total) / float64(max(span, 1))
	if out.SalesVelocity <= 0 {
		return out
	}

	days := int(float64(p.QuantityInStock) / out.SalesVelocity)
	date := now.AddDate(0, 0, days)
	out.DaysUntilRestock = &days
	out.PredictedDate = &date

	if len(quantities) >= 5 {
		mean, std := stat.PopMeanStdDev(quantities, nil)
		cv := std / math.Max(mean, 1)
		switch {
		case cv < 0.2:
			out.Confidence = ConfidenceHigh
		case cv < 0.5:
			out.Confidence = ConfidenceMedium
		}
	}
	return out
}
