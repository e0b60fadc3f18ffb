// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package analytics

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ridge keeps the normal equations solvable when columns are collinear or
// there are fewer rows than coefficients.
const ridge = 1e-6

// LinearModel is an ordinary least squares fit with an intercept.
type LinearModel struct {
	Intercept float64
	Coef      []float64
}

// FitLinear solves (XᵀX + λI)β = Xᵀy with a leading intercept column.
func FitLinear(x [][]float64, y []float64) (LinearModel, error) {
	n := len(x)
	if n == 0 {
		return LinearModel{}, errors.New("no rows to fit")
	}
	if len(y) != n {
		return LinearModel{}, fmt.Errorf("%d rows but %d targets", n, len(y))
	}
	p := len(x[0]) + 1

	design := mat.NewDense(n, p, nil)
	for i, row := range x {
		design.Set(i, 0, 1)
		for j, v := range row {
			design.Set(i, j+1, v)
		}
	}
	target := mat.NewVecDense(n, y)

	var xtx mat.Dense
	xtx.Mul(design.T(), design)
	for j := range p {
		xtx.Set(j, j, xtx.At(j, j)+ridge)
	}
	var xty mat.VecDense
	xty.MulVec(design.T(), target)

	var beta mat.VecDense
	if err := beta.SolveVec(&xtx, &xty); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return LinearModel{}, fmt.Errorf("solve normal equations: %w", err)
		}
		// Ill-conditioned but solved; the estimate is still usable.
	}

	m := LinearModel{Intercept: beta.AtVec(0), Coef: make([]float64, p-1)}
	for j := range m.Coef {
		m.Coef[j] = beta.AtVec(j + 1)
	}
	return m, nil
}

// Predict returns the model output for one row.
func (m LinearModel) Predict(row []float64) float64 {
	v := m.Intercept
	for j, c := range m.Coef {
		v += c * row[j]
	}
	return v
}
