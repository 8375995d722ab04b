// Copyright 2026 churn Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package recipe implements declarative two-phase preprocessing. A Recipe
// declares the steps before any data is touched; Fit estimates the step
// parameters on the training partition only; Apply replays them on any
// partition without ever re-estimating. Keeping fit and apply separate is the
// leakage barrier the cross-validated search relies on.
package recipe

import (
	"math"

	"github.com/churn-io/churn/dataset"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
	"gonum.org/v1/gonum/stat"
)

// Recipe declares preprocessing steps over named columns.
type Recipe struct {
	Outcome  string
	Positive string
	// step declarations, in application order
	nominal []string
	power   []string
	scale   []string
}

// New creates a recipe for the given outcome column and its positive level.
func New(outcome, positive string) *Recipe {
	return &Recipe{Outcome: outcome, Positive: positive}
}

// OneHot declares indicator encoding for nominal predictor columns. The
// first observed level of each column is the reference level and is dropped.
func (r *Recipe) OneHot(columns ...string) *Recipe {
	r.nominal = append(r.nominal, columns...)
	return r
}

// YeoJohnson declares a power transform for numeric predictor columns, with
// the per-column exponent estimated at fit time.
func (r *Recipe) YeoJohnson(columns ...string) *Recipe {
	r.power = append(r.power, columns...)
	return r
}

// Normalize declares centering and scaling to zero mean and unit variance
// for numeric predictor columns, with statistics computed at fit time.
// Indicator columns produced by OneHot are never normalized.
func (r *Recipe) Normalize(columns ...string) *Recipe {
	r.scale = append(r.scale, columns...)
	return r
}

// DummyStep holds the levels of one indicator-encoded column observed at fit
// time. Levels[0] is the reference level and produces no indicator.
type DummyStep struct {
	Column string
	Levels []string
}

// PowerStep holds the Yeo-Johnson exponent of one numeric column.
type PowerStep struct {
	Column string
	Lambda float64
}

// ScaleStep holds the centering and scaling statistics of one numeric
// column, computed after the power transform.
type ScaleStep struct {
	Column string
	Mean   float64
	Std    float64
}

// FittedRecipe holds the frozen parameters of a fit recipe. Apply never
// mutates them.
type FittedRecipe struct {
	Outcome  string
	Positive string
	Dummies  []DummyStep
	Powers   []PowerStep
	Scales   []ScaleStep
	Names    []string
}

// Fit estimates all step parameters from the training partition.
func (r *Recipe) Fit(train *dataset.Table) (*FittedRecipe, error) {
	if train.NumRows() == 0 {
		return nil, errors.NotValidf("empty training partition")
	}
	fitted := &FittedRecipe{Outcome: r.Outcome, Positive: r.Positive}
	for _, name := range r.nominal {
		column, err := train.Column(name)
		if err != nil {
			return nil, errors.Trace(err)
		}
		if column.Kind != dataset.String {
			return nil, errors.NotValidf("column %s is not categorical", name)
		}
		levels, err := train.Levels(name)
		if err != nil {
			return nil, errors.Trace(err)
		}
		fitted.Dummies = append(fitted.Dummies, DummyStep{Column: name, Levels: levels})
		for _, level := range levels[1:] {
			fitted.Names = append(fitted.Names, name+"="+level)
		}
	}
	powers := make(map[string]float64)
	for _, name := range r.power {
		values, err := numericValues(train, name)
		if err != nil {
			return nil, errors.Trace(err)
		}
		lambda := estimateLambda(values)
		powers[name] = lambda
		fitted.Powers = append(fitted.Powers, PowerStep{Column: name, Lambda: lambda})
	}
	for _, name := range r.scale {
		values, err := numericValues(train, name)
		if err != nil {
			return nil, errors.Trace(err)
		}
		if lambda, exist := powers[name]; exist {
			for i, v := range values {
				values[i] = yeoJohnson(v, lambda)
			}
		}
		mean, std := stat.MeanStdDev(values, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		fitted.Scales = append(fitted.Scales, ScaleStep{Column: name, Mean: mean, Std: std})
		fitted.Names = append(fitted.Names, name)
	}
	return fitted, nil
}

// Matrix is an encoded design matrix. Rows are feature vectors aligned with
// Names.
type Matrix struct {
	Names []string
	Rows  [][]float32
}

// NumRows returns the number of rows.
func (m *Matrix) NumRows() int {
	return len(m.Rows)
}

// NumFeatures returns the number of feature columns.
func (m *Matrix) NumFeatures() int {
	return len(m.Names)
}

// ColumnIndex returns the position of a feature column.
func (m *Matrix) ColumnIndex(name string) (int, error) {
	for i, n := range m.Names {
		if n == name {
			return i, nil
		}
	}
	return 0, errors.NotFoundf("feature %s", name)
}

// Apply replays the fit-time transforms on any partition. A category level
// absent at fit time is rejected rather than silently bucketed.
func (f *FittedRecipe) Apply(t *dataset.Table) (*Matrix, error) {
	n := t.NumRows()
	matrix := &Matrix{Names: f.Names, Rows: make([][]float32, n)}
	for i := range matrix.Rows {
		matrix.Rows[i] = make([]float32, 0, len(f.Names))
	}
	// indicator columns first, so numeric transforms never touch them
	for _, step := range f.Dummies {
		column, err := t.Column(step.Column)
		if err != nil {
			return nil, errors.Trace(err)
		}
		observed := mapset.NewSet(step.Levels...)
		for i := 0; i < n; i++ {
			value := column.Strings[i]
			if !observed.Contains(value) {
				return nil, errors.NotValidf("column %s: level %q unseen at fit time", step.Column, value)
			}
			for _, level := range step.Levels[1:] {
				if value == level {
					matrix.Rows[i] = append(matrix.Rows[i], 1)
				} else {
					matrix.Rows[i] = append(matrix.Rows[i], 0)
				}
			}
		}
	}
	powers := make(map[string]float64, len(f.Powers))
	for _, step := range f.Powers {
		powers[step.Column] = step.Lambda
	}
	for _, step := range f.Scales {
		column, err := t.Column(step.Column)
		if err != nil {
			return nil, errors.Trace(err)
		}
		if column.Kind != dataset.Numeric {
			return nil, errors.NotValidf("column %s is not numeric", step.Column)
		}
		for i := 0; i < n; i++ {
			v := float64(column.Floats[i])
			if lambda, exist := powers[step.Column]; exist {
				v = yeoJohnson(v, lambda)
			}
			matrix.Rows[i] = append(matrix.Rows[i], float32((v-step.Mean)/step.Std))
		}
	}
	return matrix, nil
}

// Labels extracts the outcome column as 0/1 integers, 1 for the positive
// level.
func (f *FittedRecipe) Labels(t *dataset.Table) ([]int, error) {
	column, err := t.Column(f.Outcome)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if column.Kind != dataset.String {
		return nil, errors.NotValidf("outcome column %s is not categorical", f.Outcome)
	}
	labels := make([]int, t.NumRows())
	for i, v := range column.Strings {
		if v == f.Positive {
			labels[i] = 1
		}
	}
	return labels, nil
}

// NumericFeatures returns the encoded feature names holding continuous
// values, i.e. the centered and scaled columns. Indicator features produced
// by OneHot are excluded.
func (f *FittedRecipe) NumericFeatures() []string {
	names := make([]string, 0, len(f.Scales))
	for _, step := range f.Scales {
		names = append(names, step.Column)
	}
	return names
}

// DecodeLevel recovers the category of an indicator-encoded column from its
// indicator values. An all-zero vector decodes to the reference level.
func (f *FittedRecipe) DecodeLevel(column string, indicators []float32) (string, error) {
	for _, step := range f.Dummies {
		if step.Column != column {
			continue
		}
		if len(indicators) != len(step.Levels)-1 {
			return "", errors.NotValidf("column %s expects %d indicators", column, len(step.Levels)-1)
		}
		for i, v := range indicators {
			if v == 1 {
				return step.Levels[i+1], nil
			}
		}
		return step.Levels[0], nil
	}
	return "", errors.NotFoundf("indicator column %s", column)
}

func numericValues(t *dataset.Table, name string) ([]float64, error) {
	column, err := t.Column(name)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if column.Kind != dataset.Numeric {
		return nil, errors.NotValidf("column %s is not numeric", name)
	}
	values := make([]float64, len(column.Floats))
	for i, v := range column.Floats {
		values[i] = float64(v)
	}
	return values, nil
}

// yeoJohnson applies the Yeo-Johnson transform with exponent lambda.
func yeoJohnson(x, lambda float64) float64 {
	switch {
	case x >= 0 && lambda != 0:
		return (math.Pow(x+1, lambda) - 1) / lambda
	case x >= 0:
		return math.Log1p(x)
	case lambda != 2:
		return -(math.Pow(-x+1, 2-lambda) - 1) / (2 - lambda)
	default:
		return -math.Log1p(-x)
	}
}

// estimateLambda maximizes the Yeo-Johnson profile log-likelihood over a
// fixed grid of exponents. A constant column keeps the identity exponent.
func estimateLambda(values []float64) float64 {
	if len(values) < 2 || stat.Variance(values, nil) == 0 {
		return 1
	}
	// constant part of the Jacobian term
	logTerm := 0.0
	for _, x := range values {
		if x >= 0 {
			logTerm += math.Log1p(x)
		} else {
			logTerm -= math.Log1p(-x)
		}
	}
	grid := make([]float64, 0, 41)
	for lambda := -2.0; lambda <= 2.0+1e-9; lambda += 0.1 {
		grid = append(grid, lambda)
	}
	transformed := make([]float64, len(values))
	bestLambda, bestLL := 1.0, math.Inf(-1)
	for _, lambda := range grid {
		for i, x := range values {
			transformed[i] = yeoJohnson(x, lambda)
		}
		variance := stat.Variance(transformed, nil)
		if variance <= 0 || math.IsNaN(variance) || math.IsInf(variance, 0) {
			continue
		}
		ll := -float64(len(values))/2*math.Log(variance) + (lambda-1)*logTerm
		if ll > bestLL {
			bestLL = ll
			bestLambda = lambda
		}
	}
	// snap tiny grid drift so the identity and log cases are exact
	return math.Round(bestLambda*10) / 10
}
