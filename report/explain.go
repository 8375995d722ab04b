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

package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/churn-io/churn/base"
	"github.com/churn-io/churn/common/parallel"
	"github.com/churn-io/churn/model/churn"
	"github.com/churn-io/churn/recipe"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

// Importance is the mean AUC drop caused by permuting one feature.
type Importance struct {
	Feature string
	Drop    float32
}

// PermutationImportance shuffles each feature column and measures how much
// the AUC suffers. Features the model never relies on drop nothing. Features
// are scored by jobs concurrent workers; each feature derives its own seed,
// so the result is independent of the job count.
func PermutationImportance(estimator churn.Classifier, matrix *recipe.Matrix, labels []int,
	repeats, jobs int, seed int64) ([]Importance, error) {
	if repeats < 1 {
		return nil, errors.NotValidf("%d repeats", repeats)
	}
	if matrix.NumRows() != len(labels) {
		return nil, errors.NotValidf("design matrix with %d rows and %d labels", matrix.NumRows(), len(labels))
	}
	if jobs < 1 {
		jobs = 1
	}
	baseline := churn.EvaluateClassification(estimator, matrix, labels).AUC
	importances := make([]Importance, matrix.NumFeatures())
	chunks := parallel.Split(lo.Range(matrix.NumFeatures()), jobs)
	parallel.ForEach(chunks, jobs, func(_ int, features []int) {
		// each worker shuffles inside its own scratch copy
		shuffled := &recipe.Matrix{Names: matrix.Names, Rows: make([][]float32, matrix.NumRows())}
		for i, row := range matrix.Rows {
			shuffled.Rows[i] = append([]float32(nil), row...)
		}
		for _, feature := range features {
			rng := base.NewRandomGenerator(seed + int64(feature))
			var drop float32
			for repeat := 0; repeat < repeats; repeat++ {
				perm := rng.Perm(matrix.NumRows())
				for i, j := range perm {
					shuffled.Rows[i][feature] = matrix.Rows[j][feature]
				}
				score := churn.EvaluateClassification(estimator, shuffled, labels)
				drop += baseline - score.AUC
			}
			// restore the column
			for i, row := range matrix.Rows {
				shuffled.Rows[i][feature] = row[feature]
			}
			importances[feature] = Importance{
				Feature: matrix.Names[feature],
				Drop:    drop / float32(repeats),
			}
		}
	})
	sort.SliceStable(importances, func(i, j int) bool {
		return importances[i].Drop > importances[j].Drop
	})
	return importances, nil
}

// PartialDependence is the marginal effect of one feature on the predicted
// churn probability.
type PartialDependence struct {
	Feature string
	Values  []float32
	Mean    []float32
}

// ComputePartialDependence sweeps a feature over an evenly spaced grid of its
// observed range and averages predictions with every other feature held at
// its observed values.
func ComputePartialDependence(estimator churn.Classifier, matrix *recipe.Matrix,
	feature string, gridSize int) (*PartialDependence, error) {
	if gridSize < 2 {
		return nil, errors.NotValidf("grid of size %d", gridSize)
	}
	index, err := matrix.ColumnIndex(feature)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if matrix.NumRows() == 0 {
		return nil, errors.NotValidf("empty design matrix")
	}
	low, high := matrix.Rows[0][index], matrix.Rows[0][index]
	for _, row := range matrix.Rows {
		if row[index] < low {
			low = row[index]
		}
		if row[index] > high {
			high = row[index]
		}
	}
	pd := &PartialDependence{Feature: feature}
	modified := &recipe.Matrix{Names: matrix.Names, Rows: make([][]float32, matrix.NumRows())}
	for i, row := range matrix.Rows {
		modified.Rows[i] = append([]float32(nil), row...)
	}
	for step := 0; step < gridSize; step++ {
		value := low + (high-low)*float32(step)/float32(gridSize-1)
		for i := range modified.Rows {
			modified.Rows[i][index] = value
		}
		var sum float32
		for _, p := range estimator.BatchPredict(modified) {
			sum += p
		}
		pd.Values = append(pd.Values, value)
		pd.Mean = append(pd.Mean, sum/float32(matrix.NumRows()))
	}
	return pd, nil
}

// WriteImportances renders permutation importances as a text table.
func WriteImportances(w io.Writer, importances []Importance) error {
	table := tablewriter.NewTable(w)
	table.Header([]string{"Feature", "AUC drop"})
	for _, importance := range importances {
		if err := table.Append([]string{
			importance.Feature,
			fmt.Sprintf("%.4f", importance.Drop),
		}); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(table.Render())
}

// WritePartialDependence renders one partial dependence curve as a text
// table.
func WritePartialDependence(w io.Writer, pd *PartialDependence) error {
	if _, err := fmt.Fprintf(w, "%s\n", pd.Feature); err != nil {
		return errors.Trace(err)
	}
	table := tablewriter.NewTable(w)
	table.Header([]string{"Value", "Mean prediction"})
	for i := range pd.Values {
		if err := table.Append([]string{
			fmt.Sprintf("%.3f", pd.Values[i]),
			fmt.Sprintf("%.4f", pd.Mean[i]),
		}); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(table.Render())
}
