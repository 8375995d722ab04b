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

// Package report renders exploratory statistics and model explanations as
// text tables.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/churn-io/churn/dataset"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"gonum.org/v1/gonum/stat"
)

// NumericSummary is a five-number summary plus the mean.
type NumericSummary struct {
	Name   string
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
	Mean   float64
}

// LevelCount counts one level of a categorical column per outcome level.
type LevelCount struct {
	Level  string
	Counts map[string]int
}

// CategoricalSummary is the level distribution of one categorical column
// broken down by the outcome.
type CategoricalSummary struct {
	Name   string
	Levels []LevelCount
}

// Report is the exploratory description of a table.
type Report struct {
	Rows             int
	Outcome          string
	OutcomeLevels    []string
	Numeric          []NumericSummary
	Categorical      []CategoricalSummary
	CorrelationNames []string
	Correlation      [][]float64
}

// Describe computes summaries of every column against the outcome.
func Describe(t *dataset.Table, outcome string) (*Report, error) {
	if t.NumRows() == 0 {
		return nil, errors.NotValidf("empty table")
	}
	outcomeColumn, err := t.Column(outcome)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if outcomeColumn.Kind != dataset.String {
		return nil, errors.NotValidf("outcome column %s is not categorical", outcome)
	}
	outcomeLevels, err := t.Levels(outcome)
	if err != nil {
		return nil, errors.Trace(err)
	}
	report := &Report{
		Rows:          t.NumRows(),
		Outcome:       outcome,
		OutcomeLevels: outcomeLevels,
	}
	for _, name := range t.NumericColumns() {
		column, err := t.Column(name)
		if err != nil {
			return nil, errors.Trace(err)
		}
		values := make([]float64, 0, len(column.Floats))
		for _, v := range column.Floats {
			values = append(values, float64(v))
		}
		sort.Float64s(values)
		report.Numeric = append(report.Numeric, NumericSummary{
			Name:   name,
			Min:    values[0],
			Q1:     stat.Quantile(0.25, stat.Empirical, values, nil),
			Median: stat.Quantile(0.5, stat.Empirical, values, nil),
			Q3:     stat.Quantile(0.75, stat.Empirical, values, nil),
			Max:    values[len(values)-1],
			Mean:   stat.Mean(values, nil),
		})
	}
	for _, name := range t.CategoricalColumns() {
		if name == outcome {
			continue
		}
		column, err := t.Column(name)
		if err != nil {
			return nil, errors.Trace(err)
		}
		levels, err := t.Levels(name)
		if err != nil {
			return nil, errors.Trace(err)
		}
		summary := CategoricalSummary{Name: name}
		counts := make(map[string]map[string]int)
		for _, level := range levels {
			counts[level] = make(map[string]int)
		}
		for i, value := range column.Strings {
			counts[value][outcomeColumn.Strings[i]]++
		}
		for _, level := range levels {
			summary.Levels = append(summary.Levels, LevelCount{Level: level, Counts: counts[level]})
		}
		report.Categorical = append(report.Categorical, summary)
	}
	report.CorrelationNames, report.Correlation, err = CorrelationMatrix(t)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return report, nil
}

// CorrelationMatrix computes pairwise Pearson correlations of the numeric
// columns.
func CorrelationMatrix(t *dataset.Table) ([]string, [][]float64, error) {
	names := t.NumericColumns()
	columns := make([][]float64, len(names))
	for i, name := range names {
		column, err := t.Column(name)
		if err != nil {
			return nil, nil, errors.Trace(err)
		}
		columns[i] = make([]float64, len(column.Floats))
		for j, v := range column.Floats {
			columns[i][j] = float64(v)
		}
	}
	matrix := make([][]float64, len(names))
	for i := range matrix {
		matrix[i] = make([]float64, len(names))
		for j := range matrix[i] {
			if i == j {
				matrix[i][j] = 1
			} else {
				matrix[i][j] = stat.Correlation(columns[i], columns[j], nil)
			}
		}
	}
	return names, matrix, nil
}

// Write renders the report as text tables.
func (r *Report) Write(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%d rows, outcome %s\n\n", r.Rows, r.Outcome); err != nil {
		return errors.Trace(err)
	}
	if len(r.Numeric) > 0 {
		table := tablewriter.NewTable(w)
		table.Header([]string{"Column", "Min", "Q1", "Median", "Q3", "Max", "Mean"})
		for _, s := range r.Numeric {
			if err := table.Append([]string{
				s.Name,
				fmt.Sprintf("%.2f", s.Min),
				fmt.Sprintf("%.2f", s.Q1),
				fmt.Sprintf("%.2f", s.Median),
				fmt.Sprintf("%.2f", s.Q3),
				fmt.Sprintf("%.2f", s.Max),
				fmt.Sprintf("%.2f", s.Mean),
			}); err != nil {
				return errors.Trace(err)
			}
		}
		if err := table.Render(); err != nil {
			return errors.Trace(err)
		}
	}
	for _, summary := range r.Categorical {
		if _, err := fmt.Fprintf(w, "\n%s\n", summary.Name); err != nil {
			return errors.Trace(err)
		}
		table := tablewriter.NewTable(w)
		header := append([]string{"Level"}, r.OutcomeLevels...)
		table.Header(header)
		for _, level := range summary.Levels {
			row := []string{level.Level}
			for _, outcomeLevel := range r.OutcomeLevels {
				row = append(row, fmt.Sprintf("%d", level.Counts[outcomeLevel]))
			}
			if err := table.Append(row); err != nil {
				return errors.Trace(err)
			}
		}
		if err := table.Render(); err != nil {
			return errors.Trace(err)
		}
	}
	if len(r.CorrelationNames) > 1 {
		if _, err := fmt.Fprintf(w, "\ncorrelation\n"); err != nil {
			return errors.Trace(err)
		}
		table := tablewriter.NewTable(w)
		table.Header(append([]string{""}, r.CorrelationNames...))
		for i, name := range r.CorrelationNames {
			row := []string{name}
			for j := range r.CorrelationNames {
				row = append(row, fmt.Sprintf("%.3f", r.Correlation[i][j]))
			}
			if err := table.Append(row); err != nil {
				return errors.Trace(err)
			}
		}
		if err := table.Render(); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}
