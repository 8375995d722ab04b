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
	"bytes"
	"testing"

	"github.com/churn-io/churn/dataset"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReportTable() *dataset.Table {
	return &dataset.Table{Columns: []dataset.Column{
		{Name: "Contract", Kind: dataset.String, Strings: []string{
			"Month-to-month", "Month-to-month", "One year", "One year", "Two year",
		}},
		{Name: "Tenure", Kind: dataset.Numeric, Floats: []float32{1, 2, 3, 4, 5}},
		{Name: "MonthlyCharges", Kind: dataset.Numeric, Floats: []float32{10, 20, 30, 40, 50}},
		{Name: "Churn", Kind: dataset.String, Strings: []string{
			"Left", "Left", "Current", "Current", "Current",
		}},
	}}
}

func TestDescribe(t *testing.T) {
	report, err := Describe(newReportTable(), "Churn")
	require.NoError(t, err)
	assert.Equal(t, 5, report.Rows)
	assert.Equal(t, []string{"Current", "Left"}, report.OutcomeLevels)
	require.Len(t, report.Numeric, 2)
	tenure := report.Numeric[0]
	assert.Equal(t, "Tenure", tenure.Name)
	assert.Equal(t, 1.0, tenure.Min)
	assert.Equal(t, 3.0, tenure.Median)
	assert.Equal(t, 5.0, tenure.Max)
	assert.Equal(t, 3.0, tenure.Mean)
	// the outcome itself is not summarized
	require.Len(t, report.Categorical, 1)
	contract := report.Categorical[0]
	assert.Equal(t, "Contract", contract.Name)
	require.Len(t, contract.Levels, 3)
	assert.Equal(t, "Month-to-month", contract.Levels[0].Level)
	assert.Equal(t, 2, contract.Levels[0].Counts["Left"])
	assert.Equal(t, 0, contract.Levels[0].Counts["Current"])
	assert.Equal(t, 1, contract.Levels[1].Counts["Current"])
}

func TestDescribe_Errors(t *testing.T) {
	_, err := Describe(newReportTable(), "Tenure")
	assert.True(t, errors.Is(err, errors.NotValid))
	_, err = Describe(newReportTable(), "Missing")
	assert.True(t, errors.Is(err, errors.NotFound))
	_, err = Describe(&dataset.Table{}, "Churn")
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestCorrelationMatrix(t *testing.T) {
	names, matrix, err := CorrelationMatrix(newReportTable())
	require.NoError(t, err)
	assert.Equal(t, []string{"Tenure", "MonthlyCharges"}, names)
	assert.Equal(t, 1.0, matrix[0][0])
	assert.Equal(t, 1.0, matrix[1][1])
	// the two columns move in lockstep
	assert.InDelta(t, 1.0, matrix[0][1], 1e-9)
	assert.Equal(t, matrix[0][1], matrix[1][0])
}

func TestReport_Write(t *testing.T) {
	report, err := Describe(newReportTable(), "Churn")
	require.NoError(t, err)
	buf := bytes.NewBuffer(nil)
	require.NoError(t, report.Write(buf))
	output := buf.String()
	assert.Contains(t, output, "Tenure")
	assert.Contains(t, output, "Month-to-month")
	assert.Contains(t, output, "correlation")
}
