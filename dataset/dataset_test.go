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

package dataset

import (
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

func newTestTable() *Table {
	return &Table{Columns: []Column{
		{Name: "Contract", Kind: String, Strings: []string{
			"Month-to-month", "Two year", "Month-to-month", "One year",
			"Month-to-month", "Two year", "One year", "Month-to-month",
			"Month-to-month", "Two year",
		}},
		{Name: "Tenure", Kind: Numeric, Floats: []float32{1, 68, 5, 32, 2, 71, 40, 8, 3, 66}},
		{Name: "MonthlyCharges", Kind: Numeric, Floats: []float32{29.85, 105.5, 53.85, 70.7, 99.65, 89.1, 45.3, 74.4, 80.85, 56.15}},
		{Name: "Churn", Kind: String, Strings: []string{
			"Left", "Current", "Left", "Current", "Left",
			"Current", "Current", "Current", "Current", "Current",
		}},
	}}
}

func TestTable_Column(t *testing.T) {
	table := newTestTable()
	column, err := table.Column("Tenure")
	assert.NoError(t, err)
	assert.Equal(t, Numeric, column.Kind)
	_, err = table.Column("Unknown")
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestTable_Subset(t *testing.T) {
	table := newTestTable()
	subset := table.Subset([]int{0, 2, 4})
	assert.Equal(t, 3, subset.NumRows())
	assert.Equal(t, 4, subset.NumColumns())
	contract, err := subset.Column("Contract")
	assert.NoError(t, err)
	assert.Equal(t, []string{"Month-to-month", "Month-to-month", "Month-to-month"}, contract.Strings)
	tenure, err := subset.Column("Tenure")
	assert.NoError(t, err)
	assert.Equal(t, []float32{1, 5, 2}, tenure.Floats)
	// the source table is untouched
	assert.Equal(t, 10, table.NumRows())
}

func TestTable_Drop(t *testing.T) {
	table := &Table{Columns: []Column{
		{Name: "customerID", Kind: String, Strings: []string{"0001-AAAAA", "0002-BBBBB"}},
		{Name: "Tenure", Kind: Numeric, Floats: []float32{1, 68}},
		{Name: "Churn", Kind: String, Strings: []string{"Left", "Current"}},
	}}
	dropped := table.Drop("customerID")
	assert.Equal(t, []string{"Tenure", "Churn"}, dropped.Names())
	assert.Equal(t, 2, dropped.NumRows())
	// absent names are ignored
	assert.Equal(t, []string{"Tenure", "Churn"}, dropped.Drop("SeniorCitizen").Names())
	// the source table is untouched
	assert.Equal(t, 3, table.NumColumns())
}

func TestTable_ColumnsByKind(t *testing.T) {
	table := newTestTable()
	assert.Equal(t, []string{"Contract", "Churn"}, table.CategoricalColumns())
	assert.Equal(t, []string{"Contract"}, table.CategoricalColumns("Churn"))
	assert.Equal(t, []string{"Tenure", "MonthlyCharges"}, table.NumericColumns())
}

func TestTable_ValueCounts(t *testing.T) {
	table := newTestTable()
	counts, err := table.ValueCounts("Churn")
	assert.NoError(t, err)
	assert.Equal(t, map[string]int{"Current": 7, "Left": 3}, counts)
	_, err = table.ValueCounts("Tenure")
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestTable_Levels(t *testing.T) {
	table := newTestTable()
	levels, err := table.Levels("Contract")
	assert.NoError(t, err)
	assert.Equal(t, []string{"Month-to-month", "One year", "Two year"}, levels)
}
