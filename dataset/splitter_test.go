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
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rowKeys builds a unique key per row so membership can be compared across
// subsets.
func rowKeys(t *Table) []string {
	keys := make([]string, t.NumRows())
	for i := 0; i < t.NumRows(); i++ {
		for _, c := range t.Columns {
			if c.Kind == Numeric {
				keys[i] += fmt.Sprintf("|%v", c.Floats[i])
			} else {
				keys[i] += "|" + c.Strings[i]
			}
		}
	}
	return keys
}

func newLargeTable(n int) *Table {
	labels := make([]string, n)
	ids := make([]float32, n)
	for i := 0; i < n; i++ {
		ids[i] = float32(i)
		if i%4 == 0 {
			labels[i] = "Left"
		} else {
			labels[i] = "Current"
		}
	}
	return &Table{Columns: []Column{
		{Name: "ID", Kind: Numeric, Floats: ids},
		{Name: "Churn", Kind: String, Strings: labels},
	}}
}

func TestStratifiedSplit_Determinism(t *testing.T) {
	table := newLargeTable(1000)
	train1, test1, err := StratifiedSplit(table, "Churn", 0.8, 42)
	require.NoError(t, err)
	train2, test2, err := StratifiedSplit(table, "Churn", 0.8, 42)
	require.NoError(t, err)
	assert.Equal(t, rowKeys(train1), rowKeys(train2))
	assert.Equal(t, rowKeys(test1), rowKeys(test2))
	// a different seed moves rows around
	train3, _, err := StratifiedSplit(table, "Churn", 0.8, 43)
	require.NoError(t, err)
	assert.NotEqual(t, rowKeys(train1), rowKeys(train3))
}

func TestStratifiedSplit_Proportions(t *testing.T) {
	table := newLargeTable(1000)
	train, test, err := StratifiedSplit(table, "Churn", 0.8, 0)
	require.NoError(t, err)
	assert.Equal(t, 800, train.NumRows())
	assert.Equal(t, 200, test.NumRows())
	source, _ := table.ValueCounts("Churn")
	sourceRatio := float64(source["Left"]) / float64(table.NumRows())
	for _, part := range []*Table{train, test} {
		counts, err := part.ValueCounts("Churn")
		require.NoError(t, err)
		ratio := float64(counts["Left"]) / float64(part.NumRows())
		assert.InDelta(t, sourceRatio, ratio, 0.02)
	}
}

func TestStratifiedSplit_NoLossNoDuplication(t *testing.T) {
	table := newLargeTable(101)
	train, test, err := StratifiedSplit(table, "Churn", 0.8, 7)
	require.NoError(t, err)
	assert.Equal(t, table.NumRows(), train.NumRows()+test.NumRows())
	union := append(rowKeys(train), rowKeys(test)...)
	sort.Strings(union)
	all := rowKeys(table)
	sort.Strings(all)
	assert.Equal(t, all, union)
}

func TestStratifiedSplit_SmallScenario(t *testing.T) {
	// 10 rows, 7 Current and 3 Left: with round-half-up per level the train
	// partition takes round(7*0.8)=6 Current and round(3*0.8)=2 Left.
	table := newTestTable()
	train, test, err := StratifiedSplit(table, "Churn", 0.8, 0)
	require.NoError(t, err)
	assert.Equal(t, 8, train.NumRows())
	assert.Equal(t, 2, test.NumRows())
	counts, err := train.ValueCounts("Churn")
	require.NoError(t, err)
	assert.Equal(t, 6, counts["Current"])
	assert.Equal(t, 2, counts["Left"])
}

func TestStratifiedKFold(t *testing.T) {
	table := newLargeTable(100)
	folds, err := StratifiedKFold(table, "Churn", 10, 42)
	require.NoError(t, err)
	assert.Len(t, folds, 10)
	// the union of held-out folds covers the table exactly once
	var heldOut []string
	for _, fold := range folds {
		assert.Equal(t, table.NumRows(), fold.Train.NumRows()+fold.Test.NumRows())
		heldOut = append(heldOut, rowKeys(fold.Test)...)
	}
	all := rowKeys(table)
	sort.Strings(all)
	sort.Strings(heldOut)
	assert.Equal(t, all, heldOut)
	// stratification within tolerance
	for _, fold := range folds {
		counts, err := fold.Test.ValueCounts("Churn")
		require.NoError(t, err)
		ratio := float64(counts["Left"]) / float64(fold.Test.NumRows())
		assert.InDelta(t, 0.25, ratio, 0.02)
	}
}

func TestStratifiedKFold_Determinism(t *testing.T) {
	table := newLargeTable(100)
	folds1, err := StratifiedKFold(table, "Churn", 5, 9)
	require.NoError(t, err)
	folds2, err := StratifiedKFold(table, "Churn", 5, 9)
	require.NoError(t, err)
	for i := range folds1 {
		assert.Equal(t, rowKeys(folds1[i].Test), rowKeys(folds2[i].Test))
	}
}

func TestStratifiedSplit_InvalidArguments(t *testing.T) {
	table := newTestTable()
	_, _, err := StratifiedSplit(table, "Churn", 0, 0)
	assert.Error(t, err)
	_, _, err = StratifiedSplit(table, "Churn", 1, 0)
	assert.Error(t, err)
	_, _, err = StratifiedSplit(table, "Tenure", 0.8, 0)
	assert.Error(t, err)
	_, err = StratifiedKFold(table, "Churn", 1, 0)
	assert.Error(t, err)
	_, err = StratifiedKFold(table, "Churn", 11, 0)
	assert.Error(t, err)
}
