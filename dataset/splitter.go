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
	"math"
	"sort"

	"github.com/churn-io/churn/base"
	"github.com/juju/errors"
)

// Fold is one resample of a k-fold partitioning. Test is the held-out fold
// and Train is the union of the remaining folds.
type Fold struct {
	Train *Table
	Test  *Table
}

// byLevel groups row indices by the value of the label column. Levels are
// iterated in sorted order so that identical seeds yield identical splits.
func byLevel(t *Table, labelCol string) ([]string, map[string][]int, error) {
	column, err := t.Column(labelCol)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	if column.Kind != String {
		return nil, nil, errors.NotValidf("label column %s is not categorical", labelCol)
	}
	groups := make(map[string][]int)
	for i, v := range column.Strings {
		groups[v] = append(groups[v], i)
	}
	levels := make([]string, 0, len(groups))
	for level := range groups {
		levels = append(levels, level)
	}
	sort.Strings(levels)
	return levels, groups, nil
}

// StratifiedSplit partitions a table into train and test subsets preserving
// the label distribution. Within each label level, round(n*trainFraction) rows
// go to the train partition, rounding half up. Identical seed and input yield
// identical membership.
func StratifiedSplit(t *Table, labelCol string, trainFraction float64, seed int64) (train, test *Table, err error) {
	if trainFraction <= 0 || trainFraction >= 1 {
		return nil, nil, errors.NotValidf("train fraction %f", trainFraction)
	}
	levels, groups, err := byLevel(t, labelCol)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	rng := base.NewRandomGenerator(seed)
	var trainIndices, testIndices []int
	for _, level := range levels {
		indices := groups[level]
		perm := rng.Perm(len(indices))
		trainSize := int(math.Floor(float64(len(indices))*trainFraction + 0.5))
		for i, p := range perm {
			if i < trainSize {
				trainIndices = append(trainIndices, indices[p])
			} else {
				testIndices = append(testIndices, indices[p])
			}
		}
	}
	sort.Ints(trainIndices)
	sort.Ints(testIndices)
	return t.Subset(trainIndices), t.Subset(testIndices), nil
}

// StratifiedKFold partitions a table into k stratified folds. Within each
// label level rows are shuffled and dealt round-robin, so the union of the k
// held-out folds is the table exactly once and folds are pairwise disjoint.
func StratifiedKFold(t *Table, labelCol string, k int, seed int64) ([]Fold, error) {
	if k < 2 {
		return nil, errors.NotValidf("fold count %d", k)
	}
	if k > t.NumRows() {
		return nil, errors.NotValidf("fold count %d exceeds %d rows", k, t.NumRows())
	}
	levels, groups, err := byLevel(t, labelCol)
	if err != nil {
		return nil, errors.Trace(err)
	}
	rng := base.NewRandomGenerator(seed)
	buckets := make([][]int, k)
	next := 0
	for _, level := range levels {
		indices := groups[level]
		perm := rng.Perm(len(indices))
		for _, p := range perm {
			buckets[next%k] = append(buckets[next%k], indices[p])
			next++
		}
	}
	folds := make([]Fold, k)
	for i := 0; i < k; i++ {
		var trainIndices []int
		for j := 0; j < k; j++ {
			if j != i {
				trainIndices = append(trainIndices, buckets[j]...)
			}
		}
		sort.Ints(trainIndices)
		testIndices := make([]int, len(buckets[i]))
		copy(testIndices, buckets[i])
		sort.Ints(testIndices)
		folds[i] = Fold{Train: t.Subset(trainIndices), Test: t.Subset(testIndices)}
	}
	return folds, nil
}
