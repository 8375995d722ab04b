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

package churn

import (
	"bytes"
	"context"
	"testing"

	"github.com/churn-io/churn/base"
	"github.com/churn-io/churn/model"
	"github.com/churn-io/churn/recipe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newSeparableMatrix builds a linearly separable binary problem: the label
// is 1 when the first feature is positive.
func newSeparableMatrix(n int) (*recipe.Matrix, []int) {
	rng := base.NewRandomGenerator(42)
	matrix := &recipe.Matrix{Names: []string{"signal", "noise"}, Rows: make([][]float32, n)}
	labels := make([]int, n)
	for i := 0; i < n; i++ {
		labels[i] = i % 2
		center := float32(-1)
		if labels[i] == 1 {
			center = 1
		}
		matrix.Rows[i] = []float32{
			center + float32(rng.NormFloat64())*0.1,
			float32(rng.NormFloat64()),
		}
	}
	return matrix, labels
}

func TestTree(t *testing.T) {
	rows := [][]float32{{1, 0}, {2, 0}, {3, 0}, {10, 0}, {11, 0}, {12, 0}}
	targets := []float32{0, 0, 0, 1, 1, 1}
	indices := []int{0, 1, 2, 3, 4, 5}
	tree := growTree(rows, targets, indices, treeConfig{minNodeSize: 2}, base.NewRandomGenerator(0), nil)
	assert.Equal(t, float32(0), tree.Predict([]float32{2, 0}))
	assert.Equal(t, float32(1), tree.Predict([]float32{11, 0}))
	// a pure node never splits
	pure := growTree(rows, []float32{1, 1, 1, 1, 1, 1}, indices, treeConfig{minNodeSize: 2}, base.NewRandomGenerator(0), nil)
	assert.True(t, pure.Root.Leaf)
	assert.Equal(t, float32(1), pure.Root.Value)
}

func TestRandomForest(t *testing.T) {
	train, labels := newSeparableMatrix(200)
	rf := NewRandomForest(model.Params{model.NTrees: 30, model.RandomState: 1})
	require.NoError(t, rf.Fit(context.Background(), train, labels, nil))
	score := EvaluateClassification(rf, train, labels)
	assert.Greater(t, score.AUC, float32(0.95))
	assert.Greater(t, score.Accuracy, float32(0.9))
}

func TestRandomForest_DeterministicAcrossJobs(t *testing.T) {
	train, labels := newSeparableMatrix(100)
	serial := NewRandomForest(model.Params{model.NTrees: 10, model.RandomState: 7})
	require.NoError(t, serial.Fit(context.Background(), train, labels, NewFitConfig().SetJobs(1)))
	concurrent := NewRandomForest(model.Params{model.NTrees: 10, model.RandomState: 7})
	require.NoError(t, concurrent.Fit(context.Background(), train, labels, NewFitConfig().SetJobs(4)))
	assert.Equal(t, serial.BatchPredict(train), concurrent.BatchPredict(train))
}

func TestBatchPredict_MatchesPredict(t *testing.T) {
	train, labels := newSeparableMatrix(100)
	rf := NewRandomForest(model.Params{model.NTrees: 10, model.RandomState: 1})
	require.NoError(t, rf.Fit(context.Background(), train, labels, nil))
	// concurrent batch scoring agrees with row-by-row scoring
	predictions := rf.BatchPredict(train)
	require.Len(t, predictions, train.NumRows())
	for i, row := range train.Rows {
		assert.Equal(t, rf.Predict(row), predictions[i])
	}
}

func TestKNN(t *testing.T) {
	train, labels := newSeparableMatrix(100)
	knn := NewKNN(model.Params{model.K: 1})
	require.NoError(t, knn.Fit(context.Background(), train, labels, nil))
	// with one neighbor the training set is memorized
	score := EvaluateClassification(knn, train, labels)
	assert.Equal(t, float32(1), score.Accuracy)
	assert.Equal(t, float32(1), score.AUC)
	// weighted votes stay probabilities
	weighted := NewKNN(model.Params{model.K: 5, model.Weighted: true})
	require.NoError(t, weighted.Fit(context.Background(), train, labels, nil))
	for _, p := range weighted.BatchPredict(train) {
		assert.GreaterOrEqual(t, p, float32(0))
		assert.LessOrEqual(t, p, float32(1))
	}
}

func TestKNN_TooFewRows(t *testing.T) {
	train, labels := newSeparableMatrix(4)
	knn := NewKNN(model.Params{model.K: 5})
	assert.Error(t, knn.Fit(context.Background(), train, labels, nil))
}

func TestGradientBoosting(t *testing.T) {
	train, labels := newSeparableMatrix(200)
	gbm := NewGradientBoosting(model.Params{model.NTrees: 50, model.MaxDepth: 2, model.RandomState: 1})
	require.NoError(t, gbm.Fit(context.Background(), train, labels, nil))
	score := EvaluateClassification(gbm, train, labels)
	assert.Greater(t, score.AUC, float32(0.95))
	assert.Greater(t, score.Accuracy, float32(0.9))
}

func TestGradientBoosting_Subsample(t *testing.T) {
	train, labels := newSeparableMatrix(200)
	gbm := NewGradientBoosting(model.Params{
		model.NTrees:      50,
		model.Subsample:   0.5,
		model.RandomState: 1,
	})
	require.NoError(t, gbm.Fit(context.Background(), train, labels, nil))
	score := EvaluateClassification(gbm, train, labels)
	assert.Greater(t, score.AUC, float32(0.9))
}

func TestMarshalRoundTrip(t *testing.T) {
	train, labels := newSeparableMatrix(100)
	models := []Classifier{
		NewRandomForest(model.Params{model.NTrees: 10, model.RandomState: 1}),
		NewKNN(model.Params{model.K: 3}),
		NewGradientBoosting(model.Params{model.NTrees: 10, model.RandomState: 1}),
	}
	for _, m := range models {
		require.NoError(t, m.Fit(context.Background(), train, labels, nil))
		buf := bytes.NewBuffer(nil)
		require.NoError(t, MarshalModel(buf, m))
		decoded, err := UnmarshalModel(buf)
		require.NoError(t, err)
		assert.IsType(t, m, decoded)
		assert.Equal(t, m.BatchPredict(train), decoded.BatchPredict(train))
	}
}

func TestClone(t *testing.T) {
	train, labels := newSeparableMatrix(100)
	rf := NewRandomForest(model.Params{model.NTrees: 10, model.RandomState: 1})
	require.NoError(t, rf.Fit(context.Background(), train, labels, nil))
	cloned := Clone(rf)
	assert.Equal(t, rf.BatchPredict(train), cloned.BatchPredict(train))
	// the clone is independent
	cloned.Clear()
	assert.NotEmpty(t, rf.Trees)
}

func TestSpawn(t *testing.T) {
	train, labels := newSeparableMatrix(100)
	gbm := NewGradientBoosting(model.Params{model.NTrees: 5, model.RandomState: 3})
	require.NoError(t, gbm.Fit(context.Background(), train, labels, nil))
	spawned := Spawn(gbm)
	assert.IsType(t, gbm, spawned)
	assert.Equal(t, gbm.GetParams(), spawned.GetParams())
	assert.Empty(t, spawned.(*GradientBoosting).Trees)
}
