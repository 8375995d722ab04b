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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAUC(t *testing.T) {
	// perfect ranking
	assert.Equal(t, float32(1), AUC([]float32{0.8, 0.9}, []float32{0.1, 0.2}))
	// inverted ranking
	assert.Equal(t, float32(0), AUC([]float32{0.1, 0.2}, []float32{0.8, 0.9}))
	// half right
	assert.Equal(t, float32(0.5), AUC([]float32{0.2, 0.8}, []float32{0.2, 0.8}))
	// empty classes
	assert.Equal(t, float32(0), AUC(nil, []float32{0.5}))
}

func TestPrecisionRecallAccuracy(t *testing.T) {
	pos := []float32{0.6, 0.4}
	neg := []float32{0.7, 0.3}
	assert.Equal(t, float32(0.5), Precision(pos, neg))
	assert.Equal(t, float32(0.5), Recall(pos, neg))
	assert.Equal(t, float32(0.5), Accuracy(pos, neg))
	assert.Equal(t, float32(0), Precision([]float32{0.1}, []float32{0.2}))
	assert.Equal(t, float32(0), Accuracy(nil, nil))
}

func TestNewConfusionMatrix(t *testing.T) {
	predictions := []float32{0.9, 0.2, 0.8, 0.4}
	labels := []int{1, 1, 0, 0}
	cm := NewConfusionMatrix(predictions, labels)
	assert.Equal(t, 1, cm.TruePositives)
	assert.Equal(t, 1, cm.FalseNegatives)
	assert.Equal(t, 1, cm.FalsePositives)
	assert.Equal(t, 1, cm.TrueNegatives)
	assert.Equal(t, 4, cm.Total())
	assert.Equal(t, float32(0.5), cm.Accuracy())
}

func TestConfusionMatrix_PerfectClassifier(t *testing.T) {
	// a perfect classifier leaves the off-diagonal cells empty
	predictions := []float32{1, 1, 0, 0, 0}
	labels := []int{1, 1, 0, 0, 0}
	cm := NewConfusionMatrix(predictions, labels)
	assert.Equal(t, 2, cm.TruePositives)
	assert.Equal(t, 3, cm.TrueNegatives)
	assert.Zero(t, cm.FalsePositives)
	assert.Zero(t, cm.FalseNegatives)
	assert.Equal(t, float32(1), cm.Accuracy())
}

func TestScore_BetterThan(t *testing.T) {
	assert.True(t, Score{AUC: 0.9}.BetterThan(Score{AUC: 0.8}))
	assert.False(t, Score{AUC: 0.8}.BetterThan(Score{AUC: 0.8}))
	assert.Equal(t, float32(0.9), Score{AUC: 0.9}.GetValue())
}
