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
	"sort"

	"github.com/churn-io/churn/recipe"
	"modernc.org/sortutil"
)

// decisionThreshold converts a probability into a class.
const decisionThreshold = 0.5

// EvaluateClassification scores a fitted classifier on a labeled design
// matrix.
func EvaluateClassification(estimator Classifier, testSet *recipe.Matrix, labels []int) Score {
	predictions := estimator.BatchPredict(testSet)
	var posPrediction, negPrediction []float32
	for i, label := range labels {
		if label > 0 {
			posPrediction = append(posPrediction, predictions[i])
		} else {
			negPrediction = append(negPrediction, predictions[i])
		}
	}
	if len(labels) == 0 {
		return Score{}
	}
	return Score{
		Precision: Precision(posPrediction, negPrediction),
		Recall:    Recall(posPrediction, negPrediction),
		Accuracy:  Accuracy(posPrediction, negPrediction),
		AUC:       AUC(posPrediction, negPrediction),
	}
}

func Precision(posPrediction, negPrediction []float32) float32 {
	var tp, fp float32
	for _, p := range posPrediction {
		if p >= decisionThreshold { // true positive
			tp++
		}
	}
	for _, p := range negPrediction {
		if p >= decisionThreshold { // false positive
			fp++
		}
	}
	if tp+fp == 0 {
		return 0
	}
	return tp / (tp + fp)
}

func Recall(posPrediction, _ []float32) float32 {
	var tp, fn float32
	for _, p := range posPrediction {
		if p >= decisionThreshold { // true positive
			tp++
		} else { // false negative
			fn++
		}
	}
	if tp+fn == 0 {
		return 0
	}
	return tp / (tp + fn)
}

func Accuracy(posPrediction, negPrediction []float32) float32 {
	var correct float32
	for _, p := range posPrediction {
		if p >= decisionThreshold {
			correct++
		}
	}
	for _, p := range negPrediction {
		if p < decisionThreshold {
			correct++
		}
	}
	if len(posPrediction)+len(negPrediction) == 0 {
		return 0
	}
	return correct / float32(len(posPrediction)+len(negPrediction))
}

func AUC(posPrediction, negPrediction []float32) float32 {
	sort.Sort(sortutil.Float32Slice(posPrediction))
	sort.Sort(sortutil.Float32Slice(negPrediction))
	var sum float32
	var nPos int
	for pPos := range posPrediction {
		// find the negative sample with the greatest prediction less than current positive sample
		for nPos < len(negPrediction) && negPrediction[nPos] < posPrediction[pPos] {
			nPos++
		}
		// add the number of negative samples have less prediction than current positive sample
		sum += float32(nPos)
	}
	if len(posPrediction)*len(negPrediction) == 0 {
		return 0
	}
	return sum / float32(len(posPrediction)*len(negPrediction))
}

// ConfusionMatrix counts test-set decisions at the 0.5 threshold. The
// positive class is churn.
type ConfusionMatrix struct {
	TruePositives  int
	FalsePositives int
	TrueNegatives  int
	FalseNegatives int
}

// NewConfusionMatrix tallies predictions against reference labels.
func NewConfusionMatrix(predictions []float32, labels []int) ConfusionMatrix {
	var cm ConfusionMatrix
	for i, p := range predictions {
		predicted := p >= decisionThreshold
		actual := labels[i] > 0
		switch {
		case predicted && actual:
			cm.TruePositives++
		case predicted && !actual:
			cm.FalsePositives++
		case !predicted && !actual:
			cm.TrueNegatives++
		default:
			cm.FalseNegatives++
		}
	}
	return cm
}

// Total returns the number of tallied predictions.
func (cm ConfusionMatrix) Total() int {
	return cm.TruePositives + cm.FalsePositives + cm.TrueNegatives + cm.FalseNegatives
}

// Accuracy returns the share of correct decisions.
func (cm ConfusionMatrix) Accuracy() float32 {
	if cm.Total() == 0 {
		return 0
	}
	return float32(cm.TruePositives+cm.TrueNegatives) / float32(cm.Total())
}
