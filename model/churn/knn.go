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
	"context"
	"io"
	"sort"

	"github.com/c-bata/goptuna"
	"github.com/chewxy/math32"
	"github.com/churn-io/churn/base/encoding"
	"github.com/churn-io/churn/model"
	"github.com/churn-io/churn/recipe"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

// KNN is a lazy nearest-neighbor classifier. Fit memorizes the training
// matrix, Predict votes among the k nearest rows by Euclidean distance.
type KNN struct {
	model.BaseModel
	Points [][]float32
	Labels []int
	// hyper-parameters
	k        int
	weighted bool
}

func NewKNN(params model.Params) *KNN {
	knn := new(KNN)
	knn.SetParams(params)
	return knn
}

func (knn *KNN) SetParams(params model.Params) {
	knn.BaseModel.SetParams(params)
	knn.k = knn.Params.GetInt(model.K, 5)
	knn.weighted = knn.Params.GetBool(model.Weighted, false)
}

func (knn *KNN) Clear() {
	knn.Points = nil
	knn.Labels = nil
}

func (knn *KNN) Fit(_ context.Context, train *recipe.Matrix, labels []int, _ *FitConfig) error {
	if train.NumRows() == 0 || train.NumRows() != len(labels) {
		return errors.NotValidf("design matrix with %d rows and %d labels", train.NumRows(), len(labels))
	}
	if knn.k > train.NumRows() {
		return errors.NotValidf("%d neighbors but %d training rows", knn.k, train.NumRows())
	}
	knn.Points = make([][]float32, train.NumRows())
	for i, row := range train.Rows {
		knn.Points[i] = append([]float32(nil), row...)
	}
	knn.Labels = append([]int(nil), labels...)
	return nil
}

func euclidean(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math32.Sqrt(sum)
}

func (knn *KNN) Predict(x []float32) float32 {
	type neighbor struct {
		distance float32
		label    int
	}
	neighbors := make([]neighbor, len(knn.Points))
	for i, point := range knn.Points {
		neighbors[i] = neighbor{distance: euclidean(x, point), label: knn.Labels[i]}
	}
	sort.Slice(neighbors, func(i, j int) bool {
		return neighbors[i].distance < neighbors[j].distance
	})
	k := knn.k
	if k > len(neighbors) {
		k = len(neighbors)
	}
	if !knn.weighted {
		var positive float32
		for _, n := range neighbors[:k] {
			positive += float32(n.label)
		}
		return positive / float32(k)
	}
	var positive, total float32
	for _, n := range neighbors[:k] {
		weight := 1 / (n.distance + 1e-6)
		positive += weight * float32(n.label)
		total += weight
	}
	return positive / total
}

func (knn *KNN) BatchPredict(m *recipe.Matrix) []float32 {
	return batchPredict(knn, m)
}

func (knn *KNN) SuggestParams(trial goptuna.Trial) model.Params {
	return model.Params{
		// odd neighbor counts avoid voting ties
		model.K:        lo.Must(trial.SuggestStepInt(string(model.K), 1, 49, 2)),
		model.Weighted: lo.Must(trial.SuggestCategorical(string(model.Weighted), []string{"false", "true"})) == "true",
	}
}

func (knn *KNN) GetParamsGrid() model.ParamsGrid {
	return model.ParamsGrid{
		model.K:        []interface{}{5, 11, 21, 31, 41},
		model.Weighted: []interface{}{false, true},
	}
}

func (knn *KNN) GetParamsRanges() model.ParamsRanges {
	return model.ParamsRanges{
		model.K: {Low: 1, High: 49, Int: true},
	}
}

func (knn *KNN) Marshal(w io.Writer) error {
	return encoding.WriteGob(w, knn)
}

func (knn *KNN) Unmarshal(r io.Reader) error {
	if err := encoding.ReadGob(r, knn); err != nil {
		return errors.Trace(err)
	}
	knn.SetParams(knn.Params)
	return nil
}
