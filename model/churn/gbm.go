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
	"time"

	"github.com/c-bata/goptuna"
	"github.com/chewxy/math32"
	"github.com/churn-io/churn/base"
	"github.com/churn-io/churn/base/encoding"
	"github.com/churn-io/churn/base/log"
	"github.com/churn-io/churn/model"
	"github.com/churn-io/churn/recipe"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// GradientBoosting fits shallow regression trees to the gradient of the
// logistic loss. The learning rate is folded into the leaf values, so
// Predict is the sigmoid of the bias plus the tree sum.
type GradientBoosting struct {
	model.BaseModel
	Trees []*Tree
	Bias  float32
	// hyper-parameters
	nTrees      int
	maxDepth    int
	minNodeSize int
	learnRate   float32
	subsample   float32
}

func NewGradientBoosting(params model.Params) *GradientBoosting {
	gbm := new(GradientBoosting)
	gbm.SetParams(params)
	return gbm
}

func (gbm *GradientBoosting) SetParams(params model.Params) {
	gbm.BaseModel.SetParams(params)
	gbm.nTrees = gbm.Params.GetInt(model.NTrees, 100)
	gbm.maxDepth = gbm.Params.GetInt(model.MaxDepth, 3)
	gbm.minNodeSize = gbm.Params.GetInt(model.MinNodeSize, 10)
	gbm.learnRate = gbm.Params.GetFloat32(model.LearnRate, 0.1)
	gbm.subsample = gbm.Params.GetFloat32(model.Subsample, 1)
}

func (gbm *GradientBoosting) Clear() {
	gbm.Trees = nil
	gbm.Bias = 0
}

func sigmoid(x float32) float32 {
	return 1 / (1 + math32.Exp(-x))
}

func (gbm *GradientBoosting) Fit(ctx context.Context, train *recipe.Matrix, labels []int, config *FitConfig) error {
	config = config.LoadDefaultIfNil()
	n := train.NumRows()
	if n == 0 || n != len(labels) {
		return errors.NotValidf("design matrix with %d rows and %d labels", n, len(labels))
	}
	targets := make([]float32, n)
	var positive float32
	for i, label := range labels {
		targets[i] = float32(label)
		positive += float32(label)
	}
	prior := positive / float32(n)
	prior = math32.Min(math32.Max(prior, 1e-6), 1-1e-6)
	gbm.Bias = math32.Log(prior / (1 - prior))
	scores := make([]float32, n)
	for i := range scores {
		scores[i] = gbm.Bias
	}
	residuals := make([]float32, n)
	hessians := make([]float32, n)
	treeConf := treeConfig{maxDepth: gbm.maxDepth, minNodeSize: gbm.minNodeSize}
	seed := gbm.Params.GetInt64(model.RandomState, 0)
	sampleSize := int(gbm.subsample * float32(n))
	if sampleSize < 1 {
		sampleSize = 1
	}
	leafValue := func(indices []int) float32 {
		var gradSum, hessSum float32
		for _, i := range indices {
			gradSum += residuals[i]
			hessSum += hessians[i]
		}
		if hessSum < 1e-6 {
			hessSum = 1e-6
		}
		return gbm.learnRate * gradSum / hessSum
	}
	start := time.Now()
	gbm.Trees = make([]*Tree, 0, gbm.nTrees)
	for round := 0; round < gbm.nTrees; round++ {
		select {
		case <-ctx.Done():
			return errors.Trace(ctx.Err())
		default:
		}
		for i := range scores {
			p := sigmoid(scores[i])
			residuals[i] = targets[i] - p
			hessians[i] = p * (1 - p)
		}
		rng := base.NewRandomGenerator(seed + int64(round))
		indices := rng.Sample(0, n, sampleSize)
		tree := growTree(train.Rows, residuals, indices, treeConf, rng, leafValue)
		gbm.Trees = append(gbm.Trees, tree)
		var loss float32
		for i, row := range train.Rows {
			scores[i] += tree.Predict(row)
			p := sigmoid(scores[i])
			p = math32.Min(math32.Max(p, 1e-7), 1-1e-7)
			if targets[i] > 0 {
				loss -= math32.Log(p)
			} else {
				loss -= math32.Log(1 - p)
			}
		}
		loss /= float32(n)
		if math32.IsNaN(loss) || math32.IsInf(loss, 0) {
			return errors.Trace(ErrConvergence)
		}
		if config.Verbose > 0 && (round+1)%config.Verbose == 0 {
			log.Logger().Debug("fit gradient boosting",
				zap.Int("round", round+1),
				zap.Int("n_trees", gbm.nTrees),
				zap.Float32("log_loss", loss))
		}
	}
	log.Logger().Debug("fit gradient boosting",
		zap.Int("n_trees", gbm.nTrees),
		zap.Float32("learn_rate", gbm.learnRate),
		zap.Duration("fit_time", time.Since(start)))
	return nil
}

func (gbm *GradientBoosting) Predict(x []float32) float32 {
	score := gbm.Bias
	for _, tree := range gbm.Trees {
		score += tree.Predict(x)
	}
	return sigmoid(score)
}

func (gbm *GradientBoosting) BatchPredict(m *recipe.Matrix) []float32 {
	return batchPredict(gbm, m)
}

func (gbm *GradientBoosting) SuggestParams(trial goptuna.Trial) model.Params {
	return model.Params{
		model.NTrees:    lo.Must(trial.SuggestStepInt(string(model.NTrees), 50, 500, 50)),
		model.MaxDepth:  lo.Must(trial.SuggestInt(string(model.MaxDepth), 1, 8)),
		model.LearnRate: lo.Must(trial.SuggestLogFloat(string(model.LearnRate), 0.01, 0.3)),
		model.Subsample: lo.Must(trial.SuggestDiscreteFloat(string(model.Subsample), 0.5, 1, 0.1)),
	}
}

func (gbm *GradientBoosting) GetParamsGrid() model.ParamsGrid {
	return model.ParamsGrid{
		model.NTrees:    []interface{}{50, 100, 150},
		model.MaxDepth:  []interface{}{1, 2, 3},
		model.LearnRate: []interface{}{0.01, 0.1},
	}
}

func (gbm *GradientBoosting) GetParamsRanges() model.ParamsRanges {
	return model.ParamsRanges{
		model.NTrees:    {Low: 50, High: 500, Int: true},
		model.MaxDepth:  {Low: 1, High: 8, Int: true},
		model.LearnRate: {Low: 0.01, High: 0.3},
		model.Subsample: {Low: 0.5, High: 1},
	}
}

func (gbm *GradientBoosting) Marshal(w io.Writer) error {
	return encoding.WriteGob(w, gbm)
}

func (gbm *GradientBoosting) Unmarshal(r io.Reader) error {
	if err := encoding.ReadGob(r, gbm); err != nil {
		return errors.Trace(err)
	}
	gbm.SetParams(gbm.Params)
	return nil
}
