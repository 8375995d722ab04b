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
	"github.com/churn-io/churn/common/parallel"
	"github.com/churn-io/churn/model"
	"github.com/churn-io/churn/recipe"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// RandomForest averages bootstrap-trained trees into a class probability.
type RandomForest struct {
	model.BaseModel
	Trees       []*Tree
	NumFeatures int
	// hyper-parameters
	nTrees      int
	maxDepth    int
	minNodeSize int
	mTry        int
}

func NewRandomForest(params model.Params) *RandomForest {
	rf := new(RandomForest)
	rf.SetParams(params)
	return rf
}

func (rf *RandomForest) SetParams(params model.Params) {
	rf.BaseModel.SetParams(params)
	rf.nTrees = rf.Params.GetInt(model.NTrees, 500)
	rf.maxDepth = rf.Params.GetInt(model.MaxDepth, 0)
	rf.minNodeSize = rf.Params.GetInt(model.MinNodeSize, 10)
	rf.mTry = rf.Params.GetInt(model.MTry, 0)
}

func (rf *RandomForest) Clear() {
	rf.Trees = nil
	rf.NumFeatures = 0
}

func (rf *RandomForest) Fit(ctx context.Context, train *recipe.Matrix, labels []int, config *FitConfig) error {
	config = config.LoadDefaultIfNil()
	if train.NumRows() == 0 || train.NumRows() != len(labels) {
		return errors.NotValidf("design matrix with %d rows and %d labels", train.NumRows(), len(labels))
	}
	rf.NumFeatures = train.NumFeatures()
	mTry := rf.mTry
	if mTry == 0 {
		mTry = int(math32.Round(math32.Sqrt(float32(rf.NumFeatures))))
	}
	targets := make([]float32, len(labels))
	for i, label := range labels {
		targets[i] = float32(label)
	}
	treeConf := treeConfig{maxDepth: rf.maxDepth, minNodeSize: rf.minNodeSize, mTry: mTry}
	seed := rf.Params.GetInt64(model.RandomState, 0)
	start := time.Now()
	rf.Trees = make([]*Tree, rf.nTrees)
	// one generator per tree keeps results identical across job counts
	err := parallel.Parallel(ctx, rf.nTrees, config.Jobs, func(_, treeId int) error {
		rng := base.NewRandomGenerator(seed + int64(treeId))
		indices := make([]int, train.NumRows())
		for i := range indices {
			indices[i] = rng.Intn(train.NumRows())
		}
		rf.Trees[treeId] = growTree(train.Rows, targets, indices, treeConf, rng, nil)
		return nil
	})
	if err != nil {
		return errors.Trace(err)
	}
	log.Logger().Debug("fit random forest",
		zap.Int("n_trees", rf.nTrees),
		zap.Int("m_try", mTry),
		zap.Duration("fit_time", time.Since(start)))
	return nil
}

func (rf *RandomForest) Predict(x []float32) float32 {
	var sum float32
	for _, tree := range rf.Trees {
		sum += tree.Predict(x)
	}
	return sum / float32(len(rf.Trees))
}

func (rf *RandomForest) BatchPredict(m *recipe.Matrix) []float32 {
	return batchPredict(rf, m)
}

func (rf *RandomForest) SuggestParams(trial goptuna.Trial) model.Params {
	return model.Params{
		model.NTrees:      lo.Must(trial.SuggestStepInt(string(model.NTrees), 100, 1000, 100)),
		model.MinNodeSize: lo.Must(trial.SuggestInt(string(model.MinNodeSize), 1, 20)),
		model.MTry:        lo.Must(trial.SuggestInt(string(model.MTry), 1, 8)),
	}
}

func (rf *RandomForest) GetParamsGrid() model.ParamsGrid {
	return model.ParamsGrid{
		model.NTrees:      []interface{}{100, 300, 500},
		model.MinNodeSize: []interface{}{5, 10, 20},
		model.MTry:        []interface{}{2, 3, 4},
	}
}

func (rf *RandomForest) GetParamsRanges() model.ParamsRanges {
	return model.ParamsRanges{
		model.NTrees:      {Low: 100, High: 1000, Int: true},
		model.MinNodeSize: {Low: 1, High: 20, Int: true},
		model.MTry:        {Low: 1, High: 8, Int: true},
	}
}

func (rf *RandomForest) Marshal(w io.Writer) error {
	return encoding.WriteGob(w, rf)
}

func (rf *RandomForest) Unmarshal(r io.Reader) error {
	if err := encoding.ReadGob(r, rf); err != nil {
		return errors.Trace(err)
	}
	rf.SetParams(rf.Params)
	return nil
}
