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
	"os"
	"time"

	"github.com/churn-io/churn/base/encoding"
	"github.com/churn-io/churn/base/log"
	"github.com/churn-io/churn/dataset"
	"github.com/churn-io/churn/model"
	"github.com/churn-io/churn/recipe"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// Candidate is one classifier family entered into the model competition.
// A nil Grid falls back to the estimator's default grid.
type Candidate struct {
	Name      string
	Estimator Classifier
	Grid      model.ParamsGrid
}

// DefaultCandidates returns the stock competition: a random forest, a
// nearest-neighbor classifier and gradient boosting, all seeded.
func DefaultCandidates(seed int64) []Candidate {
	params := model.Params{model.RandomState: seed}
	return []Candidate{
		{Name: headerRandomForest, Estimator: NewRandomForest(params)},
		{Name: headerKNN, Estimator: NewKNN(params)},
		{Name: headerGradientBoosting, Estimator: NewGradientBoosting(params)},
	}
}

// Selection is the outcome of the cross-validated model competition.
type Selection struct {
	Name        string
	Estimator   Classifier
	BestParams  model.Params
	SearchScore Score
	// Report is a second cross-validation pass over the winner alone, run
	// so the reported fold scores are not the ones that picked the winner.
	Report  CVResult
	Results map[string]SearchResult
}

// SelectModel grid-searches every candidate over the folds and keeps the
// family and hyper-parameters with the best mean AUC.
func SelectModel(ctx context.Context, candidates []Candidate, rcp *recipe.Recipe,
	folds []dataset.Fold, config *FitConfig) (*Selection, error) {
	if len(candidates) == 0 {
		return nil, errors.NotValidf("no candidates")
	}
	selection := &Selection{Results: make(map[string]SearchResult)}
	start := time.Now()
	for _, candidate := range candidates {
		// a candidate grid overrides the default one, copied so the search
		// never aliases the caller's map
		grid := make(model.ParamsGrid)
		grid.Fill(candidate.Grid)
		if grid.Len() == 0 {
			grid = candidate.Estimator.GetParamsGrid()
		}
		log.Logger().Info("search candidate",
			zap.String("model", candidate.Name),
			zap.Int("n_combinations", grid.NumCombinations()))
		result, err := GridSearchCV(ctx, candidate.Estimator, rcp, folds, grid, config)
		if err != nil {
			return nil, errors.Trace(err)
		}
		selection.Results[candidate.Name] = result
		if selection.Name == "" || result.BestScore.BetterThan(selection.SearchScore) {
			selection.Name = candidate.Name
			selection.Estimator = candidate.Estimator
			selection.BestParams = result.BestParams
			selection.SearchScore = result.BestScore
		}
	}
	// re-validate the winner so reported scores are independent of selection
	selection.Estimator.Clear()
	selection.Estimator.SetParams(selection.Estimator.GetParams().Overwrite(selection.BestParams))
	report, err := CrossValidate(ctx, selection.Estimator, rcp, folds, config)
	if err != nil {
		return nil, errors.Trace(err)
	}
	selection.Report = report
	log.Logger().Info("complete model selection",
		append([]zap.Field{
			zap.String("model", selection.Name),
			zap.String("params", selection.BestParams.ToString()),
			zap.String("search_time", time.Since(start).String()),
		}, report.Mean.ZapFields()...)...)
	return selection, nil
}

// Pipeline bundles a fitted recipe with a fitted classifier so raw tables
// can be scored directly.
type Pipeline struct {
	Recipe *recipe.FittedRecipe
	Model  Classifier
}

// FitPipeline fits the recipe and the classifier on the full training
// partition.
func FitPipeline(ctx context.Context, rcp *recipe.Recipe, train *dataset.Table,
	estimator Classifier, config *FitConfig) (*Pipeline, error) {
	fitted, err := rcp.Fit(train)
	if err != nil {
		return nil, errors.Trace(err)
	}
	matrix, err := fitted.Apply(train)
	if err != nil {
		return nil, errors.Trace(err)
	}
	labels, err := fitted.Labels(train)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if degenerate(labels) {
		return nil, errors.Trace(ErrDegenerateFold)
	}
	if err = estimator.Fit(ctx, matrix, labels, config); err != nil {
		return nil, errors.Trace(err)
	}
	return &Pipeline{Recipe: fitted, Model: estimator}, nil
}

// Predict scores every row of a raw table.
func (p *Pipeline) Predict(t *dataset.Table) ([]float32, error) {
	matrix, err := p.Recipe.Apply(t)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return p.Model.BatchPredict(matrix), nil
}

// Evaluate scores a labeled raw table and tallies its confusion matrix.
func (p *Pipeline) Evaluate(t *dataset.Table) (Score, ConfusionMatrix, error) {
	matrix, err := p.Recipe.Apply(t)
	if err != nil {
		return Score{}, ConfusionMatrix{}, errors.Trace(err)
	}
	labels, err := p.Recipe.Labels(t)
	if err != nil {
		return Score{}, ConfusionMatrix{}, errors.Trace(err)
	}
	score := EvaluateClassification(p.Model, matrix, labels)
	cm := NewConfusionMatrix(p.Model.BatchPredict(matrix), labels)
	return score, cm, nil
}

// Save writes the pipeline to a file.
func (p *Pipeline) Save(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Trace(err)
	}
	defer file.Close()
	if err = encoding.WriteGob(file, p.Recipe); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(MarshalModel(file, p.Model))
}

// LoadPipeline reads a pipeline written by Save.
func LoadPipeline(path string) (*Pipeline, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFoundf("pipeline %s", path)
		}
		return nil, errors.Trace(err)
	}
	defer file.Close()
	var fitted recipe.FittedRecipe
	if err = encoding.ReadGob(file, &fitted); err != nil {
		return nil, errors.Trace(err)
	}
	m, err := UnmarshalModel(file)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &Pipeline{Recipe: &fitted, Model: m}, nil
}
