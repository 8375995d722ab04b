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
	"fmt"
	"sort"

	"github.com/churn-io/churn/base"
	"github.com/churn-io/churn/base/log"
	"github.com/churn-io/churn/base/progress"
	"github.com/churn-io/churn/common/parallel"
	"github.com/churn-io/churn/dataset"
	"github.com/churn-io/churn/model"
	"github.com/churn-io/churn/recipe"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// CVResult is the outcome of cross-validating one hyper-parameter candidate.
// Mean averages the scores of successful folds only; Failed counts folds
// whose fit did not converge.
type CVResult struct {
	Params     model.Params
	FoldScores []Score
	Failed     int
	Mean       Score
}

// CrossValidate evaluates a candidate on every fold. The preprocessing
// recipe is re-estimated inside each fold so no statistic ever sees the
// held-out rows. A fold whose training or validation partition holds a
// single outcome class aborts the whole candidate.
func CrossValidate(ctx context.Context, estimator Classifier, rcp *recipe.Recipe,
	folds []dataset.Fold, config *FitConfig) (CVResult, error) {
	config = config.LoadDefaultIfNil()
	if len(folds) == 0 {
		return CVResult{}, errors.NotValidf("no folds")
	}
	scores := make([]Score, len(folds))
	failed := make([]bool, len(folds))
	newCtx, span := progress.Start(ctx, "CrossValidate", len(folds))
	defer span.End()
	// folds run in parallel, each fold fits sequentially
	foldConfig := NewFitConfig().SetVerbose(config.Verbose)
	err := parallel.Parallel(newCtx, len(folds), config.Jobs, func(_, foldId int) error {
		fold := folds[foldId]
		fitted, err := rcp.Fit(fold.Train)
		if err != nil {
			return errors.Trace(err)
		}
		trainMatrix, err := fitted.Apply(fold.Train)
		if err != nil {
			return errors.Trace(err)
		}
		trainLabels, err := fitted.Labels(fold.Train)
		if err != nil {
			return errors.Trace(err)
		}
		if degenerate(trainLabels) {
			return errors.Trace(ErrDegenerateFold)
		}
		local := Spawn(estimator)
		if err = local.Fit(newCtx, trainMatrix, trainLabels, foldConfig); err != nil {
			if errors.Is(err, ErrConvergence) {
				log.Logger().Warn("fold excluded from cross-validation",
					zap.Int("fold", foldId),
					zap.String("params", estimator.GetParams().ToString()),
					zap.Error(err))
				failed[foldId] = true
				span.Add(1)
				return nil
			}
			return errors.Trace(err)
		}
		testMatrix, err := fitted.Apply(fold.Test)
		if err != nil {
			return errors.Trace(err)
		}
		testLabels, err := fitted.Labels(fold.Test)
		if err != nil {
			return errors.Trace(err)
		}
		// a one-class validation partition has no ranking to score and
		// would drag a meaningless zero AUC into the mean
		if degenerate(testLabels) {
			return errors.Trace(ErrDegenerateFold)
		}
		scores[foldId] = EvaluateClassification(local, testMatrix, testLabels)
		span.Add(1)
		return nil
	})
	if err != nil {
		return CVResult{}, errors.Trace(err)
	}
	result := CVResult{Params: estimator.GetParams().Copy()}
	for foldId, score := range scores {
		if failed[foldId] {
			result.Failed++
			continue
		}
		result.FoldScores = append(result.FoldScores, score)
	}
	result.Mean = meanScore(result.FoldScores)
	return result, nil
}

func degenerate(labels []int) bool {
	for _, label := range labels[1:] {
		if label != labels[0] {
			return false
		}
	}
	return true
}

func meanScore(scores []Score) Score {
	if len(scores) == 0 {
		return Score{}
	}
	var mean Score
	for _, score := range scores {
		mean.Accuracy += score.Accuracy
		mean.Precision += score.Precision
		mean.Recall += score.Recall
		mean.AUC += score.AUC
	}
	n := float32(len(scores))
	mean.Accuracy /= n
	mean.Precision /= n
	mean.Recall /= n
	mean.AUC /= n
	return mean
}

// SearchResult contains the return of hyper-parameter search.
type SearchResult struct {
	BestScore  Score
	BestParams model.Params
	BestIndex  int
	Results    []CVResult
}

// GridSearchCV cross-validates every combination in the grid and keeps the
// candidate with the best mean AUC.
func GridSearchCV(ctx context.Context, estimator Classifier, rcp *recipe.Recipe,
	folds []dataset.Fold, paramGrid model.ParamsGrid, config *FitConfig) (SearchResult, error) {
	// Retrieve parameter names and length
	paramNames := make([]model.ParamName, 0, paramGrid.Len())
	for paramName := range paramGrid {
		paramNames = append(paramNames, paramName)
	}
	sort.Slice(paramNames, func(i, j int) bool { return paramNames[i] < paramNames[j] })
	total := paramGrid.NumCombinations()
	// Construct DFS procedure
	results := SearchResult{Results: make([]CVResult, 0, total)}
	newCtx, span := progress.Start(ctx, "GridSearchCV", total)
	defer span.End()
	var dfs func(deep int, params model.Params) error
	dfs = func(deep int, params model.Params) error {
		if deep == len(paramNames) {
			log.Logger().Info(fmt.Sprintf("grid search %v/%v", span.Count(), total),
				zap.Any("params", params))
			estimator.Clear()
			estimator.SetParams(estimator.GetParams().Overwrite(params))
			result, err := CrossValidate(newCtx, estimator, rcp, folds, config)
			if err != nil {
				return errors.Trace(err)
			}
			results.Results = append(results.Results, result)
			if len(results.Results) == 1 || result.Mean.BetterThan(results.BestScore) {
				results.BestScore = result.Mean
				results.BestParams = params.Copy()
				results.BestIndex = len(results.Results) - 1
			}
			span.Add(1)
			return nil
		}
		paramName := paramNames[deep]
		for _, val := range paramGrid[paramName] {
			params[paramName] = val
			if err := dfs(deep+1, params); err != nil {
				return errors.Trace(err)
			}
		}
		return nil
	}
	if err := dfs(0, model.Params{}); err != nil {
		return SearchResult{}, errors.Trace(err)
	}
	return results, nil
}

// LatinHypercubeSearchCV samples candidates with one stratum per trial in
// every dimension. When the default grid is smaller than the trial budget it
// degrades to an exhaustive grid search.
func LatinHypercubeSearchCV(ctx context.Context, estimator Classifier, rcp *recipe.Recipe,
	folds []dataset.Fold, numTrials int, seed int64, config *FitConfig) (SearchResult, error) {
	if estimator.GetParamsGrid().NumCombinations() <= numTrials {
		return GridSearchCV(ctx, estimator, rcp, folds, estimator.GetParamsGrid(), config)
	}
	ranges := estimator.GetParamsRanges()
	paramNames := make([]model.ParamName, 0, len(ranges))
	for paramName := range ranges {
		paramNames = append(paramNames, paramName)
	}
	sort.Slice(paramNames, func(i, j int) bool { return paramNames[i] < paramNames[j] })
	rng := base.NewRandomGenerator(seed)
	candidates := make([]model.Params, numTrials)
	for i := range candidates {
		candidates[i] = model.Params{}
	}
	for _, paramName := range paramNames {
		r := ranges[paramName]
		strata := rng.Perm(numTrials)
		for i, stratum := range strata {
			position := (float64(stratum) + rng.Float64()) / float64(numTrials)
			value := r.Low + position*(r.High-r.Low)
			if r.Int {
				candidates[i][paramName] = int(value + 0.5)
			} else {
				candidates[i][paramName] = value
			}
		}
	}
	results := SearchResult{Results: make([]CVResult, 0, numTrials)}
	newCtx, span := progress.Start(ctx, "LatinHypercubeSearchCV", numTrials)
	defer span.End()
	for i, params := range candidates {
		log.Logger().Info(fmt.Sprintf("latin hypercube search %v/%v", i+1, numTrials),
			zap.Any("params", params))
		estimator.Clear()
		estimator.SetParams(estimator.GetParams().Overwrite(params))
		result, err := CrossValidate(newCtx, estimator, rcp, folds, config)
		if err != nil {
			return SearchResult{}, errors.Trace(err)
		}
		results.Results = append(results.Results, result)
		if len(results.Results) == 1 || result.Mean.BetterThan(results.BestScore) {
			results.BestScore = result.Mean
			results.BestParams = params.Copy()
			results.BestIndex = len(results.Results) - 1
		}
		span.Add(1)
	}
	return results, nil
}
