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
	"sort"

	"github.com/c-bata/goptuna"
	"github.com/c-bata/goptuna/tpe"
	"github.com/churn-io/churn/dataset"
	"github.com/churn-io/churn/model"
	"github.com/churn-io/churn/recipe"
	"github.com/juju/errors"
	"golang.org/x/exp/maps"
)

type ModelCreator func() Classifier

// SearchedModel is the winner of a model search.
type SearchedModel struct {
	Type   string
	Params model.Params
	Score  Score
}

// ModelSearch tunes hyper-parameters across classifier families with a
// single goptuna study. The family is itself a categorical parameter.
type ModelSearch struct {
	modelCreators map[string]ModelCreator
	modelTypes    []string
	folds         []dataset.Fold
	recipe        *recipe.Recipe
	config        *FitConfig
	result        SearchedModel
}

func NewModelSearch(models map[string]ModelCreator, folds []dataset.Fold, rcp *recipe.Recipe, config *FitConfig) *ModelSearch {
	modelTypes := maps.Keys(models)
	sort.Strings(modelTypes)
	return &ModelSearch{
		modelCreators: models,
		modelTypes:    modelTypes,
		folds:         folds,
		recipe:        rcp,
		config:        config,
	}
}

func (ms *ModelSearch) Objective(trial goptuna.Trial) (float64, error) {
	if len(ms.modelCreators) == 0 {
		return 0, errors.New("no model to search")
	}
	modelType, err := trial.SuggestCategorical("Model", ms.modelTypes)
	if err != nil {
		return 0, errors.Trace(err)
	}
	m := ms.modelCreators[modelType]()
	m.SetParams(m.SuggestParams(trial))
	result, err := CrossValidate(context.Background(), m, ms.recipe, ms.folds, ms.config)
	if err != nil {
		return 0, errors.Trace(err)
	}
	if result.Mean.AUC > ms.result.Score.AUC {
		ms.result = SearchedModel{
			Type:   modelType,
			Params: m.GetParams(),
			Score:  result.Mean,
		}
	}
	return float64(result.Mean.AUC), nil
}

func (ms *ModelSearch) Result() SearchedModel {
	return ms.result
}

// Optimize runs a TPE study over the objective for numTrials trials.
func (ms *ModelSearch) Optimize(numTrials int) (SearchedModel, error) {
	study, err := goptuna.CreateStudy("ModelSearch",
		goptuna.StudyOptionDirection(goptuna.StudyDirectionMaximize),
		goptuna.StudyOptionSampler(tpe.NewSampler()))
	if err != nil {
		return SearchedModel{}, errors.Trace(err)
	}
	if err = study.Optimize(ms.Objective, numTrials); err != nil {
		return SearchedModel{}, errors.Trace(err)
	}
	return ms.result, nil
}
