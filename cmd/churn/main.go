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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/churn-io/churn/base/log"
	"github.com/churn-io/churn/cmd/version"
	"github.com/churn-io/churn/config"
	"github.com/churn-io/churn/dataset"
	"github.com/churn-io/churn/model"
	"github.com/churn-io/churn/model/churn"
	"github.com/churn-io/churn/recipe"
	"github.com/churn-io/churn/report"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var churnCommand = &cobra.Command{
	Use:   "churn",
	Short: "Customer churn analysis and prediction pipeline.",
	Run: func(cmd *cobra.Command, args []string) {
		// Show version
		if showVersion, _ := cmd.PersistentFlags().GetBool("version"); showVersion {
			fmt.Println(version.BuildInfo())
			return
		}

		// setup logger
		debug, _ := cmd.PersistentFlags().GetBool("debug")
		log.SetLogger(cmd.PersistentFlags(), debug)

		// load config
		configPath, _ := cmd.PersistentFlags().GetString("config")
		log.Logger().Info("load config", zap.String("config", configPath))
		conf, err := config.LoadConfig(configPath)
		if err != nil {
			log.Logger().Fatal("failed to load config", zap.Error(err))
		}
		if jobs, _ := cmd.PersistentFlags().GetInt("jobs"); jobs > 0 {
			conf.Search.Jobs = jobs
		}

		if err = run(cmd.Context(), conf); err != nil {
			log.Logger().Fatal("failed to run pipeline", zap.Error(err))
		}
	},
}

func init() {
	log.AddFlags(churnCommand.PersistentFlags())
	churnCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
	churnCommand.PersistentFlags().BoolP("version", "v", false, "churn version")
	churnCommand.PersistentFlags().StringP("config", "c", "churn.toml", "configuration file path")
	churnCommand.PersistentFlags().Int("jobs", 0, "number of folds evaluated concurrently (overrides config)")
}

func main() {
	if err := churnCommand.Execute(); err != nil {
		log.Logger().Fatal("failed to execute", zap.Error(err))
	}
}

// metrics is the JSON artifact summarizing one run.
type metrics struct {
	Model       string                `json:"model"`
	Params      model.Params          `json:"params"`
	FoldScores  []churn.Score         `json:"fold_scores"`
	FoldMean    churn.Score           `json:"fold_mean"`
	FailedFolds int                   `json:"failed_folds"`
	TestScore   churn.Score           `json:"test_score"`
	Confusion   churn.ConfusionMatrix `json:"confusion"`
}

func run(ctx context.Context, conf *config.Config) error {
	if err := os.MkdirAll(conf.Output.Directory, 0755); err != nil {
		return errors.Trace(err)
	}

	// load and clean
	table, err := loadData(conf)
	if err != nil {
		return errors.Trace(err)
	}

	// exploratory report
	description, err := report.Describe(table, conf.Data.Outcome)
	if err != nil {
		return errors.Trace(err)
	}
	reportFile, err := os.Create(filepath.Join(conf.Output.Directory, "report.txt"))
	if err != nil {
		return errors.Trace(err)
	}
	defer reportFile.Close()
	if err = description.Write(reportFile); err != nil {
		return errors.Trace(err)
	}

	// partition
	train, test, err := dataset.StratifiedSplit(table, conf.Data.Outcome, conf.Split.TrainFraction, conf.Split.Seed)
	if err != nil {
		return errors.Trace(err)
	}
	folds, err := dataset.StratifiedKFold(train, conf.Data.Outcome, conf.Split.Folds, conf.Split.Seed)
	if err != nil {
		return errors.Trace(err)
	}

	// preprocessing recipe
	numeric := table.NumericColumns()
	rcp := recipe.New(conf.Data.Outcome, conf.Data.PositiveLevel).
		OneHot(table.CategoricalColumns(conf.Data.Outcome)...).
		YeoJohnson(numeric...).
		Normalize(numeric...)

	// model competition
	selection, err := search(ctx, conf, rcp, folds)
	if err != nil {
		return errors.Trace(err)
	}

	// final fit and held-out evaluation
	fitConfig := churn.NewFitConfig().SetJobs(conf.Search.Jobs)
	selection.Estimator.Clear()
	selection.Estimator.SetParams(selection.Estimator.GetParams().Overwrite(selection.BestParams))
	pipeline, err := churn.FitPipeline(ctx, rcp, train, selection.Estimator, fitConfig)
	if err != nil {
		return errors.Trace(err)
	}
	testScore, confusion, err := pipeline.Evaluate(test)
	if err != nil {
		return errors.Trace(err)
	}
	log.Logger().Info("evaluate on test partition",
		append([]zap.Field{zap.String("model", selection.Name)}, testScore.ZapFields()...)...)

	// explanations
	if err = explain(conf, pipeline, test, reportFile); err != nil {
		return errors.Trace(err)
	}

	// artifacts
	if err = pipeline.Save(filepath.Join(conf.Output.Directory, "pipeline.gob")); err != nil {
		return errors.Trace(err)
	}
	result := metrics{
		Model:       selection.Name,
		Params:      selection.BestParams,
		FoldScores:  selection.Report.FoldScores,
		FoldMean:    selection.Report.Mean,
		FailedFolds: selection.Report.Failed,
		TestScore:   testScore,
		Confusion:   confusion,
	}
	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(os.WriteFile(filepath.Join(conf.Output.Directory, "metrics.json"), encoded, 0644))
}

func loadData(conf *config.Config) (*dataset.Table, error) {
	table, err := dataset.LoadCSV(conf.Data.Path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	table = table.Drop(conf.Data.Drop...)
	for _, rule := range conf.Data.Replace {
		if err = table.ReplaceValues(rule.Column, map[string]string{rule.From: rule.To}); err != nil {
			return nil, errors.Trace(err)
		}
	}
	for _, column := range conf.Data.RecodeBinary {
		if err = table.RecodeBinary(column, conf.Data.RecodeNegative, conf.Data.RecodePositive); err != nil {
			return nil, errors.Trace(err)
		}
	}
	outcome, err := table.Column(conf.Data.Outcome)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if outcome.Kind != dataset.String {
		return nil, errors.NotValidf("outcome column %s is not categorical", conf.Data.Outcome)
	}
	return table.DropMissing(), nil
}

// search runs the configured strategy and normalizes its outcome into a
// Selection with a report cross-validation pass.
func search(ctx context.Context, conf *config.Config, rcp *recipe.Recipe, folds []dataset.Fold) (*churn.Selection, error) {
	fitConfig := churn.NewFitConfig().SetJobs(conf.Search.Jobs)
	candidates := churn.DefaultCandidates(conf.Split.Seed)
	switch conf.Search.Strategy {
	case "grid":
		return churn.SelectModel(ctx, candidates, rcp, folds, fitConfig)
	case "lhs":
		selection := &churn.Selection{Results: make(map[string]churn.SearchResult)}
		bar := progressbar.Default(int64(len(candidates)), "latin hypercube search")
		for _, candidate := range candidates {
			result, err := churn.LatinHypercubeSearchCV(ctx, candidate.Estimator, rcp, folds,
				conf.Search.Trials, conf.Split.Seed, fitConfig)
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
			_ = bar.Add(1)
		}
		return withReport(ctx, selection, rcp, folds, fitConfig)
	case "tpe":
		creators := make(map[string]churn.ModelCreator, len(candidates))
		for _, candidate := range candidates {
			estimator := candidate.Estimator
			creators[candidate.Name] = func() churn.Classifier {
				return churn.Spawn(estimator)
			}
		}
		searched, err := churn.NewModelSearch(creators, folds, rcp, fitConfig).Optimize(conf.Search.Trials)
		if err != nil {
			return nil, errors.Trace(err)
		}
		selection := &churn.Selection{
			Name:        searched.Type,
			BestParams:  searched.Params,
			SearchScore: searched.Score,
		}
		for _, candidate := range candidates {
			if candidate.Name == searched.Type {
				selection.Estimator = candidate.Estimator
			}
		}
		return withReport(ctx, selection, rcp, folds, fitConfig)
	default:
		return nil, errors.NotValidf("search strategy %s", conf.Search.Strategy)
	}
}

// withReport re-validates the winner so reported fold scores are independent
// of the selection.
func withReport(ctx context.Context, selection *churn.Selection, rcp *recipe.Recipe,
	folds []dataset.Fold, fitConfig *churn.FitConfig) (*churn.Selection, error) {
	selection.Estimator.Clear()
	selection.Estimator.SetParams(selection.Estimator.GetParams().Overwrite(selection.BestParams))
	reportPass, err := churn.CrossValidate(ctx, selection.Estimator, rcp, folds, fitConfig)
	if err != nil {
		return nil, errors.Trace(err)
	}
	selection.Report = reportPass
	return selection, nil
}

// explain appends permutation importances and partial dependence curves of
// the most important numeric features to the report.
func explain(conf *config.Config, pipeline *churn.Pipeline, test *dataset.Table, reportFile *os.File) error {
	matrix, err := pipeline.Recipe.Apply(test)
	if err != nil {
		return errors.Trace(err)
	}
	labels, err := pipeline.Recipe.Labels(test)
	if err != nil {
		return errors.Trace(err)
	}
	importances, err := report.PermutationImportance(pipeline.Model, matrix, labels,
		conf.Output.ImportanceRepeats, conf.Search.Jobs, conf.Split.Seed)
	if err != nil {
		return errors.Trace(err)
	}
	if _, err = fmt.Fprintf(reportFile, "\npermutation importance\n"); err != nil {
		return errors.Trace(err)
	}
	if err = report.WriteImportances(reportFile, importances); err != nil {
		return errors.Trace(err)
	}
	// a dependence grid only makes sense over a continuous axis, so
	// indicator features are skipped
	numeric := mapset.NewSet(pipeline.Recipe.NumericFeatures()...)
	var top []report.Importance
	for _, importance := range importances {
		if numeric.Contains(importance.Feature) && len(top) < 5 {
			top = append(top, importance)
		}
	}
	if _, err = fmt.Fprintf(reportFile, "\npartial dependence\n"); err != nil {
		return errors.Trace(err)
	}
	bar := progressbar.Default(int64(len(top)), "partial dependence")
	for _, importance := range top {
		pd, err := report.ComputePartialDependence(pipeline.Model, matrix,
			importance.Feature, conf.Output.DependenceGrid)
		if err != nil {
			return errors.Trace(err)
		}
		if err = report.WritePartialDependence(reportFile, pd); err != nil {
			return errors.Trace(err)
		}
		_ = bar.Add(1)
	}
	return nil
}
