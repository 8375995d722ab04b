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

// Package churn implements binary churn classifiers and their
// cross-validated hyper-parameter search.
package churn

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"io"
	"reflect"
	"runtime"

	"github.com/c-bata/goptuna"
	"github.com/churn-io/churn/base/encoding"
	"github.com/churn-io/churn/base/log"
	"github.com/churn-io/churn/common/parallel"
	"github.com/churn-io/churn/model"
	"github.com/churn-io/churn/recipe"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

var (
	// ErrDegenerateFold reports a partition holding a single outcome class.
	// No classifier can be fit on such a training partition and no ranking
	// can be scored on such a validation partition.
	ErrDegenerateFold = errors.New("partition contains a single outcome class")
	// ErrConvergence reports a fit whose loss diverged.
	ErrConvergence = errors.New("fit failed to converge")
)

func init() {
	// concrete types that may appear inside Params
	gob.Register(0)
	gob.Register(int64(0))
	gob.Register(float64(0))
	gob.Register(float32(0))
	gob.Register(false)
	gob.Register("")
}

type Score struct {
	Accuracy  float32
	Precision float32
	Recall    float32
	AUC       float32
}

func (score Score) ZapFields() []zap.Field {
	return []zap.Field{
		zap.Float32("Accuracy", score.Accuracy),
		zap.Float32("Precision", score.Precision),
		zap.Float32("Recall", score.Recall),
		zap.Float32("AUC", score.AUC),
	}
}

func (score Score) GetValue() float32 {
	return score.AUC
}

func (score Score) BetterThan(s Score) bool {
	return score.AUC > s.AUC
}

type FitConfig struct {
	Jobs    int
	Verbose int
}

func NewFitConfig() *FitConfig {
	return &FitConfig{
		Jobs:    1,
		Verbose: 10,
	}
}

func (config *FitConfig) SetVerbose(verbose int) *FitConfig {
	config.Verbose = verbose
	return config
}

func (config *FitConfig) SetJobs(jobs int) *FitConfig {
	config.Jobs = jobs
	return config
}

func (config *FitConfig) LoadDefaultIfNil() *FitConfig {
	if config == nil {
		return NewFitConfig()
	}
	return config
}

// Classifier is a binary classifier over encoded design matrices.
// Predictions are probabilities of the positive class.
type Classifier interface {
	model.Model
	// Fit trains the classifier. Returns ErrConvergence when the loss
	// diverges.
	Fit(ctx context.Context, train *recipe.Matrix, labels []int, config *FitConfig) error
	// Predict scores a single feature vector.
	Predict(x []float32) float32
	// BatchPredict scores every row of a design matrix.
	BatchPredict(m *recipe.Matrix) []float32
	// SuggestParams samples hyper-parameters from a trial.
	SuggestParams(trial goptuna.Trial) model.Params
	// GetParamsGrid returns the default grid search candidates.
	GetParamsGrid() model.ParamsGrid
	// GetParamsRanges returns the sampling ranges for Latin hypercube search.
	GetParamsRanges() model.ParamsRanges
	Marshal(w io.Writer) error
	Unmarshal(r io.Reader) error
}

const (
	headerRandomForest     = "RandomForest"
	headerKNN              = "KNN"
	headerGradientBoosting = "GradientBoosting"
)

// batchPredict scores rows concurrently. Prediction is read-only on the
// fitted model and every write lands at its own index.
func batchPredict(estimator Classifier, m *recipe.Matrix) []float32 {
	predictions := make([]float32, m.NumRows())
	parallel.For(m.NumRows(), runtime.NumCPU(), func(i int) {
		predictions[i] = estimator.Predict(m.Rows[i])
	})
	return predictions
}

func MarshalModel(w io.Writer, m Classifier) error {
	// write header
	var err error
	switch m.(type) {
	case *RandomForest:
		err = encoding.WriteString(w, headerRandomForest)
	case *KNN:
		err = encoding.WriteString(w, headerKNN)
	case *GradientBoosting:
		err = encoding.WriteString(w, headerGradientBoosting)
	default:
		return fmt.Errorf("unknown model: %v", reflect.TypeOf(m))
	}
	if err != nil {
		return err
	}
	return m.Marshal(w)
}

func UnmarshalModel(r io.Reader) (Classifier, error) {
	// read header
	header, err := encoding.ReadString(r)
	if err != nil {
		return nil, err
	}
	var m Classifier
	switch header {
	case headerRandomForest:
		m = new(RandomForest)
	case headerKNN:
		m = new(KNN)
	case headerGradientBoosting:
		m = new(GradientBoosting)
	default:
		return nil, fmt.Errorf("unknown model: %v", header)
	}
	if err := m.Unmarshal(r); err != nil {
		return nil, errors.Trace(err)
	}
	return m, nil
}

// Clone duplicates a classifier, fitted state included.
func Clone(m Classifier) Classifier {
	var buf bytes.Buffer
	if err := MarshalModel(&buf, m); err != nil {
		log.Logger().Fatal("failed to clone model", zap.Error(err))
	}
	cloned, err := UnmarshalModel(&buf)
	if err != nil {
		log.Logger().Fatal("failed to clone model", zap.Error(err))
	}
	return cloned
}

// Spawn creates an unfitted classifier of the same type carrying the same
// hyper-parameters.
func Spawn(m Classifier) Classifier {
	spawned := reflect.New(reflect.TypeOf(m).Elem()).Interface().(Classifier)
	spawned.SetParams(m.GetParams().Copy())
	return spawned
}
