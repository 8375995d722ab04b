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

package model

import (
	"github.com/churn-io/churn/base"
)

type Model interface {
	// SetParams sets hyper-parameters for the model.
	SetParams(params Params)
	// GetParams returns all hyper-parameters.
	GetParams() Params
	// Clear resets the state of the model.
	Clear()
}

// BaseModel model must be included by every model. Hyper-parameters,
// random generator and fitted state are managed the BaseModel.
type BaseModel struct {
	Params Params               // Hyper-parameters
	rng    base.RandomGenerator // Random generator
}

// SetParams sets hyper-parameters for the BaseModel.
func (model *BaseModel) SetParams(params Params) {
	model.Params = params
	model.rng = base.NewRandomGenerator(model.Params.GetInt64(RandomState, 0))
}

// GetParams returns all hyper-parameters.
func (model *BaseModel) GetParams() Params {
	return model.Params
}

// GetRandomGenerator returns the random generator seeded by RandomState.
func (model *BaseModel) GetRandomGenerator() base.RandomGenerator {
	return model.rng
}
