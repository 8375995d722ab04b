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

package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/juju/errors"
	"github.com/spf13/viper"
)

// Config is the configuration of the analysis pipeline.
type Config struct {
	Data   DataConfig   `mapstructure:"data"`
	Split  SplitConfig  `mapstructure:"split"`
	Search SearchConfig `mapstructure:"search"`
	Output OutputConfig `mapstructure:"output"`
}

// DataConfig describes the source table and its outcome column.
type DataConfig struct {
	// Path is the CSV file holding the customer table.
	Path string `mapstructure:"path" validate:"required"`
	// Outcome is the column predicted by the pipeline.
	Outcome string `mapstructure:"outcome" validate:"required"`
	// PositiveLevel is the outcome level treated as churn.
	PositiveLevel string `mapstructure:"positive_level" validate:"required"`
	// NegativeLevel is the outcome level treated as retained.
	NegativeLevel string `mapstructure:"negative_level" validate:"required"`
	// Drop lists non-predictor columns removed on load, such as row
	// identifiers whose levels never repeat.
	Drop []string `mapstructure:"drop"`
	// RecodeBinary lists 0/1 numeric columns recoded to categorical.
	RecodeBinary []string `mapstructure:"recode_binary"`
	// RecodeNegative is the level a 0 indicator maps to.
	RecodeNegative string `mapstructure:"recode_negative" validate:"required"`
	// RecodePositive is the level a 1 indicator maps to.
	RecodePositive string `mapstructure:"recode_positive" validate:"required"`
	// Replace rewrites cell values before any other step.
	Replace []ReplaceRule `mapstructure:"replace"`
}

// ReplaceRule rewrites one cell value of one column.
type ReplaceRule struct {
	Column string `mapstructure:"column" validate:"required"`
	From   string `mapstructure:"from" validate:"required"`
	To     string `mapstructure:"to"`
}

// SplitConfig describes the train/test split and the fold count.
type SplitConfig struct {
	TrainFraction float64 `mapstructure:"train_fraction" validate:"gt=0,lt=1"`
	Folds         int     `mapstructure:"folds" validate:"gte=2"`
	Seed          int64   `mapstructure:"seed"`
}

// SearchConfig describes the hyper-parameter search.
type SearchConfig struct {
	// Strategy selects the search: exhaustive grid, Latin hypercube
	// sampling or tree-structured Parzen estimation.
	Strategy string `mapstructure:"strategy" validate:"oneof=grid lhs tpe"`
	// Trials bounds lhs and tpe searches.
	Trials int `mapstructure:"trials" validate:"gte=1"`
	Jobs   int `mapstructure:"jobs" validate:"gte=1"`
}

// OutputConfig describes the artifacts written after the run.
type OutputConfig struct {
	Directory         string `mapstructure:"directory" validate:"required"`
	ImportanceRepeats int    `mapstructure:"importance_repeats" validate:"gte=1"`
	DependenceGrid    int    `mapstructure:"dependence_grid" validate:"gte=2"`
}

func setDefault() {
	// [data]
	viper.SetDefault("data.path", "data/telco.csv")
	viper.SetDefault("data.outcome", "Churn")
	viper.SetDefault("data.positive_level", "Left")
	viper.SetDefault("data.negative_level", "Current")
	viper.SetDefault("data.drop", []string{"customerID"})
	viper.SetDefault("data.recode_negative", "No")
	viper.SetDefault("data.recode_positive", "Yes")
	// [split]
	viper.SetDefault("split.train_fraction", 0.8)
	viper.SetDefault("split.folds", 10)
	viper.SetDefault("split.seed", 100)
	// [search]
	viper.SetDefault("search.strategy", "grid")
	viper.SetDefault("search.trials", 20)
	viper.SetDefault("search.jobs", 1)
	// [output]
	viper.SetDefault("output.directory", "output")
	viper.SetDefault("output.importance_repeats", 5)
	viper.SetDefault("output.dependence_grid", 20)
}

// GetDefaultConfig returns the default configuration.
func GetDefaultConfig() *Config {
	setDefault()
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(err)
	}
	return &config
}

// Validate checks field constraints.
func (config *Config) Validate() error {
	if err := validator.New().Struct(config); err != nil {
		return errors.NewNotValid(err, "invalid config")
	}
	return nil
}

// LoadConfig loads and validates the configuration from a TOML file.
func LoadConfig(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.NotFoundf("config %s", path)
	}
	setDefault()
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return nil, errors.Trace(err)
	}
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, errors.Trace(err)
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &config, nil
}
