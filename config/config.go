// Copyright 2024 comrec Project Authors
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

// Package config loads and validates the TOML configuration file.
package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/juju/errors"
	"github.com/spf13/viper"

	"github.com/comrec-io/comrec/model"
	"github.com/comrec-io/comrec/model/rating"
)

// Config is the configuration of the recommender.
type Config struct {
	Data      DataConfig      `mapstructure:"data"`
	KNN       KNNConfig       `mapstructure:"knn"`
	Community CommunityConfig `mapstructure:"community"`
	Model     ModelConfig     `mapstructure:"model"`
	Train     TrainConfig     `mapstructure:"train"`
}

// DataConfig describes the rating data source and the train/test split.
type DataConfig struct {
	Path      string  `mapstructure:"path"`
	Separator string  `mapstructure:"separator"`
	TestRatio float32 `mapstructure:"test_ratio" validate:"gte=0,lt=1"`
	Seed      int64   `mapstructure:"seed"`
}

// KNNConfig describes the k-NN similarity graphs.
type KNNConfig struct {
	K          int    `mapstructure:"k" validate:"gt=0"`
	Similarity string `mapstructure:"similarity" validate:"oneof=cosine pearson"`
}

// CommunityConfig describes community detection.
type CommunityConfig struct {
	Algorithm   string         `mapstructure:"algorithm" validate:"oneof=walktrap dmid slpa"`
	Overlapping bool           `mapstructure:"overlapping"`
	Walktrap    WalktrapConfig `mapstructure:"walktrap"`
	DMID        DMIDConfig     `mapstructure:"dmid"`
	SLPA        SLPAConfig     `mapstructure:"slpa"`
}

type WalktrapConfig struct {
	Steps int `mapstructure:"steps" validate:"gt=0"`
}

type DMIDConfig struct {
	IterationBound     int     `mapstructure:"iteration_bound" validate:"gt=0"`
	PrecisionFactor    float32 `mapstructure:"precision_factor" validate:"gt=0"`
	ProfitabilityDelta float32 `mapstructure:"profitability_delta" validate:"gte=0,lt=1"`
}

type SLPAConfig struct {
	ProbabilityThreshold float32 `mapstructure:"probability_threshold" validate:"gte=0,lte=1"`
	MemorySize           int     `mapstructure:"memory_size" validate:"gt=0"`
}

// ModelConfig describes the hyper-parameters of the rating model.
type ModelConfig struct {
	NFactors    int     `mapstructure:"n_factors" validate:"gt=0"`
	NEpochs     int     `mapstructure:"n_epochs" validate:"gt=0"`
	Lr          float32 `mapstructure:"lr" validate:"gt=0"`
	LrN         float32 `mapstructure:"lr_n" validate:"gt=0"`
	LrC         float32 `mapstructure:"lr_c" validate:"gt=0"`
	LrCN        float32 `mapstructure:"lr_cn" validate:"gt=0"`
	LrCF        float32 `mapstructure:"lr_cf" validate:"gt=0"`
	MaxLr       float32 `mapstructure:"max_lr" validate:"gte=0"`
	RegB        float32 `mapstructure:"reg_b" validate:"gte=0"`
	RegN        float32 `mapstructure:"reg_n" validate:"gte=0"`
	RegU        float32 `mapstructure:"reg_u" validate:"gte=0"`
	RegI        float32 `mapstructure:"reg_i" validate:"gte=0"`
	RegC        float32 `mapstructure:"reg_c" validate:"gte=0"`
	RegCN       float32 `mapstructure:"reg_cn" validate:"gte=0"`
	RegCF       float32 `mapstructure:"reg_cf" validate:"gte=0"`
	InitMean    float32 `mapstructure:"init_mean"`
	InitStdDev  float32 `mapstructure:"init_std" validate:"gt=0"`
	BoldDriver  bool    `mapstructure:"bold_driver"`
	RandomState int64   `mapstructure:"random_state"`
}

// TrainConfig describes the training run.
type TrainConfig struct {
	Jobs    int `mapstructure:"jobs" validate:"gt=0"`
	Verbose int `mapstructure:"verbose" validate:"gt=0"`
}

func setDefault() {
	viper.SetDefault("data.separator", ",")
	viper.SetDefault("data.test_ratio", 0.2)
	viper.SetDefault("data.seed", 0)
	viper.SetDefault("knn.k", 10)
	viper.SetDefault("knn.similarity", "cosine")
	viper.SetDefault("community.algorithm", "walktrap")
	viper.SetDefault("community.overlapping", true)
	viper.SetDefault("community.walktrap.steps", 2)
	viper.SetDefault("community.dmid.iteration_bound", 1000)
	viper.SetDefault("community.dmid.precision_factor", 0.001)
	viper.SetDefault("community.dmid.profitability_delta", 0.1)
	viper.SetDefault("community.slpa.probability_threshold", 0.15)
	viper.SetDefault("community.slpa.memory_size", 100)
	viper.SetDefault("model.n_factors", 10)
	viper.SetDefault("model.n_epochs", 30)
	viper.SetDefault("model.lr", 0.01)
	viper.SetDefault("model.lr_n", 0.01)
	viper.SetDefault("model.lr_c", 0.01)
	viper.SetDefault("model.lr_cn", 0.01)
	viper.SetDefault("model.lr_cf", 0.01)
	viper.SetDefault("model.max_lr", 0.0)
	viper.SetDefault("model.reg_b", 0.02)
	viper.SetDefault("model.reg_n", 0.02)
	viper.SetDefault("model.reg_u", 0.02)
	viper.SetDefault("model.reg_i", 0.02)
	viper.SetDefault("model.reg_c", 0.02)
	viper.SetDefault("model.reg_cn", 0.02)
	viper.SetDefault("model.reg_cf", 0.02)
	viper.SetDefault("model.init_mean", 0.0)
	viper.SetDefault("model.init_std", 0.001)
	viper.SetDefault("model.bold_driver", false)
	viper.SetDefault("model.random_state", 0)
	viper.SetDefault("train.jobs", 1)
	viper.SetDefault("train.verbose", 10)
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

// LoadConfig loads and validates the configuration from a TOML file.
func LoadConfig(path string) (*Config, error) {
	setDefault()
	viper.SetConfigType("toml")
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

// Validate the configuration.
func (config *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			fields := make([]string, 0, len(validationErrors))
			for _, fieldError := range validationErrors {
				fields = append(fields, fieldError.Namespace())
			}
			return errors.NotValidf("config fields %s", strings.Join(fields, ", "))
		}
		return errors.Trace(err)
	}
	return nil
}

// ModelParams converts the configuration to model hyper-parameters.
func (config *Config) ModelParams() model.Params {
	return model.Params{
		model.NFactors:           config.Model.NFactors,
		model.NEpochs:            config.Model.NEpochs,
		model.Lr:                 config.Model.Lr,
		model.LrN:                config.Model.LrN,
		model.LrC:                config.Model.LrC,
		model.LrCN:               config.Model.LrCN,
		model.LrCF:               config.Model.LrCF,
		model.MaxLr:              config.Model.MaxLr,
		model.RegB:               config.Model.RegB,
		model.RegN:               config.Model.RegN,
		model.RegU:               config.Model.RegU,
		model.RegI:               config.Model.RegI,
		model.RegC:               config.Model.RegC,
		model.RegCN:              config.Model.RegCN,
		model.RegCF:              config.Model.RegCF,
		model.InitMean:           config.Model.InitMean,
		model.InitStdDev:         config.Model.InitStdDev,
		model.BoldDriver:         config.Model.BoldDriver,
		model.RandomState:        config.Model.RandomState,
		model.KNNNeighbors:       config.KNN.K,
		model.KNNSimilarity:      config.KNN.Similarity,
		model.CommunityAlgorithm: config.Community.Algorithm,
		model.WalktrapSteps:      config.Community.Walktrap.Steps,
		model.Overlapping:        config.Community.Overlapping,

		model.DMIDIterationBound:       config.Community.DMID.IterationBound,
		model.DMIDPrecisionFactor:      config.Community.DMID.PrecisionFactor,
		model.DMIDProfitabilityDelta:   config.Community.DMID.ProfitabilityDelta,
		model.SLPAProbabilityThreshold: config.Community.SLPA.ProbabilityThreshold,
		model.SLPAMemorySize:           config.Community.SLPA.MemorySize,
	}
}

// FitConfig converts the configuration to a training configuration.
func (config *Config) FitConfig() *rating.FitConfig {
	return rating.NewFitConfig().
		SetJobs(config.Train.Jobs).
		SetVerbose(config.Train.Verbose)
}
