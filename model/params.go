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

package model

import (
	"github.com/comrec-io/comrec/base/log"
	"go.uber.org/zap"
)

// ParamName is the name of a hyper-parameter.
type ParamName string

// Predefined hyper-parameter names.
const (
	Lr          ParamName = "lr"           // learning rate for biases and factors
	LrN         ParamName = "lr_n"         // learning rate for neighborhood weights
	LrC         ParamName = "lr_c"         // learning rate for community biases
	LrCN        ParamName = "lr_cn"        // learning rate for community neighborhood weights
	LrCF        ParamName = "lr_cf"        // learning rate for community factor offsets
	MaxLr       ParamName = "max_lr"       // bold driver learning rate cap
	RegB        ParamName = "reg_b"        // regularization for biases
	RegN        ParamName = "reg_n"        // regularization for neighborhood weights
	RegU        ParamName = "reg_u"        // regularization for user factors
	RegI        ParamName = "reg_i"        // regularization for item factors
	RegC        ParamName = "reg_c"        // regularization for community biases
	RegCN       ParamName = "reg_cn"       // regularization for community neighborhood weights
	RegCF       ParamName = "reg_cf"       // regularization for community factor offsets
	NEpochs     ParamName = "n_epochs"     // number of epochs
	NFactors    ParamName = "n_factors"    // number of factors
	RandomState ParamName = "random_state" // random state (seed)
	InitMean    ParamName = "init_mean"    // mean of gaussian initial parameters
	InitStdDev  ParamName = "init_std"     // standard deviation of gaussian initial parameters
	BoldDriver  ParamName = "bold_driver"  // adaptive learning rate

	KNNNeighbors       ParamName = "knn_k"               // k for the k-NN similarity graphs
	KNNSimilarity      ParamName = "knn_similarity"      // similarity measure for the k-NN graphs
	CommunityAlgorithm ParamName = "community_algorithm" // community detection algorithm
	WalktrapSteps      ParamName = "walktrap_steps"      // steps for the Walktrap algorithm
	Overlapping        ParamName = "overlapping"         // allow overlapping communities

	DMIDIterationBound       ParamName = "dmid_iteration_bound"       // cascade iteration bound for DMID
	DMIDPrecisionFactor      ParamName = "dmid_precision_factor"      // power iteration precision for DMID
	DMIDProfitabilityDelta   ParamName = "dmid_profitability_delta"   // profitability threshold step for DMID
	SLPAProbabilityThreshold ParamName = "slpa_probability_threshold" // label retention threshold for SLPA
	SLPAMemorySize           ParamName = "slpa_memory_size"           // label memory size for SLPA
)

// Similarity measures for the k-NN similarity graphs.
const (
	SimilarityCosine  = "cosine"
	SimilarityPearson = "pearson"
)

// Params stores hyper-parameters for a model. It is a map between strings
// (names) and interface{}s (values).
type Params map[ParamName]interface{}

// GetInt gets an integer parameter by name. Returns _default if not exists or
// type doesn't match.
func (parameters Params) GetInt(name ParamName, _default int) int {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case int:
			return val
		default:
			log.Logger().Error("type mismatch",
				zap.String("param_name", string(name)),
				zap.Any("param_value", val))
		}
	}
	return _default
}

// GetInt64 gets a int64 parameter by name. Returns _default if not exists or
// type doesn't match. The type will be converted if given int.
func (parameters Params) GetInt64(name ParamName, _default int64) int64 {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case int64:
			return val
		case int:
			return int64(val)
		default:
			log.Logger().Error("type mismatch",
				zap.String("param_name", string(name)),
				zap.Any("param_value", val))
		}
	}
	return _default
}

// GetBool gets a bool parameter by name. Returns _default if not exists or
// type doesn't match.
func (parameters Params) GetBool(name ParamName, _default bool) bool {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case bool:
			return val
		default:
			log.Logger().Error("type mismatch",
				zap.String("param_name", string(name)),
				zap.Any("param_value", val))
		}
	}
	return _default
}

// GetFloat32 gets a float parameter by name. Returns _default if not exists or
// type doesn't match. The type will be converted if given int or float64.
func (parameters Params) GetFloat32(name ParamName, _default float32) float32 {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case float32:
			return val
		case float64:
			return float32(val)
		case int:
			return float32(val)
		default:
			log.Logger().Error("type mismatch",
				zap.String("param_name", string(name)),
				zap.Any("param_value", val))
		}
	}
	return _default
}

// GetString gets a string parameter. Returns _default if not exists or type
// doesn't match.
func (parameters Params) GetString(name ParamName, _default string) string {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case string:
			return val
		default:
			log.Logger().Error("type mismatch",
				zap.String("param_name", string(name)),
				zap.Any("param_value", val))
		}
	}
	return _default
}

// Copy hyper-parameters.
func (parameters Params) Copy() Params {
	newParams := make(Params)
	for k, v := range parameters {
		newParams[k] = v
	}
	return newParams
}

// Overwrite current hyper-parameters with given parameters.
func (parameters Params) Overwrite(params Params) Params {
	merged := make(Params)
	for k, v := range parameters {
		merged[k] = v
	}
	for k, v := range params {
		merged[k] = v
	}
	return merged
}

// ParamsGrid contains candidate for grid search.
type ParamsGrid map[ParamName][]interface{}

func (grid ParamsGrid) Len() int {
	return len(grid)
}
