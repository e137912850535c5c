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

// Package rating implements rating prediction models trained by stochastic
// gradient descent.
package rating

import (
	"context"

	"github.com/bits-and-blooms/bitset"
	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/comrec-io/comrec/base/log"
	"github.com/comrec-io/comrec/dataset"
	"github.com/comrec-io/comrec/model"
)

const convergenceThreshold = 1e-5

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

// MatrixFactorization is the interface of rating prediction models.
type MatrixFactorization interface {
	model.Model
	// Fit a model with a train set and parameters. The test set is only used
	// for progress reporting and the returned score.
	Fit(ctx context.Context, trainSet, testSet *dataset.Dataset, config *FitConfig) (Score, error)
	// Predict the rating given by a user (userId) to an item (itemId).
	Predict(userId, itemId string) float32
	// internalPredict predicts the rating by a user index and an item index.
	internalPredict(userIndex, itemIndex int32) float32
	// GetUserIndex returns the user index.
	GetUserIndex() *dataset.FreqDict
	// GetItemIndex returns the item index.
	GetItemIndex() *dataset.FreqDict
}

// BaseMatrixFactorization is included by every rating prediction model.
type BaseMatrixFactorization struct {
	model.BaseModel
	UserIndex       *dataset.FreqDict
	ItemIndex       *dataset.FreqDict
	UserPredictable *bitset.BitSet
	ItemPredictable *bitset.BitSet
	GlobalMean      float32
	// convergence state
	lastLoss float32
}

// Init binds the model to a training set before the first epoch.
func (baseModel *BaseMatrixFactorization) Init(trainSet *dataset.Dataset) {
	baseModel.UserIndex = trainSet.GetUserDict()
	baseModel.ItemIndex = trainSet.GetItemDict()
	baseModel.GlobalMean = trainSet.GlobalMean()
	baseModel.lastLoss = 0
	// set user trained flags
	baseModel.UserPredictable = bitset.New(uint(trainSet.CountUsers()))
	for userIndex, feedback := range trainSet.GetUserFeedback() {
		if feedback.Len() > 0 {
			baseModel.UserPredictable.Set(uint(userIndex))
		}
	}
	// set item trained flags
	baseModel.ItemPredictable = bitset.New(uint(trainSet.CountItems()))
	for itemIndex, feedback := range trainSet.GetItemFeedback() {
		if feedback.Len() > 0 {
			baseModel.ItemPredictable.Set(uint(itemIndex))
		}
	}
}

func (baseModel *BaseMatrixFactorization) GetUserIndex() *dataset.FreqDict {
	return baseModel.UserIndex
}

func (baseModel *BaseMatrixFactorization) GetItemIndex() *dataset.FreqDict {
	return baseModel.ItemIndex
}

// IsUserPredictable returns false if the user has no feedback and its
// parameters were never trained.
func (baseModel *BaseMatrixFactorization) IsUserPredictable(userIndex int32) bool {
	if userIndex < 0 || uint(userIndex) >= baseModel.UserPredictable.Len() {
		return false
	}
	return baseModel.UserPredictable.Test(uint(userIndex))
}

// IsItemPredictable returns false if the item has no feedback and its
// parameters were never trained.
func (baseModel *BaseMatrixFactorization) IsItemPredictable(itemIndex int32) bool {
	if itemIndex < 0 || uint(itemIndex) >= baseModel.ItemPredictable.Len() {
		return false
	}
	return baseModel.ItemPredictable.Test(uint(itemIndex))
}

// isConverged implements the bold driver convergence check: the learning rate
// grows by 5% after an epoch that lowered the loss and halves otherwise. The
// returned factor scales all per-group learning rates.
func (baseModel *BaseMatrixFactorization) isConverged(epoch int, loss float32, boldDriver bool) (factor float32, converged bool) {
	factor = 1
	if epoch > 1 {
		delta := baseModel.lastLoss - loss
		if boldDriver {
			if delta > 0 {
				factor = 1.05
			} else {
				factor = 0.5
			}
		}
		converged = math32.Abs(delta) < convergenceThreshold
		if converged {
			log.Logger().Info("training converged",
				zap.Int("epoch", epoch),
				zap.Float32("loss", loss),
				zap.Float32("delta", delta))
		}
	}
	baseModel.lastLoss = loss
	return
}

// scaleLearningRate applies the bold driver factor within the maxLr cap.
// A zero cap means uncapped.
func scaleLearningRate(lr, factor, maxLr float32) float32 {
	lr *= factor
	if maxLr > 0 && lr > maxLr {
		lr = maxLr
	}
	return lr
}
