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

package rating

import (
	"context"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/comrec-io/comrec/base/log"
	"github.com/comrec-io/comrec/base/progress"
	"github.com/comrec-io/comrec/common/floats"
	"github.com/comrec-io/comrec/dataset"
	"github.com/comrec-io/comrec/model"
)

// BiasedMF is the biased matrix factorization baseline:
//
//	\hat{r}_{uj} = \mu + b_u + b_j + p_u^T q_j
//
// trained by stochastic gradient descent on the squared error.
type BiasedMF struct {
	BaseMatrixFactorization
	// model parameters
	UserBias   []float32
	ItemBias   []float32
	UserFactor [][]float32
	ItemFactor [][]float32
	// hyper-parameters
	nFactors   int
	nEpochs    int
	lr         float32
	maxLr      float32
	regB       float32
	regU       float32
	regI       float32
	initMean   float32
	initStdDev float32
	boldDriver bool
}

// NewBiasedMF creates a BiasedMF model.
func NewBiasedMF(params model.Params) *BiasedMF {
	mf := new(BiasedMF)
	mf.SetParams(params)
	return mf
}

// SetParams sets hyper-parameters of the BiasedMF model.
func (mf *BiasedMF) SetParams(params model.Params) {
	mf.BaseModel.SetParams(params)
	mf.nFactors = mf.Params.GetInt(model.NFactors, 16)
	mf.nEpochs = mf.Params.GetInt(model.NEpochs, 50)
	mf.lr = mf.Params.GetFloat32(model.Lr, 0.005)
	mf.maxLr = mf.Params.GetFloat32(model.MaxLr, 0)
	mf.regB = mf.Params.GetFloat32(model.RegB, 0.02)
	mf.regU = mf.Params.GetFloat32(model.RegU, 0.02)
	mf.regI = mf.Params.GetFloat32(model.RegI, 0.02)
	mf.initMean = mf.Params.GetFloat32(model.InitMean, 0)
	mf.initStdDev = mf.Params.GetFloat32(model.InitStdDev, 0.001)
	mf.boldDriver = mf.Params.GetBool(model.BoldDriver, false)
}

func (mf *BiasedMF) GetParamsGrid(withSize bool) model.ParamsGrid {
	return model.ParamsGrid{
		model.NFactors:   lo.If(withSize, []interface{}{8, 16, 32, 64}).Else([]interface{}{16}),
		model.Lr:         []interface{}{0.001, 0.005, 0.01, 0.05},
		model.RegB:       []interface{}{0.001, 0.005, 0.01, 0.05, 0.1},
		model.RegU:       []interface{}{0.001, 0.005, 0.01, 0.05, 0.1},
		model.RegI:       []interface{}{0.001, 0.005, 0.01, 0.05, 0.1},
		model.InitMean:   []interface{}{0},
		model.InitStdDev: []interface{}{0.001, 0.005, 0.01, 0.05, 0.1},
	}
}

// Fit the BiasedMF model.
func (mf *BiasedMF) Fit(ctx context.Context, trainSet, testSet *dataset.Dataset, config *FitConfig) (Score, error) {
	log.Logger().Info("fit biased matrix factorization",
		zap.Int("train_set_size", trainSet.CountRatings()),
		zap.Int("test_set_size", testSet.CountRatings()),
		zap.Any("params", mf.GetParams()),
		zap.Any("config", config))
	mf.Init(trainSet)
	rng := mf.GetRandomGenerator()
	numUsers := trainSet.CountUsers()
	numItems := trainSet.CountItems()
	mf.UserBias = rng.NormalVector(numUsers, mf.initMean, mf.initStdDev)
	mf.ItemBias = rng.NormalVector(numItems, mf.initMean, mf.initStdDev)
	mf.UserFactor = rng.NormalMatrix(numUsers, mf.nFactors, mf.initMean, mf.initStdDev)
	mf.ItemFactor = rng.NormalMatrix(numItems, mf.nFactors, mf.initMean, mf.initStdDev)

	lr := mf.lr
	_, span := progress.Start(ctx, "BiasedMF.Fit", mf.nEpochs)
	for epoch := 1; epoch <= mf.nEpochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return Score{}, err
		}
		loss := float32(0)
		trainSet.ForEachRating(func(userIndex, itemIndex int32, rating float32) {
			prediction := mf.internalPredict(userIndex, itemIndex)
			diff := rating - prediction
			loss += diff * diff
			// update biases
			userBias := mf.UserBias[userIndex]
			itemBias := mf.ItemBias[itemIndex]
			mf.UserBias[userIndex] += lr * (diff - mf.regB*userBias)
			mf.ItemBias[itemIndex] += lr * (diff - mf.regB*itemBias)
			loss += mf.regB * (userBias*userBias + itemBias*itemBias)
			// update latent factors
			userFactor := mf.UserFactor[userIndex]
			itemFactor := mf.ItemFactor[itemIndex]
			for f := 0; f < mf.nFactors; f++ {
				puf := userFactor[f]
				qjf := itemFactor[f]
				userFactor[f] += lr * (diff*qjf - mf.regU*puf)
				itemFactor[f] += lr * (diff*puf - mf.regI*qjf)
				loss += mf.regU*puf*puf + mf.regI*qjf*qjf
			}
		})
		loss *= 0.5
		factor, converged := mf.isConverged(epoch, loss, mf.boldDriver)
		lr = scaleLearningRate(lr, factor, mf.maxLr)
		if epoch%config.Verbose == 0 || epoch == mf.nEpochs {
			score := Evaluate(mf, testSet)
			log.Logger().Debug("fit biased matrix factorization",
				zap.Int("epoch", epoch),
				zap.Float32("loss", loss),
				zap.Float32("RMSE", score.RMSE),
				zap.Float32("MAE", score.MAE))
		}
		span.Add(1)
		if converged {
			break
		}
	}
	span.End()
	score := Evaluate(mf, testSet)
	log.Logger().Info("fit biased matrix factorization complete",
		zap.Float32("RMSE", score.RMSE),
		zap.Float32("MAE", score.MAE))
	return score, nil
}

// Predict by user id and item id. Unknown ids fall back to the parts of the
// baseline that are known.
func (mf *BiasedMF) Predict(userId, itemId string) float32 {
	userIndex := mf.UserIndex.ToIndex(userId)
	itemIndex := mf.ItemIndex.ToIndex(itemId)
	if userIndex < 0 {
		log.Logger().Warn("unknown user", zap.String("user_id", userId))
	}
	if itemIndex < 0 {
		log.Logger().Warn("unknown item", zap.String("item_id", itemId))
	}
	return mf.internalPredict(userIndex, itemIndex)
}

func (mf *BiasedMF) internalPredict(userIndex, itemIndex int32) float32 {
	prediction := mf.GlobalMean
	if userIndex >= 0 {
		prediction += mf.UserBias[userIndex]
	}
	if itemIndex >= 0 {
		prediction += mf.ItemBias[itemIndex]
	}
	if userIndex >= 0 && itemIndex >= 0 {
		prediction += floats.Dot(mf.UserFactor[userIndex], mf.ItemFactor[itemIndex])
	}
	return prediction
}

// Clear parameters of the BiasedMF model.
func (mf *BiasedMF) Clear() {
	mf.UserIndex = nil
	mf.ItemIndex = nil
	mf.UserBias = nil
	mf.ItemBias = nil
	mf.UserFactor = nil
	mf.ItemFactor = nil
}

// Invalid reports whether the BiasedMF model is untrained.
func (mf *BiasedMF) Invalid() bool {
	return mf == nil || mf.UserIndex == nil || mf.ItemIndex == nil || mf.UserFactor == nil
}
