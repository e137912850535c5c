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

	"github.com/chewxy/math32"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/comrec-io/comrec/base"
	"github.com/comrec-io/comrec/base/log"
	"github.com/comrec-io/comrec/base/progress"
	"github.com/comrec-io/comrec/common/floats"
	"github.com/comrec-io/comrec/community"
	"github.com/comrec-io/comrec/dataset"
	"github.com/comrec-io/comrec/graph"
	"github.com/comrec-io/comrec/model"
)

// ComNeighSVD is a community-aware hybrid of SVD++ and the item-item
// neighborhood model. On top of the biased latent factor baseline it adds
// community biases for the user and item communities, implicit item offsets
// over rated items (Y) and community co-rated items (Z), community factor
// offsets (OCu, OCi), and two neighborhoods: W/C over the items the user
// rated and D over the items the user's communities rated.
//
// Communities are detected before the first epoch on k-NN similarity graphs
// of the rating matrix, and their membership levels weight every community
// term of the prediction.
type ComNeighSVD struct {
	BaseMatrixFactorization
	// model parameters
	UserBias    []float32
	ItemBias    []float32
	UserComBias []float32
	ItemComBias []float32
	UserFactor  [][]float32 // p_u
	ItemFactor  [][]float32 // q_j
	ImplFactor  [][]float32 // y_k, items rated by the user
	ComFactor   [][]float32 // z_k, items rated by the user's communities
	UserComOff  [][]float32 // oc_u, user community factor offsets
	ItemComOff  [][]float32 // oc_i, item community factor offsets
	NeighborW   [][]float32 // w_jk
	NeighborC   [][]float32 // c_jk
	NeighborD   [][]float32 // d_jk
	// community structure
	UserMemberships *graph.Memberships
	ItemMemberships *graph.Memberships
	comRatings      []*base.SparseVector // community x item averages
	userComRatings  []*base.SparseVector // user x item community averages
	userComItems    *indexListCache
	trainSet        *dataset.Dataset
	// hyper-parameters
	nFactors   int
	nEpochs    int
	lr         float32
	lrN        float32
	lrC        float32
	lrCN       float32
	lrCF       float32
	maxLr      float32
	regB       float32
	regN       float32
	regU       float32
	regI       float32
	regC       float32
	regCN      float32
	regCF      float32
	initMean   float32
	initStdDev float32
	boldDriver bool
	// community detection hyper-parameters
	knnNeighbors       int
	knnSimilarity      string
	cdAlgorithm        community.Algorithm
	walktrapSteps      int
	overlapping        bool
	dmidIterationBound int
	dmidPrecision      float32
	dmidDelta          float32
	slpaThreshold      float32
	slpaMemorySize     int
}

// NewComNeighSVD creates a ComNeighSVD model.
func NewComNeighSVD(params model.Params) *ComNeighSVD {
	c := new(ComNeighSVD)
	c.SetParams(params)
	return c
}

// SetParams sets hyper-parameters of the ComNeighSVD model.
func (c *ComNeighSVD) SetParams(params model.Params) {
	c.BaseModel.SetParams(params)
	c.nFactors = c.Params.GetInt(model.NFactors, 10)
	c.nEpochs = c.Params.GetInt(model.NEpochs, 30)
	c.lr = c.Params.GetFloat32(model.Lr, 0.01)
	c.lrN = c.Params.GetFloat32(model.LrN, 0.01)
	c.lrC = c.Params.GetFloat32(model.LrC, 0.01)
	c.lrCN = c.Params.GetFloat32(model.LrCN, 0.01)
	c.lrCF = c.Params.GetFloat32(model.LrCF, 0.01)
	c.maxLr = c.Params.GetFloat32(model.MaxLr, 0)
	c.regB = c.Params.GetFloat32(model.RegB, 0.02)
	c.regN = c.Params.GetFloat32(model.RegN, 0.02)
	c.regU = c.Params.GetFloat32(model.RegU, 0.02)
	c.regI = c.Params.GetFloat32(model.RegI, 0.02)
	c.regC = c.Params.GetFloat32(model.RegC, 0.02)
	c.regCN = c.Params.GetFloat32(model.RegCN, 0.02)
	c.regCF = c.Params.GetFloat32(model.RegCF, 0.02)
	c.initMean = c.Params.GetFloat32(model.InitMean, 0)
	c.initStdDev = c.Params.GetFloat32(model.InitStdDev, 0.001)
	c.boldDriver = c.Params.GetBool(model.BoldDriver, false)
	c.knnNeighbors = c.Params.GetInt(model.KNNNeighbors, 10)
	c.knnSimilarity = c.Params.GetString(model.KNNSimilarity, model.SimilarityCosine)
	c.cdAlgorithm = community.Algorithm(c.Params.GetString(model.CommunityAlgorithm, string(community.WalktrapAlgorithm)))
	c.walktrapSteps = c.Params.GetInt(model.WalktrapSteps, 2)
	c.overlapping = c.Params.GetBool(model.Overlapping, true)
	c.dmidIterationBound = c.Params.GetInt(model.DMIDIterationBound, 1000)
	c.dmidPrecision = c.Params.GetFloat32(model.DMIDPrecisionFactor, 0.001)
	c.dmidDelta = c.Params.GetFloat32(model.DMIDProfitabilityDelta, 0.1)
	c.slpaThreshold = c.Params.GetFloat32(model.SLPAProbabilityThreshold, 0.15)
	c.slpaMemorySize = c.Params.GetInt(model.SLPAMemorySize, 100)
}

func (c *ComNeighSVD) GetParamsGrid(withSize bool) model.ParamsGrid {
	return model.ParamsGrid{
		model.NFactors:      lo.If(withSize, []interface{}{8, 10, 16, 32}).Else([]interface{}{10}),
		model.Lr:            []interface{}{0.001, 0.005, 0.01, 0.05},
		model.RegB:          []interface{}{0.005, 0.01, 0.05, 0.1},
		model.RegN:          []interface{}{0.005, 0.01, 0.05, 0.1},
		model.RegU:          []interface{}{0.005, 0.01, 0.05, 0.1},
		model.RegI:          []interface{}{0.005, 0.01, 0.05, 0.1},
		model.InitStdDev:    []interface{}{0.001, 0.005, 0.01},
		model.KNNNeighbors:  lo.If(withSize, []interface{}{10, 20, 50}).Else([]interface{}{10}),
		model.KNNSimilarity: []interface{}{model.SimilarityCosine, model.SimilarityPearson},
	}
}

// Fit the ComNeighSVD model. Community detection and parameter allocation
// happen before the first epoch; failures there abort the fit.
func (c *ComNeighSVD) Fit(ctx context.Context, trainSet, testSet *dataset.Dataset, config *FitConfig) (Score, error) {
	log.Logger().Info("fit community neighborhood SVD",
		zap.Int("train_set_size", trainSet.CountRatings()),
		zap.Int("test_set_size", testSet.CountRatings()),
		zap.Any("params", c.GetParams()),
		zap.Any("config", config))
	if err := c.initModel(ctx, trainSet, config); err != nil {
		return Score{}, errors.Trace(err)
	}

	lr, lrN, lrC, lrCN, lrCF := c.lr, c.lrN, c.lrC, c.lrCN, c.lrCF
	sumImpl := make([]float32, c.nFactors)
	sumCom := make([]float32, c.nFactors)
	sumUserOff := make([]float32, c.nFactors)
	sumItemOff := make([]float32, c.nFactors)
	_, span := progress.Start(ctx, "ComNeighSVD.Fit", c.nEpochs)
	for epoch := 1; epoch <= c.nEpochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return Score{}, err
		}
		loss := float32(0)
		trainSet.ForEachRating(func(userIndex, itemIndex int32, rating float32) {
			diff := rating - c.internalPredict(userIndex, itemIndex)
			loss += diff * diff

			ratedItems := trainSet.GetUserFeedback()[userIndex]
			comItems := c.userComItems.Get(userIndex)
			w := math32.Sqrt(float32(ratedItems.Len()))
			cw := math32.Sqrt(float32(len(comItems)))
			userComs := c.UserMemberships.Row(userIndex)
			itemComs := c.ItemMemberships.Row(itemIndex)

			// update baseline biases
			userBias := c.UserBias[userIndex]
			itemBias := c.ItemBias[itemIndex]
			c.UserBias[userIndex] += lr * (diff - c.regB*userBias)
			c.ItemBias[itemIndex] += lr * (diff - c.regB*itemBias)
			loss += c.regB * (userBias*userBias + itemBias*itemBias)

			// update community biases, weighted by membership level
			for _, e := range userComs {
				comBias := c.UserComBias[e.Community]
				c.UserComBias[e.Community] += lrC * (diff*e.Level - c.regC*comBias)
				loss += c.regC * comBias * comBias
			}
			for _, e := range itemComs {
				comBias := c.ItemComBias[e.Community]
				c.ItemComBias[e.Community] += lrC * (diff*e.Level - c.regC*comBias)
				loss += c.regC * comBias * comBias
			}

			// update the neighborhood over rated items
			ratedItems.ForEach(func(_ int, k int32, ruk float32) {
				buk := c.bias(userIndex, k)
				wjk := c.NeighborW[itemIndex][k]
				c.NeighborW[itemIndex][k] += lrN * (diff*(ruk-buk)/w - c.regN*wjk)
				loss += c.regN * wjk * wjk
				cjk := c.NeighborC[itemIndex][k]
				c.NeighborC[itemIndex][k] += lrN * (diff/w - c.regN*cjk)
				loss += c.regN * cjk * cjk
			})

			// update the neighborhood over community co-rated items
			for _, k := range comItems {
				rcuk, _ := c.userComRatings[userIndex].Get(k)
				buk := c.bias(userIndex, k)
				djk := c.NeighborD[itemIndex][k]
				c.NeighborD[itemIndex][k] += lrCN * (diff*(rcuk-buk)/cw - c.regCN*djk)
				loss += c.regCN * djk * djk
			}

			// update latent factors and their offsets
			c.sumOffsets(userIndex, itemIndex, ratedItems, comItems, w, cw, sumImpl, sumCom, sumUserOff, sumItemOff)
			userFactor := c.UserFactor[userIndex]
			itemFactor := c.ItemFactor[itemIndex]
			for f := 0; f < c.nFactors; f++ {
				puf := userFactor[f]
				qjf := itemFactor[f]
				userSide := puf + sumUserOff[f] + sumImpl[f] + sumCom[f]
				itemSide := qjf + sumItemOff[f]
				userFactor[f] += lr * (diff*itemSide - c.regU*puf)
				itemFactor[f] += lr * (diff*userSide - c.regI*qjf)
				loss += c.regU*puf*puf + c.regI*qjf*qjf
				if w > 0 {
					ratedItems.ForEach(func(_ int, k int32, _ float32) {
						ykf := c.ImplFactor[k][f]
						c.ImplFactor[k][f] += lr * (diff*itemSide/w - c.regU*ykf)
						loss += c.regU * ykf * ykf
					})
				}
				if cw > 0 {
					for _, k := range comItems {
						zkf := c.ComFactor[k][f]
						c.ComFactor[k][f] += lrCF * (diff*itemSide/cw - c.regCF*zkf)
						loss += c.regCF * zkf * zkf
					}
				}
				for _, e := range userComs {
					ocuf := c.UserComOff[e.Community][f]
					c.UserComOff[e.Community][f] += lrCF * (diff*e.Level*itemSide - c.regCF*ocuf)
					loss += c.regCF * ocuf * ocuf
				}
				for _, e := range itemComs {
					ocif := c.ItemComOff[e.Community][f]
					c.ItemComOff[e.Community][f] += lrCF * (diff*e.Level*userSide - c.regCF*ocif)
					loss += c.regCF * ocif * ocif
				}
			}
		})
		loss *= 0.5
		factor, converged := c.isConverged(epoch, loss, c.boldDriver)
		lr = scaleLearningRate(lr, factor, c.maxLr)
		lrN = scaleLearningRate(lrN, factor, c.maxLr)
		lrC = scaleLearningRate(lrC, factor, c.maxLr)
		lrCN = scaleLearningRate(lrCN, factor, c.maxLr)
		lrCF = scaleLearningRate(lrCF, factor, c.maxLr)
		if epoch%config.Verbose == 0 || epoch == c.nEpochs {
			score := Evaluate(c, testSet)
			log.Logger().Debug("fit community neighborhood SVD",
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
	score := Evaluate(c, testSet)
	log.Logger().Info("fit community neighborhood SVD complete",
		zap.Float32("RMSE", score.RMSE),
		zap.Float32("MAE", score.MAE))
	return score, nil
}

// initModel builds the similarity graphs, detects communities, computes the
// community rating aggregates and allocates all trainable parameters.
func (c *ComNeighSVD) initModel(ctx context.Context, trainSet *dataset.Dataset, config *FitConfig) error {
	c.Init(trainSet)
	numUsers := trainSet.CountUsers()
	numItems := trainSet.CountItems()

	// build k-NN similarity graphs
	builder, err := graph.NewKNNBuilder(c.knnNeighbors, c.knnSimilarity)
	if err != nil {
		return errors.Trace(err)
	}
	userGraph, itemGraph, err := builder.Build(ctx, trainSet, config.Jobs)
	if err != nil {
		return errors.Trace(err)
	}

	// detect user and item communities
	detector := community.NewDetector()
	detector.SetAlgorithm(c.cdAlgorithm)
	detector.SetOverlapping(c.overlapping)
	detector.SetWalktrapParameters(c.walktrapSteps)
	detector.SetDMIDParameters(c.dmidIterationBound, c.dmidPrecision, c.dmidDelta)
	detector.SetSLPAParameters(c.slpaThreshold, c.slpaMemorySize)
	detector.SetGraph(userGraph)
	if err = detector.DetectCommunities(ctx); err != nil {
		return errors.Trace(err)
	}
	c.UserMemberships = detector.Memberships()
	detector.SetGraph(itemGraph)
	if err = detector.DetectCommunities(ctx); err != nil {
		return errors.Trace(err)
	}
	c.ItemMemberships = detector.Memberships()

	// allocate trainable parameters
	rng := c.GetRandomGenerator()
	numUserComs := c.UserMemberships.NumColumns()
	numItemComs := c.ItemMemberships.NumColumns()
	c.UserBias = rng.NormalVector(numUsers, c.initMean, c.initStdDev)
	c.ItemBias = rng.NormalVector(numItems, c.initMean, c.initStdDev)
	c.UserComBias = rng.NormalVector(numUserComs, c.initMean, c.initStdDev)
	c.ItemComBias = rng.NormalVector(numItemComs, c.initMean, c.initStdDev)
	c.UserFactor = rng.NormalMatrix(numUsers, c.nFactors, c.initMean, c.initStdDev)
	c.ItemFactor = rng.NormalMatrix(numItems, c.nFactors, c.initMean, c.initStdDev)
	c.ImplFactor = rng.NormalMatrix(numItems, c.nFactors, c.initMean, c.initStdDev)
	c.ComFactor = rng.NormalMatrix(numItems, c.nFactors, c.initMean, c.initStdDev)
	c.UserComOff = rng.NormalMatrix(numUserComs, c.nFactors, c.initMean, c.initStdDev)
	c.ItemComOff = rng.NormalMatrix(numItemComs, c.nFactors, c.initMean, c.initStdDev)
	c.NeighborW = rng.NormalMatrix(numItems, numItems, c.initMean, c.initStdDev)
	c.NeighborC = rng.NormalMatrix(numItems, numItems, c.initMean, c.initStdDev)
	c.NeighborD = rng.NormalMatrix(numItems, numItems, c.initMean, c.initStdDev)

	// aggregate community ratings, then memoize per-user co-rated item lists
	c.comRatings = communityRatings(c.UserMemberships, trainSet)
	c.userComRatings = userCommunityRatings(c.UserMemberships, c.comRatings, numUsers)
	c.userComItems = newIndexListCache(func(userIndex int32) []int32 {
		return c.userComRatings[userIndex].Indices
	})
	c.trainSet = trainSet
	return nil
}

// bias is the community-aware baseline estimate of a rating.
func (c *ComNeighSVD) bias(userIndex, itemIndex int32) float32 {
	bias := c.GlobalMean + c.UserBias[userIndex] + c.ItemBias[itemIndex]
	for _, e := range c.UserMemberships.Row(userIndex) {
		bias += c.UserComBias[e.Community] * e.Level
	}
	for _, e := range c.ItemMemberships.Row(itemIndex) {
		bias += c.ItemComBias[e.Community] * e.Level
	}
	return bias
}

// sumOffsets accumulates the factor offset sums shared by prediction and
// training. Empty neighbor sets contribute zero.
func (c *ComNeighSVD) sumOffsets(userIndex, itemIndex int32, ratedItems *base.SparseVector, comItems []int32,
	w, cw float32, sumImpl, sumCom, sumUserOff, sumItemOff []float32) {
	floats.Zero(sumImpl)
	floats.Zero(sumCom)
	floats.Zero(sumUserOff)
	floats.Zero(sumItemOff)
	if w > 0 {
		ratedItems.ForEach(func(_ int, k int32, _ float32) {
			floats.MulConstAdd(c.ImplFactor[k], 1/w, sumImpl)
		})
	}
	if cw > 0 {
		for _, k := range comItems {
			floats.MulConstAdd(c.ComFactor[k], 1/cw, sumCom)
		}
	}
	for _, e := range c.UserMemberships.Row(userIndex) {
		floats.MulConstAdd(c.UserComOff[e.Community], e.Level, sumUserOff)
	}
	for _, e := range c.ItemMemberships.Row(itemIndex) {
		floats.MulConstAdd(c.ItemComOff[e.Community], e.Level, sumItemOff)
	}
}

// Predict by user id and item id. Unknown ids fall back to the global mean.
func (c *ComNeighSVD) Predict(userId, itemId string) float32 {
	userIndex := c.UserIndex.ToIndex(userId)
	itemIndex := c.ItemIndex.ToIndex(itemId)
	if userIndex < 0 {
		log.Logger().Warn("unknown user", zap.String("user_id", userId))
		return c.GlobalMean
	}
	if itemIndex < 0 {
		log.Logger().Warn("unknown item", zap.String("item_id", itemId))
		return c.GlobalMean
	}
	return c.internalPredict(userIndex, itemIndex)
}

func (c *ComNeighSVD) internalPredict(userIndex, itemIndex int32) float32 {
	ratedItems := c.trainSet.GetUserFeedback()[userIndex]
	comItems := c.userComItems.Get(userIndex)
	w := math32.Sqrt(float32(ratedItems.Len()))
	cw := math32.Sqrt(float32(len(comItems)))

	prediction := c.bias(userIndex, itemIndex)
	// neighborhood over rated items
	if w > 0 {
		ratedItems.ForEach(func(_ int, k int32, ruk float32) {
			buk := c.bias(userIndex, k)
			prediction += ((ruk-buk)*c.NeighborW[itemIndex][k] + c.NeighborC[itemIndex][k]) / w
		})
	}
	// neighborhood over community co-rated items
	if cw > 0 {
		for _, k := range comItems {
			rcuk, _ := c.userComRatings[userIndex].Get(k)
			buk := c.bias(userIndex, k)
			prediction += (rcuk - buk) * c.NeighborD[itemIndex][k] / cw
		}
	}
	// latent factors enriched by offsets
	userSide := make([]float32, c.nFactors)
	itemSide := make([]float32, c.nFactors)
	sumImpl := make([]float32, c.nFactors)
	sumCom := make([]float32, c.nFactors)
	c.sumOffsets(userIndex, itemIndex, ratedItems, comItems, w, cw, sumImpl, sumCom, userSide, itemSide)
	floats.Add(userSide, c.UserFactor[userIndex])
	floats.Add(userSide, sumImpl)
	floats.Add(userSide, sumCom)
	floats.Add(itemSide, c.ItemFactor[itemIndex])
	return prediction + floats.Dot(userSide, itemSide)
}

// Clear parameters of the ComNeighSVD model.
func (c *ComNeighSVD) Clear() {
	c.UserIndex = nil
	c.ItemIndex = nil
	c.UserBias = nil
	c.ItemBias = nil
	c.UserComBias = nil
	c.ItemComBias = nil
	c.UserFactor = nil
	c.ItemFactor = nil
	c.ImplFactor = nil
	c.ComFactor = nil
	c.UserComOff = nil
	c.ItemComOff = nil
	c.NeighborW = nil
	c.NeighborC = nil
	c.NeighborD = nil
	c.UserMemberships = nil
	c.ItemMemberships = nil
	c.comRatings = nil
	c.userComRatings = nil
	c.userComItems = nil
	c.trainSet = nil
}

// Invalid reports whether the ComNeighSVD model is untrained.
func (c *ComNeighSVD) Invalid() bool {
	return c == nil || c.UserIndex == nil || c.ItemIndex == nil || c.UserFactor == nil
}
