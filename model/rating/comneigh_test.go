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
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comrec-io/comrec/community"
	"github.com/comrec-io/comrec/dataset"
	"github.com/comrec-io/comrec/model"
)

func TestComNeighSVD_Fit(t *testing.T) {
	// dense 3x3 rating matrix, short random walks
	data := dataset.NewDataset(0, 0)
	ratings := [][]float32{{5, 3, 4}, {4, 3, 5}, {1, 2, 1}}
	users := []string{"a", "b", "c"}
	items := []string{"x", "y", "z"}
	for u, row := range ratings {
		for i, rating := range row {
			data.AddRating(users[u], items[i], rating)
		}
	}
	trainSet, testSet := data.SplitRatings(0.2, 1)
	svd := NewComNeighSVD(model.Params{
		model.NFactors:      4,
		model.NEpochs:       10,
		model.KNNNeighbors:  2,
		model.WalktrapSteps: 1,
		model.RandomState:   42,
	})
	score, err := svd.Fit(context.Background(), trainSet, testSet, NewFitConfig())
	require.NoError(t, err)
	assert.False(t, math32.IsNaN(score.RMSE))
	assert.False(t, math32.IsNaN(score.MAE))
	assert.False(t, svd.Invalid())
	// communities were detected for both sides
	assert.NotNil(t, svd.UserMemberships)
	assert.NotNil(t, svd.ItemMemberships)
	assert.GreaterOrEqual(t, svd.UserMemberships.NumColumns(), 1)
	assert.GreaterOrEqual(t, svd.ItemMemberships.NumColumns(), 1)
	// predictions are finite for every known pair
	for _, user := range users {
		for _, item := range items {
			assert.False(t, math32.IsNaN(svd.Predict(user, item)))
		}
	}
	// unknown ids fall back to the global mean
	assert.Equal(t, trainSet.GlobalMean(), svd.Predict("nobody", "x"))
	assert.Equal(t, trainSet.GlobalMean(), svd.Predict("a", "nothing"))
}

func TestComNeighSVD_Deterministic(t *testing.T) {
	trainSet, testSet := blockData(6, 6).SplitRatings(0.2, 0)
	params := model.Params{
		model.NFactors:     4,
		model.NEpochs:      3,
		model.KNNNeighbors: 3,
		model.RandomState:  42,
	}
	first := NewComNeighSVD(params)
	firstScore, err := first.Fit(context.Background(), trainSet, testSet, NewFitConfig())
	require.NoError(t, err)
	second := NewComNeighSVD(params)
	secondScore, err := second.Fit(context.Background(), trainSet, testSet, NewFitConfig())
	require.NoError(t, err)
	assert.Equal(t, firstScore, secondScore)
	assert.Equal(t, first.Predict("u0", "i0"), second.Predict("u0", "i0"))
	assert.Equal(t, first.Predict("u5", "i5"), second.Predict("u5", "i5"))
}

func TestComNeighSVD_Overlapping(t *testing.T) {
	trainSet, testSet := blockData(6, 6).SplitRatings(0.2, 0)
	svd := NewComNeighSVD(model.Params{
		model.NEpochs:            3,
		model.KNNNeighbors:       3,
		model.CommunityAlgorithm: string(community.SLPAAlgorithm),
		model.Overlapping:        true,
		model.RandomState:        42,
	})
	score, err := svd.Fit(context.Background(), trainSet, testSet, NewFitConfig())
	require.NoError(t, err)
	assert.False(t, math32.IsNaN(score.RMSE))
}

func TestComNeighSVD_ColdStartUser(t *testing.T) {
	// one user with a single rating; find a split that holds it out so the
	// user has no training feedback at all
	data := dataset.NewDataset(0, 0)
	for _, user := range []string{"a", "b", "c"} {
		for i, item := range []string{"x", "y", "z"} {
			data.AddRating(user, item, float32(i+2))
		}
	}
	data.AddRating("cold", "x", 5)
	coldIndex := data.GetUserDict().ToIndex("cold")
	var trainSet, testSet *dataset.Dataset
	found := false
	for seed := int64(0); seed < 100 && !found; seed++ {
		trainSet, testSet = data.SplitRatings(0.3, seed)
		if trainSet.GetUserFeedback()[coldIndex].Len() == 0 {
			found = true
		}
	}
	require.True(t, found)
	svd := NewComNeighSVD(model.Params{
		model.NEpochs:      5,
		model.KNNNeighbors: 2,
		model.RandomState:  42,
	})
	score, err := svd.Fit(context.Background(), trainSet, testSet, NewFitConfig())
	require.NoError(t, err)
	assert.False(t, math32.IsNaN(score.RMSE))
	// the cold user gets a pure baseline prediction without NaNs
	for item := int32(0); item < int32(trainSet.CountItems()); item++ {
		assert.False(t, math32.IsNaN(svd.internalPredict(coldIndex, item)))
	}
	assert.False(t, svd.IsUserPredictable(coldIndex))
}

func TestComNeighSVD_BoldDriver(t *testing.T) {
	trainSet, testSet := blockData(6, 6).SplitRatings(0.2, 0)
	svd := NewComNeighSVD(model.Params{
		model.NEpochs:      10,
		model.KNNNeighbors: 3,
		model.BoldDriver:   true,
		model.MaxLr:        0.02,
		model.RandomState:  42,
	})
	score, err := svd.Fit(context.Background(), trainSet, testSet, NewFitConfig())
	require.NoError(t, err)
	assert.False(t, math32.IsNaN(score.RMSE))
}

func TestComNeighSVD_BadParams(t *testing.T) {
	trainSet, testSet := blockData(4, 4).SplitRatings(0.25, 0)
	// unknown similarity measure
	svd := NewComNeighSVD(model.Params{model.KNNSimilarity: "jaccard"})
	_, err := svd.Fit(context.Background(), trainSet, testSet, NewFitConfig())
	assert.Error(t, err)
	// unknown community detection algorithm
	svd = NewComNeighSVD(model.Params{model.CommunityAlgorithm: "louvain"})
	_, err = svd.Fit(context.Background(), trainSet, testSet, NewFitConfig())
	assert.Error(t, err)
}

func TestComNeighSVD_Clear(t *testing.T) {
	trainSet, testSet := blockData(4, 4).SplitRatings(0.25, 0)
	svd := NewComNeighSVD(model.Params{model.NEpochs: 1, model.KNNNeighbors: 2})
	_, err := svd.Fit(context.Background(), trainSet, testSet, NewFitConfig())
	require.NoError(t, err)
	assert.False(t, svd.Invalid())
	svd.Clear()
	assert.True(t, svd.Invalid())
}

func TestComNeighSVD_Canceled(t *testing.T) {
	trainSet, testSet := blockData(4, 4).SplitRatings(0.25, 0)
	svd := NewComNeighSVD(model.Params{model.NEpochs: 100, model.KNNNeighbors: 2})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svd.Fit(ctx, trainSet, testSet, NewFitConfig())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestComNeighSVD_GetParamsGrid(t *testing.T) {
	svd := NewComNeighSVD(nil)
	grid := svd.GetParamsGrid(false)
	assert.Positive(t, grid.Len())
	larger := svd.GetParamsGrid(true)
	assert.GreaterOrEqual(t, len(larger[model.NFactors]), len(grid[model.NFactors]))
}
