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
	"fmt"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comrec-io/comrec/dataset"
	"github.com/comrec-io/comrec/model"
)

// blockData builds ratings with a block structure: the first half of the
// users likes the first half of the items and vice versa.
func blockData(numUsers, numItems int) *dataset.Dataset {
	data := dataset.NewDataset(numUsers, numItems)
	for u := 0; u < numUsers; u++ {
		for i := 0; i < numItems; i++ {
			rating := float32(2)
			if (u < numUsers/2) == (i < numItems/2) {
				rating = 4
			}
			data.AddRating(fmt.Sprintf("u%d", u), fmt.Sprintf("i%d", i), rating)
		}
	}
	return data
}

func TestBiasedMF_Fit(t *testing.T) {
	trainSet, testSet := blockData(8, 8).SplitRatings(0.2, 0)
	mf := NewBiasedMF(model.Params{
		model.NFactors:    4,
		model.NEpochs:     30,
		model.Lr:          0.01,
		model.InitStdDev:  0.001,
		model.RandomState: 42,
	})
	score, err := mf.Fit(context.Background(), trainSet, testSet, NewFitConfig())
	require.NoError(t, err)
	assert.False(t, math32.IsNaN(score.RMSE))
	assert.False(t, math32.IsNaN(score.MAE))
	assert.Less(t, score.RMSE, float32(2))
	assert.LessOrEqual(t, score.MAE, score.RMSE)
	assert.False(t, mf.Invalid())
	assert.True(t, mf.IsUserPredictable(0))
	assert.False(t, mf.IsUserPredictable(100))
}

func TestBiasedMF_Deterministic(t *testing.T) {
	trainSet, testSet := blockData(8, 8).SplitRatings(0.2, 0)
	params := model.Params{
		model.NFactors:    4,
		model.NEpochs:     5,
		model.RandomState: 42,
	}
	first := NewBiasedMF(params)
	firstScore, err := first.Fit(context.Background(), trainSet, testSet, NewFitConfig())
	require.NoError(t, err)
	second := NewBiasedMF(params)
	secondScore, err := second.Fit(context.Background(), trainSet, testSet, NewFitConfig())
	require.NoError(t, err)
	assert.Equal(t, firstScore, secondScore)
	assert.Equal(t, first.Predict("u0", "i0"), second.Predict("u0", "i0"))
}

func TestBiasedMF_BoldDriver(t *testing.T) {
	trainSet, testSet := blockData(8, 8).SplitRatings(0.2, 0)
	mf := NewBiasedMF(model.Params{
		model.NEpochs:     20,
		model.BoldDriver:  true,
		model.MaxLr:       0.02,
		model.RandomState: 42,
	})
	score, err := mf.Fit(context.Background(), trainSet, testSet, NewFitConfig())
	require.NoError(t, err)
	assert.False(t, math32.IsNaN(score.RMSE))
}

func TestBiasedMF_UnknownIds(t *testing.T) {
	trainSet, testSet := blockData(4, 4).SplitRatings(0.25, 0)
	mf := NewBiasedMF(model.Params{model.NEpochs: 2})
	_, err := mf.Fit(context.Background(), trainSet, testSet, NewFitConfig())
	require.NoError(t, err)
	// unknown ids fall back to the known parts of the baseline
	assert.InDelta(t, trainSet.GlobalMean(), mf.Predict("nobody", "nothing"), 1e-6)
}

func TestBiasedMF_Clear(t *testing.T) {
	trainSet, testSet := blockData(4, 4).SplitRatings(0.25, 0)
	mf := NewBiasedMF(model.Params{model.NEpochs: 1})
	_, err := mf.Fit(context.Background(), trainSet, testSet, NewFitConfig())
	require.NoError(t, err)
	assert.False(t, mf.Invalid())
	mf.Clear()
	assert.True(t, mf.Invalid())
}

func TestBiasedMF_Canceled(t *testing.T) {
	trainSet, testSet := blockData(4, 4).SplitRatings(0.25, 0)
	mf := NewBiasedMF(model.Params{model.NEpochs: 100})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := mf.Fit(ctx, trainSet, testSet, NewFitConfig())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEvaluate_Empty(t *testing.T) {
	trainSet, testSet := blockData(4, 4).SplitRatings(0.25, 0)
	mf := NewBiasedMF(model.Params{model.NEpochs: 1})
	_, err := mf.Fit(context.Background(), trainSet, testSet, NewFitConfig())
	require.NoError(t, err)
	assert.Equal(t, Score{}, Evaluate(mf, dataset.NewDataset(0, 0)))
}
