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
	"github.com/chewxy/math32"

	"github.com/comrec-io/comrec/dataset"
)

// Score records rating prediction accuracy.
type Score struct {
	RMSE float32
	MAE  float32
}

// Evaluate computes RMSE and MAE of a model over the observed ratings of a
// test set.
func Evaluate(estimator MatrixFactorization, testSet *dataset.Dataset) Score {
	sumSquares := float32(0)
	sumAbs := float32(0)
	count := 0
	testSet.ForEachRating(func(userIndex, itemIndex int32, rating float32) {
		diff := rating - estimator.internalPredict(userIndex, itemIndex)
		sumSquares += diff * diff
		sumAbs += math32.Abs(diff)
		count++
	})
	if count == 0 {
		return Score{}
	}
	return Score{
		RMSE: math32.Sqrt(sumSquares / float32(count)),
		MAE:  sumAbs / float32(count),
	}
}
