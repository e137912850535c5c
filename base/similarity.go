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

package base

import (
	"github.com/chewxy/math32"
)

// FuncSimilarity computes the similarity between a pair of sparse vectors.
type FuncSimilarity func(a, b *SparseVector) float32

// CosineSimilarity computes the cosine similarity between a pair of vectors.
func CosineSimilarity(a, b *SparseVector) float32 {
	m, n, l := float32(0), float32(0), float32(0)
	a.ForIntersection(b, func(_ int32, a, b float32) {
		m += a * a
		n += b * b
		l += a * b
	})
	return l / (math32.Sqrt(m) * math32.Sqrt(n))
}

// PearsonSimilarity computes the absolute Pearson correlation coefficient
// between a pair of vectors.
func PearsonSimilarity(a, b *SparseVector) float32 {
	// Mean of a
	meanA := a.Mean()
	// Mean of b
	meanB := b.Mean()
	// Mean-centered cosine
	m, n, l := float32(0), float32(0), float32(0)
	a.ForIntersection(b, func(_ int32, a, b float32) {
		ratingA := a - meanA
		ratingB := b - meanB
		m += ratingA * ratingA
		n += ratingB * ratingB
		l += ratingA * ratingB
	})
	return math32.Abs(l) / (math32.Sqrt(m) * math32.Sqrt(n))
}
