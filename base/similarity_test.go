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
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

func TestCosineSimilarity(t *testing.T) {
	a := NewSparseVector()
	a.Add(0, 5)
	a.Add(1, 3)
	b := NewSparseVector()
	b.Add(0, 5)
	b.Add(1, 3)
	assert.InDelta(t, 1.0, CosineSimilarity(a, b), 1e-6)
	// similarity is computed over the intersection only
	c := NewSparseVector()
	c.Add(1, 3)
	c.Add(2, 4)
	assert.InDelta(t, 1.0, CosineSimilarity(a, c), 1e-6)
	// disjoint vectors have no similarity
	d := NewSparseVector()
	d.Add(7, 1)
	assert.True(t, math32.IsNaN(CosineSimilarity(a, d)))
}

func TestPearsonSimilarity(t *testing.T) {
	a := NewSparseVector()
	a.Add(0, 1)
	a.Add(1, 2)
	a.Add(2, 3)
	b := NewSparseVector()
	b.Add(0, 3)
	b.Add(1, 2)
	b.Add(2, 1)
	// perfectly anti-correlated, the measure is absolute
	assert.InDelta(t, 1.0, PearsonSimilarity(a, b), 1e-6)
	// disjoint vectors have no similarity
	c := NewSparseVector()
	c.Add(7, 1)
	assert.True(t, math32.IsNaN(PearsonSimilarity(a, c)))
}
