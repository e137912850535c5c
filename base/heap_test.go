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

	"github.com/stretchr/testify/assert"
)

func TestMaxHeap(t *testing.T) {
	heap := NewMaxHeap[int32](3)
	for i, score := range []float32{0.2, 0.9, 0.1, 0.5, 0.7} {
		heap.Add(int32(i), score)
	}
	elems, scores := heap.ToSorted()
	assert.Equal(t, []int32{1, 4, 3}, elems)
	assert.Equal(t, []float32{0.9, 0.7, 0.5}, scores)
}

func TestMaxHeap_Underfilled(t *testing.T) {
	heap := NewMaxHeap[string](10)
	heap.Add("a", 1)
	heap.Add("b", 2)
	elems, scores := heap.ToSorted()
	assert.Equal(t, []string{"b", "a"}, elems)
	assert.Equal(t, []float32{2, 1}, scores)
}
