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
	"sort"
)

// SparseVector is the data structure of a sparse vector. Indices are kept
// sorted so that lookups and intersections run on ordered pairs.
type SparseVector struct {
	Indices []int32
	Values  []float32
	sorted  bool
}

// NewSparseVector creates an empty sparse vector.
func NewSparseVector() *SparseVector {
	return &SparseVector{
		Indices: make([]int32, 0),
		Values:  make([]float32, 0),
	}
}

// Add a new entry. Entries must be unique per index.
func (vec *SparseVector) Add(index int32, value float32) {
	vec.Indices = append(vec.Indices, index)
	vec.Values = append(vec.Values, value)
	vec.sorted = false
}

// Len returns the number of entries.
func (vec *SparseVector) Len() int {
	if vec == nil {
		return 0
	}
	return len(vec.Indices)
}

func (vec *SparseVector) Less(i, j int) bool {
	return vec.Indices[i] < vec.Indices[j]
}

func (vec *SparseVector) Swap(i, j int) {
	vec.Indices[i], vec.Indices[j] = vec.Indices[j], vec.Indices[i]
	vec.Values[i], vec.Values[j] = vec.Values[j], vec.Values[i]
}

// SortIndex sorts entries by index.
func (vec *SparseVector) SortIndex() {
	if !vec.sorted {
		sort.Sort(vec)
		vec.sorted = true
	}
}

// Get returns the value at an index. The second return value reports whether
// the index exists.
func (vec *SparseVector) Get(index int32) (float32, bool) {
	if vec == nil {
		return 0, false
	}
	vec.SortIndex()
	pos := sort.Search(len(vec.Indices), func(i int) bool { return vec.Indices[i] >= index })
	if pos < len(vec.Indices) && vec.Indices[pos] == index {
		return vec.Values[pos], true
	}
	return 0, false
}

// Mean of the values.
func (vec *SparseVector) Mean() float32 {
	if vec.Len() == 0 {
		return 0
	}
	sum := float32(0)
	for _, v := range vec.Values {
		sum += v
	}
	return sum / float32(vec.Len())
}

// ForEach iterates entries in index order.
func (vec *SparseVector) ForEach(f func(i int, index int32, value float32)) {
	if vec == nil {
		return
	}
	vec.SortIndex()
	for i := range vec.Indices {
		f(i, vec.Indices[i], vec.Values[i])
	}
}

// ForIntersection iterates indices shared by two sparse vectors.
func (vec *SparseVector) ForIntersection(other *SparseVector, f func(index int32, a, b float32)) {
	// Sort indices of the left vector
	vec.SortIndex()
	// Sort indices of the right vector
	other.SortIndex()
	// Iterate in the intersection
	i, j := 0, 0
	for i < vec.Len() && j < other.Len() {
		if vec.Indices[i] == other.Indices[j] {
			f(vec.Indices[i], vec.Values[i], other.Values[j])
			i++
			j++
		} else if vec.Indices[i] < other.Indices[j] {
			i++
		} else {
			j++
		}
	}
}
