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
	"container/heap"
	"sort"
)

// MaxHeap is designed for store K maximal elements. Heap is used to reduce time
// complexity and memory complexity in top-K searching.
type MaxHeap[T any] struct {
	Elem  []T       // store elements
	Score []float32 // store scores
	K     int       // the size of heap
}

// NewMaxHeap creates a MaxHeap.
func NewMaxHeap[T any](k int) *MaxHeap[T] {
	return &MaxHeap[T]{
		Elem:  make([]T, 0),
		Score: make([]float32, 0),
		K:     k,
	}
}

// Less returns true if the score of i-th item is less than the score of j-th item.
// It is a method of heap.Interface.
func (maxHeap *MaxHeap[T]) Less(i, j int) bool {
	return maxHeap.Score[i] < maxHeap.Score[j]
}

// Swap the i-th item with the j-th item. It is a method of heap.Interface.
func (maxHeap *MaxHeap[T]) Swap(i, j int) {
	maxHeap.Elem[i], maxHeap.Elem[j] = maxHeap.Elem[j], maxHeap.Elem[i]
	maxHeap.Score[i], maxHeap.Score[j] = maxHeap.Score[j], maxHeap.Score[i]
}

// Len returns the size of heap. It is a method of heap.Interface.
func (maxHeap *MaxHeap[T]) Len() int {
	return len(maxHeap.Elem)
}

// heapItem is designed for heap.Interface to pass neighborhoods.
type heapItem[T any] struct {
	Elem  T
	Score float32
}

// Push a neighbors into the MaxHeap. It is a method of heap.Interface.
func (maxHeap *MaxHeap[T]) Push(x interface{}) {
	item := x.(heapItem[T])
	maxHeap.Elem = append(maxHeap.Elem, item.Elem)
	maxHeap.Score = append(maxHeap.Score, item.Score)
}

// Pop the element with minimal score in the MaxHeap.
// It is a method of heap.Interface.
func (maxHeap *MaxHeap[T]) Pop() interface{} {
	n := maxHeap.Len()
	item := heapItem[T]{
		Elem:  maxHeap.Elem[n-1],
		Score: maxHeap.Score[n-1],
	}
	maxHeap.Elem = maxHeap.Elem[0 : n-1]
	maxHeap.Score = maxHeap.Score[0 : n-1]
	return item
}

// Add a new element to the MaxHeap.
func (maxHeap *MaxHeap[T]) Add(elem T, score float32) {
	// Insert item
	heap.Push(maxHeap, heapItem[T]{elem, score})
	// Remove minimum
	if maxHeap.Len() > maxHeap.K {
		heap.Pop(maxHeap)
	}
}

// ToSorted returns elements in the heap sorted by descending score.
func (maxHeap *MaxHeap[T]) ToSorted() ([]T, []float32) {
	items := make([]heapItem[T], maxHeap.Len())
	for i := range items {
		items[i] = heapItem[T]{maxHeap.Elem[i], maxHeap.Score[i]}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Score > items[j].Score })
	sorted := make([]T, len(items))
	scores := make([]float32, len(items))
	for i, item := range items {
		sorted[i] = item.Elem
		scores[i] = item.Score
	}
	return sorted, scores
}
