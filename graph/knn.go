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

package graph

import (
	"context"
	"time"

	"github.com/chewxy/math32"
	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/comrec-io/comrec/base"
	"github.com/comrec-io/comrec/base/log"
	"github.com/comrec-io/comrec/common/parallel"
	"github.com/comrec-io/comrec/dataset"
)

// KNNBuilder builds user-user and item-item k-nearest-neighbor similarity
// graphs from a rating matrix.
type KNNBuilder struct {
	k          int
	similarity base.FuncSimilarity
}

// NewKNNBuilder creates a KNNBuilder. The similarity measure must be one of
// "cosine" or "pearson".
func NewKNNBuilder(k int, similarity string) (*KNNBuilder, error) {
	var fn base.FuncSimilarity
	switch similarity {
	case "cosine":
		fn = base.CosineSimilarity
	case "pearson":
		fn = base.PearsonSimilarity
	default:
		return nil, errors.NotValidf("similarity measure %q", similarity)
	}
	return &KNNBuilder{k: k, similarity: fn}, nil
}

// Build creates the user adjacency graph and the item adjacency graph from
// the training ratings. Rows are computed in parallel; cancelling ctx aborts
// the build.
func (b *KNNBuilder) Build(ctx context.Context, train *dataset.Dataset, jobs int) (userGraph, itemGraph *Graph, err error) {
	start := time.Now()
	userGraph, err = b.build(ctx, train.GetUserFeedback(), jobs)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	itemGraph, err = b.build(ctx, train.GetItemFeedback(), jobs)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	log.Logger().Info("built k-NN graphs",
		zap.Int("k", b.k),
		zap.Int("num_users", userGraph.NumNodes()),
		zap.Int("num_items", itemGraph.NumNodes()),
		zap.Duration("build_time", time.Since(start)))
	return
}

func (b *KNNBuilder) build(ctx context.Context, vectors []*base.SparseVector, jobs int) (*Graph, error) {
	n := len(vectors)
	neighbors := make([][]int32, n)
	weights := make([][]float32, n)
	if err := parallel.Parallel(ctx, n, jobs, func(_, i int) error {
		knnHeap := base.NewMaxHeap[int32](b.k)
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			score := b.similarity(vectors[i], vectors[j])
			// vectors without common entries yield NaN
			if !math32.IsNaN(score) && score > 0 {
				knnHeap.Add(int32(j), score)
			}
		}
		neighbors[i], weights[i] = knnHeap.ToSorted()
		return nil
	}); err != nil {
		return nil, errors.Trace(err)
	}
	// merge per-row neighbor lists into an undirected graph
	g := NewGraph(n)
	added := make(map[int64]struct{})
	for i := 0; i < n; i++ {
		for p, j := range neighbors[i] {
			u, v := int32(i), j
			if u > v {
				u, v = v, u
			}
			key := int64(u)<<32 | int64(v)
			if _, exist := added[key]; !exist {
				added[key] = struct{}{}
				g.AddUndirectedEdge(int32(i), j, weights[i][p])
			}
		}
	}
	return g, nil
}
