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

package community

import (
	"context"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"

	"github.com/comrec-io/comrec/graph"
)

// Walktrap implements random-walk hierarchical clustering. Nodes that short
// random walks keep together are agglomerated bottom-up: starting from
// singleton communities, the pair of connected communities with the smallest
// walk-distance increase is merged until one community remains, and the
// partition with the highest modularity along the way is returned as a hard
// partition. The steps parameter is the length of the random walks.
//
// The merge scan is quadratic per step, which is fine for the k-NN similarity
// graphs this detector is fed.
type Walktrap struct{}

func (w *Walktrap) Name() string {
	return "walktrap"
}

type walktrapCommunity struct {
	members []int32
	row     []float32 // mean walk-probability row of the members
	linked  mapset.Set[int]
}

func (w *Walktrap) Detect(ctx context.Context, g *graph.Graph, params map[string]string) (*Cover, error) {
	steps, err := paramInt(params, "steps", 2)
	if err != nil {
		return nil, errors.Trace(err)
	}
	n := g.NumNodes()
	prob := walkProbabilities(g, steps)
	degrees := make([]float32, n)
	for i := 0; i < n; i++ {
		degrees[i] = g.Degree(int32(i))
	}

	// singleton communities
	communities := make(map[int]*walktrapCommunity, n)
	assignment := make([]int, n)
	for i := 0; i < n; i++ {
		linked := mapset.NewSet[int]()
		for _, e := range g.Neighbors(int32(i)) {
			linked.Add(int(e.To))
		}
		linked.Remove(i)
		communities[i] = &walktrapCommunity{
			members: []int32{int32(i)},
			row:     prob[i],
			linked:  linked,
		}
		assignment[i] = i
	}

	best := make([]int, n)
	copy(best, assignment)
	bestModularity := modularity(g, assignment)

	ids := make([]int, 0, n)
	for len(communities) > 1 {
		if err := ctx.Err(); err != nil {
			return nil, errors.Trace(err)
		}
		// find the connected pair with the smallest distance increase; the
		// scan runs in sorted id order so that exact ties resolve to the
		// smallest (a, b) pair and the hierarchy is reproducible
		ids = ids[:0]
		for id := range communities {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		from, to := -1, -1
		minDelta := float32(0)
		for _, a := range ids {
			ca := communities[a]
			linked := ca.linked.ToSlice()
			sort.Ints(linked)
			for _, b := range linked {
				if b <= a {
					continue
				}
				delta := mergeDelta(ca, communities[b], degrees, n)
				if from < 0 || delta < minDelta {
					from, to, minDelta = a, b, delta
				}
			}
		}
		if from < 0 {
			// only disconnected communities remain
			break
		}
		merge(communities, from, to)
		for _, member := range communities[from].members {
			assignment[member] = from
		}
		if q := modularity(g, assignment); q > bestModularity {
			bestModularity = q
			copy(best, assignment)
		}
	}

	return partitionCover(best, n), nil
}

// walkProbabilities returns, per node, the probability distribution of a
// random walk of the given length started at the node.
func walkProbabilities(g *graph.Graph, steps int) [][]float32 {
	n := g.NumNodes()
	prob := make([][]float32, n)
	next := make([]float32, n)
	for i := 0; i < n; i++ {
		row := make([]float32, n)
		row[i] = 1
		for step := 0; step < steps; step++ {
			for j := range next {
				next[j] = 0
			}
			for j := 0; j < n; j++ {
				if row[j] == 0 {
					continue
				}
				degree := g.Degree(int32(j))
				if degree == 0 {
					// the walk stays on dangling nodes
					next[j] += row[j]
					continue
				}
				for _, e := range g.Neighbors(int32(j)) {
					next[e.To] += row[j] * e.Weight / degree
				}
			}
			copy(row, next)
		}
		prob[i] = row
	}
	return prob
}

// mergeDelta is the walk-distance increase of merging two communities,
// following Ward's criterion over degree-normalized probability rows.
func mergeDelta(a, b *walktrapCommunity, degrees []float32, n int) float32 {
	r2 := float32(0)
	for k := 0; k < n; k++ {
		if degrees[k] == 0 {
			continue
		}
		diff := a.row[k] - b.row[k]
		r2 += diff * diff / degrees[k]
	}
	sizeA := float32(len(a.members))
	sizeB := float32(len(b.members))
	return sizeA * sizeB / (sizeA + sizeB) / float32(n) * r2
}

func merge(communities map[int]*walktrapCommunity, from, to int) {
	a, b := communities[from], communities[to]
	sizeA := float32(len(a.members))
	sizeB := float32(len(b.members))
	row := make([]float32, len(a.row))
	for k := range row {
		row[k] = (a.row[k]*sizeA + b.row[k]*sizeB) / (sizeA + sizeB)
	}
	a.members = append(a.members, b.members...)
	a.row = row
	a.linked = a.linked.Union(b.linked)
	a.linked.Remove(from)
	a.linked.Remove(to)
	delete(communities, to)
	// repoint links from b to a
	for id, c := range communities {
		if id != from && c.linked.Contains(to) {
			c.linked.Remove(to)
			c.linked.Add(from)
		}
	}
}

// modularity of a partition given as a community id per node.
func modularity(g *graph.Graph, assignment []int) float32 {
	m := g.TotalWeight()
	if m == 0 {
		return 0
	}
	// community ids are node ids, so slices keep the accumulation order fixed
	internal := make([]float32, len(assignment))
	degree := make([]float32, len(assignment))
	g.ForEachEdge(func(from, to int32, weight float32) {
		degree[assignment[from]] += weight
		if assignment[from] == assignment[to] {
			internal[assignment[from]] += weight
		}
	})
	q := float32(0)
	for community, d := range degree {
		if d > 0 {
			q += internal[community]/2/m - (d/2/m)*(d/2/m)
		}
	}
	return q
}

// partitionCover converts a community assignment to a hard membership matrix
// with dense community ids, ordered by the smallest member.
func partitionCover(assignment []int, n int) *Cover {
	// assign dense ids by first appearance
	ids := make(map[int]int32)
	next := int32(0)
	partition := make([]int32, n)
	for node := 0; node < n; node++ {
		if _, exist := ids[assignment[node]]; !exist {
			ids[assignment[node]] = next
			next++
		}
		partition[node] = ids[assignment[node]]
	}
	memberships := graph.NewMemberships(n, int(next))
	for node := 0; node < n; node++ {
		memberships.Add(int32(node), partition[node], 1.0)
	}
	return &Cover{Memberships: memberships, Partition: partition}
}
