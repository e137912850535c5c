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

	"github.com/chewxy/math32"
	"github.com/juju/errors"

	"github.com/comrec-io/comrec/graph"
)

// LeadershipPropagation implements random-walk leadership propagation (DMID).
// Phase one ranks nodes by the stationary distribution of a random walk over
// the weighted graph, bounded by leadershipIterationBound iterations or a
// leadershipPrecisionFactor convergence margin. Local maxima of the ranking
// become community leaders. Phase two cascades memberships outward from each
// leader: a node joins once the weighted fraction of its neighbors inside the
// community exceeds profitabilityDelta, and that fraction becomes its
// membership level.
type LeadershipPropagation struct{}

func (l *LeadershipPropagation) Name() string {
	return "dmid"
}

func (l *LeadershipPropagation) Detect(ctx context.Context, g *graph.Graph, params map[string]string) (*Cover, error) {
	iterationBound, err := paramInt(params, "leadershipIterationBound", 1000)
	if err != nil {
		return nil, errors.Trace(err)
	}
	precisionFactor, err := paramFloat(params, "leadershipPrecisionFactor", 0.001)
	if err != nil {
		return nil, errors.Trace(err)
	}
	profitabilityDelta, err := paramFloat(params, "profitabilityDelta", 0.1)
	if err != nil {
		return nil, errors.Trace(err)
	}

	leadership, err := l.computeLeadership(ctx, g, iterationBound, precisionFactor)
	if err != nil {
		return nil, errors.Trace(err)
	}
	leaders := l.findLeaders(g, leadership)
	return l.cascadeMemberships(ctx, g, leaders, profitabilityDelta)
}

// computeLeadership runs the bounded power iteration of the random walk.
func (l *LeadershipPropagation) computeLeadership(ctx context.Context, g *graph.Graph, iterationBound int, precisionFactor float32) ([]float32, error) {
	n := g.NumNodes()
	degrees := make([]float32, n)
	for i := 0; i < n; i++ {
		degrees[i] = g.Degree(int32(i))
	}
	x := make([]float32, n)
	next := make([]float32, n)
	for i := range x {
		x[i] = 1 / float32(n)
	}
	for iter := 0; iter < iterationBound; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Trace(err)
		}
		for i := range next {
			next[i] = 0
		}
		for i := 0; i < n; i++ {
			if degrees[i] == 0 {
				// dangling node, the walk stays put
				next[i] += x[i]
				continue
			}
			for _, e := range g.Neighbors(int32(i)) {
				next[e.To] += x[i] * e.Weight / degrees[i]
			}
		}
		diff := float32(0)
		for i := range x {
			diff += math32.Abs(next[i] - x[i])
		}
		copy(x, next)
		if diff < precisionFactor {
			break
		}
	}
	return x, nil
}

// findLeaders returns nodes whose leadership is above average and not below
// any of their neighbors.
func (l *LeadershipPropagation) findLeaders(g *graph.Graph, leadership []float32) []int32 {
	n := g.NumNodes()
	avg := float32(0)
	for _, v := range leadership {
		avg += v
	}
	avg /= float32(n)
	var leaders []int32
	for i := 0; i < n; i++ {
		if leadership[i] < avg {
			continue
		}
		localMax := true
		for _, e := range g.Neighbors(int32(i)) {
			if leadership[e.To] > leadership[i] {
				localMax = false
				break
			}
		}
		if localMax {
			leaders = append(leaders, int32(i))
		}
	}
	if len(leaders) == 0 {
		// degenerate ranking, fall back to the global maximum
		best := int32(0)
		for i := 1; i < n; i++ {
			if leadership[i] > leadership[best] {
				best = int32(i)
			}
		}
		leaders = append(leaders, best)
	}
	return leaders
}

// cascadeMemberships grows one community per leader by profitability.
func (l *LeadershipPropagation) cascadeMemberships(ctx context.Context, g *graph.Graph, leaders []int32, profitabilityDelta float32) (*Cover, error) {
	n := g.NumNodes()
	memberships := graph.NewMemberships(n, len(leaders))
	levels := make([]float32, n)
	members := make([]bool, n)
	for communityId, leader := range leaders {
		if err := ctx.Err(); err != nil {
			return nil, errors.Trace(err)
		}
		for i := range members {
			members[i] = false
			levels[i] = 0
		}
		members[leader] = true
		levels[leader] = 1
		for changed := true; changed; {
			changed = false
			for i := 0; i < n; i++ {
				if members[i] {
					continue
				}
				inside, total := float32(0), float32(0)
				for _, e := range g.Neighbors(int32(i)) {
					total += e.Weight
					if members[e.To] {
						inside += e.Weight
					}
				}
				if total == 0 {
					continue
				}
				if profitability := inside / total; profitability > profitabilityDelta {
					members[i] = true
					levels[i] = profitability
					changed = true
				}
			}
		}
		for i := 0; i < n; i++ {
			if members[i] {
				memberships.Add(int32(i), int32(communityId), levels[i])
			}
		}
	}
	return &Cover{Memberships: memberships}, nil
}
