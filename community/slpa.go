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

	"github.com/juju/errors"

	"github.com/comrec-io/comrec/base"
	"github.com/comrec-io/comrec/graph"
)

// SpeakerListener implements speaker/listener label propagation (SLPA). Every
// node keeps a memory of received labels. In each round every listener asks
// each neighbor to speak a random label from its memory and remembers the
// most popular answer, weighted by edge weight. After memorySize rounds the
// label histogram of a node, thresholded by probabilityThreshold, becomes its
// overlapping community memberships.
type SpeakerListener struct{}

func (s *SpeakerListener) Name() string {
	return "slpa"
}

func (s *SpeakerListener) Detect(ctx context.Context, g *graph.Graph, params map[string]string) (*Cover, error) {
	probabilityThreshold, err := paramFloat(params, "probabilityThreshold", 0.15)
	if err != nil {
		return nil, errors.Trace(err)
	}
	memorySize, err := paramInt(params, "memorySize", 100)
	if err != nil {
		return nil, errors.Trace(err)
	}

	n := g.NumNodes()
	rng := base.NewRandomGenerator(int64(n))
	// every node starts with its own id in memory
	memories := make([][]int32, n)
	for i := range memories {
		memories[i] = []int32{int32(i)}
	}
	order := make([]int32, n)
	for i := range order {
		order[i] = int32(i)
	}

	for round := 0; round < memorySize; round++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Trace(err)
		}
		rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
		for _, listener := range order {
			neighbors := g.Neighbors(listener)
			if len(neighbors) == 0 {
				continue
			}
			votes := make(map[int32]float32)
			for _, e := range neighbors {
				memory := memories[e.To]
				label := memory[rng.Intn(len(memory))]
				votes[label] += e.Weight
			}
			memories[listener] = append(memories[listener], popularLabel(votes))
		}
	}

	// threshold label histograms and relabel to dense community ids
	labels := make([]map[int32]int, n)
	communityIds := make(map[int32]int32)
	for node, memory := range memories {
		histogram := make(map[int32]int)
		for _, label := range memory {
			histogram[label]++
		}
		survivors := make(map[int32]int)
		for label, count := range histogram {
			if float32(count)/float32(len(memory)) >= probabilityThreshold {
				survivors[label] = count
			}
		}
		if len(survivors) == 0 {
			// rare labels only, keep the most frequent one
			votes := make(map[int32]float32, len(histogram))
			for label, count := range histogram {
				votes[label] = float32(count)
			}
			best := popularLabel(votes)
			survivors[best] = histogram[best]
		}
		labels[node] = survivors
		for label := range survivors {
			if _, exist := communityIds[label]; !exist {
				communityIds[label] = -1
			}
		}
	}
	sorted := make([]int32, 0, len(communityIds))
	for label := range communityIds {
		sorted = append(sorted, label)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	for i, label := range sorted {
		communityIds[label] = int32(i)
	}

	memberships := graph.NewMemberships(n, len(sorted))
	for node, survivors := range labels {
		total := 0
		for _, count := range survivors {
			total += count
		}
		ordered := make([]int32, 0, len(survivors))
		for label := range survivors {
			ordered = append(ordered, label)
		}
		sort.Slice(ordered, func(i, j int) bool {
			return communityIds[ordered[i]] < communityIds[ordered[j]]
		})
		for _, label := range ordered {
			level := float32(survivors[label]) / float32(total)
			memberships.Add(int32(node), communityIds[label], level)
		}
	}
	return &Cover{Memberships: memberships}, nil
}

// popularLabel returns the label with the highest vote, smallest label id on
// ties.
func popularLabel(votes map[int32]float32) int32 {
	best := int32(-1)
	bestVote := float32(0)
	for label, vote := range votes {
		if vote > bestVote || (vote == bestVote && (best == -1 || label < best)) {
			best = label
			bestVote = vote
		}
	}
	return best
}
