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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGraph(t *testing.T) {
	g := NewGraph(4)
	g.AddUndirectedEdge(0, 1, 0.5)
	g.AddUndirectedEdge(1, 2, 1.5)
	assert.Equal(t, 4, g.NumNodes())
	assert.Equal(t, float32(0.5), g.Weight(0, 1))
	assert.Equal(t, float32(0.5), g.Weight(1, 0))
	assert.Zero(t, g.Weight(0, 2))
	assert.Equal(t, float32(2), g.Degree(1))
	assert.Zero(t, g.Degree(3))
	assert.InDelta(t, 2, g.TotalWeight(), 1e-6)
	assert.Len(t, g.Neighbors(1), 2)
	count := 0
	g.ForEachEdge(func(_, _ int32, _ float32) {
		count++
	})
	assert.Equal(t, 4, count)
}

func TestMemberships(t *testing.T) {
	m := NewMemberships(3, 4)
	m.Add(0, 1, 0.7)
	m.Add(0, 2, 0.3)
	m.Add(1, 2, 1.0)
	assert.Equal(t, 3, m.NumRows())
	assert.Equal(t, 4, m.NumColumns())
	assert.Equal(t, 3, m.Count())
	assert.Equal(t, []int32{1, 2}, m.Communities(0))
	assert.Equal(t, float32(0.3), m.Level(0, 2))
	assert.Zero(t, m.Level(0, 3))
}

func TestMemberships_Dominant(t *testing.T) {
	m := NewMemberships(3, 4)
	m.Add(0, 1, 0.3)
	m.Add(0, 3, 0.7)
	// ties resolve to the first entry in row order
	m.Add(1, 2, 0.5)
	m.Add(1, 1, 0.5)
	assert.Equal(t, int32(3), m.Dominant(0))
	assert.Equal(t, int32(2), m.Dominant(1))
	// nodes without memberships fall back to community 0
	assert.Equal(t, int32(0), m.Dominant(2))
	assert.Equal(t, []int32{3, 2, 0}, m.Vector())
}

func TestMemberships_Collapse(t *testing.T) {
	m := NewMemberships(3, 4)
	m.Add(0, 1, 0.3)
	m.Add(0, 3, 0.7)
	m.Add(1, 2, 0.5)
	m.Add(1, 1, 0.5)
	collapsed := m.Collapse()
	// every row keeps exactly one unit entry at its dominant community
	assert.Equal(t, m.NumRows(), collapsed.NumRows())
	assert.Equal(t, m.NumColumns(), collapsed.NumColumns())
	for node := int32(0); node < int32(collapsed.NumRows()); node++ {
		row := collapsed.Row(node)
		assert.Len(t, row, 1)
		assert.Equal(t, float32(1), row[0].Level)
		assert.Equal(t, m.Dominant(node), row[0].Community)
	}
}
