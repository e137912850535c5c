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
	"github.com/samber/lo"
)

// Edge is a weighted edge to a node.
type Edge struct {
	To     int32
	Weight float32
}

// Graph is a weighted graph over nodes [0, n) stored as adjacency lists.
// Entry (i,j) is the edge weight, zero means no edge. Similarity graphs are
// undirected: both directions carry the same weight. The graph is built once
// and treated as immutable afterwards.
type Graph struct {
	edges [][]Edge
}

// NewGraph creates a graph with n nodes and no edges.
func NewGraph(n int) *Graph {
	return &Graph{edges: make([][]Edge, n)}
}

// NumNodes returns the number of nodes.
func (g *Graph) NumNodes() int {
	return len(g.edges)
}

// AddEdge adds a directed edge.
func (g *Graph) AddEdge(from, to int32, weight float32) {
	g.edges[from] = append(g.edges[from], Edge{To: to, Weight: weight})
}

// AddUndirectedEdge adds an edge in both directions.
func (g *Graph) AddUndirectedEdge(u, v int32, weight float32) {
	g.AddEdge(u, v, weight)
	g.AddEdge(v, u, weight)
}

// Neighbors returns the adjacency list of a node.
func (g *Graph) Neighbors(node int32) []Edge {
	return g.edges[node]
}

// Weight returns the weight of edge (u,v), zero if absent.
func (g *Graph) Weight(u, v int32) float32 {
	for _, e := range g.edges[u] {
		if e.To == v {
			return e.Weight
		}
	}
	return 0
}

// Degree returns the weighted degree of a node.
func (g *Graph) Degree(node int32) float32 {
	sum := float32(0)
	for _, e := range g.edges[node] {
		sum += e.Weight
	}
	return sum
}

// TotalWeight returns the sum of undirected edge weights.
func (g *Graph) TotalWeight() float32 {
	sum := float32(0)
	for node := range g.edges {
		for _, e := range g.edges[node] {
			sum += e.Weight
		}
	}
	return sum / 2
}

// ForEachEdge iterates directed edges as (from, to, weight) triples.
func (g *Graph) ForEachEdge(f func(from, to int32, weight float32)) {
	for node := range g.edges {
		for _, e := range g.edges[node] {
			f(int32(node), e.To, e.Weight)
		}
	}
}

// Membership is the membership level of a node in a community.
type Membership struct {
	Community int32
	Level     float32
}

// Memberships is a sparse node-by-community matrix. Entry (node, community)
// is the node's membership level in (0,1]. A row may carry several entries
// (overlapping communities) or exactly one unit entry (hard partition). The
// column count is fixed once computed, even if communities become empty.
type Memberships struct {
	rows    [][]Membership
	columns int
}

// NewMemberships creates an all-zero membership matrix.
func NewMemberships(nodes, communities int) *Memberships {
	return &Memberships{
		rows:    make([][]Membership, nodes),
		columns: communities,
	}
}

// NumRows returns the number of nodes.
func (m *Memberships) NumRows() int {
	return len(m.rows)
}

// NumColumns returns the number of communities.
func (m *Memberships) NumColumns() int {
	return m.columns
}

// Count returns the number of nonzero entries.
func (m *Memberships) Count() int {
	count := 0
	for _, row := range m.rows {
		count += len(row)
	}
	return count
}

// Add sets the membership level of a node in a community. Each (node,
// community) pair must be added at most once.
func (m *Memberships) Add(node, community int32, level float32) {
	m.rows[node] = append(m.rows[node], Membership{Community: community, Level: level})
}

// Row returns the memberships of a node in insertion order.
func (m *Memberships) Row(node int32) []Membership {
	return m.rows[node]
}

// Communities returns the community ids of a node.
func (m *Memberships) Communities(node int32) []int32 {
	return lo.Map(m.rows[node], func(e Membership, _ int) int32 {
		return e.Community
	})
}

// Level returns the membership level of a node in a community, zero if the
// node is not a member.
func (m *Memberships) Level(node, community int32) float32 {
	for _, e := range m.rows[node] {
		if e.Community == community {
			return e.Level
		}
	}
	return 0
}

// Dominant returns the community with the strictly greatest membership level
// of a node. Ties resolve to the first entry in row order. Nodes without any
// membership fall back to community 0.
func (m *Memberships) Dominant(node int32) int32 {
	maxLevel := float32(0)
	community := int32(0)
	for _, e := range m.rows[node] {
		if e.Level > maxLevel {
			maxLevel = e.Level
			community = e.Community
		}
	}
	return community
}

// Vector returns the dominant community per node.
func (m *Memberships) Vector() []int32 {
	vector := make([]int32, len(m.rows))
	for node := range m.rows {
		vector[node] = m.Dominant(int32(node))
	}
	return vector
}

// Collapse rebuilds the matrix as a hard partition: every row keeps exactly
// one unit entry at its dominant community. The column count is unchanged
// even if some communities become empty.
func (m *Memberships) Collapse() *Memberships {
	collapsed := NewMemberships(len(m.rows), m.columns)
	for node := range m.rows {
		collapsed.Add(int32(node), m.Dominant(int32(node)), 1.0)
	}
	return collapsed
}
