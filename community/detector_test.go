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
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetector_Walktrap(t *testing.T) {
	detector := NewDetector()
	detector.SetAlgorithm(WalktrapAlgorithm)
	detector.SetWalktrapParameters(2)
	detector.SetGraph(twoTriangles())
	require.NoError(t, detector.DetectCommunities(context.Background()))
	assert.Equal(t, 2, detector.NumCommunities())
	assert.GreaterOrEqual(t, detector.ComputationTime(), 0)
	vector := detector.MembershipsVector()
	require.Len(t, vector, 6)
	assert.Equal(t, vector[0], vector[1])
	assert.NotEqual(t, vector[0], vector[3])
	// hard partitions are identical to the membership matrix
	for node := int32(0); node < 6; node++ {
		assert.Equal(t, vector[node], detector.Memberships().Dominant(node))
	}
}

func TestDetector_CollapseOverlapping(t *testing.T) {
	detector := NewDetector()
	detector.SetAlgorithm(SLPAAlgorithm)
	detector.SetOverlapping(false)
	detector.SetGraph(twoTriangles())
	require.NoError(t, detector.DetectCommunities(context.Background()))
	memberships := detector.Memberships()
	// collapsed to a hard partition with the column count preserved
	for node := int32(0); node < 6; node++ {
		row := memberships.Row(node)
		require.Len(t, row, 1)
		assert.Equal(t, float32(1), row[0].Level)
	}
	assert.Equal(t, memberships.NumColumns(), detector.NumCommunities())
}

func TestDetector_Overlapping(t *testing.T) {
	detector := NewDetector()
	detector.SetAlgorithm(DMIDAlgorithm)
	detector.SetDMIDParameters(1000, 0.001, 0.1)
	detector.SetGraph(twoTriangles())
	require.NoError(t, detector.DetectCommunities(context.Background()))
	assert.Equal(t, 2, detector.NumCommunities())
	// dominant communities follow the triangles
	vector := detector.MembershipsVector()
	assert.Equal(t, vector[0], vector[2])
	assert.Equal(t, vector[3], vector[5])
	assert.NotEqual(t, vector[0], vector[3])
}

func TestDetector_UnknownAlgorithm(t *testing.T) {
	detector := NewDetector()
	detector.SetAlgorithm("louvain")
	detector.SetGraph(twoTriangles())
	err := detector.DetectCommunities(context.Background())
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestDetector_Reusable(t *testing.T) {
	detector := NewDetector()
	detector.SetAlgorithm(WalktrapAlgorithm)
	detector.SetGraph(twoTriangles())
	require.NoError(t, detector.DetectCommunities(context.Background()))
	first := detector.NumCommunities()
	// a second detection on another graph overwrites the previous result
	g := twoTriangles()
	g.AddUndirectedEdge(0, 3, 1)
	detector.SetGraph(g)
	require.NoError(t, detector.DetectCommunities(context.Background()))
	assert.Len(t, detector.MembershipsVector(), 6)
	assert.GreaterOrEqual(t, first, 1)
}
