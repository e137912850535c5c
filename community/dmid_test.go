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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeadershipPropagation(t *testing.T) {
	cover, err := (&LeadershipPropagation{}).Detect(context.Background(), twoTriangles(), map[string]string{})
	require.NoError(t, err)
	memberships := cover.Memberships
	// the bridge endpoints have the highest stationary probability and lead
	// one community each
	assert.Equal(t, 2, memberships.NumColumns())
	assert.Nil(t, cover.Partition)
	// each triangle joins its leader's community
	for _, node := range []int32{0, 1, 2} {
		assert.Positive(t, memberships.Level(node, 0))
		assert.Zero(t, memberships.Level(node, 1))
	}
	for _, node := range []int32{3, 4, 5} {
		assert.Positive(t, memberships.Level(node, 1))
		assert.Zero(t, memberships.Level(node, 0))
	}
	// leaders carry full membership
	assert.Equal(t, float32(1), memberships.Level(2, 0))
	assert.Equal(t, float32(1), memberships.Level(3, 1))
	// levels stay in (0, 1]
	for node := int32(0); node < 6; node++ {
		for _, e := range memberships.Row(node) {
			assert.Greater(t, e.Level, float32(0))
			assert.LessOrEqual(t, e.Level, float32(1))
		}
	}
}

func TestLeadershipPropagation_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&LeadershipPropagation{}).Detect(ctx, twoTriangles(), map[string]string{})
	assert.ErrorIs(t, err, context.Canceled)
}
