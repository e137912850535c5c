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

package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFreqDict(t *testing.T) {
	dict := NewFreqDict()
	assert.Equal(t, int32(0), dict.Id("a"))
	assert.Equal(t, int32(1), dict.Id("b"))
	assert.Equal(t, int32(0), dict.Id("a"))
	assert.Equal(t, int32(2), dict.Count())
	assert.Equal(t, int32(1), dict.ToIndex("b"))
	assert.Equal(t, int32(-1), dict.ToIndex("c"))
	s, ok := dict.String(0)
	assert.True(t, ok)
	assert.Equal(t, "a", s)
	_, ok = dict.String(5)
	assert.False(t, ok)
	assert.Equal(t, 2, dict.Freq(0))
	assert.Equal(t, 1, dict.Freq(1))
}

func TestDataset(t *testing.T) {
	data := NewDataset(0, 0)
	data.AddRating("a", "x", 5)
	data.AddRating("a", "y", 3)
	data.AddRating("b", "x", 1)
	assert.Equal(t, 2, data.CountUsers())
	assert.Equal(t, 2, data.CountItems())
	assert.Equal(t, 3, data.CountRatings())
	assert.InDelta(t, 3, data.GlobalMean(), 1e-6)
	rating, exist := data.GetRating(0, 1)
	assert.True(t, exist)
	assert.Equal(t, float32(3), rating)
	_, exist = data.GetRating(1, 1)
	assert.False(t, exist)
	_, exist = data.GetRating(5, 0)
	assert.False(t, exist)
	// both orientations carry the same ratings
	count := 0
	data.ForEachRating(func(userIndex, itemIndex int32, rating float32) {
		fromItems, exist := data.GetItemFeedback()[itemIndex].Get(userIndex)
		assert.True(t, exist)
		assert.Equal(t, rating, fromItems)
		count++
	})
	assert.Equal(t, 3, count)
}

func TestDataset_SplitRatings(t *testing.T) {
	data := NewDataset(0, 0)
	users := []string{"a", "b", "c", "d"}
	items := []string{"w", "x", "y", "z"}
	for _, user := range users {
		for _, item := range items {
			data.AddRating(user, item, 3)
		}
	}
	train, test := data.SplitRatings(0.25, 0)
	assert.Equal(t, 12, train.CountRatings())
	assert.Equal(t, 4, test.CountRatings())
	// dictionaries and dimensions stay aligned with the source
	assert.Equal(t, data.CountUsers(), train.CountUsers())
	assert.Equal(t, data.CountItems(), train.CountItems())
	assert.Equal(t, data.CountUsers(), test.CountUsers())
	assert.Equal(t, data.CountItems(), test.CountItems())
	assert.Equal(t, data.GetUserDict(), train.GetUserDict())
	// the split is deterministic for a fixed seed
	train2, test2 := data.SplitRatings(0.25, 0)
	assert.Equal(t, train.CountRatings(), train2.CountRatings())
	test.ForEachRating(func(userIndex, itemIndex int32, rating float32) {
		fromSecond, exist := test2.GetRating(userIndex, itemIndex)
		assert.True(t, exist)
		assert.Equal(t, rating, fromSecond)
	})
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ratings.csv")
	content := "# userId,itemId,rating\na,x,5\na,y,3.5\nb,x,1\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	data, err := LoadCSV(path, ",", false)
	require.NoError(t, err)
	assert.Equal(t, 2, data.CountUsers())
	assert.Equal(t, 2, data.CountItems())
	assert.Equal(t, 3, data.CountRatings())
	rating, exist := data.GetRating(0, 1)
	assert.True(t, exist)
	assert.Equal(t, float32(3.5), rating)
}

func TestLoadCSV_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ratings.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,x\n"), 0o644))
	_, err := LoadCSV(path, ",", false)
	assert.Error(t, err)
	_, err = LoadCSV(filepath.Join(t.TempDir(), "missing.csv"), ",", false)
	assert.Error(t, err)
}
