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
	"github.com/comrec-io/comrec/base"
)

// Dataset is an in-memory rating matrix. Ratings are stored twice: once as
// per-user sparse rows and once as per-item sparse columns, so that both the
// neighborhood model and the similarity graph builder can iterate them
// without transposing.
type Dataset struct {
	userDict     *FreqDict
	itemDict     *FreqDict
	userFeedback []*base.SparseVector
	itemFeedback []*base.SparseVector
	sum          float32
	count        int
}

// NewDataset creates an empty dataset. userCount and itemCount are capacity
// hints.
func NewDataset(userCount, itemCount int) *Dataset {
	return &Dataset{
		userDict:     NewFreqDict(),
		itemDict:     NewFreqDict(),
		userFeedback: make([]*base.SparseVector, 0, userCount),
		itemFeedback: make([]*base.SparseVector, 0, itemCount),
	}
}

// AddRating adds an observed rating. Each (user, item) pair must be added at
// most once.
func (d *Dataset) AddRating(userId, itemId string, rating float32) {
	userIndex := d.userDict.Id(userId)
	itemIndex := d.itemDict.Id(itemId)
	d.addRating(userIndex, itemIndex, rating)
}

func (d *Dataset) addRating(userIndex, itemIndex int32, rating float32) {
	for int32(len(d.userFeedback)) <= userIndex {
		d.userFeedback = append(d.userFeedback, base.NewSparseVector())
	}
	for int32(len(d.itemFeedback)) <= itemIndex {
		d.itemFeedback = append(d.itemFeedback, base.NewSparseVector())
	}
	d.userFeedback[userIndex].Add(itemIndex, rating)
	d.itemFeedback[itemIndex].Add(userIndex, rating)
	d.sum += rating
	d.count++
}

func (d *Dataset) GetUserDict() *FreqDict {
	return d.userDict
}

func (d *Dataset) GetItemDict() *FreqDict {
	return d.itemDict
}

func (d *Dataset) CountUsers() int {
	return len(d.userFeedback)
}

func (d *Dataset) CountItems() int {
	return len(d.itemFeedback)
}

func (d *Dataset) CountRatings() int {
	return d.count
}

// GetUserFeedback returns the items rated by each user with ratings.
func (d *Dataset) GetUserFeedback() []*base.SparseVector {
	return d.userFeedback
}

// GetItemFeedback returns the users that rated each item with ratings.
func (d *Dataset) GetItemFeedback() []*base.SparseVector {
	return d.itemFeedback
}

// GetRating returns the rating given by a user to an item. The second return
// value reports whether the rating is observed.
func (d *Dataset) GetRating(userIndex, itemIndex int32) (float32, bool) {
	if userIndex < 0 || userIndex >= int32(len(d.userFeedback)) {
		return 0, false
	}
	return d.userFeedback[userIndex].Get(itemIndex)
}

// GlobalMean returns the mean of all observed ratings.
func (d *Dataset) GlobalMean() float32 {
	if d.count == 0 {
		return 0
	}
	return d.sum / float32(d.count)
}

// ForEachRating iterates all observed ratings.
func (d *Dataset) ForEachRating(f func(userIndex, itemIndex int32, rating float32)) {
	for userIndex, vec := range d.userFeedback {
		vec.ForEach(func(_ int, itemIndex int32, rating float32) {
			f(int32(userIndex), itemIndex, rating)
		})
	}
}

// SplitRatings splits the dataset into a training set and a test set by the
// given test ratio. Both splits share dictionaries and dimensions with the
// source dataset so that dense indices stay aligned.
func (d *Dataset) SplitRatings(testRatio float32, seed int64) (train, test *Dataset) {
	type rating struct {
		userIndex int32
		itemIndex int32
		value     float32
	}
	ratings := make([]rating, 0, d.count)
	d.ForEachRating(func(userIndex, itemIndex int32, value float32) {
		ratings = append(ratings, rating{userIndex, itemIndex, value})
	})
	rng := base.NewRandomGenerator(seed)
	rng.Shuffle(len(ratings), func(i, j int) {
		ratings[i], ratings[j] = ratings[j], ratings[i]
	})
	testSize := int(float32(len(ratings)) * testRatio)
	train = d.emptyClone()
	test = d.emptyClone()
	for i, r := range ratings {
		if i < testSize {
			test.addRating(r.userIndex, r.itemIndex, r.value)
		} else {
			train.addRating(r.userIndex, r.itemIndex, r.value)
		}
	}
	// keep dimensions aligned with the source dataset
	train.grow(d.CountUsers(), d.CountItems())
	test.grow(d.CountUsers(), d.CountItems())
	return
}

func (d *Dataset) emptyClone() *Dataset {
	return &Dataset{
		userDict: d.userDict,
		itemDict: d.itemDict,
	}
}

func (d *Dataset) grow(userCount, itemCount int) {
	for len(d.userFeedback) < userCount {
		d.userFeedback = append(d.userFeedback, base.NewSparseVector())
	}
	for len(d.itemFeedback) < itemCount {
		d.itemFeedback = append(d.itemFeedback, base.NewSparseVector())
	}
}
