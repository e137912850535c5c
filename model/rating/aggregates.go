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

package rating

import (
	"sort"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/comrec-io/comrec/base"
	"github.com/comrec-io/comrec/dataset"
	"github.com/comrec-io/comrec/graph"
)

// communityRatings computes, for every user community and item, the
// membership-weighted average rating the community gave the item. Rows are
// communities, entries are items rated by at least one member.
func communityRatings(memberships *graph.Memberships, trainSet *dataset.Dataset) []*base.SparseVector {
	type member struct {
		node  int32
		level float32
	}
	numCommunities := memberships.NumColumns()
	members := make([][]member, numCommunities)
	for node := 0; node < memberships.NumRows(); node++ {
		for _, e := range memberships.Row(int32(node)) {
			members[e.Community] = append(members[e.Community], member{node: int32(node), level: e.Level})
		}
	}
	userFeedback := trainSet.GetUserFeedback()
	rows := make([]*base.SparseVector, numCommunities)
	for community := 0; community < numCommunities; community++ {
		items := mapset.NewSet[int32]()
		for _, m := range members[community] {
			items.Append(userFeedback[m.node].Indices...)
		}
		sorted := items.ToSlice()
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		row := base.NewSparseVector()
		for _, item := range sorted {
			ratingSum, weightSum := float32(0), float32(0)
			for _, m := range members[community] {
				if rating, exist := trainSet.GetRating(m.node, item); exist {
					ratingSum += rating * m.level
					weightSum += m.level
				}
			}
			if weightSum > 0 {
				row.Add(item, ratingSum/weightSum)
			}
		}
		row.SortIndex()
		rows[community] = row
	}
	return rows
}

// userCommunityRatings blends the average ratings of a user's communities,
// weighted by membership level and normalized by the user's total membership.
// Rows are users, entries are items rated by any of the user's communities.
func userCommunityRatings(memberships *graph.Memberships, communityRows []*base.SparseVector, numUsers int) []*base.SparseVector {
	rows := make([]*base.SparseVector, numUsers)
	for user := 0; user < numUsers; user++ {
		totalMembership := float32(0)
		for _, e := range memberships.Row(int32(user)) {
			totalMembership += e.Level
		}
		sums := make(map[int32]float32)
		for _, e := range memberships.Row(int32(user)) {
			level := e.Level
			communityRows[e.Community].ForEach(func(_ int, item int32, average float32) {
				sums[item] += average * level
			})
		}
		sorted := make([]int32, 0, len(sums))
		for item := range sums {
			sorted = append(sorted, item)
		}
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		row := base.NewSparseVector()
		for _, item := range sorted {
			if sum := sums[item]; sum > 0 && totalMembership > 0 {
				row.Add(item, sum/totalMembership)
			}
		}
		row.SortIndex()
		rows[user] = row
	}
	return rows
}
