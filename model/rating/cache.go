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
	"github.com/jellydator/ttlcache/v3"
)

// indexListCache memoizes per-entity index lists. Entries are computed on
// first access and never expire during a training run.
type indexListCache struct {
	cache *ttlcache.Cache[int32, []int32]
}

func newIndexListCache(compute func(index int32) []int32) *indexListCache {
	loader := ttlcache.LoaderFunc[int32, []int32](
		func(c *ttlcache.Cache[int32, []int32], index int32) *ttlcache.Item[int32, []int32] {
			return c.Set(index, compute(index), ttlcache.NoTTL)
		})
	return &indexListCache{
		cache: ttlcache.New[int32, []int32](
			ttlcache.WithLoader[int32, []int32](loader),
			ttlcache.WithDisableTouchOnHit[int32, []int32]()),
	}
}

func (c *indexListCache) Get(index int32) []int32 {
	return c.cache.Get(index).Value()
}
