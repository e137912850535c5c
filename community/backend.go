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
	"strconv"

	"github.com/juju/errors"

	"github.com/comrec-io/comrec/graph"
)

// Cover is the result of a community detection run. Overlapping algorithms
// return memberships only; hard-partition algorithms additionally return the
// community per node.
type Cover struct {
	Memberships *graph.Memberships
	Partition   []int32
}

// Backend is a community detection algorithm. Parameters are passed as a
// mapping from parameter name to string-encoded value; unknown names are
// ignored, unparsable values are errors.
type Backend interface {
	Name() string
	Detect(ctx context.Context, g *graph.Graph, params map[string]string) (*Cover, error)
}

func paramInt(params map[string]string, name string, fallback int) (int, error) {
	raw, exist := params[name]
	if !exist {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.NotValidf("parameter %s=%q", name, raw)
	}
	return value, nil
}

func paramFloat(params map[string]string, name string, fallback float32) (float32, error) {
	raw, exist := params[name]
	if !exist {
		return fallback, nil
	}
	value, err := strconv.ParseFloat(raw, 32)
	if err != nil {
		return 0, errors.NotValidf("parameter %s=%q", name, raw)
	}
	return float32(value), nil
}
