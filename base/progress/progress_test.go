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

package progress

import (
	"context"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracer(t *testing.T) {
	tracer := NewTracer("test")
	ctx, span := tracer.Start(context.Background(), "root", 2)
	// child spans attach through the context
	_, child := Start(ctx, "child", 10)
	child.Add(5)
	assert.Equal(t, 5, child.Count())
	child.End()
	span.Add(1)
	span.End()

	list := tracer.List()
	require.Len(t, list, 1)
	assert.Equal(t, "test", list[0].Tracer)
	assert.Equal(t, "root", list[0].Name)
	assert.Equal(t, StatusComplete, list[0].Status)
	assert.Equal(t, 2, list[0].Count)
	assert.False(t, list[0].FinishTime.Before(list[0].StartTime))
}

func TestTracer_Fail(t *testing.T) {
	tracer := NewTracer("test")
	_, span := tracer.Start(context.Background(), "root", 1)
	span.Fail(errors.New("boom"))
	list := tracer.List()
	require.Len(t, list, 1)
	assert.Equal(t, StatusFailed, list[0].Status)
	assert.Equal(t, "boom", list[0].Error)
}

func TestStart_Detached(t *testing.T) {
	// without a tracer the span is detached but still usable
	ctx, span := Start(context.Background(), "detached", 3)
	assert.NotNil(t, ctx)
	span.Add(3)
	span.End()
	assert.Equal(t, 3, span.Count())
}
