// Copyright 2026 churn Project Authors
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

package parallel

import (
	"context"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"go.uber.org/atomic"
)

func TestParallel(t *testing.T) {
	var count atomic.Int64
	err := Parallel(context.Background(), 100, 4, func(workerId, jobId int) error {
		assert.Less(t, workerId, 4)
		assert.Less(t, jobId, 100)
		count.Add(1)
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(100), count.Load())
}

func TestParallel_Sequential(t *testing.T) {
	order := make([]int, 0, 10)
	err := Parallel(context.Background(), 10, 1, func(_, jobId int) error {
		order = append(order, jobId)
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, order)
}

func TestParallel_Error(t *testing.T) {
	expected := errors.New("fold is degenerate")
	err := Parallel(context.Background(), 100, 4, func(_, jobId int) error {
		if jobId == 50 {
			return expected
		}
		return nil
	})
	assert.ErrorIs(t, err, expected)
}

func TestParallel_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Parallel(ctx, 100, 4, func(_, _ int) error {
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFor(t *testing.T) {
	var count atomic.Int64
	For(100, 4, func(i int) {
		count.Add(int64(i))
	})
	assert.Equal(t, int64(4950), count.Load())
}

func TestForEach(t *testing.T) {
	a := []int{1, 2, 3, 4, 5}
	var sum atomic.Int64
	ForEach(a, 3, func(_ int, v int) {
		sum.Add(int64(v))
	})
	assert.Equal(t, int64(15), sum.Load())
}

func TestSplit(t *testing.T) {
	a := []int{1, 2, 3, 4, 5}
	chunks := Split(a, 2)
	assert.Equal(t, [][]int{{1, 2, 3}, {4, 5}}, chunks)
	chunks = Split(a, 7)
	assert.Len(t, chunks, 5)
	assert.Nil(t, Split([]int{}, 3))
}
