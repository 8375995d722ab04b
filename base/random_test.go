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

package base

import (
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"
)

func TestRandomGenerator_Determinism(t *testing.T) {
	a := NewRandomGenerator(42)
	b := NewRandomGenerator(42)
	assert.Equal(t, a.Perm(100), b.Perm(100))
	assert.Equal(t, a.Intn(100), b.Intn(100))
}

func TestRandomGenerator_Sample(t *testing.T) {
	rng := NewRandomGenerator(0)
	exclude := mapset.NewSet(0, 1, 2)
	sampled := rng.Sample(0, 10, 5, exclude)
	assert.Len(t, sampled, 5)
	seen := mapset.NewSet[int]()
	for _, v := range sampled {
		assert.GreaterOrEqual(t, v, 3)
		assert.Less(t, v, 10)
		assert.False(t, seen.Contains(v))
		seen.Add(v)
	}
	// more samples requested than available values
	sampled = rng.Sample(0, 5, 10, exclude)
	assert.ElementsMatch(t, []int{3, 4}, sampled)
}
