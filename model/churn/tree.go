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

package churn

import (
	"sort"

	"github.com/churn-io/churn/base"
)

// Node is a binary split or a leaf.
type Node struct {
	Feature   int
	Threshold float32
	Left      *Node
	Right     *Node
	Value     float32
	Leaf      bool
}

// Tree is a CART regression tree over float32 feature vectors. With 0/1
// targets the variance criterion orders splits identically to Gini impurity,
// so the same tree serves probability estimation in the forest and gradient
// fitting in boosting.
type Tree struct {
	Root *Node
}

// Predict walks the tree down to a leaf.
func (t *Tree) Predict(x []float32) float32 {
	node := t.Root
	for !node.Leaf {
		if x[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

type treeConfig struct {
	maxDepth    int // 0 means unlimited
	minNodeSize int // nodes smaller than this become leaves
	mTry        int // features sampled per split, 0 means all
}

type treeBuilder struct {
	rows      [][]float32
	targets   []float32
	config    treeConfig
	rng       base.RandomGenerator
	leafValue func(indices []int) float32
}

// growTree fits a regression tree on the given rows. leafValue overrides the
// leaf estimate; nil means the mean target.
func growTree(rows [][]float32, targets []float32, indices []int,
	config treeConfig, rng base.RandomGenerator, leafValue func(indices []int) float32) *Tree {
	builder := &treeBuilder{
		rows:      rows,
		targets:   targets,
		config:    config,
		rng:       rng,
		leafValue: leafValue,
	}
	if builder.leafValue == nil {
		builder.leafValue = builder.meanTarget
	}
	return &Tree{Root: builder.build(indices, 1)}
}

func (b *treeBuilder) meanTarget(indices []int) float32 {
	var sum float32
	for _, i := range indices {
		sum += b.targets[i]
	}
	return sum / float32(len(indices))
}

func (b *treeBuilder) build(indices []int, depth int) *Node {
	if len(indices) < b.config.minNodeSize || len(indices) < 2 ||
		(b.config.maxDepth > 0 && depth > b.config.maxDepth) || b.pure(indices) {
		return &Node{Leaf: true, Value: b.leafValue(indices)}
	}
	feature, threshold, ok := b.bestSplit(indices)
	if !ok {
		return &Node{Leaf: true, Value: b.leafValue(indices)}
	}
	var left, right []int
	for _, i := range indices {
		if b.rows[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return &Node{
		Feature:   feature,
		Threshold: threshold,
		Left:      b.build(left, depth+1),
		Right:     b.build(right, depth+1),
	}
}

func (b *treeBuilder) pure(indices []int) bool {
	first := b.targets[indices[0]]
	for _, i := range indices[1:] {
		if b.targets[i] != first {
			return false
		}
	}
	return true
}

// bestSplit scans sampled features for the threshold with the largest sum of
// squares reduction.
func (b *treeBuilder) bestSplit(indices []int) (int, float32, bool) {
	numFeatures := len(b.rows[indices[0]])
	features := make([]int, numFeatures)
	for i := range features {
		features[i] = i
	}
	if b.config.mTry > 0 && b.config.mTry < numFeatures {
		perm := b.rng.Perm(numFeatures)
		features = perm[:b.config.mTry]
	}
	var total float64
	for _, i := range indices {
		total += float64(b.targets[i])
	}
	n := float64(len(indices))
	bestGain := 0.0
	bestFeature, bestThreshold, found := 0, float32(0), false
	baseline := total * total / n
	sorted := make([]int, len(indices))
	for _, feature := range features {
		copy(sorted, indices)
		sort.Slice(sorted, func(p, q int) bool {
			return b.rows[sorted[p]][feature] < b.rows[sorted[q]][feature]
		})
		var leftSum float64
		for pos := 0; pos < len(sorted)-1; pos++ {
			leftSum += float64(b.targets[sorted[pos]])
			value, next := b.rows[sorted[pos]][feature], b.rows[sorted[pos+1]][feature]
			if value == next {
				continue
			}
			nLeft := float64(pos + 1)
			nRight := n - nLeft
			rightSum := total - leftSum
			gain := leftSum*leftSum/nLeft + rightSum*rightSum/nRight - baseline
			if gain > bestGain {
				bestGain = gain
				bestFeature = feature
				bestThreshold = (value + next) / 2
				found = true
			}
		}
	}
	return bestFeature, bestThreshold, found
}
