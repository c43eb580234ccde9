// Copyright 2025 factorize Project Authors
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

	"github.com/stretchr/testify/assert"
)

func TestRandomGenerator_Deterministic(t *testing.T) {
	a := NewRandomGenerator(42)
	b := NewRandomGenerator(42)
	assert.Equal(t, a.UniformMatrix(4, 3, 0, 1), b.UniformMatrix(4, 3, 0, 1))
	assert.Equal(t, a.NormalMatrix(4, 3, 0, 0.1), b.NormalMatrix(4, 3, 0, 0.1))
}

func TestRandomGenerator_UniformVector(t *testing.T) {
	rng := NewRandomGenerator(0)
	v := rng.UniformVector(1000, 1, 2)
	for _, x := range v {
		assert.GreaterOrEqual(t, x, float32(1))
		assert.Less(t, x, float32(2))
	}
}

func TestRandomGenerator_UniformMatrix(t *testing.T) {
	rng := NewRandomGenerator(0)
	m := rng.UniformMatrix(5, 6, 0, 0.1)
	assert.Len(t, m, 5)
	for _, row := range m {
		assert.Len(t, row, 6)
	}
}
