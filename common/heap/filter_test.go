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

package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopKFilter(t *testing.T) {
	filter := NewTopKFilter[int32, float32](3)
	for i, weight := range []float32{10, 2, 15, 8, 64, 4} {
		filter.Push(int32(i), weight)
	}
	items, weights := filter.PopAll()
	assert.Equal(t, []int32{4, 2, 0}, items)
	assert.Equal(t, []float32{64, 15, 10}, weights)
}

func TestTopKFilter_Underfill(t *testing.T) {
	filter := NewTopKFilter[int32, float32](10)
	filter.Push(1, 1)
	filter.Push(2, 2)
	items, weights := filter.PopAll()
	assert.Equal(t, []int32{2, 1}, items)
	assert.Equal(t, []float32{2, 1}, weights)
}
