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

// NewMatrix32 creates a 2D matrix of 32-bit floats.
func NewMatrix32(row, col int) [][]float32 {
	ret := make([][]float32, row)
	for i := range ret {
		ret[i] = make([]float32, col)
	}
	return ret
}

// CopyMatrix32 creates a deep copy of a 2D matrix of 32-bit floats.
func CopyMatrix32(a [][]float32) [][]float32 {
	ret := make([][]float32, len(a))
	for i := range ret {
		ret[i] = make([]float32, len(a[i]))
		copy(ret[i], a[i])
	}
	return ret
}
