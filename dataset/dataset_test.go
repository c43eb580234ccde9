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

package dataset

import (
	"strings"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

func TestNewRatings(t *testing.T) {
	r := NewRatings(3, 4)
	assert.Equal(t, 3, r.Users())
	assert.Equal(t, 4, r.Items())
	assert.Zero(t, r.Count())
	assert.False(t, r.IsRated(0, 0))
	r.Set(1, 2, 4.5)
	assert.True(t, r.IsRated(1, 2))
	assert.Equal(t, float32(4.5), r.Get(1, 2))
	assert.Equal(t, 1, r.Count())
}

func TestNewRatingsFrom(t *testing.T) {
	r, err := NewRatingsFrom([][]float32{
		{4, 5, math32.NaN()},
		{1, math32.NaN(), 2},
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, r.Users())
	assert.Equal(t, 3, r.Items())
	assert.Equal(t, 4, r.Count())
	assert.False(t, r.IsRated(0, 2))
	assert.True(t, r.IsRated(1, 2))

	// rows are copied
	rows := [][]float32{{1, 2}}
	r, err = NewRatingsFrom(rows)
	assert.NoError(t, err)
	rows[0][0] = 3
	assert.Equal(t, float32(1), r.Get(0, 0))

	_, err = NewRatingsFrom(nil)
	assert.Error(t, err)
	_, err = NewRatingsFrom([][]float32{{1, 2}, {3}})
	assert.Error(t, err)
}

func TestRatings_Transpose(t *testing.T) {
	r, err := NewRatingsFrom([][]float32{
		{4, 5, math32.NaN()},
		{1, math32.NaN(), 2},
	})
	assert.NoError(t, err)
	tr := r.Transpose()
	assert.Equal(t, 3, tr.Users())
	assert.Equal(t, 2, tr.Items())
	assert.Equal(t, float32(5), tr.Get(1, 0))
	assert.False(t, tr.IsRated(2, 0))
	assert.Equal(t, r.Count(), tr.Count())
}

func TestReadCSV(t *testing.T) {
	text := "4,5,1,,2,2\n5,4,1,2,1,1\n0,,3,4,5,5\n1,0,3,5,4,4\n,,,,,\n"
	r, err := ReadCSV(strings.NewReader(text))
	assert.NoError(t, err)
	assert.Equal(t, 5, r.Users())
	assert.Equal(t, 6, r.Items())
	assert.Equal(t, 22, r.Count())
	assert.False(t, r.IsRated(0, 3))
	assert.False(t, r.IsRated(4, 0))
	assert.Equal(t, float32(4), r.Get(0, 0))

	_, err = ReadCSV(strings.NewReader("1,foo\n"))
	assert.Error(t, err)
}

func TestLoadCSV(t *testing.T) {
	_, err := LoadCSV("no_such_file.csv")
	assert.Error(t, err)
}
