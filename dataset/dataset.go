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

// Package dataset holds rating matrices for collaborative filtering. A rating
// matrix is dense with float32 NaN marking unobserved entries, so observed
// ratings may take any finite value without colliding with the sentinel.
package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chewxy/math32"
	"github.com/juju/errors"
)

// Ratings is a users × items rating matrix. Unobserved entries are NaN.
type Ratings struct {
	values [][]float32
}

// NewRatings creates a rating matrix with all entries unobserved.
func NewRatings(users, items int) *Ratings {
	values := make([][]float32, users)
	for u := range values {
		values[u] = make([]float32, items)
		for i := range values[u] {
			values[u][i] = math32.NaN()
		}
	}
	return &Ratings{values: values}
}

// NewRatingsFrom creates a rating matrix from literal rows. Use NaN for
// unobserved entries. The rows are copied.
func NewRatingsFrom(values [][]float32) (*Ratings, error) {
	if len(values) == 0 {
		return nil, errors.New("rating matrix must have at least one row")
	}
	copied := make([][]float32, len(values))
	for u := range values {
		if len(values[u]) != len(values[0]) {
			return nil, errors.Errorf("ragged rating matrix: row %d has %d entries, expected %d",
				u, len(values[u]), len(values[0]))
		}
		copied[u] = make([]float32, len(values[u]))
		copy(copied[u], values[u])
	}
	return &Ratings{values: copied}, nil
}

// Users returns the number of users (rows).
func (r *Ratings) Users() int {
	return len(r.values)
}

// Items returns the number of items (columns).
func (r *Ratings) Items() int {
	if len(r.values) == 0 {
		return 0
	}
	return len(r.values[0])
}

// Get returns the rating given by a user to an item. The result is NaN for
// unobserved entries.
func (r *Ratings) Get(user, item int) float32 {
	return r.values[user][item]
}

// Set stores a rating.
func (r *Ratings) Set(user, item int, rating float32) {
	r.values[user][item] = rating
}

// IsRated reports whether a rating is observed.
func (r *Ratings) IsRated(user, item int) bool {
	return !math32.IsNaN(r.values[user][item])
}

// Count returns the number of observed ratings.
func (r *Ratings) Count() int {
	count := 0
	for u := range r.values {
		for i := range r.values[u] {
			if !math32.IsNaN(r.values[u][i]) {
				count++
			}
		}
	}
	return count
}

// Transpose returns a new items × users rating matrix.
func (r *Ratings) Transpose() *Ratings {
	transposed := make([][]float32, r.Items())
	for i := range transposed {
		transposed[i] = make([]float32, r.Users())
		for u := range transposed[i] {
			transposed[i][u] = r.values[u][i]
		}
	}
	return &Ratings{values: transposed}
}

// ReadCSV reads a rating matrix from a CSV grid. Each record is one user,
// each field one item. Empty fields are unobserved ratings.
func ReadCSV(reader io.Reader) (*Ratings, error) {
	r := csv.NewReader(reader)
	var values [][]float32
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, errors.Trace(err)
		}
		row := make([]float32, len(record))
		for i, field := range record {
			if strings.TrimSpace(field) == "" {
				row[i] = math32.NaN()
				continue
			}
			rating, err := strconv.ParseFloat(strings.TrimSpace(field), 32)
			if err != nil {
				return nil, errors.Annotatef(err, "invalid rating at row %d column %d", len(values), i)
			}
			row[i] = float32(rating)
		}
		values = append(values, row)
	}
	return NewRatingsFrom(values)
}

// LoadCSV reads a rating matrix from a CSV file.
func LoadCSV(path string) (*Ratings, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer file.Close()
	return ReadCSV(file)
}
