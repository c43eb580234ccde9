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

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParams_Copy(t *testing.T) {
	a := Params{
		NFactors:    1,
		Lr:          0.1,
		RandomState: 0,
	}
	b := a.Copy()
	b[NFactors] = 2
	b[Lr] = 0.2
	b[RandomState] = 1
	// Check original parameters
	assert.Equal(t, 1, a.GetInt(NFactors, -1))
	assert.Equal(t, float32(0.1), a.GetFloat32(Lr, -0.1))
	assert.Equal(t, int64(0), a.GetInt64(RandomState, -1))
	// Check copy parameters
	assert.Equal(t, 2, b.GetInt(NFactors, -1))
	assert.Equal(t, float32(0.2), b.GetFloat32(Lr, -0.1))
	assert.Equal(t, int64(1), b.GetInt64(RandomState, -1))
}

func TestParams_GetInt(t *testing.T) {
	p := Params{}
	// Empty case
	assert.Equal(t, -1, p.GetInt(NFactors, -1))
	// Normal case
	p[NFactors] = 0
	assert.Equal(t, 0, p.GetInt(NFactors, -1))
	// Wrong type case
	p[NFactors] = "hello"
	assert.Equal(t, -1, p.GetInt(NFactors, -1))
}

func TestParams_GetInt64(t *testing.T) {
	p := Params{}
	assert.Equal(t, int64(-1), p.GetInt64(RandomState, -1))
	p[RandomState] = int64(0)
	assert.Equal(t, int64(0), p.GetInt64(RandomState, -1))
	// Int is converted to int64
	p[RandomState] = 1
	assert.Equal(t, int64(1), p.GetInt64(RandomState, -1))
}

func TestParams_GetFloat32(t *testing.T) {
	p := Params{}
	assert.Equal(t, float32(0.1), p.GetFloat32(Lr, 0.1))
	p[Lr] = float32(1)
	assert.Equal(t, float32(1), p.GetFloat32(Lr, 0.1))
	// Float64 and int are converted to float32
	p[Lr] = 2.0
	assert.Equal(t, float32(2), p.GetFloat32(Lr, 0.1))
	p[Lr] = 3
	assert.Equal(t, float32(3), p.GetFloat32(Lr, 0.1))
	// Wrong type case
	p[Lr] = "hello"
	assert.Equal(t, float32(0.1), p.GetFloat32(Lr, 0.1))
}

func TestParams_Overwrite(t *testing.T) {
	a := Params{NFactors: 2, NEpochs: 10}
	b := a.Overwrite(Params{NEpochs: 20, Reg: 0.1})
	assert.Equal(t, 2, b.GetInt(NFactors, -1))
	assert.Equal(t, 20, b.GetInt(NEpochs, -1))
	assert.Equal(t, float32(0.1), b.GetFloat32(Reg, -1))
	// Original parameters are intact
	assert.Equal(t, 10, a.GetInt(NEpochs, -1))
}

func TestParams_ToString(t *testing.T) {
	p := Params{NFactors: 2}
	assert.Equal(t, `{"NFactors":2}`, p.ToString())
}
