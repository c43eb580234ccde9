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

// Package mf implements matrix factorization over rating matrices with
// unobserved entries. A users × items rating matrix Y is approximated by
// Θ·Xᵗ where Θ holds one latent parameter vector per user and X one latent
// feature vector per item. Both factor matrices are learned jointly by
// fixed-step gradient descent on the masked residual: entries of Θ·Xᵗ − Y at
// unobserved positions are zeroed before they enter the loss or any gradient,
// so unobserved ratings contribute nothing to training.
package mf

import (
	"context"
	"fmt"
	"time"

	"github.com/chewxy/math32"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/factorize-io/factorize/base"
	"github.com/factorize-io/factorize/base/log"
	"github.com/factorize-io/factorize/base/progress"
	"github.com/factorize-io/factorize/common/floats"
	"github.com/factorize-io/factorize/common/heap"
	"github.com/factorize-io/factorize/dataset"
	"github.com/factorize-io/factorize/model"
)

var (
	// ErrShapeMismatch reports incompatible dimensions among the factor
	// matrices and the rating matrix.
	ErrShapeMismatch = errors.New("shape mismatch among factor and rating matrices")
	// ErrInvalidConfig reports invalid hyper-parameters.
	ErrInvalidConfig = errors.New("invalid hyper-parameters")
)

// FitConfig is the runtime configuration for fitting.
type FitConfig struct {
	Verbose int // log cost every Verbose epochs
}

// NewFitConfig creates a default fit config.
func NewFitConfig() *FitConfig {
	return &FitConfig{Verbose: 100}
}

// SetVerbose sets the verbosity.
func (config *FitConfig) SetVerbose(verbose int) *FitConfig {
	config.Verbose = verbose
	return config
}

// LoadDefaultIfNil loads the default config if the receiver is nil.
func (config *FitConfig) LoadDefaultIfNil() *FitConfig {
	if config == nil {
		return NewFitConfig()
	}
	return config
}

func checkShapes(userFactor, itemFactor [][]float32, ratings *dataset.Ratings) error {
	if len(userFactor) != ratings.Users() {
		return errors.Annotatef(ErrShapeMismatch, "user factor has %d rows, rating matrix has %d users",
			len(userFactor), ratings.Users())
	}
	if len(itemFactor) != ratings.Items() {
		return errors.Annotatef(ErrShapeMismatch, "item factor has %d rows, rating matrix has %d items",
			len(itemFactor), ratings.Items())
	}
	if len(userFactor) == 0 || len(itemFactor) == 0 {
		return errors.Annotate(ErrShapeMismatch, "factor matrices must not be empty")
	}
	nFactors := len(itemFactor[0])
	if nFactors == 0 {
		return errors.Annotate(ErrShapeMismatch, "factor matrices must have at least one column")
	}
	for _, row := range userFactor {
		if len(row) != nFactors {
			return errors.Annotatef(ErrShapeMismatch, "user factor has %d columns, item factor has %d",
				len(row), nFactors)
		}
	}
	for _, row := range itemFactor {
		if len(row) != nFactors {
			return errors.Annotatef(ErrShapeMismatch, "ragged item factor: row has %d columns, expected %d",
				len(row), nFactors)
		}
	}
	return nil
}

// Cost returns the reconstruction error 0.5·Σ(Θ·Xᵗ − Y)² over observed
// entries. The regularization penalty is deliberately not included even when
// training uses a non-zero regularization strength: the metric monitors
// reconstruction error only, so with Reg > 0 it is not the exact function
// being descended.
func Cost(userFactor, itemFactor [][]float32, ratings *dataset.Ratings) (float32, error) {
	if err := checkShapes(userFactor, itemFactor, ratings); err != nil {
		return 0, err
	}
	return cost(userFactor, itemFactor, ratings), nil
}

func cost(userFactor, itemFactor [][]float32, ratings *dataset.Ratings) float32 {
	var sum float32
	for u := 0; u < ratings.Users(); u++ {
		for i := 0; i < ratings.Items(); i++ {
			if ratings.IsRated(u, i) {
				diff := floats.Dot(userFactor[u], itemFactor[i]) - ratings.Get(u, i)
				sum += diff * diff
			}
		}
	}
	return 0.5 * sum
}

// Residual computes the masked residual Θ·Xᵗ − Y into dst. Entries at
// unobserved positions are zero, which is what keeps unobserved ratings out
// of the loss and both gradients.
func Residual(userFactor, itemFactor [][]float32, ratings *dataset.Ratings, dst [][]float32) error {
	if err := checkShapes(userFactor, itemFactor, ratings); err != nil {
		return err
	}
	if len(dst) != ratings.Users() {
		return errors.Annotatef(ErrShapeMismatch, "residual buffer has %d rows, expected %d",
			len(dst), ratings.Users())
	}
	for u := range dst {
		if len(dst[u]) != ratings.Items() {
			return errors.Annotatef(ErrShapeMismatch, "residual buffer has %d columns, expected %d",
				len(dst[u]), ratings.Items())
		}
	}
	residual(userFactor, itemFactor, ratings, dst)
	return nil
}

func residual(userFactor, itemFactor [][]float32, ratings *dataset.Ratings, dst [][]float32) {
	for u := 0; u < ratings.Users(); u++ {
		for i := 0; i < ratings.Items(); i++ {
			if ratings.IsRated(u, i) {
				dst[u][i] = floats.Dot(userFactor[u], itemFactor[i]) - ratings.Get(u, i)
			} else {
				dst[u][i] = 0
			}
		}
	}
}

// Step performs one in-place gradient descent step on both factor matrices:
//
//	R  = Θ·Xᵗ − Y   (masked)
//	ΔX = Rᵗ·Θ + reg·X
//	ΔΘ = R·X + reg·Θ
//	X ← X − lr·ΔX, Θ ← Θ − lr·ΔΘ
//
// Both gradients are computed from the factors as they were at the start of
// the step before either matrix is updated. Nothing is mutated on error.
func Step(userFactor, itemFactor [][]float32, ratings *dataset.Ratings, lr, reg float32) error {
	if lr < 0 || reg < 0 {
		return errors.Annotatef(ErrInvalidConfig, "lr = %v, reg = %v", lr, reg)
	}
	if err := checkShapes(userFactor, itemFactor, ratings); err != nil {
		return err
	}
	nFactors := len(userFactor[0])
	step(userFactor, itemFactor, ratings, lr, reg,
		base.NewMatrix32(ratings.Users(), ratings.Items()),
		base.NewMatrix32(ratings.Users(), nFactors),
		base.NewMatrix32(ratings.Items(), nFactors))
	return nil
}

func step(userFactor, itemFactor [][]float32, ratings *dataset.Ratings, lr, reg float32,
	res, gradUser, gradItem [][]float32) {
	residual(userFactor, itemFactor, ratings, res)
	// ΔX = Rᵗ·Θ + reg·X
	for i := range itemFactor {
		floats.MulConstTo(itemFactor[i], reg, gradItem[i])
	}
	for u := range userFactor {
		for i := range itemFactor {
			floats.MulConstAdd(userFactor[u], res[u][i], gradItem[i])
		}
	}
	// ΔΘ = R·X + reg·Θ
	for u := range userFactor {
		floats.MulConstTo(userFactor[u], reg, gradUser[u])
		for i := range itemFactor {
			floats.MulConstAdd(itemFactor[i], res[u][i], gradUser[u])
		}
	}
	// Simultaneous update: both gradients above read the pre-step factors.
	for i := range itemFactor {
		floats.MulConstAdd(gradItem[i], -lr, itemFactor[i])
	}
	for u := range userFactor {
		floats.MulConstAdd(gradUser[u], -lr, userFactor[u])
	}
}

// ItemDistance returns the squared Euclidean distance between the latent
// feature vectors of two items. Smaller distance means more similar items.
func ItemDistance(itemFactor [][]float32, i, j int) float32 {
	diff := make([]float32, len(itemFactor[i]))
	floats.SubTo(itemFactor[i], itemFactor[j], diff)
	return floats.Dot(diff, diff)
}

// GradientDescent factorizes a rating matrix into user and item latent
// factors by joint fixed-step gradient descent.
//
// Hyper-parameters:
//
//	Lr          - The learning rate of each step. Default is 0.1.
//	Reg         - The regularization strength in the gradients. Default is 0.
//	NEpochs     - The number of gradient descent steps. Default is 1000.
//	NFactors    - The number of latent factors. Default is 10.
//	InitLow     - The lower bound of initial random factors. Default is 0.
//	InitHigh    - The upper bound of initial random factors. Default is 0.1.
//	RandomState - The seed of the random generator. Default is 0.
type GradientDescent struct {
	model.BaseModel
	// Model parameters
	UserFactor [][]float32 // Θ
	ItemFactor [][]float32 // X
	// Hyper parameters
	nFactors int
	nEpochs  int
	lr       float32
	reg      float32
	initLow  float32
	initHigh float32
	// Step buffers
	res      [][]float32
	gradUser [][]float32
	gradItem [][]float32
}

// NewGradientDescent creates a gradient descent model.
func NewGradientDescent(params model.Params) *GradientDescent {
	gd := new(GradientDescent)
	gd.SetParams(params)
	return gd
}

// SetParams sets hyper-parameters of the gradient descent model.
func (gd *GradientDescent) SetParams(params model.Params) {
	gd.BaseModel.SetParams(params)
	gd.nFactors = gd.Params.GetInt(model.NFactors, 10)
	gd.nEpochs = gd.Params.GetInt(model.NEpochs, 1000)
	gd.lr = gd.Params.GetFloat32(model.Lr, 0.1)
	gd.reg = gd.Params.GetFloat32(model.Reg, 0)
	gd.initLow = gd.Params.GetFloat32(model.InitLow, 0)
	gd.initHigh = gd.Params.GetFloat32(model.InitHigh, 0.1)
}

// validateParams rejects hyper-parameters before any matrix is touched. A
// zero learning rate is allowed and makes every step a no-op.
func (gd *GradientDescent) validateParams() error {
	if gd.lr < 0 {
		return errors.Annotatef(ErrInvalidConfig, "lr = %v", gd.lr)
	}
	if gd.reg < 0 {
		return errors.Annotatef(ErrInvalidConfig, "reg = %v", gd.reg)
	}
	if gd.nEpochs < 0 {
		return errors.Annotatef(ErrInvalidConfig, "n_epochs = %v", gd.nEpochs)
	}
	if gd.nFactors < 1 {
		return errors.Annotatef(ErrInvalidConfig, "n_factors = %v", gd.nFactors)
	}
	return nil
}

// Clear clears model weights.
func (gd *GradientDescent) Clear() {
	gd.UserFactor = nil
	gd.ItemFactor = nil
	gd.res = nil
	gd.gradUser = nil
	gd.gradItem = nil
}

// Invalid reports whether the model has no weights.
func (gd *GradientDescent) Invalid() bool {
	return gd.UserFactor == nil || gd.ItemFactor == nil
}

// Init initializes both factor matrices with small uniform random values from
// the seeded random generator.
func (gd *GradientDescent) Init(ratings *dataset.Ratings) {
	gd.UserFactor = gd.GetRandomGenerator().UniformMatrix(ratings.Users(), gd.nFactors, gd.initLow, gd.initHigh)
	gd.ItemFactor = gd.GetRandomGenerator().UniformMatrix(ratings.Items(), gd.nFactors, gd.initLow, gd.initHigh)
}

func (gd *GradientDescent) ensureBuffers(ratings *dataset.Ratings) {
	// Buffers are sized from the factor matrices rather than NFactors, since
	// the caller may install its own factors before training.
	k := len(gd.UserFactor[0])
	if len(gd.res) != ratings.Users() || len(gd.res[0]) != ratings.Items() ||
		len(gd.gradUser[0]) != k {
		gd.res = base.NewMatrix32(ratings.Users(), ratings.Items())
		gd.gradUser = base.NewMatrix32(ratings.Users(), k)
		gd.gradItem = base.NewMatrix32(ratings.Items(), k)
	}
}

// Step performs a single gradient descent step, initializing the factor
// matrices first if the model has none. Calling Step in a loop and recording
// Cost after each call yields the convergence trace of a full fit.
func (gd *GradientDescent) Step(ratings *dataset.Ratings) error {
	if err := gd.validateParams(); err != nil {
		return err
	}
	if gd.Invalid() {
		gd.Init(ratings)
	}
	if err := checkShapes(gd.UserFactor, gd.ItemFactor, ratings); err != nil {
		return err
	}
	gd.ensureBuffers(ratings)
	step(gd.UserFactor, gd.ItemFactor, ratings, gd.lr, gd.reg, gd.res, gd.gradUser, gd.gradItem)
	return nil
}

// Cost returns the current reconstruction error on a rating matrix.
func (gd *GradientDescent) Cost(ratings *dataset.Ratings) (float32, error) {
	return Cost(gd.UserFactor, gd.ItemFactor, ratings)
}

// Fit runs NEpochs gradient descent steps and returns the cost after each
// step. There is no early stopping: the iteration budget is fixed, and a
// diverging run is reported by a warning instead of an error.
func (gd *GradientDescent) Fit(ctx context.Context, ratings *dataset.Ratings, config *FitConfig) ([]float32, error) {
	config = config.LoadDefaultIfNil()
	if err := gd.validateParams(); err != nil {
		return nil, err
	}
	if gd.Invalid() {
		gd.Init(ratings)
	}
	if err := checkShapes(gd.UserFactor, gd.ItemFactor, ratings); err != nil {
		return nil, err
	}
	log.Logger().Info("fit gradient descent",
		zap.Int("users", ratings.Users()),
		zap.Int("items", ratings.Items()),
		zap.Int("ratings", ratings.Count()),
		zap.Any("params", gd.GetParams()))
	gd.ensureBuffers(ratings)
	history := make([]float32, 0, gd.nEpochs)
	warned := false
	_, span := progress.Start(ctx, "GradientDescent.Fit", gd.nEpochs)
	for epoch := 1; epoch <= gd.nEpochs; epoch++ {
		fitStart := time.Now()
		step(gd.UserFactor, gd.ItemFactor, ratings, gd.lr, gd.reg, gd.res, gd.gradUser, gd.gradItem)
		fitTime := time.Since(fitStart)
		c := cost(gd.UserFactor, gd.ItemFactor, ratings)
		history = append(history, c)
		if !warned && (math32.IsNaN(c) || math32.IsInf(c, 0)) {
			// Divergence under a large learning rate is a caller concern,
			// not an error. Warn once and keep going.
			log.Logger().Warn("non-finite cost",
				zap.Int("epoch", epoch),
				zap.Float32("lr", gd.lr))
			warned = true
		}
		if config.Verbose > 0 && (epoch%config.Verbose == 0 || epoch == gd.nEpochs) {
			log.Logger().Info(fmt.Sprintf("fit gradient descent %v/%v", epoch, gd.nEpochs),
				zap.String("fit_time", fitTime.String()),
				zap.Float32("cost", c))
		}
		span.Add(1)
	}
	span.End()
	return history, nil
}

// Predict the rating given by a user to an item. Entries that were observed
// in the training matrix come back as the fitted reconstruction, which is not
// guaranteed to equal the original rating.
func (gd *GradientDescent) Predict(user, item int) float32 {
	if gd.Invalid() || user < 0 || user >= len(gd.UserFactor) || item < 0 || item >= len(gd.ItemFactor) {
		log.Logger().Warn("unknown user or item",
			zap.Int("user", user),
			zap.Int("item", item))
		return 0
	}
	return floats.Dot(gd.UserFactor[user], gd.ItemFactor[item])
}

// Reconstruct returns the dense reconstruction Θ·Xᵗ of the full rating
// matrix. Entries at unobserved positions are the model's predictions.
func (gd *GradientDescent) Reconstruct() [][]float32 {
	if gd.Invalid() {
		return nil
	}
	ret := base.NewMatrix32(len(gd.UserFactor), len(gd.ItemFactor))
	for u := range gd.UserFactor {
		for i := range gd.ItemFactor {
			ret[u][i] = floats.Dot(gd.UserFactor[u], gd.ItemFactor[i])
		}
	}
	return ret
}

// Neighbors returns the n most similar items to an item, ranked by increasing
// squared Euclidean distance between latent feature vectors.
func (gd *GradientDescent) Neighbors(item, n int) ([]int32, []float32, error) {
	if gd.Invalid() {
		return nil, nil, errors.New("model has no weights")
	}
	if item < 0 || item >= len(gd.ItemFactor) {
		return nil, nil, errors.Errorf("item index out of range: %v", item)
	}
	filter := heap.NewTopKFilter[int32, float32](n)
	for j := range gd.ItemFactor {
		if j != item {
			filter.Push(int32(j), -ItemDistance(gd.ItemFactor, item, j))
		}
	}
	items, weights := filter.PopAll()
	distances := lo.Map(weights, func(w float32, _ int) float32 {
		return -w
	})
	return items, distances, nil
}
