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

// Package config loads training configuration from TOML files.
package config

import (
	"io"

	"github.com/juju/errors"
	"github.com/spf13/viper"

	"github.com/factorize-io/factorize/model"
)

// Config is the configuration for the trainer.
type Config struct {
	Train TrainConfig `mapstructure:"train"`
}

// TrainConfig holds hyper-parameters for gradient descent.
type TrainConfig struct {
	NFactors    int     `mapstructure:"n_factors"`
	NEpochs     int     `mapstructure:"n_epochs"`
	Lr          float64 `mapstructure:"lr"`
	Reg         float64 `mapstructure:"reg"`
	RandomState int64   `mapstructure:"random_state"`
	InitLow     float64 `mapstructure:"init_low"`
	InitHigh    float64 `mapstructure:"init_high"`
	Verbose     int     `mapstructure:"verbose"`
}

// GetDefaultConfig returns the default configuration.
func GetDefaultConfig() *Config {
	return &Config{
		Train: TrainConfig{
			NFactors:    10,
			NEpochs:     1000,
			Lr:          0.1,
			Reg:         0,
			RandomState: 0,
			InitLow:     0,
			InitHigh:    0.1,
			Verbose:     100,
		},
	}
}

func setDefault(v *viper.Viper) {
	defaults := GetDefaultConfig()
	v.SetDefault("train.n_factors", defaults.Train.NFactors)
	v.SetDefault("train.n_epochs", defaults.Train.NEpochs)
	v.SetDefault("train.lr", defaults.Train.Lr)
	v.SetDefault("train.reg", defaults.Train.Reg)
	v.SetDefault("train.random_state", defaults.Train.RandomState)
	v.SetDefault("train.init_low", defaults.Train.InitLow)
	v.SetDefault("train.init_high", defaults.Train.InitHigh)
	v.SetDefault("train.verbose", defaults.Train.Verbose)
}

// ReadConfig reads the configuration from a TOML stream. Missing settings
// fall back to defaults.
func ReadConfig(reader io.Reader) (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")
	setDefault(v)
	if err := v.ReadConfig(reader); err != nil {
		return nil, errors.Trace(err)
	}
	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, errors.Trace(err)
	}
	return &conf, nil
}

// LoadConfig loads the configuration from a TOML file. Missing settings fall
// back to defaults.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefault(v)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Trace(err)
	}
	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, errors.Trace(err)
	}
	return &conf, nil
}

// Params converts the training configuration to model hyper-parameters.
func (config *TrainConfig) Params() model.Params {
	return model.Params{
		model.NFactors:    config.NFactors,
		model.NEpochs:     config.NEpochs,
		model.Lr:          config.Lr,
		model.Reg:         config.Reg,
		model.RandomState: config.RandomState,
		model.InitLow:     config.InitLow,
		model.InitHigh:    config.InitHigh,
	}
}
