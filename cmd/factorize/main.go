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

package main

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/samber/lo"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/factorize-io/factorize/base/log"
	"github.com/factorize-io/factorize/config"
	"github.com/factorize-io/factorize/dataset"
	"github.com/factorize-io/factorize/model/mf"
)

var mainCommand = &cobra.Command{
	Use:   "factorize RATINGS_CSV",
	Short: "Factorize a rating matrix with missing entries into latent factors.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		// setup logger
		debug, _ := cmd.PersistentFlags().GetBool("debug")
		log.SetLogger(cmd.PersistentFlags(), debug)

		// load config
		conf := config.GetDefaultConfig()
		if cmd.PersistentFlags().Changed("config") {
			configPath, _ := cmd.PersistentFlags().GetString("config")
			var err error
			conf, err = config.LoadConfig(configPath)
			if err != nil {
				log.Logger().Fatal("failed to load config", zap.Error(err))
			}
		}
		if cmd.PersistentFlags().Changed("factors") {
			conf.Train.NFactors, _ = cmd.PersistentFlags().GetInt("factors")
		}
		if cmd.PersistentFlags().Changed("epochs") {
			conf.Train.NEpochs, _ = cmd.PersistentFlags().GetInt("epochs")
		}
		if cmd.PersistentFlags().Changed("lr") {
			conf.Train.Lr, _ = cmd.PersistentFlags().GetFloat64("lr")
		}
		if cmd.PersistentFlags().Changed("reg") {
			conf.Train.Reg, _ = cmd.PersistentFlags().GetFloat64("reg")
		}
		if cmd.PersistentFlags().Changed("seed") {
			conf.Train.RandomState, _ = cmd.PersistentFlags().GetInt64("seed")
		}

		// load ratings
		ratings, err := dataset.LoadCSV(args[0])
		if err != nil {
			log.Logger().Fatal("failed to load ratings", zap.String("path", args[0]), zap.Error(err))
		}
		log.Logger().Info("loaded ratings",
			zap.String("path", args[0]),
			zap.Int("users", ratings.Users()),
			zap.Int("items", ratings.Items()),
			zap.Int("ratings", ratings.Count()))

		// train step by step so the cost trace covers every iteration
		gd := mf.NewGradientDescent(conf.Train.Params())
		gd.Init(ratings)
		bar := progressbar.Default(int64(conf.Train.NEpochs), "fit")
		history := make([]float32, 0, conf.Train.NEpochs)
		for epoch := 1; epoch <= conf.Train.NEpochs; epoch++ {
			if err = gd.Step(ratings); err != nil {
				log.Logger().Fatal("failed to fit", zap.Error(err))
			}
			cost, err := gd.Cost(ratings)
			if err != nil {
				log.Logger().Fatal("failed to evaluate cost", zap.Error(err))
			}
			history = append(history, cost)
			if conf.Train.Verbose > 0 && epoch%conf.Train.Verbose == 0 {
				log.Logger().Debug("fit gradient descent",
					zap.Int("epoch", epoch),
					zap.Float32("cost", cost))
			}
			_ = bar.Add(1)
		}
		if len(history) > 0 {
			log.Logger().Info("fit complete",
				zap.Int("epochs", len(history)),
				zap.Float32("cost", history[len(history)-1]))
		}

		// write the (iteration, cost) trace
		if cmd.PersistentFlags().Changed("trace") {
			tracePath, _ := cmd.PersistentFlags().GetString("trace")
			file, err := os.Create(tracePath)
			if err != nil {
				log.Logger().Fatal("failed to create trace file", zap.Error(err))
			}
			defer file.Close()
			writer := csv.NewWriter(file)
			records := lo.Map(history, func(cost float32, i int) []string {
				return []string{
					strconv.Itoa(i + 1),
					strconv.FormatFloat(float64(cost), 'g', -1, 32),
				}
			})
			if err = writer.WriteAll(records); err != nil {
				log.Logger().Fatal("failed to write trace file", zap.Error(err))
			}
			log.Logger().Info("wrote cost trace", zap.String("path", tracePath))
		}
	},
}

func init() {
	mainCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
	mainCommand.PersistentFlags().String("config", "", "path of config file (TOML)")
	mainCommand.PersistentFlags().Int("factors", 10, "number of latent factors")
	mainCommand.PersistentFlags().Int("epochs", 1000, "number of gradient descent steps")
	mainCommand.PersistentFlags().Float64("lr", 0.1, "learning rate")
	mainCommand.PersistentFlags().Float64("reg", 0, "regularization strength")
	mainCommand.PersistentFlags().Int64("seed", 0, "seed of the random generator")
	mainCommand.PersistentFlags().String("trace", "", "write the iteration,cost trace to a CSV file")
	log.AddFlags(mainCommand.PersistentFlags())
}

func main() {
	if err := mainCommand.Execute(); err != nil {
		log.Logger().Fatal("failed to execute", zap.Error(err))
	}
}
