// Copyright 2024 comrec Project Authors
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

// comrec trains a community-aware rating model over a rating file and reports
// the prediction accuracy on a held-out split.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/comrec-io/comrec/base/log"
	"github.com/comrec-io/comrec/base/progress"
	"github.com/comrec-io/comrec/config"
	"github.com/comrec-io/comrec/dataset"
	"github.com/comrec-io/comrec/model/rating"
)

func main() {
	flagSet := pflag.NewFlagSet("comrec", pflag.ExitOnError)
	configPath := flagSet.StringP("config", "c", "", "path of the configuration file")
	dataPath := flagSet.String("data", "", "path of the rating file, overrides the configuration")
	debug := flagSet.Bool("debug", false, "use debug log mode")
	log.AddFlags(flagSet)
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log.SetLogger(flagSet, *debug)

	var conf *config.Config
	if *configPath != "" {
		var err error
		if conf, err = config.LoadConfig(*configPath); err != nil {
			log.Logger().Fatal("failed to load config", zap.Error(err),
				zap.String("config_path", *configPath))
		}
	} else {
		conf = config.GetDefaultConfig()
	}
	if *dataPath != "" {
		conf.Data.Path = *dataPath
	}
	if conf.Data.Path == "" {
		log.Logger().Fatal("no rating file, use --data or data.path in the config")
	}

	data, err := dataset.LoadCSV(conf.Data.Path, conf.Data.Separator, false)
	if err != nil {
		log.Logger().Fatal("failed to load ratings", zap.Error(err),
			zap.String("data_path", conf.Data.Path))
	}
	log.Logger().Info("loaded ratings",
		zap.Int("num_users", data.CountUsers()),
		zap.Int("num_items", data.CountItems()),
		zap.Int("num_ratings", data.CountRatings()))
	trainSet, testSet := data.SplitRatings(conf.Data.TestRatio, conf.Data.Seed)

	tracer := progress.NewTracer("comrec")
	ctx, span := tracer.Start(context.Background(), "Train", 1)
	recommender := rating.NewComNeighSVD(conf.ModelParams())
	score, err := recommender.Fit(ctx, trainSet, testSet, conf.FitConfig())
	if err != nil {
		span.Fail(err)
		log.Logger().Fatal("failed to fit model", zap.Error(err))
	}
	span.End()
	for _, task := range tracer.List() {
		log.Logger().Info("task complete",
			zap.String("task", task.Name),
			zap.Duration("elapsed", task.FinishTime.Sub(task.StartTime)))
	}
	fmt.Printf("RMSE = %.6f, MAE = %.6f\n", score.RMSE, score.MAE)
}
