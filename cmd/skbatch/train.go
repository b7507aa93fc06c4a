package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/YuminosukeSato/skbatch/core/driver"
	"github.com/YuminosukeSato/skbatch/core/params"
	"github.com/YuminosukeSato/skbatch/core/pipeline"
	"github.com/YuminosukeSato/skbatch/core/sink"
	"github.com/YuminosukeSato/skbatch/core/source"
	"github.com/YuminosukeSato/skbatch/pkg/config"
	"github.com/YuminosukeSato/skbatch/pkg/errors"
	"github.com/YuminosukeSato/skbatch/pkg/log"
	"github.com/YuminosukeSato/skbatch/sklearn/drift"
	"github.com/YuminosukeSato/skbatch/sklearn/naive_bayes"
)

func newTrainCommand() *cobra.Command {
	var (
		configPath string
		overrides  []string
	)
	v := config.NewViper()

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a MultinomialNB model batch by batch and save it",
		Args:  cobra.NoArgs,
		Example: `  skbatch train --config run.yaml
  skbatch train --input data.csv --output model.gob --label-size 3 --param alpha=0.5
  skbatch train --config run.yaml --output s3://models/nb.gob --drift`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v, configPath)
			if err != nil {
				return err
			}
			if err := log.SetupLoggerTo(cmd.ErrOrStderr(), cfg.LogLevel); err != nil {
				return err
			}
			return train(cmd, cfg, overrides)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&configPath, "config", "c", "", "YAML run configuration")
	flags.StringArrayVarP(&overrides, "param", "p", nil, "hyperparameter override as key=value (repeatable)")
	flags.String("input", "", "CSV file with labeled rows")
	flags.String("output", "", "model destination: path or s3://bucket/key")
	flags.Int("label-size", 0, "number of labels; valid labels are 0..label-size-1")
	flags.Int("batch-size", 1000, "rows per incremental fit")
	flags.Int("label-column", -1, "label column index; negative counts from the end")
	flags.Bool("header", false, "skip the first CSV record")
	flags.String("delimiter", ",", "CSV field delimiter")
	flags.String("log-level", "info", "debug, info, warn or error")
	flags.String("s3-region", "us-east-1", "AWS region for s3:// outputs")
	flags.Bool("drift", false, "score each batch before training and warn on concept drift")
	flags.String("drift-detector", "ddm", "drift detector: ddm or adwin")

	bindFlags(v, cmd, map[string]string{
		config.KeyInput:       "input",
		config.KeyOutput:      "output",
		config.KeyLabelSize:   "label-size",
		config.KeyBatchSize:   "batch-size",
		config.KeyLabelColumn: "label-column",
		config.KeyHeader:      "header",
		config.KeyDelimiter:   "delimiter",
		config.KeyLogLevel:    "log-level",
		config.KeyS3Region:    "s3-region",
		config.KeyDrift:       "drift",
		config.KeyDetector:    "drift-detector",
	})
	return cmd
}

func bindFlags(v *viper.Viper, cmd *cobra.Command, keys map[string]string) {
	for key, flag := range keys {
		// Lookup cannot fail for flags registered above.
		_ = v.BindPFlag(key, cmd.Flags().Lookup(flag))
	}
}

func train(cmd *cobra.Command, cfg *config.RunConfig, overrides []string) error {
	logger := log.GetLogger()

	values, err := cfg.MergeParams(overrides)
	if err != nil {
		return err
	}

	f, err := os.Open(cfg.Input)
	if err != nil {
		return errors.Wrap(err, "open input")
	}
	defer f.Close()

	src, err := source.CSV(f, source.CSVOptions{
		BatchSize:   cfg.BatchSize,
		LabelColumn: cfg.LabelColumn,
		Header:      cfg.Header,
		Comma:       cfg.Comma(),
	})
	if err != nil {
		return err
	}

	out, err := newSink(cfg, logger)
	if err != nil {
		return err
	}

	nb := naive_bayes.NewMultinomialNB()
	var trainer driver.Trainer = driver.NewLearnerTrainer(nb)
	var monitor *drift.Monitor
	if cfg.Drift.Enabled {
		monitor = drift.NewMonitor(trainer, nb, drift.WithDetector(newDetector(cfg.Drift.Detector)), drift.WithLogger(logger))
		trainer = monitor
	}

	rep, err := pipeline.Execute(cmd.Context(), pipeline.Run{
		Learner:     nb,
		Config:      params.NewConfiguration(values),
		Source:      src,
		LabelSize:   cfg.LabelSize,
		Sink:        out,
		Destination: cfg.Output,
		Trainer:     trainer,
	}, pipeline.WithLogger(logger))
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "trained %d batches (%d samples) in %s\n", rep.Batches, rep.Samples, rep.Duration.Round(time.Millisecond))
	if monitor != nil {
		st := monitor.Stats()
		fmt.Fprintf(w, "prequential accuracy %.4f over %d samples, %d drift(s)\n", st.Accuracy(), st.Samples, st.Drifts)
	}
	fmt.Fprintf(w, "model saved to %s\n", rep.Destination)
	return nil
}

func newSink(cfg *config.RunConfig, logger log.Logger) (sink.Sink, error) {
	router := sink.NewRouter(sink.NewFileSink(logger))
	if strings.HasPrefix(cfg.Output, "s3://") {
		s3Sink, err := sink.NewS3SinkForRegion(cfg.S3Region, logger)
		if err != nil {
			return nil, err
		}
		router.Register("s3", s3Sink)
	}
	return router, nil
}

func newDetector(name string) drift.Detector {
	if name == "adwin" {
		return drift.NewADWIN()
	}
	return drift.NewDDM()
}
