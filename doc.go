// Package skbatch trains incremental (online) classifiers from a stream of
// labeled batches and persists the fitted model.
//
// A run has three collaborators: a parameter binder that maps external
// key/value settings onto a learner's hyperparameters, a batch driver that
// feeds successive batches to the learner's PartialFit, and a model sink
// that snapshots the learner once every batch has been applied.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "context"
//	    "log"
//
//	    "github.com/YuminosukeSato/skbatch/core/model"
//	    "github.com/YuminosukeSato/skbatch/core/params"
//	    "github.com/YuminosukeSato/skbatch/core/pipeline"
//	    "github.com/YuminosukeSato/skbatch/core/sink"
//	    "github.com/YuminosukeSato/skbatch/core/source"
//	    skblog "github.com/YuminosukeSato/skbatch/pkg/log"
//	    "github.com/YuminosukeSato/skbatch/sklearn/naive_bayes"
//	)
//
//	func main() {
//	    nb := naive_bayes.NewMultinomialNB()
//	    src := source.Slice(
//	        model.NewBatch([][]float64{{3, 0}, {0, 2}}, []int{0, 1}),
//	        model.NewBatch([][]float64{{1, 4}}, []int{2}),
//	    )
//	    _, err := pipeline.Execute(context.Background(), pipeline.Run{
//	        Learner:     nb,
//	        Config:      params.NewConfiguration(map[string]interface{}{"alpha": 0.5}),
//	        Source:      src,
//	        LabelSize:   3,
//	        Sink:        sink.NewFileSink(skblog.GetLogger()),
//	        Destination: "nb.gob",
//	    })
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	}
//
// Every batch is trained with the full label set [0, LabelSize), so a batch
// that happens to contain only some of the labels never shrinks the model's
// class list.
//
// # Packages
//
//   - core/driver: the batch-feeding loop and the Trainer callback contract
//   - core/params: Configuration and the binder that applies it
//   - core/sink: file and S3 model sinks
//   - core/source: CSV, slice and channel batch sources
//   - core/pipeline: one full run from configuration to persistence
//   - core/model: Batch, LabelSpace, learner interfaces, gob persistence
//   - sklearn/naive_bayes: MultinomialNB with PartialFit
//   - sklearn/drift: DDM and ADWIN drift detectors and a prequential monitor
//   - metrics: classification metrics
//   - pkg/config, pkg/errors, pkg/log: configuration, typed errors, logging
//
// # Command line
//
// cmd/skbatch wraps a run behind a cobra command:
//
//	skbatch train --input data.csv --output s3://bucket/nb.gob --label-size 3 --param alpha=0.5
//
// # Error Handling
//
// Failures are reported as *errors.StageError naming the stage
// (configuration, batch or persistence) and, for batch failures, the 1-based
// batch index. The underlying typed error is reachable with errors.As.
package skbatch
