package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/skbatch/core/model"
	"github.com/YuminosukeSato/skbatch/sklearn/naive_bayes"
)

func newInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <modelfile>",
		Short: "Print the hyperparameters and statistics of a saved model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			nb := naive_bayes.NewMultinomialNB()
			if err := model.LoadModel(nb, args[0]); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			p := nb.GetParams()
			fmt.Fprintf(w, "model: MultinomialNB\n")
			fmt.Fprintf(w, "alpha: %v\nfit_prior: %v\nclass_prior: %v\n", p["alpha"], p["fit_prior"], p["class_prior"])
			fmt.Fprintf(w, "fitted: %v\n", nb.IsFitted())
			if nb.IsFitted() {
				fmt.Fprintf(w, "classes: %v\nclass_count: %v\nsamples_seen: %d\n", nb.Classes(), nb.ClassCount(), nb.NSamplesSeen())
			}
			return nil
		},
	}
}
