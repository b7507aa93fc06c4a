// Command skbatch trains an incremental classifier from a CSV file, one batch
// at a time, and saves the fitted model.
//
//	skbatch train --config run.yaml --param alpha=0.5
//	skbatch inspect model.gob
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "skbatch",
		Short:        "Batch-feed labeled data into an incremental classifier",
		SilenceUsage: true,
	}
	root.AddCommand(newTrainCommand(), newInspectCommand())
	return root
}
