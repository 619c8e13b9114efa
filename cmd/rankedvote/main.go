// Copyright (C) 2024-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// rankedvote is the batch pipeline over historical ranked-choice election
// corpora: it validates metadata, checks raw data, generates per-contest
// reports, and maintains the browsable index.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "rankedvote",
	Short: "Ranked-choice election analysis pipeline",
	Long: `The rankedvote command processes ranked-choice ballot corpora into
per-contest instant-runoff reports with pairwise (Condorcet) analysis.

Raw ballot records in jurisdiction-specific formats are normalized, tabulated
round by round, and written as report artifacts together with a browsable
index over all processed contests.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.AddCommand(
		infoCmd(),
		syncCmd(),
		reportCmd(),
		rebuildIndexCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
