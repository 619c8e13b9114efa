// Copyright (C) 2024-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"github.com/spf13/cobra"

	"github.com/ranked-vote/rcv.report/logging"
	"github.com/ranked-vote/rcv.report/pipeline"
)

func reportCmd() *cobra.Command {
	var (
		useCachePreprocess bool
		useCacheReport     bool
		forcePreprocess    bool
		forceReport        bool
		jurisdiction       string
	)

	cmd := &cobra.Command{
		Use:   "report <meta_dir> <raw_dir> <preprocessed_dir> <report_dir>",
		Short: "Generate per-contest reports and the global index",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			// The deprecated force flags invert the cache flags.
			if forcePreprocess {
				useCachePreprocess = false
			}
			if forceReport {
				useCacheReport = false
			}

			metrics, err := pipeline.NewMetrics()
			if err != nil {
				return err
			}

			p := &pipeline.Pipeline{
				MetaDir:         args[0],
				RawDir:          args[1],
				PreprocessedDir: args[2],
				ReportDir:       args[3],
				// Regenerating reports also regenerates preprocessing.
				ForcePreprocess:    !useCachePreprocess || !useCacheReport,
				ForceReport:        !useCacheReport,
				JurisdictionFilter: jurisdiction,
				Log:                logging.New("report"),
				Metrics:            metrics,
			}
			return p.Run()
		},
	}

	cmd.Flags().BoolVar(&useCachePreprocess, "use-cache-preprocess", false,
		"reuse cached preprocessed files when they exist")
	cmd.Flags().BoolVar(&useCacheReport, "use-cache-report", false,
		"reuse cached report files when they exist")
	cmd.Flags().BoolVar(&forcePreprocess, "force-preprocess", false, "")
	cmd.Flags().BoolVar(&forceReport, "force-report", false, "")
	cmd.Flags().MarkHidden("force-preprocess")
	cmd.Flags().MarkHidden("force-report")
	cmd.Flags().StringVar(&jurisdiction, "jurisdiction", "",
		`restrict processing to one jurisdiction path (e.g. "us/ca/alameda")`)

	return cmd
}

func rebuildIndexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild-index <report_dir>",
		Short: "Rebuild index.json from existing reports",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return pipeline.RebuildIndex(args[0], logging.New("rebuild-index"))
		},
	}
}
