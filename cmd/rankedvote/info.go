// Copyright (C) 2024-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ranked-vote/rcv.report/formats"
	"github.com/ranked-vote/rcv.report/readmeta"
)

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <meta_dir>",
		Short: "Validate and dump info about election metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jurisdictions, err := readmeta.ReadMeta(args[0])
			if err != nil {
				return err
			}

			for _, jurisdiction := range jurisdictions {
				fmt.Printf("%s (%s)\n", jurisdiction.Name, jurisdiction.Path)

				electionPaths := make([]string, 0, len(jurisdiction.Elections))
				for electionPath := range jurisdiction.Elections {
					electionPaths = append(electionPaths, electionPath)
				}
				sort.Strings(electionPaths)

				for _, electionPath := range electionPaths {
					electionMeta := jurisdiction.Elections[electionPath]
					if _, err := formats.GetReader(electionMeta.DataFormat); err != nil {
						return fmt.Errorf("election %s/%s: %w", jurisdiction.Path, electionPath, err)
					}
					fmt.Printf("  %s: %s (%s, %d contests)\n",
						electionPath, electionMeta.Name, electionMeta.Date, len(electionMeta.Contests))

					for _, contest := range electionMeta.Contests {
						office, ok := jurisdiction.Offices[contest.Office]
						if !ok {
							return fmt.Errorf("election %s/%s: office %s not in offices",
								jurisdiction.Path, electionPath, contest.Office)
						}
						fmt.Printf("    %s: %s\n", contest.Office, office.Name)
					}
				}
			}
			return nil
		},
	}
}

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync <meta_dir> <raw_dir>",
		Short: "Check raw data files against metadata",
		Long: `Walks every contest's loader params and reports raw data files that are
missing from the raw data directory. Fetching from remote sources is handled
by external tooling; sync only reconciles the local tree.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			jurisdictions, err := readmeta.ReadMeta(args[0])
			if err != nil {
				return err
			}

			missing := 0
			for _, jurisdiction := range jurisdictions {
				for electionPath, electionMeta := range jurisdiction.Elections {
					base := filepath.Join(args[1], jurisdiction.Path, electionPath)
					for _, contest := range electionMeta.Contests {
						for _, key := range []string{"file", "ballots", "cvr", "candidatesFile"} {
							name, ok := contest.LoaderParams[key]
							if !ok {
								continue
							}
							path := filepath.Join(base, name)
							if _, err := os.Stat(path); err != nil {
								fmt.Printf("missing: %s\n", path)
								missing++
							}
						}
					}
				}
			}

			if missing > 0 {
				fmt.Printf("%d raw data files missing\n", missing)
			} else {
				fmt.Println("all raw data files present")
			}
			return nil
		},
	}
}
