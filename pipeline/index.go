// Copyright (C) 2024-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pipeline

import (
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/luxfi/log"
	"go.uber.org/zap"

	"github.com/ranked-vote/rcv.report/internal/artifact"
	modelreport "github.com/ranked-vote/rcv.report/model/report"
)

// RebuildIndex regenerates index.json by scanning every report.json under
// the report directory. It never touches preprocessed artifacts and never
// re-tabulates; reports that fail to parse are skipped.
func RebuildIndex(reportDir string, logger log.Logger) error {
	logger.Info("rebuilding index from existing reports",
		zap.String("reportDir", reportDir),
	)

	var reportPaths []string
	err := filepath.WalkDir(reportDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == "report.json" {
			reportPaths = append(reportPaths, path)
		}
		return nil
	})
	if err != nil {
		return err
	}
	sort.Strings(reportPaths)

	elections := make(map[string]*modelreport.ElectionIndexEntry)
	processed := 0

	for _, reportPath := range reportPaths {
		var contestReport modelreport.ContestReport
		if err := artifact.ReadJSON(reportPath, &contestReport); err != nil {
			logger.Warn("skipping unparseable report",
				zap.String("path", reportPath),
				log.Err(err),
			)
			continue
		}
		processed++

		electionPath := contestReport.Info.JurisdictionPath + "/" + contestReport.Info.ElectionPath
		entry, ok := elections[electionPath]
		if !ok {
			entry = &modelreport.ElectionIndexEntry{
				Path:             electionPath,
				JurisdictionName: contestReport.Info.JurisdictionName,
				ElectionName:     contestReport.Info.ElectionName,
				Date:             contestReport.Info.Date,
			}
			elections[electionPath] = entry
		}
		entry.Contests = append(entry.Contests, contestReport.IndexEntry())
	}

	entries := make([]modelreport.ElectionIndexEntry, 0, len(elections))
	for _, entry := range elections {
		sort.Slice(entry.Contests, func(i, j int) bool {
			return entry.Contests[i].OfficeName < entry.Contests[j].OfficeName
		})
		entries = append(entries, *entry)
	}
	sortElectionEntries(entries)

	logger.Info("index rebuilt",
		zap.Int("reportsFound", len(reportPaths)),
		zap.Int("reportsProcessed", processed),
		zap.Int("elections", len(entries)),
	)

	return artifact.WriteJSON(filepath.Join(reportDir, "index.json"), modelreport.ReportIndex{Elections: entries})
}
