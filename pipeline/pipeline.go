// Copyright (C) 2024-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package pipeline walks jurisdictions, elections, and contests, applying
// two-level caching and batch reader fan-out, and assembles the global index.
//
// Jurisdictions run in parallel; elections and contests within a
// jurisdiction run sequentially so a single large contest's ballot set bounds
// peak memory. Each contest's full report and preprocessed ballots are
// released before the next contest starts.
package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/luxfi/log"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ranked-vote/rcv.report/formats/nistsp1500"
	"github.com/ranked-vote/rcv.report/formats/usnynyc"
	"github.com/ranked-vote/rcv.report/internal/artifact"
	"github.com/ranked-vote/rcv.report/model/election"
	"github.com/ranked-vote/rcv.report/model/metadata"
	modelreport "github.com/ranked-vote/rcv.report/model/report"
	"github.com/ranked-vote/rcv.report/readmeta"
	"github.com/ranked-vote/rcv.report/report"
)

// Pipeline holds one report run's configuration.
type Pipeline struct {
	MetaDir         string
	RawDir          string
	PreprocessedDir string
	ReportDir       string

	// ForcePreprocess regenerates preprocessed artifacts even when cached.
	ForcePreprocess bool
	// ForceReport regenerates report artifacts even when cached.
	ForceReport bool
	// JurisdictionFilter restricts the run to one jurisdiction path.
	JurisdictionFilter string

	Log     log.Logger
	Metrics *Metrics
}

// Run processes every contest and writes the global index.
func (p *Pipeline) Run() error {
	jurisdictions, err := readmeta.ReadMeta(p.MetaDir)
	if err != nil {
		return err
	}

	if p.JurisdictionFilter != "" {
		p.Log.Info("filtering to jurisdiction",
			zap.String("jurisdiction", p.JurisdictionFilter),
		)
		filtered := jurisdictions[:0]
		for _, jurisdiction := range jurisdictions {
			if jurisdiction.Path == p.JurisdictionFilter {
				filtered = append(filtered, jurisdiction)
			}
		}
		jurisdictions = filtered
	}

	if len(jurisdictions) == 0 {
		p.Log.Warn("no jurisdictions found",
			zap.String("filter", p.JurisdictionFilter),
		)
		return nil
	}

	// Jurisdictions are independent: each writes under its own path prefix.
	results := make([][]modelreport.ElectionIndexEntry, len(jurisdictions))
	var eg errgroup.Group
	for i := range jurisdictions {
		eg.Go(func() error {
			results[i] = p.processJurisdiction(&jurisdictions[i])
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	var entries []modelreport.ElectionIndexEntry
	for _, result := range results {
		entries = append(entries, result...)
	}
	sortElectionEntries(entries)

	indexPath := filepath.Join(p.ReportDir, "index.json")
	return artifact.WriteJSON(indexPath, modelreport.ReportIndex{Elections: entries})
}

// sortElectionEntries orders elections by (date desc, path desc).
func sortElectionEntries(entries []modelreport.ElectionIndexEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date > entries[j].Date
		}
		return entries[i].Path > entries[j].Path
	})
}

// processJurisdiction runs a jurisdiction's elections sequentially. A
// contest failure is isolated to its contest; a panic is isolated here so
// sibling jurisdictions finish.
func (p *Pipeline) processJurisdiction(
	jurisdiction *metadata.Jurisdiction,
) (entries []modelreport.ElectionIndexEntry) {
	defer func() {
		if r := recover(); r != nil {
			p.Log.Error("jurisdiction processing panicked",
				zap.String("jurisdiction", jurisdiction.Path),
				zap.Any("panic", r),
			)
		}
	}()

	rawBase := filepath.Join(p.RawDir, jurisdiction.Path)

	electionPaths := make([]string, 0, len(jurisdiction.Elections))
	for electionPath := range jurisdiction.Elections {
		electionPaths = append(electionPaths, electionPath)
	}
	sort.Strings(electionPaths)

	for _, electionPath := range electionPaths {
		electionMeta := jurisdiction.Elections[electionPath]
		entries = append(entries, p.processElection(electionPath, &electionMeta, jurisdiction, rawBase))
	}
	return entries
}

// processElection processes one election's contests, through a batch reader
// when every contest shares the bundle-identifying params, sequentially
// otherwise.
func (p *Pipeline) processElection(
	electionPath string,
	electionMeta *metadata.ElectionMetadata,
	jurisdiction *metadata.Jurisdiction,
	rawBase string,
) modelreport.ElectionIndexEntry {
	p.Log.Info("processing election",
		zap.String("jurisdiction", jurisdiction.Path),
		zap.String("election", electionPath),
	)

	var contests []modelreport.ContestIndexEntry
	switch {
	case electionMeta.DataFormat == "us_ny_nyc" && len(electionMeta.Contests) > 1 && nycBatchable(electionMeta):
		contests = p.processNycBatch(electionPath, electionMeta, jurisdiction, rawBase)
	case electionMeta.DataFormat == "nist_sp_1500" && len(electionMeta.Contests) > 1 && nistBatchable(electionMeta):
		contests = p.processNistBatch(electionPath, electionMeta, jurisdiction, rawBase)
	default:
		for i := range electionMeta.Contests {
			entry, err := p.processContest(&electionMeta.Contests[i], electionMeta, electionPath, jurisdiction, rawBase, nil)
			if err != nil {
				p.contestFailed(jurisdiction.Path, electionPath, electionMeta.Contests[i].Office, err)
				continue
			}
			contests = append(contests, entry)
		}
	}

	sort.Slice(contests, func(i, j int) bool {
		return contests[i].OfficeName < contests[j].OfficeName
	})

	return modelreport.ElectionIndexEntry{
		Path:             jurisdiction.Path + "/" + electionPath,
		JurisdictionName: jurisdiction.Name,
		ElectionName:     electionMeta.Name,
		Date:             electionMeta.Date,
		Contests:         contests,
	}
}

// nycBatchable reports whether every contest shares the cvrPattern and
// candidatesFile params; a structural mismatch falls back to sequential
// processing.
func nycBatchable(electionMeta *metadata.ElectionMetadata) bool {
	first := electionMeta.Contests[0].LoaderParams
	if first == nil {
		return false
	}
	for _, contest := range electionMeta.Contests {
		params := contest.LoaderParams
		if params == nil ||
			params["cvrPattern"] != first["cvrPattern"] ||
			params["candidatesFile"] != first["candidatesFile"] {
			return false
		}
	}
	return true
}

// nistBatchable reports whether every contest names the same cvr path.
func nistBatchable(electionMeta *metadata.ElectionMetadata) bool {
	first := electionMeta.Contests[0].LoaderParams
	if first == nil || first["cvr"] == "" {
		return false
	}
	for _, contest := range electionMeta.Contests {
		params := contest.LoaderParams
		if params == nil || params["cvr"] != first["cvr"] {
			return false
		}
	}
	return true
}

// processNycBatch reads the election's shared workbook bundle once, then runs
// each contest against its pre-loaded raw election.
func (p *Pipeline) processNycBatch(
	electionPath string,
	electionMeta *metadata.ElectionMetadata,
	jurisdiction *metadata.Jurisdiction,
	rawBase string,
) []modelreport.ContestIndexEntry {
	rawPath := filepath.Join(rawBase, electionPath)

	batchContests := make([]usnynyc.BatchContest, 0, len(electionMeta.Contests))
	for _, contest := range electionMeta.Contests {
		batchContests = append(batchContests, usnynyc.BatchContest{
			Office: contest.Office,
			Params: contest.LoaderParams,
		})
	}

	elections, err := usnynyc.ReadBatch(rawPath, batchContests, p.Log)
	if err != nil {
		p.Log.Warn("batch read failed, falling back to sequential processing",
			zap.String("election", electionPath),
			log.Err(err),
		)
		return p.processSequential(electionPath, electionMeta, jurisdiction, rawBase)
	}

	var entries []modelreport.ContestIndexEntry
	for i := range electionMeta.Contests {
		contest := &electionMeta.Contests[i]
		raw, ok := elections[contest.Office]
		if !ok {
			continue
		}
		delete(elections, contest.Office)

		entry, err := p.processContest(contest, electionMeta, electionPath, jurisdiction, rawBase, &raw)
		if err != nil {
			p.contestFailed(jurisdiction.Path, electionPath, contest.Office, err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// processNistBatch parses the election's shared CVR export once, then runs
// each contest against its pre-loaded raw election.
func (p *Pipeline) processNistBatch(
	electionPath string,
	electionMeta *metadata.ElectionMetadata,
	jurisdiction *metadata.Jurisdiction,
	rawBase string,
) []modelreport.ContestIndexEntry {
	rawPath := filepath.Join(rawBase, electionPath)

	var batchContests []nistsp1500.BatchContest
	contestIds := make(map[string]uint32)
	for _, contest := range electionMeta.Contests {
		id, err := strconv.ParseUint(contest.LoaderParams["contest"], 10, 32)
		if err != nil {
			p.contestFailed(jurisdiction.Path, electionPath, contest.Office,
				fmt.Errorf("invalid contest id %q: %w", contest.LoaderParams["contest"], err))
			continue
		}
		contestIds[contest.Office] = uint32(id)
		batchContests = append(batchContests, nistsp1500.BatchContest{
			ContestId: uint32(id),
			Params:    contest.LoaderParams,
		})
	}

	elections, err := nistsp1500.ReadBatch(rawPath, batchContests, p.Log)
	if err != nil {
		p.Log.Warn("batch read failed, falling back to sequential processing",
			zap.String("election", electionPath),
			log.Err(err),
		)
		return p.processSequential(electionPath, electionMeta, jurisdiction, rawBase)
	}

	var entries []modelreport.ContestIndexEntry
	for i := range electionMeta.Contests {
		contest := &electionMeta.Contests[i]
		id, ok := contestIds[contest.Office]
		if !ok {
			continue
		}
		raw, ok := elections[id]
		if !ok {
			continue
		}
		delete(elections, id)

		entry, err := p.processContest(contest, electionMeta, electionPath, jurisdiction, rawBase, &raw)
		if err != nil {
			p.contestFailed(jurisdiction.Path, electionPath, contest.Office, err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

func (p *Pipeline) processSequential(
	electionPath string,
	electionMeta *metadata.ElectionMetadata,
	jurisdiction *metadata.Jurisdiction,
	rawBase string,
) []modelreport.ContestIndexEntry {
	var entries []modelreport.ContestIndexEntry
	for i := range electionMeta.Contests {
		entry, err := p.processContest(&electionMeta.Contests[i], electionMeta, electionPath, jurisdiction, rawBase, nil)
		if err != nil {
			p.contestFailed(jurisdiction.Path, electionPath, electionMeta.Contests[i].Office, err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

func (p *Pipeline) contestFailed(jurisdictionPath, electionPath, office string, err error) {
	p.Metrics.contestsFailed.Inc()
	p.Log.Error("contest failed, skipping",
		zap.String("jurisdiction", jurisdictionPath),
		zap.String("election", electionPath),
		zap.String("office", office),
		log.Err(err),
	)
}

// processContest runs the per-contest decision tree. When preloaded is
// non-nil the raw election comes from a batch reader instead of the
// per-contest reader.
//
//  1. Both artifacts cached and both cache flags permit reuse: load the
//     report, skip preprocessing.
//  2. Preprocessed artifact cached and permitted: load it; otherwise read,
//     normalize, and rewrite it.
//  3. Tabulate, analyze, write the report artifact.
//  4. Extract the index entry; the report and ballots go out of scope here,
//     bounding memory before the next contest.
func (p *Pipeline) processContest(
	contest *metadata.Contest,
	electionMeta *metadata.ElectionMetadata,
	electionPath string,
	jurisdiction *metadata.Jurisdiction,
	rawBase string,
	preloaded *election.Election,
) (modelreport.ContestIndexEntry, error) {
	office, ok := jurisdiction.Offices[contest.Office]
	if !ok {
		return modelreport.ContestIndexEntry{},
			fmt.Errorf("office %s not in offices for %s", contest.Office, jurisdiction.Path)
	}
	p.Log.Info("processing contest",
		zap.String("jurisdiction", jurisdiction.Path),
		zap.String("election", electionPath),
		zap.String("office", office.Name),
	)

	reportPath := filepath.Join(p.ReportDir, jurisdiction.Path, electionPath, contest.Office, "report.json")
	preprocessedPath := filepath.Join(p.PreprocessedDir, jurisdiction.Path, electionPath, contest.Office, "normalized.json.gz")

	if !p.ForceReport && !p.ForcePreprocess && fileExists(reportPath) && fileExists(preprocessedPath) {
		p.Log.Debug("reusing cached report",
			zap.String("path", reportPath),
		)
		p.Metrics.reportCacheHits.Inc()

		var contestReport modelreport.ContestReport
		if err := artifact.ReadJSON(reportPath, &contestReport); err != nil {
			return modelreport.ContestIndexEntry{}, err
		}
		p.Metrics.contestsProcessed.Inc()
		return contestReport.IndexEntry(), nil
	}

	var preprocessed *election.ElectionPreprocessed
	if !p.ForcePreprocess && fileExists(preprocessedPath) {
		p.Log.Debug("loading preprocessed artifact",
			zap.String("path", preprocessedPath),
		)
		p.Metrics.preprocessCacheHits.Inc()

		preprocessed = &election.ElectionPreprocessed{}
		if err := artifact.ReadJSON(preprocessedPath, preprocessed); err != nil {
			return modelreport.ContestIndexEntry{}, err
		}
	} else {
		var err error
		if preloaded != nil {
			preprocessed = report.PreprocessElectionFromData(*preloaded, electionMeta, electionPath, jurisdiction, contest)
		} else {
			preprocessed, err = report.PreprocessElection(
				filepath.Join(rawBase, electionPath), electionMeta, electionPath, jurisdiction, contest, p.Log)
			if err != nil {
				return modelreport.ContestIndexEntry{}, err
			}
		}
		if err := artifact.WriteJSON(preprocessedPath, preprocessed); err != nil {
			return modelreport.ContestIndexEntry{}, err
		}
		p.Log.Info("preprocessed ballots",
			zap.Int("ballots", len(preprocessed.Ballots.Ballots)),
		)
		p.Metrics.ballotsProcessed.Add(float64(len(preprocessed.Ballots.Ballots)))
	}

	contestReport := report.GenerateReport(preprocessed, electionMeta.TabulationOptions, p.Log)
	p.Metrics.tabulationRounds.Observe(float64(len(contestReport.Rounds)))

	if err := artifact.WriteJSON(reportPath, contestReport); err != nil {
		return modelreport.ContestIndexEntry{}, err
	}

	p.Metrics.contestsProcessed.Inc()
	return contestReport.IndexEntry(), nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
