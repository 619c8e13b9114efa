// Copyright (C) 2024-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package usnynyc reads the NYC cast-vote-record spreadsheet format. One
// bundle of workbook files holds every race in the election, so the batch
// reader parses each file once and fans elections out per race.
//
// Workbook parsing runs in a bounded worker pool; merged results always
// follow filename-sorted file order so ballot order and candidate first
// encounter order are stable across runs.
package usnynyc

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strconv"

	"github.com/luxfi/log"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ranked-vote/rcv.report/formats/common"
	"github.com/ranked-vote/rcv.report/model/election"
)

// columnRx matches ranked-choice column headers of the form
// "<office> Choice <r> of 5 <jurisdiction> (<id>)".
var columnRx = regexp.MustCompile(`(.+) Choice ([1-5]) of ([1-5]) (.+) \((\d+)\)`)

// ballotIdColumn is the header of the CVR number column.
const ballotIdColumn = "Cast Vote Record"

// writeInId is the external id NYC overloads as "any write-in". It is never a
// legitimate numeric candidate key; the per-race candidate map dedups all such
// cells into one write-in candidate by name.
const writeInId = 0

type cellKind uint8

const (
	cellUndervote cellKind = iota
	cellOvervote
	cellWriteIn
	cellCandidate
)

// parsedCell is a rank cell before candidate-map resolution. Resolution is
// deferred so workbook parsing can run in parallel without racing on the
// shared per-race candidate maps.
type parsedCell struct {
	kind cellKind
	id   uint32
}

// rawBallot is one ballot row's cells for one race.
type rawBallot struct {
	ballotId string
	cells    []parsedCell
}

// fileResult is everything extracted from one workbook, keyed by race.
type fileResult struct {
	raceBallots map[string][]rawBallot
}

// BatchContest pairs an office id with its loader params.
type BatchContest struct {
	Office string
	Params map[string]string
}

// ReadBatch parses the bundle's workbook files once and returns one raw
// election per contest. All contests must share the candidatesFile and
// cvrPattern params.
func ReadBatch(
	path string,
	contests []BatchContest,
	logger log.Logger,
) (map[string]election.Election, error) {
	if len(contests) == 0 {
		return map[string]election.Election{}, nil
	}

	first := contests[0].Params
	candidatesFile, ok := first["candidatesFile"]
	if !ok {
		return nil, fmt.Errorf("missing loader param %q for %s", "candidatesFile", path)
	}
	cvrPattern, ok := first["cvrPattern"]
	if !ok {
		return nil, fmt.Errorf("missing loader param %q for %s", "cvrPattern", path)
	}

	db, err := readAllData(path, candidatesFile, cvrPattern, logger)
	if err != nil {
		logger.Warn("failed to read NYC ballot data, producing empty elections",
			zap.String("path", path),
			log.Err(err),
		)
		db = &ballotDatabase{}
	}

	elections := make(map[string]election.Election, len(contests))
	for _, contest := range contests {
		officeName, ok := contest.Params["officeName"]
		if !ok {
			return nil, fmt.Errorf("missing loader param %q for office %s", "officeName", contest.Office)
		}
		jurisdictionName, ok := contest.Params["jurisdictionName"]
		if !ok {
			return nil, fmt.Errorf("missing loader param %q for office %s", "jurisdictionName", contest.Office)
		}

		raceKey := officeName + "|" + jurisdictionName
		elections[contest.Office] = db.toElection(raceKey)
	}
	return elections, nil
}

// Read parses a single contest from the bundle. It shares the batch path so
// the two entry points cannot drift.
func Read(path string, params map[string]string, logger log.Logger) (election.Election, error) {
	const office = "contest"
	elections, err := ReadBatch(path, []BatchContest{{Office: office, Params: params}}, logger)
	if err != nil {
		return election.Election{}, err
	}
	return elections[office], nil
}

// ballotDatabase is the merged, resolved view over every workbook in the
// bundle.
type ballotDatabase struct {
	raceCandidates map[string]*common.CandidateMap[uint32]
	raceBallots    map[string][]election.Ballot
}

func (db *ballotDatabase) toElection(raceKey string) election.Election {
	candidates, ok := db.raceCandidates[raceKey]
	if !ok {
		return election.Election{}
	}
	return election.NewElection(candidates.IntoVec(), db.raceBallots[raceKey])
}

func readAllData(
	path, candidatesFile, cvrPattern string,
	logger log.Logger,
) (*ballotDatabase, error) {
	candidates, err := readCandidateIds(filepath.Join(path, candidatesFile))
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no candidates loaded from mapping file %s", candidatesFile)
	}
	logger.Info("loaded candidate mapping",
		zap.Int("candidates", len(candidates)),
	)

	fileRx, err := regexp.Compile("^" + cvrPattern + "$")
	if err != nil {
		return nil, fmt.Errorf("invalid cvrPattern %q: %w", cvrPattern, err)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && fileRx.MatchString(entry.Name()) {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	logger.Info("found ballot files to process",
		zap.Int("files", len(files)),
	)

	// Parse workbooks in parallel; each file produces an independent result.
	results := make([]*fileResult, len(files))
	var eg errgroup.Group
	eg.SetLimit(runtime.NumCPU())
	for i, name := range files {
		eg.Go(func() error {
			result, err := parseFile(filepath.Join(path, name), candidates)
			if err != nil {
				return fmt.Errorf("parsing %s: %w", name, err)
			}
			results[i] = result
			logger.Debug("parsed ballot file",
				zap.String("file", name),
			)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	// Merge sequentially in filename order so internal candidate ids follow
	// first-encounter order deterministically.
	db := &ballotDatabase{
		raceCandidates: make(map[string]*common.CandidateMap[uint32]),
		raceBallots:    make(map[string][]election.Ballot),
	}
	for _, result := range results {
		raceKeys := make([]string, 0, len(result.raceBallots))
		for raceKey := range result.raceBallots {
			raceKeys = append(raceKeys, raceKey)
		}
		sort.Strings(raceKeys)

		for _, raceKey := range raceKeys {
			candidateMap, ok := db.raceCandidates[raceKey]
			if !ok {
				candidateMap = common.NewCandidateMap[uint32]()
				db.raceCandidates[raceKey] = candidateMap
			}
			for _, raw := range result.raceBallots[raceKey] {
				choices := make([]election.Choice, 0, len(raw.cells))
				for _, cell := range raw.cells {
					choices = append(choices, resolveCell(cell, candidates, candidateMap, logger))
				}
				db.raceBallots[raceKey] = append(db.raceBallots[raceKey],
					election.NewBallot(raw.ballotId, choices))
			}
		}
	}

	var total int
	for _, ballots := range db.raceBallots {
		total += len(ballots)
	}
	logger.Info("processed ballot-race combinations",
		zap.Int("ballots", total),
	)
	return db, nil
}

// resolveCell lowers a parsed cell to a choice through the race's candidate
// map.
func resolveCell(
	cell parsedCell,
	candidates map[uint32]string,
	candidateMap *common.CandidateMap[uint32],
	logger log.Logger,
) election.Choice {
	switch cell.kind {
	case cellOvervote:
		return election.Overvote
	case cellWriteIn:
		return candidateMap.AddIdToChoice(writeInId,
			election.NewCandidate("Write-in", election.KindWriteIn))
	case cellCandidate:
		name, ok := candidates[cell.id]
		if !ok {
			logger.Warn("unknown candidate id in ballot cell, counting as undervote",
				zap.Uint32("candidateId", cell.id),
			)
			return election.Undervote
		}
		return candidateMap.AddIdToChoice(cell.id,
			election.NewCandidate(name, election.KindRegular))
	default:
		return election.Undervote
	}
}

// readCandidateIds loads the dedicated candidates workbook mapping external
// candidate ids to names: first sheet, header row skipped, columns (id, name).
func readCandidateIds(path string) (map[uint32]string, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets in %s", path)
	}
	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}

	candidates := make(map[uint32]string)
	for i, row := range rows {
		if i == 0 || len(row) < 2 {
			continue
		}
		id, err := strconv.ParseUint(row[0], 10, 32)
		if err != nil {
			continue
		}
		candidates[uint32(id)] = row[1]
	}
	return candidates, nil
}

// parseFile scans one workbook: discovers the races present in its header
// row, then collects each row's cells per race. Only ballots with at least
// one non-undervote choice in a race are kept for that race.
func parseFile(path string, candidates map[uint32]string) (*fileResult, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets in %s", path)
	}
	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &fileResult{raceBallots: map[string][]rawBallot{}}, nil
	}

	cvrCol := -1
	raceColumns := make(map[string][]int)
	for col, header := range rows[0] {
		if header == ballotIdColumn {
			cvrCol = col
		} else if caps := columnRx.FindStringSubmatch(header); caps != nil {
			raceKey := caps[1] + "|" + caps[4]
			raceColumns[raceKey] = append(raceColumns[raceKey], col)
		}
	}
	if cvrCol < 0 {
		return &fileResult{raceBallots: map[string][]rawBallot{}}, nil
	}

	raceKeys := make([]string, 0, len(raceColumns))
	for raceKey := range raceColumns {
		raceKeys = append(raceKeys, raceKey)
	}
	sort.Strings(raceKeys)

	result := &fileResult{raceBallots: make(map[string][]rawBallot, len(raceColumns))}
	for _, row := range rows[1:] {
		if cvrCol >= len(row) || row[cvrCol] == "" {
			continue
		}
		ballotId := row[cvrCol]

		for _, raceKey := range raceKeys {
			columns := raceColumns[raceKey]
			cells := make([]parsedCell, 0, len(columns))
			hasVotes := false
			for _, col := range columns {
				var value string
				if col < len(row) {
					value = row[col]
				}
				cell := parseCell(value, candidates)
				if cell.kind != cellUndervote {
					hasVotes = true
				}
				cells = append(cells, cell)
			}

			// Storing every all-undervote row for every race would swamp
			// memory on citywide bundles.
			if hasVotes {
				result.raceBallots[raceKey] = append(result.raceBallots[raceKey], rawBallot{
					ballotId: ballotId,
					cells:    cells,
				})
			}
		}
	}
	return result, nil
}

// parseCell classifies a rank cell. Numeric and numeric-string cells are
// external candidate ids; anything unrecognized degrades to an undervote.
func parseCell(value string, candidates map[uint32]string) parsedCell {
	switch value {
	case "", "undervote":
		return parsedCell{kind: cellUndervote}
	case "overvote":
		return parsedCell{kind: cellOvervote}
	case "Write-in":
		return parsedCell{kind: cellWriteIn}
	}
	if id, err := strconv.ParseUint(value, 10, 32); err == nil {
		if _, ok := candidates[uint32(id)]; ok {
			return parsedCell{kind: cellCandidate, id: uint32(id)}
		}
	}
	return parsedCell{kind: cellUndervote}
}
