// Copyright (C) 2024-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package usvtbtv reads the Burlington line-oriented tabulator log format.
package usvtbtv

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/luxfi/log"
	"go.uber.org/zap"

	"github.com/ranked-vote/rcv.report/model/election"
)

var (
	candidateRx = regexp.MustCompile(`.CANDIDATE C(\d+), "(.+)"`)
	ballotRx    = regexp.MustCompile(`([^,]+), \d\) (.+)`)
)

// ParseBallot parses a comma-separated rank list. A rank containing `=`
// denotes conflicting marks and produces a single overvote at that rank.
// Candidate ids on the wire are 1-based.
func ParseBallot(source string) ([]election.Choice, error) {
	if source == "" {
		return nil, nil
	}

	ranks := strings.Split(source, ",")
	choices := make([]election.Choice, 0, len(ranks))

	for _, rank := range ranks {
		switch {
		case strings.Contains(rank, "="):
			choices = append(choices, election.Overvote)
		case strings.HasPrefix(rank, "C"):
			id, err := strconv.ParseUint(rank[1:], 10, 32)
			if err != nil {
				return nil, fmt.Errorf("bad candidate list (%s): %w", rank, err)
			}
			choices = append(choices, election.Vote(election.CandidateId(id-1)))
		default:
			return nil, fmt.Errorf("bad candidate list (%s)", rank)
		}
	}

	return choices, nil
}

// RenderBallot is the inverse of ParseBallot for valid single-mark ranks;
// overvotes render as a two-way conflict.
func RenderBallot(choices []election.Choice) string {
	ranks := make([]string, 0, len(choices))
	for _, choice := range choices {
		if id, ok := choice.Vote(); ok {
			ranks = append(ranks, fmt.Sprintf("C%02d", id+1))
		} else if choice.IsOvervote() {
			ranks = append(ranks, "C01=C02")
		}
	}
	return strings.Join(ranks, ",")
}

// Read parses the tabulator log into a raw election. Candidate declarations
// must arrive densely in id order.
func Read(path string, params map[string]string, logger log.Logger) (election.Election, error) {
	ballotsParam, ok := params["ballots"]
	if !ok {
		return election.Election{}, fmt.Errorf("missing loader param %q for %s", "ballots", path)
	}

	ballotsPath := resolveBallotsPath(path, ballotsParam, params["archive"])

	f, err := os.Open(ballotsPath)
	if err != nil {
		logger.Warn("failed to open ballots file, producing empty election",
			zap.String("path", ballotsPath),
			log.Err(err),
		)
		return election.Election{}, nil
	}
	defer f.Close()

	var candidates []election.Candidate
	var ballots []election.Ballot

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()

		if caps := candidateRx.FindStringSubmatch(line); caps != nil {
			id, err := strconv.ParseUint(caps[1], 10, 32)
			if err != nil {
				return election.Election{}, fmt.Errorf("bad candidate id in %q: %w", line, err)
			}
			if int(id-1) != len(candidates) {
				panic(fmt.Sprintf("candidate declarations out of order: got C%d with %d candidates", id, len(candidates)))
			}
			candidates = append(candidates, election.NewCandidate(caps[2], election.KindRegular))
		} else if caps := ballotRx.FindStringSubmatch(line); caps != nil {
			choices, err := ParseBallot(caps[2])
			if err != nil {
				return election.Election{}, err
			}
			ballots = append(ballots, election.NewBallot(caps[1], choices))
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Warn("failed reading ballots file",
			zap.String("path", ballotsPath),
			log.Err(err),
		)
	}

	return election.NewElection(candidates, ballots), nil
}

// resolveBallotsPath tries the configured path first, then falls back to
// paths inside the extracted archive directory.
func resolveBallotsPath(path, ballots, archive string) string {
	ballotsPath := filepath.Join(path, ballots)
	if _, err := os.Stat(ballotsPath); err == nil || archive == "" {
		return ballotsPath
	}

	archiveDir := strings.TrimSuffix(archive, ".zip")
	alternative := filepath.Join(path, archiveDir, ballots)
	if _, err := os.Stat(alternative); err == nil {
		return alternative
	}
	alternative = filepath.Join(path, archiveDir, filepath.Base(ballots))
	if _, err := os.Stat(alternative); err == nil {
		return alternative
	}
	return ballotsPath
}
