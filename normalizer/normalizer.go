// Copyright (C) 2024-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package normalizer lowers a raw election to normalized ballots with the
// jurisdiction's ballot policies applied.
package normalizer

import (
	"github.com/ranked-vote/rcv.report/model/election"
	"github.com/ranked-vote/rcv.report/model/metadata"
)

// Normalize applies the contest's policies to every ballot: rank trimming,
// the skipped-rank policy, the overvote policy, write-in merging, and
// duplicate-vote removal. Trailing undervotes always collapse, so an
// exhausted ballot's top vote is Undervote.
func Normalize(raw election.Election, opts metadata.NormalizerOptions) election.NormalizedElection {
	remap := writeInRemap(raw.Candidates, opts)

	ballots := make([]election.NormalizedBallot, 0, len(raw.Ballots))
	for _, ballot := range raw.Ballots {
		ballots = append(ballots, election.NormalizedBallot{
			ID:      ballot.ID,
			Choices: normalizeChoices(ballot.Choices, opts, remap),
		})
	}

	return election.NormalizedElection{
		Candidates: raw.Candidates,
		Ballots:    ballots,
	}
}

// writeInRemap maps every write-in candidate to the first write-in when the
// jurisdiction treats write-ins as a single aggregate candidate.
func writeInRemap(
	candidates []election.Candidate,
	opts metadata.NormalizerOptions,
) map[election.CandidateId]election.CandidateId {
	if !opts.MergeWriteIns {
		return nil
	}
	remap := make(map[election.CandidateId]election.CandidateId)
	target := election.CandidateId(0)
	found := false
	for i, c := range candidates {
		if !c.WriteIn() {
			continue
		}
		if !found {
			target = election.CandidateId(i)
			found = true
		}
		remap[election.CandidateId(i)] = target
	}
	return remap
}

func normalizeChoices(
	choices []election.Choice,
	opts metadata.NormalizerOptions,
	remap map[election.CandidateId]election.CandidateId,
) []election.Choice {
	if opts.MaxRanks > 0 && len(choices) > opts.MaxRanks {
		choices = choices[:opts.MaxRanks]
	}

	out := make([]election.Choice, 0, len(choices))
	seen := make(map[election.CandidateId]struct{}, len(choices))
	skipped := 0

loop:
	for _, choice := range choices {
		switch {
		case choice.IsUndervote():
			if opts.SkippedRanks == metadata.SkippedRanksExhaustOnTwo {
				skipped++
				if skipped >= 2 {
					break loop
				}
			}
			// Skipped ranks are otherwise dropped; trailing undervotes
			// collapse either way.
			continue

		case choice.IsOvervote():
			skipped = 0
			if opts.Overvote == metadata.OvervoteSkip {
				continue
			}
			// Exhausting policy: the overvote marker stays so the ballot
			// lands in the overvote bucket.
			out = append(out, election.Overvote)
			break loop

		default:
			skipped = 0
			id, _ := choice.Vote()
			if merged, ok := remap[id]; ok {
				id = merged
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, election.Vote(id))
		}
	}

	return out
}
