// Copyright (C) 2024-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package tabulator implements the instant-runoff state machine: round
// production, batch elimination, and transfer accounting.
package tabulator

import (
	"sort"

	"github.com/luxfi/log"
	"go.uber.org/zap"

	"github.com/ranked-vote/rcv.report/model/election"
	"github.com/ranked-vote/rcv.report/model/metadata"
	"github.com/ranked-vote/rcv.report/utils/bag"
	"github.com/ranked-vote/rcv.report/utils/set"
)

// maxRounds is a safety ceiling against pathological elimination loops. On
// hit, tabulation stops and the rounds produced so far are returned intact.
const maxRounds = 1000

type candidateVotes struct {
	id    election.CandidateId
	votes uint32
}

// allocations is the per-round ballot attribution: candidate counts sorted
// descending, plus the exhausted count.
type allocations struct {
	exhausted uint32
	votes     []candidateVotes
}

// newAllocations sorts votes descending by count. The sort is stable over the
// id-ascending input, so ties keep ascending-id order across runs.
func newAllocations(votes []candidateVotes, exhausted uint32) allocations {
	sort.SliceStable(votes, func(i, j int) bool {
		return votes[i].votes > votes[j].votes
	})
	return allocations{exhausted: exhausted, votes: votes}
}

// continuing returns the number of non-exhausted ballots in this allocation.
func (a allocations) continuing() uint32 {
	var total uint32
	for _, v := range a.votes {
		total += v.votes
	}
	return total
}

// isFinal reports whether a winner can be declared from this allocation: the
// leader holds a strict majority of continuing ballots.
func (a allocations) isFinal() bool {
	if len(a.votes) == 0 {
		return false
	}
	first := a.votes[0].votes
	return first > a.continuing()-first
}

// intoAllocations converts to the serialized form, with Exhausted last.
func (a allocations) intoAllocations() []TabulatorAllocation {
	v := make([]TabulatorAllocation, 0, len(a.votes)+1)
	for _, cv := range a.votes {
		v = append(v, TabulatorAllocation{
			Allocatee: AllocateeFor(cv.id),
			Votes:     cv.votes,
		})
	}
	v = append(v, TabulatorAllocation{
		Allocatee: Exhausted,
		Votes:     a.exhausted,
	})
	return v
}

// state holds the ballots bucketed by their current top choice, the transfers
// entering the round, and the set of candidates eliminated so far.
type state struct {
	candidateBallots map[election.Choice][]election.NormalizedBallot
	transfers        []Transfer
	eliminated       set.Set[election.CandidateId]
}

func newState(ballots []election.NormalizedBallot) *state {
	s := &state{
		candidateBallots: make(map[election.Choice][]election.NormalizedBallot),
		transfers:        []Transfer{},
		eliminated:       set.NewSet[election.CandidateId](0),
	}
	for _, ballot := range ballots {
		choice := ballot.TopVote()
		s.candidateBallots[choice] = append(s.candidateBallots[choice], ballot)
	}
	return s
}

// sortedChoices returns the bucket keys in their total order: Undervote,
// Overvote, then votes by ascending candidate id. Bucket iteration always goes
// through here to keep round output byte-identical across runs.
func (s *state) sortedChoices() []election.Choice {
	choices := make([]election.Choice, 0, len(s.candidateBallots))
	for choice := range s.candidateBallots {
		choices = append(choices, choice)
	}
	sort.Slice(choices, func(i, j int) bool {
		return choices[i].Less(choices[j])
	})
	return choices
}

// allocations counts the ballots attributed to each candidate, and the number
// of exhausted ballots. Under NYC-style accounting, round 0 undervotes and
// overvotes are treated as not yet cast and excluded from the exhausted count.
func (s *state) allocations(opts metadata.TabulationOptions, roundNumber int) allocations {
	var exhausted uint32
	votes := make([]candidateVotes, 0, len(s.candidateBallots))
	for _, choice := range s.sortedChoices() {
		count := uint32(len(s.candidateBallots[choice]))
		if id, ok := choice.Vote(); ok {
			votes = append(votes, candidateVotes{id: id, votes: count})
		} else if !opts.Nyc() || roundNumber != 0 {
			exhausted += count
		}
	}
	return newAllocations(votes, exhausted)
}

// asRound produces the serialized representation of the current state.
func (s *state) asRound(opts metadata.TabulationOptions, roundNumber int) TabulatorRound {
	alloc := s.allocations(opts, roundNumber)
	return TabulatorRound{
		Allocations:       alloc.intoAllocations(),
		Undervote:         uint32(len(s.candidateBallots[election.Undervote])),
		Overvote:          uint32(len(s.candidateBallots[election.Overvote])),
		ContinuingBallots: alloc.continuing(),
		Transfers:         s.transfers,
	}
}

// doElimination eliminates the largest suffix of trailing candidates whose
// combined votes cannot overtake the leaders, reallocates their ballots, and
// returns the next round's state.
func (s *state) doElimination(opts metadata.TabulationOptions, roundNumber int) *state {
	alloc := s.allocations(opts, roundNumber)

	// Walk down from the leader and stop at the first entry after it whose
	// count strictly exceeds the combined votes of everyone below it;
	// everyone below that entry is eliminated.
	remaining := alloc.continuing()
	cut := len(alloc.votes)
	for i, cv := range alloc.votes {
		remaining -= cv.votes
		if cv.votes > remaining && i > 0 {
			cut = i + 1
			break
		}
	}

	toEliminate := make([]election.CandidateId, 0, len(alloc.votes)-cut)
	for _, cv := range alloc.votes[cut:] {
		toEliminate = append(toEliminate, cv.id)
	}
	// A perfect tie eliminates nobody by the rule above; break it by dropping
	// the last candidate in sorted order so no round is ever empty.
	if len(toEliminate) == 0 && len(alloc.votes) > 0 {
		toEliminate = append(toEliminate, alloc.votes[len(alloc.votes)-1].id)
	}
	sort.Slice(toEliminate, func(i, j int) bool { return toEliminate[i] < toEliminate[j] })

	s.eliminated.Add(toEliminate...)

	transfers := []Transfer{}
	for _, from := range toEliminate {
		tally := bag.New[Allocatee]()

		ballots := s.candidateBallots[election.Vote(from)]
		delete(s.candidateBallots, election.Vote(from))

		for _, ballot := range ballots {
			// Pop the top choice until we find one that has not been
			// eliminated, or the ballot exhausts.
			var next election.Choice
			for {
				ballot = ballot.PopTopVote()
				next = ballot.TopVote()
				if id, ok := next.Vote(); !ok || !s.eliminated.Contains(id) {
					break
				}
			}

			s.candidateBallots[next] = append(s.candidateBallots[next], ballot)
			tally.Add(allocateeForChoice(next))
		}

		for _, to := range tally.SortedList(func(a, b Allocatee) bool { return a.less(b) }) {
			transfers = append(transfers, Transfer{
				From:  from,
				To:    to,
				Count: tally.Count(to),
			})
		}
	}

	// Transfers into higher-count surviving candidates come first; transfers
	// into Exhausted sort with key 0.
	sort.SliceStable(transfers, func(i, j int) bool {
		return s.transferSortKey(transfers[i]) < s.transferSortKey(transfers[j])
	})

	return &state{
		candidateBallots: s.candidateBallots,
		transfers:        transfers,
		eliminated:       s.eliminated,
	}
}

func (s *state) transferSortKey(t Transfer) int {
	if id, ok := t.To.Candidate(); ok {
		return -len(s.candidateBallots[election.Vote(id)])
	}
	return 0
}

// Tabulate runs the instant-runoff tabulation over the normalized ballots and
// returns the full round-by-round record. Given identical input, including
// ballot order, the output is byte-identical across runs.
func Tabulate(
	ballots []election.NormalizedBallot,
	opts metadata.TabulationOptions,
	logger log.Logger,
) []TabulatorRound {
	s := newState(ballots)
	var rounds []TabulatorRound

	for roundNumber := 0; ; roundNumber++ {
		alloc := s.allocations(opts, roundNumber)
		rounds = append(rounds, s.asRound(opts, roundNumber))

		logger.Debug("tabulated round",
			zap.Int("round", roundNumber+1),
			zap.Int("candidatesRemaining", len(alloc.votes)),
		)

		if len(alloc.votes) <= 2 || alloc.isFinal() {
			break
		}
		if roundNumber >= maxRounds {
			logger.Error("hit maximum round limit, stopping tabulation",
				zap.Int("maxRounds", maxRounds),
			)
			break
		}

		s = s.doElimination(opts, roundNumber)
	}

	return rounds
}
