// Copyright (C) 2024-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package usmnmpls

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/luxfi/log"
	"github.com/stretchr/testify/require"

	"github.com/ranked-vote/rcv.report/model/election"
)

func TestRead(t *testing.T) {
	require := require.New(t)

	dir := t.TempDir()
	contents := `Precinct,1st Choice,2nd Choice,3rd Choice,Count
P-01,Alice Example,Bob Sample,undervote,2
P-01,overvote,Alice Example,Bob Sample,1
P-02,UWI,Alice Example,,1
`
	require.NoError(os.WriteFile(filepath.Join(dir, "mayor.csv"), []byte(contents), 0o644))

	e, err := Read(dir, map[string]string{"file": "mayor.csv"}, log.NewNoOpLogger())
	require.NoError(err)

	require.Equal([]election.Candidate{
		election.NewCandidate("Alice Example", election.KindRegular),
		election.NewCandidate("Bob Sample", election.KindRegular),
		election.NewCandidate("Undeclared Write-ins", election.KindWriteIn),
	}, e.Candidates)

	// The first row expands to two ballots.
	require.Len(e.Ballots, 4)
	require.Equal([]election.Choice{
		election.Vote(0), election.Vote(1), election.Undervote,
	}, e.Ballots[0].Choices)
	require.Equal(e.Ballots[0].Choices, e.Ballots[1].Choices)

	// Any overvoted rank collapses the whole ballot to a single overvote.
	require.Equal([]election.Choice{election.Overvote}, e.Ballots[2].Choices)

	// UWI maps to the aggregate write-in candidate.
	require.Equal([]election.Choice{
		election.Vote(2), election.Vote(0), election.Undervote,
	}, e.Ballots[3].Choices)
}

func TestReadBallotIdsCarryPrecinct(t *testing.T) {
	require := require.New(t)

	dir := t.TempDir()
	contents := `Precinct,1st Choice,2nd Choice,3rd Choice,Count
P-09,Alice Example,undervote,undervote,2
`
	require.NoError(os.WriteFile(filepath.Join(dir, "mayor.csv"), []byte(contents), 0o644))

	e, err := Read(dir, map[string]string{"file": "mayor.csv"}, log.NewNoOpLogger())
	require.NoError(err)
	require.Len(e.Ballots, 2)
	require.Equal("P-09:1", e.Ballots[0].ID)
	require.Equal("P-09:2", e.Ballots[1].ID)
}

func TestReadMissingFileDegradesToEmpty(t *testing.T) {
	require := require.New(t)

	e, err := Read(t.TempDir(), map[string]string{"file": "nope.csv"}, log.NewNoOpLogger())
	require.NoError(err)
	require.Empty(e.Ballots)
}

func TestReadMissingFileParamIsFatal(t *testing.T) {
	require := require.New(t)

	_, err := Read(t.TempDir(), map[string]string{}, log.NewNoOpLogger())
	require.Error(err)
}

func TestShortRowsAreSkipped(t *testing.T) {
	require := require.New(t)

	dir := t.TempDir()
	contents := `Precinct,1st Choice,2nd Choice,3rd Choice,Count
P-01,Alice Example
P-01,Alice Example,Bob Sample,undervote,1
`
	require.NoError(os.WriteFile(filepath.Join(dir, "mayor.csv"), []byte(contents), 0o644))

	e, err := Read(dir, map[string]string{"file": "mayor.csv"}, log.NewNoOpLogger())
	require.NoError(err)
	require.Len(e.Ballots, 1)
}
