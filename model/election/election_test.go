// Copyright (C) 2024-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package election

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChoiceJSON(t *testing.T) {
	require := require.New(t)

	data, err := json.Marshal([]Choice{Vote(3), Undervote, Overvote})
	require.NoError(err)
	require.JSONEq(`[3, "U", "O"]`, string(data))

	var decoded []Choice
	require.NoError(json.Unmarshal(data, &decoded))
	require.Equal([]Choice{Vote(3), Undervote, Overvote}, decoded)
}

func TestChoiceJSONRejectsGarbage(t *testing.T) {
	require := require.New(t)

	var c Choice
	require.Error(json.Unmarshal([]byte(`"bogus"`), &c))
}

func TestChoiceOrdering(t *testing.T) {
	require := require.New(t)

	require.True(Undervote.Less(Overvote))
	require.True(Overvote.Less(Vote(0)))
	require.True(Vote(0).Less(Vote(1)))
	require.False(Vote(1).Less(Vote(0)))
	require.False(Undervote.Less(Undervote))
}

func TestNormalizedBallotOps(t *testing.T) {
	require := require.New(t)

	b := NormalizedBallot{ID: "b1", Choices: []Choice{Vote(0), Vote(1)}}
	require.Equal(Vote(0), b.TopVote())

	popped := b.PopTopVote()
	require.Equal(Vote(1), popped.TopVote())
	require.Equal("b1", popped.ID)

	empty := popped.PopTopVote()
	require.Equal(Undervote, empty.TopVote())
	require.Equal(empty, empty.PopTopVote())

	// The original ballot is unchanged.
	require.Equal(Vote(0), b.TopVote())
}

func TestWriteInExcludedFromHeadlineCount(t *testing.T) {
	require := require.New(t)

	require.False(NewCandidate("Alice Example", KindRegular).WriteIn())
	require.True(NewCandidate("Write-in", KindWriteIn).WriteIn())
	require.True(NewCandidate("Qualified", KindQualifiedWriteIn).WriteIn())
}
