// Copyright (C) 2024-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package artifact

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestJSONRoundTrip(t *testing.T) {
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "nested", "dir", "report.json")
	require.NoError(WriteJSON(path, payload{Name: "mayor", Count: 3}))

	var decoded payload
	require.NoError(ReadJSON(path, &decoded))
	require.Equal(payload{Name: "mayor", Count: 3}, decoded)
}

func TestGzippedJSONRoundTrip(t *testing.T) {
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "normalized.json.gz")
	require.NoError(WriteJSON(path, payload{Name: "ballots", Count: 50000}))

	var decoded payload
	require.NoError(ReadJSON(path, &decoded))
	require.Equal(payload{Name: "ballots", Count: 50000}, decoded)
}

func TestReadMissingFile(t *testing.T) {
	require := require.New(t)

	var decoded payload
	require.Error(ReadJSON(filepath.Join(t.TempDir(), "nope.json"), &decoded))
}
