// Copyright (C) 2024-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package logging

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require := require.New(t)

	require.Equal(slog.LevelError, ParseLevel("error"))
	require.Equal(slog.LevelWarn, ParseLevel("warn"))
	require.Equal(slog.LevelWarn, ParseLevel("WARNING"))
	require.Equal(slog.LevelInfo, ParseLevel("info"))
	require.Equal(slog.LevelDebug, ParseLevel("debug"))
	require.Equal(LevelTrace, ParseLevel("trace"))

	// Unknown names and the unset default both mean warn.
	require.Equal(slog.LevelWarn, ParseLevel(""))
	require.Equal(slog.LevelWarn, ParseLevel("loud"))
}
