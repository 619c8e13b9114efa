// Copyright (C) 2024-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package formats

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetReader(t *testing.T) {
	require := require.New(t)

	for _, format := range []string{"us_mn_mpls", "us_vt_btv", "us_ny_nyc", "nist_sp_1500"} {
		reader, err := GetReader(format)
		require.NoError(err)
		require.NotNil(reader)
	}

	_, err := GetReader("us_nowhere_unknown")
	require.Error(err)
}
