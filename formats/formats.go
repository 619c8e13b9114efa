// Copyright (C) 2024-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package formats dispatches raw-data parsing to the reader for an election's
// data_format tag.
package formats

import (
	"fmt"

	"github.com/luxfi/log"

	"github.com/ranked-vote/rcv.report/formats/nistsp1500"
	"github.com/ranked-vote/rcv.report/formats/usmnmpls"
	"github.com/ranked-vote/rcv.report/formats/usnynyc"
	"github.com/ranked-vote/rcv.report/formats/usvtbtv"
	"github.com/ranked-vote/rcv.report/model/election"
)

// Reader consumes a raw-data directory and a contest's loader params and
// returns a raw election.
type Reader func(path string, params map[string]string, logger log.Logger) (election.Election, error)

var readers = map[string]Reader{
	"us_mn_mpls":   usmnmpls.Read,
	"us_vt_btv":    usvtbtv.Read,
	"us_ny_nyc":    usnynyc.Read,
	"nist_sp_1500": nistsp1500.Read,
}

// GetReader returns the reader for a data_format tag.
func GetReader(dataFormat string) (Reader, error) {
	reader, ok := readers[dataFormat]
	if !ok {
		return nil, fmt.Errorf("unknown data_format %q", dataFormat)
	}
	return reader, nil
}
