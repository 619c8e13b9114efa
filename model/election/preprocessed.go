// Copyright (C) 2024-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package election

import (
	"github.com/ranked-vote/rcv.report/model/metadata"
)

// ElectionPreprocessed is the cached, normalized ballot set for one contest,
// together with the metadata that produced it. It is serialized as the
// gzipped preprocessed artifact; the format is a cache, not a contract.
type ElectionPreprocessed struct {
	Info     ElectionInfo       `json:"info"`
	Metadata metadata.Contest   `json:"metadata"`
	Ballots  NormalizedElection `json:"ballots"`
}
