// Copyright (C) 2024-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metadata holds the on-disk descriptor types that parameterize the
// pipeline: jurisdictions, elections, contests, and their policy options.
package metadata

// Office is a named office within a jurisdiction.
type Office struct {
	Name string `json:"name"`
}

// TabulationOptions selects tabulator accounting variants for a contest.
type TabulationOptions struct {
	// NycStyle excludes first-round undervotes and overvotes from the
	// exhausted count, preserving the first-round turnout denominator used in
	// NYC reporting.
	NycStyle *bool `json:"nyc_style,omitempty"`
}

// Nyc reports whether NYC-style accounting is enabled.
func (o TabulationOptions) Nyc() bool {
	return o.NycStyle != nil && *o.NycStyle
}

// Overvote policies.
const (
	// OvervoteExhaust truncates a ballot at its first overvoted rank.
	OvervoteExhaust = "exhaust"
	// OvervoteSkip drops overvoted ranks and continues to the next rank.
	OvervoteSkip = "skip"
)

// Skipped-rank policies.
const (
	// SkippedRanksIgnore drops undervoted ranks wherever they appear.
	SkippedRanksIgnore = "ignore"
	// SkippedRanksExhaustOnTwo tolerates a single skipped rank but treats two
	// consecutive skipped ranks as exhausting the ballot.
	SkippedRanksExhaustOnTwo = "exhaust_on_two"
)

// NormalizerOptions carries a contest's jurisdiction-specific ballot policies.
type NormalizerOptions struct {
	// MaxRanks trims ranks beyond the jurisdiction's ballot depth. Zero means
	// no trimming.
	MaxRanks int `json:"max_ranks,omitempty"`
	// Overvote is one of the Overvote* policies. Empty means OvervoteExhaust.
	Overvote string `json:"overvote,omitempty"`
	// SkippedRanks is one of the SkippedRanks* policies. Empty means
	// SkippedRanksIgnore.
	SkippedRanks string `json:"skipped_ranks,omitempty"`
	// MergeWriteIns redirects every write-in vote to a single aggregate
	// write-in candidate.
	MergeWriteIns bool `json:"merge_write_ins,omitempty"`
}

// Contest is one office on one election: the unit of tabulation and caching.
type Contest struct {
	Office            string            `json:"office"`
	LoaderParams      map[string]string `json:"loader_params,omitempty"`
	NormalizerOptions NormalizerOptions `json:"normalizer_options,omitempty"`
}

// ElectionMetadata describes one election within a jurisdiction.
type ElectionMetadata struct {
	Name              string            `json:"name"`
	Date              string            `json:"date"`
	DataFormat        string            `json:"data_format"`
	Contests          []Contest         `json:"contests"`
	TabulationOptions TabulationOptions `json:"tabulation_options,omitempty"`
}

// Jurisdiction maps a jurisdiction path (e.g. us/mn/minneapolis) to its
// offices and elections.
type Jurisdiction struct {
	Name      string                      `json:"name"`
	Path      string                      `json:"path"`
	Offices   map[string]Office           `json:"offices"`
	Elections map[string]ElectionMetadata `json:"elections"`
}
