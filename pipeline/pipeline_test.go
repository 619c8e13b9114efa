// Copyright (C) 2024-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/ranked-vote/rcv.report/internal/artifact"
	modelreport "github.com/ranked-vote/rcv.report/model/report"
)

const minneapolisMeta = `{
	"name": "Minneapolis",
	"path": "us/mn/minneapolis",
	"offices": {
		"mayor": {"name": "Mayor"},
		"council": {"name": "City Council"}
	},
	"elections": {
		"2013-11": {
			"name": "2013 General Election",
			"date": "2013-11-05",
			"data_format": "us_mn_mpls",
			"contests": [
				{"office": "mayor", "loader_params": {"file": "mayor.csv"}},
				{"office": "council", "loader_params": {"file": "council.csv"}}
			]
		},
		"2017-11": {
			"name": "2017 General Election",
			"date": "2017-11-07",
			"data_format": "us_mn_mpls",
			"contests": [
				{"office": "mayor", "loader_params": {"file": "mayor.csv"}}
			]
		}
	}
}`

const mayorCsv = `Precinct,1st Choice,2nd Choice,3rd Choice,Count
P-01,Alice Example,Bob Sample,undervote,6
P-01,Bob Sample,Alice Example,undervote,3
P-02,Carol Test,Alice Example,Bob Sample,1
`

const councilCsv = `Precinct,1st Choice,2nd Choice,3rd Choice,Count
P-01,Dan Trial,undervote,undervote,4
P-01,Erin Probe,Dan Trial,undervote,3
`

type testDirs struct {
	meta, raw, preprocessed, reports string
}

func setupCorpus(t *testing.T) testDirs {
	t.Helper()
	root := t.TempDir()
	dirs := testDirs{
		meta:         filepath.Join(root, "meta"),
		raw:          filepath.Join(root, "raw"),
		preprocessed: filepath.Join(root, "preprocessed"),
		reports:      filepath.Join(root, "reports"),
	}

	require.NoError(t, os.MkdirAll(dirs.meta, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dirs.meta, "minneapolis.json"), []byte(minneapolisMeta), 0o644))

	for _, electionPath := range []string{"2013-11", "2017-11"} {
		base := filepath.Join(dirs.raw, "us/mn/minneapolis", electionPath)
		require.NoError(t, os.MkdirAll(base, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(base, "mayor.csv"), []byte(mayorCsv), 0o644))
	}
	require.NoError(t, os.WriteFile(
		filepath.Join(dirs.raw, "us/mn/minneapolis/2013-11", "council.csv"), []byte(councilCsv), 0o644))

	return dirs
}

func newPipeline(t *testing.T, dirs testDirs, forcePreprocess, forceReport bool) *Pipeline {
	t.Helper()
	metrics, err := NewMetrics()
	require.NoError(t, err)
	return &Pipeline{
		MetaDir:         dirs.meta,
		RawDir:          dirs.raw,
		PreprocessedDir: dirs.preprocessed,
		ReportDir:       dirs.reports,
		ForcePreprocess: forcePreprocess,
		ForceReport:     forceReport,
		Log:             log.NewNoOpLogger(),
		Metrics:         metrics,
	}
}

func TestRunProducesArtifactsAndIndex(t *testing.T) {
	require := require.New(t)

	dirs := setupCorpus(t)
	p := newPipeline(t, dirs, true, true)
	require.NoError(p.Run())

	// Both artifact levels exist for every contest.
	for _, contestPath := range []string{
		"us/mn/minneapolis/2013-11/mayor",
		"us/mn/minneapolis/2013-11/council",
		"us/mn/minneapolis/2017-11/mayor",
	} {
		require.FileExists(filepath.Join(dirs.reports, contestPath, "report.json"))
		require.FileExists(filepath.Join(dirs.preprocessed, contestPath, "normalized.json.gz"))
	}

	var index modelreport.ReportIndex
	require.NoError(artifact.ReadJSON(filepath.Join(dirs.reports, "index.json"), &index))
	require.Len(index.Elections, 2)

	// Elections sort by date descending.
	require.Equal("2017 General Election", index.Elections[0].ElectionName)
	require.Equal("2013 General Election", index.Elections[1].ElectionName)

	// Contests sort by office name.
	contests := index.Elections[1].Contests
	require.Len(contests, 2)
	require.Equal("City Council", contests[0].OfficeName)
	require.Equal("Mayor", contests[1].OfficeName)

	require.Equal("Alice Example", contests[1].Winner)
	require.Equal("Dan Trial", contests[0].Winner)
	require.Equal(float64(3), testutil.ToFloat64(p.Metrics.contestsProcessed))
}

func TestRunReusesCaches(t *testing.T) {
	require := require.New(t)

	dirs := setupCorpus(t)
	require.NoError(newPipeline(t, dirs, true, true).Run())

	reportPath := filepath.Join(dirs.reports, "us/mn/minneapolis/2013-11/mayor/report.json")
	before, err := os.Stat(reportPath)
	require.NoError(err)

	cached := newPipeline(t, dirs, false, false)
	require.NoError(cached.Run())

	after, err := os.Stat(reportPath)
	require.NoError(err)
	require.Equal(before.ModTime(), after.ModTime())
	require.Equal(float64(3), testutil.ToFloat64(cached.Metrics.reportCacheHits))
	require.Equal(float64(3), testutil.ToFloat64(cached.Metrics.contestsProcessed))
}

func TestRunPreprocessCacheOnly(t *testing.T) {
	require := require.New(t)

	dirs := setupCorpus(t)
	require.NoError(newPipeline(t, dirs, true, true).Run())

	// Force reports but keep the preprocessed artifacts.
	p := newPipeline(t, dirs, false, true)
	require.NoError(p.Run())
	require.Equal(float64(3), testutil.ToFloat64(p.Metrics.preprocessCacheHits))
	require.Equal(float64(0), testutil.ToFloat64(p.Metrics.reportCacheHits))
}

func TestRunJurisdictionFilter(t *testing.T) {
	require := require.New(t)

	dirs := setupCorpus(t)
	p := newPipeline(t, dirs, true, true)
	p.JurisdictionFilter = "us/somewhere/else"
	require.NoError(p.Run())

	require.NoFileExists(filepath.Join(dirs.reports, "index.json"))
}

func TestMissingRawFileStillCompletes(t *testing.T) {
	require := require.New(t)

	dirs := setupCorpus(t)
	require.NoError(os.Remove(filepath.Join(dirs.raw, "us/mn/minneapolis/2013-11", "council.csv")))

	p := newPipeline(t, dirs, true, true)
	require.NoError(p.Run())

	// The contest degrades to an empty election with no winner.
	var contestReport modelreport.ContestReport
	require.NoError(artifact.ReadJSON(
		filepath.Join(dirs.reports, "us/mn/minneapolis/2013-11/council/report.json"), &contestReport))
	require.Equal(uint32(0), contestReport.BallotCount)
	require.Equal("No Winner", contestReport.IndexEntry().Winner)
}

func TestRebuildIndex(t *testing.T) {
	require := require.New(t)

	dirs := setupCorpus(t)
	require.NoError(newPipeline(t, dirs, true, true).Run())

	indexPath := filepath.Join(dirs.reports, "index.json")
	var fresh modelreport.ReportIndex
	require.NoError(artifact.ReadJSON(indexPath, &fresh))
	require.NoError(os.Remove(indexPath))

	// Drop an unparseable report into the tree; rebuild must skip it.
	bogus := filepath.Join(dirs.reports, "us/mn/minneapolis/2013-11/bogus")
	require.NoError(os.MkdirAll(bogus, 0o755))
	require.NoError(os.WriteFile(filepath.Join(bogus, "report.json"), []byte("not json"), 0o644))

	require.NoError(RebuildIndex(dirs.reports, log.NewNoOpLogger()))

	var rebuilt modelreport.ReportIndex
	require.NoError(artifact.ReadJSON(indexPath, &rebuilt))
	require.Equal(fresh, rebuilt)
}
