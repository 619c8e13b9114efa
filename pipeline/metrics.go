// Copyright (C) 2024-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pipeline

import (
	"github.com/luxfi/metric"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks pipeline progress counters and tabulation statistics on the
// pipeline's own registry.
type Metrics struct {
	registry *prometheus.Registry

	contestsProcessed   prometheus.Counter
	contestsFailed      prometheus.Counter
	preprocessCacheHits prometheus.Counter
	reportCacheHits     prometheus.Counter
	ballotsProcessed    prometheus.Counter

	tabulationRounds metric.Averager
}

// NewMetrics builds the pipeline metrics on a fresh registry.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		contestsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ranked_vote",
			Name:      "contests_processed",
			Help:      "Number of contests fully processed",
		}),
		contestsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ranked_vote",
			Name:      "contests_failed",
			Help:      "Number of contests that failed and were skipped",
		}),
		preprocessCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ranked_vote",
			Name:      "preprocess_cache_hits",
			Help:      "Number of contests served from the preprocessed artifact cache",
		}),
		reportCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ranked_vote",
			Name:      "report_cache_hits",
			Help:      "Number of contests served from the report artifact cache",
		}),
		ballotsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ranked_vote",
			Name:      "ballots_processed",
			Help:      "Number of ballots normalized across all contests",
		}),
	}

	for _, collector := range []prometheus.Collector{
		m.contestsProcessed,
		m.contestsFailed,
		m.preprocessCacheHits,
		m.reportCacheHits,
		m.ballotsProcessed,
	} {
		if err := registry.Register(collector); err != nil {
			return nil, err
		}
	}

	rounds, err := metric.NewAverager("ranked_vote", "tabulation_rounds", registry)
	if err != nil {
		return nil, err
	}
	m.tabulationRounds = rounds

	return m, nil
}

// Registry exposes the pipeline's registry for scraping or inspection.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
