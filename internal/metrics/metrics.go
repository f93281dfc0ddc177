// Package metrics exposes Prometheus counters and histograms for the
// "serve" MCP mode, so long-running deployments can observe indexing
// throughput and pack-composition latency. Grounded on the teacher
// pack's kraklabs-cie/pkg/ingestion/metrics.go (a once-initialized,
// package-level metrics struct registered against the default
// registry), scoped down to this spec's two operations.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type collectors struct {
	once sync.Once

	filesIndexed   prometheus.Counter
	symbolsIndexed prometheus.Counter
	indexErrors    prometheus.Counter
	indexDuration  prometheus.Histogram

	packsComposed  prometheus.Counter
	packsEmpty     prometheus.Counter
	candidateCount prometheus.Histogram
	composeDuration prometheus.Histogram
}

var m collectors

func (c *collectors) init() {
	c.once.Do(func() {
		buckets := []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30}

		c.filesIndexed = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ctxpack_index_files_total", Help: "Files processed by the indexer",
		})
		c.symbolsIndexed = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ctxpack_index_symbols_total", Help: "Symbols extracted by the indexer",
		})
		c.indexErrors = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ctxpack_index_errors_total", Help: "Per-file errors encountered while indexing",
		})
		c.indexDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "ctxpack_index_duration_seconds", Help: "Duration of full or incremental index runs", Buckets: buckets,
		})

		c.packsComposed = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ctxpack_packs_composed_total", Help: "Context packs successfully composed",
		})
		c.packsEmpty = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ctxpack_packs_empty_total", Help: "Context packs composed with zero files (no candidates or none fit budget)",
		})
		c.candidateCount = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "ctxpack_pack_candidates", Help: "Candidates discovered per pack request",
			Buckets: prometheus.LinearBuckets(0, 20, 10),
		})
		c.composeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "ctxpack_pack_compose_duration_seconds", Help: "Duration of pack composition", Buckets: buckets,
		})

		prometheus.MustRegister(
			c.filesIndexed, c.symbolsIndexed, c.indexErrors, c.indexDuration,
			c.packsComposed, c.packsEmpty, c.candidateCount, c.composeDuration,
		)
	})
}

// RecordIndex records the outcome of one Indexer.Index or
// IncrementalUpdate run.
func RecordIndex(files, symbols, errs int, durationSeconds float64) {
	m.init()
	m.filesIndexed.Add(float64(files))
	m.symbolsIndexed.Add(float64(symbols))
	m.indexErrors.Add(float64(errs))
	m.indexDuration.Observe(durationSeconds)
}

// RecordPack records the outcome of one pack composition.
func RecordPack(candidateCount, filesIncluded int, durationSeconds float64) {
	m.init()
	m.packsComposed.Inc()
	if filesIncluded == 0 {
		m.packsEmpty.Inc()
	}
	m.candidateCount.Observe(float64(candidateCount))
	m.composeDuration.Observe(durationSeconds)
}
