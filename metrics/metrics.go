// Package metrics exposes Prometheus counters for the ingest pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FilesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docflow_files_processed_total",
		Help: "Files successfully ingested",
	})
	FilesDuplicated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docflow_files_duplicated_total",
		Help: "Files skipped as content-hash duplicates",
	})
	FilesErrored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docflow_files_errored_total",
		Help: "Files that failed ingestion and moved to the error stage",
	})
	FilesSkippedUnstable = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docflow_files_skipped_unstable_total",
		Help: "Files skipped because they never stabilized within the timeout",
	})
	ChunksStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docflow_chunks_stored_total",
		Help: "Chunk rows committed to the metadata store",
	})
	ChunksIndexed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docflow_chunks_indexed_total",
		Help: "Chunks embedded and upserted into the vector index",
	})
	EmbedFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docflow_embed_failures_total",
		Help: "Per-chunk embedding or vector upsert failures (non-fatal)",
	})
	EmbedDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "docflow_embed_duration_seconds",
		Help:    "Wall time of one embed+upsert round trip",
		Buckets: prometheus.DefBuckets,
	})
)
