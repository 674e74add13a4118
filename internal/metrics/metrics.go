package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles the pipeline counters behind a dedicated Prometheus
// registry so the /metrics endpoint only exposes what this service owns.
type Registry struct {
	reg           *prometheus.Registry
	RowsStaged    prometheus.Counter
	RowsRejected  prometheus.Counter
	RowsRead      prometheus.Counter
	RowsWritten   prometheus.Counter
	RowsSkipped   prometheus.Counter
	MergedRebuilt prometheus.Counter
	UploadSeconds prometheus.Histogram
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	rowsStaged := prometheus.NewCounter(prometheus.CounterOpts{Name: "ingestion_rows_staged_total"})
	rowsRejected := prometheus.NewCounter(prometheus.CounterOpts{Name: "ingestion_rows_rejected_total"})
	rowsRead := prometheus.NewCounter(prometheus.CounterOpts{Name: "normalization_rows_read_total"})
	rowsWritten := prometheus.NewCounter(prometheus.CounterOpts{Name: "normalization_rows_written_total"})
	rowsSkipped := prometheus.NewCounter(prometheus.CounterOpts{Name: "normalization_rows_skipped_total"})
	mergedRebuilt := prometheus.NewCounter(prometheus.CounterOpts{Name: "merge_rows_rebuilt_total"})
	uploadSeconds := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ingestion_upload_seconds",
		Buckets: prometheus.DefBuckets,
	})

	r.MustRegister(rowsStaged, rowsRejected, rowsRead, rowsWritten, rowsSkipped, mergedRebuilt, uploadSeconds)
	return &Registry{
		reg:           r,
		RowsStaged:    rowsStaged,
		RowsRejected:  rowsRejected,
		RowsRead:      rowsRead,
		RowsWritten:   rowsWritten,
		RowsSkipped:   rowsSkipped,
		MergedRebuilt: mergedRebuilt,
		UploadSeconds: uploadSeconds,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
