package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "filevault"

// Metrics holds the collectors services increment. Counters are labelled by "result".
type Metrics struct {
	Counter        *prometheus.CounterVec
	UploadDuration prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		Counter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "general_counters",
			},
			[]string{"result"}),
		UploadDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "blob_upload_duration_seconds",
				Help:      "Duration of a single blob upload including retries.",
				Buckets:   prometheus.DefBuckets,
			}),
	}
}

// NewUnregistered builds collectors outside the default registry, for tests.
func NewUnregistered() *Metrics {
	return &Metrics{
		Counter: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "general_counters"},
			[]string{"result"}),
		UploadDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{Namespace: namespace, Name: "blob_upload_duration_seconds"}),
	}
}
