package metrics

import (
	"time"

	domain "github.com/mohammadpnp/account-admin/internal/domain/account"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	parsedRecordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "account_import_parsed_records_total",
		Help: "Records seen while parsing import documents",
	}, []string{"result"})

	writesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "account_import_writes_total",
		Help: "Account writes sent to the store",
	}, []string{"result"})

	writeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "account_import_write_duration_seconds",
		Help:    "Latency of single account writes",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})

	uploadsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "account_import_uploads_in_flight",
		Help: "Uploads currently running",
	})

	uploadsFinishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "account_import_uploads_finished_total",
		Help: "Uploads that reached a final state",
	}, []string{"state"})
)

// Recorder publishes import and upload events as Prometheus metrics.
type Recorder struct{}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (*Recorder) ObserveParse(accepted, dropped int) {
	parsedRecordsTotal.WithLabelValues("accepted").Add(float64(accepted))
	parsedRecordsTotal.WithLabelValues("dropped").Add(float64(dropped))
}

func (*Recorder) ObserveWrite(succeeded bool, duration time.Duration) {
	result := "ok"
	if !succeeded {
		result = "error"
	}
	writesTotal.WithLabelValues(result).Inc()
	writeDuration.Observe(duration.Seconds())
}

func (*Recorder) UploadStarted() {
	uploadsInFlight.Inc()
}

func (*Recorder) UploadFinished(state domain.UploadState) {
	uploadsInFlight.Dec()
	uploadsFinishedTotal.WithLabelValues(string(state)).Inc()
}
