package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the credential module: authorization
// outcomes, write volumes, and instance creation.
type Metrics struct {
	Authorizations   *prometheus.CounterVec
	MetadataWrites   prometheus.Counter
	ReviewsSubmitted prometheus.Counter
	InstancesCreated prometheus.Counter
	CreateDuration   prometheus.Histogram
}

// New creates a new Metrics instance with all credential module metrics
// registered.
func New() *Metrics {
	return &Metrics{
		Authorizations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "smartcredentials_authorizations_total",
			Help: "Authorization checks by decision",
		}, []string{"decision"}),
		MetadataWrites: promauto.NewCounter(prometheus.CounterOpts{
			Name: "smartcredentials_metadata_writes_total",
			Help: "Total agent and instance metadata writes",
		}),
		ReviewsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "smartcredentials_reviews_submitted_total",
			Help: "Total reviews submitted",
		}),
		InstancesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "smartcredentials_instances_created_total",
			Help: "Total credential instances created by the factory",
		}),
		CreateDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "smartcredentials_instance_create_duration_seconds",
			Help:    "Duration of factory instance creation",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncAuthorization records one authorization check outcome.
func (m *Metrics) IncAuthorization(decision string) {
	m.Authorizations.WithLabelValues(decision).Inc()
}

// IncMetadataWrite records a successful metadata write.
func (m *Metrics) IncMetadataWrite() {
	m.MetadataWrites.Inc()
}

// IncReviewSubmitted records a successful review write.
func (m *Metrics) IncReviewSubmitted() {
	m.ReviewsSubmitted.Inc()
}

// IncInstanceCreated records a successful factory creation.
func (m *Metrics) IncInstanceCreated() {
	m.InstancesCreated.Inc()
}

// ObserveCreate records the duration of a factory creation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveCreate(start time.Time) {
	m.CreateDuration.Observe(time.Since(start).Seconds())
}
