package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/smartcity/tripduration/internal/domain"
)

type Collector struct {
	reg *prometheus.Registry

	Predictions       prometheus.Counter
	PredictionLatency prometheus.Histogram
	BatchSize         prometheus.Histogram

	StageErrors *prometheus.CounterVec // stage label: deriver|aligner|standardizer|predictor
	SchemaGaps  *prometheus.CounterVec // feature label

	ArtifactsLoaded prometheus.Gauge

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		Predictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tripduration_predictions_total",
			Help: "Total trips scored.",
		}),
		PredictionLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tripduration_prediction_duration_seconds",
			Help:    "Duration of one pipeline run, from raw trips to results.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16),
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tripduration_batch_size",
			Help:    "Trips per pipeline run.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 11),
		}),
		StageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tripduration_stage_errors_total",
			Help: "Pipeline failures by stage.",
		}, []string{"stage"}),
		SchemaGaps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tripduration_schema_gaps_total",
			Help: "Manifest columns zero-filled because the deriver did not produce them.",
		}, []string{"feature"}),
		ArtifactsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tripduration_artifacts_loaded",
			Help: "1 if a consistent artifact bundle is loaded, 0 otherwise.",
		}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tripduration_nats_published_total",
			Help: "Total NATS messages published.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tripduration_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tripduration_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
	}

	reg.MustRegister(
		c.Predictions, c.PredictionLatency, c.BatchSize,
		c.StageErrors, c.SchemaGaps, c.ArtifactsLoaded,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected,
	)

	return c
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Registry exposes the private registry for tests and extra collectors
func (c *Collector) Registry() *prometheus.Registry { return c.reg }

func (c *Collector) ObservePrediction(d time.Duration, rows int) {
	c.Predictions.Add(float64(rows))
	c.PredictionLatency.Observe(d.Seconds())
	c.BatchSize.Observe(float64(rows))
}

func (c *Collector) StageError(stage domain.Stage) {
	c.StageErrors.WithLabelValues(string(stage)).Inc()
}

func (c *Collector) SchemaGap(feature string) {
	c.SchemaGaps.WithLabelValues(feature).Inc()
}

func (c *Collector) SetArtifactsLoaded(loaded bool) {
	if loaded {
		c.ArtifactsLoaded.Set(1)
	} else {
		c.ArtifactsLoaded.Set(0)
	}
}

func (c *Collector) NATSPublishedInc()  { c.NATSPublished.Inc() }
func (c *Collector) NATSPublishErrInc() { c.NATSPublishErrs.Inc() }

func (c *Collector) NATSSetConnected(connected bool) {
	if connected {
		c.NATSConnected.Set(1)
	} else {
		c.NATSConnected.Set(0)
	}
}
