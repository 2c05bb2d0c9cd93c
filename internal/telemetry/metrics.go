// Package telemetry holds the prometheus collectors for document extraction.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/joseph-ayodele/n42-extract/constants"
	"github.com/joseph-ayodele/n42-extract/internal/entity"
)

// Channel labels.
const (
	ChannelAlpha              = "alpha"
	ChannelBeta               = "beta"
	ChannelRn222Activity      = "rn222_activity"
	ChannelRn222Concentration = "rn222_concentration"
)

type Metrics struct {
	Documents      *prometheus.CounterVec
	Classification *prometheus.CounterVec
	Duration       prometheus.Histogram
}

// NewMetrics registers the collectors on reg. A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "n42",
			Name:      "documents_processed_total",
			Help:      "Measurement documents processed, by outcome.",
		}, []string{"status"}),
		Classification: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "n42",
			Name:      "channel_classifications_total",
			Help:      "Channel classifications, by channel and outcome (mda or reportable).",
		}, []string{"channel", "outcome"}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "n42",
			Name:      "extraction_duration_seconds",
			Help:      "Time to hash, parse and classify one document.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Documents, m.Classification, m.Duration)
	}
	return m
}

// ObserveDocument records one processed document. m may be nil.
func (m *Metrics) ObserveDocument(status constants.DocumentStatus, row *entity.Row, took time.Duration) {
	if m == nil {
		return
	}
	m.Documents.WithLabelValues(string(status)).Inc()
	m.Duration.Observe(took.Seconds())
	if row == nil {
		return
	}
	m.observeChannel(ChannelAlpha, row.AlphaActivity)
	m.observeChannel(ChannelBeta, row.BetaActivity)
	m.observeChannel(ChannelRn222Activity, row.Rn222Activity)
	m.observeChannel(ChannelRn222Concentration, row.Rn222Concentration)
}

func (m *Metrics) observeChannel(channel, rendered string) {
	outcome := "reportable"
	if rendered == constants.BelowMDA {
		outcome = "mda"
	}
	m.Classification.WithLabelValues(channel, outcome).Inc()
}
