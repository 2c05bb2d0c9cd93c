package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/n42-extract/constants"
	"github.com/joseph-ayodele/n42-extract/internal/entity"
)

func TestObserveDocument(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveDocument(constants.DocumentStatusOK, &entity.Row{
		AlphaActivity:      "10.0000 ± 2.0000",
		BetaActivity:       "<MDA",
		Rn222Activity:      "<MDA",
		Rn222Concentration: "0.0000 ± 0.0000",
	}, 3*time.Millisecond)
	m.ObserveDocument(constants.DocumentStatusFailed, nil, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Documents.WithLabelValues("OK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Documents.WithLabelValues("FAILED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Classification.WithLabelValues(ChannelAlpha, "reportable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Classification.WithLabelValues(ChannelBeta, "mda")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Classification.WithLabelValues(ChannelRn222Concentration, "reportable")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.Duration))
}

func TestObserveDocument_NilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() { m.ObserveDocument(constants.DocumentStatusOK, nil, 0) })
}
