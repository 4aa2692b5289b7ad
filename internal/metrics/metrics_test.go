package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	m := New()

	m.IncrementExtraction("ok", "cni", "fr")
	m.IncrementExtraction("ok", "cni", "fr")
	m.IncrementExtraction("no_data", "unknown", "unknown")
	m.AddWarnings(3)
	m.AddWarnings(0)
	m.IncrementEnrichment("mrz")
	m.ObserveExtractLatency(10 * time.Millisecond)
	m.ObserveOCRLatency("image-ocr", time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Extractions.WithLabelValues("ok", "cni", "fr")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Extractions.WithLabelValues("no_data", "unknown", "unknown")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Warnings))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Enrichments.WithLabelValues("mrz")))

	n, err := testutil.GatherAndCount(m.Registry(), "idextract_extract_duration_seconds", "idextract_ocr_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementExtraction("ok", "cni", "fr")
		m.ObserveExtractLatency(time.Second)
		m.ObserveOCRLatency("pdf-text", time.Second)
		m.AddWarnings(1)
		m.IncrementEnrichment("tax_id")
	})
	assert.Nil(t, m.Registry())
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.AddWarnings(1)
	assert.Equal(t, 1.0, testutil.ToFloat64(a.Warnings))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Warnings))
}
