package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obsidianstack/showroom/viewer/internal/store"
)

func TestRegistry_Families(t *testing.T) {
	r := New()
	r.Activated()
	r.Activated()
	r.Settled(store.OutcomeCommitted, 3)
	r.Settled(store.OutcomeDiscarded, 5)
	r.Settled(store.OutcomeFailed, 0)
	r.Settled(store.OutcomeFailed, 0)

	fams := r.Families()
	require.Len(t, fams, 3)
	assert.Equal(t, nameFetches, fams[0].GetName())
	assert.Equal(t, nameMounts, fams[1].GetName())
	assert.Equal(t, nameRecords, fams[2].GetName())

	byOutcome := map[string]float64{}
	for _, m := range fams[0].GetMetric() {
		byOutcome[m.GetLabel()[0].GetValue()] = m.GetCounter().GetValue()
	}
	assert.Equal(t, map[string]float64{"committed": 1, "discarded": 1, "failed": 2}, byOutcome)

	assert.Equal(t, float64(2), fams[1].GetMetric()[0].GetCounter().GetValue())
	assert.Equal(t, float64(3), fams[2].GetMetric()[0].GetGauge().GetValue(), "discarded batches do not move the gauge")
}

func TestRegistry_RemountResetsRecords(t *testing.T) {
	r := New()
	r.Activated()
	r.Settled(store.OutcomeCommitted, 3)

	r.Activated()
	assert.Equal(t, float64(0), r.Families()[2].GetMetric()[0].GetGauge().GetValue(), "new mount starts empty")

	r.Settled(store.OutcomeFailed, 0)
	assert.Equal(t, float64(0), r.Families()[2].GetMetric()[0].GetGauge().GetValue(), "failed fetch keeps the empty collection")

	r.Settled(store.OutcomeCommitted, 2)
	assert.Equal(t, float64(2), r.Families()[2].GetMetric()[0].GetGauge().GetValue())
}

func TestRegistry_ServeHTTP_TextFormat(t *testing.T) {
	r := New()
	r.Activated()
	r.Settled(store.OutcomeCommitted, 1)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))

	body := rec.Body.String()
	assert.Contains(t, body, `showroom_fetches_total{outcome="committed"} 1`)
	assert.Contains(t, body, `showroom_fetches_total{outcome="failed"} 0`)
	assert.Contains(t, body, "showroom_mounts_total 1")
	assert.Contains(t, body, "showroom_records 1")

	// The output parses back with the same library that scrapers use.
	var parser expfmt.TextParser
	parsed, err := parser.TextToMetricFamilies(strings.NewReader(body))
	require.NoError(t, err)
	assert.Contains(t, parsed, nameMounts)
}
