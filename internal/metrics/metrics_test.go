package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Exposition(t *testing.T) {
	m := New()
	m.Request(OutcomeOK)
	m.Request(OutcomeOK)
	m.Request(OutcomeStoreError)
	m.IntentCall(120*time.Millisecond, nil)
	m.IntentCall(time.Second, errors.New("boom"))
	m.Stored(true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	out := string(body)
	assert.Contains(t, out, `voice_requests_total{outcome="ok"} 2`)
	assert.Contains(t, out, `voice_requests_total{outcome="store_error"} 1`)
	assert.Contains(t, out, `voice_intent_call_duration_seconds_count{result="error"} 1`)
	assert.Contains(t, out, `voice_interactions_stored_total{has_intent="true"} 1`)
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New()
		New()
	})
}
