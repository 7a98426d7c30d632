package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetrics_RoundObserver(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	m.RoomOpened()
	m.RoomOpened()
	m.RoomClosed()
	m.RoundStarted()
	m.RoundConcluded(false)
	m.RoundConcluded(true)
	m.ObserveMessage("submit_vote", 2*time.Millisecond)
	m.Reject("rate_limit")

	body := scrape(t, m)
	assert.Contains(t, body, "word_impostor_active_rooms 1")
	assert.Contains(t, body, "word_impostor_rounds_started_total 1")
	assert.Contains(t, body, `word_impostor_rounds_concluded_total{outcome="completed"} 1`)
	assert.Contains(t, body, `word_impostor_rounds_concluded_total{outcome="impostor_left"} 1`)
	assert.Contains(t, body, `word_impostor_messages_received_total{type="submit_vote"} 1`)
	assert.Contains(t, body, `word_impostor_rejected_connections_total{reason="rate_limit"} 1`)
	assert.Contains(t, body, "word_impostor_message_latency_seconds_count 1")
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	t.Parallel()

	// 每个实例有自己的 registry，重复创建不会 panic
	assert.NotPanics(t, func() {
		a := NewMetrics()
		b := NewMetrics()
		a.RoundStarted()
		assert.Contains(t, scrape(t, b), "word_impostor_rounds_started_total 0")
	})
}
