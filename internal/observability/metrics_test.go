package observability

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.TurnDone("replied")
	m.Transcribed("success")
	m.Replied("model")
	m.Synthesized("ok")
	m.ObserveStage("generate", time.Second)
}

func TestMetricsCountAndServe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("riverwood_test", reg)

	m.TurnDone("replied")
	m.TurnDone("replied")
	m.TurnDone("no_input")
	m.Replied("offline")
	m.ObserveStage("generate", 120*time.Millisecond)

	if got := testutil.ToFloat64(m.Turns.WithLabelValues("replied")); got != 2 {
		t.Fatalf("turns{replied} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Replies.WithLabelValues("offline")); got != 1 {
		t.Fatalf("replies{offline} = %v, want 1", got)
	}

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `riverwood_test_turns_total{outcome="no_input"} 1`) {
		t.Fatalf("metrics output missing no_input counter:\n%s", body)
	}
}
