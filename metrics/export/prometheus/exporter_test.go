package prometheus

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jottr/authflow"
)

type fakeSource struct {
	snapshot authflow.MetricsSnapshot
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() authflow.MetricsSnapshot { return f.snapshot }
func (f *fakeSource) AuditDropped() uint64                      { return f.dropped }

func TestRenderCounters(t *testing.T) {
	source := &fakeSource{
		snapshot: authflow.MetricsSnapshot{
			Counters: map[authflow.MetricID]uint64{
				authflow.MetricLoginSuccess:  7,
				authflow.MetricLoginFailure:  2,
				authflow.MetricSessionIssued: 9,
			},
			Histograms: map[authflow.MetricID][]uint64{},
		},
		dropped: 3,
	}

	out := NewExporterFromSource(source).Render()

	for _, want := range []string{
		"# TYPE authflow_login_success_total counter",
		"authflow_login_success_total 7",
		"authflow_login_failure_total 2",
		"authflow_session_issued_total 9",
		"authflow_audit_dropped_total 3",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output", want)
		}
	}

	// Counters that never fired still render as zero.
	if !strings.Contains(out, "authflow_reset_success_total 0") {
		t.Error("missing zero-valued counter")
	}
}

func TestRenderHistogram(t *testing.T) {
	source := &fakeSource{
		snapshot: authflow.MetricsSnapshot{
			Counters: map[authflow.MetricID]uint64{},
			Histograms: map[authflow.MetricID][]uint64{
				authflow.MetricLoginLatency: {1, 0, 2, 0, 0, 0, 0, 1},
			},
		},
	}

	out := NewExporterFromSource(source).Render()

	for _, want := range []string{
		"# TYPE authflow_login_latency_seconds histogram",
		`authflow_login_latency_seconds_bucket{le="0.005"} 1`,
		`authflow_login_latency_seconds_bucket{le="0.025"} 3`,
		`authflow_login_latency_seconds_bucket{le="+Inf"} 4`,
		"authflow_login_latency_seconds_count 4",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output", want)
		}
	}
}

func TestHandler(t *testing.T) {
	source := &fakeSource{
		snapshot: authflow.MetricsSnapshot{
			Counters:   map[authflow.MetricID]uint64{authflow.MetricLogout: 1},
			Histograms: map[authflow.MetricID][]uint64{},
		},
	}

	rec := httptest.NewRecorder()
	NewExporterFromSource(source).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("content type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "authflow_logout_total 1") {
		t.Fatal("body missing logout counter")
	}
}

func TestRenderNilExporter(t *testing.T) {
	var e *Exporter
	if e.Render() != "" {
		t.Fatal("nil exporter must render empty")
	}
}
