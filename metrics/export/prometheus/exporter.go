package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/jottr/authflow"
)

type counterDef struct {
	id   authflow.MetricID
	name string
	help string
}

var counterDefs = []counterDef{
	{authflow.MetricLoginSuccess, "authflow_login_success_total", "Successful login attempts."},
	{authflow.MetricLoginFailure, "authflow_login_failure_total", "Failed login attempts."},
	{authflow.MetricLoginRateLimited, "authflow_login_rate_limited_total", "Rate-limited login attempts."},
	{authflow.MetricLogout, "authflow_logout_total", "Logout operations that revoked a session."},
	{authflow.MetricRegisterSuccess, "authflow_register_success_total", "Successful registrations."},
	{authflow.MetricRegisterDuplicate, "authflow_register_duplicate_total", "Registrations rejected as duplicate email."},
	{authflow.MetricRegisterFailure, "authflow_register_failure_total", "Registrations failed on store errors."},
	{authflow.MetricVerificationIssued, "authflow_verification_issued_total", "Verification codes issued."},
	{authflow.MetricVerificationSuccess, "authflow_verification_success_total", "Successful email verifications."},
	{authflow.MetricVerificationFailure, "authflow_verification_failure_total", "Failed email verifications."},
	{authflow.MetricVerificationRateLimited, "authflow_verification_rate_limited_total", "Rate-limited verification attempts."},
	{authflow.MetricResetRequest, "authflow_reset_request_total", "Password reset requests."},
	{authflow.MetricResetSuccess, "authflow_reset_success_total", "Successful password reset confirmations."},
	{authflow.MetricResetFailure, "authflow_reset_failure_total", "Failed password reset confirmations."},
	{authflow.MetricResetRateLimited, "authflow_reset_rate_limited_total", "Rate-limited reset confirmations."},
	{authflow.MetricPasswordChangeSuccess, "authflow_password_change_success_total", "Successful password changes."},
	{authflow.MetricPasswordChangeFailure, "authflow_password_change_failure_total", "Password changes rejected on old-password mismatch."},
	{authflow.MetricSessionIssued, "authflow_session_issued_total", "Sessions established."},
	{authflow.MetricSessionRevoked, "authflow_session_revoked_total", "Session revocation operations."},
	{authflow.MetricMailDispatchFailure, "authflow_mail_dispatch_failure_total", "Outbound mail dispatch failures."},
}

var histogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

type metricsSource interface {
	MetricsSnapshot() authflow.MetricsSnapshot
	AuditDropped() uint64
}

// Exporter renders engine metrics in Prometheus text exposition format.
type Exporter struct {
	source metricsSource
}

// NewExporter creates an exporter reading from the given engine.
func NewExporter(engine *authflow.Engine) *Exporter {
	return &Exporter{source: engine}
}

// NewExporterFromSource creates an exporter from a custom metrics source.
func NewExporterFromSource(source metricsSource) *Exporter {
	return &Exporter{source: source}
}

// Handler returns an http.Handler serving the rendered metrics.
func (p *Exporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render writes the current metrics as Prometheus text.
func (p *Exporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	snapshot := p.source.MetricsSnapshot()
	dropped := p.source.AuditDropped()

	var b strings.Builder
	b.Grow(8192)

	for _, def := range counterDefs {
		writeCounter(&b, def.name, def.help, snapshot.Counters[def.id])
	}

	if buckets, ok := snapshot.Histograms[authflow.MetricLoginLatency]; ok {
		writeHistogram(&b, "authflow_login_latency_seconds", "Login latency histogram.", cumulative(buckets))
	}

	writeCounter(&b, "authflow_audit_dropped_total", "Dropped audit events due to dispatcher backpressure.", dropped)

	return b.String()
}

func cumulative(raw []uint64) []uint64 {
	out := make([]uint64, len(histogramBounds))
	var running uint64
	for i := range out {
		if i < len(raw) {
			running += raw[i]
		}
		out[i] = running
	}
	return out
}

func writeCounter(b *strings.Builder, name, help string, value uint64) {
	b.WriteString("# HELP ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(help)
	b.WriteByte('\n')
	b.WriteString("# TYPE ")
	b.WriteString(name)
	b.WriteString(" counter\n")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(strconv.FormatUint(value, 10))
	b.WriteByte('\n')
}

func writeHistogram(b *strings.Builder, name, help string, cum []uint64) {
	b.WriteString("# HELP ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(help)
	b.WriteByte('\n')
	b.WriteString("# TYPE ")
	b.WriteString(name)
	b.WriteString(" histogram\n")

	for i, le := range histogramBounds {
		b.WriteString(name)
		b.WriteString("_bucket{le=\"")
		b.WriteString(le)
		b.WriteString("\"} ")
		b.WriteString(strconv.FormatUint(cum[i], 10))
		b.WriteByte('\n')
	}

	count := cum[len(cum)-1]
	b.WriteString(name)
	b.WriteString("_count ")
	b.WriteString(strconv.FormatUint(count, 10))
	b.WriteByte('\n')

	// Sum is not tracked in core snapshots; keep a stable zero field.
	b.WriteString(name)
	b.WriteString("_sum 0\n")
}
