package internaldefs

import (
	sidegate "github.com/sidegate/sidegate"
)

// CounterDef binds one engine counter to its exported name.
type CounterDef struct {
	ID   sidegate.MetricID
	Name string
	Help string
}

// HistogramDef binds one engine histogram to its exported name.
type HistogramDef struct {
	ID   sidegate.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a fixed render order.
var CounterDefs = []CounterDef{
	{ID: sidegate.MetricLoginSuccess, Name: "sidegate_login_success_total", Help: "Completed interactive logins."},
	{ID: sidegate.MetricLoginFailure, Name: "sidegate_login_failure_total", Help: "Failed login attempts."},
	{ID: sidegate.MetricChallengeRequired, Name: "sidegate_challenge_required_total", Help: "Logins suspended on a verification challenge."},
	{ID: sidegate.MetricChallengeTimeout, Name: "sidegate_challenge_timeout_total", Help: "Challenges that expired with no code delivered."},
	{ID: sidegate.MetricChallengeRejected, Name: "sidegate_challenge_rejected_total", Help: "Code submissions rejected for a bad ticket or absent waiter."},
	{ID: sidegate.MetricSessionExpired, Name: "sidegate_session_expired_total", Help: "Sessions invalidated on the provider expiry code."},
	{ID: sidegate.MetricCertCacheHit, Name: "sidegate_cert_cache_hit_total", Help: "Certificate reads served from the cache."},
	{ID: sidegate.MetricCertCacheMiss, Name: "sidegate_cert_cache_miss_total", Help: "Certificate reads that queried the portal."},
	{ID: sidegate.MetricCertParseDrift, Name: "sidegate_cert_parse_drift_total", Help: "Certificate fetches classified as portal schema drift."},
	{ID: sidegate.MetricCertRevoked, Name: "sidegate_cert_revoked_total", Help: "Revoked development certificates."},
	{ID: sidegate.MetricAppIDDeleted, Name: "sidegate_app_id_deleted_total", Help: "Deleted app ids."},
	{ID: sidegate.MetricCleanupPartial, Name: "sidegate_cleanup_partial_total", Help: "Bulk cleanups that finished with recorded failures."},
	{ID: sidegate.MetricDownloadSuccess, Name: "sidegate_download_success_total", Help: "Completed artifact downloads."},
	{ID: sidegate.MetricDownloadFailure, Name: "sidegate_download_failure_total", Help: "Failed artifact downloads."},
	{ID: sidegate.MetricInstallSuccess, Name: "sidegate_install_success_total", Help: "Completed device installs."},
	{ID: sidegate.MetricInstallFailure, Name: "sidegate_install_failure_total", Help: "Failed device installs."},
}

// HistogramDefs lists every exported histogram in a fixed render order.
var HistogramDefs = []HistogramDef{
	{ID: sidegate.MetricLoginLatency, Name: "sidegate_login_latency_seconds", Help: "Interactive login duration histogram."},
}

// HistogramBounds are the upper bucket bounds in seconds. Interactive
// logins can run the full challenge window, so bounds span two minutes.
var HistogramBounds = []string{
	"1",
	"2",
	"5",
	"10",
	"30",
	"60",
	"120",
	"+Inf",
}

// HistogramBoundSuffix mirrors HistogramBounds with characters legal in
// OTel instrument names.
var HistogramBoundSuffix = []string{
	"1",
	"2",
	"5",
	"10",
	"30",
	"60",
	"120",
	"inf",
}

// NormalizeBuckets pads or truncates a raw snapshot slice to the fixed
// bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to the cumulative form
// both exporters emit.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
