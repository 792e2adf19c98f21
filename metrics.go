package clinicauth

import internalmetrics "github.com/ovumlab/clinicauth/internal/metrics"

// MetricID identifies one counter in the metrics set.
type MetricID = internalmetrics.MetricID

const (
	MetricLoginSuccess          = internalmetrics.MetricLoginSuccess
	MetricLoginFailure          = internalmetrics.MetricLoginFailure
	MetricLoginBanned           = internalmetrics.MetricLoginBanned
	MetricLoginUnverified       = internalmetrics.MetricLoginUnverified
	MetricRegisterSuccess       = internalmetrics.MetricRegisterSuccess
	MetricRegisterPending       = internalmetrics.MetricRegisterPending
	MetricRegisterFailure       = internalmetrics.MetricRegisterFailure
	MetricBootRestore           = internalmetrics.MetricBootRestore
	MetricBootAbsent            = internalmetrics.MetricBootAbsent
	MetricRevalidationSuccess   = internalmetrics.MetricRevalidationSuccess
	MetricRevalidationFailure   = internalmetrics.MetricRevalidationFailure
	MetricLogout                = internalmetrics.MetricLogout
	MetricLogoutRemoteFailure   = internalmetrics.MetricLogoutRemoteFailure
	MetricProfileRefresh        = internalmetrics.MetricProfileRefresh
	MetricProfileRefreshFailure = internalmetrics.MetricProfileRefreshFailure
	MetricProfileUpdate         = internalmetrics.MetricProfileUpdate
	MetricProfileUpdateFailure  = internalmetrics.MetricProfileUpdateFailure
	MetricEmailVerified         = internalmetrics.MetricEmailVerified
	MetricSessionPersisted      = internalmetrics.MetricSessionPersisted
	MetricSessionCleared        = internalmetrics.MetricSessionCleared
)

// MetricsSnapshot is a point-in-time copy of all counters, returned by
// [Manager.MetricsSnapshot].
type MetricsSnapshot = internalmetrics.Snapshot

func newMetrics(cfg MetricsConfig) *internalmetrics.Metrics {
	return internalmetrics.New(internalmetrics.Config{Enabled: cfg.Enabled})
}
