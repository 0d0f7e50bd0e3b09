// Package metrics exposes the Prometheus collectors authcached's /metrics
// endpoint serves.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// ReplicationChangeNumber tracks the driver's last-applied change
	// number (spec.md §4.4).
	ReplicationChangeNumber = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "authcache_replication_changenumber",
		Help: "Last change number applied by the replication driver.",
	})

	// ReplicationVirgin is 1 while the cache has not yet caught up with
	// the directory, 0 once it is authoritative.
	ReplicationVirgin = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "authcache_replication_virgin",
		Help: "1 while replication has not caught up, 0 once authoritative.",
	})

	// VerifyTotal counts verify calls by outcome.
	VerifyTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "authcache_verify_total",
		Help: "Total verify calls by result.",
	}, []string{"result"})

	// VerifyDuration observes verify call latency.
	VerifyDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "authcache_verify_duration_seconds",
		Help:    "Latency of verify calls.",
		Buckets: prometheus.DefBuckets,
	})

	// ExpiredTempCredentials tracks the count found by the housekeeping
	// sweep (spec.md SPEC_FULL.md §6).
	ExpiredTempCredentials = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "authcache_expired_temp_credentials",
		Help: "Number of expired temporary credentials found by the last housekeeping sweep.",
	})
)

// Registry returns a registry with every collector above registered, ready
// to be served via promhttp.
func Registry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(ReplicationChangeNumber, ReplicationVirgin, VerifyTotal, VerifyDuration, ExpiredTempCredentials)
	return reg
}
