package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// LaunchpadMetrics tracks the persona launchpad's state transitions.
type LaunchpadMetrics struct {
	PersonasCreated *prometheus.CounterVec
	Purchases       *prometheus.CounterVec
	Graduations     prometheus.Counter
	Withdrawals     prometheus.Counter
	FeeVolume       *prometheus.CounterVec
	RPCRequests     *prometheus.CounterVec
	RPCLatency      *prometheus.HistogramVec
}

var (
	launchpadOnce sync.Once
	launchpadReg  *LaunchpadMetrics
)

// Launchpad returns the process-wide launchpad metrics, registering them on
// first use.
func Launchpad() *LaunchpadMetrics {
	launchpadOnce.Do(func() {
		launchpadReg = &LaunchpadMetrics{
			PersonasCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "persona",
				Subsystem: "launchpad",
				Name:      "personas_created_total",
				Help:      "Count of personas created, segmented by pairing asset.",
			}, []string{"pairing_asset"}),
			Purchases: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "persona",
				Subsystem: "launchpad",
				Name:      "purchases_total",
				Help:      "Count of settled curve purchases, segmented by pairing asset.",
			}, []string{"pairing_asset"}),
			Graduations: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "persona",
				Subsystem: "launchpad",
				Name:      "graduations_total",
				Help:      "Count of personas that moved trading to the liquidity venue.",
			}),
			Withdrawals: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "persona",
				Subsystem: "launchpad",
				Name:      "withdrawals_total",
				Help:      "Count of lock releases settled to buyers.",
			}),
			FeeVolume: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "persona",
				Subsystem: "launchpad",
				Name:      "fee_volume_wei_total",
				Help:      "Cumulative trading fees collected, segmented by pairing asset.",
			}, []string{"pairing_asset"}),
			RPCRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "persona",
				Subsystem: "rpc",
				Name:      "requests_total",
				Help:      "Count of JSON-RPC requests, segmented by method and outcome.",
			}, []string{"method", "outcome"}),
			RPCLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "persona",
				Subsystem: "rpc",
				Name:      "request_seconds",
				Help:      "JSON-RPC handler latency in seconds.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"method"}),
		}
		prometheus.MustRegister(
			launchpadReg.PersonasCreated,
			launchpadReg.Purchases,
			launchpadReg.Graduations,
			launchpadReg.Withdrawals,
			launchpadReg.FeeVolume,
			launchpadReg.RPCRequests,
			launchpadReg.RPCLatency,
		)
	})
	return launchpadReg
}
