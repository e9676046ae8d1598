package pendingpool

import "github.com/ethereum/go-ethereum/metrics"

// metrics
var (
	PendingGauge     = metrics.NewRegisteredGauge("pendingpool/pending", nil)
	IndependentGauge = metrics.NewRegisteredGauge("pendingpool/independent", nil)
	InvalidGauge     = metrics.NewRegisteredGauge("pendingpool/invalid", nil)
	UnlockMeter      = metrics.NewRegisteredMeter("pendingpool/unlock", nil)
	LaggedMeter      = metrics.NewRegisteredMeter("pendingpool/feed/lagged", nil)
)

// MetricsSnapshotSizes records the size of a freshly built Snapshot.
func MetricsSnapshotSizes(all, independent, invalid int) {
	PendingGauge.Update(int64(all))
	IndependentGauge.Update(int64(independent))
	InvalidGauge.Update(int64(invalid))
}

// MetricsUnlock records that Next() unlocked a descendant transaction.
func MetricsUnlock() {
	UnlockMeter.Mark(1)
}

// MetricsLagged records that a feed subscription observed RecvLagged.
func MetricsLagged() {
	LaggedMeter.Mark(1)
}
