package builder

import "github.com/ethereum/go-ethereum/metrics"

// metrics
var (
	buildTimer       = metrics.NewRegisteredTimer("builder/build", nil)
	buildErrorMeter  = metrics.NewRegisteredMeter("builder/build/error", nil)
	gasUsedGauge     = metrics.NewRegisteredGauge("builder/gasused", nil)
	blobGasUsedGauge = metrics.NewRegisteredGauge("builder/blobgasused", nil)
	txCountGauge     = metrics.NewRegisteredGauge("builder/txs", nil)
	cacheHitMeter    = metrics.NewRegisteredMeter("builder/cache/hit", nil)
)

// metricsBuildOutcome records a completed build's gas used, blob gas used
// and transaction count; build duration is recorded separately by Build
// through buildTimer.
func metricsBuildOutcome(gasUsed, blobGasUsed uint64, txCount int) {
	gasUsedGauge.Update(int64(gasUsed))
	blobGasUsedGauge.Update(int64(blobGasUsed))
	txCountGauge.Update(int64(txCount))
}
