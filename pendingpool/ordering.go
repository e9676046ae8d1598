package pendingpool

import "github.com/holiman/uint256"

// EffectiveTipOrdering is the default Ordering: priority is the effective
// miner tip a transaction pays at the given base fee, min(gasTipCap,
// gasFeeCap-baseFee), matching the comparison go-ethereum's
// transactionsByPriceAndNonce uses to pick the next transaction off its
// per-sender heaps. A transaction whose fee cap cannot cover the base fee
// ranks at zero rather than going negative; BestTransactionsWithFees is
// responsible for excluding such transactions entirely, so a zero rank
// here is only ever observed internally.
type EffectiveTipOrdering struct{}

func (EffectiveTipOrdering) Priority(tx Transaction, baseFee *uint256.Int) Priority {
	if baseFee == nil || baseFee.IsZero() {
		return Priority{Value: new(uint256.Int).Set(tx.GasTipCap())}
	}
	feeCap := tx.GasFeeCap()
	if feeCap.Cmp(baseFee) <= 0 {
		return Priority{Value: new(uint256.Int)}
	}
	headroom := new(uint256.Int).Sub(feeCap, baseFee)
	tip := tx.GasTipCap()
	if headroom.Cmp(tip) < 0 {
		return Priority{Value: headroom}
	}
	return Priority{Value: new(uint256.Int).Set(tip)}
}
