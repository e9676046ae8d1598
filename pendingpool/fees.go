package pendingpool

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// BestTransactionsWithFees wraps a BestTransactions iterator and filters
// out transactions that cannot pay the block's base fee, or — for blob
// transactions — the blob base fee, marking each rejected transaction
// invalid on the inner iterator so its descendants are never yielded
// either: a transaction that cannot clear this block's fee floor cannot
// have its nonce-successor included without it.
type BestTransactionsWithFees struct {
	inner             *BestTransactions
	baseFee           *uint256.Int
	baseFeePerBlobGas *uint256.Int
}

// NewBestTransactionsWithFees wraps inner, requiring every yielded
// transaction's fee cap to meet baseFee and, if it carries blobs, its blob
// fee cap to meet baseFeePerBlobGas.
func NewBestTransactionsWithFees(inner *BestTransactions, baseFee, baseFeePerBlobGas *uint256.Int) *BestTransactionsWithFees {
	return &BestTransactionsWithFees{inner: inner, baseFee: baseFee, baseFeePerBlobGas: baseFeePerBlobGas}
}

// Next returns the next transaction satisfying both fee floors, or nil
// once the underlying walk is exhausted.
func (w *BestTransactionsWithFees) Next() *PendingTransaction {
	for {
		tx := w.inner.Next()
		if tx == nil {
			return nil
		}
		if w.baseFee != nil && tx.Tx.GasFeeCap().Cmp(w.baseFee) < 0 {
			w.inner.MarkInvalid(tx.Tx.Hash())
			continue
		}
		if tx.Tx.IsBlob() {
			if w.baseFeePerBlobGas != nil {
				blobFeeCap := tx.Tx.BlobGasFeeCap()
				if blobFeeCap == nil || blobFeeCap.Cmp(w.baseFeePerBlobGas) < 0 {
					w.inner.MarkInvalid(tx.Tx.Hash())
					continue
				}
			}
		}
		return tx
	}
}

// MarkInvalid and the remaining methods below let callers treat a
// BestTransactionsWithFees exactly like a BestTransactions: they reach
// through to the wrapped iterator, mirroring the original's forwarding
// impl for its fee-aware wrapper.
func (w *BestTransactionsWithFees) MarkInvalid(hash common.Hash) { w.inner.MarkInvalid(hash) }
func (w *BestTransactionsWithFees) SetSkipBlobs(skip bool)       { w.inner.SetSkipBlobs(skip) }
func (w *BestTransactionsWithFees) NoUpdates()                   { w.inner.NoUpdates() }
