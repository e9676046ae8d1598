package pendingpool

import "github.com/ethereum/go-ethereum/common"

// bestIterator is the minimal surface BestTransactionFilter needs from its
// wrapped iterator; both *BestTransactions and *BestTransactionsWithFees
// satisfy it.
type bestIterator interface {
	Next() *PendingTransaction
	MarkInvalid(hash common.Hash)
	SetSkipBlobs(skip bool)
	NoUpdates()
}

// BestTransactionFilter wraps any bestIterator and additionally requires
// each yielded transaction to satisfy an arbitrary predicate. Like fee
// filtering, a predicate rejection marks the transaction invalid on the
// wrapped iterator, so its descendants are not yielded either.
type BestTransactionFilter struct {
	inner     bestIterator
	predicate func(*PendingTransaction) bool
}

// NewBestTransactionFilter wraps inner, yielding only transactions for
// which predicate returns true.
func NewBestTransactionFilter(inner bestIterator, predicate func(*PendingTransaction) bool) *BestTransactionFilter {
	return &BestTransactionFilter{inner: inner, predicate: predicate}
}

// Next returns the next transaction satisfying the predicate, or nil once
// the underlying walk is exhausted.
func (f *BestTransactionFilter) Next() *PendingTransaction {
	for {
		tx := f.inner.Next()
		if tx == nil {
			return nil
		}
		if f.predicate(tx) {
			return tx
		}
		f.inner.MarkInvalid(tx.Tx.Hash())
	}
}

func (f *BestTransactionFilter) MarkInvalid(hash common.Hash) { f.inner.MarkInvalid(hash) }
func (f *BestTransactionFilter) SetSkipBlobs(skip bool)       { f.inner.SetSkipBlobs(skip) }
func (f *BestTransactionFilter) NoUpdates()                   { f.inner.NoUpdates() }
