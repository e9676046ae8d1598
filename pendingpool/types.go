// Package pendingpool implements a priority iterator over pending
// transactions: a BestTransactions walk that always yields the
// highest-priority transaction whose predecessor (same sender, nonce-1) has
// already been yielded, honoring mid-walk invalidation and late-arriving
// transactions without restarting the walk.
package pendingpool

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
)

// TxID identifies a pending transaction by its sender and nonce, the same
// key space a sender's transactions occupy in the chain.
type TxID struct {
	Sender common.Address
	Nonce  uint64
}

// ancestor returns the TxID of the transaction that must be included
// immediately before id: same sender, nonce-1.
func (id TxID) ancestor() (TxID, bool) {
	if id.Nonce == 0 {
		return TxID{}, false
	}
	return TxID{Sender: id.Sender, Nonce: id.Nonce - 1}, true
}

// descendant returns the TxID this transaction directly unlocks: same
// sender, nonce+1.
func (id TxID) descendant() TxID {
	return TxID{Sender: id.Sender, Nonce: id.Nonce + 1}
}

// Transaction is the read-only view a pending transaction must offer the
// iterator and its fee-aware wrapper. Implementations normally wrap a
// go-ethereum *types.Transaction plus the sender recovered once at
// insertion time.
type Transaction interface {
	Hash() common.Hash
	Sender() common.Address
	Nonce() uint64
	GasFeeCap() *uint256.Int
	GasTipCap() *uint256.Int
	// BlobGasFeeCap returns the max fee per blob gas, or nil for a
	// non-blob transaction.
	BlobGasFeeCap() *uint256.Int
	BlobGasUsed() uint64
	IsBlob() bool
	Raw() *types.Transaction
}

// Priority is a total-order ranking key, descending: a transaction with a
// numerically greater Priority is more valuable and must be yielded first.
type Priority struct {
	Value *uint256.Int
}

// Ordering assigns a Priority to a transaction. Implementations may ignore
// the base fee argument if their ranking does not depend on it.
type Ordering interface {
	Priority(tx Transaction, baseFee *uint256.Int) Priority
}

// PendingTransaction couples a validated Transaction with the Priority an
// Ordering assigned it at insertion time. The iterator never recomputes
// Priority mid-walk: a transaction's rank is fixed for the lifetime of one
// Snapshot.
type PendingTransaction struct {
	Tx       Transaction
	Priority Priority
}

// ID returns the transaction's (sender, nonce) identity.
func (p *PendingTransaction) ID() TxID {
	return TxID{Sender: p.Tx.Sender(), Nonce: p.Tx.Nonce()}
}

// less orders PendingTransactions by ascending Priority.Value, ties broken
// by sender then nonce so iteration order is deterministic for equal-
// priority transactions. Used as the btree comparator; the iterator always
// pops the maximum, i.e. the highest-priority transaction.
func less(a, b *PendingTransaction) bool {
	if cmp := a.Priority.Value.Cmp(b.Priority.Value); cmp != 0 {
		return cmp < 0
	}
	aID, bID := a.ID(), b.ID()
	if aID.Sender != bID.Sender {
		return bytes.Compare(aID.Sender[:], bID.Sender[:]) < 0
	}
	return aID.Nonce < bID.Nonce
}
