package pendingpool

import (
	"sync"

	"github.com/holiman/uint256"
)

// BestWithFees is the fee-aware iterator type a Pool hands back to a block
// builder: the same capability surface as BestTransactions, filtered by a
// block's base fee and blob base fee.
type BestWithFees = BestTransactionsWithFees

// Pool is the inbound collaborator the block builder depends on for
// candidate transactions: a live set of pending transactions exposed as a
// fresh, fee-filtered priority iterator per build attempt.
type Pool interface {
	// BestWithAttributes returns a fee-filtered iterator over a fresh
	// Snapshot of the pool's current pending transactions.
	BestWithAttributes(baseFee, baseFeePerBlobGas *uint256.Int) *BestWithFees
}

// TransactionPool is a minimal, in-memory Pool: a flat set of validated
// pending transactions plus a late-arrival Feed for transactions added
// after a Snapshot was already taken.
type TransactionPool struct {
	mu       sync.RWMutex
	ordering Ordering
	txs      map[TxID]*PendingTransaction
	feed     *Feed
}

// NewTransactionPool returns an empty pool using ordering to rank incoming
// transactions, buffering up to feedBacklog recent arrivals for lagging
// subscribers.
func NewTransactionPool(ordering Ordering, feedBacklog int) *TransactionPool {
	return &TransactionPool{
		ordering: ordering,
		txs:      make(map[TxID]*PendingTransaction),
		feed:     NewFeed(feedBacklog),
	}
}

// Add inserts tx into the pool, ranked against baseFee, and publishes it to
// any attached late-arrival subscribers. Add replaces any existing
// transaction with the same (sender, nonce).
func (p *TransactionPool) Add(tx Transaction, baseFee *uint256.Int) *PendingTransaction {
	p.mu.Lock()
	defer p.mu.Unlock()
	pending := &PendingTransaction{Tx: tx, Priority: p.ordering.Priority(tx, baseFee)}
	p.txs[pending.ID()] = pending
	p.feed.Send(pending)
	return pending
}

// Remove drops the transaction with the given id, if present.
func (p *TransactionPool) Remove(id TxID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.txs, id)
}

// Len reports the number of transactions currently held.
func (p *TransactionPool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.txs)
}

// snapshot copies the pool's current transactions into a fresh Snapshot
// with a feed subscription attached.
func (p *TransactionPool) snapshot() *Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	txs := make([]*PendingTransaction, 0, len(p.txs))
	for _, tx := range p.txs {
		txs = append(txs, tx)
	}
	return NewSnapshot(txs).WithFeed(p.feed.Subscribe())
}

// BestWithAttributes implements Pool.
func (p *TransactionPool) BestWithAttributes(baseFee, baseFeePerBlobGas *uint256.Int) *BestWithFees {
	best := NewBestTransactions(p.snapshot())
	return NewBestTransactionsWithFees(best, baseFee, baseFeePerBlobGas)
}

var _ Pool = (*TransactionPool)(nil)
