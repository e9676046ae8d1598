package pendingpool

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/btree"
)

const btreeDegree = 32

// Snapshot is the point-in-time state a BestTransactions walk iterates
// over: every known pending transaction (all), the subset currently
// eligible to be yielded because its nonce predecessor has already been
// included or does not exist (independent), and transactions the caller
// has flagged as invalid mid-walk.
//
// A Snapshot is built once by copying the pool's current transactions; it
// does not observe later pool insertions except through an attached Feed.
type Snapshot struct {
	all        map[TxID]*PendingTransaction
	independent *btree.BTreeG[*PendingTransaction]
	invalid    mapset.Set[common.Hash]
	feed       *Subscription
}

// NewSnapshot builds a Snapshot from txs: for each sender, the
// lowest-nonce transaction is immediately independent (eligible); the rest
// wait in all until their predecessor is yielded.
func NewSnapshot(txs []*PendingTransaction) *Snapshot {
	s := &Snapshot{
		all:        make(map[TxID]*PendingTransaction, len(txs)),
		independent: btree.NewG(btreeDegree, less),
		invalid:    mapset.NewThreadUnsafeSet[common.Hash](),
	}
	lowest := make(map[common.Address]uint64)
	hasLowest := make(map[common.Address]bool)
	for _, tx := range txs {
		id := tx.ID()
		s.all[id] = tx
		sender := id.Sender
		if !hasLowest[sender] || id.Nonce < lowest[sender] {
			lowest[sender] = id.Nonce
			hasLowest[sender] = true
		}
	}
	for sender, nonce := range lowest {
		if tx, ok := s.all[TxID{Sender: sender, Nonce: nonce}]; ok {
			s.independent.ReplaceOrInsert(tx)
		}
	}
	MetricsSnapshotSizes(len(s.all), s.independent.Len(), s.invalid.Cardinality())
	return s
}

// WithFeed attaches a late-arrival subscription: at the start of every
// Next call, the walk drains newly arriving transactions from feed into the
// snapshot before picking the next transaction.
func (s *Snapshot) WithFeed(feed *Subscription) *Snapshot {
	s.feed = feed
	return s
}
