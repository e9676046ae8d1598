package pendingpool

import "github.com/ethereum/go-ethereum/common"

// BestTransactions walks a Snapshot yielding transactions in descending
// priority order, honoring per-sender nonce order: a transaction is only
// returned once its predecessor (same sender, nonce-1) has already been
// returned or was never part of the snapshot. A transaction already
// flagged invalid via MarkInvalid when it is popped is skipped outright,
// without ever unlocking its descendant, which starves the rest of that
// sender's queued chain for this walk — matching the pool's "don't build
// on top of something you've rejected" contract. A transaction skipped
// only because of SetSkipBlobs is marked invalid after its descendant has
// already been unlocked, so a blob budget cutoff does not strand the rest
// of that sender's chain.
//
// BestTransactions is not safe for concurrent use.
type BestTransactions struct {
	snap      *Snapshot
	skipBlobs bool
}

// NewBestTransactions returns an iterator over snap.
func NewBestTransactions(snap *Snapshot) *BestTransactions {
	return &BestTransactions{snap: snap}
}

// MarkInvalid flags the transaction with the given hash together with its
// queued descendants in the snapshot (same sender, consecutive higher
// nonces). None of them is yielded afterwards, including a descendant that
// was already unlocked because the transaction itself had been popped
// (e.g. by a fee-aware wrapper rejecting it after the fact).
func (b *BestTransactions) MarkInvalid(hash common.Hash) {
	b.snap.invalid.Add(hash)
	for id, tx := range b.snap.all {
		if tx.Tx.Hash() != hash {
			continue
		}
		for next, ok := b.snap.all[id.descendant()]; ok; next, ok = b.snap.all[next.ID().descendant()] {
			b.snap.invalid.Add(next.Tx.Hash())
		}
		return
	}
}

// NoUpdates detaches this iterator from its late-arrival feed: Next will
// only ever drain the snapshot taken at construction time.
func (b *BestTransactions) NoUpdates() {
	b.snap.feed = nil
}

// SetSkipBlobs controls whether blob-carrying transactions are skipped
// (and marked invalid) rather than yielded. The block builder sets this
// once the accumulated blob gas for the block reaches its budget.
func (b *BestTransactions) SetSkipBlobs(skip bool) {
	b.skipBlobs = skip
}

// drainFeed pulls any transactions newly visible on the attached feed into
// the snapshot's independent set. A transaction only becomes independent
// immediately on arrival if it has no recorded predecessor still pending;
// otherwise it waits in all for its predecessor to be yielded, exactly
// like a transaction present at construction time.
func (b *BestTransactions) drainFeed() {
	if b.snap.feed == nil {
		return
	}
	for {
		tx, status := b.snap.feed.TryRecv()
		switch status {
		case RecvOK:
			id := tx.ID()
			if _, exists := b.snap.all[id]; exists {
				continue
			}
			b.snap.all[id] = tx
			if ancestor, ok := id.ancestor(); ok {
				if _, pending := b.snap.all[ancestor]; pending {
					continue
				}
			}
			b.snap.independent.ReplaceOrInsert(tx)
		case RecvLagged:
			MetricsLagged()
			continue
		case RecvEmpty, RecvClosed:
			if status == RecvClosed {
				b.snap.feed = nil
			}
			return
		}
	}
}

// Next returns the next highest-priority eligible transaction, or nil when
// the walk is exhausted.
func (b *BestTransactions) Next() *PendingTransaction {
	for {
		b.drainFeed()
		if b.snap.independent.Len() == 0 {
			return nil
		}
		best, _ := b.snap.independent.DeleteMax()

		if b.snap.invalid.Contains(best.Tx.Hash()) {
			continue
		}

		if next, ok := b.snap.all[best.ID().descendant()]; ok {
			b.snap.independent.ReplaceOrInsert(next)
			MetricsUnlock()
		}

		if b.skipBlobs && best.Tx.IsBlob() {
			b.snap.invalid.Add(best.Tx.Hash())
			continue
		}
		return best
	}
}
