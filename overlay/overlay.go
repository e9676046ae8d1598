package overlay

import "github.com/ethereum/go-ethereum/common"

// Overlay is a read-only state view over a chain of in-memory ExecutedBlocks
// (oldest to newest) with a HistoricalProvider fallback. Every read scans
// the in-memory list newest-first and returns on the first hit; a miss
// delegates to the historical provider. The zero value is not usable; use
// New.
type Overlay struct {
	inMemory   []ExecutedBlock
	historical HistoricalProvider
}

// New returns an Overlay over historical, with inMemory ordered oldest to
// newest (as produced incrementally by successive block builds).
func New(historical HistoricalProvider, inMemory []ExecutedBlock) *Overlay {
	return &Overlay{inMemory: inMemory, historical: historical}
}

// Depth reports how many in-memory blocks the overlay currently holds.
func (o *Overlay) Depth() int { return len(o.inMemory) }

// WithBlock returns a new Overlay with block appended as the newest entry.
// The receiver is left unmodified.
func (o *Overlay) WithBlock(block ExecutedBlock) *Overlay {
	next := make([]ExecutedBlock, len(o.inMemory), len(o.inMemory)+1)
	copy(next, o.inMemory)
	next = append(next, block)
	return &Overlay{inMemory: next, historical: o.historical}
}

// newestFirst iterates the in-memory list from newest to oldest.
func (o *Overlay) newestFirst(fn func(b *ExecutedBlock) bool) {
	for i := len(o.inMemory) - 1; i >= 0; i-- {
		if !fn(&o.inMemory[i]) {
			return
		}
	}
}

// BlockHash implements HistoricalProvider's read contract: scan in-memory
// newest-first for a block numbered n; else delegate.
func (o *Overlay) BlockHash(n uint64) (common.Hash, error) {
	var found common.Hash
	o.newestFirst(func(b *ExecutedBlock) bool {
		if b.Number == n {
			found = b.Hash
			return false
		}
		return true
	})
	if found != (common.Hash{}) {
		return found, nil
	}
	return o.historical.BlockHash(n)
}

// BasicAccount scans in-memory bundles newest-first for a recorded account
// diff at addr; the first hit wins, including tombstones (deleted
// accounts), before falling back to historical.
func (o *Overlay) BasicAccount(addr common.Address) (*Account, error) {
	var (
		acc *Account
		hit bool
	)
	o.newestFirst(func(b *ExecutedBlock) bool {
		if a, ok := b.Bundle.Account(addr); ok {
			acc, hit = a, true
			return false
		}
		return true
	})
	if hit {
		if acc != nil && acc.Deleted {
			return nil, nil
		}
		return acc.Copy(), nil
	}
	return o.historical.BasicAccount(addr)
}

// Storage scans in-memory bundles newest-first for a recorded value at
// (addr, slot); the first hit wins, else delegates to historical.
func (o *Overlay) Storage(addr common.Address, slot common.Hash) (common.Hash, error) {
	var (
		value common.Hash
		hit   bool
	)
	o.newestFirst(func(b *ExecutedBlock) bool {
		if v, ok := b.Bundle.StorageValue(addr, slot); ok {
			value, hit = v, true
			return false
		}
		return true
	})
	if hit {
		return value, nil
	}
	return o.historical.Storage(addr, slot)
}

// BytecodeByHash scans in-memory bundles newest-first for code at hash;
// the first hit wins, else delegates to historical.
func (o *Overlay) BytecodeByHash(hash common.Hash) ([]byte, error) {
	var (
		code []byte
		hit  bool
	)
	o.newestFirst(func(b *ExecutedBlock) bool {
		if c, ok := b.Bundle.Bytecode(hash); ok {
			code, hit = c, true
			return false
		}
		return true
	})
	if hit {
		return code, nil
	}
	return o.historical.BytecodeByHash(hash)
}

// CanonicalHashesRange computes in-memory contributions for block numbers
// in [start, end) first (collected newest-first but returned oldest-first),
// then queries historical for [start, earliestInMemoryNumber) — or the
// full range if no in-memory block matched — and concatenates
// historical++inMemory.
func (o *Overlay) CanonicalHashesRange(start, end uint64) ([]common.Hash, error) {
	var (
		inMemoryHashes []common.Hash
		earliest       uint64
		sawAny         bool
	)
	o.newestFirst(func(b *ExecutedBlock) bool {
		if b.Number >= start && b.Number < end {
			inMemoryHashes = append([]common.Hash{b.Hash}, inMemoryHashes...)
			earliest = b.Number
			sawAny = true
		}
		return true
	})
	historicalEnd := end
	if sawAny {
		historicalEnd = earliest
	}
	hashes, err := o.historical.CanonicalHashesRange(start, historicalEnd)
	if err != nil {
		return nil, err
	}
	return append(hashes, inMemoryHashes...), nil
}

// StateRoot delegates to the historical provider's reconciliation pathway
// when the overlay is empty; a non-empty overlay is an explicit
// out-of-contract case (see ErrUnsupported).
func (o *Overlay) StateRoot(bundle *BundleState) (common.Hash, error) {
	if o.Depth() > 0 {
		return common.Hash{}, ErrUnsupported
	}
	return o.historical.StateRoot(bundle)
}

// Proof delegates to the historical provider when the overlay is empty;
// see StateRoot.
func (o *Overlay) Proof(addr common.Address, slots []common.Hash) (*AccountProof, error) {
	if o.Depth() > 0 {
		return nil, ErrUnsupported
	}
	return o.historical.Proof(addr, slots)
}
