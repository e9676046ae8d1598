package builder

import (
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const pendingBlockTTL = time.Second

// cachedBlock is one published build result plus its validity window.
type cachedBlock struct {
	parentHash common.Hash
	number     uint64
	block      *types.Block
	receipts   types.Receipts
	expiresAt  time.Time
}

// PendingBlockCache holds the most recently built pending block, reused by
// callers that request a pending block within its TTL over the same
// parent. The critical section covers only the validity check and the
// publish step; building a block happens entirely outside the lock.
type PendingBlockCache struct {
	mu      sync.Mutex
	current *cachedBlock
	now     func() time.Time
}

// NewPendingBlockCache returns an empty cache.
func NewPendingBlockCache() *PendingBlockCache {
	return &PendingBlockCache{now: time.Now}
}

// Get returns the cached block if it was built over parentHash at number
// and has not yet expired.
func (c *PendingBlockCache) Get(parentHash common.Hash, number uint64) (*types.Block, types.Receipts, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur := c.current
	if cur == nil || cur.parentHash != parentHash || cur.number != number || c.now().After(cur.expiresAt) {
		return nil, nil, false
	}
	return cur.block, cur.receipts, true
}

// Publish stores block as the current cached build, valid for
// pendingBlockTTL from now.
func (c *PendingBlockCache) Publish(parentHash common.Hash, number uint64, block *types.Block, receipts types.Receipts) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = &cachedBlock{
		parentHash: parentHash,
		number:     number,
		block:      block,
		receipts:   receipts,
		expiresAt:  c.now().Add(pendingBlockTTL),
	}
}
