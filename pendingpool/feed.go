package pendingpool

import "sync"

// RecvStatus is the outcome of a Subscription.TryRecv call.
type RecvStatus int

const (
	// RecvOK means a transaction was returned.
	RecvOK RecvStatus = iota
	// RecvEmpty means no new transaction has arrived since the last call.
	RecvEmpty
	// RecvLagged means the subscriber fell behind the feed's ring buffer
	// and some transactions were dropped without being delivered; the
	// subscriber has been fast-forwarded to the oldest transaction still
	// buffered and should call TryRecv again.
	RecvLagged
	// RecvClosed means the feed is closed and fully drained.
	RecvClosed
)

// Feed is a single-producer, multi-consumer fanout of newly arriving
// pending transactions, modeled on a broadcast channel with bounded
// backlog: a slow subscriber does not block the producer or other
// subscribers, it instead observes RecvLagged and resumes from the oldest
// transaction still retained. This has no direct analog among this
// module's third-party dependencies; it is deliberately a small, self-
// contained ring buffer rather than a general message-bus dependency.
type Feed struct {
	mu       sync.Mutex
	buf      []*PendingTransaction
	seqBase  uint64
	capacity int
	closed   bool
}

// NewFeed returns a Feed retaining at most capacity recent transactions
// for lagging subscribers.
func NewFeed(capacity int) *Feed {
	if capacity < 1 {
		capacity = 1
	}
	return &Feed{capacity: capacity}
}

// Send publishes tx to all current and future subscribers.
func (f *Feed) Send(tx *PendingTransaction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.buf = append(f.buf, tx)
	if over := len(f.buf) - f.capacity; over > 0 {
		f.buf = f.buf[over:]
		f.seqBase += uint64(over)
	}
}

// Close marks the feed closed; subscribers drain remaining buffered
// transactions and then observe RecvClosed.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

// Subscribe returns a Subscription that observes transactions sent from
// this point forward.
func (f *Feed) Subscribe() *Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &Subscription{feed: f, next: f.seqBase + uint64(len(f.buf))}
}

// Subscription is one consumer's read cursor over a Feed.
type Subscription struct {
	feed *Feed
	next uint64
}

// TryRecv returns the next transaction without blocking. On RecvLagged the
// subscription has been fast-forwarded and the caller should call TryRecv
// again to continue draining.
func (s *Subscription) TryRecv() (*PendingTransaction, RecvStatus) {
	f := s.feed
	f.mu.Lock()
	defer f.mu.Unlock()

	if s.next < f.seqBase {
		s.next = f.seqBase
		return nil, RecvLagged
	}
	idx := s.next - f.seqBase
	if idx >= uint64(len(f.buf)) {
		if f.closed {
			return nil, RecvClosed
		}
		return nil, RecvEmpty
	}
	tx := f.buf[idx]
	s.next++
	return tx, RecvOK
}
