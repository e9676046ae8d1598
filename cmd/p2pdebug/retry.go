package main

import (
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/log"
)

// constantRetryInterval is the delay between retry attempts; the original
// command from which this one is adapted uses a constant backoff rather
// than an exponential one, since a P2P debug session is interactive and a
// long exponential tail would make a hung peer look like a hang in this
// tool.
const constantRetryInterval = 500 * time.Millisecond

// withRetries wraps op with a constant backoff of at most retries attempts,
// mirroring the original command's "retries.max(1)" floor: a caller asking
// for zero or negative retries still gets one attempt.
func withRetries(retries int, op func() error) error {
	if retries < 1 {
		retries = 1
	}
	b := backoff.WithMaxRetries(backoff.NewConstantBackOff(constantRetryInterval), uint64(retries-1))
	return backoff.RetryNotify(op, b, func(err error, wait time.Duration) {
		log.Warn("p2pdebug request failed, retrying", "err", err, "wait", wait)
	})
}
