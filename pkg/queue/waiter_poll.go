//go:build gpiocmd_poll

package queue

import (
	"context"
	"runtime"
)

// waiter spins on the ring; producers have nothing to signal.
type waiter struct{}

func newWaiter() waiter { return waiter{} }

func (waiter) notify() {}

func (waiter) wait(ctx context.Context) error {
	runtime.Gosched()
	return ctx.Err()
}
