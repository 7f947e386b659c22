//go:build !gpiocmd_poll

package queue

import "context"

// waiter parks the consumer on a single-slot edge channel. notify never
// blocks: a pending wake-up absorbs further ones.
type waiter struct {
	wakeUpCh chan struct{}
}

func newWaiter() waiter {
	return waiter{wakeUpCh: make(chan struct{}, 1)}
}

func (w waiter) notify() {
	select {
	case w.wakeUpCh <- struct{}{}:
	default:
	}
}

func (w waiter) wait(ctx context.Context) error {
	select {
	case <-w.wakeUpCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
