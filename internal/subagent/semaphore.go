package subagent

import "context"

// semaphore is a channel-based counting semaphore for concurrency control.
type semaphore struct {
	ch chan struct{}
}

func newSemaphore(capacity int) *semaphore {
	if capacity <= 0 {
		capacity = 1
	}
	return &semaphore{ch: make(chan struct{}, capacity)}
}

// acquire blocks until a slot is free or ctx is done. No slot is held when it
// returns an error.
func (s *semaphore) acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case s.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// tryAcquire takes a slot only if one is free right now.
func (s *semaphore) tryAcquire() bool {
	select {
	case s.ch <- struct{}{}:
		return true
	default:
		return false
	}
}

// release frees a slot. Must only be called after a successful acquire.
func (s *semaphore) release() {
	<-s.ch
}

// available returns the number of free slots.
func (s *semaphore) available() int {
	return cap(s.ch) - len(s.ch)
}
