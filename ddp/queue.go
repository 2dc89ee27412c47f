// Copyright 2026 The Go DDP Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package ddp

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// outboundQueue is the single multi-producer, single-consumer queue the
// write pump drains (spec.md §4.4). It is unbounded by default, per
// spec.md §5 ("the core specifies unbounded by default"); an optional
// rate.Limiter throttles the consumer side without ever blocking a
// producer's push, so Call/Subscribe/etc. never wait on network
// backpressure (golang.org/x/time/rate, SPEC_FULL.md Domain Stack).
type outboundQueue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	items   []string
	closed  bool
	limiter *rate.Limiter
}

func newOutboundQueue(limiter *rate.Limiter) *outboundQueue {
	q := &outboundQueue{limiter: limiter}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push enqueues a frame. It is a no-op once the queue has been closed,
// matching the "drop the completion" resolution for calls that arrive
// after the carrier has died (SPEC_FULL.md Open Question #1).
func (q *outboundQueue) push(frame string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.items = append(q.items, frame)
	q.cond.Signal()
}

// pop blocks until a frame is available or the queue is closed. ok is
// false when the queue is closed and drained, or when the optional rate
// limiter's wait fails (e.g. ctx ends first), in which case the frame
// already dequeued is dropped. ctx cancellation only affects the
// limiter wait, not the wait for an item, since the write pump's
// context is the session's lifetime.
func (q *outboundQueue) pop(ctx context.Context) (frame string, ok bool) {
	q.mu.Lock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		q.mu.Unlock()
		return "", false
	}
	frame = q.items[0]
	q.items = q.items[1:]
	q.mu.Unlock()

	if q.limiter != nil {
		if err := q.limiter.Wait(ctx); err != nil {
			return "", false
		}
	}
	return frame, true
}

// close marks the queue closed and wakes any blocked pop. Already
// queued frames are discarded; they belong to a dead carrier.
func (q *outboundQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.items = nil
	q.cond.Broadcast()
	q.mu.Unlock()
}
