// Copyright 2026 The Go DDP Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package ddp

import (
	"context"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestOutboundQueueFIFO(t *testing.T) {
	q := newOutboundQueue(nil)
	q.push("a")
	q.push("b")
	q.push("c")

	for _, want := range []string{"a", "b", "c"} {
		got, ok := q.pop(context.Background())
		if !ok {
			t.Fatalf("pop() ok = false, want true")
		}
		if got != want {
			t.Errorf("pop() = %q, want %q", got, want)
		}
	}
}

func TestOutboundQueuePopBlocksUntilPush(t *testing.T) {
	q := newOutboundQueue(nil)
	done := make(chan string, 1)
	go func() {
		frame, ok := q.pop(context.Background())
		if !ok {
			done <- "<closed>"
			return
		}
		done <- frame
	}()

	select {
	case <-done:
		t.Fatal("pop returned before any frame was pushed")
	case <-time.After(50 * time.Millisecond):
	}

	q.push("late")
	select {
	case got := <-done:
		if got != "late" {
			t.Errorf("pop() = %q, want late", got)
		}
	case <-time.After(time.Second):
		t.Fatal("pop never returned after push")
	}
}

func TestOutboundQueueCloseWakesBlockedPop(t *testing.T) {
	q := newOutboundQueue(nil)
	done := make(chan bool, 1)
	go func() {
		_, ok := q.pop(context.Background())
		done <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	q.close()

	select {
	case ok := <-done:
		if ok {
			t.Error("pop() ok = true after close, want false")
		}
	case <-time.After(time.Second):
		t.Fatal("pop never returned after close")
	}
}

func TestOutboundQueuePushAfterCloseIsNoOp(t *testing.T) {
	q := newOutboundQueue(nil)
	q.close()
	q.push("dropped")

	_, ok := q.pop(context.Background())
	if ok {
		t.Error("pop() ok = true for queue pushed to after close, want false")
	}
}

func TestOutboundQueuePushNeverBlocksOnLimiter(t *testing.T) {
	// A limiter that would stall pop should not stop push from
	// returning immediately: backpressure applies only to the
	// consumer, never the producer (spec.md §5).
	limiter := rate.NewLimiter(rate.Limit(0.001), 1)
	q := newOutboundQueue(limiter)

	done := make(chan struct{})
	go func() {
		q.push("first")
		q.push("second")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("push blocked despite a throttling limiter")
	}
}

func TestOutboundQueuePopHonorsLimiter(t *testing.T) {
	limiter := rate.NewLimiter(rate.Limit(0.001), 1)
	q := newOutboundQueue(limiter)
	q.push("a")
	q.push("b")

	if _, ok := q.pop(context.Background()); !ok {
		t.Fatal("first pop should consume the limiter's initial burst token")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, ok := q.pop(ctx); ok {
		t.Error("second pop should have been throttled by the limiter and cancelled by ctx")
	}
}
