// Copyright 2026 The Go DDP Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package ddp

import (
	"context"
	"log/slog"
	"sync"
)

// teardownHook is the "carrier died" signal of spec.md §3: it fires at
// most once, from whichever of the read or write pump exits first.
type teardownHook struct {
	once sync.Once
	fn   func()
	done chan struct{}
}

func newTeardownHook(fn func()) *teardownHook {
	return &teardownHook{fn: fn, done: make(chan struct{})}
}

func (t *teardownHook) fire() {
	t.once.Do(func() {
		if t.fn != nil {
			t.fn()
		}
		close(t.done)
	})
}

func (t *teardownHook) wait() { <-t.done }

// runReadPump loops reading frames from carrier and dispatching them by
// msg kind (spec.md §4.3) until the carrier errors or closes.
func runReadPump(
	ctx context.Context,
	carrier Carrier,
	methods *methodRegistry,
	subs *subscriptionRegistry,
	collections *collectionRegistry,
	queue *outboundQueue,
	logger *slog.Logger,
) error {
	trace := traceFrames()
	for {
		frame, err := carrier.ReadText(ctx)
		if err != nil {
			return err
		}
		if trace {
			logger.Debug("ddp: recv", "frame", frame)
		}
		env, ok := decodeEnvelope(frame)
		if !ok {
			logger.Debug("ddp: dropped malformed frame")
			continue
		}
		dispatch(env, methods, subs, collections, queue, logger)
	}
}

// dispatch implements the msg-kind table of spec.md §4.3.
func dispatch(
	env *envelope,
	methods *methodRegistry,
	subs *subscriptionRegistry,
	collections *collectionRegistry,
	queue *outboundQueue,
	logger *slog.Logger,
) {
	switch env.Msg {
	case "ping":
		pong, err := encodeEnvelope(&envelope{Msg: "pong", ID: env.ID})
		if err != nil {
			logger.Debug("ddp: failed to encode pong", "error", err)
			return
		}
		queue.push(pong)

	case "pong":
		// ignored

	case "result":
		if (env.Result == nil) == (env.Error == nil) {
			logger.Debug("ddp: result frame must carry exactly one of result or error", "id", env.ID)
			return
		}
		methods.apply(env.ID, env.Result, env.Error)

	case "added":
		collections.dispatchAdded(env.Collection, env.ID, env.Fields)

	case "changed":
		collections.dispatchChanged(env.Collection, env.ID, env.Fields, env.Cleared)

	case "removed":
		collections.dispatchRemoved(env.Collection, env.ID)

	case "ready":
		for _, id := range env.Subs {
			subs.resolve(id, true, nil)
		}

	case "nosub":
		subs.resolve(env.ID, false, env.Error)

	default:
		// unknown msg kinds are ignored (spec.md §4.3)
	}
}

// runWritePump drains queue and writes each frame to carrier in order
// (spec.md §4.4). It returns nil when the queue is closed deliberately
// (session teardown already in progress) and the carrier's write error
// otherwise.
func runWritePump(ctx context.Context, carrier Carrier, queue *outboundQueue, logger *slog.Logger) error {
	trace := traceFrames()
	for {
		frame, ok := queue.pop(ctx)
		if !ok {
			return nil
		}
		if trace {
			logger.Debug("ddp: send", "frame", frame)
		}
		if err := carrier.WriteText(ctx, frame); err != nil {
			return err
		}
	}
}
