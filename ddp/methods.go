// Copyright 2026 The Go DDP Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package ddp

import "sync"

// methodRegistry maps a pending method CorrelationId to the Completion
// that should fire when its "result" frame arrives (spec.md §4.5). One
// instance is owned per Session and shared with every CollectionHandle
// for the CRUD helper methods.
type methodRegistry struct {
	mu      sync.Mutex
	pending map[string]Completion
	closed  bool

	queue *outboundQueue
}

func newMethodRegistry(queue *outboundQueue) *methodRegistry {
	return &methodRegistry{
		pending: make(map[string]Completion),
		queue:   queue,
	}
}

// send allocates an id, records cb against it, and enqueues the method
// frame. The id is recorded before the frame is handed to the write
// pump, closing the race with an immediate result (spec.md §4.5 step
// 3). If the registry has already been abandoned (the carrier died),
// cb is silently dropped and no frame is sent.
func (r *methodRegistry) send(method string, params []EJson, cb Completion) (string, error) {
	id := newCorrelationID()
	frame, err := encodeEnvelope(&envelope{
		Msg:    "method",
		Method: method,
		Params: params,
		ID:     id,
	})
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return id, nil
	}
	r.pending[id] = cb
	r.mu.Unlock()

	r.queue.push(frame)
	return id, nil
}

// apply resolves id with the given result/error exactly once, then
// removes it from the table. result and methodErr should be treated as
// Ok(result) xor Err(methodErr), per the "result" dispatch rule in
// spec.md §4.3.
func (r *methodRegistry) apply(id string, result, methodErr EJson) {
	r.mu.Lock()
	cb, ok := r.pending[id]
	if ok {
		delete(r.pending, id)
	}
	r.mu.Unlock()

	if ok && cb != nil {
		cb(result, methodErr)
	}
}

// abandon drops every pending completion without invoking it and marks
// the registry closed, so that any later send is a silent no-op
// (spec.md §7: outstanding completions are abandoned, not invoked with
// an error, when the carrier dies).
func (r *methodRegistry) abandon() {
	r.mu.Lock()
	r.closed = true
	r.pending = make(map[string]Completion)
	r.mu.Unlock()
}
