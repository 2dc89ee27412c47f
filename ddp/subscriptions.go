// Copyright 2026 The Go DDP Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package ddp

import "sync"

// subscriptionRegistry maps a pending subscription CorrelationId to the
// ReadyCompletions waiting on it (spec.md §4.6). The "slot" a caller
// passes to allocate/subscribe/addReadyListener/unsubscribe is the
// *string field a CollectionHandle holds as its current subscription
// id; every mutation of that field is serialized through this
// registry's mutex, so collections never need a lock of their own for
// it.
type subscriptionRegistry struct {
	mu      sync.Mutex
	pending map[string][]ReadyCompletion
	closed  bool

	queue *outboundQueue
}

func newSubscriptionRegistry(queue *outboundQueue) *subscriptionRegistry {
	return &subscriptionRegistry{
		pending: make(map[string][]ReadyCompletion),
		queue:   queue,
	}
}

// allocate returns the id already in *slot, or creates one and writes
// it back, creating an empty callback entry for it.
func (r *subscriptionRegistry) allocate(slot *string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if *slot == "" {
		id := newCorrelationID()
		*slot = id
		r.pending[id] = nil
	}
	return *slot
}

func (r *subscriptionRegistry) send(env *envelope) error {
	frame, err := encodeEnvelope(env)
	if err != nil {
		return err
	}
	r.queue.push(frame)
	return nil
}

// subscribe allocates *slot if empty and emits a sub frame for name
// (spec.md §4.6 subscribe(name, slot)).
func (r *subscriptionRegistry) subscribe(name string, params []EJson, slot *string) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	id := r.allocate(slot)
	return r.send(&envelope{Msg: "sub", ID: id, Name: name, Params: params})
}

// unsubscribe emits an unsub frame for *slot's current id, then clears
// the slot (spec.md §4.7: "on unsubscribe, clear the slot"). The
// registry entry itself is left for the eventual nosub to clean up
// (spec.md §4.6).
func (r *subscriptionRegistry) unsubscribe(slot *string) error {
	r.mu.Lock()
	id := *slot
	*slot = ""
	closed := r.closed
	r.mu.Unlock()

	if id == "" || closed {
		return nil
	}
	return r.send(&envelope{Msg: "unsub", ID: id})
}

// addReadyListener allocates *slot if empty and appends f to its
// callback list (spec.md §4.6 add_ready_listener).
func (r *subscriptionRegistry) addReadyListener(slot *string, f ReadyCompletion) {
	id := r.allocate(slot)
	r.mu.Lock()
	if !r.closed {
		r.pending[id] = append(r.pending[id], f)
	}
	r.mu.Unlock()
}

// resolve removes id's callback list and invokes each one exactly once
// with the given outcome (spec.md §4.6 resolve). A ready frame naming
// several ids resolves each independently by calling resolve once per
// id.
func (r *subscriptionRegistry) resolve(id string, ok bool, subErr EJson) {
	r.mu.Lock()
	cbs, found := r.pending[id]
	if found {
		delete(r.pending, id)
	}
	r.mu.Unlock()

	if !found {
		// SPEC_FULL.md Open Question #2: nosub without a prior sub is
		// ignored defensively.
		return
	}
	for _, cb := range cbs {
		if cb != nil {
			cb(ok, subErr)
		}
	}
}

// abandon drops every pending subscription without resolving it and
// marks the registry closed (mirrors methodRegistry.abandon).
func (r *subscriptionRegistry) abandon() {
	r.mu.Lock()
	r.closed = true
	r.pending = make(map[string][]ReadyCompletion)
	r.mu.Unlock()
}
