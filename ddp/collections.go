// Copyright 2026 The Go DDP Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package ddp

import (
	"fmt"
	"sync"
)

// ListenerKind distinguishes the three listener tables a CollectionHandle
// keeps (spec.md §3 ListenerId).
type ListenerKind int

const (
	ListenerAdded ListenerKind = iota
	ListenerChanged
	ListenerRemoved
)

// ListenerID identifies a registered listener so it can later be
// removed with CollectionHandle.Clear. Preserving the source's
// "duplicate registrations allowed" behavior (SPEC_FULL.md Open
// Question #3), registering the same callback twice yields two
// distinct ListenerIDs.
type ListenerID struct {
	Kind ListenerKind
	seq  uint64
}

// CollectionHandle is the shared, per-name handle spec.md §3/§4.7
// describes: one instance per collection name across the client,
// holding three listener tables, an optional current subscription slot,
// and a monotonic counter for allocating listener ids.
type CollectionHandle struct {
	name string

	mu      sync.Mutex
	added   map[uint64]AddedListener
	changed map[uint64]ChangedListener
	removed map[uint64]RemovedListener
	nextID  uint64

	subID string // guarded by subs' mutex, not mu; see subscriptionRegistry

	methods *methodRegistry
	subs    *subscriptionRegistry
}

func newCollectionHandle(name string, methods *methodRegistry, subs *subscriptionRegistry) *CollectionHandle {
	return &CollectionHandle{
		name:    name,
		added:   make(map[uint64]AddedListener),
		changed: make(map[uint64]ChangedListener),
		removed: make(map[uint64]RemovedListener),
		methods: methods,
		subs:    subs,
	}
}

// Name returns the collection's name.
func (c *CollectionHandle) Name() string { return c.name }

// OnAdd registers a listener for added documents and returns an id that
// can later be passed to Clear.
func (c *CollectionHandle) OnAdd(f AddedListener) ListenerID {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := c.nextID
	c.added[id] = f
	return ListenerID{Kind: ListenerAdded, seq: id}
}

// OnChange registers a listener for changed documents.
func (c *CollectionHandle) OnChange(f ChangedListener) ListenerID {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := c.nextID
	c.changed[id] = f
	return ListenerID{Kind: ListenerChanged, seq: id}
}

// OnRemove registers a listener for removed documents.
func (c *CollectionHandle) OnRemove(f RemovedListener) ListenerID {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := c.nextID
	c.removed[id] = f
	return ListenerID{Kind: ListenerRemoved, seq: id}
}

// OnReady registers f against this collection's current subscription
// slot, allocating one if Subscribe hasn't been called yet (spec.md
// §4.7 on_ready).
func (c *CollectionHandle) OnReady(f ReadyCompletion) {
	c.subs.addReadyListener(&c.subID, f)
}

// Clear removes the listener identified by id. A dispatch already in
// progress when Clear is called may still observe the removed
// listener; any dispatch that begins after Clear returns will not
// (spec.md §8 property 6).
func (c *CollectionHandle) Clear(id ListenerID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch id.Kind {
	case ListenerAdded:
		delete(c.added, id.seq)
	case ListenerChanged:
		delete(c.changed, id.seq)
	case ListenerRemoved:
		delete(c.removed, id.seq)
	}
}

// Subscribe sends a sub request for this collection, allocating a
// subscription slot if one doesn't already exist.
func (c *CollectionHandle) Subscribe(params ...EJson) error {
	return c.subs.subscribe(c.name, params, &c.subID)
}

// Unsubscribe sends an unsub request for the current subscription and
// clears the slot.
func (c *CollectionHandle) Unsubscribe() error {
	return c.subs.unsubscribe(&c.subID)
}

// Insert calls the conventional "/name/insert" remote method.
func (c *CollectionHandle) Insert(doc EJson, cb Completion) error {
	_, err := c.methods.send(fmt.Sprintf("/%s/insert", c.name), []EJson{doc}, cb)
	return err
}

// Update calls the conventional "/name/update" remote method.
func (c *CollectionHandle) Update(selector, modifier EJson, cb Completion) error {
	_, err := c.methods.send(fmt.Sprintf("/%s/update", c.name), []EJson{selector, modifier}, cb)
	return err
}

// Upsert calls the conventional "/name/upsert" remote method.
func (c *CollectionHandle) Upsert(selector, modifier EJson, cb Completion) error {
	_, err := c.methods.send(fmt.Sprintf("/%s/upsert", c.name), []EJson{selector, modifier}, cb)
	return err
}

// Remove calls the conventional "/name/remove" remote method.
func (c *CollectionHandle) Remove(selector EJson, cb Completion) error {
	_, err := c.methods.send(fmt.Sprintf("/%s/remove", c.name), []EJson{selector}, cb)
	return err
}

func (c *CollectionHandle) fireAdded(id string, fields EJson) {
	c.mu.Lock()
	snapshot := make([]AddedListener, 0, len(c.added))
	for _, f := range c.added {
		snapshot = append(snapshot, f)
	}
	c.mu.Unlock()
	for _, f := range snapshot {
		f(id, fields)
	}
}

func (c *CollectionHandle) fireChanged(id string, fields EJson, cleared []string) {
	c.mu.Lock()
	snapshot := make([]ChangedListener, 0, len(c.changed))
	for _, f := range c.changed {
		snapshot = append(snapshot, f)
	}
	c.mu.Unlock()
	for _, f := range snapshot {
		f(id, fields, cleared)
	}
}

func (c *CollectionHandle) fireRemoved(id string) {
	c.mu.Lock()
	snapshot := make([]RemovedListener, 0, len(c.removed))
	for _, f := range c.removed {
		snapshot = append(snapshot, f)
	}
	c.mu.Unlock()
	for _, f := range snapshot {
		f(id)
	}
}

// collectionRegistry maps collection name to CollectionHandle, creating
// handles lazily on first lookup (spec.md §3 invariant) and dispatching
// data notifications to them by name. Unknown collection names on
// added/changed/removed are silently dropped (spec.md §4.3).
type collectionRegistry struct {
	mu     sync.Mutex
	byName map[string]*CollectionHandle

	methods *methodRegistry
	subs    *subscriptionRegistry
}

func newCollectionRegistry(methods *methodRegistry, subs *subscriptionRegistry) *collectionRegistry {
	return &collectionRegistry{
		byName:  make(map[string]*CollectionHandle),
		methods: methods,
		subs:    subs,
	}
}

// get returns the handle for name, creating it if this is the first
// lookup. Two calls with the same name always return the same handle
// (spec.md §8 property 5).
func (r *collectionRegistry) get(name string) *CollectionHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.byName[name]
	if !ok {
		h = newCollectionHandle(name, r.methods, r.subs)
		r.byName[name] = h
	}
	return h
}

func (r *collectionRegistry) lookup(name string) (*CollectionHandle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.byName[name]
	return h, ok
}

func (r *collectionRegistry) dispatchAdded(name, id string, fields EJson) {
	if h, ok := r.lookup(name); ok {
		h.fireAdded(id, fields)
	}
}

func (r *collectionRegistry) dispatchChanged(name, id string, fields EJson, cleared []string) {
	if h, ok := r.lookup(name); ok {
		h.fireChanged(id, fields, cleared)
	}
}

func (r *collectionRegistry) dispatchRemoved(name, id string) {
	if h, ok := r.lookup(name); ok {
		h.fireRemoved(id)
	}
}
