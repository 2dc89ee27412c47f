// Copyright 2026 The Go DDP Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package ddp

import json "github.com/segmentio/encoding/json"

// EJson is an opaque server-side value: an object, array, primitive, or
// typed EJSON literal. The core never interprets it beyond forwarding
// references (spec.md §1, §3) — callers are responsible for their own
// EJSON decoding of method params and results.
type EJson = json.RawMessage

// Completion is invoked exactly once when a method call completes.
// Exactly one of result or methodErr is non-nil: result on success,
// methodErr on a method-level error reply (spec.md §3 PendingMethod,
// §7 "method-level error payloads are delivered as Err(ejson)").
type Completion func(result, methodErr EJson)

// ReadyCompletion is invoked exactly once when a subscription resolves:
// ok is true and err is nil on ready, ok is false and err holds the
// server's error payload on nosub (spec.md §3 PendingSubscription).
type ReadyCompletion func(ok bool, err EJson)

// AddedListener is notified when a document is added to a collection.
type AddedListener func(id string, fields EJson)

// ChangedListener is notified when a document in a collection changes.
type ChangedListener func(id string, fields EJson, cleared []string)

// RemovedListener is notified when a document is removed from a collection.
type RemovedListener func(id string)
