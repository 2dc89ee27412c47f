// Copyright 2026 The Go DDP Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package ddp

import "context"

// Carrier is the duplex text-frame transport consumed by the protocol
// engine. It is the sole external collaborator spec.md §1 scopes out of
// this package: the core sends and interprets only text frames (§6),
// and never constructs a Carrier itself. See package ddpws for a
// WebSocket-backed implementation.
type Carrier interface {
	// ReadText blocks for the next text frame. It returns io.EOF (or a
	// wrapped error containing it) when the carrier is exhausted.
	ReadText(ctx context.Context) (string, error)

	// WriteText sends one text frame. Carriers must serialize
	// concurrent Write calls themselves; the write pump never calls
	// WriteText concurrently with itself, but Close may race it.
	WriteText(ctx context.Context, frame string) error

	// Close releases the carrier's resources. Safe to call more than
	// once and concurrently with an in-flight Read or Write.
	Close() error
}

// Dialer opens a fresh Carrier for one handshake/negotiation attempt
// (spec.md §4.2). It is invoked once per attempt: a "failed" reply
// closes the current carrier and calls Dialer again for the next
// candidate version, following the behavior of the original rust
// client (see SPEC_FULL.md §4, "per-attempt version index tracking").
type Dialer func(ctx context.Context) (Carrier, error)
