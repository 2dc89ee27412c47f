// Copyright 2026 The Go DDP Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package ddp

import "fmt"

// ErrorKind distinguishes the four ways Open can fail (spec.md §7).
type ErrorKind int

const (
	// ErrUrlIsNotWebsocket means the given URL's scheme was not "ws" or "wss".
	ErrUrlIsNotWebsocket ErrorKind = iota
	// ErrNetwork means the underlying carrier failed during the handshake.
	ErrNetwork
	// ErrNoMatchingVersion means the server proposed a version not in our supported list.
	ErrNoMatchingVersion
	// ErrMalformedPacket means the stream ended before a decisive negotiation reply arrived.
	ErrMalformedPacket
)

func (k ErrorKind) String() string {
	switch k {
	case ErrUrlIsNotWebsocket:
		return "url is not a websocket url"
	case ErrNetwork:
		return "network error"
	case ErrNoMatchingVersion:
		return "no matching protocol version"
	case ErrMalformedPacket:
		return "malformed packet"
	default:
		return "unknown ddp error"
	}
}

// OpenError is returned by Open when the handshake or version
// negotiation fails. Post-open, there is no analogous user-visible
// error channel (spec.md §7) — transport failures instead end the
// session's pumps and fire its teardown hook.
type OpenError struct {
	Kind ErrorKind
	Err  error
}

func (e *OpenError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ddp: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("ddp: %s", e.Kind)
}

func (e *OpenError) Unwrap() error { return e.Err }
