// Copyright 2026 The Go DDP Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package ddp

import (
	"context"
	"errors"
)

// decisiveKind is the outcome of awaitReply: either a session was
// granted, or the server rejected the proposed version (spec.md §4.2).
type decisiveKind int

const (
	decisiveConnected decisiveKind = iota
	decisiveFailed
)

// negotiate drives the SendConnect -> AwaitReply -> {Connected |
// Renegotiate | Fatal} state machine of spec.md §4.2, dialing dial
// fresh for every attempt (SPEC_FULL.md §4: "per-attempt version index
// tracking"). It returns the live carrier from the winning attempt,
// along with the session id and accepted version.
func negotiate(ctx context.Context, dial Dialer, versions []string) (Carrier, string, string, error) {
	if len(versions) == 0 {
		return nil, "", "", &OpenError{Kind: ErrNoMatchingVersion, Err: errors.New("no supported versions configured")}
	}

	vIndex := 0
	maxAttempts := len(versions) + 1 // spec.md §8 property 4
	for attempt := 0; ; attempt++ {
		if attempt >= maxAttempts {
			return nil, "", "", &OpenError{Kind: ErrMalformedPacket, Err: errors.New("version negotiation did not terminate within bound")}
		}

		carrier, err := dial(ctx)
		if err != nil {
			return nil, "", "", &OpenError{Kind: ErrNetwork, Err: err}
		}

		connectFrame, err := encodeEnvelope(&envelope{
			Msg:     "connect",
			Version: versions[vIndex],
			Support: versions,
		})
		if err != nil {
			carrier.Close()
			return nil, "", "", err
		}

		if err := carrier.WriteText(ctx, connectFrame); err != nil {
			carrier.Close()
			return nil, "", "", &OpenError{Kind: ErrNetwork, Err: err}
		}

		sessionID, failedVersion, kind, err := awaitReply(ctx, carrier)
		if err != nil {
			carrier.Close()
			return nil, "", "", err
		}

		if kind == decisiveConnected {
			return carrier, sessionID, versions[vIndex], nil
		}

		// decisiveFailed: the server proposed failedVersion. Locate it
		// by linear scan, preserving the list's index as the next
		// attempt's accepted slot (spec.md §4.2 step 2).
		carrier.Close()
		found := -1
		for i, v := range versions {
			if v == failedVersion {
				found = i
				break
			}
		}
		if found < 0 {
			return nil, "", "", &OpenError{Kind: ErrNoMatchingVersion}
		}
		vIndex = found
	}
}

// awaitReply reads frames from carrier until a decisive connected or
// failed reply arrives, ignoring legacy server_id preambles and any
// other frame in between (spec.md §4.2 step 2). A carrier read error,
// including a clean close, surfaces as MalformedPacket (step 3).
func awaitReply(ctx context.Context, carrier Carrier) (sessionID, failedVersion string, kind decisiveKind, err error) {
	for {
		frame, rerr := carrier.ReadText(ctx)
		if rerr != nil {
			return "", "", 0, &OpenError{Kind: ErrMalformedPacket, Err: rerr}
		}
		env, ok := decodeEnvelope(frame)
		if !ok {
			continue
		}
		if env.ServerID != nil {
			continue
		}
		switch env.Msg {
		case "connected":
			return env.Session, "", decisiveConnected, nil
		case "failed":
			return "", env.Version, decisiveFailed, nil
		default:
			continue
		}
	}
}
