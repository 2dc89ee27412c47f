// Copyright 2026 The Go DDP Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package ddpws provides a WebSocket-backed ddp.Carrier, the transport
// spec.md §1 names as an external collaborator. It is adapted from the
// teacher's WebSocketClientTransport/websocketConn (mcp/websocket.go),
// generalized from framing jsonrpc.Message values to framing the raw
// DDP envelope text ddp.Carrier already expects.
package ddpws

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nrigo/go-ddp/ddp"
)

// Dialer builds a ddp.Dialer bound to a fixed WebSocket URL. Each call
// to Dial opens a fresh connection: spec.md's negotiation state machine
// (§4.2) and SPEC_FULL.md's "per-attempt version index tracking"
// supplement both call the dialer once per handshake attempt.
type Dialer struct {
	// URL is the WebSocket server URL (e.g. "ws://localhost:3000/websocket").
	URL string

	// WSDialer is the gorilla/websocket dialer to use. If nil,
	// websocket.DefaultDialer is used.
	WSDialer *websocket.Dialer

	// Header carries additional HTTP headers sent during the handshake.
	Header http.Header
}

// Dial satisfies ddp.Dialer.
func (d *Dialer) Dial(ctx context.Context) (ddp.Carrier, error) {
	dialer := d.WSDialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	conn, resp, err := dialer.DialContext(ctx, d.URL, d.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("ddpws: dial failed: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("ddpws: dial failed: %w", err)
	}
	return &carrier{conn: conn}, nil
}

// carrier implements ddp.Carrier over a *websocket.Conn.
type carrier struct {
	conn      *websocket.Conn
	writeMu   sync.Mutex // serializes WriteMessage calls
	closeOnce sync.Once
}

// ReadText reads the next DDP frame. The core "sends only text frames
// and interprets only text frames; other frame kinds are ignored"
// (spec.md §6), so a non-text WebSocket frame is skipped rather than
// surfaced as an error — it must not end the read pump.
func (c *carrier) ReadText(ctx context.Context) (string, error) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			c.conn.Close()
		case <-done:
		}
	}()

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return "", io.EOF
			}
			return "", fmt.Errorf("ddpws: read error: %w", err)
		}
		if messageType != websocket.TextMessage {
			continue
		}
		return string(data), nil
	}
}

// WriteText sends frame as a single WebSocket text frame.
func (c *carrier) WriteText(ctx context.Context, frame string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if deadline, ok := ctx.Deadline(); ok {
		c.conn.SetWriteDeadline(deadline)
		defer c.conn.SetWriteDeadline(time.Time{})
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		return fmt.Errorf("ddpws: write error: %w", err)
	}
	return nil
}

// Close closes the underlying connection. Safe to call more than once.
func (c *carrier) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.conn.Close()
	})
	return err
}
