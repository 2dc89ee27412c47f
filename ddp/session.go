// Copyright 2026 The Go DDP Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package ddp

import (
	"context"
	"log/slog"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// DefaultVersions is the ordered protocol version list tried during
// negotiation, preferred version first (spec.md §3 ProtocolVersion).
var DefaultVersions = []string{"1", "pre2", "pre1"}

// sessionConfig holds the options a SessionOption mutates, in the
// functional-options shape described in DESIGN.md.
type sessionConfig struct {
	versions      []string
	logger        *slog.Logger
	limiter       *rate.Limiter
	teardownHooks []func()
}

// SessionOption configures an Open call.
type SessionOption func(*sessionConfig)

// WithVersions overrides DefaultVersions with a caller-supplied,
// preference-ordered list of protocol version tags.
func WithVersions(versions ...string) SessionOption {
	return func(c *sessionConfig) { c.versions = versions }
}

// WithLogger sets the *slog.Logger the session's pumps log to. The
// default is slog.Default().
func WithLogger(l *slog.Logger) SessionOption {
	return func(c *sessionConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRateLimiter throttles the write pump's outbound frame rate. The
// default is nil: unbounded, matching spec.md §5's default resource
// model. Supplying a limiter is purely a caller-side defense against a
// runaway producer; it never changes correctness, only pacing.
func WithRateLimiter(l *rate.Limiter) SessionOption {
	return func(c *sessionConfig) { c.limiter = l }
}

// WithTeardownHook registers fn to run when the session's teardown
// hook fires (at most once), in addition to unblocking Join. This
// supplements spec.md §3's teardown hook with the rust original's
// on_crash callback (SPEC_FULL.md §4).
func WithTeardownHook(fn func()) SessionOption {
	return func(c *sessionConfig) {
		if fn != nil {
			c.teardownHooks = append(c.teardownHooks, fn)
		}
	}
}

// Session is the negotiated DDP connection and the library's public
// surface (spec.md §4.1): Call, Collection, SessionID, Version, Join.
type Session struct {
	sessionID string
	version   string

	carrier     Carrier
	queue       *outboundQueue
	methods     *methodRegistry
	subs        *subscriptionRegistry
	collections *collectionRegistry
	teardown    *teardownHook
	logger      *slog.Logger

	wg sync.WaitGroup
}

// Open performs the handshake and version negotiation of spec.md §4.2
// against a carrier produced by dial, then starts the read and write
// pumps tied to that carrier. On failure no pumps are spawned.
func Open(ctx context.Context, rawURL string, dial Dialer, opts ...SessionOption) (*Session, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
		return nil, &OpenError{Kind: ErrUrlIsNotWebsocket, Err: err}
	}

	cfg := &sessionConfig{
		versions: DefaultVersions,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	carrier, sessionID, version, err := negotiate(ctx, dial, cfg.versions)
	if err != nil {
		return nil, err
	}

	queue := newOutboundQueue(cfg.limiter)
	methods := newMethodRegistry(queue)
	subs := newSubscriptionRegistry(queue)
	collections := newCollectionRegistry(methods, subs)

	s := &Session{
		sessionID:   sessionID,
		version:     version,
		carrier:     carrier,
		queue:       queue,
		methods:     methods,
		subs:        subs,
		collections: collections,
		logger:      cfg.logger,
	}
	s.teardown = newTeardownHook(func() {
		queue.close()
		carrier.Close()
		methods.abandon()
		subs.abandon()
		for _, hook := range cfg.teardownHooks {
			hook()
		}
	})

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		if err := runReadPump(context.Background(), carrier, methods, subs, collections, queue, s.logger); err != nil {
			s.logger.Debug("ddp: read pump exited", "error", err)
		}
		s.teardown.fire()
	}()
	go func() {
		defer s.wg.Done()
		if err := runWritePump(context.Background(), carrier, queue, s.logger); err != nil {
			s.logger.Debug("ddp: write pump exited", "error", err)
		}
		s.teardown.fire()
	}()

	return s, nil
}

// Call enqueues a method invocation. cb fires exactly once with the
// server's result or error, unless the session has already ended, in
// which case cb is dropped (spec.md §4.1, SPEC_FULL.md Open Question
// #1).
func (s *Session) Call(method string, params []EJson, cb Completion) {
	if _, err := s.methods.send(method, params, cb); err != nil {
		s.logger.Warn("ddp: call encode failed", "method", method, "error", err)
	}
}

// Collection returns the (possibly newly created) handle for name.
// Repeated calls with the same name return the same handle (spec.md
// §4.1, §8 property 5).
func (s *Session) Collection(name string) *CollectionHandle {
	return s.collections.get(name)
}

// SessionID returns the server-assigned session id from the connected
// reply.
func (s *Session) SessionID() string { return s.sessionID }

// Version returns the protocol version accepted during negotiation.
func (s *Session) Version() string { return s.version }

// Join blocks until both the read and write pumps have exited.
func (s *Session) Join() { s.wg.Wait() }

// Done returns a channel closed once the teardown hook has fired,
// letting callers select on session death without blocking Join.
func (s *Session) Done() <-chan struct{} { return s.teardown.done }
