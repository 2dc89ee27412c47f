// Copyright 2026 The Go DDP Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package ddp_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nrigo/go-ddp/ddp"
	"github.com/nrigo/go-ddp/ddpws"
	"github.com/nrigo/go-ddp/internal/ddptest"
)

func openSession(t *testing.T, srv *ddptest.Server, opts ...ddp.SessionOption) *ddp.Session {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	dialer := &ddpws.Dialer{URL: srv.URL()}
	s, err := ddp.Open(ctx, srv.URL(), dialer.Dial, opts...)
	if err != nil {
		t.Fatalf("ddp.Open: %v", err)
	}
	t.Cleanup(s.Join)
	return s
}

// TestHandshakeHappyPath mirrors spec.md §8 "Handshake happy path".
func TestHandshakeHappyPath(t *testing.T) {
	srv := ddptest.New()
	defer srv.Close()

	go func() {
		srv.WaitFrame(0) // the connect frame
		srv.SendJSON(map[string]any{"msg": "connected", "session": "S1"})
	}()

	s := openSession(t, srv)
	if got := s.SessionID(); got != "S1" {
		t.Errorf("SessionID() = %q, want S1", got)
	}
	if got, want := s.Version(), ddp.DefaultVersions[0]; got != want {
		t.Errorf("Version() = %q, want %q", got, want)
	}
}

// TestVersionRenegotiation mirrors spec.md §8 "Version renegotiation".
func TestVersionRenegotiation(t *testing.T) {
	srv := ddptest.New()
	defer srv.Close()

	go func() {
		first := srv.WaitFrame(0)
		var firstEnv map[string]any
		if err := json.Unmarshal([]byte(first), &firstEnv); err != nil {
			t.Errorf("unmarshal first connect: %v", err)
			return
		}
		if firstEnv["version"] != "1" {
			t.Errorf("first connect version = %v, want %q", firstEnv["version"], "1")
		}
		srv.SendJSON(map[string]any{"msg": "failed", "version": "pre1"})

		second := srv.WaitFrame(1)
		var secondEnv map[string]any
		if err := json.Unmarshal([]byte(second), &secondEnv); err != nil {
			t.Errorf("unmarshal second connect: %v", err)
			return
		}
		if secondEnv["version"] != "pre1" {
			t.Errorf("second connect version = %v, want %q", secondEnv["version"], "pre1")
		}
		srv.SendJSON(map[string]any{"msg": "connected", "session": "S2"})
	}()

	s := openSession(t, srv)
	if got := s.Version(); got != "pre1" {
		t.Errorf("Version() = %q, want pre1", got)
	}
	if got := s.SessionID(); got != "S2" {
		t.Errorf("SessionID() = %q, want S2", got)
	}
}

// TestMethodResult mirrors spec.md §8 "Method result".
func TestMethodResult(t *testing.T) {
	srv := ddptest.New()
	defer srv.Close()

	go func() {
		srv.WaitFrame(0)
		srv.SendJSON(map[string]any{"msg": "connected", "session": "S1"})
	}()
	s := openSession(t, srv)

	done := make(chan struct{})
	var gotResult ddp.EJson
	var gotErr ddp.EJson
	go func() {
		frame := srv.WaitFrame(1)
		var env map[string]any
		json.Unmarshal([]byte(frame), &env)
		srv.SendJSON(map[string]any{"msg": "result", "id": env["id"], "result": 3})
	}()

	s.Call("add", []ddp.EJson{ddp.EJson(`1`), ddp.EJson(`2`)}, func(result, methodErr ddp.EJson) {
		gotResult = result
		gotErr = methodErr
		close(done)
	})

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("completion never fired")
	}
	if gotErr != nil {
		t.Errorf("unexpected method error: %s", gotErr)
	}
	if string(gotResult) != "3" {
		t.Errorf("result = %s, want 3", gotResult)
	}
}

// TestMethodError mirrors spec.md §8 "Method error".
func TestMethodError(t *testing.T) {
	srv := ddptest.New()
	defer srv.Close()

	go func() {
		srv.WaitFrame(0)
		srv.SendJSON(map[string]any{"msg": "connected", "session": "S1"})
	}()
	s := openSession(t, srv)

	done := make(chan struct{})
	calls := 0
	go func() {
		frame := srv.WaitFrame(1)
		var env map[string]any
		json.Unmarshal([]byte(frame), &env)
		srv.SendJSON(map[string]any{"msg": "result", "id": env["id"], "error": map[string]any{"code": 500}})
	}()

	s.Call("boom", nil, func(result, methodErr ddp.EJson) {
		calls++
		if result != nil {
			t.Errorf("unexpected result: %s", result)
		}
		if methodErr == nil {
			t.Error("expected a method error payload")
		}
		close(done)
	})

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("completion never fired")
	}
	if calls != 1 {
		t.Errorf("completion invoked %d times, want 1", calls)
	}
}

// TestPingPong mirrors spec.md §8 "Ping/pong".
func TestPingPong(t *testing.T) {
	srv := ddptest.New()
	defer srv.Close()

	go func() {
		srv.WaitFrame(0)
		srv.SendJSON(map[string]any{"msg": "connected", "session": "S1"})
		srv.SendJSON(map[string]any{"msg": "ping", "id": "p1"})
	}()
	s := openSession(t, srv)
	_ = s

	pong := srv.WaitFrame(1)
	var env map[string]any
	if err := json.Unmarshal([]byte(pong), &env); err != nil {
		t.Fatalf("unmarshal pong: %v", err)
	}
	if env["msg"] != "pong" || env["id"] != "p1" {
		t.Errorf("pong frame = %v, want msg=pong id=p1", env)
	}
}

// TestSubscriptionLifecycle mirrors spec.md §8 "Subscription lifecycle".
func TestSubscriptionLifecycle(t *testing.T) {
	srv := ddptest.New()
	defer srv.Close()

	go func() {
		srv.WaitFrame(0)
		srv.SendJSON(map[string]any{"msg": "connected", "session": "S1"})
	}()
	s := openSession(t, srv)

	col := s.Collection("C")
	readyCh := make(chan bool, 1)
	col.OnReady(func(ok bool, err ddp.EJson) { readyCh <- ok })

	var addedID string
	var addedFields ddp.EJson
	addedCh := make(chan struct{})
	col.OnAdd(func(id string, fields ddp.EJson) {
		addedID = id
		addedFields = fields
		close(addedCh)
	})

	if err := col.Subscribe(); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	subFrame := srv.WaitFrame(1)
	var subEnv map[string]any
	if err := json.Unmarshal([]byte(subFrame), &subEnv); err != nil {
		t.Fatalf("unmarshal sub frame: %v", err)
	}
	if subEnv["msg"] != "sub" || subEnv["name"] != "C" {
		t.Errorf("sub frame = %v, want msg=sub name=C", subEnv)
	}
	subID, _ := subEnv["id"].(string)

	srv.SendJSON(map[string]any{"msg": "ready", "subs": []string{subID}})
	select {
	case ok := <-readyCh:
		if !ok {
			t.Error("on_ready fired with ok=false, want true")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("on_ready never fired")
	}

	srv.SendJSON(map[string]any{"msg": "added", "collection": "C", "id": "d1", "fields": map[string]any{"x": 1}})
	select {
	case <-addedCh:
	case <-time.After(5 * time.Second):
		t.Fatal("on_add never fired")
	}
	if addedID != "d1" {
		t.Errorf("added id = %q, want d1", addedID)
	}
	if string(addedFields) != `{"x":1}` {
		t.Errorf("added fields = %s, want {\"x\":1}", addedFields)
	}
}
