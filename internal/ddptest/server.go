// Copyright 2026 The Go DDP Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package ddptest provides an in-process, scripted DDP server for
// exercising the session controller, registries, and pumps end to end.
// It generalizes the httptest.NewServer + websocket.Upgrader pattern
// from the teacher's mcp/websocket_test.go (TestWebSocketClientTransport)
// from echoing arbitrary frames to a server a test drives by hand:
// send scripted envelopes, and assert on what the client wrote.
package ddptest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// Server is a single-connection scripted DDP server.
type Server struct {
	httpServer *httptest.Server
	upgrader   websocket.Upgrader

	mu   sync.Mutex
	cond *sync.Cond
	conn *websocket.Conn
	recv []string
}

// New starts a stub server listening on a loopback address.
func New() *Server {
	s := &Server{upgrader: websocket.Upgrader{}}
	s.cond = sync.NewCond(&s.mu)
	s.httpServer = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	s.mu.Lock()
	s.conn = conn
	s.cond.Broadcast()
	s.mu.Unlock()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.recv = append(s.recv, string(data))
		s.cond.Broadcast()
		s.mu.Unlock()
	}
}

// URL returns the ws:// URL of the stub server.
func (s *Server) URL() string {
	return "ws" + strings.TrimPrefix(s.httpServer.URL, "http")
}

// WaitConn blocks until a client connection has been upgraded.
func (s *Server) WaitConn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.conn == nil {
		s.cond.Wait()
	}
}

// Send writes a raw text frame to the connected client.
func (s *Server) Send(frame string) error {
	s.WaitConn()
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, []byte(frame))
}

// SendJSON marshals v and sends it as a text frame.
func (s *Server) SendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Send(string(data))
}

// WaitFrame blocks until the client has written at least n+1 frames and
// returns the n-th one (0-indexed).
func (s *Server) WaitFrame(n int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.recv) <= n {
		s.cond.Wait()
	}
	return s.recv[n]
}

// Close shuts down the connection and the underlying httptest server.
func (s *Server) Close() {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
	s.httpServer.Close()
}
