// SPDX-License-Identifier: MPL-2.0

package ipc

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
)

const (
	// StateRunning indicates the server is accepting connections.
	StateRunning State = iota
	// StateStopping indicates Close was called and connections are draining.
	StateStopping
	// StateStopped is terminal.
	StateStopped
)

type (
	// State is the lifecycle state of a Server.
	State int32

	// Handler receives every decoded message. It is called from one
	// goroutine per connection.
	Handler func(Message)

	// Server is the receiving side of the channel. A server is single-use:
	// once closed, listen again.
	Server struct {
		path    string
		handler Handler
		ln      net.Listener

		state atomic.Int32
		wg    sync.WaitGroup

		mu    sync.Mutex
		conns map[net.Conn]struct{}
	}
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Listen creates the socket at path (replacing a stale one) and starts
// accepting connections in the background.
func Listen(path string, handler Handler) (*Server, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating socket directory: %w", err)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("removing stale socket: %w", err)
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", path, err)
	}

	s := &Server{
		path:    path,
		handler: handler,
		ln:      ln,
		conns:   make(map[net.Conn]struct{}),
	}
	s.state.Store(int32(StateRunning))
	s.wg.Go(s.accept)
	return s, nil
}

// Path returns the socket path.
func (s *Server) Path() string { return s.path }

// State returns the current state.
func (s *Server) State() State { return State(s.state.Load()) }

func (s *Server) accept() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if s.State() == StateRunning {
				slog.Debug("notification socket accept failed", "path", s.path, "error", err)
			}
			return
		}
		if !s.track(conn) {
			_ = conn.Close()
			return
		}
		s.wg.Go(func() { s.serve(conn) })
	}
}

// track registers conn unless the server is shutting down.
func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.State() != StateRunning {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) serve(conn net.Conn) {
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		_ = conn.Close()
	}()
	for {
		msg, err := ReadMessage(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) && s.State() == StateRunning {
				slog.Debug("dropping notification connection", "error", err)
			}
			return
		}
		s.handler(msg)
	}
}

// Close stops accepting, closes open connections, waits for handlers to
// return and removes the socket file. Safe to call multiple times.
func (s *Server) Close() error {
	if !s.state.CompareAndSwap(int32(StateRunning), int32(StateStopping)) {
		s.wg.Wait()
		return nil
	}
	err := s.ln.Close()

	s.mu.Lock()
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.state.Store(int32(StateStopped))
	if rmErr := os.Remove(s.path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
		err = errors.Join(err, rmErr)
	}
	return err
}
