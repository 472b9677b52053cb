// SPDX-License-Identifier: MPL-2.0

package ipc

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"
)

// DefaultRetryInterval is how long a Client waits after a failed dial
// before dialing again.
const DefaultRetryInterval = time.Second

// DefaultWriteTimeout bounds a Send whose context has no deadline, so a
// watcher that stops reading cannot stall resolution.
const DefaultWriteTimeout = 2 * time.Second

// ErrUnavailable is returned while a Client is backing off after a failed
// dial.
var ErrUnavailable = errors.New("notification socket unavailable")

// Client sends messages over one lazily dialed connection, redialing after
// a write failure. It is safe for concurrent use.
type Client struct {
	path         string
	retry        time.Duration
	writeTimeout time.Duration
	now          func() time.Time

	mu         sync.Mutex
	conn       net.Conn
	retryAfter time.Time
}

// NewClient creates a client for the socket at path. Nothing is dialed
// until the first Send.
func NewClient(path string) *Client {
	return &Client{
		path:         path,
		retry:        DefaultRetryInterval,
		writeTimeout: DefaultWriteTimeout,
		now:          time.Now,
	}
}

// Path returns the socket path.
func (c *Client) Path() string { return c.path }

// Send writes msg. Failures close the connection; the next Send redials.
func (c *Client) Send(ctx context.Context, msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		if c.now().Before(c.retryAfter) {
			return ErrUnavailable
		}
		var d net.Dialer
		conn, err := d.DialContext(ctx, "unix", c.path)
		if err != nil {
			c.retryAfter = c.now().Add(c.retry)
			return err
		}
		c.conn = conn
	}

	deadline := time.Now().Add(c.writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = c.conn.SetWriteDeadline(deadline)
	if err := WriteMessage(c.conn, msg); err != nil {
		_ = c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

// Close closes the connection, if any.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
