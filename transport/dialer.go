package transport

import (
	"context"
	"net"
	"time"

	"github.com/sirupsen/logrus"
)

// DialFunc opens a stream connection. It matches net.Dialer.DialContext.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Dialer opens Transfer Sessions to a Peer.
type Dialer struct {
	// Timeout bounds each individual connect.
	Timeout time.Duration
	// IOTimeout bounds every read and write on the resulting session.
	// Zero disables deadlines.
	IOTimeout time.Duration
	// DialContext overrides how connections are opened. Nil uses net.Dialer.
	DialContext DialFunc
}

// Dial connects to the peer's current derived port. If that connect fails
// the peer's port offset is advanced once and the connect is retried exactly
// one more time before a *ConnectError is returned.
func (d *Dialer) Dial(ctx context.Context, peer *Peer) (*Session, error) {
	addr := peer.Addr()
	conn, err := d.dial(ctx, addr)
	if err == nil {
		return d.newSession(conn, addr), nil
	}
	if ctx.Err() != nil {
		return nil, &ConnectError{Op: "dial", Addr: addr, Err: ctx.Err()}
	}

	cycle := peer.Advance()
	retryAddr := peer.Addr()
	logrus.WithFields(logrus.Fields{
		"function":   "Dial",
		"addr":       addr,
		"retry_addr": retryAddr,
		"port_cycle": cycle,
		"error":      err.Error(),
	}).Debug("Connect failed, retrying on next port")

	conn, err = d.dial(ctx, retryAddr)
	if err != nil {
		return nil, &ConnectError{Op: "dial", Addr: retryAddr, Err: err}
	}
	return d.newSession(conn, retryAddr), nil
}

func (d *Dialer) dial(ctx context.Context, addr string) (net.Conn, error) {
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}
	if d.DialContext != nil {
		return d.DialContext(ctx, "tcp", addr)
	}
	var nd net.Dialer
	return nd.DialContext(ctx, "tcp", addr)
}

func (d *Dialer) newSession(conn net.Conn, addr string) *Session {
	logrus.WithFields(logrus.Fields{
		"function": "Dial",
		"addr":     addr,
	}).Debug("Session connected")
	return NewSession(conn, d.IOTimeout)
}
