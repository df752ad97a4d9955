package transport

import (
	"bufio"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opd-ai/rpvoice/limits"
	"github.com/sirupsen/logrus"
)

// Session is one TCP connection dedicated to exactly one protocol exchange.
// It is never reused: a failed exchange closes it and the next attempt dials
// a new one.
type Session struct {
	conn      net.Conn
	r         *bufio.Reader
	w         *bufio.Writer
	closeOnce sync.Once
	connected atomic.Bool
}

// NewSession wraps conn. When ioTimeout is positive every read and write
// must make progress within it, so a connected but silent peer fails the
// exchange instead of blocking it forever.
func NewSession(conn net.Conn, ioTimeout time.Duration) *Session {
	dc := &deadlineConn{Conn: conn, timeout: ioTimeout}
	s := &Session{
		conn: conn,
		r:    bufio.NewReaderSize(dc, limits.CopyBufferSize),
		w:    bufio.NewWriterSize(dc, limits.CopyBufferSize),
	}
	s.connected.Store(true)
	return s
}

// Reader returns the buffered reader for the session.
func (s *Session) Reader() *bufio.Reader { return s.r }

// Writer returns the buffered writer for the session. Call Flush before
// waiting for a response.
func (s *Session) Writer() *bufio.Writer { return s.w }

// Flush pushes buffered writes to the socket.
func (s *Session) Flush() error {
	if !s.connected.Load() {
		return ErrSessionClosed
	}
	return s.w.Flush()
}

// Connected reports whether Close has not yet run.
func (s *Session) Connected() bool {
	return s.connected.Load()
}

// RemoteAddr returns the peer address of the underlying connection.
func (s *Session) RemoteAddr() net.Addr {
	return s.conn.RemoteAddr()
}

// Close performs an orderly shutdown: both directions are half-closed and
// then the socket is released. Failures are logged and swallowed. Close is
// safe to call more than once; the socket is closed exactly once and the
// session is always marked not connected afterward.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.connected.Store(false)
		addr := s.conn.RemoteAddr()

		if tcp, ok := s.conn.(*net.TCPConn); ok {
			if err := tcp.CloseWrite(); err != nil {
				shutdownLogger("CloseWrite", addr, err).Debug("Half-close failed")
			}
			if err := tcp.CloseRead(); err != nil {
				shutdownLogger("CloseRead", addr, err).Debug("Half-close failed")
			}
		}
		if err := s.conn.Close(); err != nil {
			shutdownLogger("Close", addr, err).Warn("Session close failed")
		}
	})
	return nil
}

func shutdownLogger(step string, addr net.Addr, err error) *logrus.Entry {
	fields := logrus.Fields{
		"function": "Session.Close",
		"step":     step,
		"error":    err.Error(),
	}
	if addr != nil {
		fields["remote_addr"] = addr.String()
	}
	return logrus.WithFields(fields)
}

// deadlineConn refreshes the read or write deadline before every call.
type deadlineConn struct {
	net.Conn
	timeout time.Duration
}

func (c *deadlineConn) Read(p []byte) (int, error) {
	if c.timeout > 0 {
		if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return 0, err
		}
	}
	return c.Conn.Read(p)
}

func (c *deadlineConn) Write(p []byte) (int, error) {
	if c.timeout > 0 {
		if err := c.Conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
			return 0, err
		}
	}
	return c.Conn.Write(p)
}
