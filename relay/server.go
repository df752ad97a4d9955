package relay

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/opd-ai/rpvoice/file"
	"github.com/opd-ai/rpvoice/limits"
	"github.com/opd-ai/rpvoice/transport"
	"github.com/opd-ai/rpvoice/wire"
	"github.com/sirupsen/logrus"
)

// Server answers clip relay requests on one or more TCP listeners.
type Server struct {
	cfg   Config
	store *Store

	mu        sync.Mutex
	listeners []net.Listener
	conns     map[net.Conn]struct{}

	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewServer opens the payload store described by cfg. Call Listen to start
// accepting connections.
func NewServer(cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	store, err := OpenStore(cfg.DataDir, cfg.ClipTTL, cfg.MaxEntries)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:    cfg,
		store:  store,
		conns:  make(map[net.Conn]struct{}),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Store returns the server's payload store.
func (s *Server) Store() *Store {
	return s.store
}

// Listen starts accepting connections on addr and returns the bound address.
func (s *Server) Listen(addr string) (net.Addr, error) {
	if s.ctx.Err() != nil {
		return nil, net.ErrClosed
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.listeners = append(s.listeners, listener)
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "Listen",
		"addr":     listener.Addr().String(),
	}).Info("Relay listening")

	s.wg.Add(1)
	go s.acceptConnections(listener)

	return listener.Addr(), nil
}

// Addrs returns the addresses of all active listeners.
func (s *Server) Addrs() []net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	addrs := make([]net.Addr, 0, len(s.listeners))
	for _, l := range s.listeners {
		addrs = append(addrs, l.Addr())
	}
	return addrs
}

// Close stops all listeners, closes open connections, waits for handlers to
// return and closes the store.
func (s *Server) Close() error {
	var firstErr error
	s.closeOnce.Do(func() {
		s.cancel()

		s.mu.Lock()
		for _, l := range s.listeners {
			if err := l.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		for conn := range s.conns {
			conn.Close()
		}
		s.mu.Unlock()

		s.wg.Wait()
		s.store.Close()

		logrus.WithField("function", "Close").Info("Relay stopped")
	})
	return firstErr
}

func (s *Server) acceptConnections(listener net.Listener) {
	defer s.wg.Done()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if s.ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			logrus.WithFields(logrus.Fields{
				"function": "acceptConnections",
				"addr":     listener.Addr().String(),
				"error":    err.Error(),
			}).Warn("Accept failed")
			time.Sleep(50 * time.Millisecond)
			continue
		}

		if !s.trackConn(conn) {
			conn.Close()
			return
		}
		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

func (s *Server) trackConn(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrackConn(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

// handleConnection serves exactly one request.
func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer s.untrackConn(conn)

	sess := transport.NewSession(conn, s.cfg.IOTimeout)
	defer sess.Close()

	requestID, cmd, err := wire.ReadRequest(sess.Reader())
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "handleConnection",
			"remote":   sess.RemoteAddr().String(),
			"error":    err.Error(),
		}).Warn("Failed to read request")
		return
	}

	if err := s.dispatch(sess, requestID, cmd); err != nil {
		logrus.WithFields(logrus.Fields{
			"function":   "handleConnection",
			"remote":     sess.RemoteAddr().String(),
			"request_id": requestID,
			"command":    cmd.String(),
			"error":      err.Error(),
		}).Warn("Request failed")
	}
}

func (s *Server) dispatch(sess *transport.Session, requestID string, cmd wire.Command) error {
	switch cmd {
	case wire.CommandPushFile:
		return s.handlePushFile(sess, requestID)
	case wire.CommandPushArchive:
		return s.handlePushArchive(sess, requestID)
	case wire.CommandPull:
		return s.handlePull(sess, requestID)
	case wire.CommandPullPosition:
		return s.handlePullPosition(sess, requestID)
	default:
		return fmt.Errorf("%w: %d", wire.ErrUnknownCommand, byte(cmd))
	}
}

func (s *Server) readPayload(sess *transport.Session) (string, error) {
	n, err := wire.ReadLength(sess.Reader())
	if err != nil {
		return "", err
	}
	if err := limits.ValidatePayloadSizeLimit(n, s.cfg.MaxPayloadSize); err != nil {
		return "", err
	}
	return s.store.Receive(sess.Reader(), n)
}

func (s *Server) handlePushFile(sess *transport.Session, requestID string) error {
	pos, err := wire.ReadPosition(sess.Reader())
	if err != nil {
		return err
	}
	partial, err := s.readPayload(sess)
	if err != nil {
		return err
	}
	_, err = s.store.Commit(requestID, wire.CommandPushFile, pos, partial, 0)
	return err
}

func (s *Server) handlePushArchive(sess *transport.Session, requestID string) error {
	partial, err := s.readPayload(sess)
	if err != nil {
		return err
	}
	ttl, err := wire.ReadTrailer(sess.Reader())
	if err != nil {
		file.Remove(partial)
		return err
	}
	_, err = s.store.Commit(requestID, wire.CommandPushArchive, wire.Sentinel, partial, time.Duration(ttl)*time.Millisecond)
	return err
}

func (s *Server) handlePull(sess *transport.Session, requestID string) error {
	w := sess.Writer()

	e, ok := s.store.Lookup(requestID)
	if !ok {
		if err := wire.WritePresence(w, false); err != nil {
			return err
		}
		return sess.Flush()
	}

	f, err := os.Open(e.Path)
	if errors.Is(err, os.ErrNotExist) {
		// Payload vanished from disk; drop the entry and report it absent.
		s.store.Delete(requestID)
		if err := wire.WritePresence(w, false); err != nil {
			return err
		}
		return sess.Flush()
	}
	if err != nil {
		return fmt.Errorf("open stored payload: %w", err)
	}
	defer f.Close()

	if err := wire.WritePresence(w, true); err != nil {
		return err
	}
	if err := wire.WritePosition(w, e.Position); err != nil {
		return err
	}
	if err := wire.WriteLength(w, e.Size); err != nil {
		return err
	}
	if _, err := file.CopyN(w, f, e.Size, nil); err != nil {
		return err
	}
	if err := sess.Flush(); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"function":   "handlePull",
		"request_id": requestID,
		"kind":       e.Kind.String(),
		"size":       e.Size,
	}).Debug("Served stored payload")
	return nil
}

func (s *Server) handlePullPosition(sess *transport.Session, requestID string) error {
	w := sess.Writer()

	e, ok := s.store.Lookup(requestID)
	if !ok || e.Kind != wire.CommandPushFile {
		if err := wire.WritePresence(w, false); err != nil {
			return err
		}
		return sess.Flush()
	}

	if err := wire.WritePresence(w, true); err != nil {
		return err
	}
	if err := wire.WritePosition(w, e.Position); err != nil {
		return err
	}
	return sess.Flush()
}
