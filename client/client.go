package client

import (
	"sync"
	"sync/atomic"

	"github.com/opd-ai/rpvoice/transport"
	"github.com/sirupsen/logrus"
)

// failureBuffer is the capacity of the SendFailures channel. Failures posted
// while it is full are dropped and logged.
const failureBuffer = 16

// Client pushes and pulls clips to and from a single peer. Operations run one
// at a time; a call waiting for another operation to finish returns as soon
// as its context is done.
type Client struct {
	cfg    Config
	peer   *transport.Peer
	dialer *transport.Dialer

	ops chan struct{} // one-slot semaphore serializing operations

	cbMu             sync.RWMutex
	stateCallback    func(State)
	progressCallback func(requestID string, transferred, total int64)

	state     atomic.Int32
	attempts  atomic.Int32
	connected atomic.Bool
	failures  chan SendFailure
}

// New creates a client for the peer at host.
func New(host string, cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		cfg:  cfg,
		peer: transport.NewPeer(host, cfg.BasePort, cfg.MaxPortCycle),
		dialer: &transport.Dialer{
			Timeout:     cfg.DialTimeout,
			IOTimeout:   cfg.IOTimeout,
			DialContext: cfg.Dial,
		},
		ops:      make(chan struct{}, 1),
		failures: make(chan SendFailure, failureBuffer),
	}

	logrus.WithFields(logrus.Fields{
		"function":       "New",
		"host":           host,
		"base_port":      cfg.BasePort,
		"max_port_cycle": cfg.MaxPortCycle,
		"max_attempts":   cfg.MaxAttempts,
	}).Info("Created clip relay client")

	return c, nil
}

// Peer returns the client's peer endpoint.
func (c *Client) Peer() *transport.Peer {
	return c.peer
}

// UpdateAddress points the client at a new peer address without resetting
// the port cycle.
func (c *Client) UpdateAddress(host string) {
	c.peer.UpdateAddress(host)
}

// Port returns the port the next attempt will dial.
func (c *Client) Port() int {
	return c.peer.Port()
}

// State returns the lifecycle state of the running operation.
func (c *Client) State() State {
	return State(c.state.Load())
}

// Attempts returns the number of failed attempts of the running operation.
// It is zero whenever no operation is running.
func (c *Client) Attempts() int {
	return int(c.attempts.Load())
}

// Connected reports whether a session is currently open.
func (c *Client) Connected() bool {
	return c.connected.Load()
}

// SendFailures delivers one SendFailure for every push that exhausted its
// attempts.
func (c *Client) SendFailures() <-chan SendFailure {
	return c.failures
}

// OnStateChange sets a callback invoked on every state transition.
// This method is safe for concurrent use.
func (c *Client) OnStateChange(callback func(State)) {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()
	c.stateCallback = callback
}

// OnProgress sets a callback invoked after every payload chunk sent or received.
// This method is safe for concurrent use.
func (c *Client) OnProgress(callback func(requestID string, transferred, total int64)) {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()
	c.progressCallback = callback
}

func (c *Client) setState(s State) {
	c.state.Store(int32(s))

	c.cbMu.RLock()
	cb := c.stateCallback
	c.cbMu.RUnlock()

	if cb != nil {
		cb(s)
	}
}

func (c *Client) progressFunc(requestID string, total int64) func(int64) {
	c.cbMu.RLock()
	cb := c.progressCallback
	c.cbMu.RUnlock()

	if cb == nil {
		return nil
	}
	return func(transferred int64) {
		cb(requestID, transferred, total)
	}
}

func (c *Client) notifySendFailure(f SendFailure) {
	select {
	case c.failures <- f:
	default:
		logrus.WithFields(logrus.Fields{
			"function":   "notifySendFailure",
			"op":         f.Op,
			"request_id": f.RequestID,
		}).Warn("Send failure channel full, dropping notification")
	}
}
