package transport

import (
	"net"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultBasePort is the first port tried on a peer.
	DefaultBasePort = 5105
	// DefaultMaxPortCycle is the largest offset added to the base port before wrapping.
	DefaultMaxPortCycle = 50
)

// Peer is the logical remote endpoint of a client: an address plus a port
// derived from a base port and a rotating offset. The offset only changes
// when a connection attempt fails.
type Peer struct {
	mu       sync.Mutex
	host     string
	basePort int
	maxCycle int
	cycle    int
}

// NewPeer creates a peer at host with the given base port and port cycle
// ceiling. Non-positive values fall back to the defaults.
func NewPeer(host string, basePort, maxCycle int) *Peer {
	if basePort <= 0 {
		basePort = DefaultBasePort
	}
	if maxCycle < 0 {
		maxCycle = DefaultMaxPortCycle
	}
	return &Peer{
		host:     host,
		basePort: basePort,
		maxCycle: maxCycle,
	}
}

// Host returns the current peer address.
func (p *Peer) Host() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.host
}

// UpdateAddress replaces the peer address. The port cycle is left untouched.
func (p *Peer) UpdateAddress(host string) {
	p.mu.Lock()
	old := p.host
	p.host = host
	p.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "UpdateAddress",
		"old_host": old,
		"new_host": host,
	}).Info("Peer address updated")
}

// Cycle returns the current port offset in [0, MaxCycle].
func (p *Peer) Cycle() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cycle
}

// MaxCycle returns the largest port offset before wrapping.
func (p *Peer) MaxCycle() int {
	return p.maxCycle
}

// Port returns the derived destination port.
func (p *Peer) Port() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.basePort + p.cycle
}

// Addr returns host:port for the current derived port.
func (p *Peer) Addr() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return net.JoinHostPort(p.host, strconv.Itoa(p.basePort+p.cycle))
}

// Advance moves to the next port offset, wrapping to 0 once it would exceed
// the ceiling, and returns the new offset. After MaxCycle()+1 calls the
// offset is back where it started.
func (p *Peer) Advance() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.cycle++
	if p.cycle > p.maxCycle {
		p.cycle = 0
	}
	return p.cycle
}
