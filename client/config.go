package client

import (
	"fmt"
	"time"

	"github.com/opd-ai/rpvoice/transport"
	"github.com/opd-ai/rpvoice/wire"
)

// Config controls ports, retry policy and timeouts for a Client.
type Config struct {
	BasePort     int
	MaxPortCycle int
	MaxAttempts  int

	// DialTimeout bounds a single connect.
	DialTimeout time.Duration
	// IOTimeout bounds every socket read and write. Zero waits forever.
	IOTimeout time.Duration

	// ArchiveTTL is the cache lifetime hint, in milliseconds, sent after archives.
	ArchiveTTL int32
	// ClipExt is appended to the request id (or caller name) of pulled clips.
	ClipExt string

	// Dial overrides how connections are opened; nil uses the network.
	Dial transport.DialFunc
}

// DefaultConfig returns the protocol defaults.
func DefaultConfig() Config {
	return Config{
		BasePort:     transport.DefaultBasePort,
		MaxPortCycle: transport.DefaultMaxPortCycle,
		MaxAttempts:  20,
		DialTimeout:  5 * time.Second,
		IOTimeout:    30 * time.Second,
		ArchiveTTL:   wire.DefaultArchiveTTL,
		ClipExt:      ".mp3",
	}
}

// Validate reports configuration values that cannot work.
func (c Config) Validate() error {
	if c.BasePort <= 0 || c.BasePort+c.MaxPortCycle > 65535 {
		return fmt.Errorf("port range %d..%d out of bounds", c.BasePort, c.BasePort+c.MaxPortCycle)
	}
	if c.MaxPortCycle < 0 {
		return fmt.Errorf("max port cycle must not be negative, got %d", c.MaxPortCycle)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.DialTimeout < 0 || c.IOTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	return nil
}
