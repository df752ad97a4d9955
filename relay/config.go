package relay

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/opd-ai/rpvoice/limits"
)

// Config controls storage and timeouts for a Server.
type Config struct {
	// DataDir holds stored payloads. It is created if missing.
	DataDir string
	// ClipTTL is how long pushed clips stay retrievable.
	ClipTTL time.Duration
	// MaxEntries bounds the number of stored clips and archives.
	MaxEntries int64
	// MaxPayloadSize bounds a single pushed payload.
	MaxPayloadSize int64
	// IOTimeout bounds every socket read and write. Zero waits forever.
	IOTimeout time.Duration
}

// DefaultConfig returns a configuration storing payloads under the system
// temporary directory.
func DefaultConfig() Config {
	return Config{
		DataDir:        filepath.Join(os.TempDir(), "rpvoice-relay"),
		ClipTTL:        time.Hour,
		MaxEntries:     4096,
		MaxPayloadSize: limits.MaxPayloadSize,
		IOTimeout:      30 * time.Second,
	}
}

// Validate reports configuration values that cannot work.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("relay data dir must be set")
	}
	if c.ClipTTL <= 0 {
		return fmt.Errorf("clip ttl must be positive, got %s", c.ClipTTL)
	}
	if c.MaxEntries < 1 {
		return fmt.Errorf("max entries must be at least 1, got %d", c.MaxEntries)
	}
	if c.MaxPayloadSize < 0 || c.MaxPayloadSize > limits.MaxPayloadSize {
		return fmt.Errorf("max payload size must be within 0..%d, got %d", limits.MaxPayloadSize, c.MaxPayloadSize)
	}
	if c.IOTimeout < 0 {
		return fmt.Errorf("io timeout must not be negative")
	}
	return nil
}
