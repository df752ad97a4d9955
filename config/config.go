// Package config loads rpvoice settings from a TOML file.
package config

import (
	"fmt"
	"math"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/opd-ai/rpvoice/client"
	"github.com/opd-ai/rpvoice/relay"
	"github.com/sirupsen/logrus"
)

// Config is the complete runtime configuration of the CLI.
type Config struct {
	// Host is the peer address clients connect to.
	Host   string
	Client client.Config

	Relay relay.Config
	// ListenHost is the interface the relay binds.
	ListenHost string
	// PortSpan is the number of consecutive ports, starting at the client
	// base port, the relay listens on.
	PortSpan int

	LogLevel logrus.Level
	LogJSON  bool
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Host:       "127.0.0.1",
		Client:     client.DefaultConfig(),
		Relay:      relay.DefaultConfig(),
		ListenHost: "0.0.0.0",
		PortSpan:   1,
		LogLevel:   logrus.InfoLevel,
	}
}

type fileConfig struct {
	Peer struct {
		Host         string `toml:"host"`
		BasePort     int    `toml:"base_port"`
		MaxPortCycle int    `toml:"max_port_cycle"`
	} `toml:"peer"`

	Transfer struct {
		MaxAttempts int    `toml:"max_attempts"`
		DialTimeout string `toml:"dial_timeout"`
		IOTimeout   string `toml:"io_timeout"`
		ArchiveTTL  string `toml:"archive_ttl"`
		ClipExt     string `toml:"clip_ext"`
	} `toml:"transfer"`

	Relay struct {
		ListenHost     string `toml:"listen_host"`
		PortSpan       int    `toml:"port_span"`
		DataDir        string `toml:"data_dir"`
		ClipTTL        string `toml:"clip_ttl"`
		MaxEntries     int64  `toml:"max_entries"`
		MaxPayloadSize int64  `toml:"max_payload_size"`
		IOTimeout      string `toml:"io_timeout"`
	} `toml:"relay"`

	Logging struct {
		Level string `toml:"level"`
		JSON  bool   `toml:"json"`
	} `toml:"logging"`
}

// Load reads path over the defaults. Keys absent from the file keep their
// default values.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		logrus.WithFields(logrus.Fields{
			"function": "Load",
			"path":     path,
			"keys":     fmt.Sprint(undecoded),
		}).Warn("Ignoring unknown config keys")
	}

	if meta.IsDefined("peer", "host") {
		if host := strings.TrimSpace(raw.Peer.Host); host != "" {
			cfg.Host = host
		}
	}
	if meta.IsDefined("peer", "base_port") {
		cfg.Client.BasePort = raw.Peer.BasePort
	}
	if meta.IsDefined("peer", "max_port_cycle") {
		cfg.Client.MaxPortCycle = raw.Peer.MaxPortCycle
	}

	if meta.IsDefined("transfer", "max_attempts") {
		cfg.Client.MaxAttempts = raw.Transfer.MaxAttempts
	}
	if err := parseDuration(meta, raw.Transfer.DialTimeout, &cfg.Client.DialTimeout, "transfer", "dial_timeout"); err != nil {
		return Config{}, err
	}
	if err := parseDuration(meta, raw.Transfer.IOTimeout, &cfg.Client.IOTimeout, "transfer", "io_timeout"); err != nil {
		return Config{}, err
	}
	if meta.IsDefined("transfer", "archive_ttl") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Transfer.ArchiveTTL))
		if err != nil {
			return Config{}, fmt.Errorf("parse transfer.archive_ttl: %w", err)
		}
		ms := d.Milliseconds()
		if ms < 0 || ms > math.MaxInt32 {
			return Config{}, fmt.Errorf("transfer.archive_ttl %s out of range", d)
		}
		cfg.Client.ArchiveTTL = int32(ms)
	}
	if meta.IsDefined("transfer", "clip_ext") {
		cfg.Client.ClipExt = strings.TrimSpace(raw.Transfer.ClipExt)
	}

	if meta.IsDefined("relay", "listen_host") {
		cfg.ListenHost = strings.TrimSpace(raw.Relay.ListenHost)
	}
	if meta.IsDefined("relay", "port_span") {
		cfg.PortSpan = raw.Relay.PortSpan
	}
	if meta.IsDefined("relay", "data_dir") {
		cfg.Relay.DataDir = strings.TrimSpace(raw.Relay.DataDir)
	}
	if err := parseDuration(meta, raw.Relay.ClipTTL, &cfg.Relay.ClipTTL, "relay", "clip_ttl"); err != nil {
		return Config{}, err
	}
	if meta.IsDefined("relay", "max_entries") {
		cfg.Relay.MaxEntries = raw.Relay.MaxEntries
	}
	if meta.IsDefined("relay", "max_payload_size") {
		cfg.Relay.MaxPayloadSize = raw.Relay.MaxPayloadSize
	}
	if err := parseDuration(meta, raw.Relay.IOTimeout, &cfg.Relay.IOTimeout, "relay", "io_timeout"); err != nil {
		return Config{}, err
	}

	if meta.IsDefined("logging", "level") {
		level, err := logrus.ParseLevel(strings.TrimSpace(raw.Logging.Level))
		if err != nil {
			return Config{}, fmt.Errorf("parse logging.level: %w", err)
		}
		cfg.LogLevel = level
	}
	if meta.IsDefined("logging", "json") {
		cfg.LogJSON = raw.Logging.JSON
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func parseDuration(meta toml.MetaData, value string, dst *time.Duration, key ...string) error {
	if !meta.IsDefined(key...) {
		return nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("parse %s: %w", strings.Join(key, "."), err)
	}
	*dst = d
	return nil
}

// Validate checks the client and relay sections.
func (c Config) Validate() error {
	if err := c.Client.Validate(); err != nil {
		return fmt.Errorf("transfer config: %w", err)
	}
	if err := c.Relay.Validate(); err != nil {
		return fmt.Errorf("relay config: %w", err)
	}
	if c.PortSpan < 1 || c.PortSpan > c.Client.MaxPortCycle+1 {
		return fmt.Errorf("relay.port_span must be within 1..%d, got %d", c.Client.MaxPortCycle+1, c.PortSpan)
	}
	return nil
}

// RelayAddrs lists the listen addresses for the relay, one per port in the
// configured span.
func (c Config) RelayAddrs() []string {
	addrs := make([]string, 0, c.PortSpan)
	for i := 0; i < c.PortSpan; i++ {
		addrs = append(addrs, net.JoinHostPort(c.ListenHost, strconv.Itoa(c.Client.BasePort+i)))
	}
	return addrs
}

// ConfigureLogging applies the logging section to the standard logrus logger.
func (c Config) ConfigureLogging() {
	logrus.SetLevel(c.LogLevel)
	if c.LogJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}
