package client

import (
	"archive/zip"
	"bufio"
	"bytes"
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/opd-ai/rpvoice/relay"
	"github.com/opd-ai/rpvoice/wire"
	"github.com/stretchr/testify/require"
)

var errRefused = errors.New("connection refused")

// redirectDialer records every dialed address. The first failures dials are
// refused; later ones connect to target regardless of the requested port.
type redirectDialer struct {
	mu       sync.Mutex
	target   string
	failures int
	addrs    []string
}

func (d *redirectDialer) dial(ctx context.Context, network, address string) (net.Conn, error) {
	d.mu.Lock()
	d.addrs = append(d.addrs, address)
	refuse := d.target == "" || len(d.addrs) <= d.failures
	d.mu.Unlock()

	if refuse {
		return nil, errRefused
	}
	var nd net.Dialer
	return nd.DialContext(ctx, network, d.target)
}

func (d *redirectDialer) calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.addrs)
}

func testConfig(dial *redirectDialer) Config {
	cfg := DefaultConfig()
	cfg.DialTimeout = 2 * time.Second
	cfg.IOTimeout = 5 * time.Second
	cfg.Dial = dial.dial
	return cfg
}

func newTestClient(t *testing.T, dial *redirectDialer) *Client {
	t.Helper()
	c, err := New("127.0.0.1", testConfig(dial))
	require.NoError(t, err)
	return c
}

func startRelay(t *testing.T) (*relay.Server, string) {
	t.Helper()
	cfg := relay.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.IOTimeout = 5 * time.Second

	srv, err := relay.NewServer(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })

	addr, err := srv.Listen("127.0.0.1:0")
	require.NoError(t, err)
	return srv, addr.String()
}

func waitStored(t *testing.T, srv *relay.Server, requestID string) {
	t.Helper()
	require.Eventually(t, func() bool {
		_, ok := srv.Store().Lookup(requestID)
		return ok
	}, 2*time.Second, 10*time.Millisecond)
}

// scriptedPeer reads one request frame per connection, lets respond write
// the answer and closes the connection. It returns the listen address and a
// counter of served connections.
func scriptedPeer(t *testing.T, respond func(w *bufio.Writer, requestID string, cmd wire.Command)) (string, *atomic.Int32) {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	var served atomic.Int32
	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()
				conn.SetDeadline(time.Now().Add(5 * time.Second))

				id, cmd, err := wire.ReadRequest(bufio.NewReader(conn))
				if err != nil {
					return
				}
				w := bufio.NewWriter(conn)
				respond(w, id, cmd)
				w.Flush()
				served.Add(1)
			}(conn)
		}
	}()
	return l.Addr().String(), &served
}

// truncatedPayload announces length bytes and sends only sent of them.
func truncatedPayload(length, sent int) func(w *bufio.Writer, requestID string, cmd wire.Command) {
	return func(w *bufio.Writer, requestID string, cmd wire.Command) {
		wire.WritePresence(w, true)
		wire.WritePosition(w, wire.Position{X: 1, Y: 2, Z: 3})
		wire.WriteLength(w, int64(length))
		w.Write(bytes.Repeat([]byte{0xAB}, sent))
	}
}

// servePayload answers every pull with the given bytes.
func servePayload(payload []byte) func(w *bufio.Writer, requestID string, cmd wire.Command) {
	return func(w *bufio.Writer, requestID string, cmd wire.Command) {
		wire.WritePresence(w, true)
		wire.WritePosition(w, wire.Sentinel)
		wire.WriteLength(w, int64(len(payload)))
		w.Write(payload)
	}
}

type zipEntry struct {
	name string
	body string
}

// zipBytes builds an archive holding entries in order, names taken verbatim.
func zipBytes(t *testing.T, entries ...zipEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(e.body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func newLimitedClient(t *testing.T, target string, maxAttempts int) *Client {
	t.Helper()
	cfg := testConfig(&redirectDialer{target: target})
	cfg.MaxAttempts = maxAttempts
	c, err := New("127.0.0.1", cfg)
	require.NoError(t, err)
	return c
}
