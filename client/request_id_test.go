package client

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/opd-ai/rpvoice/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestID(t *testing.T) {
	assert.Equal(t, "D41D8CD98F00B204E9800998ECF8427E", RequestID("", ""))
	assert.Equal(t, "900150983CD24FB0D6963F7D28E17F72", RequestID("a", "bc"))
	assert.Equal(t, RequestID("ab", "c"), RequestID("a", "bc"))
	assert.Equal(t, RequestID("?", "caf?"), RequestID("é", "café"))
	assert.NotEqual(t, RequestID("Alice", "hello"), RequestID("Bob", "hello"))
}

func TestFetchClipUsesCache(t *testing.T) {
	dial := &redirectDialer{}
	c := newTestClient(t, dial)

	cacheDir := t.TempDir()
	cached := filepath.Join(cacheDir, "cached.mp3")
	require.NoError(t, os.WriteFile(cached, []byte("x"), 0o644))

	path, found, err := c.FetchClip(context.Background(), "cached", cacheDir)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, cached, path)
	assert.Zero(t, dial.calls())
}

func TestFetchClipPullsFromPeer(t *testing.T) {
	srv, addr := startRelay(t)
	c := newTestClient(t, &redirectDialer{target: addr})

	id := RequestID("Alice", "Well met, traveller.")
	src := filepath.Join(t.TempDir(), "line.mp3")
	require.NoError(t, os.WriteFile(src, []byte("voice"), 0o644))
	require.NoError(t, c.SendFile(context.Background(), id, src, wire.Position{X: 1}))
	waitStored(t, srv, id)

	cacheDir := t.TempDir()
	path, found, err := c.FetchClip(context.Background(), id, cacheDir)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, filepath.Join(cacheDir, id+".mp3"), path)

	_, found, err = c.FetchClip(context.Background(), "missing", cacheDir)
	require.NoError(t, err)
	assert.False(t, found)
}
