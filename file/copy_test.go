package file

import (
	"bytes"
	"errors"
	"testing"

	"github.com/opd-ai/rpvoice/limits"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyNStopsAtDeclaredLength(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAB}, 100_000)
	trailing := []byte("next-frame")
	src := &chunkReader{data: append(append([]byte{}, payload...), trailing...), chunkSize: 1 << 20}

	var dst bytes.Buffer
	n, err := CopyN(&dst, src, int64(len(payload)), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), n)
	assert.Equal(t, payload, dst.Bytes())

	// The bytes after the payload must still be unread.
	assert.Equal(t, len(payload), src.pos)
	assert.LessOrEqual(t, src.maxRequest, limits.CopyBufferSize)
}

func TestCopyNHandlesPartialReads(t *testing.T) {
	payload := make([]byte, 10_000)
	for i := range payload {
		payload[i] = byte(i)
	}
	src := &chunkReader{data: payload, chunkSize: 7}

	var dst bytes.Buffer
	var chunks, total int
	n, err := CopyN(&dst, src, int64(len(payload)), func(c int) {
		chunks++
		total += c
	})
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), n)
	assert.Equal(t, payload, dst.Bytes())
	assert.Equal(t, len(payload), total)
	assert.Greater(t, chunks, 1)
}

func TestCopyNShortPayload(t *testing.T) {
	src := &chunkReader{data: []byte("short"), chunkSize: 64}

	var dst bytes.Buffer
	n, err := CopyN(&dst, src, 10, nil)
	assert.ErrorIs(t, err, ErrShortPayload)
	assert.Equal(t, int64(5), n)
}

func TestCopyNZeroLength(t *testing.T) {
	src := &chunkReader{data: []byte("untouched"), chunkSize: 64}

	var dst bytes.Buffer
	n, err := CopyN(&dst, src, 0, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, src.readCalls)
}

func TestCopyNWriteFailure(t *testing.T) {
	boom := errors.New("disk full")
	src := &chunkReader{data: make([]byte, 1000), chunkSize: 100}
	dst := &failingWriter{limit: 250, err: boom}

	n, err := CopyN(dst, src, 1000, nil)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(250), n)
}

func TestCopyNNegativeLength(t *testing.T) {
	_, err := CopyN(&bytes.Buffer{}, &chunkReader{}, -1, nil)
	assert.ErrorIs(t, err, limits.ErrNegativeLength)
}
