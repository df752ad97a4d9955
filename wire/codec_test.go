package wire

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/opd-ai/rpvoice/limits"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// oneByteReader hides io.ByteReader and returns a single byte per call.
type oneByteReader struct {
	r io.Reader
}

func (o *oneByteReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	return o.r.Read(p[:1])
}

func TestWriteRequestLayout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRequest(&buf, "abc123", CommandPull))

	want := []byte{0x06, 'a', 'b', 'c', '1', '2', '3', 0x01}
	assert.Equal(t, want, buf.Bytes())
}

func TestWriteStringLongPrefix(t *testing.T) {
	var buf bytes.Buffer
	s := strings.Repeat("x", 200)
	require.NoError(t, WriteString(&buf, s))

	// 200 = 0b1_1001000 -> 0xC8 0x01
	assert.Equal(t, []byte{0xC8, 0x01}, buf.Bytes()[:2])
	assert.Equal(t, 202, buf.Len())

	got, err := ReadString(&oneByteReader{r: &buf}, 1024)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestReadStringRejectsOversized(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteString(&buf, strings.Repeat("x", 64)))

	_, err := ReadString(&buf, 16)
	assert.ErrorIs(t, err, ErrStringTooLong)
}

func TestReadStringMalformedPrefix(t *testing.T) {
	r := bytes.NewReader([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01})
	_, err := ReadString(r, 1024)
	assert.ErrorIs(t, err, ErrMalformedLength)
}

func TestReadStringInvalidUTF8(t *testing.T) {
	r := bytes.NewReader([]byte{0x02, 0xC3, 0x28})
	_, err := ReadString(r, 1024)
	assert.Error(t, err)
}

func TestRequestRoundTrip(t *testing.T) {
	for _, cmd := range []Command{CommandPushFile, CommandPull, CommandPullPosition, CommandPushArchive} {
		t.Run(cmd.String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteRequest(&buf, "9E107D9D372BB6826BD81D3542A419D6", cmd))

			id, got, err := ReadRequest(&buf)
			require.NoError(t, err)
			assert.Equal(t, "9E107D9D372BB6826BD81D3542A419D6", id)
			assert.Equal(t, cmd, got)
		})
	}
}

func TestReadRequestUnknownCommand(t *testing.T) {
	r := bytes.NewReader([]byte{0x01, 'a', 0x03})
	_, _, err := ReadRequest(r)
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestWriteRequestRejectsEmptyID(t *testing.T) {
	var buf bytes.Buffer
	err := WriteRequest(&buf, "", CommandPull)
	assert.ErrorIs(t, err, limits.ErrRequestIDEmpty)
	assert.Zero(t, buf.Len(), "nothing should be written for an invalid id")
}

func TestPositionLayout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePosition(&buf, Position{X: 1, Y: 2, Z: 3}))

	want := []byte{
		0x00, 0x00, 0x80, 0x3F,
		0x00, 0x00, 0x00, 0x40,
		0x00, 0x00, 0x40, 0x40,
	}
	assert.Equal(t, want, buf.Bytes())

	p, err := ReadPosition(&buf)
	require.NoError(t, err)
	assert.Equal(t, Position{X: 1, Y: 2, Z: 3}, p)
}

func TestLengthLayout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteLength(&buf, 10))
	assert.Equal(t, []byte{10, 0, 0, 0, 0, 0, 0, 0}, buf.Bytes())

	n, err := ReadLength(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)
}

func TestReadLengthRejectsHostileValues(t *testing.T) {
	negative := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	_, err := ReadLength(bytes.NewReader(negative))
	assert.ErrorIs(t, err, limits.ErrNegativeLength)

	huge := []byte{0, 0, 0, 0, 0, 0, 0, 0x10}
	_, err = ReadLength(bytes.NewReader(huge))
	assert.ErrorIs(t, err, limits.ErrPayloadTooLarge)
}

func TestTrailerLayout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTrailer(&buf, DefaultArchiveTTL))
	assert.Equal(t, []byte{0x80, 0xEE, 0x36, 0x00}, buf.Bytes())

	ttl, err := ReadTrailer(&buf)
	require.NoError(t, err)
	assert.Equal(t, DefaultArchiveTTL, ttl)
}

func TestPresence(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePresence(&buf, true))
	require.NoError(t, WritePresence(&buf, false))
	assert.Equal(t, []byte{1, 0}, buf.Bytes())

	_, err := ReadPresence(bytes.NewReader(nil))
	assert.True(t, errors.Is(err, io.EOF))
}

func TestPositionHelpers(t *testing.T) {
	assert.True(t, Sentinel.IsSentinel())
	assert.False(t, Position{}.IsSentinel())
	assert.True(t, Position{1, 2, 3}.ApproxEqual(Position{1.0000001, 2, 3}, 1e-5))
	assert.False(t, Position{1, 2, 3}.ApproxEqual(Position{1.1, 2, 3}, 1e-5))
	assert.Equal(t, "command(9)", Command(9).String())
}
