package file

import (
	"io"
	"time"
)

// mockTimeProvider provides deterministic time for testing.
type mockTimeProvider struct {
	currentTime time.Time
}

func (m *mockTimeProvider) Now() time.Time {
	return m.currentTime
}

func (m *mockTimeProvider) Since(t time.Time) time.Duration {
	return m.currentTime.Sub(t)
}

func (m *mockTimeProvider) advance(d time.Duration) {
	m.currentTime = m.currentTime.Add(d)
}

func newMockTimeProvider() *mockTimeProvider {
	return &mockTimeProvider{
		currentTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// chunkReader returns at most chunkSize bytes per Read and records the
// largest request it saw.
type chunkReader struct {
	data       []byte
	pos        int
	chunkSize  int
	maxRequest int
	readCalls  int
}

func (c *chunkReader) Read(p []byte) (int, error) {
	c.readCalls++
	if len(p) > c.maxRequest {
		c.maxRequest = len(p)
	}
	if c.pos >= len(c.data) {
		return 0, io.EOF
	}
	n := len(p)
	if n > c.chunkSize {
		n = c.chunkSize
	}
	if n > len(c.data)-c.pos {
		n = len(c.data) - c.pos
	}
	copy(p, c.data[c.pos:c.pos+n])
	c.pos += n
	return n, nil
}

// failingWriter fails after accepting limit bytes.
type failingWriter struct {
	limit   int
	written int
	err     error
}

func (f *failingWriter) Write(p []byte) (int, error) {
	if f.written+len(p) > f.limit {
		n := f.limit - f.written
		f.written = f.limit
		return n, f.err
	}
	f.written += len(p)
	return len(p), nil
}
