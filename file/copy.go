package file

import (
	"errors"
	"fmt"
	"io"

	"github.com/opd-ai/rpvoice/limits"
)

// ErrShortPayload indicates the source ended before the declared length was copied.
var ErrShortPayload = errors.New("payload shorter than declared length")

// CopyN copies exactly n bytes from src to dst through a fixed 32 KiB buffer.
// It never requests more than the remaining byte count from src, so bytes
// following the payload stay unread. onChunk, if non-nil, is called with the
// size of every chunk written.
func CopyN(dst io.Writer, src io.Reader, n int64, onChunk func(int)) (int64, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: %d", limits.ErrNegativeLength, n)
	}

	buf := make([]byte, limits.CopyBufferSize)
	var written int64

	for written < n {
		want := int64(len(buf))
		if remaining := n - written; remaining < want {
			want = remaining
		}

		nr, rerr := src.Read(buf[:want])
		if nr > 0 {
			nw, werr := dst.Write(buf[:nr])
			written += int64(nw)
			if werr != nil {
				return written, fmt.Errorf("write payload: %w", werr)
			}
			if nw != nr {
				return written, fmt.Errorf("write payload: %w", io.ErrShortWrite)
			}
			if onChunk != nil {
				onChunk(nw)
			}
		}

		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				if written == n {
					break
				}
				return written, fmt.Errorf("%w: got %d of %d bytes", ErrShortPayload, written, n)
			}
			return written, fmt.Errorf("read payload: %w", rerr)
		}
	}

	return written, nil
}
