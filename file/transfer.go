package file

import (
	"errors"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrDirectoryTraversal indicates an attempt to access files outside allowed directories.
var ErrDirectoryTraversal = errors.New("path contains directory traversal")

// ErrTransferNotPending indicates Copy was called on a transfer that already ran.
var ErrTransferNotPending = errors.New("transfer already started")

// TransferDirection indicates whether a payload is being received or sent.
type TransferDirection uint8

const (
	// TransferDirectionIncoming represents a payload being received.
	TransferDirectionIncoming TransferDirection = iota
	// TransferDirectionOutgoing represents a payload being sent.
	TransferDirectionOutgoing
)

func (d TransferDirection) String() string {
	if d == TransferDirectionOutgoing {
		return "outgoing"
	}
	return "incoming"
}

// TransferState represents the current state of a payload transfer.
type TransferState uint8

const (
	// TransferStatePending indicates the transfer is waiting to start.
	TransferStatePending TransferState = iota
	// TransferStateRunning indicates bytes are being copied.
	TransferStateRunning
	// TransferStateCompleted indicates the declared length was fully copied.
	TransferStateCompleted
	// TransferStateError indicates the copy failed.
	TransferStateError
)

// TimeProvider abstracts time operations for deterministic testing.
type TimeProvider interface {
	Now() time.Time
	Since(t time.Time) time.Duration
}

// DefaultTimeProvider uses the standard library time functions.
type DefaultTimeProvider struct{}

// Now returns the current time.
func (DefaultTimeProvider) Now() time.Time { return time.Now() }

// Since returns the duration since t.
func (DefaultTimeProvider) Since(t time.Time) time.Duration { return time.Since(t) }

var defaultTimeProvider TimeProvider = DefaultTimeProvider{}

// Transfer tracks a single length-prefixed payload copy.
type Transfer struct {
	RequestID   string
	Direction   TransferDirection
	Path        string
	Size        int64
	State       TransferState
	StartTime   time.Time
	Transferred int64
	Error       error

	progressCallback func(int64)
	completeCallback func(error)

	mu            sync.Mutex
	lastChunkTime time.Time
	transferSpeed float64 // bytes per second
	timeProvider  TimeProvider
}

// NewTransfer creates a pending transfer of size bytes for requestID.
// Path is informational and names the local side of the copy.
func NewTransfer(requestID, path string, size int64, direction TransferDirection) *Transfer {
	tp := defaultTimeProvider
	return &Transfer{
		RequestID:     requestID,
		Direction:     direction,
		Path:          path,
		Size:          size,
		State:         TransferStatePending,
		lastChunkTime: tp.Now(),
		timeProvider:  tp,
	}
}

// SetTimeProvider sets a custom time provider for deterministic testing.
// Also resets lastChunkTime to the new provider's current time.
func (t *Transfer) SetTimeProvider(tp TimeProvider) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timeProvider = tp
	t.lastChunkTime = tp.Now()
}

// ValidatePath checks if a file path is safe from directory traversal attacks.
// It returns the cleaned path or an error if the path contains traversal attempts.
func ValidatePath(path string) (string, error) {
	cleanedPath := filepath.Clean(path)

	for _, part := range strings.Split(filepath.ToSlash(cleanedPath), "/") {
		if part == ".." {
			return "", ErrDirectoryTraversal
		}
	}

	return cleanedPath, nil
}

// Copy streams exactly Size bytes from src to dst, updating progress after
// every chunk. A transfer can only be copied once.
func (t *Transfer) Copy(dst io.Writer, src io.Reader) (int64, error) {
	t.mu.Lock()
	if t.State != TransferStatePending {
		t.mu.Unlock()
		return 0, ErrTransferNotPending
	}
	t.State = TransferStateRunning
	t.StartTime = t.timeProvider.Now()
	t.lastChunkTime = t.StartTime
	t.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":   "Transfer.Copy",
		"request_id": t.RequestID,
		"direction":  t.Direction,
		"path":       t.Path,
		"size":       t.Size,
	}).Debug("Starting payload copy")

	n, err := CopyN(dst, src, t.Size, t.updateProgress)

	t.mu.Lock()
	t.complete(err)
	t.mu.Unlock()

	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":    "Transfer.Copy",
			"request_id":  t.RequestID,
			"direction":   t.Direction,
			"transferred": n,
			"size":        t.Size,
			"error":       err.Error(),
		}).Warn("Payload copy failed")
	}
	return n, err
}

// updateProgress records a copied chunk and invokes the progress callback.
func (t *Transfer) updateProgress(chunk int) {
	t.mu.Lock()
	t.Transferred += int64(chunk)
	t.updateTransferSpeed(int64(chunk))
	cb := t.progressCallback
	transferred := t.Transferred
	t.mu.Unlock()

	if cb != nil {
		cb(transferred)
	}
}

// complete marks the transfer as finished. Caller holds t.mu.
func (t *Transfer) complete(err error) {
	if err != nil {
		t.State = TransferStateError
		t.Error = err
	} else {
		t.State = TransferStateCompleted
	}

	if t.completeCallback != nil {
		t.completeCallback(err)
	}
}

// updateTransferSpeed calculates the current transfer speed. Caller holds t.mu.
func (t *Transfer) updateTransferSpeed(chunkSize int64) {
	now := t.timeProvider.Now()
	duration := t.timeProvider.Since(t.lastChunkTime).Seconds()

	if duration > 0 {
		instantSpeed := float64(chunkSize) / duration

		// Exponential moving average with alpha = 0.3
		if t.transferSpeed == 0 {
			t.transferSpeed = instantSpeed
		} else {
			t.transferSpeed = 0.7*t.transferSpeed + 0.3*instantSpeed
		}
	}

	t.lastChunkTime = now
}

// OnProgress sets a callback invoked with the running byte count after each chunk.
// This method is safe for concurrent use.
func (t *Transfer) OnProgress(callback func(int64)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.progressCallback = callback
}

// OnComplete sets a callback invoked once when the copy finishes or fails.
// This method is safe for concurrent use.
func (t *Transfer) OnComplete(callback func(error)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.completeCallback = callback
}

// GetState returns the current transfer state.
func (t *Transfer) GetState() TransferState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.State
}

// GetProgress returns the current progress of the transfer as a percentage.
func (t *Transfer) GetProgress() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.Size == 0 {
		if t.State == TransferStateCompleted {
			return 100.0
		}
		return 0.0
	}

	return float64(t.Transferred) / float64(t.Size) * 100.0
}

// GetSpeed returns the current transfer speed in bytes per second.
func (t *Transfer) GetSpeed() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.transferSpeed
}

// GetEstimatedTimeRemaining returns the estimated time remaining for the transfer.
func (t *Transfer) GetEstimatedTimeRemaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.State != TransferStateRunning || t.transferSpeed <= 0 {
		return 0
	}

	bytesRemaining := t.Size - t.Transferred
	secondsRemaining := float64(bytesRemaining) / t.transferSpeed

	return time.Duration(secondsRemaining * float64(time.Second))
}
