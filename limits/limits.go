// Package limits provides centralized size limits for the clip relay protocol.
// This ensures consistent validation across different components of the system.
package limits

import (
	"errors"
	"fmt"
)

const (
	// MaxRequestIDLength is the longest request id, in bytes, accepted on the wire.
	MaxRequestIDLength = 1024

	// MaxPayloadSize is the largest clip or archive payload either side will stream.
	MaxPayloadSize int64 = 1 << 30

	// CopyBufferSize is the chunk size used when streaming payloads.
	CopyBufferSize = 32 * 1024
)

var (
	// ErrRequestIDEmpty indicates an empty request id was provided
	ErrRequestIDEmpty = errors.New("empty request id")

	// ErrRequestIDTooLong indicates the request id exceeds MaxRequestIDLength
	ErrRequestIDTooLong = errors.New("request id too long")

	// ErrPayloadTooLarge indicates a payload length exceeds MaxPayloadSize
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrNegativeLength indicates a negative payload length was declared
	ErrNegativeLength = errors.New("negative payload length")
)

// ValidateRequestID checks that id is non-empty and no longer than MaxRequestIDLength.
// Returns an error with context including the actual and maximum sizes.
func ValidateRequestID(id string) error {
	if len(id) == 0 {
		return ErrRequestIDEmpty
	}
	if len(id) > MaxRequestIDLength {
		return fmt.Errorf("%w: length %d exceeds limit %d", ErrRequestIDTooLong, len(id), MaxRequestIDLength)
	}
	return nil
}

// ValidatePayloadSize validates a declared payload length against MaxPayloadSize.
// Zero-length payloads are valid; an empty clip is still a clip.
func ValidatePayloadSize(n int64) error {
	return ValidatePayloadSizeLimit(n, MaxPayloadSize)
}

// ValidatePayloadSizeLimit validates a declared payload length against a custom limit.
func ValidatePayloadSizeLimit(n, maxSize int64) error {
	if n < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeLength, n)
	}
	if n > maxSize {
		return fmt.Errorf("%w: size %d exceeds limit %d", ErrPayloadTooLarge, n, maxSize)
	}
	return nil
}
