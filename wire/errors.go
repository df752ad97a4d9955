package wire

import "errors"

var (
	// ErrStringTooLong indicates a string length prefix exceeds the accepted maximum
	ErrStringTooLong = errors.New("wire: string too long")

	// ErrMalformedLength indicates a 7-bit length prefix did not terminate within five bytes
	ErrMalformedLength = errors.New("wire: malformed 7-bit length prefix")

	// ErrUnknownCommand indicates a request frame carried an unknown command byte
	ErrUnknownCommand = errors.New("wire: unknown command")
)
