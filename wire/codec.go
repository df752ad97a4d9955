package wire

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"unicode/utf8"

	"github.com/opd-ai/rpvoice/limits"
)

// maxVarintBytes bounds the 7-bit length prefix to a 32-bit value.
const maxVarintBytes = 5

// WriteString writes s as a 7-bit encoded length followed by its UTF-8 bytes.
func WriteString(w io.Writer, s string) error {
	if len(s) > math.MaxInt32 {
		return ErrStringTooLong
	}
	var prefix [maxVarintBytes]byte
	n := binary.PutUvarint(prefix[:], uint64(len(s)))
	if _, err := w.Write(prefix[:n]); err != nil {
		return fmt.Errorf("write string length: %w", err)
	}
	if _, err := io.WriteString(w, s); err != nil {
		return fmt.Errorf("write string: %w", err)
	}
	return nil
}

// ReadString reads a 7-bit length-prefixed UTF-8 string of at most maxLen bytes.
func ReadString(r io.Reader, maxLen int) (string, error) {
	n, err := readLength7(r)
	if err != nil {
		return "", err
	}
	if int64(n) > int64(maxLen) {
		return "", fmt.Errorf("%w: %d bytes exceeds limit %d", ErrStringTooLong, n, maxLen)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("read string: %w", err)
	}
	if !utf8.Valid(buf) {
		return "", fmt.Errorf("read string: invalid UTF-8")
	}
	return string(buf), nil
}

func readLength7(r io.Reader) (uint32, error) {
	var value uint32
	for i := 0; i < maxVarintBytes; i++ {
		b, err := readByte(r)
		if err != nil {
			return 0, fmt.Errorf("read string length: %w", err)
		}
		value |= uint32(b&0x7f) << (7 * i)
		if b&0x80 == 0 {
			return value, nil
		}
	}
	return 0, ErrMalformedLength
}

func readByte(r io.Reader) (byte, error) {
	if br, ok := r.(io.ByteReader); ok {
		return br.ReadByte()
	}
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// WriteRequest writes the request frame that opens every exchange.
func WriteRequest(w io.Writer, requestID string, cmd Command) error {
	if err := limits.ValidateRequestID(requestID); err != nil {
		return err
	}
	if err := WriteString(w, requestID); err != nil {
		return err
	}
	if _, err := w.Write([]byte{byte(cmd)}); err != nil {
		return fmt.Errorf("write command: %w", err)
	}
	return nil
}

// ReadRequest reads a request frame and validates its command byte.
func ReadRequest(r io.Reader) (string, Command, error) {
	id, err := ReadString(r, limits.MaxRequestIDLength)
	if err != nil {
		return "", 0, err
	}
	if err := limits.ValidateRequestID(id); err != nil {
		return "", 0, err
	}
	b, err := readByte(r)
	if err != nil {
		return "", 0, fmt.Errorf("read command: %w", err)
	}
	cmd := Command(b)
	if !cmd.Valid() {
		return "", 0, fmt.Errorf("%w: %d", ErrUnknownCommand, b)
	}
	return id, cmd, nil
}

// WritePosition writes the three position components.
func WritePosition(w io.Writer, p Position) error {
	var buf [12]byte
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(p.X))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(p.Y))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(p.Z))
	if _, err := w.Write(buf[:]); err != nil {
		return fmt.Errorf("write position: %w", err)
	}
	return nil
}

// ReadPosition reads three position components.
func ReadPosition(r io.Reader) (Position, error) {
	var buf [12]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Position{}, fmt.Errorf("read position: %w", err)
	}
	return Position{
		X: math.Float32frombits(binary.LittleEndian.Uint32(buf[0:4])),
		Y: math.Float32frombits(binary.LittleEndian.Uint32(buf[4:8])),
		Z: math.Float32frombits(binary.LittleEndian.Uint32(buf[8:12])),
	}, nil
}

// WriteLength writes a payload length prefix.
func WriteLength(w io.Writer, n int64) error {
	if err := limits.ValidatePayloadSize(n); err != nil {
		return err
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(n))
	if _, err := w.Write(buf[:]); err != nil {
		return fmt.Errorf("write length: %w", err)
	}
	return nil
}

// ReadLength reads a payload length prefix and validates it against the payload limit.
func ReadLength(r io.Reader) (int64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, fmt.Errorf("read length: %w", err)
	}
	n := int64(binary.LittleEndian.Uint64(buf[:]))
	if err := limits.ValidatePayloadSize(n); err != nil {
		return 0, err
	}
	return n, nil
}

// WritePresence writes the flag that precedes an optional pull response body.
func WritePresence(w io.Writer, present bool) error {
	flag := byte(0)
	if present {
		flag = 1
	}
	if _, err := w.Write([]byte{flag}); err != nil {
		return fmt.Errorf("write presence: %w", err)
	}
	return nil
}

// ReadPresence reads the raw presence flag of a pull response.
// Callers decide how to interpret nonzero values.
func ReadPresence(r io.Reader) (byte, error) {
	b, err := readByte(r)
	if err != nil {
		return 0, fmt.Errorf("read presence: %w", err)
	}
	return b, nil
}

// WriteTrailer writes the archive cache lifetime hint.
func WriteTrailer(w io.Writer, ttl int32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(ttl))
	if _, err := w.Write(buf[:]); err != nil {
		return fmt.Errorf("write trailer: %w", err)
	}
	return nil
}

// ReadTrailer reads the archive cache lifetime hint.
func ReadTrailer(r io.Reader) (int32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, fmt.Errorf("read trailer: %w", err)
	}
	return int32(binary.LittleEndian.Uint32(buf[:])), nil
}
