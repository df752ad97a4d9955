package transport

import (
	"errors"
	"fmt"
)

// ErrSessionClosed indicates I/O was attempted on a closed session.
var ErrSessionClosed = errors.New("session closed")

// ConnectError reports a peer that refused or did not answer at the
// attempted address, after the in-place port bump was also tried.
type ConnectError struct {
	Op   string // operation that caused the error
	Addr string // last address tried
	Err  error  // underlying error
}

func (e *ConnectError) Error() string {
	if e.Addr != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}
