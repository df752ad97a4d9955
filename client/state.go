package client

// State is the position of the active operation in its connection lifecycle.
type State int32

const (
	// StateIdle means no operation is running.
	StateIdle State = iota
	// StateConnecting means a session is being dialed.
	StateConnecting
	// StateConnected means the session is open.
	StateConnected
	// StateTransferring means frames or payload bytes are moving.
	StateTransferring
	// StateClosed means the operation finished successfully.
	StateClosed
	// StateConnectFailed means the attempt failed.
	StateConnectFailed
	// StatePortAdvance means the port offset is moving before the next attempt.
	StatePortAdvance
	// StateFailed means every attempt failed.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateTransferring:
		return "transferring"
	case StateClosed:
		return "closed"
	case StateConnectFailed:
		return "connect-failed"
	case StatePortAdvance:
		return "port-advance"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
