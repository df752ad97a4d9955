package wire

import (
	"fmt"
	"math"
)

// Command identifies the operation requested by a frame.
type Command byte

const (
	// CommandPushFile uploads a single clip with its position.
	CommandPushFile Command = 0
	// CommandPull downloads a clip or archive together with its position.
	CommandPull Command = 1
	// CommandPullPosition queries only the position stored for a request id.
	CommandPullPosition Command = 2
	// CommandPushArchive uploads a zipped directory followed by a TTL trailer.
	CommandPushArchive Command = 4
)

// DefaultArchiveTTL is the cache lifetime hint, in milliseconds, written after
// an archive payload.
const DefaultArchiveTTL int32 = 3600000

// String returns a readable name for the command.
func (c Command) String() string {
	switch c {
	case CommandPushFile:
		return "push-file"
	case CommandPull:
		return "pull"
	case CommandPullPosition:
		return "pull-position"
	case CommandPushArchive:
		return "push-archive"
	default:
		return fmt.Sprintf("command(%d)", byte(c))
	}
}

// Valid reports whether c is one of the known commands.
func (c Command) Valid() bool {
	switch c {
	case CommandPushFile, CommandPull, CommandPullPosition, CommandPushArchive:
		return true
	}
	return false
}

// Position is a point in 3D space attached to a clip.
type Position struct {
	X, Y, Z float32
}

// Sentinel is returned by pull operations when no position is available.
var Sentinel = Position{X: -1, Y: -1, Z: -1}

// IsSentinel reports whether p is the "not available" position.
func (p Position) IsSentinel() bool {
	return p == Sentinel
}

// ApproxEqual reports whether every component of p and q differs by at most tolerance.
func (p Position) ApproxEqual(q Position, tolerance float64) bool {
	return math.Abs(float64(p.X-q.X)) <= tolerance &&
		math.Abs(float64(p.Y-q.Y)) <= tolerance &&
		math.Abs(float64(p.Z-q.Z)) <= tolerance
}

func (p Position) String() string {
	return fmt.Sprintf("(%g, %g, %g)", p.X, p.Y, p.Z)
}
