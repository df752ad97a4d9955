package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPeerDefaults(t *testing.T) {
	p := NewPeer("127.0.0.1", 0, -1)

	assert.Equal(t, DefaultBasePort, p.Port())
	assert.Equal(t, DefaultMaxPortCycle, p.MaxCycle())
	assert.Equal(t, 0, p.Cycle())
	assert.Equal(t, "127.0.0.1:5105", p.Addr())
}

func TestPeerAdvanceStaysInRange(t *testing.T) {
	p := NewPeer("127.0.0.1", DefaultBasePort, DefaultMaxPortCycle)

	for i := 0; i < 500; i++ {
		c := p.Advance()
		assert.GreaterOrEqual(t, c, 0)
		assert.LessOrEqual(t, c, DefaultMaxPortCycle)
		assert.Equal(t, DefaultBasePort+c, p.Port())
	}
}

func TestPeerAdvanceWrapsAfterFullCycle(t *testing.T) {
	for _, start := range []int{0, 1, 25, 50} {
		p := NewPeer("10.0.0.2", DefaultBasePort, DefaultMaxPortCycle)
		for p.Cycle() != start {
			p.Advance()
		}

		for i := 0; i < DefaultMaxPortCycle+1; i++ {
			p.Advance()
		}
		assert.Equal(t, start, p.Cycle(), "51 advances must return to the starting offset")
	}
}

func TestPeerAdvanceWrapsToZero(t *testing.T) {
	p := NewPeer("10.0.0.2", 6000, 2)

	assert.Equal(t, 1, p.Advance())
	assert.Equal(t, 2, p.Advance())
	assert.Equal(t, 0, p.Advance())
	assert.Equal(t, 6000, p.Port())
}

func TestPeerUpdateAddressKeepsCycle(t *testing.T) {
	p := NewPeer("10.0.0.2", DefaultBasePort, DefaultMaxPortCycle)
	p.Advance()
	p.Advance()

	p.UpdateAddress("10.0.0.3")

	assert.Equal(t, "10.0.0.3", p.Host())
	assert.Equal(t, 2, p.Cycle())
	assert.Equal(t, "10.0.0.3:5107", p.Addr())
}

func TestPeerAddrIPv6(t *testing.T) {
	p := NewPeer("::1", 7000, 0)
	assert.Equal(t, "[::1]:7000", p.Addr())
}
