// Package transport manages the TCP connections used by clip transfers.
//
// # Peers and Port Cycling
//
// A Peer is the remote host plus a port offset. The dialed port is
// basePort + cycle, where cycle stays within [0, maxCycle]:
//
//	p := transport.NewPeer("192.168.1.20", transport.DefaultBasePort, transport.DefaultMaxPortCycle)
//	p.Addr()    // "192.168.1.20:5105"
//	p.Advance() // 1
//	p.Addr()    // "192.168.1.20:5106"
//
// Advance increments the offset and wraps to 0 once it would exceed the
// maximum. UpdateAddress swaps the host and keeps the current offset.
//
// # Dialing
//
// Dialer.Dial connects to the peer's current port. If the connect fails it
// advances the peer once and retries exactly one more time. A second failure
// is reported as a *ConnectError carrying the last address tried. The dial
// function can be replaced for tests through Dialer.DialContext.
//
// # Sessions
//
// A Session owns one connection for one exchange and is never reused.
// Reads and writes are buffered; with a positive IOTimeout every read and
// write refreshes its deadline first:
//
//	sess, err := dialer.Dial(ctx, peer)
//	if err != nil {
//	    return err
//	}
//	defer sess.Close()
//
//	wire.WriteRequest(sess.Writer(), id, wire.CommandPull)
//	if err := sess.Flush(); err != nil {
//	    return err
//	}
//	flag, err := wire.ReadPresence(sess.Reader())
//
// Close shuts down the write side, then the read side, then closes the
// socket. It runs once, logs failures and always returns nil.
package transport
