// Package client implements the requesting side of the clip relay protocol:
// pushing audio clips and zipped directories to a peer, and pulling clips,
// archives and positions back.
//
// # Operations
//
//	c, err := client.New("192.168.1.20", client.DefaultConfig())
//
//	// Push a clip with the speaker's position
//	err := c.SendFile(ctx, id, "/cache/line.mp3", wire.Position{X: 1, Y: 2, Z: 3})
//
//	// Push a directory as a zip archive
//	err = c.SendZip(ctx, id, "/cache/voicepack")
//
//	// Pull a clip into a cache directory
//	pos, path, err := c.GetFile(ctx, id, "/cache", "")
//
//	// Pull and extract an archive
//	pos, dir, err := c.GetZip(ctx, id, "/cache")
//
//	// Query only the position
//	pos, err = c.GetPosition(ctx, id)
//
// # Retries and Port Cycling
//
// Every operation runs inside a bounded retry loop. Each failed attempt
// (connect, read, write or file system error) advances the peer's port
// offset and is retried with the same arguments on a fresh connection, up to
// Config.MaxAttempts attempts. The attempt counter belongs to the operation
// and is back at zero when the call returns.
//
// Failure signalling differs between pushes and pulls. When a push runs out of
// attempts it returns an error wrapping ErrSendFailed and posts one
// SendFailure on the SendFailures channel. When a pull runs out of attempts
// it returns the sentinel position (-1, -1, -1) and a nil error; callers treat
// that as a cache miss.
//
// # Concurrency
//
// A Client runs one operation at a time; concurrent calls on the same Client
// are serialized. Use one Client per remote peer.
package client
