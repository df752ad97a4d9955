// Package wire implements the fixed binary layout of the clip relay protocol.
//
// Every exchange opens with a request frame: a length-prefixed request id
// followed by a single command byte. What follows depends on the command:
//
//	CommandPushFile      id, 0, X, Y, Z, length, payload
//	CommandPull          id, 1            -> flag, [X, Y, Z, length, payload]
//	CommandPullPosition  id, 2            -> flag, [X, Y, Z]
//	CommandPushArchive   id, 4, length, payload, trailer
//
// Strings use a 7-bit variable length prefix followed by UTF-8 bytes.
// Positions are three little-endian float32 values, lengths are little-endian
// int64, and the archive trailer is a little-endian int32. There is no
// version byte; both peers must agree on this layout.
//
// The functions in this package read and write single fields. They never
// buffer beyond the field they handle, so a payload can be streamed from the
// same reader immediately after its length prefix.
package wire
