// Package limits provides centralized size constants and validation functions
// for the clip relay wire protocol. Every component that accepts a request id
// or a payload length from a caller or from the network validates it here so
// the bounds are enforced consistently.
//
// # Size Hierarchy
//
//   - MaxRequestIDLength (1024 bytes): The longest correlation token accepted
//     in a request frame. Request ids are usually 32-character hex digests.
//
//   - MaxPayloadSize (1 GiB): The largest clip or archive payload either side
//     will stream. Payloads are copied in bounded chunks, so this limit guards
//     disk usage rather than memory.
//
// # Validation Functions
//
//	if err := limits.ValidateRequestID(id); err != nil {
//	    // ErrRequestIDEmpty or ErrRequestIDTooLong
//	}
//
//	if err := limits.ValidatePayloadSize(n); err != nil {
//	    // ErrPayloadTooLarge or ErrNegativeLength
//	}
//
// # Security Considerations
//
// Lengths read from the network are attacker controlled. They must be
// validated before any file is created for the payload.
package limits
