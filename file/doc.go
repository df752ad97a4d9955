// Package file implements the payload side of clip transfers: bounded
// streaming of a declared number of bytes, progress tracking for a single
// payload, and zip packaging of directories around the stream.
//
// # Bounded Copies
//
// Every payload on the wire is preceded by its exact length. CopyN moves
// exactly that many bytes using a fixed 32 KiB buffer, so memory use does not
// depend on the payload size and a copy never consumes bytes beyond the
// payload boundary even when the peer keeps the connection open:
//
//	n, err := file.CopyN(dst, conn, length, nil)
//	if errors.Is(err, file.ErrShortPayload) {
//	    // peer closed before sending the declared length
//	}
//
// # Transfers
//
// Transfer wraps one payload copy with progress tracking:
//
//	transfer := file.NewTransfer(requestID, path, size, file.TransferDirectionOutgoing)
//	transfer.OnProgress(func(sent int64) {
//	    fmt.Printf("%.1f%%\n", float64(sent)/float64(size)*100)
//	})
//	_, err := transfer.Copy(conn, source)
//
// Transfers move through Pending, Running and then Completed or Error. Speed
// is an exponential moving average; a TimeProvider can be injected for
// deterministic tests.
//
// # Archives
//
// Pack zips the contents of a directory into a sibling "<dir>.zip", always
// replacing a stale archive first. Unpack extracts an archive into a fresh
// directory, removing whatever was there before. Both are backed by
// github.com/mholt/archiver.
//
// # Path Validation
//
// ValidatePath rejects paths containing directory traversal components and is
// applied to caller supplied file names before anything is created on disk.
package file
