// Package relay implements the listening side of the clip relay protocol.
//
// A Server accepts one request per TCP connection, stores pushed clips and
// archives on disk, and answers pull and position requests from that store.
// Stored payloads expire: clips after Config.ClipTTL and archives after the
// lifetime carried in their trailer.
//
// Example:
//
//	srv, err := relay.NewServer(relay.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer srv.Close()
//
//	if _, err := srv.Listen("0.0.0.0:5105"); err != nil {
//	    log.Fatal(err)
//	}
package relay
