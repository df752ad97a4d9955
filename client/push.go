package client

import (
	"context"
	"fmt"
	"os"

	"github.com/opd-ai/rpvoice/file"
	"github.com/opd-ai/rpvoice/limits"
	"github.com/opd-ai/rpvoice/transport"
	"github.com/opd-ai/rpvoice/wire"
	"github.com/sirupsen/logrus"
)

// SendFile pushes the clip at path to the peer under requestID together
// with its position. It returns nil once every byte has been flushed to the
// socket. When all attempts fail the returned error wraps ErrSendFailed and a
// SendFailure is posted on SendFailures.
func (c *Client) SendFile(ctx context.Context, requestID, path string, pos wire.Position) error {
	if err := limits.ValidateRequestID(requestID); err != nil {
		return err
	}

	err := c.run(ctx, "SendFile", requestID, func(sess *transport.Session) error {
		return c.pushFile(sess, requestID, path, pos)
	})
	return c.finishPush("SendFile", requestID, err)
}

// SendZip zips dir into a sibling archive, pushes it to the peer under
// requestID followed by the archive TTL trailer, and deletes the local
// archive. Failure signalling matches SendFile.
func (c *Client) SendZip(ctx context.Context, requestID, dir string) error {
	if err := limits.ValidateRequestID(requestID); err != nil {
		return err
	}

	err := c.run(ctx, "SendZip", requestID, func(sess *transport.Session) error {
		return c.pushArchive(sess, requestID, dir)
	})
	return c.finishPush("SendZip", requestID, err)
}

func (c *Client) pushFile(sess *transport.Session, requestID, path string, pos wire.Position) error {
	f, size, err := openPayload(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := sess.Writer()
	if err := wire.WriteRequest(w, requestID, wire.CommandPushFile); err != nil {
		return err
	}
	if err := wire.WritePosition(w, pos); err != nil {
		return err
	}
	if err := c.sendPayload(sess, requestID, path, f, size); err != nil {
		return err
	}
	if err := sess.Flush(); err != nil {
		return fmt.Errorf("flush clip: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function":   "SendFile",
		"request_id": requestID,
		"path":       path,
		"size":       size,
		"position":   pos.String(),
	}).Debug("Clip sent")
	return nil
}

func (c *Client) pushArchive(sess *transport.Session, requestID, dir string) error {
	zipPath, err := file.Pack(dir)
	if err != nil {
		return err
	}
	defer removeLogged("SendZip", zipPath)

	f, size, err := openPayload(zipPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := sess.Writer()
	if err := wire.WriteRequest(w, requestID, wire.CommandPushArchive); err != nil {
		return err
	}
	if err := c.sendPayload(sess, requestID, zipPath, f, size); err != nil {
		return err
	}
	if err := wire.WriteTrailer(w, c.cfg.ArchiveTTL); err != nil {
		return err
	}
	if err := sess.Flush(); err != nil {
		return fmt.Errorf("flush archive: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function":   "SendZip",
		"request_id": requestID,
		"dir":        dir,
		"size":       size,
	}).Debug("Archive sent")
	return nil
}

// sendPayload writes the length prefix followed by exactly size bytes of f.
func (c *Client) sendPayload(sess *transport.Session, requestID, path string, f *os.File, size int64) error {
	if err := wire.WriteLength(sess.Writer(), size); err != nil {
		return err
	}
	t := file.NewTransfer(requestID, path, size, file.TransferDirectionOutgoing)
	t.OnProgress(c.progressFunc(requestID, size))
	_, err := t.Copy(sess.Writer(), f)
	return err
}

func openPayload(path string) (*os.File, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open payload: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("stat payload: %w", err)
	}
	if info.IsDir() {
		f.Close()
		return nil, 0, fmt.Errorf("open payload: %s is a directory", path)
	}
	if err := limits.ValidatePayloadSize(info.Size()); err != nil {
		f.Close()
		return nil, 0, err
	}
	return f, info.Size(), nil
}

func removeLogged(op, path string) {
	if err := file.Remove(path); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": op,
			"path":     path,
			"error":    err.Error(),
		}).Warn("Failed to remove temporary archive")
	}
}
