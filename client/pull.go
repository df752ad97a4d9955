package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/opd-ai/rpvoice/file"
	"github.com/opd-ai/rpvoice/limits"
	"github.com/opd-ai/rpvoice/transport"
	"github.com/opd-ai/rpvoice/wire"
	"github.com/sirupsen/logrus"
)

// GetFile pulls the clip stored under requestID into destDir, naming it
// after name when non-empty and after requestID otherwise. It returns the
// clip's position and the local path. When the peer has no clip, or every
// attempt fails, the position is wire.Sentinel and nothing is written at the
// returned path; the error is nil in both cases.
func (c *Client) GetFile(ctx context.Context, requestID, destDir, name string) (wire.Position, string, error) {
	if err := limits.ValidateRequestID(requestID); err != nil {
		return wire.Sentinel, "", err
	}
	base := requestID
	if name != "" {
		base = name
	}
	if _, err := file.ValidatePath(base); err != nil {
		return wire.Sentinel, "", err
	}
	path := filepath.Join(destDir, base+c.cfg.ClipExt)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return wire.Sentinel, path, fmt.Errorf("create destination: %w", err)
	}

	pos := wire.Sentinel
	err := c.run(ctx, "GetFile", requestID, func(sess *transport.Session) error {
		p, err := c.pullFile(sess, requestID, path)
		if err != nil {
			return err
		}
		pos = p
		return nil
	})
	return finishPull(pos, path, err)
}

// GetZip pulls the archive stored under requestID and extracts it into
// destDir/requestID, replacing any earlier extraction. The returned path is
// always that directory; it only exists when the peer had the archive. A
// failed extraction removes the directory, so an exhausted pull never leaves
// a partial one behind.
func (c *Client) GetZip(ctx context.Context, requestID, destDir string) (wire.Position, string, error) {
	if err := limits.ValidateRequestID(requestID); err != nil {
		return wire.Sentinel, "", err
	}
	if _, err := file.ValidatePath(requestID); err != nil {
		return wire.Sentinel, "", err
	}
	extractDir := filepath.Join(destDir, requestID)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return wire.Sentinel, extractDir, fmt.Errorf("create destination: %w", err)
	}

	pos := wire.Sentinel
	err := c.run(ctx, "GetZip", requestID, func(sess *transport.Session) error {
		p, err := c.pullArchive(sess, requestID, destDir, extractDir)
		if err != nil {
			return err
		}
		pos = p
		return nil
	})
	return finishPull(pos, extractDir, err)
}

// GetPosition asks the peer for the position stored under requestID. It
// returns wire.Sentinel when the peer has none or every attempt fails.
func (c *Client) GetPosition(ctx context.Context, requestID string) (wire.Position, error) {
	if err := limits.ValidateRequestID(requestID); err != nil {
		return wire.Sentinel, err
	}

	pos := wire.Sentinel
	err := c.run(ctx, "GetPosition", requestID, func(sess *transport.Session) error {
		if err := c.request(sess, requestID, wire.CommandPullPosition); err != nil {
			return err
		}
		flag, err := wire.ReadPresence(sess.Reader())
		if err != nil {
			return err
		}
		if flag != 1 {
			return nil
		}
		p, err := wire.ReadPosition(sess.Reader())
		if err != nil {
			return err
		}
		pos = p
		return nil
	})
	pos, _, err = finishPull(pos, "", err)
	return pos, err
}

// finishPull turns an exhausted pull into a silent sentinel result.
func finishPull(pos wire.Position, path string, err error) (wire.Position, string, error) {
	if err == nil {
		return pos, path, nil
	}
	if errors.Is(err, ErrRetriesExhausted) {
		return wire.Sentinel, path, nil
	}
	return wire.Sentinel, path, err
}

func (c *Client) request(sess *transport.Session, requestID string, cmd wire.Command) error {
	if err := wire.WriteRequest(sess.Writer(), requestID, cmd); err != nil {
		return err
	}
	if err := sess.Flush(); err != nil {
		return fmt.Errorf("flush request: %w", err)
	}
	return nil
}

// readPullHeader sends a pull request and reads the response up to the
// payload. ok is false when the peer reported no data.
func (c *Client) readPullHeader(sess *transport.Session, requestID string) (pos wire.Position, length int64, ok bool, err error) {
	if err := c.request(sess, requestID, wire.CommandPull); err != nil {
		return wire.Sentinel, 0, false, err
	}
	r := sess.Reader()
	flag, err := wire.ReadPresence(r)
	if err != nil {
		return wire.Sentinel, 0, false, err
	}
	if flag == 0 {
		return wire.Sentinel, 0, false, nil
	}
	pos, err = wire.ReadPosition(r)
	if err != nil {
		return wire.Sentinel, 0, false, err
	}
	length, err = wire.ReadLength(r)
	if err != nil {
		return wire.Sentinel, 0, false, err
	}
	return pos, length, true, nil
}

func (c *Client) pullFile(sess *transport.Session, requestID, path string) (wire.Position, error) {
	pos, length, ok, err := c.readPullHeader(sess, requestID)
	if err != nil || !ok {
		return pos, err
	}
	if err := c.receivePayload(sess.Reader(), requestID, path, length); err != nil {
		return wire.Sentinel, err
	}

	logrus.WithFields(logrus.Fields{
		"function":   "GetFile",
		"request_id": requestID,
		"path":       path,
		"size":       length,
		"position":   pos.String(),
	}).Debug("Clip received")
	return pos, nil
}

func (c *Client) pullArchive(sess *transport.Session, requestID, destDir, extractDir string) (wire.Position, error) {
	pos, length, ok, err := c.readPullHeader(sess, requestID)
	if err != nil || !ok {
		return pos, err
	}

	zipPath := filepath.Join(destDir, requestID+file.ArchiveExt)
	if err := file.Remove(zipPath); err != nil {
		return wire.Sentinel, err
	}
	defer removeLogged("GetZip", zipPath)

	if err := c.receivePayload(sess.Reader(), requestID, zipPath, length); err != nil {
		return wire.Sentinel, err
	}
	if err := file.Unpack(zipPath, extractDir); err != nil {
		if rmErr := os.RemoveAll(extractDir); rmErr != nil {
			logrus.WithFields(logrus.Fields{
				"function": "GetZip",
				"dir":      extractDir,
				"error":    rmErr.Error(),
			}).Warn("Failed to remove incomplete extraction")
		}
		return wire.Sentinel, err
	}

	logrus.WithFields(logrus.Fields{
		"function":   "GetZip",
		"request_id": requestID,
		"dir":        extractDir,
		"size":       length,
	}).Debug("Archive received")
	return pos, nil
}

// receivePayload writes exactly length bytes from r into a new file at path.
// A partially written file is removed.
func (c *Client) receivePayload(r io.Reader, requestID, path string, length int64) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create payload file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close payload file: %w", cerr)
		}
		if err != nil {
			file.Remove(path)
		}
	}()

	t := file.NewTransfer(requestID, path, length, file.TransferDirectionIncoming)
	t.OnProgress(c.progressFunc(requestID, length))
	_, err = t.Copy(f, r)
	return err
}
