package client

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// RequestID derives the id both peers use for the clip of one spoken line:
// the uppercase hex MD5 of sender followed by text. Runes outside ASCII hash
// as '?'.
func RequestID(sender, text string) string {
	var b strings.Builder
	b.Grow(len(sender) + len(text))
	for _, s := range []string{sender, text} {
		for _, r := range s {
			if r > 0x7f {
				r = '?'
			}
			b.WriteByte(byte(r))
		}
	}
	sum := md5.Sum([]byte(b.String()))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// FetchClip returns the local path of the clip for requestID, pulling it
// from the peer into cacheDir unless a cached copy already exists. found is
// false when neither the cache nor the peer has the clip.
func (c *Client) FetchClip(ctx context.Context, requestID, cacheDir string) (path string, found bool, err error) {
	path = filepath.Join(cacheDir, requestID+c.cfg.ClipExt)
	if info, statErr := os.Stat(path); statErr == nil && !info.IsDir() {
		logrus.WithFields(logrus.Fields{
			"function":   "FetchClip",
			"request_id": requestID,
			"path":       path,
		}).Debug("Clip served from cache")
		return path, true, nil
	} else if statErr != nil && !errors.Is(statErr, os.ErrNotExist) {
		return path, false, statErr
	}

	if _, path, err = c.GetFile(ctx, requestID, cacheDir, ""); err != nil {
		return path, false, err
	}
	if _, statErr := os.Stat(path); statErr != nil {
		return path, false, nil
	}
	return path, true, nil
}
