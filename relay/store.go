package relay

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/google/uuid"
	"github.com/opd-ai/rpvoice/file"
	"github.com/opd-ai/rpvoice/wire"
	"github.com/sirupsen/logrus"
)

const (
	partialExt = ".part"
	payloadExt = ".payload"
)

// ErrNotStored indicates a store rejected or dropped an entry.
var ErrNotStored = errors.New("entry not stored")

// Entry describes one stored clip or archive.
type Entry struct {
	RequestID string
	Kind      wire.Command
	Position  wire.Position
	Path      string
	Size      int64
	StoredAt  time.Time
	ExpiresAt time.Time
}

// Store keeps payloads on disk and indexes them by request id with a
// per-entry TTL. When an entry expires, is evicted or is replaced, its file
// is deleted.
type Store struct {
	dir   string
	ttl   time.Duration
	index *ristretto.Cache[string, *Entry]
}

// OpenStore prepares dir for payloads. Payload files left over from an
// earlier run are removed, since the index is not persisted.
func OpenStore(dir string, ttl time.Duration, maxEntries int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	if err := removeStale(dir); err != nil {
		return nil, err
	}

	index, err := ristretto.NewCache(&ristretto.Config[string, *Entry]{
		NumCounters:        maxEntries * 10,
		MaxCost:            maxEntries,
		BufferItems:        64,
		IgnoreInternalCost: true,
		OnEvict: func(item *ristretto.Item[*Entry]) {
			if item.Value == nil {
				return
			}
			logrus.WithFields(logrus.Fields{
				"function":   "OnEvict",
				"request_id": item.Value.RequestID,
				"kind":       item.Value.Kind.String(),
			}).Debug("Stored entry expired or evicted")
		},
		OnExit: func(e *Entry) {
			if e == nil {
				return
			}
			if err := file.Remove(e.Path); err != nil {
				logrus.WithFields(logrus.Fields{
					"function": "OnExit",
					"path":     e.Path,
					"error":    err.Error(),
				}).Warn("Failed to remove stored payload")
			}
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create store index: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function":    "OpenStore",
		"dir":         dir,
		"clip_ttl":    ttl.String(),
		"max_entries": maxEntries,
	}).Info("Opened relay store")

	return &Store{dir: dir, ttl: ttl, index: index}, nil
}

func removeStale(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read store dir: %w", err)
	}
	for _, de := range entries {
		name := de.Name()
		if de.IsDir() || !(strings.HasSuffix(name, partialExt) || strings.HasSuffix(name, payloadExt)) {
			continue
		}
		if err := file.Remove(filepath.Join(dir, name)); err != nil {
			return err
		}
	}
	return nil
}

// Receive copies exactly n bytes from r into a new partial file and returns
// its path. The partial file is removed on failure.
func (s *Store) Receive(r io.Reader, n int64) (string, error) {
	path := filepath.Join(s.dir, uuid.NewString()+partialExt)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create partial file: %w", err)
	}

	_, copyErr := file.CopyN(f, r, n, nil)
	closeErr := f.Close()
	if copyErr == nil && closeErr != nil {
		copyErr = fmt.Errorf("close partial file: %w", closeErr)
	}
	if copyErr != nil {
		file.Remove(path)
		return "", copyErr
	}
	return path, nil
}

// Commit moves the partial file into place and indexes it under requestID,
// replacing any earlier entry. A ttl of zero or less uses the store's clip
// TTL.
func (s *Store) Commit(requestID string, kind wire.Command, pos wire.Position, partial string, ttl time.Duration) (*Entry, error) {
	if ttl <= 0 {
		ttl = s.ttl
	}

	info, err := os.Stat(partial)
	if err != nil {
		return nil, fmt.Errorf("stat partial file: %w", err)
	}
	final := strings.TrimSuffix(partial, partialExt) + payloadExt
	if err := os.Rename(partial, final); err != nil {
		file.Remove(partial)
		return nil, fmt.Errorf("commit payload: %w", err)
	}

	now := time.Now()
	e := &Entry{
		RequestID: requestID,
		Kind:      kind,
		Position:  pos,
		Path:      final,
		Size:      info.Size(),
		StoredAt:  now,
		ExpiresAt: now.Add(ttl),
	}

	prev, replaced := s.index.Get(requestID)
	if !s.index.SetWithTTL(requestID, e, 1, ttl) {
		file.Remove(final)
		return nil, fmt.Errorf("%w: %s", ErrNotStored, requestID)
	}
	s.index.Wait()
	if replaced && prev.Path != final {
		file.Remove(prev.Path)
	}

	logrus.WithFields(logrus.Fields{
		"function":   "Commit",
		"request_id": requestID,
		"kind":       kind.String(),
		"size":       e.Size,
		"ttl":        ttl.String(),
	}).Debug("Stored payload")

	return e, nil
}

// Lookup returns the live entry stored under requestID.
func (s *Store) Lookup(requestID string) (*Entry, bool) {
	return s.index.Get(requestID)
}

// Delete drops the entry stored under requestID and its file.
func (s *Store) Delete(requestID string) {
	s.index.Del(requestID)
	s.index.Wait()
}

// Close stops the index. Payload files are left for the next OpenStore to
// clean up.
func (s *Store) Close() {
	s.index.Close()
}
