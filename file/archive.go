package file

import (
	"archive/zip"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mholt/archiver"
	"github.com/sirupsen/logrus"
)

// ArchiveExt is appended to a directory path to name its archive.
const ArchiveExt = ".zip"

// ErrNotDirectory indicates Pack was given something other than a directory.
var ErrNotDirectory = errors.New("not a directory")

// ArchivePath returns the sibling archive path used for dir.
func ArchivePath(dir string) string {
	return filepath.Clean(dir) + ArchiveExt
}

// Pack zips the contents of dir into ArchivePath(dir) and returns that path.
// Entries are stored relative to dir itself, without a top-level folder.
// A stale archive at the target path is always removed first.
func Pack(dir string) (string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("stat archive source: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}

	zipPath := ArchivePath(dir)
	if err := Remove(zipPath); err != nil {
		return "", err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read archive source: %w", err)
	}
	sources := make([]string, 0, len(entries))
	for _, entry := range entries {
		sources = append(sources, filepath.Join(dir, entry.Name()))
	}

	z := archiver.NewZip()
	z.OverwriteExisting = true
	if err := z.Archive(sources, zipPath); err != nil {
		Remove(zipPath)
		return "", fmt.Errorf("create archive %s: %w", zipPath, err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "Pack",
		"source":   dir,
		"archive":  zipPath,
		"entries":  len(sources),
	}).Debug("Directory archived")

	return zipPath, nil
}

// Unpack extracts zipPath into dest. Anything already at dest is removed
// first so a previous extraction never mixes with the new one. An archive
// with an entry that would land outside dest is rejected with
// ErrDirectoryTraversal before dest is touched.
func Unpack(zipPath, dest string) error {
	z := archiver.NewZip()
	z.MkdirAll = true
	z.OverwriteExisting = true

	if err := checkEntries(z, zipPath); err != nil {
		return err
	}
	if err := os.RemoveAll(dest); err != nil {
		return fmt.Errorf("remove stale extraction %s: %w", dest, err)
	}
	if err := z.Unarchive(zipPath, dest); err != nil {
		return fmt.Errorf("extract archive %s: %w", zipPath, err)
	}

	logrus.WithFields(logrus.Fields{
		"function":    "Unpack",
		"archive":     zipPath,
		"destination": dest,
	}).Debug("Archive extracted")

	return nil
}

// checkEntries walks the archive and rejects absolute entry names and names
// containing "..".
func checkEntries(z *archiver.Zip, zipPath string) error {
	var bad error
	err := z.Walk(zipPath, func(f archiver.File) error {
		hdr, ok := f.Header.(zip.FileHeader)
		if !ok {
			bad = fmt.Errorf("read archive %s: unexpected entry header %T", zipPath, f.Header)
			return archiver.ErrStopWalk
		}
		if err := validateEntryName(hdr.Name); err != nil {
			bad = err
			return archiver.ErrStopWalk
		}
		return nil
	})
	if bad != nil {
		return bad
	}
	if err != nil {
		return fmt.Errorf("read archive %s: %w", zipPath, err)
	}
	return nil
}

func validateEntryName(name string) error {
	slashed := strings.ReplaceAll(name, "\\", "/")
	if strings.HasPrefix(slashed, "/") || filepath.IsAbs(name) || filepath.VolumeName(name) != "" {
		return fmt.Errorf("%w: absolute archive entry %q", ErrDirectoryTraversal, name)
	}
	if _, err := ValidatePath(slashed); err != nil {
		return fmt.Errorf("%w: archive entry %q", err, name)
	}
	return nil
}

// Remove deletes path, treating a missing file as success.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}
