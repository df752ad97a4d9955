package file

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSentinelNotCalled = errors.New("callback not called")

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func readTree(t *testing.T, root string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		out[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err)
	return out
}

func TestPackUnpackRoundTrip(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "voicepack")
	files := map[string]string{
		"hello.mp3":        "first clip",
		"lines/bye.mp3":    "second clip",
		"lines/deep/x.txt": "nested",
	}
	writeTree(t, src, files)

	zipPath, err := Pack(src)
	require.NoError(t, err)
	assert.Equal(t, src+".zip", zipPath)
	assert.FileExists(t, zipPath)

	dest := filepath.Join(tmp, "out")
	require.NoError(t, Unpack(zipPath, dest))
	assert.Equal(t, files, readTree(t, dest))
}

func TestPackReplacesStaleArchive(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "voicepack")
	writeTree(t, src, map[string]string{"a.mp3": "fresh"})
	require.NoError(t, os.WriteFile(src+".zip", []byte("not a zip at all"), 0o644))

	zipPath, err := Pack(src)
	require.NoError(t, err)

	dest := filepath.Join(tmp, "out")
	require.NoError(t, Unpack(zipPath, dest))
	assert.Equal(t, map[string]string{"a.mp3": "fresh"}, readTree(t, dest))
}

func TestUnpackRemovesStaleExtraction(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "voicepack")
	writeTree(t, src, map[string]string{"a.mp3": "new"})
	zipPath, err := Pack(src)
	require.NoError(t, err)

	dest := filepath.Join(tmp, "out")
	writeTree(t, dest, map[string]string{"stale.mp3": "old", "a.mp3": "old"})

	require.NoError(t, Unpack(zipPath, dest))
	assert.Equal(t, map[string]string{"a.mp3": "new"}, readTree(t, dest))
}

func TestPackRejectsFile(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "clip.mp3")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, err := Pack(path)
	assert.ErrorIs(t, err, ErrNotDirectory)
	assert.NoFileExists(t, path+".zip")
}

func TestRemoveMissingIsNotAnError(t *testing.T) {
	assert.NoError(t, Remove(filepath.Join(t.TempDir(), "missing.zip")))
}

// writeRawZip builds an archive with the given entry names verbatim.
func writeRawZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

func TestUnpackRejectsEscapingEntries(t *testing.T) {
	tests := []struct {
		name  string
		entry string
	}{
		{"parent", "../escaped.txt"},
		{"nested parent", "sub/../../escaped.txt"},
		{"backslash parent", "..\\escaped.txt"},
		{"absolute", "/escaped.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			zipPath := filepath.Join(root, "hostile.zip")
			writeRawZip(t, zipPath, map[string]string{
				"ok.mp3": "fine",
				tt.entry: "escaped",
			})

			dest := filepath.Join(root, "cache", "id")
			writeTree(t, dest, map[string]string{"keep.mp3": "previous"})

			err := Unpack(zipPath, dest)
			assert.ErrorIs(t, err, ErrDirectoryTraversal)
			assert.NoFileExists(t, filepath.Join(root, "cache", "escaped.txt"))
			assert.NoFileExists(t, filepath.Join(root, "escaped.txt"))
			assert.Equal(t, map[string]string{"keep.mp3": "previous"}, readTree(t, dest),
				"rejected archive leaves the previous extraction alone")
		})
	}
}

func TestUnpackAcceptsNestedEntries(t *testing.T) {
	root := t.TempDir()
	zipPath := filepath.Join(root, "pack.zip")
	writeRawZip(t, zipPath, map[string]string{
		"a.mp3":       "a",
		"sub/b.mp3":   "b",
		"sub/./c.mp3": "c",
	})

	dest := filepath.Join(root, "out")
	require.NoError(t, Unpack(zipPath, dest))
	assert.Equal(t, map[string]string{
		"a.mp3":     "a",
		"sub/b.mp3": "b",
		"sub/c.mp3": "c",
	}, readTree(t, dest))
}
