package mirror

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name     string
		expected ArchiveFormat
	}{
		{"game.zip", FormatZip},
		{"GAME.ZIP", FormatZip},
		{"dir/game.zip", FormatZip},
		{"game.bin", FormatNone},
		{"game.zip.part", FormatNone},
		{"zip", FormatNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectFormat(tt.name))
		})
	}
}

func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestExtractAndReplace(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "b.zip")
	writeZip(t, archive, map[string]string{
		"b.txt":        "contents of b",
		"nested/c.txt": "contents of c",
	})

	require.NoError(t, ExtractAndReplace(archive))

	_, err := os.Stat(archive)
	assert.True(t, os.IsNotExist(err), "archive must be deleted after extraction")

	data, err := os.ReadFile(filepath.Join(dir, "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "contents of b", string(data))

	data, err = os.ReadFile(filepath.Join(dir, "nested", "c.txt"))
	require.NoError(t, err)
	assert.Equal(t, "contents of c", string(data))
}

// A truncated archive fails validation and is left in place for inspection.
func TestExtractAndReplaceTruncated(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "broken.zip")
	writeZip(t, archive, map[string]string{"b.txt": "contents of b"})

	data, err := os.ReadFile(archive)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(archive, data[:len(data)/2], 0o644))

	err = ExtractAndReplace(archive)
	var corrupt *CorruptArchiveError
	require.ErrorAs(t, err, &corrupt)
	assert.Equal(t, archive, corrupt.Path)

	_, statErr := os.Stat(archive)
	assert.NoError(t, statErr, "archive must remain on disk after a failed validation")
}

func TestExtractAndReplaceNotAZip(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "fake.zip")
	require.NoError(t, os.WriteFile(archive, []byte("plain text, not a zip"), 0o644))

	err := ExtractAndReplace(archive)
	var corrupt *CorruptArchiveError
	require.ErrorAs(t, err, &corrupt)

	_, statErr := os.Stat(archive)
	assert.NoError(t, statErr)
}

func TestExtractRejectsUnsafePaths(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "evil.zip")
	writeZip(t, archive, map[string]string{"../escape.txt": "nope"})

	err := ExtractAndReplace(archive)
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(filepath.Dir(dir), "escape.txt"))
	assert.True(t, os.IsNotExist(statErr), "entry must not escape the archive directory")

	_, statErr = os.Stat(archive)
	assert.NoError(t, statErr, "archive must remain after a failed extraction")
}
