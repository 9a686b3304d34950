package mirror

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

// ArchiveFormat enumerates the compressed formats unpacked after transfer.
type ArchiveFormat int

const (
	FormatNone ArchiveFormat = iota
	FormatZip
)

// DetectFormat maps a file name to its archive format.
func DetectFormat(name string) ArchiveFormat {
	if strings.EqualFold(filepath.Ext(name), ".zip") {
		return FormatZip
	}
	return FormatNone
}

// CorruptArchiveError reports an archive that failed validation. The
// archive file is left on disk so the operator can inspect or retry it.
type CorruptArchiveError struct {
	Path string
	Err  error
}

func (e *CorruptArchiveError) Error() string {
	return fmt.Sprintf("corrupt archive %s: %v", e.Path, e.Err)
}

func (e *CorruptArchiveError) Unwrap() error {
	return e.Err
}

// ExtractAndReplace unpacks the archive at path into its own directory and
// deletes the archive only after every entry extracted successfully. On any
// failure the archive stays in place; a downloaded-but-not-extracted
// archive is a recoverable state, picked up again on the next run.
func ExtractAndReplace(path string) error {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return &CorruptArchiveError{Path: path, Err: err}
	}

	destDir := filepath.Dir(path)
	for _, f := range rc.File {
		if err := extractEntry(f, destDir); err != nil {
			rc.Close()
			return err
		}
	}
	rc.Close()

	return os.Remove(path)
}

func extractEntry(f *zip.File, destDir string) error {
	name := filepath.Clean(filepath.FromSlash(f.Name))
	if filepath.IsAbs(name) || name == ".." || strings.HasPrefix(name, ".."+string(filepath.Separator)) {
		return fmt.Errorf("unsafe archive entry path %q", f.Name)
	}
	target := filepath.Join(destDir, name)

	if f.FileInfo().IsDir() {
		return os.MkdirAll(target, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	in, err := f.Open()
	if err != nil {
		return &CorruptArchiveError{Path: f.Name, Err: err}
	}
	defer in.Close()

	// Reuse the atomic write so a failed entry never leaves a partial
	// file behind.
	if _, err := Materialize(in, target); err != nil {
		return fmt.Errorf("extract %s: %w", f.Name, err)
	}
	return nil
}
