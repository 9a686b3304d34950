package mirror

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// TransferError wraps a failure to fetch or materialize one file. Task
// scoped: it is reported and counted, never fatal to the pool.
type TransferError struct {
	URL string
	Err error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer %s: %v", e.URL, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// Materialize streams r into a temporary file adjacent to dest and renames
// it into place only once the stream has been fully consumed. A partially
// written file is never observable at dest; on any error the temporary file
// is removed. Returns the number of bytes written.
func Materialize(r io.Reader, dest string) (int64, error) {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(dest)+".part-*")
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(tmp, r)
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return 0, err
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		return 0, err
	}
	return n, nil
}
