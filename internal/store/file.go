package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileSink writes artifacts below a local directory.
type FileSink struct {
	Dir string
}

// NewFileSink returns a sink rooted at dir. The directory is created on the
// first Put.
func NewFileSink(dir string) *FileSink {
	return &FileSink{Dir: dir}
}

// Put writes r to Dir/key through a temporary file so readers never see a
// partial artifact.
func (f *FileSink) Put(ctx context.Context, key string, r io.Reader, _ string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	path := f.Location(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("create %s: %w", key, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Location returns the file path for key.
func (f *FileSink) Location(key string) string {
	return filepath.Join(f.Dir, filepath.FromSlash(key))
}
