package storage

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteAtomic creates path with the content produced by write. The data
// goes to a temporary file next to the target first and is renamed over
// it once complete, readers never observe partial files.
func WriteAtomic(path string, write func(w io.Writer) error) error {
	s, err := Stage(path, write)
	if err != nil {
		return err
	}
	return s.Commit()
}

// Staged is a completely written temporary file waiting to replace its
// target.
type Staged struct {
	tmp  string
	path string
}

// Stage writes the content for path into a temporary file next to it
// without touching path itself.
func Stage(path string, write func(w io.Writer) error) (*Staged, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating directory %s: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return nil, fmt.Errorf("creating temporary file for %s: %w", path, err)
	}
	tmp := f.Name()
	if err := writeAndClose(f, write); err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("writing %s: %w", path, err)
	}
	return &Staged{tmp: tmp, path: path}, nil
}

// Commit renames the staged file over its target.
func (s *Staged) Commit() error {
	if err := os.Rename(s.tmp, s.path); err != nil {
		os.Remove(s.tmp)
		return fmt.Errorf("renaming %s: %w", s.tmp, err)
	}
	return nil
}

// Discard drops the staged file, the target stays as it was.
func (s *Staged) Discard() {
	os.Remove(s.tmp)
}

func writeAndClose(f *os.File, write func(w io.Writer) error) error {
	bw := bufio.NewWriterSize(f, 64*1024)
	err := write(bw)
	if err == nil {
		err = bw.Flush()
	}
	if err == nil {
		err = f.Chmod(0o644)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}
