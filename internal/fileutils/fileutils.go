// Package fileutils provides utility functions for handling files.
package fileutils

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// AtomicWrite writes data to a file atomically.
// If the file already exists, then it will be overwritten.
// Not atomic on Windows.
func AtomicWrite(path string, data []byte) error {
	return atomicWriteFrom(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// CopyFile copies src byte for byte to dst, replacing dst if it exists.
// The copy is written to a temporary file first so a failed copy never leaves a truncated dst.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("could not open source file: %w", err)
	}
	defer in.Close()

	return atomicWriteFrom(dst, func(w io.Writer) error {
		_, err := io.Copy(w, in)
		return err
	})
}

// SameFile reports whether a and b resolve to the same existing file.
func SameFile(a, b string) bool {
	ia, err := os.Stat(a)
	if err != nil {
		return false
	}
	ib, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ia, ib)
}

func atomicWriteFrom(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "tmp-*.tmp")
	if err != nil {
		return fmt.Errorf("could not create temporary file: %v", err)
	}
	defer func() {
		_ = tmp.Close()
		if err := os.Remove(tmp.Name()); err != nil && !os.IsNotExist(err) {
			slog.Warn("Failed to remove temporary file", "file", tmp.Name(), "error", err)
		}
	}()

	if err := write(tmp); err != nil {
		return fmt.Errorf("could not write to temporary file: %v", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not close temporary file: %v", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("could not rename temporary file: %v", err)
	}
	return nil
}
