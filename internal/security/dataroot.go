package security

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrPathEscapes  = errors.New("path escapes data directory")
	ErrAbsolutePath = errors.New("absolute paths are not allowed")
	ErrEmptyPath    = errors.New("empty path not allowed")
	ErrNestedPath   = errors.New("nested paths are not allowed")
)

// DataRoot provides file operations confined to a single directory
type DataRoot struct {
	root *os.Root
	path string
}

// Open creates the directory if needed (mode 0700) and opens it as a root
func Open(dir string) (*DataRoot, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	if err := os.MkdirAll(absPath, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	root, err := os.OpenRoot(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open data directory: %w", err)
	}

	return &DataRoot{root: root, path: absPath}, nil
}

// Path returns the absolute directory path
func (d *DataRoot) Path() string {
	return d.path
}

// Close releases the directory handle
func (d *DataRoot) Close() error {
	if d.root != nil {
		return d.root.Close()
	}
	return nil
}

// ValidateName checks that name is a plain file name directly inside the
// root: not empty, not absolute, no separators, no parent references.
func ValidateName(name string) error {
	if name == "" {
		return ErrEmptyPath
	}
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return fmt.Errorf("%w: %s", ErrAbsolutePath, name)
	}
	if !filepath.IsLocal(name) {
		return fmt.Errorf("%w: %s", ErrPathEscapes, name)
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %s", ErrNestedPath, name)
	}
	return nil
}

// ReadFile reads name from the root
func (d *DataRoot) ReadFile(name string) ([]byte, error) {
	if err := ValidateName(name); err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	f, err := d.root.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}

// WriteFile writes name inside the root with the given permissions
func (d *DataRoot) WriteFile(name string, data []byte, perm os.FileMode) error {
	if err := ValidateName(name); err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	f, err := d.root.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Remove deletes name from the root
func (d *DataRoot) Remove(name string) error {
	if err := ValidateName(name); err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	return d.root.Remove(name)
}

// Stat returns file info for name inside the root
func (d *DataRoot) Stat(name string) (os.FileInfo, error) {
	if err := ValidateName(name); err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	return d.root.Stat(name)
}
