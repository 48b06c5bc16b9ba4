package storage

import (
	"context"
	"errors"
	"io/fs"

	"github.com/cubsoftware/cubvault/internal/security"
)

const fileSuffix = ".dat"

// FileStore keeps each key in <dir>/<key>.dat, the layout of the desktop app
type FileStore struct {
	root *security.DataRoot
}

// OpenFileStore opens dir, creating it with mode 0700 if needed
func OpenFileStore(dir string) (*FileStore, error) {
	root, err := security.Open(dir)
	if err != nil {
		return nil, err
	}
	return &FileStore{root: root}, nil
}

// Dir returns the data directory
func (s *FileStore) Dir() string {
	return s.root.Path()
}

// Get returns the value stored under key
func (s *FileStore) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := s.root.ReadFile(key + fileSuffix)
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Set stores value under key with mode 0600
func (s *FileStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.root.WriteFile(key+fileSuffix, []byte(value), 0600)
}

// Close releases the directory handle
func (s *FileStore) Close() error {
	return s.root.Close()
}
