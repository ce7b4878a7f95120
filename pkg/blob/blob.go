// Package blob abstracts file storage for uploaded documents. The core
// only keeps path and checksum metadata; bytes live behind this
// interface.
package blob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Store persists document bytes and returns where they landed.
type Store interface {
	// Put writes the content and returns the storage path and the
	// SHA-256 checksum of the written bytes.
	Put(ctx context.Context, name string, r io.Reader) (path string, checksum string, err error)
	// Open returns a reader for a previously stored path.
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	// Remove deletes stored content.
	Remove(ctx context.Context, path string) error
}

type fsStore struct {
	root string
}

// NewFSStore returns a Store backed by a local directory.
func NewFSStore(root string) (Store, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create blob root: %w", err)
	}
	return &fsStore{root: root}, nil
}

func (s *fsStore) Put(_ context.Context, name string, r io.Reader) (string, string, error) {
	path := filepath.Join(s.root, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o640)
	if err != nil {
		return "", "", fmt.Errorf("failed to create blob file: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(io.MultiWriter(f, h), r); err != nil {
		os.Remove(path)
		return "", "", fmt.Errorf("failed to write blob: %w", err)
	}

	return path, hex.EncodeToString(h.Sum(nil)), nil
}

func (s *fsStore) Open(_ context.Context, path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open blob: %w", err)
	}
	return f, nil
}

func (s *fsStore) Remove(_ context.Context, path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove blob: %w", err)
	}
	return nil
}
