package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FilesystemStorage keeps photos on local disk. It serves development runs
// and tests where no object store is available.
type FilesystemStorage struct {
	root    string
	baseURL string
}

func NewFilesystemStorage(root, baseURL string) (*FilesystemStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &FilesystemStorage{root: root, baseURL: baseURL}, nil
}

func (s *FilesystemStorage) path(key string) string {
	return filepath.Join(s.root, filepath.Clean("/"+key))
}

func (s *FilesystemStorage) Upload(_ context.Context, key, _ string, body io.Reader) (string, error) {
	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("store photo %s: %w", key, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("store photo %s: %w", key, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, body); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("store photo %s: %w", key, err)
	}
	return s.baseURL + "/" + key, nil
}

func (s *FilesystemStorage) StageLocal(_ context.Context, key, dir string) (string, error) {
	src, err := os.Open(s.path(key))
	if err != nil {
		return "", fmt.Errorf("stage photo %s: %w", key, err)
	}
	defer src.Close()

	path := filepath.Join(dir, filepath.Base(key))
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("stage photo %s: %w", key, err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("stage photo %s: %w", key, err)
	}
	return path, nil
}

func (s *FilesystemStorage) Delete(_ context.Context, key string) error {
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete photo %s: %w", key, err)
	}
	return nil
}

func (s *FilesystemStorage) Exists(_ context.Context, key string) (bool, error) {
	_, err := os.Stat(s.path(key))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

var _ PhotoStorage = (*FilesystemStorage)(nil)
