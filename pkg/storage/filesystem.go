package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrInvalidPath is returned for keys escaping the storage root.
	ErrInvalidPath = errors.New("storage: invalid path")
	// ErrTooLarge is returned when a stream exceeds the configured limit.
	ErrTooLarge = errors.New("storage: file too large")
)

// LocalStorage is a disk-backed blob store rooted at a base directory.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage ensures the base directory exists and returns a handle.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("storage base directory required")
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve storage directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &LocalStorage{baseDir: abs}, nil
}

// Save writes data under key and returns the key.
func (s *LocalStorage) Save(key string, data []byte) (string, error) {
	path, err := s.prepare(key)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	return key, nil
}

// SaveStream copies r into key. A positive limit caps the stored size; the
// partial file is removed when the limit is exceeded.
func (s *LocalStorage) SaveStream(key string, r io.Reader, limit int64) (int64, error) {
	path, err := s.prepare(key)
	if err != nil {
		return 0, err
	}
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", key, err)
	}

	src := r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}
	written, copyErr := io.Copy(file, src)
	closeErr := file.Close()
	switch {
	case copyErr != nil:
		_ = os.Remove(path)
		return 0, fmt.Errorf("write %s: %w", key, copyErr)
	case limit > 0 && written > limit:
		_ = os.Remove(path)
		return 0, ErrTooLarge
	case closeErr != nil:
		return 0, fmt.Errorf("close %s: %w", key, closeErr)
	}
	return written, nil
}

// Open returns a read-only handle for key.
func (s *LocalStorage) Open(key string) (*os.File, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", key, err)
	}
	return file, nil
}

// Delete removes key if present.
func (s *LocalStorage) Delete(key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// CleanupOlderThan removes files under prefix older than ttl and returns their keys.
func (s *LocalStorage) CleanupOlderThan(prefix string, ttl time.Duration) ([]string, error) {
	root, err := s.resolve(prefix)
	if err != nil {
		return nil, err
	}
	cutoff := time.Now().Add(-ttl)
	deleted := make([]string, 0)
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		rel, err := filepath.Rel(s.baseDir, path)
		if err != nil {
			rel = path
		}
		deleted = append(deleted, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cleanup %s: %w", prefix, err)
	}
	return deleted, nil
}

// Path returns the absolute path of key.
func (s *LocalStorage) Path(key string) (string, error) {
	return s.resolve(key)
}

func (s *LocalStorage) prepare(key string) (string, error) {
	path, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare directory for %s: %w", key, err)
	}
	return path, nil
}

func (s *LocalStorage) resolve(key string) (string, error) {
	cleaned := filepath.Clean("/" + filepath.FromSlash(strings.TrimSpace(key)))
	if cleaned == string(filepath.Separator) && key != "" {
		return "", ErrInvalidPath
	}
	path := filepath.Join(s.baseDir, cleaned)
	if path != s.baseDir && !strings.HasPrefix(path, s.baseDir+string(filepath.Separator)) {
		return "", ErrInvalidPath
	}
	return path, nil
}
