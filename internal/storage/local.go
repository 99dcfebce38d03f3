package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const metaSuffix = ".meta"

// LocalStorage implements Storage on the local filesystem
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates the base directory if needed
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

func (s *LocalStorage) Put(ctx context.Context, key string, content []byte, metadata *Metadata) error {
	fullPath := s.keyToPath(key)
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	// write then rename so readers never see a partial feed
	tmp := fullPath + ".tmp"
	if err := os.WriteFile(tmp, content, 0644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, fullPath); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", fullPath, err)
	}

	if metadata != nil {
		metaBytes, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
		if err := os.WriteFile(fullPath+metaSuffix, metaBytes, 0644); err != nil {
			return fmt.Errorf("failed to write metadata for %s: %w", key, err)
		}
	}
	return nil
}

func (s *LocalStorage) Get(ctx context.Context, key string) ([]byte, error) {
	content, err := os.ReadFile(s.keyToPath(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return content, nil
}

func (s *LocalStorage) GetInfo(ctx context.Context, key string) (*FileInfo, error) {
	fullPath := s.keyToPath(key)
	stat, err := os.Stat(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", key, err)
	}

	info := &FileInfo{Key: key, Size: stat.Size(), ModifiedAt: stat.ModTime()}
	if metaBytes, err := os.ReadFile(fullPath + metaSuffix); err == nil {
		var metadata Metadata
		if err := json.Unmarshal(metaBytes, &metadata); err == nil {
			info.Metadata = &metadata
		}
	}
	return info, nil
}

func (s *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(s.keyToPath(key))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat %s: %w", key, err)
}

func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	fullPath := s.keyToPath(key)
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	_ = os.Remove(fullPath + metaSuffix)
	return nil
}

func (s *LocalStorage) List(ctx context.Context, prefix string) ([]string, error) {
	keys := []string{}
	err := filepath.WalkDir(s.basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(path, metaSuffix) || strings.HasSuffix(path, ".tmp") {
			return nil
		}
		if key := s.pathToKey(path); strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", prefix, err)
	}
	sort.Strings(keys)
	return keys, nil
}

// BasePath returns the root directory of this storage
func (s *LocalStorage) BasePath() string {
	return s.basePath
}

// keyToPath maps a key under basePath; cleaning keeps "../" from escaping it
func (s *LocalStorage) keyToPath(key string) string {
	clean := filepath.Clean("/" + filepath.FromSlash(key))
	return filepath.Join(s.basePath, clean)
}

func (s *LocalStorage) pathToKey(path string) string {
	rel, err := filepath.Rel(s.basePath, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
