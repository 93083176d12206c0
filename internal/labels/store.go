package labels

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	apperrors "github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/pkg/errors"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/pkg/redis"
)

// Store persists encoded label dumps by name. Get returns ErrCacheMiss when
// nothing is stored under the name.
type Store interface {
	Get(ctx context.Context, name string) ([]byte, error)
	Put(ctx context.Context, name string, data []byte) error
	Delete(ctx context.Context, name string) error
	Location(name string) string
}

// FileStore keeps one dump file per name inside a directory.
type FileStore struct {
	dir string
}

const dumpExt = ".dump"

// OpenFileStore creates dir if needed and returns a store rooted there.
func OpenFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Location(name string) string {
	return filepath.Join(s.dir, name+dumpExt)
}

func (s *FileStore) Get(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(s.Location(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperrors.ErrCacheMiss
		}
		return nil, fmt.Errorf("reading dump %s: %w", s.Location(name), err)
	}
	return data, nil
}

// Put writes data to a .tmp file first and renames it into place, so a
// crashed run never leaves a half-written dump behind.
func (s *FileStore) Put(_ context.Context, name string, data []byte) error {
	finalPath := s.Location(name)
	tmpPath := finalPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating temp dump file: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing dump: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing dump file: %w", err)
	}
	f.Close()
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return fmt.Errorf("renaming dump file: %w", err)
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, name string) error {
	if err := os.Remove(s.Location(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing dump %s: %w", s.Location(name), err)
	}
	return nil
}

// RedisStore keeps dumps as plain Redis string values under prefix+name.
// Entries never expire; invalidation is explicit.
type RedisStore struct {
	client *pkgredis.Client
	prefix string
}

func NewRedisStore(client *pkgredis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Location(name string) string {
	return s.prefix + name
}

func (s *RedisStore) Get(ctx context.Context, name string) ([]byte, error) {
	data, err := s.client.GetBytes(ctx, s.Location(name))
	if err != nil {
		if pkgredis.IsNilError(err) {
			return nil, apperrors.ErrCacheMiss
		}
		return nil, fmt.Errorf("reading redis key %s: %w", s.Location(name), err)
	}
	return data, nil
}

func (s *RedisStore) Put(ctx context.Context, name string, data []byte) error {
	if err := s.client.Set(ctx, s.Location(name), data, 0); err != nil {
		return fmt.Errorf("writing redis key %s: %w", s.Location(name), err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, name string) error {
	if err := s.client.Del(ctx, s.Location(name)); err != nil {
		return fmt.Errorf("deleting redis key %s: %w", s.Location(name), err)
	}
	return nil
}
