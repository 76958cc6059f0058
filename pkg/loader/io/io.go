package io

import (
	"context"
	"os"
	"sync"

	"github.com/OFFIS-RIT/papergraph/pkg/loader"

	"golang.org/x/sync/singleflight"
)

// IOGraphFileLoader loads files directly from the local filesystem with caching.
type IOGraphFileLoader struct {
	cache   map[string][]byte
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewIOGraphFileLoader creates a new filesystem-based file loader.
func NewIOGraphFileLoader() *IOGraphFileLoader {
	return &IOGraphFileLoader{
		cache: make(map[string][]byte),
	}
}

// GetFileBytes reads the file content from the filesystem. Results are cached.
func (l *IOGraphFileLoader) GetFileBytes(ctx context.Context, file loader.PaperFile) ([]byte, error) {
	key := loader.CacheKey(file)

	l.cacheMu.RLock()
	if cached, ok := l.cache[key]; ok {
		l.cacheMu.RUnlock()
		return cached, nil
	}
	l.cacheMu.RUnlock()

	result, err, _ := l.group.Do(key, func() (any, error) {
		l.cacheMu.RLock()
		if cached, ok := l.cache[key]; ok {
			l.cacheMu.RUnlock()
			return cached, nil
		}
		l.cacheMu.RUnlock()

		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := os.ReadFile(file.FilePath)
		if err != nil {
			return nil, err
		}

		l.cacheMu.Lock()
		l.cache[key] = result
		l.cacheMu.Unlock()

		return result, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}

// Forget drops a cached file, e.g. after it was re-uploaded.
func (l *IOGraphFileLoader) Forget(file loader.PaperFile) {
	l.cacheMu.Lock()
	delete(l.cache, loader.CacheKey(file))
	l.cacheMu.Unlock()
}
