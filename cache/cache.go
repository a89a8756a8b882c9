// Package cache provides caches for compiled descriptor sets.
//
// A Cache is a simple byte store keyed by strings. Loading descriptor sets from
// a cache skips parsing and compiling unchanged .proto files. Implementations
// live in the sub-packages: filecache, memcache and rediscache.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"sort"

	"github.com/ktr0731/protoedit/meta"
	xdgbasedir "github.com/zchee/go-xdgbasedir"
)

// Cache stores data by key.
type Cache interface {
	// Load returns the data stored for key. It returns an error if
	// nothing is stored for key.
	Load(ctx context.Context, key string) ([]byte, error)
	// Save stores data for key, replacing what is already stored.
	Save(ctx context.Context, key string, data []byte) error
}

// DefaultDir returns the default directory of file caches.
func DefaultDir() string {
	return filepath.Join(xdgbasedir.CacheHome(), meta.AppName)
}

// Key returns the cache key of a set of sources. sources maps a file path to its
// content. The key changes whenever a path, a content or the set of roots changes.
func Key(roots []string, sources map[string]string) string {
	paths := make([]string, 0, len(sources))
	for p := range sources {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	h := sha256.New()
	for _, r := range roots {
		h.Write([]byte("root\x00" + r + "\x00"))
	}
	for _, p := range paths {
		h.Write([]byte("file\x00" + p + "\x00"))
		h.Write([]byte(sources[p]))
		h.Write([]byte{0})
	}
	return meta.AppName + "-" + hex.EncodeToString(h.Sum(nil))
}
