// Package filecache provides a cache that stores entries as files in a directory.
package filecache

import (
	"context"
	"encoding/hex"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/ktr0731/protoedit/cache"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Config configures a file cache.
type Config struct {
	// Required: the folder in which cached files live. It is created if it
	// doesn't exist.
	Path string
	// Fs is the file system the cache lives in. Defaults to the OS file system.
	Fs afero.Fs
	// Defaults to "cache" if left empty. A "_" separates it from the cache key.
	FilenamePrefix string
	// Defaults to ".binpb" if left empty.
	FilenameExtension string
	// The mode of new files. Defaults to 0600. It must include bits 0600.
	FileMode fs.FileMode
}

// New returns a file cache.
func New(config Config) (cache.Cache, error) {
	if config.Path == "" {
		return nil, errors.New("path cannot be empty")
	}
	if config.Fs == nil {
		config.Fs = afero.NewOsFs()
		path, err := filepath.Abs(config.Path)
		if err != nil {
			return nil, err
		}
		config.Path = path
	}
	if config.FilenamePrefix == "" {
		config.FilenamePrefix = "cache"
	} else {
		config.FilenamePrefix = strings.TrimSuffix(config.FilenamePrefix, "_")
	}
	if config.FilenameExtension == "" {
		config.FilenameExtension = ".binpb"
	} else if !strings.HasPrefix(config.FilenameExtension, ".") {
		config.FilenameExtension = "." + config.FilenameExtension
	}
	if config.FileMode == 0 {
		config.FileMode = 0600
	} else if (config.FileMode & 0600) != 0600 {
		return nil, errors.Errorf("mode %#o must include bits 0600", config.FileMode)
	}

	if err := config.Fs.MkdirAll(config.Path, 0755); err != nil {
		return nil, errors.Wrapf(err, "failed to create the cache dir %s", config.Path)
	}
	info, err := config.Fs.Stat(config.Path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.Errorf("%s is not a directory", config.Path)
	}

	return (*fileCache)(&config), nil
}

type fileCache Config

func (c *fileCache) Load(_ context.Context, key string) ([]byte, error) {
	return afero.ReadFile(c.Fs, filepath.Join(c.Path, c.fileNameForKey(key)))
}

func (c *fileCache) Save(_ context.Context, key string, data []byte) error {
	return afero.WriteFile(c.Fs, filepath.Join(c.Path, c.fileNameForKey(key)), data, c.FileMode)
}

func (c *fileCache) fileNameForKey(key string) string {
	if key != "" {
		key = "_" + sanitize(key)
	}
	return c.FilenamePrefix + key + c.FilenameExtension
}

// sanitize escapes every byte of s that is not safe in a file name as %HH.
func sanitize(s string) string {
	var builder strings.Builder
	hexWriter := hex.NewEncoder(&builder)
	var buf [1]byte
	for i, length := 0, len(s); i < length; i++ {
		char := s[i]
		switch {
		case char >= 'a' && char <= 'z',
			char >= 'A' && char <= 'Z',
			char >= '0' && char <= '9',
			char == '.' || char == '-' || char == '_':
			builder.WriteByte(char)
		default:
			builder.WriteByte('%')
			buf[0] = char
			_, _ = hexWriter.Write(buf[:])
		}
	}
	return builder.String()
}
