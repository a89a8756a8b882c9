package app

import (
	"context"
	"time"

	gomemcache "github.com/bradfitz/gomemcache/memcache"
	"github.com/ktr0731/protoedit/cache"
	"github.com/ktr0731/protoedit/cache/filecache"
	"github.com/ktr0731/protoedit/cache/memcache"
	"github.com/ktr0731/protoedit/cache/rediscache"
	"github.com/ktr0731/protoedit/config"
	"github.com/ktr0731/protoedit/idl"
	"github.com/ktr0731/protoedit/idl/proto"
	"github.com/ktr0731/protoedit/logger"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"google.golang.org/protobuf/reflect/protoreflect"
)

var errProtoFileRequired = errors.New("at least one proto file is required (--proto or default.protoFile)")

// newCache returns the descriptor cache cfg configures. It returns nil if caching is disabled.
func (a *App) newCache(cfg *config.Cache) (cache.Cache, error) {
	switch cfg.Kind {
	case config.CacheFile:
		return filecache.New(filecache.Config{Path: cfg.Dir, Fs: a.cacheFs()})
	case config.CacheMemcache:
		return memcache.New(memcache.Config{
			Client:            gomemcache.New(cfg.Addr),
			ExpirationSeconds: int32(cfg.TTL),
		})
	case config.CacheRedis:
		return rediscache.New(rediscache.Config{
			Client:     rediscache.NewPool(cfg.Addr),
			Expiration: time.Duration(cfg.TTL) * time.Second,
		})
	default:
		return nil, nil
	}
}

// cacheFs returns the file system of the file cache. Caches of the OS file
// system are left to filecache's default.
func (a *App) cacheFs() afero.Fs {
	if _, ok := a.fs.(*afero.OsFs); ok {
		return nil
	}
	return a.fs
}

// loadSpec loads the proto files cfg names.
func (a *App) loadSpec(ctx context.Context, cfg *config.Config) (idl.Spec, error) {
	if len(cfg.Default.ProtoFile) == 0 {
		return nil, errProtoFileRequired
	}
	c, err := a.newCache(cfg.Cache)
	if err != nil {
		// The cache is an optimization. Loading works without it.
		logger.Warnf("cache is disabled: %s", err)
	}
	l := &proto.Loader{
		Fs:          a.fs,
		ImportPaths: cfg.Default.ProtoPath,
		Cache:       c,
	}
	spec, err := l.Load(ctx, cfg.Default.ProtoFile...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load proto files")
	}
	logger.Printf("loaded %d files", len(spec.FileDescriptorSet().GetFile()))
	return spec, nil
}

// loadMessage loads the spec and resolves the message named name in it.
func (a *App) loadMessage(ctx context.Context, cfg *config.Config, name string) (idl.Spec, protoreflect.MessageDescriptor, error) {
	spec, err := a.loadSpec(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	md, err := spec.ResolveMessage(name)
	if err != nil {
		return nil, nil, err
	}
	return spec, md, nil
}
