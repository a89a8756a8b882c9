// Package proto implements idl.Spec for Protocol Buffers.
package proto

import (
	"context"
	"io"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bufbuild/protocompile"
	"github.com/bufbuild/protocompile/linker"
	"github.com/ktr0731/protoedit/cache"
	"github.com/ktr0731/protoedit/idl"
	"github.com/ktr0731/protoedit/imports"
	"github.com/ktr0731/protoedit/logger"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
)

// UnresolvedImportsError is returned if some imports of the loaded files can't
// be found in any import path.
type UnresolvedImportsError struct {
	Imports []string
}

func (e *UnresolvedImportsError) Error() string {
	return "proto: unresolved imports: " + strings.Join(e.Imports, ", ")
}

// Loader loads .proto files like protoc does with its -I options.
type Loader struct {
	// Fs is the file system files are read from. Defaults to the OS file system.
	Fs afero.Fs
	// ImportPaths are the directories imports are searched in, in order.
	// Defaults to the current directory.
	ImportPaths []string
	// Cache caches compiled descriptor sets. Optional.
	Cache cache.Cache
}

// LoadFiles receives proto file names and import paths like protoc's options.
// Then, LoadFiles parses these files and instantiates a new idl.Spec.
func LoadFiles(ctx context.Context, importPaths []string, fnames []string) (idl.Spec, error) {
	l := &Loader{ImportPaths: importPaths}
	return l.Load(ctx, fnames...)
}

// Load loads fnames and all files they import, and returns the spec of them.
func (l *Loader) Load(ctx context.Context, fnames ...string) (idl.Spec, error) {
	if len(fnames) == 0 {
		return nil, errors.New("proto: no proto files passed")
	}
	fnames = cleanNames(fnames)

	srcs, err := l.Sources(ctx, fnames...)
	if err != nil {
		return nil, err
	}
	g := imports.NewGraph(srcs, fnames[0])
	if len(g.Unresolved) != 0 {
		return nil, &UnresolvedImportsError{Imports: g.Unresolved}
	}
	if _, err := g.Order(); err != nil {
		return nil, errors.Wrap(err, "proto: invalid imports")
	}

	key := cache.Key(fnames, srcs)
	if fds, ok := l.loadCache(ctx, key); ok {
		return newSpec(fnames, fds)
	}

	fds, err := compile(ctx, srcs, g.Aliases(), fnames)
	if err != nil {
		return nil, err
	}
	l.saveCache(ctx, key, fds)
	return newSpec(fnames, fds)
}

func (l *Loader) loadCache(ctx context.Context, key string) (*descriptorpb.FileDescriptorSet, bool) {
	if l.Cache == nil {
		return nil, false
	}
	b, err := l.Cache.Load(ctx, key)
	if err != nil {
		logger.Debugf("cache miss: %s", key)
		return nil, false
	}
	var fds descriptorpb.FileDescriptorSet
	if err := proto.Unmarshal(b, &fds); err != nil {
		logger.Warnf("ignored a broken cache entry %s: %s", key, err)
		return nil, false
	}
	logger.Debugf("cache hit: %s", key)
	return &fds, true
}

func (l *Loader) saveCache(ctx context.Context, key string, fds *descriptorpb.FileDescriptorSet) {
	if l.Cache == nil {
		return
	}
	b, err := proto.Marshal(fds)
	if err != nil {
		logger.Warnf("failed to marshal the descriptor set: %s", err)
		return
	}
	if err := l.Cache.Save(ctx, key, b); err != nil {
		logger.Warnf("failed to save the descriptor set to the cache: %s", err)
	}
}

// Sources reads fnames and the files they import, transitively, and returns
// their contents keyed by path. Relative imports are keyed by their path
// normalized against the importing file. Imports that can't be found are not
// read; imports.Unresolved reports them.
func (l *Loader) Sources(ctx context.Context, fnames ...string) (map[string]string, error) {
	srcs := make(map[string]string)
	var mu sync.Mutex

	level := cleanNames(fnames)
	for _, name := range level {
		srcs[name] = ""
	}
	roots := make(map[string]struct{}, len(level))
	for _, name := range level {
		roots[name] = struct{}{}
	}

	for len(level) != 0 {
		eg, ctx := errgroup.WithContext(ctx)
		found := make(map[string]string, len(level))
		for _, name := range level {
			name := name
			eg.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				src, err := l.read(name)
				if err != nil {
					if _, ok := roots[name]; ok || !errors.Is(err, fs.ErrNotExist) {
						return err
					}
					return nil
				}
				mu.Lock()
				found[name] = src
				mu.Unlock()
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}

		var next []string
		for _, name := range level {
			src, ok := found[name]
			if !ok {
				delete(srcs, name)
				continue
			}
			srcs[name] = src
			for _, imp := range imports.Parse(src) {
				if imp.IsWellKnown() {
					continue
				}
				p := imports.Normalize(name, imp.Path)
				if _, ok := srcs[p]; ok {
					continue
				}
				srcs[p] = ""
				next = append(next, p)
			}
		}
		sort.Strings(next)
		level = next
	}

	logger.WithFields(logrus.Fields{"files": len(srcs)}).Debug("read proto sources")
	return srcs, nil
}

// read returns the content of name in the first import path containing it.
func (l *Loader) read(name string) (string, error) {
	fsys := l.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	importPaths := l.ImportPaths
	if len(importPaths) == 0 {
		importPaths = []string{"."}
	}
	for _, ip := range importPaths {
		b, err := afero.ReadFile(fsys, filepath.Join(ip, filepath.FromSlash(name)))
		if err == nil {
			return string(b), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", errors.Wrapf(err, "proto: failed to read %s", name)
		}
	}
	return "", errors.Wrapf(fs.ErrNotExist, "proto: %s is not found in import paths %v", name, importPaths)
}

func cleanNames(fnames []string) []string {
	cleaned := make([]string, len(fnames))
	for i, name := range fnames {
		cleaned[i] = path.Clean(filepath.ToSlash(name))
	}
	return cleaned
}

func compile(ctx context.Context, srcs, aliases map[string]string, fnames []string) (*descriptorpb.FileDescriptorSet, error) {
	c := &protocompile.Compiler{
		Resolver: protocompile.WithStandardImports(&protocompile.SourceResolver{
			Accessor: func(name string) (io.ReadCloser, error) {
				if src, ok := srcs[name]; ok {
					return io.NopCloser(strings.NewReader(src)), nil
				}
				if p, ok := aliases[name]; ok {
					return io.NopCloser(strings.NewReader(srcs[p])), nil
				}
				return nil, fs.ErrNotExist
			},
		}),
	}
	compiled, err := c.Compile(ctx, fnames...)
	if err != nil {
		return nil, errors.Wrap(err, "proto: failed to compile proto files")
	}
	return toFileDescriptorSet(compiled), nil
}

// toFileDescriptorSet converts files and their dependencies into a descriptor
// set in which every file follows its dependencies.
func toFileDescriptorSet(files linker.Files) *descriptorpb.FileDescriptorSet {
	fds := &descriptorpb.FileDescriptorSet{}
	seen := make(map[string]struct{})
	var add func(fd protoreflect.FileDescriptor)
	add = func(fd protoreflect.FileDescriptor) {
		if _, ok := seen[fd.Path()]; ok {
			return
		}
		seen[fd.Path()] = struct{}{}
		imps := fd.Imports()
		for i := 0; i < imps.Len(); i++ {
			add(imps.Get(i).FileDescriptor)
		}
		fds.File = append(fds.File, protodesc.ToFileDescriptorProto(fd))
	}
	for _, f := range files {
		add(f)
	}
	return fds
}
