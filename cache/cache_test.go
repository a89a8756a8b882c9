package cache_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/ktr0731/protoedit/cache"
	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	base := cache.Key([]string{"a.proto"}, map[string]string{"a.proto": "x", "b.proto": "y"})

	assert.True(t, strings.HasPrefix(base, "protoedit-"))
	assert.Equal(t, base, cache.Key([]string{"a.proto"}, map[string]string{"b.proto": "y", "a.proto": "x"}), "key must not depend on map order")

	cases := map[string]struct {
		roots   []string
		sources map[string]string
	}{
		"different content": {roots: []string{"a.proto"}, sources: map[string]string{"a.proto": "x2", "b.proto": "y"}},
		"different path":    {roots: []string{"a.proto"}, sources: map[string]string{"a.proto": "x", "c.proto": "y"}},
		"different roots":   {roots: []string{"b.proto"}, sources: map[string]string{"a.proto": "x", "b.proto": "y"}},
		"moved boundary":    {roots: []string{"a.proto"}, sources: map[string]string{"a.proto": "xb.proto", "b.proto": "y"}},
	}
	for name, c := range cases {
		c := c
		t.Run(name, func(t *testing.T) {
			assert.NotEqual(t, base, cache.Key(c.roots, c.sources))
		})
	}
}

func TestDefaultDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", filepath.Join("tmp", "cache"))
	assert.Equal(t, filepath.Join("tmp", "cache", "protoedit"), cache.DefaultDir())
}
