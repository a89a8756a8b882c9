// Package cachetesting provides a test suite shared by the cache implementations.
package cachetesting

import (
	"context"
	"crypto/rand"
	"testing"

	"github.com/ktr0731/protoedit/cache"
	"github.com/stretchr/testify/require"
)

// RunSimpleCacheTests saves and loads random data for a few keys with c and
// returns the saved entries.
func RunSimpleCacheTests(t *testing.T, ctx context.Context, c cache.Cache) map[string][]byte {
	t.Helper()

	// Random values make sure nothing saved by another run is read back.
	const (
		keyFoo   = "foo"
		keyBar   = "bar/baz"
		keyEmpty = ""
	)

	entries := make(map[string][]byte, 3)
	for _, k := range []string{keyFoo, keyBar, keyEmpty} {
		val := make([]byte, 100)
		_, err := rand.Read(val)
		require.NoError(t, err)
		entries[k] = val
	}
	valFoo, valBar, valEmpty := entries[keyFoo], entries[keyBar], entries[keyEmpty]

	// load fails since nothing exists
	_, err := c.Load(ctx, keyFoo)
	require.Error(t, err)
	err = c.Save(ctx, keyFoo, valFoo)
	require.NoError(t, err)
	loaded, err := c.Load(ctx, keyFoo)
	require.NoError(t, err)
	require.Equal(t, valFoo, loaded)

	// another key
	_, err = c.Load(ctx, keyBar)
	require.Error(t, err)
	err = c.Save(ctx, keyBar, valBar)
	require.NoError(t, err)
	loaded, err = c.Load(ctx, keyBar)
	require.NoError(t, err)
	require.Equal(t, valBar, loaded)

	// original key unchanged
	loaded, err = c.Load(ctx, keyFoo)
	require.NoError(t, err)
	require.Equal(t, valFoo, loaded)

	// empty key
	err = c.Save(ctx, keyEmpty, valEmpty)
	require.NoError(t, err)
	loaded, err = c.Load(ctx, keyEmpty)
	require.NoError(t, err)
	require.Equal(t, valEmpty, loaded)

	return entries
}
