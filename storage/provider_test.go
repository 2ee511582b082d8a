package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testProviderBehavior 校验存储提供者的公共行为
func testProviderBehavior(t *testing.T, p Provider) {
	ctx := context.Background()
	scope := ScopePath("posts", "owner-1")

	t.Run("missing scope", func(t *testing.T) {
		exists, err := p.Exists(ctx, scope)
		require.NoError(t, err)
		assert.False(t, exists)

		_, err = p.ListRegularEntries(ctx, scope)
		assert.ErrorIs(t, err, ErrNotExist)

		assert.ErrorIs(t, p.DeleteTree(ctx, scope), ErrNotExist)
	})

	t.Run("write and list", func(t *testing.T) {
		require.NoError(t, p.CreateScope(ctx, scope))
		require.NoError(t, p.CreateScope(ctx, scope), "creating an existing scope is not an error")

		require.NoError(t, p.WriteBlob(ctx, scope+"/b.png", strings.NewReader("bbb")))
		require.NoError(t, p.WriteBlob(ctx, scope+"/a.png", strings.NewReader("aaa")))
		require.NoError(t, p.WriteBlob(ctx, scope+"/nested/c.png", strings.NewReader("ccc")))

		names, err := p.ListRegularEntries(ctx, scope)
		require.NoError(t, err)
		assert.Equal(t, []string{"a.png", "b.png"}, names)

		exists, err := p.Exists(ctx, scope+"/a.png")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("open", func(t *testing.T) {
		rc, err := p.Open(ctx, scope+"/a.png")
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		require.NoError(t, err)
		assert.Equal(t, "aaa", string(data))

		_, err = p.Open(ctx, scope+"/missing.png")
		assert.ErrorIs(t, err, ErrNotExist)
	})

	t.Run("delete blob", func(t *testing.T) {
		require.NoError(t, p.DeleteBlob(ctx, scope+"/b.png"))
		assert.ErrorIs(t, p.DeleteBlob(ctx, scope+"/b.png"), ErrNotExist)

		names, err := p.ListRegularEntries(ctx, scope)
		require.NoError(t, err)
		assert.Equal(t, []string{"a.png"}, names)
	})

	t.Run("delete tree", func(t *testing.T) {
		require.NoError(t, p.DeleteTree(ctx, scope))

		exists, err := p.Exists(ctx, scope)
		require.NoError(t, err)
		assert.False(t, exists)

		exists, err = p.Exists(ctx, scope+"/nested/c.png")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("invalid paths", func(t *testing.T) {
		assert.Error(t, p.WriteBlob(ctx, "../escape.png", strings.NewReader("x")))
		assert.Error(t, p.DeleteBlob(ctx, "posts/../../etc/passwd"))
		_, err := p.Open(ctx, "/etc/passwd")
		assert.Error(t, err)
	})

	assert.NoError(t, p.Health(ctx))
}
