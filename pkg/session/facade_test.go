package session_test

import (
	"context"
	"testing"

	"github.com/aretw0/satchel/pkg/domain"
	"github.com/aretw0/satchel/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession(t *testing.T) {
	ctx := context.Background()

	t.Run("Default Namespace", func(t *testing.T) {
		host := &fakeHost{}
		s := session.New(bootFile(t, host))

		require.NoError(t, s.Set(ctx, "user_id", 42))
		assert.True(t, s.Manager().Started(), "access starts the session lazily")
		assert.Equal(t, map[string]any{"user_id": 42}, host.values[domain.DefaultNamespace])

		v, err := s.Get(ctx, "user_id")
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	})

	t.Run("Namespaces Are Uppercased", func(t *testing.T) {
		host := &fakeHost{}
		s := session.New(bootFile(t, host))

		require.NoError(t, s.Set(ctx, "sku", "A-1", "cart"))
		assert.Contains(t, host.values, "CART")

		v, err := s.Get(ctx, "sku", "CART")
		require.NoError(t, err)
		assert.Equal(t, "A-1", v)

		v, err = s.Get(ctx, "sku")
		require.NoError(t, err)
		assert.Nil(t, v, "other namespaces are isolated")
	})

	t.Run("Has Pop All", func(t *testing.T) {
		s := session.New(bootFile(t, &fakeHost{}))

		require.NoError(t, s.Set(ctx, "a", 1))
		require.NoError(t, s.Set(ctx, "b", 2))

		ok, err := s.Has(ctx, "a")
		require.NoError(t, err)
		assert.True(t, ok)

		v, err := s.Pop(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, 1, v)

		ok, err = s.Has(ctx, "a")
		require.NoError(t, err)
		assert.False(t, ok)

		all, err := s.All(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"b": 2}, all)

		all["c"] = 3
		ok, _ = s.Has(ctx, "c")
		assert.False(t, ok, "All returns a copy")

		v, err = s.Pop(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("Regenerate", func(t *testing.T) {
		host := &fakeHost{}
		s := session.New(bootFile(t, host))

		require.NoError(t, s.Regenerate(ctx, true))
		assert.Equal(t, 1, host.regenerations)
		assert.Equal(t, "sid1x", s.ID())
	})

	t.Run("End", func(t *testing.T) {
		host := &fakeHost{}
		s := session.New(bootFile(t, host))

		require.NoError(t, s.Set(ctx, "k", "v"))
		require.NoError(t, s.End(ctx))
		assert.False(t, s.Manager().Started())
		assert.Equal(t, 1, host.destroys)
	})

	t.Run("Not Booted", func(t *testing.T) {
		s := session.New(session.NewManager(&fakeHost{}))
		assert.ErrorIs(t, s.Set(ctx, "k", "v"), domain.ErrNoDriver)
		_, err := s.Get(ctx, "k")
		assert.ErrorIs(t, err, domain.ErrNoDriver)
	})
}
