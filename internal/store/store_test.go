package store_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"obscura/internal/domain"
	"obscura/internal/store"
)

// exerciseStorage runs the shared Storage contract against any backend.
func exerciseStorage(t *testing.T, s domain.Storage) {
	t.Helper()

	_, ok, err := s.Get("missing")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Set("b", "two"))
	require.NoError(t, s.Set("a", "one"))
	require.NoError(t, s.Set("a", "uno")) // overwrite

	v, ok, err := s.Get("a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "uno", v)

	has, err := s.Has("b")
	require.NoError(t, err)
	require.True(t, has)

	keys, err := s.Keys()
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, keys)

	require.NoError(t, s.Delete("a"))
	require.NoError(t, s.Delete("a")) // idempotent
	has, err = s.Has("a")
	require.NoError(t, err)
	require.False(t, has)

	require.NoError(t, s.Clear())
	keys, err = s.Keys()
	require.NoError(t, err)
	require.Empty(t, keys)
}

func TestMemStore(t *testing.T) {
	exerciseStorage(t, store.NewMemStore())
}

func TestBoltStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "obscura.db")
	s, err := store.OpenBolt(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, s.Close()) }()

	exerciseStorage(t, s)
}

func TestBoltStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "obscura.db")

	s, err := store.OpenBolt(path)
	require.NoError(t, err)
	require.NoError(t, s.Set("vault", `{"version":1}`))
	require.NoError(t, s.Close())

	s, err = store.OpenBolt(path)
	require.NoError(t, err)
	defer s.Close()

	v, ok, err := s.Get("vault")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `{"version":1}`, v)
}
