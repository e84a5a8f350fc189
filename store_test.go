package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	var cfg Config
	cfg.Database = filepath.Join(t.TempDir(), "nested", "catpage.db")
	store, err := NewStore(&cfg)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreUsers(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.AddUser("alice", "whiskers", 1))

	assert.True(t, store.TestUser("alice", "whiskers"))
	assert.True(t, store.TestUser("alice", "whiskers"), "Served from cache")
	assert.False(t, store.TestUser("alice", "paws"))
	assert.False(t, store.TestUser("bob", "whiskers"))
}

func TestStoreReplaceUser(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.AddUser("alice", "whiskers", 1))
	require.True(t, store.TestUser("alice", "whiskers"), "Old password cached")

	require.NoError(t, store.AddUser("alice", "tail", 1))
	assert.False(t, store.TestUser("alice", "whiskers"), "Old password is dropped")
	assert.True(t, store.TestUser("alice", "tail"))
}

func TestStoreReplaceUserFromOtherStore(t *testing.T) {
	var cfg Config
	cfg.Database = filepath.Join(t.TempDir(), "shared.db")
	server, err := NewStore(&cfg)
	require.NoError(t, err)
	defer server.Close()
	admin, err := NewStore(&cfg)
	require.NoError(t, err)
	defer admin.Close()

	require.NoError(t, admin.AddUser("alice", "whiskers", 1))
	require.True(t, server.TestUser("alice", "whiskers"))

	require.NoError(t, admin.AddUser("alice", "tail", 1))
	assert.False(t, server.TestUser("alice", "whiskers"), "Cache entry is tied to the stored hash")
	assert.True(t, server.TestUser("alice", "tail"))
}

func TestStoreRejectsEmpty(t *testing.T) {
	store := newTestStore(t)
	assert.Error(t, store.AddUser("", "whiskers", 1))
	assert.Error(t, store.AddUser("alice", "", 1))
}
