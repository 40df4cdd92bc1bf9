package session

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lion-wasm/lion/internal/domain/ids"
	"github.com/lion-wasm/lion/internal/domain/plugin"
)

func TestStore_LoadMissingFileReturnsEmpty(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "nonexistent", "session.json"))
	entries, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStore_PutThenGetRoundTrips(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "session.json"))
	id := ids.NewPluginID()
	manifest := plugin.Manifest{Name: "calc", Version: "0.1.0", Source: plugin.Source{Kind: plugin.SourceFile, Value: "/tmp/calc.wasm"}}

	require.NoError(t, s.Put(id, Entry{Manifest: manifest}))

	got, ok, err := s.Get(id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, manifest, got.Manifest)
}

func TestStore_GetUnknownIDReturnsFalse(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "session.json"))
	_, ok, err := s.Get(ids.NewPluginID())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_DeleteRemovesEntry(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "session.json"))
	id := ids.NewPluginID()
	require.NoError(t, s.Put(id, Entry{Manifest: plugin.Manifest{Name: "calc"}}))

	require.NoError(t, s.Delete(id))

	_, ok, err := s.Get(id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_DeleteUnknownIDIsNotAnError(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "session.json"))
	assert.NoError(t, s.Delete(ids.NewPluginID()))
}

func TestStore_SurvivesReopenWithMultipleEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	a, b := ids.NewPluginID(), ids.NewPluginID()

	first := New(path)
	require.NoError(t, first.Put(a, Entry{Manifest: plugin.Manifest{Name: "a"}}))
	require.NoError(t, first.Put(b, Entry{Manifest: plugin.Manifest{Name: "b"}}))

	reopened := New(path)
	entries, err := reopened.Load()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[a].Manifest.Name)
	assert.Equal(t, "b", entries[b].Manifest.Name)
}
