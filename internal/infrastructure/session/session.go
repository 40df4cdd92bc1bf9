// Package session gives the CLI a small on-disk record of which plugin
// UUIDs were assigned by a prior load-plugin/load-wasm invocation, and the
// manifest each one was loaded from. The kernel itself keeps no persisted
// state — no instance, capability, or audit state survives a process exit
// — but the CLI's subcommand surface splits loading a plugin from acting on
// it across separate invocations, which only makes sense if *something*
// remembers the UUID-to-manifest mapping in between. This package is that
// something: a small JSON-backed element store that persists bookkeeping
// only, never a live instance or a minted capability.
package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/lion-wasm/lion/internal/domain/ids"
	"github.com/lion-wasm/lion/internal/domain/plugin"
)

// Entry is everything needed to reconstruct a plugin's Manager record:
// re-resolving its capability grants from Manifest.RequestedCapabilities
// and re-instantiating it from Manifest.Source.
type Entry struct {
	Manifest plugin.Manifest `json:"manifest"`
}

// Store reads and writes the session file at Path. The zero value is not
// usable; use New.
type Store struct {
	Path string
}

// New returns a Store rooted at path. path's parent directory is created
// on first Save if missing.
func New(path string) *Store {
	return &Store{Path: path}
}

// Load returns every remembered plugin, or an empty map if the session file
// doesn't exist yet (the common case for a fresh load-plugin invocation).
func (s *Store) Load() (map[ids.PluginID]Entry, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return map[ids.PluginID]Entry{}, nil
	}
	if err != nil {
		return nil, err
	}

	var raw map[string]Entry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	out := make(map[ids.PluginID]Entry, len(raw))
	for k, v := range raw {
		id, err := ids.ParsePluginID(k)
		if err != nil {
			continue // corrupt key: drop rather than fail the whole load
		}
		out[id] = v
	}
	return out, nil
}

// Save overwrites the session file with entries.
func (s *Store) Save(entries map[ids.PluginID]Entry) error {
	raw := make(map[string]Entry, len(entries))
	for id, e := range entries {
		raw[id.String()] = e
	}

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.Path, data, 0o600)
}

// Put loads the session, sets id's entry, and saves it back.
func (s *Store) Put(id ids.PluginID, e Entry) error {
	entries, err := s.Load()
	if err != nil {
		return err
	}
	entries[id] = e
	return s.Save(entries)
}

// Get loads the session and returns id's entry, if remembered.
func (s *Store) Get(id ids.PluginID) (Entry, bool, error) {
	entries, err := s.Load()
	if err != nil {
		return Entry{}, false, err
	}
	e, ok := entries[id]
	return e, ok, nil
}

// Delete removes id's entry, if present. A no-op on an unknown id.
func (s *Store) Delete(id ids.PluginID) error {
	entries, err := s.Load()
	if err != nil {
		return err
	}
	if _, ok := entries[id]; !ok {
		return nil
	}
	delete(entries, id)
	return s.Save(entries)
}
