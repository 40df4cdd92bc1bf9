// Package capstore implements the concurrent-safe per-plugin capability
// store: every guarded operation reads it, so it is reader-biased
// (sync.RWMutex), and it maintains a cached Composite view per plugin so
// the hot check path never re-walks the individual grants.
package capstore

import (
	"errors"
	"sort"
	"sync"

	"github.com/lion-wasm/lion/internal/domain/capability"
	"github.com/lion-wasm/lion/internal/domain/constraint"
	"github.com/lion-wasm/lion/internal/domain/ids"
)

// Errors returned by store operations.
var (
	ErrUnknownPlugin = errors.New("capstore: unknown plugin")
	ErrNotGranted    = errors.New("capstore: capability id not granted")
	ErrUnsupported   = capability.ErrUnsupported
)

// Entry pairs a capability with the handle used to revoke it later.
type Entry struct {
	ID         ids.CapabilityID
	Capability capability.Capability
}

type plugin struct {
	grants    []Entry // ordered set, insertion order preserved
	composite capability.Capability
	hasAny    bool
}

// Store is the capability store. The zero value is not usable; use New.
type Store struct {
	mu      sync.RWMutex
	plugins map[ids.PluginID]*plugin
}

// New creates an empty capability store.
func New() *Store {
	return &Store{plugins: make(map[ids.PluginID]*plugin)}
}

// Register enrolls a plugin with an empty grant set, making it a valid
// target for Grant. Re-registering an already-known plugin is a no-op.
func (s *Store) Register(id ids.PluginID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plugins[id]; ok {
		return
	}
	s.plugins[id] = &plugin{}
}

// Unregister drops every grant for id; subsequent checks for id must see
// ErrUnknownPlugin. Idempotent.
func (s *Store) Unregister(id ids.PluginID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.plugins, id)
}

// Known reports whether id is registered.
func (s *Store) Known(id ids.PluginID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.plugins[id]
	return ok
}

// Grant adds cap to the plugin's grant set and returns a fresh handle.
func (s *Store) Grant(id ids.PluginID, cap capability.Capability) (ids.CapabilityID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plugins[id]
	if !ok {
		return ids.NilCapabilityID, ErrUnknownPlugin
	}
	capID := ids.NewCapabilityID()
	p.grants = append(p.grants, Entry{ID: capID, Capability: cap})
	s.refreshComposite(p)
	return capID, nil
}

// Revoke removes the grant identified by capID entirely.
func (s *Store) Revoke(id ids.PluginID, capID ids.CapabilityID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plugins[id]
	if !ok {
		return ErrUnknownPlugin
	}
	idx := indexOf(p.grants, capID)
	if idx < 0 {
		return ErrNotGranted
	}
	p.grants = append(p.grants[:idx], p.grants[idx+1:]...)
	s.refreshComposite(p)
	return nil
}

// PartialRevoke replaces the grant identified by capID with
// Filter{inner, ¬constraint}, removing only the sub-region of authority
// matching k. Capabilities that cannot be split (Custom) return
// ErrUnsupported and leave the store unchanged.
func (s *Store) PartialRevoke(id ids.PluginID, capID ids.CapabilityID, k constraint.Constraint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plugins[id]
	if !ok {
		return ErrUnknownPlugin
	}
	idx := indexOf(p.grants, capID)
	if idx < 0 {
		return ErrNotGranted
	}
	_, rejected, err := p.grants[idx].Capability.Split(k)
	if err != nil {
		return err
	}
	p.grants[idx].Capability = rejected
	s.refreshComposite(p)
	return nil
}

// List returns the plugin's grants in insertion order. The returned slice
// is a copy; mutating it does not affect the store.
func (s *Store) List(id ids.PluginID) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.plugins[id]
	if !ok {
		return nil, ErrUnknownPlugin
	}
	out := make([]Entry, len(p.grants))
	copy(out, p.grants)
	return out, nil
}

// Composite returns the cached union of every grant for id. ok is false if
// the plugin is unknown or has no grants.
func (s *Store) Composite(id ids.PluginID) (cap capability.Capability, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, known := s.plugins[id]
	if !known || !p.hasAny {
		return capability.Capability{}, false
	}
	return p.composite, true
}

func (s *Store) refreshComposite(p *plugin) {
	if len(p.grants) == 0 {
		p.hasAny = false
		p.composite = capability.Capability{}
		return
	}
	comps := make([]capability.Capability, len(p.grants))
	for i, e := range p.grants {
		comps[i] = e.Capability
	}
	p.composite = capability.NewComposite(comps...)
	p.hasAny = true
}

func indexOf(entries []Entry, id ids.CapabilityID) int {
	for i, e := range entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// PluginIDs returns every registered plugin id, sorted for deterministic
// iteration in callers like `list-plugins`.
func (s *Store) PluginIDs() []ids.PluginID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ids.PluginID, 0, len(s.plugins))
	for id := range s.plugins {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
