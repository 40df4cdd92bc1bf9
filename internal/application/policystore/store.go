// Package policystore holds the per-subject ordered rule lists evaluated by
// the capability checker. Rule order is evaluation order; writers are
// exclusive, readers run in parallel.
package policystore

import (
	"sync"

	"github.com/lion-wasm/lion/internal/domain/ids"
	"github.com/lion-wasm/lion/internal/domain/policy"
)

// Store is the policy store. The zero value is not usable; use New.
type Store struct {
	mu    sync.RWMutex
	rules map[ids.PluginID][]policy.Rule // keyed by concrete plugin
	any   []policy.Rule                  // rules registered for policy.AnySubject()
}

// New creates an empty policy store.
func New() *Store {
	return &Store{rules: make(map[ids.PluginID][]policy.Rule)}
}

// Add appends rule to the end of its subject's rule list, becoming the
// last-evaluated (lowest-priority) rule for that subject.
func (s *Store) Add(rule policy.Rule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rule.Subject.Any {
		s.any = append(s.any, rule)
		return
	}
	s.rules[rule.Subject.Plugin] = append(s.rules[rule.Subject.Plugin], rule)
}

// Replace overwrites the entire rule set for a subject, preserving the
// given order as the new evaluation order.
func (s *Store) Replace(subject policy.Subject, rules []policy.Rule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if subject.Any {
		s.any = append([]policy.Rule(nil), rules...)
		return
	}
	s.rules[subject.Plugin] = append([]policy.Rule(nil), rules...)
}

// RulesFor returns the plugin-specific rules followed by the Any-subject
// rules, in that order — matching the Checker's evaluation order: rules for
// the plugin, then rules for Any subject.
func (s *Store) RulesFor(id ids.PluginID) []policy.Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]policy.Rule, 0, len(s.rules[id])+len(s.any))
	out = append(out, s.rules[id]...)
	out = append(out, s.any...)
	return out
}

// Clear removes every rule for a specific plugin (used when a plugin is
// unloaded, mirroring capstore's cascade).
func (s *Store) Clear(id ids.PluginID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rules, id)
}
