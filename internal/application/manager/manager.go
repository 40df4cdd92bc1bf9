package manager

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lion-wasm/lion/internal/application/capstore"
	"github.com/lion-wasm/lion/internal/application/checker"
	"github.com/lion-wasm/lion/internal/application/policystore"
	"github.com/lion-wasm/lion/internal/domain/access"
	"github.com/lion-wasm/lion/internal/domain/capability"
	"github.com/lion-wasm/lion/internal/domain/ids"
	"github.com/lion-wasm/lion/internal/domain/plugin"
)

// record is the manager's private bookkeeping for one loaded plugin.
type record struct {
	manifest plugin.Manifest
	state    plugin.State
	handle   InstanceHandle
	capIDs   []ids.CapabilityID
	usage    plugin.ResourceUsage
}

// Manager orchestrates a plugin's full lifecycle: manifest -> granted
// capabilities -> isolated instance -> invocation/messaging -> unload,
// enforcing internal/domain/plugin's state machine at every transition.
type Manager struct {
	mu      sync.RWMutex
	plugins map[ids.PluginID]*record

	caps      *capstore.Store
	rules     *policystore.Store
	checker   *checker.Checker
	isolation Isolation
	bus       Bus
	metrics   *metricsCounters
}

// New wires a Manager from its collaborators. chk is reused as-is except
// that its metrics sink is overwritten to point at this Manager's
// KernelMetrics counters — a Checker is expected to belong to exactly one
// Manager in practice.
func New(caps *capstore.Store, rules *policystore.Store, chk *checker.Checker, isolation Isolation, bus Bus) *Manager {
	m := &Manager{
		plugins:   make(map[ids.PluginID]*record),
		caps:      caps,
		rules:     rules,
		checker:   chk,
		isolation: isolation,
		bus:       bus,
		metrics:   &metricsCounters{},
	}
	chk.WithMetrics(m.metrics)
	return m
}

// Load registers a new plugin with its manifest and a set of already-minted
// capability grants (minted upstream, at the infrastructure/config
// deserialization boundary — Load never trusts raw CapabilitySpec values).
// The new plugin starts in PhaseLoaded; Initialize instantiates it.
func (m *Manager) Load(manifest plugin.Manifest, grants []capability.Capability) ids.PluginID {
	return m.load(ids.NewPluginID(), manifest, grants)
}

// LoadWithID is Load for a caller-supplied id rather than a freshly minted
// one. It exists for hosts that persist a small id-to-manifest record across
// process restarts (the kernel's "no persisted state by default" covers
// plugin *instances*, not this bookkeeping) so a plugin loaded by one CLI
// invocation can still be addressed by UUID from a later one. Returns
// *DuplicatePluginError if id is already registered.
func (m *Manager) LoadWithID(id ids.PluginID, manifest plugin.Manifest, grants []capability.Capability) (ids.PluginID, error) {
	m.mu.RLock()
	_, collides := m.plugins[id]
	m.mu.RUnlock()
	if collides {
		return ids.PluginID{}, &DuplicatePluginError{Plugin: id}
	}
	return m.load(id, manifest, grants), nil
}

func (m *Manager) load(id ids.PluginID, manifest plugin.Manifest, grants []capability.Capability) ids.PluginID {
	m.mu.Lock()
	defer m.mu.Unlock()

	manifest.ResourceLimits = manifest.ResourceLimits.WithDefaults()
	m.caps.Register(id)

	capIDs := make([]ids.CapabilityID, 0, len(grants))
	for _, g := range grants {
		capID, err := m.caps.Grant(id, g)
		if err != nil {
			continue // unreachable: id was just registered above
		}
		capIDs = append(capIDs, capID)
		m.metrics.capabilitiesGranted.Add(1)
	}

	m.plugins[id] = &record{manifest: manifest, state: plugin.Loaded(), capIDs: capIDs}
	m.metrics.pluginsLoaded.Add(1)
	return id
}

// Initialize instantiates the plugin's module in the isolation backend,
// moving it from Loaded to Initialized.
func (m *Manager) Initialize(ctx context.Context, id ids.PluginID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.plugins[id]
	if !ok {
		return &UnknownPluginError{Plugin: id}
	}
	if !rec.state.CanTransition(plugin.PhaseInitialized) {
		return &InvalidTransitionError{Plugin: id, From: rec.state.Phase, To: plugin.PhaseInitialized}
	}

	handle, err := m.isolation.Instantiate(ctx, id, rec.manifest.Source, rec.manifest.ResourceLimits)
	if err != nil {
		return err
	}
	rec.handle = handle
	rec.state = plugin.Initialized()
	return nil
}

// callableFrom reports whether a CallFunction may proceed from phase,
// resuming a Paused instance or continuing a Running one in place.
func callableFrom(phase plugin.Phase) bool {
	return phase == plugin.PhaseInitialized || phase == plugin.PhaseRunning || phase == plugin.PhasePaused
}

// CallFunction invokes an exported guest function directly (the host-issued
// call, as opposed to one plugin calling another through lion_call_plugin,
// which goes through the Checker instead). A trap or resource-limit breach
// is reported as *CrashError; whether the plugin falls back to Loaded (fresh
// instance next time) or Failed (permanently) follows the manifest's
// CrashIsFatal flag, per the Running state's two failure edges.
func (m *Manager) CallFunction(ctx context.Context, id ids.PluginID, function string, args []byte) ([]byte, error) {
	m.mu.Lock()
	rec, ok := m.plugins[id]
	if !ok {
		m.mu.Unlock()
		return nil, &UnknownPluginError{Plugin: id}
	}
	if !callableFrom(rec.state.Phase) {
		from := rec.state.Phase
		m.mu.Unlock()
		return nil, &InvalidTransitionError{Plugin: id, From: from, To: plugin.PhaseRunning}
	}
	rec.state = plugin.Running()
	handle := rec.handle
	m.mu.Unlock()

	out, callErr := m.isolation.Call(ctx, handle, function, args)

	m.mu.Lock()
	defer m.mu.Unlock()
	rec.usage = m.isolation.Usage(handle)

	if callErr != nil {
		fatal := rec.manifest.CrashIsFatal
		if fatal {
			rec.state = plugin.Failed(callErr)
		} else {
			_ = m.isolation.Release(ctx, rec.handle)
			rec.handle = nil
			rec.state = plugin.Loaded()
		}
		return nil, &CrashError{Plugin: id, Cause: callErr, Fatal: fatal}
	}
	return out, nil
}

// Send delivers a message from src, subject to the Checker's authorization
// of a KindSendMessage request against src's granted capabilities.
// Topic-addressed messages (dest.IsTopic) can only be authorized by a
// capability scoped to AnyPlugin peers, since the eventual subscriber set is
// not known to the sender; direct messages address dest.Plugin itself.
func (m *Manager) Send(ctx context.Context, src ids.PluginID, dest plugin.Destination, payload []byte) error {
	m.mu.RLock()
	_, ok := m.plugins[src]
	m.mu.RUnlock()
	if !ok {
		return &UnknownPluginError{Plugin: src}
	}

	target := dest.Plugin.String()
	if dest.IsTopic {
		target = ids.NilPluginID.String()
	}
	req := access.Request{
		Kind:       access.KindSendMessage,
		Plugin:     src,
		Target:     target,
		Parameters: map[string]string{"topic": string(dest.Topic)},
	}
	decision := m.checker.Check(src, req)
	if !decision.Allowed {
		return &NotGrantedError{Plugin: src, Reason: decision.Reason}
	}

	msg := plugin.Message{ID: uuid.NewString(), Source: src, Destination: dest, Payload: payload, Timestamp: time.Now()}
	if err := m.bus.Send(ctx, msg); err != nil {
		return err
	}
	m.metrics.messagesDelivered.Add(1)
	return nil
}

// Unload releases the plugin's instance and cascades revocation: every
// capability grant and policy rule scoped to id is dropped so no stale
// authority survives the plugin itself. Idempotent on an already-unloaded id.
func (m *Manager) Unload(ctx context.Context, id ids.PluginID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.plugins[id]
	if !ok {
		return &UnknownPluginError{Plugin: id}
	}
	if rec.state.Phase == plugin.PhaseUnloaded {
		return nil
	}

	if rec.handle != nil {
		_ = m.isolation.Release(ctx, rec.handle)
		rec.handle = nil
	}
	m.caps.Unregister(id)
	m.rules.Clear(id)
	rec.state = plugin.Unloaded()
	return nil
}

// GetMetadata returns the plugin's load-time manifest.
func (m *Manager) GetMetadata(id ids.PluginID) (plugin.Manifest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.plugins[id]
	if !ok {
		return plugin.Manifest{}, &UnknownPluginError{Plugin: id}
	}
	return rec.manifest, nil
}

// GetState returns the plugin's current lifecycle state.
func (m *Manager) GetState(id ids.PluginID) (plugin.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.plugins[id]
	if !ok {
		return plugin.State{}, &UnknownPluginError{Plugin: id}
	}
	return rec.state, nil
}

// GetResourceUsage returns the plugin's most recently observed resource
// accounting (updated after every CallFunction).
func (m *Manager) GetResourceUsage(id ids.PluginID) (plugin.ResourceUsage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.plugins[id]
	if !ok {
		return plugin.ResourceUsage{}, &UnknownPluginError{Plugin: id}
	}
	return rec.usage, nil
}

// ListPlugins returns every plugin id not yet unloaded, sorted for
// deterministic output (the `list-plugins` CLI surface).
func (m *Manager) ListPlugins() []ids.PluginID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ids.PluginID, 0, len(m.plugins))
	for id, rec := range m.plugins {
		if rec.state.Phase == plugin.PhaseUnloaded {
			continue
		}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// ChainStep is one hop of a Chain invocation: call Plugin.Function with the
// previous step's output (or the initial payload, for the first step).
type ChainStep struct {
	Plugin   ids.PluginID
	Function string
}

// Chain threads payload through each step's CallFunction in sequence,
// feeding each step's output forward as the next step's input, and stops at
// the first error (fail-fast).
func (m *Manager) Chain(ctx context.Context, steps []ChainStep, payload []byte) ([]byte, error) {
	out := payload
	for _, step := range steps {
		next, err := m.CallFunction(ctx, step.Plugin, step.Function, out)
		if err != nil {
			return nil, err
		}
		out = next
	}
	return out, nil
}

// Metrics returns a point-in-time KernelMetrics snapshot.
func (m *Manager) Metrics() KernelMetrics {
	return m.metrics.snapshot()
}
