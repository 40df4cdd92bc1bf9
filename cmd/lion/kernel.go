package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tetratelabs/wazero"

	"github.com/lion-wasm/lion/internal/application/audit"
	"github.com/lion-wasm/lion/internal/application/capstore"
	"github.com/lion-wasm/lion/internal/application/checker"
	"github.com/lion-wasm/lion/internal/application/manager"
	"github.com/lion-wasm/lion/internal/application/policystore"
	"github.com/lion-wasm/lion/internal/domain/ids"
	"github.com/lion-wasm/lion/internal/domain/plugin"
	"github.com/lion-wasm/lion/internal/infrastructure/bus"
	"github.com/lion-wasm/lion/internal/infrastructure/config"
	"github.com/lion-wasm/lion/internal/infrastructure/hostfuncs"
	"github.com/lion-wasm/lion/internal/infrastructure/isolation"
	"github.com/lion-wasm/lion/internal/infrastructure/redaction"
	"github.com/lion-wasm/lion/internal/infrastructure/session"
)

// kernel is the set of collaborators every subcommand needs: the Plugin
// Manager and the application-layer stores backing it, plus the session
// record that lets --plugin-id on a later invocation resolve back to the
// manifest loaded by an earlier one. One kernel is built fresh per process;
// nothing about a live instance persists across invocations.
type kernel struct {
	caps     *capstore.Store
	rules    *policystore.Store
	checker  *checker.Checker
	bus      *bus.Bus
	backend  *isolation.Backend
	manager  *manager.Manager
	redactor *redaction.Redactor
	session  *session.Store
}

// managerRef forwards MessageSender/PluginCaller calls to a *manager.Manager
// that doesn't exist yet at the time hostfuncs.Register needs something to
// close over: the isolation backend's host module is built before the
// Manager that will use it as its Isolation, so the host functions are
// wired against this indirection and m is filled in once the Manager is
// constructed a few lines later.
type managerRef struct {
	m *manager.Manager
}

func (r *managerRef) Send(ctx context.Context, src ids.PluginID, dest plugin.Destination, payload []byte) error {
	return r.m.Send(ctx, src, dest, payload)
}

func (r *managerRef) CallFunction(ctx context.Context, id ids.PluginID, function string, args []byte) ([]byte, error) {
	return r.m.CallFunction(ctx, id, function, args)
}

// newKernel wires every collaborator, leaf infrastructure first, then the
// application services layered on top.
func newKernel(ctx context.Context) (*kernel, error) {
	caps := capstore.New()
	rules := policystore.New()

	auditSink, err := newAuditLog(ctx)
	if err != nil {
		return nil, fmt.Errorf("lion: opening audit log: %w", err)
	}

	redactor, err := redaction.New(redaction.Config{})
	if err != nil {
		return nil, fmt.Errorf("lion: building redactor: %w", err)
	}

	chk := checker.New(caps, rules, auditSink).WithRedactor(redactor)

	if rulesPath := globalFlags.policyFile; rulesPath != "" {
		loaded, err := config.LoadPolicyRules(rulesPath)
		if err != nil {
			return nil, userErrorf(fmt.Errorf("lion: loading policy rules: %w", err))
		}
		for _, r := range loaded {
			rules.Add(r)
		}
	}

	msgBus := bus.New(bus.Config{})

	ref := &managerRef{}
	registrar := func(ctx context.Context, rt wazero.Runtime) error {
		return hostfuncs.Register(ctx, rt, chk, ref, ref, redactor)
	}

	cacheDir := moduleCacheDir()
	backend, err := isolation.New(ctx, 0, cacheDir, registrar)
	if err != nil {
		return nil, fmt.Errorf("lion: starting isolation backend: %w", err)
	}

	mgr := manager.New(caps, rules, chk, backend, msgBus)
	ref.m = mgr

	return &kernel{
		caps:     caps,
		rules:    rules,
		checker:  chk,
		bus:      msgBus,
		backend:  backend,
		manager:  mgr,
		redactor: redactor,
		session:  session.New(sessionFilePath()),
	}, nil
}

// Close releases the isolation backend's wazero runtime and compilation
// cache. CLI invocations are short-lived so this mostly matters for the
// test suite, which creates many kernels in a row.
func (k *kernel) Close(ctx context.Context) error {
	return k.backend.Close(ctx)
}

// loadFromSession re-synthesizes a plugin.Manifest previously remembered
// under id, re-resolves its capabilities, re-registers it with the Manager
// under the SAME id via LoadWithID, and initializes it — putting the
// Manager into the state a fresh `load-plugin` would have left it in, so
// any subcommand addressing --plugin-id UUID can pick up where an earlier
// process invocation left off.
func (k *kernel) loadFromSession(ctx context.Context, id ids.PluginID) error {
	entry, ok, err := k.session.Get(id)
	if err != nil {
		return fmt.Errorf("lion: reading session: %w", err)
	}
	if !ok {
		return &manager.UnknownPluginError{Plugin: id}
	}

	grants, _, err := config.ResolveManifestCapabilities(entry.Manifest)
	if err != nil {
		return userErrorf(fmt.Errorf("lion: re-resolving capabilities for %s: %w", id, err))
	}
	if _, err := k.manager.LoadWithID(id, entry.Manifest, grants); err != nil {
		return err
	}
	return k.manager.Initialize(ctx, id)
}

// remember persists manifest under id so a later invocation's --plugin-id
// can find it again.
func (k *kernel) remember(id ids.PluginID, manifest plugin.Manifest) error {
	return k.session.Put(id, session.Entry{Manifest: manifest})
}

// forget drops id's session record. Called on unload so a later invocation
// reusing the same UUID space (practically impossible, but idempotent
// either way) doesn't resurrect a stale manifest.
func (k *kernel) forget(id ids.PluginID) error {
	return k.session.Delete(id)
}

func newAuditLog(ctx context.Context) (*audit.Log, error) {
	log := audit.New(256)
	if path := os.Getenv("LION_AUDIT_LOG"); path != "" {
		//nolint:gosec // G304: operator-controlled path from its own environment
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, err
		}
		log.AddSink(audit.NewNDJSONSink(f))
	}
	log.Start(ctx)
	return log, nil
}

// moduleCacheDir resolves LION_MODULE_CACHE, the environment variable for
// the optional, content-addressed compiled-module cache.
func moduleCacheDir() string {
	return os.Getenv("LION_MODULE_CACHE")
}

// sessionFilePath resolves the CLI's plugin-id bookkeeping file: an
// explicit --session-file flag, else $HOME/.lion/session.json.
func sessionFilePath() string {
	if globalFlags.sessionFile != "" {
		return globalFlags.sessionFile
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".lion-session.json"
	}
	return filepath.Join(home, ".lion", "session.json")
}
