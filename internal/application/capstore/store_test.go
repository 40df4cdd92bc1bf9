package capstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lion-wasm/lion/internal/domain/access"
	"github.com/lion-wasm/lion/internal/domain/capability"
	"github.com/lion-wasm/lion/internal/domain/constraint"
	"github.com/lion-wasm/lion/internal/domain/ids"
)

func TestStore_GrantAndComposite(t *testing.T) {
	s := New()
	plugin := ids.NewPluginID()
	s.Register(plugin)

	_, ok := s.Composite(plugin)
	assert.False(t, ok, "freshly registered plugin has no grants yet")

	id1, err := s.Grant(plugin, capability.NewFileRead("/tmp/**"))
	require.NoError(t, err)
	assert.NotEqual(t, ids.NilCapabilityID, id1)

	composite, ok := s.Composite(plugin)
	require.True(t, ok)
	req := access.Request{Kind: access.KindFileRead, Target: "/tmp/x"}
	assert.True(t, composite.Permits(req, constraint.Environment{}))
}

func TestStore_GrantUnknownPlugin(t *testing.T) {
	s := New()
	_, err := s.Grant(ids.NewPluginID(), capability.NewFileRead("/tmp/**"))
	assert.ErrorIs(t, err, ErrUnknownPlugin)
}

func TestStore_Revoke(t *testing.T) {
	s := New()
	plugin := ids.NewPluginID()
	s.Register(plugin)

	id, err := s.Grant(plugin, capability.NewFileRead("/tmp/**"))
	require.NoError(t, err)

	require.NoError(t, s.Revoke(plugin, id))

	_, ok := s.Composite(plugin)
	assert.False(t, ok, "composite empty after last grant revoked")

	err = s.Revoke(plugin, id)
	assert.ErrorIs(t, err, ErrNotGranted)
}

func TestStore_PartialRevoke(t *testing.T) {
	s := New()
	plugin := ids.NewPluginID()
	s.Register(plugin)

	id, err := s.Grant(plugin, capability.NewNetworkClient([]string{"*.example.com"}, capability.SinglePort(80)))
	require.NoError(t, err)

	onlyEvil, err := constraint.NewExpr(`target == "evil.example.com"`)
	require.NoError(t, err)

	require.NoError(t, s.PartialRevoke(plugin, id, onlyEvil))

	composite, ok := s.Composite(plugin)
	require.True(t, ok)

	evilReq := access.Request{Kind: access.KindNetConnect, Target: "evil.example.com", Parameters: map[string]string{"port": "80"}}
	okReq := access.Request{Kind: access.KindNetConnect, Target: "ok.example.com", Parameters: map[string]string{"port": "80"}}

	assert.False(t, composite.Permits(evilReq, constraint.Environment{}), "revoked sub-region no longer permitted")
	assert.True(t, composite.Permits(okReq, constraint.Environment{}), "remaining authority still permitted")
}

func TestStore_PartialRevoke_UnsupportedForCustom(t *testing.T) {
	s := New()
	plugin := ids.NewPluginID()
	s.Register(plugin)

	id, err := s.Grant(plugin, capability.NewCustom("gpu", []byte("device=0")))
	require.NoError(t, err)

	err = s.PartialRevoke(plugin, id, constraint.Always(true))
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestStore_Unregister_DropsGrants(t *testing.T) {
	s := New()
	plugin := ids.NewPluginID()
	s.Register(plugin)
	_, err := s.Grant(plugin, capability.NewFileRead("/tmp/**"))
	require.NoError(t, err)

	s.Unregister(plugin)

	assert.False(t, s.Known(plugin))
	_, err = s.Grant(plugin, capability.NewFileRead("/tmp/**"))
	assert.ErrorIs(t, err, ErrUnknownPlugin)
}

func TestStore_List_ReturnsCopy(t *testing.T) {
	s := New()
	plugin := ids.NewPluginID()
	s.Register(plugin)
	_, err := s.Grant(plugin, capability.NewFileRead("/tmp/**"))
	require.NoError(t, err)

	entries, err := s.List(plugin)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entries[0].ID = ids.NewCapabilityID()

	again, err := s.List(plugin)
	require.NoError(t, err)
	assert.NotEqual(t, entries[0].ID, again[0].ID)
}

func TestStore_PluginIDs_Sorted(t *testing.T) {
	s := New()
	a := ids.NewPluginID()
	b := ids.NewPluginID()
	s.Register(a)
	s.Register(b)

	got := s.PluginIDs()
	require.Len(t, got, 2)
	if got[0].String() > got[1].String() {
		t.Fatalf("expected sorted plugin ids, got %v", got)
	}
}
