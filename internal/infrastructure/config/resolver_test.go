package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lion-wasm/lion/internal/domain/capability"
	"github.com/lion-wasm/lion/internal/domain/ids"
	"github.com/lion-wasm/lion/internal/domain/plugin"
)

func TestResolveCapability_FileRead(t *testing.T) {
	c, err := ResolveCapability(plugin.CapabilitySpec{Type: "FileRead", Paths: []string{"/a", "/b"}})
	require.NoError(t, err)
	assert.Equal(t, capability.KindFileRead, c.Kind())
}

func TestResolveCapability_FileReadRequiresPaths(t *testing.T) {
	_, err := ResolveCapability(plugin.CapabilitySpec{Type: "FileRead"})
	require.Error(t, err)
}

func TestResolveCapability_NetworkClientParsesPortRange(t *testing.T) {
	c, err := ResolveCapability(plugin.CapabilitySpec{
		Type:  "NetworkClient",
		Hosts: []string{"example.com"},
		Ports: "8000-9000",
	})
	require.NoError(t, err)
	assert.Equal(t, capability.KindNetworkClient, c.Kind())
}

func TestResolveCapability_NetworkClientParsesPortList(t *testing.T) {
	c, err := ResolveCapability(plugin.CapabilitySpec{
		Type:  "NetworkClient",
		Hosts: []string{"example.com"},
		Ports: "80,443",
	})
	require.NoError(t, err)
	assert.Equal(t, capability.KindNetworkClient, c.Kind())
}

func TestResolveCapability_NetworkClientRejectsBadPort(t *testing.T) {
	_, err := ResolveCapability(plugin.CapabilitySpec{
		Type:  "NetworkClient",
		Hosts: []string{"example.com"},
		Ports: "not-a-port",
	})
	require.Error(t, err)
}

func TestResolveCapability_NetworkServerAllowsEmptyPorts(t *testing.T) {
	c, err := ResolveCapability(plugin.CapabilitySpec{Type: "NetworkServer"})
	require.NoError(t, err)
	assert.Equal(t, capability.KindNetworkServer, c.Kind())
}

func TestResolveCapability_MemoryRequiresMaxBytes(t *testing.T) {
	_, err := ResolveCapability(plugin.CapabilitySpec{Type: "Memory"})
	require.Error(t, err)
}

func TestResolveCapability_Memory(t *testing.T) {
	c, err := ResolveCapability(plugin.CapabilitySpec{Type: "Memory", MaxBytes: 1024, Regions: []string{"shared"}})
	require.NoError(t, err)
	assert.Equal(t, capability.KindMemory, c.Kind())
}

func TestResolveCapability_InterPluginCommAnyPeer(t *testing.T) {
	c, err := ResolveCapability(plugin.CapabilitySpec{
		Type:   "InterPluginComm",
		Peers:  []string{"*"},
		Topics: []string{"orders.*"},
	})
	require.NoError(t, err)
	assert.Equal(t, capability.KindInterPluginComm, c.Kind())
}

func TestResolveCapability_InterPluginCommRejectsBadPeerID(t *testing.T) {
	_, err := ResolveCapability(plugin.CapabilitySpec{
		Type:  "InterPluginComm",
		Peers: []string{"not-a-uuid"},
	})
	require.Error(t, err)
}

func TestResolveCapability_PluginCallRequiresTarget(t *testing.T) {
	_, err := ResolveCapability(plugin.CapabilitySpec{Type: "PluginCall"})
	require.Error(t, err)
}

func TestResolveCapability_PluginCall(t *testing.T) {
	target := ids.NewPluginID()
	c, err := ResolveCapability(plugin.CapabilitySpec{
		Type:      "PluginCall",
		Target:    target.String(),
		Functions: []string{"handle"},
	})
	require.NoError(t, err)
	assert.Equal(t, capability.KindPluginCall, c.Kind())
}

func TestResolveCapability_PluginCallRejectsBadTarget(t *testing.T) {
	_, err := ResolveCapability(plugin.CapabilitySpec{Type: "PluginCall", Target: "not-a-uuid"})
	require.Error(t, err)
}

func TestResolveCapability_CustomDecodesBase64(t *testing.T) {
	c, err := ResolveCapability(plugin.CapabilitySpec{Type: "Custom", Tag: "x", Data: "aGVsbG8="})
	require.NoError(t, err)
	assert.Equal(t, capability.KindCustom, c.Kind())
}

func TestResolveCapability_CustomRejectsBadBase64(t *testing.T) {
	_, err := ResolveCapability(plugin.CapabilitySpec{Type: "Custom", Tag: "x", Data: "not-base64!!"})
	require.Error(t, err)
}

func TestResolveCapability_UnknownType(t *testing.T) {
	_, err := ResolveCapability(plugin.CapabilitySpec{Type: "Bogus"})
	require.Error(t, err)
}
