package isolation

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lion-wasm/lion/internal/domain/ids"
	"github.com/lion-wasm/lion/internal/domain/plugin"
)

// emptyModule is the smallest valid WASM module: just the magic number and
// version, no sections. wazero compiles it successfully, which is all these
// tests need to exercise compile-cache and source-resolution plumbing
// without a real guest ABI to call into.
var emptyModule = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	ctx := context.Background()
	b, err := New(ctx, 0, t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close(context.Background()) })
	return b
}

func TestBackend_Instantiate_BytesSource(t *testing.T) {
	b := newTestBackend(t)
	encoded := base64.StdEncoding.EncodeToString(emptyModule)

	handle, err := b.Instantiate(context.Background(), ids.NewPluginID(), plugin.Source{Kind: plugin.SourceBytes, Value: encoded}, plugin.ResourceLimits{})
	require.NoError(t, err)
	require.NotNil(t, handle)

	require.NoError(t, b.Release(context.Background(), handle))
}

func TestBackend_Instantiate_FileSource(t *testing.T) {
	b := newTestBackend(t)
	path := filepath.Join(t.TempDir(), "module.wasm")
	require.NoError(t, os.WriteFile(path, emptyModule, 0o644))

	handle, err := b.Instantiate(context.Background(), ids.NewPluginID(), plugin.Source{Kind: plugin.SourceFile, Value: path}, plugin.ResourceLimits{})
	require.NoError(t, err)
	require.NotNil(t, handle)
	require.NoError(t, b.Release(context.Background(), handle))
}

func TestBackend_Instantiate_FileSource_MissingFile(t *testing.T) {
	b := newTestBackend(t)
	_, err := b.Instantiate(context.Background(), ids.NewPluginID(), plugin.Source{Kind: plugin.SourceFile, Value: "/nonexistent/plugin.wasm"}, plugin.ResourceLimits{})
	var srcErr *SourceError
	assert.ErrorAs(t, err, &srcErr)
}

func TestBackend_Instantiate_BytesSource_InvalidBase64(t *testing.T) {
	b := newTestBackend(t)
	_, err := b.Instantiate(context.Background(), ids.NewPluginID(), plugin.Source{Kind: plugin.SourceBytes, Value: "not-base64!!!"}, plugin.ResourceLimits{})
	var srcErr *SourceError
	assert.ErrorAs(t, err, &srcErr)
}

func TestBackend_Instantiate_InvalidWASM(t *testing.T) {
	b := newTestBackend(t)
	encoded := base64.StdEncoding.EncodeToString([]byte("not a wasm module"))
	_, err := b.Instantiate(context.Background(), ids.NewPluginID(), plugin.Source{Kind: plugin.SourceBytes, Value: encoded}, plugin.ResourceLimits{})
	var compileErr *CompileError
	assert.ErrorAs(t, err, &compileErr)
}

func TestBackend_Compile_CachesIdenticalBytesOnce(t *testing.T) {
	b := newTestBackend(t)
	encoded := base64.StdEncoding.EncodeToString(emptyModule)
	src := plugin.Source{Kind: plugin.SourceBytes, Value: encoded}

	h1, err := b.Instantiate(context.Background(), ids.NewPluginID(), src, plugin.ResourceLimits{})
	require.NoError(t, err)
	h2, err := b.Instantiate(context.Background(), ids.NewPluginID(), src, plugin.ResourceLimits{})
	require.NoError(t, err)

	assert.Len(t, b.compiled, 1, "identical module bytes compile once and are reused across instances")

	_ = b.Release(context.Background(), h1)
	_ = b.Release(context.Background(), h2)
}

func TestBackend_Call_UnknownHandle(t *testing.T) {
	b := newTestBackend(t)
	_, err := b.Call(context.Background(), "not-an-instance", "run", nil)
	assert.Error(t, err)
}

func TestBackend_Usage_UnknownHandle(t *testing.T) {
	b := newTestBackend(t)
	usage := b.Usage("not-an-instance")
	assert.Equal(t, plugin.ResourceUsage{}, usage)
}

func TestBackend_New_RejectsInvalidMemoryLimit(t *testing.T) {
	_, err := New(context.Background(), -2, "", nil)
	assert.Error(t, err)
}
