package isolation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lion-wasm/lion/internal/domain/plugin"
)

func TestSourceResolver_UnknownKind(t *testing.T) {
	r := newSourceResolver(t.TempDir())
	_, err := r.resolve(context.Background(), plugin.Source{Kind: "bogus"})
	var srcErr *SourceError
	assert.ErrorAs(t, err, &srcErr)
}

func TestSourceResolver_URL_InvalidReference(t *testing.T) {
	r := newSourceResolver(t.TempDir())
	_, err := r.resolve(context.Background(), plugin.Source{Kind: plugin.SourceURL, Value: "not a valid oci reference"})
	var srcErr *SourceError
	assert.ErrorAs(t, err, &srcErr)
}

func TestDigestOf_Deterministic(t *testing.T) {
	a := digestOf([]byte("hello"))
	b := digestOf([]byte("hello"))
	c := digestOf([]byte("world"))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestBackend_BlobPath_LayoutMirrorsOCI(t *testing.T) {
	r := newSourceResolver("/cache")
	got := r.blobPath(digest("abc123"))
	assert.Equal(t, "/cache/sha256/abc123", got)
}
