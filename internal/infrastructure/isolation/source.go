package isolation

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"oras.land/oras-go/v2/content"
	"oras.land/oras-go/v2/registry/remote"

	"github.com/lion-wasm/lion/internal/domain/plugin"
)

// digest is the content address a resolved module is cached and compiled
// under: sha256 of its raw WASM bytes, hex-encoded.
type digest string

func digestOf(wasmBytes []byte) digest {
	sum := sha256.Sum256(wasmBytes)
	return digest(hex.EncodeToString(sum[:]))
}

// sourceResolver turns a manifest's declarative plugin.Source into raw WASM
// bytes. URL sources are pulled once from an OCI-compatible registry and
// cached on disk under their content digest, laid out the way an OCI blob
// store lays out blobs (algo/hex) so the cache can be inspected or pruned
// with ordinary registry tooling.
type sourceResolver struct {
	cacheDir string
}

func newSourceResolver(cacheDir string) *sourceResolver {
	return &sourceResolver{cacheDir: cacheDir}
}

func (r *sourceResolver) resolve(ctx context.Context, src plugin.Source) ([]byte, error) {
	switch src.Kind {
	case plugin.SourceFile:
		data, err := os.ReadFile(src.Value)
		if err != nil {
			return nil, &SourceError{Source: src.Value, Cause: err}
		}
		return data, nil

	case plugin.SourceBytes:
		data, err := base64.StdEncoding.DecodeString(src.Value)
		if err != nil {
			return nil, &SourceError{Source: "<embedded bytes>", Cause: err}
		}
		return data, nil

	case plugin.SourceURL:
		return r.resolveURL(ctx, src.Value)

	default:
		return nil, &SourceError{Source: src.Value, Cause: fmt.Errorf("unknown source kind %q", src.Kind)}
	}
}

// resolveURL fetches ref ("registry.example.com/plugins/foo@sha256:...")
// from its OCI-compatible registry by content digest, caching the blob
// locally so repeated loads never re-fetch it.
func (r *sourceResolver) resolveURL(ctx context.Context, ref string) ([]byte, error) {
	repo, err := remote.NewRepository(ref)
	if err != nil {
		return nil, &SourceError{Source: ref, Cause: err}
	}

	desc, err := repo.Resolve(ctx, ref)
	if err != nil {
		return nil, &SourceError{Source: ref, Cause: err}
	}

	cachePath := r.blobPath(digest(desc.Digest.Encoded()))
	if data, err := os.ReadFile(cachePath); err == nil {
		return data, nil
	}

	data, err := content.FetchAll(ctx, repo, desc)
	if err != nil {
		return nil, &SourceError{Source: ref, Cause: err}
	}

	if r.cacheDir != "" {
		if err := os.MkdirAll(filepath.Dir(cachePath), 0o755); err == nil {
			_ = os.WriteFile(cachePath, data, 0o644)
		}
	}
	return data, nil
}

// blobPath lays out the cache as sha256/<hex>, mirroring an OCI blob store.
func (r *sourceResolver) blobPath(d digest) string {
	return filepath.Join(r.cacheDir, "sha256", string(d))
}
