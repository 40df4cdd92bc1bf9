// Package main implements the file plugin: existence, content, and hash
// checks performed through the kernel's capability-gated lion_file_read and
// lion_file_write host functions rather than raw filesystem calls, so a
// plugin without a FileRead capability for the requested path gets a
// CodeCapabilityDenied failure instead of touching the host filesystem at
// all.
package main

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	lion "github.com/lion-wasm/lion/sdk/go"
)

type filePlugin struct{}

func (p *filePlugin) Describe(_ context.Context) (lion.Metadata, error) {
	return lion.Metadata{
		Name:        "file",
		Version:     "1.1.0",
		Description: "File existence, content, and hash checks",
		Capabilities: []lion.Capability{
			{Kind: "file_read", Pattern: "read:**"},
			{Kind: "file_write", Pattern: "write:**"},
		},
	}, nil
}

// FileConfig is the file plugin's observe() argument shape. Mode "read"
// reads the file and reports its size and (optionally) content/hash; mode
// "write" writes Content to Path.
type FileConfig struct {
	Path        string `json:"path" validate:"required" description:"Path to operate on"`
	Mode        string `json:"mode" validate:"omitempty,oneof=read write" description:"read or write" default:"read"`
	ReadContent bool   `json:"read_content,omitempty" description:"Include base64 file content in the result"`
	Hash        bool   `json:"hash,omitempty" description:"Include a SHA256 hash of the file content in the result"`
	Content     string `json:"content,omitempty" description:"Content to write, mode=write only"`
}

func (p *filePlugin) Schema(_ context.Context) ([]byte, error) {
	return lion.GenerateSchema(FileConfig{})
}

func (p *filePlugin) Check(_ context.Context, config lion.Config) (lion.Evidence, error) {
	if _, ok := config["mode"]; !ok {
		config["mode"] = "read"
	}
	var cfg FileConfig
	if err := lion.ValidateConfig(config, &cfg); err != nil {
		return lion.Evidence{Status: false, Error: lion.ToErrorDetail(&lion.ConfigError{Err: err})}, nil
	}

	if cfg.Mode == "write" {
		return p.checkWrite(cfg)
	}
	return p.checkRead(cfg)
}

func (p *filePlugin) checkWrite(cfg FileConfig) (lion.Evidence, error) {
	if err := lion.WriteFile(cfg.Path, []byte(cfg.Content)); err != nil {
		return lion.Evidence{Status: false, Error: lion.ToErrorDetail(&lion.NetworkError{Operation: "write", Target: cfg.Path, Err: err})}, nil
	}
	return lion.Success(map[string]any{
		"path":          cfg.Path,
		"mode":          "write",
		"bytes_written": len(cfg.Content),
	}), nil
}

func (p *filePlugin) checkRead(cfg FileConfig) (lion.Evidence, error) {
	data, err := lion.ReadFile(cfg.Path)
	if err != nil {
		var hostErr *lion.HostError
		if errors.As(err, &hostErr) && hostErr.Code == lion.CodeNotFound {
			return lion.Success(map[string]any{"path": cfg.Path, "mode": "read", "exists": false}), nil
		}
		return lion.Failure("file_read_failed", fmt.Sprintf("read %s: %v", cfg.Path, err)), nil
	}

	result := map[string]any{
		"path":   cfg.Path,
		"mode":   "read",
		"exists": true,
		"size":   len(data),
	}
	if cfg.ReadContent {
		result["content_b64"] = base64.StdEncoding.EncodeToString(data)
		result["encoding"] = "base64"
	}
	if cfg.Hash {
		sum := sha256.Sum256(data)
		result["sha256"] = hex.EncodeToString(sum[:])
	}
	return lion.Success(result), nil
}
