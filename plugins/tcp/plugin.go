// Package main implements the tcp plugin: a reachability check against
// host:port through the kernel's capability-gated lion_net_connect. The
// stable host ABI defines connect only — there is no paired read/write or
// TLS handshake — so this reports whether a connection could be opened and
// how long dialing took, not protocol-level details a raw socket would let
// a native TCP client inspect.
package main

import (
	"context"
	"fmt"
	"time"

	lion "github.com/lion-wasm/lion/sdk/go"
)

type tcpPlugin struct {
	// Dial is overridable for tests; defaults to lion.Connect.
	Dial func(host string, port uint32) (int32, error)
}

func (p *tcpPlugin) dial() func(string, uint32) (int32, error) {
	if p.Dial != nil {
		return p.Dial
	}
	return lion.Connect
}

func (p *tcpPlugin) Describe(_ context.Context) (lion.Metadata, error) {
	return lion.Metadata{
		Name:        "tcp",
		Version:     "1.0.0",
		Description: "TCP reachability check",
		Capabilities: []lion.Capability{
			{Kind: "network_client", Pattern: "outbound:*"},
		},
	}, nil
}

type TCPConfig struct {
	Host string `json:"host" validate:"required" description:"Target host (hostname or IP)"`
	Port uint32 `json:"port" validate:"required,max=65535" description:"Target port"`
}

func (p *tcpPlugin) Schema(_ context.Context) ([]byte, error) {
	return lion.GenerateSchema(TCPConfig{})
}

func (p *tcpPlugin) Check(_ context.Context, config lion.Config) (lion.Evidence, error) {
	var cfg TCPConfig
	if err := lion.ValidateConfig(config, &cfg); err != nil {
		return lion.Evidence{Status: false, Error: lion.ToErrorDetail(&lion.ConfigError{Err: err})}, nil
	}

	address := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	start := time.Now()
	_, err := p.dial()(cfg.Host, cfg.Port)
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		return lion.Evidence{
			Status: false,
			Error:  lion.ToErrorDetail(&lion.NetworkError{Operation: "tcp_connect", Target: address, Err: err}),
			Data: map[string]any{
				"connected":        false,
				"address":          address,
				"response_time_ms": elapsed,
			},
		}, nil
	}

	return lion.Success(map[string]any{
		"connected":        true,
		"address":          address,
		"response_time_ms": elapsed,
	}), nil
}
