// Package main implements the dns plugin: a reachability check against a
// nameserver through the kernel's capability-gated lion_net_connect. The
// stable host ABI has no dedicated DNS or raw-socket primitive, so it
// cannot perform an actual recursive lookup or parse a DNS response —
// only prove that the configured nameserver accepts a connection on port
// 53.
package main

import (
	"context"
	"time"

	lion "github.com/lion-wasm/lion/sdk/go"
)

type dnsPlugin struct {
	Dial func(host string, port uint32) (int32, error)
}

func (p *dnsPlugin) dial() func(string, uint32) (int32, error) {
	if p.Dial != nil {
		return p.Dial
	}
	return lion.Connect
}

func (p *dnsPlugin) Describe(_ context.Context) (lion.Metadata, error) {
	return lion.Metadata{
		Name:        "dns",
		Version:     "1.0.0",
		Description: "Nameserver reachability check",
		Capabilities: []lion.Capability{
			{Kind: "network_client", Pattern: "outbound:53"},
		},
	}, nil
}

type DNSConfig struct {
	Nameserver string `json:"nameserver" validate:"required" description:"Nameserver host to reach, e.g. 8.8.8.8"`
	Port       uint32 `json:"port,omitempty" description:"Nameserver port" default:"53"`
}

func (p *dnsPlugin) Schema(_ context.Context) ([]byte, error) {
	return lion.GenerateSchema(DNSConfig{})
}

func (p *dnsPlugin) Check(_ context.Context, config lion.Config) (lion.Evidence, error) {
	if _, ok := config["port"]; !ok {
		config["port"] = 53
	}
	var cfg DNSConfig
	if err := lion.ValidateConfig(config, &cfg); err != nil {
		return lion.Evidence{Status: false, Error: lion.ToErrorDetail(&lion.ConfigError{Err: err})}, nil
	}

	start := time.Now()
	_, err := p.dial()(cfg.Nameserver, cfg.Port)
	elapsed := time.Since(start).Milliseconds()

	data := map[string]any{
		"nameserver":    cfg.Nameserver,
		"port":          cfg.Port,
		"query_time_ms": elapsed,
	}
	if err != nil {
		data["reachable"] = false
		return lion.Evidence{
			Status: false,
			Error:  lion.ToErrorDetail(&lion.NetworkError{Operation: "dns_connect", Target: cfg.Nameserver, Err: err}),
			Data:   data,
		}, nil
	}
	data["reachable"] = true
	return lion.Success(data), nil
}
