// Package main implements the http plugin: a reachability check against the
// host:port parsed out of a URL, performed through the kernel's
// capability-gated lion_net_connect. The stable host ABI has no socket
// read/write pair, so it cannot issue an actual HTTP request or read a
// status line — only prove that the target accepted a connection.
package main

import (
	"context"
	"fmt"
	"net/url"
	"time"

	lion "github.com/lion-wasm/lion/sdk/go"
)

type httpPlugin struct {
	Dial func(host string, port uint32) (int32, error)
}

func (p *httpPlugin) dial() func(string, uint32) (int32, error) {
	if p.Dial != nil {
		return p.Dial
	}
	return lion.Connect
}

func (p *httpPlugin) Describe(_ context.Context) (lion.Metadata, error) {
	return lion.Metadata{
		Name:        "http",
		Version:     "1.0.0",
		Description: "HTTP/HTTPS endpoint reachability check",
		Capabilities: []lion.Capability{
			{Kind: "network_client", Pattern: "outbound:80,443"},
		},
	}, nil
}

type HTTPConfig struct {
	URL string `json:"url" validate:"required,url" description:"URL whose host:port should be reachable"`
}

func (p *httpPlugin) Schema(_ context.Context) ([]byte, error) {
	return lion.GenerateSchema(HTTPConfig{})
}

func (p *httpPlugin) Check(_ context.Context, config lion.Config) (lion.Evidence, error) {
	var cfg HTTPConfig
	if err := lion.ValidateConfig(config, &cfg); err != nil {
		return lion.Evidence{Status: false, Error: lion.ToErrorDetail(&lion.ConfigError{Err: err})}, nil
	}

	parsed, err := url.Parse(cfg.URL)
	if err != nil {
		return lion.Evidence{Status: false, Error: lion.ToErrorDetail(&lion.ConfigError{Err: err})}, nil
	}
	host := parsed.Hostname()
	port := uint32(80)
	if parsed.Scheme == "https" {
		port = 443
	}
	if p := parsed.Port(); p != "" {
		fmt.Sscanf(p, "%d", &port)
	}

	start := time.Now()
	_, dialErr := p.dial()(host, port)
	elapsed := time.Since(start).Milliseconds()

	data := map[string]any{
		"url":              cfg.URL,
		"host":             host,
		"port":             port,
		"response_time_ms": elapsed,
	}
	if dialErr != nil {
		data["connected"] = false
		return lion.Evidence{
			Status: false,
			Error:  lion.ToErrorDetail(&lion.NetworkError{Operation: "http_connect", Target: cfg.URL, Err: dialErr}),
			Data:   data,
		}, nil
	}
	data["connected"] = true
	return lion.Success(data), nil
}
