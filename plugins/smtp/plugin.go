// Package main implements the smtp plugin: a reachability check against a
// mail server through the kernel's capability-gated lion_net_connect. The
// stable host ABI has no socket read/write pair, so it cannot read the
// server's greeting banner or negotiate STARTTLS — only prove that the
// configured host:port accepts a connection.
package main

import (
	"context"
	"fmt"
	"time"

	lion "github.com/lion-wasm/lion/sdk/go"
)

type smtpPlugin struct {
	Dial func(host string, port uint32) (int32, error)
}

func (p *smtpPlugin) dial() func(string, uint32) (int32, error) {
	if p.Dial != nil {
		return p.Dial
	}
	return lion.Connect
}

func (p *smtpPlugin) Describe(_ context.Context) (lion.Metadata, error) {
	return lion.Metadata{
		Name:        "smtp",
		Version:     "1.0.0",
		Description: "SMTP server reachability check",
		Capabilities: []lion.Capability{
			{Kind: "network_client", Pattern: "outbound:25,465,587"},
		},
	}, nil
}

type SMTPConfig struct {
	Host string `json:"host" validate:"required" description:"SMTP server host (hostname or IP)"`
	Port uint32 `json:"port" validate:"required,max=65535" description:"SMTP server port (25, 465, 587, 2525)"`
}

func (p *smtpPlugin) Schema(_ context.Context) ([]byte, error) {
	return lion.GenerateSchema(SMTPConfig{})
}

func (p *smtpPlugin) Check(_ context.Context, config lion.Config) (lion.Evidence, error) {
	var cfg SMTPConfig
	if err := lion.ValidateConfig(config, &cfg); err != nil {
		return lion.Evidence{Status: false, Error: lion.ToErrorDetail(&lion.ConfigError{Err: err})}, nil
	}

	address := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	start := time.Now()
	_, err := p.dial()(cfg.Host, cfg.Port)
	elapsed := time.Since(start).Milliseconds()

	data := map[string]any{
		"address":          address,
		"response_time_ms": elapsed,
	}
	if err != nil {
		data["connected"] = false
		return lion.Evidence{
			Status: false,
			Error:  lion.ToErrorDetail(&lion.NetworkError{Operation: "smtp_connect", Target: address, Err: err}),
			Data:   data,
		}, nil
	}
	data["connected"] = true
	return lion.Success(data), nil
}
