package main

import (
	"context"
	"errors"
	"testing"

	lion "github.com/lion-wasm/lion/sdk/go"
)

func TestDNSPlugin_Check_Reachable(t *testing.T) {
	plugin := &dnsPlugin{Dial: func(host string, port uint32) (int32, error) { return 1, nil }}

	evidence, err := plugin.Check(context.Background(), lion.Config{"nameserver": "8.8.8.8"})
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if !evidence.Status {
		t.Fatalf("expected status true, got false: %v", evidence.Error)
	}
	if port, _ := evidence.Data["port"].(uint32); port != 53 {
		t.Errorf("expected default port 53, got %v", evidence.Data["port"])
	}
}

func TestDNSPlugin_Check_Unreachable(t *testing.T) {
	plugin := &dnsPlugin{Dial: func(host string, port uint32) (int32, error) { return 0, errors.New("timeout") }}

	evidence, err := plugin.Check(context.Background(), lion.Config{"nameserver": "10.0.0.1"})
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if evidence.Status {
		t.Errorf("expected status false, got true")
	}
	if evidence.Error == nil || evidence.Error.Type != "network" {
		t.Errorf("expected network error, got %v", evidence.Error)
	}
}

func TestDNSPlugin_Check_MissingNameserver(t *testing.T) {
	plugin := &dnsPlugin{}

	evidence, err := plugin.Check(context.Background(), lion.Config{})
	if err != nil {
		t.Fatalf("Check returned unexpected error: %v", err)
	}
	if evidence.Status {
		t.Errorf("expected status false for missing nameserver")
	}
	if evidence.Error == nil || evidence.Error.Type != "config" {
		t.Errorf("expected config error, got %v", evidence.Error)
	}
}
