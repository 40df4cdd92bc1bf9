package main

import (
	"context"
	"errors"
	"testing"

	lion "github.com/lion-wasm/lion/sdk/go"
)

func TestTCPPlugin_Check_Success(t *testing.T) {
	plugin := &tcpPlugin{Dial: func(host string, port uint32) (int32, error) {
		return 1, nil
	}}

	evidence, err := plugin.Check(context.Background(), lion.Config{"host": "example.com", "port": 80})
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if !evidence.Status {
		t.Errorf("expected status true, got false: %v", evidence.Error)
	}
	if connected, _ := evidence.Data["connected"].(bool); !connected {
		t.Errorf("expected connected=true")
	}
}

func TestTCPPlugin_Check_ConnectionRefused(t *testing.T) {
	plugin := &tcpPlugin{Dial: func(host string, port uint32) (int32, error) {
		return 0, errors.New("connection refused")
	}}

	evidence, err := plugin.Check(context.Background(), lion.Config{"host": "localhost", "port": 12345})
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

func TestTCPPlugin_Check_MissingHost(t *testing.T) {
	plugin := &tcpPlugin{}

	evidence, err := plugin.Check(context.Background(), lion.Config{"port": 80})
	if err != nil {
		t.Fatalf("Check returned unexpected error: %v", err)
	}
	if evidence.Status {
		t.Errorf("expected status false for missing host")
	}
	if evidence.Error == nil || evidence.Error.Type != "config" {
		t.Errorf("expected config error, got %v", evidence.Error)
	}
}
