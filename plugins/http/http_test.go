package main

import (
	"context"
	"errors"
	"testing"

	lion "github.com/lion-wasm/lion/sdk/go"
)

func TestHTTPPlugin_Check_Success(t *testing.T) {
	plugin := &httpPlugin{Dial: func(host string, port uint32) (int32, error) { return 1, nil }}

	evidence, err := plugin.Check(context.Background(), lion.Config{"url": "https://example.com/health"})
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if !evidence.Status {
		t.Fatalf("expected status true, got false: %v", evidence.Error)
	}
	if host, _ := evidence.Data["host"].(string); host != "example.com" {
		t.Errorf("expected host=example.com, got %v", evidence.Data["host"])
	}
	if port, _ := evidence.Data["port"].(uint32); port != 443 {
		t.Errorf("expected port=443 for https, got %v", evidence.Data["port"])
	}
}

func TestHTTPPlugin_Check_Unreachable(t *testing.T) {
	plugin := &httpPlugin{Dial: func(host string, port uint32) (int32, error) { return 0, errors.New("refused") }}

	evidence, err := plugin.Check(context.Background(), lion.Config{"url": "http://example.com"})
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

func TestHTTPPlugin_Check_InvalidURL(t *testing.T) {
	plugin := &httpPlugin{}

	evidence, err := plugin.Check(context.Background(), lion.Config{"url": ""})
	if err != nil {
		t.Fatalf("Check returned unexpected error: %v", err)
	}
	if evidence.Status {
		t.Errorf("expected status false for empty url")
	}
	if evidence.Error == nil || evidence.Error.Type != "config" {
		t.Errorf("expected config error, got %v", evidence.Error)
	}
}
