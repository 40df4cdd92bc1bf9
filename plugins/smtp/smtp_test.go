package main

import (
	"context"
	"errors"
	"testing"

	lion "github.com/lion-wasm/lion/sdk/go"
)

func TestSMTPPlugin_Check_Success(t *testing.T) {
	plugin := &smtpPlugin{Dial: func(host string, port uint32) (int32, error) { return 1, nil }}

	evidence, err := plugin.Check(context.Background(), lion.Config{"host": "mail.example.com", "port": 587})
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if !evidence.Status {
		t.Fatalf("expected status true, got false: %v", evidence.Error)
	}
}

func TestSMTPPlugin_Check_Refused(t *testing.T) {
	plugin := &smtpPlugin{Dial: func(host string, port uint32) (int32, error) { return 0, errors.New("refused") }}

	evidence, err := plugin.Check(context.Background(), lion.Config{"host": "mail.example.com", "port": 25})
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

func TestSMTPPlugin_Check_MissingHost(t *testing.T) {
	plugin := &smtpPlugin{}

	evidence, err := plugin.Check(context.Background(), lion.Config{"port": 25})
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
