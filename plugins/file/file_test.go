package main

import (
	"context"
	"testing"

	lion "github.com/lion-wasm/lion/sdk/go"
)

func withFiles(t *testing.T, files map[string]string) {
	t.Helper()
	lion.SetFileReadHook(func(path string, _ uint32) ([]byte, lion.Code) {
		content, ok := files[path]
		if !ok {
			return nil, lion.CodeNotFound
		}
		return []byte(content), lion.CodeSuccess
	})
	lion.SetFileWriteHook(func(path string, data []byte) lion.Code {
		files[path] = string(data)
		return lion.CodeSuccess
	})
	t.Cleanup(lion.ResetHooks)
}

func TestFilePlugin_Check_Exists(t *testing.T) {
	withFiles(t, map[string]string{"/tmp/testfile": "content"})

	plugin := &filePlugin{}
	evidence, err := plugin.Check(context.Background(), lion.Config{"path": "/tmp/testfile"})
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if !evidence.Status {
		t.Fatalf("expected status true, got false: %v", evidence.Error)
	}
	if exists, _ := evidence.Data["exists"].(bool); !exists {
		t.Errorf("expected exists=true")
	}
}

func TestFilePlugin_Check_Missing(t *testing.T) {
	withFiles(t, map[string]string{})

	plugin := &filePlugin{}
	evidence, err := plugin.Check(context.Background(), lion.Config{"path": "/tmp/nope"})
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if !evidence.Status {
		t.Fatalf("a missing file is a successful check reporting exists=false, got failure: %v", evidence.Error)
	}
	if exists, _ := evidence.Data["exists"].(bool); exists {
		t.Errorf("expected exists=false")
	}
}

func TestFilePlugin_Check_Content(t *testing.T) {
	withFiles(t, map[string]string{"/tmp/testfile": "hello world"})

	plugin := &filePlugin{}
	evidence, err := plugin.Check(context.Background(), lion.Config{"path": "/tmp/testfile", "read_content": true})
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if !evidence.Status {
		t.Fatalf("expected status true, got false: %v", evidence.Error)
	}
	b64, ok := evidence.Data["content_b64"].(string)
	if !ok || b64 == "" {
		t.Errorf("expected non-empty content_b64, got %v", evidence.Data["content_b64"])
	}
}

func TestFilePlugin_Check_Hash(t *testing.T) {
	withFiles(t, map[string]string{"/tmp/testfile": "hello world"})

	plugin := &filePlugin{}
	evidence, err := plugin.Check(context.Background(), lion.Config{"path": "/tmp/testfile", "hash": true})
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	sha, ok := evidence.Data["sha256"].(string)
	if !ok || len(sha) != 64 {
		t.Errorf("expected a 64-char hex sha256, got %v", evidence.Data["sha256"])
	}
}

func TestFilePlugin_Check_Write(t *testing.T) {
	files := map[string]string{}
	withFiles(t, files)

	plugin := &filePlugin{}
	evidence, err := plugin.Check(context.Background(), lion.Config{"path": "/tmp/out", "mode": "write", "content": "payload"})
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if !evidence.Status {
		t.Fatalf("expected status true, got false: %v", evidence.Error)
	}
	if files["/tmp/out"] != "payload" {
		t.Errorf("expected file written with payload, got %q", files["/tmp/out"])
	}
}

func TestFilePlugin_Check_MissingPath(t *testing.T) {
	plugin := &filePlugin{}
	evidence, err := plugin.Check(context.Background(), lion.Config{})
	if err != nil {
		t.Fatalf("Check returned unexpected error: %v", err)
	}
	if evidence.Status {
		t.Error("expected status false for missing path")
	}
	if evidence.Error == nil || evidence.Error.Type != "config" {
		t.Errorf("expected config error, got %v", evidence.Error)
	}
}
