package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFile_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Server.Model != "cascade-1" {
		t.Errorf("Server.Model = %q, want %q", cfg.Server.Model, "cascade-1")
	}
	if cfg.Backends.Groq.Model != "llama-3.3-70b-versatile" {
		t.Errorf("Backends.Groq.Model = %q, want default", cfg.Backends.Groq.Model)
	}
	if cfg.Backends.Gemini.Model != "gemini-2.0-flash" {
		t.Errorf("Backends.Gemini.Model = %q, want default", cfg.Backends.Gemini.Model)
	}
}

func TestLoadFile_EnvOverrides(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk_test")
	t.Setenv("CEREBRAS_API_KEY", "csk_test")
	t.Setenv("AUTH_SECRET", "hunter2")
	t.Setenv("PORT", "4321")
	t.Setenv("GROQ_MODEL", "llama-3.1-8b-instant")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Backends.Groq.APIKey != "gsk_test" {
		t.Errorf("Groq.APIKey = %q, want %q", cfg.Backends.Groq.APIKey, "gsk_test")
	}
	if cfg.Backends.Cerebras.APIKey != "csk_test" {
		t.Errorf("Cerebras.APIKey = %q, want %q", cfg.Backends.Cerebras.APIKey, "csk_test")
	}
	if cfg.Auth.Secret != "hunter2" {
		t.Errorf("Auth.Secret = %q, want %q", cfg.Auth.Secret, "hunter2")
	}
	if cfg.Server.Port != 4321 {
		t.Errorf("Server.Port = %d, want 4321", cfg.Server.Port)
	}
	if cfg.Backends.Groq.Model != "llama-3.1-8b-instant" {
		t.Errorf("Groq.Model = %q, want override", cfg.Backends.Groq.Model)
	}
}

func TestLoadFile_FileThenEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte("server:\n  port: 9999\n  model: from-file\nauth:\n  secret: file-secret\n")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("PORT", "4500")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Server.Port != 4500 {
		t.Errorf("Server.Port = %d, want env override 4500", cfg.Server.Port)
	}
	if cfg.Server.Model != "from-file" {
		t.Errorf("Server.Model = %q, want %q", cfg.Server.Model, "from-file")
	}
	if cfg.Auth.Secret != "file-secret" {
		t.Errorf("Auth.Secret = %q, want %q", cfg.Auth.Secret, "file-secret")
	}
}

func TestLoadFile_APIKeySubstitution(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte("backends:\n  groq:\n    api_key: ${CASCADE_TEST_GROQ_KEY}\n")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("CASCADE_TEST_GROQ_KEY", "gsk_sub")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Backends.Groq.APIKey != "gsk_sub" {
		t.Errorf("Groq.APIKey = %q, want substituted value", cfg.Backends.Groq.APIKey)
	}
}

func TestLoadFile_UnrelatedEnvIgnored(t *testing.T) {
	t.Setenv("GROQ_API_KEY_OLD", "should-not-leak")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Backends.Groq.APIKey == "should-not-leak" {
		t.Error("unrecognized variable leaked into config")
	}
}
