package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadEnvFileDoesNotOverrideEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("KAS_TEST_FROM_FILE=file\nKAS_TEST_PRESET=file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("KAS_TEST_PRESET", "env")
	t.Setenv("KAS_TEST_FROM_FILE", "")
	os.Unsetenv("KAS_TEST_FROM_FILE")

	LoadEnvFile(path)
	defer os.Unsetenv("KAS_TEST_FROM_FILE")

	if got := os.Getenv("KAS_TEST_FROM_FILE"); got != "file" {
		t.Fatalf("expected value from file, got %q", got)
	}
	if got := os.Getenv("KAS_TEST_PRESET"); got != "env" {
		t.Fatalf("environment must win over .env, got %q", got)
	}

	LoadEnvFile(filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoadAndValidateConfig(t *testing.T) {
	t.Setenv("DATA_BACKEND", "nosql")
	_, err := LoadAndValidateConfig()
	if err == nil || !strings.Contains(err.Error(), "invalid data backend 'nosql'") {
		t.Fatalf("expected validation error, got %v", err)
	}

	t.Setenv("DATA_BACKEND", "memory")
	cfg, err := LoadAndValidateConfig()
	if err != nil || cfg.DataBackend != "memory" {
		t.Fatalf("unexpected result %+v %v", cfg, err)
	}
}
