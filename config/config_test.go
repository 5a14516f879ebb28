package config

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataDir == "" || cfg.LogFile == "" {
		t.Fatal("default config must populate paths")
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default file not written: %v", err)
	}

	// A second load reads the file it just wrote.
	again, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.DataDir != cfg.DataDir {
		t.Fatal("reloaded config differs from the default it wrote")
	}
}

func TestLoadParsesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `DataDir = "/var/lib/arcchain"
EscrowProgramHex = "` + hex.EncodeToString(append([]byte{0xE0}, make([]byte, 31)...)) + `"
DDRProgramHex = "` + hex.EncodeToString(make([]byte, 32)) + `"
LogFile = "registry.log"

[PausedModules]
agent_registry = true
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataDir != "/var/lib/arcchain" {
		t.Fatalf("wrong data dir: %q", cfg.DataDir)
	}
	if !cfg.IsPaused("agent_registry") {
		t.Fatal("pause flag not honoured")
	}
	if cfg.IsPaused("mcp_registry") {
		t.Fatal("unlisted module must not report paused")
	}
	escrow, err := cfg.EscrowProgram()
	if err != nil {
		t.Fatalf("escrow key: %v", err)
	}
	if escrow[0] != 0xE0 {
		t.Fatal("escrow key decoded incorrectly")
	}
}

func TestProgramKeyValidation(t *testing.T) {
	cfg := &Config{EscrowProgramHex: "zz"}
	if _, err := cfg.EscrowProgram(); err == nil {
		t.Fatal("invalid hex must be rejected")
	}
	cfg.EscrowProgramHex = "0011"
	if _, err := cfg.EscrowProgram(); err == nil {
		t.Fatal("short key must be rejected")
	}
}
