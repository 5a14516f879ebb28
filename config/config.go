// Package config loads the program's TOML configuration file, grounded on
// config/config.go's Load/createDefault shape: decode if present, write a
// default file on first run otherwise.
package config

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the program's on-disk configuration (SPEC_FULL.md §A): the data
// directory for the account trie's backing store, the authorised escrow/DDR
// program keys used by the out-of-band caller allowlist, per-module pause
// flags, and the log file path.
type Config struct {
	DataDir          string          `toml:"DataDir"`
	EscrowProgramHex string          `toml:"EscrowProgramHex"`
	DDRProgramHex    string          `toml:"DDRProgramHex"`
	PausedModules    map[string]bool `toml:"PausedModules"`
	LogFile          string          `toml:"LogFile"`
}

// Load reads the config file at path, creating a default one if it does not
// exist yet.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if cfg.PausedModules == nil {
		cfg.PausedModules = map[string]bool{}
	}
	return cfg, nil
}

// createDefault writes and returns a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{
		DataDir:          "./arcchain-data",
		EscrowProgramHex: hex.EncodeToString(make([]byte, 32)),
		DDRProgramHex:    hex.EncodeToString(make([]byte, 32)),
		PausedModules:    map[string]bool{},
		LogFile:          "arcchain.log",
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// EscrowProgram decodes EscrowProgramHex into a 32-byte program key.
func (c *Config) EscrowProgram() ([32]byte, error) {
	return decodeProgramKey(c.EscrowProgramHex)
}

// DDRProgram decodes DDRProgramHex into a 32-byte program key.
func (c *Config) DDRProgram() ([32]byte, error) {
	return decodeProgramKey(c.DDRProgramHex)
}

// IsPaused implements native/common.PauseView directly against the loaded
// config, so an engine's pause gate reads live operator configuration
// without a separate state account.
func (c *Config) IsPaused(module string) bool {
	if c == nil || c.PausedModules == nil {
		return false
	}
	return c.PausedModules[module]
}

func decodeProgramKey(s string) ([32]byte, error) {
	var out [32]byte
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, fmt.Errorf("config: invalid program key hex: %w", err)
	}
	if len(b) != 32 {
		return out, fmt.Errorf("config: program key must be 32 bytes, got %d", len(b))
	}
	copy(out[:], b)
	return out, nil
}
