// Package ignconfig resolves the ignite vault/config roots and loads
// optional TOML overrides, following the same XDG-aware,
// environment-override-first precedence the teacher's config package
// uses for its own data/cache/config directories.
package ignconfig

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds resolved vault settings plus the handful of tunables
// exposed to operators.
type Config struct {
	DataRoot              string        `toml:"data_root"`
	ConfigRoot            string        `toml:"config_root"`
	DefaultProofTTLHours   int          `toml:"default_proof_ttl_hours"`
	DefaultWarningFraction float64      `toml:"default_warning_fraction"`
	CommonPasswordsPath   string        `toml:"common_passwords_path"`
}

// DefaultConfig seeds a Config from environment/XDG resolution per
// spec.md §4.7: env override, then XDG, then the `~/.local/share`
// fallback.
func DefaultConfig() *Config {
	return &Config{
		DataRoot:               ResolveDataRoot(),
		ConfigRoot:             ResolveConfigRoot(),
		DefaultProofTTLHours:   24,
		DefaultWarningFraction: 0.10,
	}
}

// ResolveDataRoot implements the vault root precedence: IGNITE_DATA_ROOT,
// then $XDG_DATA_HOME/padlokk/ignite, then ~/.local/share/padlokk/ignite.
func ResolveDataRoot() string {
	if v := os.Getenv("IGNITE_DATA_ROOT"); v != "" {
		return v
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "padlokk", "ignite")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "padlokk", "ignite")
}

// ResolveConfigRoot implements the analogous precedence for config:
// IGNITE_CONFIG_ROOT, then $XDG_CONFIG_HOME/padlokk/ignite, then
// ~/.config/padlokk/ignite.
func ResolveConfigRoot() string {
	if v := os.Getenv("IGNITE_CONFIG_ROOT"); v != "" {
		return v
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "padlokk", "ignite")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "padlokk", "ignite")
}

// Load reads TOML configuration from path, overlaying it onto
// DefaultConfig. A missing file is not an error: the defaults stand.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
