// Package config handles .clockwork.toml driver configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents a .clockwork.toml file. It only affects the driver;
// the interpreter itself takes no configuration.
type Config struct {
	REPL  REPL  `toml:"repl"`
	Debug Debug `toml:"debug"`

	// Path is the file the configuration came from (set at load time).
	Path string `toml:"-"`
}

// REPL configures the interactive mode.
type REPL struct {
	Prompt  string `toml:"prompt"`
	History string `toml:"history"`
}

// Debug configures diagnostics defaults; the -trace and -disasm flags
// can switch them on but not off.
type Debug struct {
	Trace  bool `toml:"trace"`
	Disasm bool `toml:"disasm"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		REPL: REPL{
			Prompt:  "> ",
			History: filepath.Join(home, ".clockwork_history"),
		},
	}
}

// Load parses the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c := Default()
	if err := toml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	c.Path = path

	if c.REPL.Prompt == "" {
		c.REPL.Prompt = "> "
	}
	return c, nil
}

// LoadDefault loads ~/.clockwork.toml when present, falling back to the
// defaults when the file does not exist.
func LoadDefault() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Default(), nil
	}
	path := filepath.Join(home, ".clockwork.toml")
	if _, err := os.Stat(path); err != nil {
		return Default(), nil
	}
	return Load(path)
}
