// Package config handles callwire.toml configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

// FileName is the configuration file Load and FindAndLoad look for.
const FileName = "callwire.toml"

// Config represents a callwire.toml file.
type Config struct {
	Log      Log      `toml:"log"`
	Wire     Wire     `toml:"wire"`
	Dispatch Dispatch `toml:"dispatch"`
	Catalog  Catalog  `toml:"catalog"`
	Capture  Capture  `toml:"capture"`

	// Dir is the directory containing the callwire.toml file (set at load time).
	Dir string `toml:"-"`
}

// Log configures commonlog.
type Log struct {
	// Verbosity 0 logs errors and above; each step adds a level.
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"` // empty logs to stderr
}

// Wire configures the buffer layout.
type Wire struct {
	PointerSize int `toml:"pointer-size"`
}

// Dispatch configures the entry point.
type Dispatch struct {
	OnDecodeError string `toml:"on-decode-error"` // "abort" or "drop"
}

// Catalog locates the signature catalog.
type Catalog struct {
	Path string `toml:"path"`
}

// Capture configures invocation capture.
type Capture struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Wire.PointerSize == 0 {
		c.Wire.PointerSize = 8
	}
	if c.Dispatch.OnDecodeError == "" {
		c.Dispatch.OnDecodeError = "abort"
	}
	if c.Catalog.Path == "" {
		c.Catalog.Path = "callbacks.cue"
	}
	if c.Capture.Path == "" {
		c.Capture.Path = filepath.Join(".callwire", "capture.db")
	}
}

// Load parses callwire.toml from the given directory.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &c, nil
}

// FindAndLoad walks up from startDir to find a callwire.toml file,
// then loads and returns it. Returns nil if no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// Validate rejects values the rest of the module cannot use.
func (c *Config) Validate() error {
	if c.Wire.PointerSize != 4 && c.Wire.PointerSize != 8 {
		return fmt.Errorf("wire.pointer-size must be 4 or 8, got %d", c.Wire.PointerSize)
	}
	switch c.Dispatch.OnDecodeError {
	case "abort", "drop":
	default:
		return fmt.Errorf("dispatch.on-decode-error must be \"abort\" or \"drop\", got %q", c.Dispatch.OnDecodeError)
	}
	if c.Log.Verbosity < 0 {
		return fmt.Errorf("log.verbosity must not be negative, got %d", c.Log.Verbosity)
	}
	return nil
}

// CatalogPath returns the catalog path, relative paths resolved against Dir.
func (c *Config) CatalogPath() string {
	return c.resolve(c.Catalog.Path)
}

// CapturePath returns the capture database path, relative paths resolved
// against Dir.
func (c *Config) CapturePath() string {
	if c.Capture.Path == ":memory:" {
		return c.Capture.Path
	}
	return c.resolve(c.Capture.Path)
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) || c.Dir == "" {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// ConfigureLogging applies the [log] section to commonlog.
func (c *Config) ConfigureLogging() {
	var path *string
	if c.Log.File != "" {
		p := c.resolve(c.Log.File)
		path = &p
	}
	commonlog.Configure(c.Log.Verbosity, path)
}
