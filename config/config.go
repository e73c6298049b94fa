// Package config handles canterbury.toml / canterbury.yaml interpreter settings.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rami3l/canterbury/vm"
	"gopkg.in/yaml.v3"
)

// FileNames are the config files FindAndLoad looks for, in order of preference.
var FileNames = []string{"canterbury.toml", "canterbury.yaml", "canterbury.yml"}

// Config holds the interpreter settings.
type Config struct {
	// Verbosity is a logrus level name.
	Verbosity string `toml:"verbosity" yaml:"verbosity"`
	// StackMax bounds the depth of the operand stack.
	StackMax int `toml:"stack-max" yaml:"stack-max"`
	// FrameMax bounds the number of call frames.
	FrameMax int `toml:"frame-max" yaml:"frame-max"`
	// Trace logs every compiled chunk and executed instruction at debug level.
	Trace bool `toml:"trace" yaml:"trace"`

	REPL REPL `toml:"repl" yaml:"repl"`

	// Path is the file the config was loaded from, empty for defaults.
	Path string `toml:"-" yaml:"-"`
}

// REPL configures the interactive prompt.
type REPL struct {
	Prompt      string `toml:"prompt" yaml:"prompt"`
	HistoryFile string `toml:"history-file" yaml:"history-file"`
}

func Default() *Config {
	return &Config{
		Verbosity: "INFO",
		StackMax:  vm.DefaultStackMax,
		FrameMax:  vm.DefaultFrameMax,
		REPL:      REPL{Prompt: "> "},
	}
}

// Load parses a config file. The format is picked from the file extension.
// Settings missing from the file keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		var md toml.MetaData
		if md, err = toml.Decode(string(data), c); err == nil && len(md.Undecoded()) > 0 {
			err = fmt.Errorf("unknown keys %v", md.Undecoded())
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err = dec.Decode(c); errors.Is(err, io.EOF) {
			err = nil // Empty file.
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q: %s", ext, path)
	}
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	c.Path = path
	return c, nil
}

// FindAndLoad walks up from startDir looking for a config file.
// It returns the defaults if none is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", startDir, err)
	}
	for {
		for _, name := range FileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return Load(path)
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

func (c *Config) Validate() error {
	switch {
	case c.StackMax <= 0:
		return fmt.Errorf("stack-max must be positive, got %d", c.StackMax)
	case c.FrameMax <= 0:
		return fmt.Errorf("frame-max must be positive, got %d", c.FrameMax)
	}
	return nil
}
