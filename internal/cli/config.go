package cli

import (
	"errors"
	"fmt"
	"go/token"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigFile is read when present and --config is not given.
	DefaultConfigFile = ".gen-env.yaml"
	// DefaultSuffix is appended to the lowercased root type name to build
	// the output filename.
	DefaultSuffix = "_env_gen.go"
)

// Config stores CLI options for a single generation run.
type Config struct {
	Types       []string
	Path        string
	Output      string
	ConfigFile  string
	Wrappers    []string
	Suffix      string
	Check       bool
	List        bool
	Verbose     bool
	ShowVersion bool
}

// FileConfig is the part of Config that can be set from a config file.
type FileConfig struct {
	Output   string   `yaml:"output,omitempty" toml:"output"`
	Wrappers []string `yaml:"wrappers,omitempty" toml:"wrappers"`
	Suffix   string   `yaml:"suffix,omitempty" toml:"suffix"`
}

// OutputFilename returns destination file path for generator layer.
func (c *Config) OutputFilename() string {
	return c.Output
}

// LoadFile reads a config file. The format is chosen by extension: .toml is
// TOML, .yaml and .yml are YAML.
func LoadFile(path string) (*FileConfig, error) {
	var fc FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.DecodeFile(path, &fc); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	case ".yaml", ".yml":
		f, err := os.Open(path) //nolint:gosec // path is provided by caller
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		defer f.Close() //nolint:errcheck

		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("config %s: unsupported extension %q", path, filepath.Ext(path))
	}
	return &fc, nil
}

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	if len(c.Types) == 0 {
		return fmt.Errorf("--type is required")
	}
	for _, t := range c.Types {
		if !token.IsIdentifier(t) {
			return fmt.Errorf("invalid type name %q", t)
		}
	}
	for _, w := range c.Wrappers {
		if !token.IsIdentifier(w) {
			return fmt.Errorf("invalid wrapper name %q", w)
		}
	}
	if strings.TrimSpace(c.Path) == "" {
		return fmt.Errorf("--path must not be empty")
	}
	if !strings.HasSuffix(c.Suffix, ".go") {
		return fmt.Errorf("suffix %q must end with .go", c.Suffix)
	}
	return nil
}
