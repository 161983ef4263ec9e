package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/pflag"
)

// ParseArgs parses command line arguments into Config. Values from the
// config file apply only where the matching flag was not given.
func ParseArgs(args []string) (*Config, error) {
	cfg := &Config{}
	var typesRaw, wrappersRaw []string

	flags := pflag.NewFlagSet("gen-env", pflag.ContinueOnError)
	flags.StringArrayVarP(&typesRaw, "type", "t", nil, "struct type to generate a loader for (repeatable, comma-separated)")
	flags.StringVar(&cfg.Path, "path", ".", "package path or pattern holding the types")
	flags.StringVarP(&cfg.Output, "output", "o", "", "output file name (default <type>"+DefaultSuffix+" next to the type)")
	flags.StringVarP(&cfg.ConfigFile, "config", "c", "", "config file (.yaml, .yml or .toml)")
	flags.StringArrayVar(&wrappersRaw, "wrapper", nil, "generic optional wrapper type name (repeatable, default Option)")
	flags.StringVar(&cfg.Suffix, "suffix", DefaultSuffix, "suffix of the default output file name")
	flags.BoolVar(&cfg.Check, "check", false, "validate annotations without writing code")
	flags.BoolVar(&cfg.List, "list", false, "print the resolved variables as a table")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", false, "enable debug logging")
	flags.BoolVar(&cfg.ShowVersion, "version", false, "show version")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if cfg.ShowVersion {
		return cfg, nil
	}

	cfg.Types = splitCommaList(typesRaw)
	cfg.Wrappers = splitCommaList(wrappersRaw)

	fc, err := loadConfigFile(cfg.ConfigFile)
	if err != nil {
		return nil, err
	}
	if fc != nil {
		applyFileConfig(cfg, fc, flags)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadConfigFile(path string) (*FileConfig, error) {
	if path != "" {
		return LoadFile(path)
	}
	if _, err := os.Stat(DefaultConfigFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat %s: %w", DefaultConfigFile, err)
	}
	return LoadFile(DefaultConfigFile)
}

func applyFileConfig(cfg *Config, fc *FileConfig, flags *pflag.FlagSet) {
	if !flags.Changed("output") && fc.Output != "" {
		cfg.Output = fc.Output
	}
	if !flags.Changed("wrapper") && len(fc.Wrappers) > 0 {
		cfg.Wrappers = fc.Wrappers
	}
	if !flags.Changed("suffix") && fc.Suffix != "" {
		cfg.Suffix = fc.Suffix
	}
}

func splitCommaList(raw []string) []string {
	var out []string
	for _, item := range raw {
		for _, p := range strings.Split(item, ",") {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}
