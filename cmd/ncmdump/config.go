package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

type Config struct {
	Output   string `koanf:"output"`
	Force    bool   `koanf:"force"`
	Quiet    bool   `koanf:"quiet"`
	LogLevel string `koanf:"log-level"`
	Workers  int    `koanf:"workers"`
}

// loadConfig layers defaults, an optional YAML config file and command line
// flags, in increasing priority.
func loadConfig(args []string) (*Config, *pflag.FlagSet, error) {
	fs := pflag.NewFlagSet("ncmdump", pflag.ContinueOnError)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Usage: ncmdump [options] <file-or-dir>...\n\nOptions:\n%s", fs.FlagUsages())
	}

	fs.StringP("output", "o", "", "output directory (default: alongside the input)")
	fs.BoolP("force", "f", false, "overwrite existing output files")
	fs.BoolP("quiet", "q", false, "only log warnings and errors")
	fs.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	fs.IntP("workers", "w", runtime.NumCPU(), "number of files converted in parallel")
	fs.String("config", "", "YAML configuration file")
	fs.BoolP("version", "v", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"log-level": "info",
		"workers":   runtime.NumCPU(),
	}, "."), nil); err != nil {
		return nil, nil, fmt.Errorf("failed loading defaults: %w", err)
	}

	if cfgPath, _ := fs.GetString("config"); cfgPath != "" {
		if err := k.Load(file.Provider(cfgPath), yaml.Parser()); err != nil {
			return nil, nil, fmt.Errorf("failed loading config file: %w", err)
		}
	}

	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return nil, nil, fmt.Errorf("failed loading flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, nil, fmt.Errorf("failed unmarshalling config: %w", err)
	}

	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	return &cfg, fs, nil
}
