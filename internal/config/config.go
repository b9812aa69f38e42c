// Package config holds the resolved run options plus the optional YAML
// defaults file. Flags always win over file values; the file only supplies
// defaults for flags the user left untouched.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

var (
	ErrBadParallelism = errors.New("parallelism must be at least 1")
	errEmptyGlob      = errors.New("glob pattern cannot be empty")
)

// Options is the fully resolved configuration for a single run. All size and
// pattern strings have already been parsed and validated by the time an
// Options value reaches the pipeline.
type Options struct {
	Paths   []string // raw CLI inputs, directories or list files
	Glob    string
	Exclude string
	MinSize uint64 // bytes, 0 means no floor

	Trash  bool
	DryRun bool
	Yes    bool

	Parallelism int
	Verbose     bool
	NoProgress  bool

	LogFile     string
	HistoryDB   string
	MetricsPort int
}

// FileConfig mirrors the YAML defaults file. Every field is optional;
// pointer-free zero values mean "not set" except where noted.
type FileConfig struct {
	Glob        string `yaml:"glob"`
	Exclude     string `yaml:"exclude"`
	MinSize     string `yaml:"min_size"`
	Trash       bool   `yaml:"trash"`
	Parallelism int    `yaml:"parallelism"`
	LogFile     string `yaml:"log_file"`
	HistoryDB   string `yaml:"history_db"`
	MetricsPort int    `yaml:"metrics_port"`
}

// LoadFile reads the YAML defaults file. A missing file is only an error when
// the caller asked for it explicitly; callers pass required=false for the
// probe of the default location.
func LoadFile(path string, required bool) (*FileConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return &FileConfig{}, nil
		}
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	return decode(f)
}

func decode(r io.Reader) (*FileConfig, error) {
	cfg := &FileConfig{}
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &FileConfig{}, nil
		}
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return cfg, nil
}

// DefaultParallelism is the worker count used when neither the flag nor the
// config file sets one.
func DefaultParallelism() int {
	return runtime.NumCPU() * 4
}

// ValidateAndDefault checks the resolved options and fills remaining
// defaults. Parallelism below 1 is a hard configuration error, not something
// to silently clamp.
func (o *Options) ValidateAndDefault() error {
	if o.Glob == "" {
		return errEmptyGlob
	}
	if o.Parallelism == 0 {
		o.Parallelism = DefaultParallelism()
	}
	if o.Parallelism < 1 {
		return fmt.Errorf("%w: got %d", ErrBadParallelism, o.Parallelism)
	}
	return nil
}
