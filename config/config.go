// Package config loads the abicheck configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pgavlin/abicheck/report"
	"github.com/pgavlin/abicheck/target"
)

// DefaultPath is read when no configuration file is named and it exists.
const DefaultPath = "abicheck.yaml"

// Probe configures the native C probe.
type Probe struct {
	CC      string   `yaml:"cc,omitempty"`
	Headers []string `yaml:"headers,omitempty"`
	Include []string `yaml:"include,omitempty"`
	Flags   []string `yaml:"flags,omitempty"`
	Tagged  bool     `yaml:"tagged,omitempty"`
}

// Config is the contents of a configuration file.
type Config struct {
	// Targets are the built-in declaration tables to check.
	Targets []string `yaml:"targets,omitempty"`
	// Declarations are declaration files merged after the target tables.
	Declarations []string `yaml:"declarations,omitempty"`
	// Truth are fact files. When empty, facts come from the probe.
	Truth []string `yaml:"truth,omitempty"`
	// Format is the report format.
	Format string `yaml:"format,omitempty"`
	Probe  Probe  `yaml:"probe,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Format: string(report.FormatText),
		Probe:  Probe{CC: "cc"},
	}
}

// Load reads a configuration file. Keys missing from the file keep their default values;
// unknown keys are an error. If path is empty, DefaultPath is read when it exists and
// Default is returned otherwise.
func Load(path string) (*Config, error) {
	if path == "" {
		if _, err := os.Stat(DefaultPath); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return Default(), nil
			}
			return nil, err
		}
		path = DefaultPath
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(contents)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a configuration document over the defaults.
func Parse(contents []byte) (*Config, error) {
	c := Default()

	dec := yaml.NewDecoder(bytes.NewReader(contents))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return c, nil
}

// Validate checks that the configuration names something to check, that every target is
// registered, and that the report format is known.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 && len(c.Declarations) == 0 {
		return errors.New("config: no targets or declaration files")
	}
	for _, triple := range c.Targets {
		if _, err := target.Lookup(triple); err != nil {
			return err
		}
	}
	if _, err := report.ParseFormat(c.Format); err != nil {
		return err
	}
	return nil
}
