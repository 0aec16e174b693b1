// Package cli holds the state shared by the abicheck subcommands.
package cli

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/pgavlin/abicheck/abi"
	"github.com/pgavlin/abicheck/config"
	"github.com/pgavlin/abicheck/ctype"
	"github.com/pgavlin/abicheck/load"
	"github.com/pgavlin/abicheck/probe"
	"github.com/pgavlin/abicheck/target"
)

// ExitError ends the process with a status code and no message.
type ExitError struct {
	code int
}

func NewExitError(code int) *ExitError {
	return &ExitError{code: code}
}

func (e *ExitError) Code() int {
	return e.code
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// Globals carries the root command's persistent flags to the subcommands.
type Globals struct {
	ConfigPath string
	Verbose    bool

	logger *zap.Logger
	config *config.Config
}

// Init builds the logger. It is called once, before any subcommand runs.
func (g *Globals) Init() error {
	var err error
	if g.Verbose {
		g.logger, err = zap.NewDevelopment()
	} else {
		c := zap.NewProductionConfig()
		c.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
		g.logger, err = c.Build()
	}
	return err
}

// Logger returns the process logger.
func (g *Globals) Logger() *zap.Logger {
	if g.logger == nil {
		return zap.NewNop()
	}
	return g.logger
}

// Sync flushes the logger.
func (g *Globals) Sync() {
	if g.logger != nil {
		g.logger.Sync()
	}
}

// Config loads the configuration file on first use.
func (g *Globals) Config() (*config.Config, error) {
	if g.config == nil {
		c, err := config.Load(g.ConfigPath)
		if err != nil {
			return nil, err
		}
		g.Logger().Debug("loaded configuration", zap.String("path", g.ConfigPath), zap.Strings("targets", c.Targets))
		g.config = c
	}
	return g.config, nil
}

// Declarations assembles the declared set for one target: the target's built-in table,
// if triple is not empty, followed by the contents of files. It also returns the data
// model the set is written against. Struct and union layouts of the combined set are
// computed under that model, so file declarations may embed table aggregates.
func Declarations(triple string, files []string) ([]abi.Symbol, *ctype.Model, error) {
	model := ctype.LP64

	var symbols []abi.Symbol
	if triple != "" {
		t, err := target.Lookup(triple)
		if err != nil {
			return nil, nil, err
		}
		if symbols, err = t.Symbols(); err != nil {
			return nil, nil, err
		}
		model = t.Model
	}

	extra, err := load.LoadFiles(files, abi.Declared)
	if err != nil {
		return nil, nil, err
	}
	symbols = append(symbols, extra...)
	if err := ctype.LayoutAll(symbols, model); err != nil {
		return nil, nil, err
	}
	return symbols, model, nil
}

// ProbeOptions returns the native probe options for a configuration.
func ProbeOptions(c *config.Config, model *ctype.Model, logger *zap.Logger) probe.Options {
	return probe.Options{
		CC:          c.Probe.CC,
		Flags:       c.Probe.Flags,
		IncludeDirs: c.Probe.Include,
		Headers:     c.Probe.Headers,
		Tagged:      c.Probe.Tagged,
		Types:       model,
		Logger:      logger,
	}
}
