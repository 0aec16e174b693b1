package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pgavlin/abicheck/cmd/abicheck/check"
	"github.com/pgavlin/abicheck/cmd/abicheck/dump"
	"github.com/pgavlin/abicheck/cmd/abicheck/host"
	"github.com/pgavlin/abicheck/cmd/abicheck/probe"
	"github.com/pgavlin/abicheck/internal/cli"
)

var version = "<unknown>"

func configureCLI(g *cli.Globals) *cobra.Command {
	rootCommand := &cobra.Command{
		Use:           "abicheck",
		Short:         "abicheck ABI consistency checker",
		Long:          "abicheck - cross-check platform binding declarations against the platform's C ABI",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.Init()
		},
	}

	rootCommand.AddCommand(check.Command(g))
	rootCommand.AddCommand(dump.Command())
	rootCommand.AddCommand(host.Command())
	rootCommand.AddCommand(probe.Command(g))

	rootCommand.PersistentFlags().StringVarP(&g.ConfigPath, "config", "c", "", "path to the configuration file (default abicheck.yaml if present)")
	rootCommand.PersistentFlags().BoolVarP(&g.Verbose, "verbose", "v", false, "enable debug logging")

	return rootCommand
}

func main() {
	var g cli.Globals
	rootCommand := configureCLI(&g)

	err := rootCommand.Execute()
	g.Sync()
	if err != nil {
		var exit *cli.ExitError
		if errors.As(err, &exit) {
			os.Exit(exit.Code())
		}

		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
