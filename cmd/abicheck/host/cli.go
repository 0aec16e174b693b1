package host

import (
	"bufio"
	"os"

	"github.com/spf13/cobra"

	"github.com/pgavlin/abicheck/load"
	"github.com/pgavlin/abicheck/probe"
)

func Command() *cobra.Command {
	var format string

	command := &cobra.Command{
		Use:   "host",
		Short: "Print facts about the running platform",
		Long:  "Print the facts the Go toolchain records for the running platform, as YAML or CSV.",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := load.ParseFormat(format)
			if err != nil {
				return err
			}
			facts, err := probe.Host()
			if err != nil {
				return err
			}

			w := bufio.NewWriter(os.Stdout)
			defer w.Flush()
			return load.Write(w, f, facts)
		},
	}

	command.PersistentFlags().StringVarP(&format, "format", "f", "csv", "output format: csv or yaml")

	return command
}
