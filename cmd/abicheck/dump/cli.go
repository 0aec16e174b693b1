package dump

import (
	"bufio"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pgavlin/abicheck/load"
	"github.com/pgavlin/abicheck/target"
)

func Command() *cobra.Command {
	var list bool
	var format string

	command := &cobra.Command{
		Use:   "dump [target]",
		Short: "Dump built-in target tables",
		Long:  "Print a built-in target table, with layouts computed, as YAML or CSV.",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := bufio.NewWriter(os.Stdout)
			defer w.Flush()

			if list {
				for _, triple := range target.Triples() {
					t, _ := target.Lookup(triple)
					fmt.Fprintf(w, "%-24s %s\n", triple, t.Description)
				}
				return nil
			}

			if len(args) != 1 {
				return errors.New("expected exactly one argument")
			}
			f, err := load.ParseFormat(format)
			if err != nil {
				return err
			}
			t, err := target.Lookup(args[0])
			if err != nil {
				return err
			}
			symbols, err := t.Symbols()
			if err != nil {
				return err
			}
			return load.Write(w, f, symbols)
		},
	}

	command.PersistentFlags().BoolVarP(&list, "list", "l", false, "list the built-in targets")
	command.PersistentFlags().StringVarP(&format, "format", "f", "yaml", "output format: yaml or csv")

	return command
}
