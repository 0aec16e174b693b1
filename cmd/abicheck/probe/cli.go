package probe

import (
	"bufio"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/pgavlin/abicheck/internal/cli"
	"github.com/pgavlin/abicheck/load"
	"github.com/pgavlin/abicheck/probe"
)

func Command(g *cli.Globals) *cobra.Command {
	var triple string
	var run bool
	var format string

	command := &cobra.Command{
		Use:   "probe [declaration files]",
		Short: "Generate or run the native probe",
		Long: "Write the C program that gathers ground-truth facts for a target's declarations.\n\n" +
			"With --run, compile and run the program instead and print the facts it reports.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if triple == "" && len(args) == 0 {
				return errors.New("expected a target or at least one declaration file")
			}

			c, err := g.Config()
			if err != nil {
				return err
			}
			declared, model, err := cli.Declarations(triple, args)
			if err != nil {
				return err
			}
			options := cli.ProbeOptions(c, model, g.Logger())

			w := bufio.NewWriter(os.Stdout)
			defer w.Flush()

			if !run {
				return probe.Generate(w, declared, options)
			}

			f, err := load.ParseFormat(format)
			if err != nil {
				return err
			}
			facts, err := probe.Run(cmd.Context(), declared, options)
			if err != nil {
				return err
			}
			return load.Write(w, f, facts)
		},
	}

	command.PersistentFlags().StringVarP(&triple, "target", "t", "", "the target whose table to probe")
	command.PersistentFlags().BoolVarP(&run, "run", "r", false, "compile and run the probe and print its facts")
	command.PersistentFlags().StringVarP(&format, "format", "f", "csv", "fact format: csv or yaml")

	return command
}
