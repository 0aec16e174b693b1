package check

import (
	"bufio"
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pgavlin/abicheck/abi"
	"github.com/pgavlin/abicheck/config"
	"github.com/pgavlin/abicheck/internal/cli"
	"github.com/pgavlin/abicheck/load"
	"github.com/pgavlin/abicheck/probe"
	"github.com/pgavlin/abicheck/report"
	"github.com/pgavlin/abicheck/validate"
)

func Command(g *cli.Globals) *cobra.Command {
	var targets []string
	var truth []string
	var format string
	var host bool

	command := &cobra.Command{
		Use:   "check [declaration files]",
		Short: "Check declarations against the platform",
		Long: "Check built-in target tables and declaration files against ground-truth facts.\n\n" +
			"Facts are read from --truth files, taken from the running platform with --host, or\n" +
			"gathered by compiling a probe against the configured headers. The exit status is 1\n" +
			"if any mismatch is found.",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.Config()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("target") {
				c.Targets = targets
			}
			if cmd.Flags().Changed("truth") {
				c.Truth = truth
			}
			if cmd.Flags().Changed("format") {
				c.Format = format
			}
			c.Declarations = append(c.Declarations, args...)
			if err := c.Validate(); err != nil {
				return err
			}
			if host && len(c.Truth) != 0 {
				return errors.New("--host and truth files are mutually exclusive")
			}

			reports, err := run(cmd.Context(), g.Logger(), c, host)
			if err != nil {
				return err
			}

			f, err := report.ParseFormat(c.Format)
			if err != nil {
				return err
			}
			w := bufio.NewWriter(os.Stdout)
			if err := report.WriteReports(w, f, reports...); err != nil {
				return err
			}
			if err := w.Flush(); err != nil {
				return err
			}

			for _, r := range reports {
				if code := report.ExitCode(r.Mismatches); code != 0 {
					return cli.NewExitError(code)
				}
			}
			return nil
		},
	}

	command.PersistentFlags().StringSliceVarP(&targets, "target", "t", nil, "target triples to check (overrides the configuration)")
	command.PersistentFlags().StringSliceVar(&truth, "truth", nil, "fact files (overrides the configuration)")
	command.PersistentFlags().StringVarP(&format, "format", "f", "text", "report format: text, csv or yaml")
	command.PersistentFlags().BoolVar(&host, "host", false, "compare against the facts of the running platform")

	return command
}

// run validates every configured target concurrently and returns the reports in target
// order. With no targets, the declaration files are checked on their own.
func run(ctx context.Context, logger *zap.Logger, c *config.Config, host bool) ([]report.Report, error) {
	var facts []abi.Symbol
	var err error
	switch {
	case host:
		if facts, err = probe.Host(); err != nil {
			return nil, err
		}
	case len(c.Truth) != 0:
		if facts, err = load.LoadFiles(c.Truth, abi.Truth); err != nil {
			return nil, err
		}
	}
	probed := !host && len(c.Truth) == 0

	triples := c.Targets
	if len(triples) == 0 {
		triples = []string{""}
	}
	reports := make([]report.Report, len(triples))

	group, ctx := errgroup.WithContext(ctx)
	for i, triple := range triples {
		i, triple := i, triple
		group.Go(func() error {
			declared, model, err := cli.Declarations(triple, c.Declarations)
			if err != nil {
				return err
			}

			truth := facts
			if probed {
				if truth, err = probe.Run(ctx, declared, cli.ProbeOptions(c, model, logger)); err != nil {
					return err
				}
			}

			mismatches, err := validate.Validate(declared, truth, validate.WithTypes(model))
			if err != nil {
				return err
			}
			logger.Info("checked target",
				zap.String("target", triple),
				zap.Int("declared", len(declared)),
				zap.Int("facts", len(truth)),
				zap.Int("mismatches", len(mismatches)))

			reports[i] = report.Report{Target: triple, Mismatches: mismatches}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
