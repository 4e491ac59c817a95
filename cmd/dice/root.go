package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/dice-roller/internal/adapters/http/dto"
	"github.com/jsamuelsen/dice-roller/internal/app"
	"github.com/jsamuelsen/dice-roller/internal/dice"
	"github.com/jsamuelsen/dice-roller/internal/domain"
	"github.com/jsamuelsen/dice-roller/internal/platform/config"
	"github.com/jsamuelsen/dice-roller/internal/platform/logging"
)

// errRollFailed is returned when at least one expression did not roll.
// The failure has already been printed.
var errRollFailed = errors.New("one or more rolls failed")

type options struct {
	out io.Writer
	err io.Writer
	tty func() bool
	// source overrides the dice source in tests.
	source dice.Source
}

func newRootCmd(opts options) *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "dice",
		Short:         "Roll tabletop dice from standard notation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger := logging.NewWithWriter(&logging.Config{
				Level:   logLevel,
				Format:  "pretty",
				Service: "dice",
				Version: Version,
			}, opts.err)

			cmd.SetContext(logging.WithContext(cmd.Context(), logger))
			return nil
		},
	}

	root.SetOut(opts.out)
	root.SetErr(opts.err)
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: trace/debug/info/warn/error")

	root.AddCommand(newRollCmd(opts), newVersionCmd(opts))

	return root
}

func newRollCmd(opts options) *cobra.Command {
	var (
		asJSON   bool
		maxDice  int
		parallel int
	)

	cmd := &cobra.Command{
		Use:   "roll <expression>...",
		Short: "Roll one or more dice expressions",
		Example: `  dice roll 1d20
  dice roll "2d6+3" "1d20+1d4-1"
  dice roll --json 4d6 | jq .results[0].total`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := logging.FromContext(ctx)

			svc := app.NewRollService(app.RollServiceConfig{
				Evaluator:        dice.NewEvaluator(dice.WithSource(opts.source), dice.WithMaxGroups(maxDice)),
				Logger:           logger,
				MaxBatchSize:     len(args),
				BatchConcurrency: parallel,
			})

			outcomes, err := svc.RollBatch(ctx, app.BatchRequest{Expressions: args})
			if err != nil {
				return err
			}

			logger.DebugContext(ctx, "rolled expressions", slog.Int("count", len(outcomes)))

			if asJSON || opts.tty == nil || !opts.tty() {
				err = writeJSON(cmd.OutOrStdout(), outcomes)
			} else {
				err = writePretty(cmd.OutOrStdout(), outcomes)
			}
			if err != nil {
				return err
			}

			for _, out := range outcomes {
				if !out.OK() {
					return errRollFailed
				}
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON even on a terminal")
	cmd.Flags().IntVar(&maxDice, "max-groups", config.DefaultDiceMaxGroups, "maximum dice groups per expression (0 for no limit)")
	cmd.Flags().IntVar(&parallel, "parallel", config.DefaultDiceBatchConcurrency, "expressions rolled concurrently")

	return cmd
}

func writeJSON(w io.Writer, outcomes []domain.RollOutcome) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(dto.NewBatchResponse(outcomes))
}

func writePretty(w io.Writer, outcomes []domain.RollOutcome) error {
	var b strings.Builder

	for i, out := range outcomes {
		if i > 0 {
			b.WriteByte('\n')
		}

		if !out.OK() {
			fmt.Fprintf(&b, "%s\n  Error: %s\n", out.Input, out.Error)
			continue
		}

		fmt.Fprintf(&b, "%s = %d\n", out.Input, out.Total)
		for _, line := range out.Breakdown {
			fmt.Fprintf(&b, "  %s\n", line)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func newVersionCmd(opts options) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "dice %s (commit %s, built %s, %s)\n",
				Version, Commit, BuildTime, runtime.Version())
			return err
		},
	}
}
