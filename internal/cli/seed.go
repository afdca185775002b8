package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/nodelog/internal/harness"
	"github.com/roach88/nodelog/internal/ir"
)

// SeedResult reports a seed run.
type SeedResult struct {
	Fixture  string `json:"fixture"`
	Events   int    `json:"events"`
	Inserted int    `json:"inserted"`
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed <fixture.yaml>",
		Short: "Append a fixture's events to the log",
		Long: `Load the events of a fixture file into the configured store.

All events are appended in one transaction: if any event is rejected,
nothing is written. Events already present are skipped, so seeding twice
is safe.

Example:
  nodelog seed --db ./dev.db internal/harness/testdata/fixtures/sample.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runSeed(opts *RootOptions, path string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	f, err := harness.LoadFixture(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load fixture", err)
	}

	events := make([]ir.Event, len(f.Events))
	for i, fe := range f.Events {
		events[i] = fe.Event()
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	return withBackend(ctx, opts, func(b backend) error {
		n, err := b.AppendBatch(ctx, events)
		if err != nil {
			return appendExitError(err)
		}

		result := SeedResult{Fixture: f.Name, Events: len(events), Inserted: n}
		return out.Success(result, func(w io.Writer) {
			fmt.Fprintf(w, "Seeded %s: %d event(s), %d inserted\n", f.Name, len(events), n)
		})
	})
}
