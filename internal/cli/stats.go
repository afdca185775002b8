package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/nodelog/internal/config"
	"github.com/roach88/nodelog/internal/store"
)

// StatsResult combines log statistics and the known scopes.
type StatsResult struct {
	store.Stats
	Graphs      []string `json:"graphs"`
	Collections []string `json:"collections"`
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize a SQLite log",
		Long: `Print event and node counts, the latest sequence number and timestamp,
and the graphs and collections present in a SQLite log.

Example:
  nodelog stats --db ./dev.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(rootOpts, cmd)
		},
	}
	return cmd
}

func runStats(opts *RootOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := opts.Config()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	if cfg.Driver != config.DriverSQLite {
		return NewExitError(ExitCommandError, fmt.Sprintf("stats requires the %s driver", config.DriverSQLite))
	}

	st, err := store.Open(cfg.DB)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	stats, err := st.Stats(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read stats", err)
	}
	scopes, err := st.ListScopes(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to list scopes", err)
	}

	result := StatsResult{Stats: stats, Graphs: scopes.Graphs, Collections: scopes.Collections}
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	return out.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "Events:      %d\n", stats.Events)
		fmt.Fprintf(w, "Nodes:       %d\n", stats.Nodes)
		fmt.Fprintf(w, "Last seq:    %d\n", stats.LastSeq)
		fmt.Fprintf(w, "Last ts:     %d\n", stats.LastTimestamp)
		fmt.Fprintf(w, "Graphs:      %s\n", strings.Join(scopes.Graphs, ", "))
		fmt.Fprintf(w, "Collections: %s\n", strings.Join(scopes.Collections, ", "))
	})
}
