package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/nodelog/internal/engine"
	"github.com/roach88/nodelog/internal/ir"
	"github.com/roach88/nodelog/internal/queryir"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Until      int64
	GroupBy    string
	GroupLimit int
	CountsOnly bool
	Limit      int
	Skip       int
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <path>",
		Short: "Show the log as of a point in time",
		Long: `Reconstruct the nodes under a path as of a timestamp.

Without --group-by the raw event history is listed in (timestamp, seq)
order. With --group-by node each live node is listed with its most recent
events. --counts-only prints the number of live nodes.

Timestamps are Unix microseconds. --until defaults to now.

Exit codes:
  0 - Success (an empty result is a success)
  1 - Store failure
  2 - Invalid path, options or pagination

Examples:
  nodelog show /
  nodelog show /g/people --group-by node --until 1700000000000000
  nodelog show '/n/{users/1,orders/a}' --group-by node --group-limit 3
  nodelog show /c/users --counts-only --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.Until, "until", 0, "as-of timestamp in Unix microseconds (default now)")
	cmd.Flags().StringVar(&opts.GroupBy, "group-by", "", `group events ("node")`)
	cmd.Flags().IntVar(&opts.GroupLimit, "group-limit", 0, "events kept per node when grouping (default 1)")
	cmd.Flags().BoolVar(&opts.CountsOnly, "counts-only", false, "print only the number of live nodes")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum events (ungrouped) or nodes (grouped)")
	cmd.Flags().IntVar(&opts.Skip, "skip", 0, "entries to skip before --limit applies")

	return cmd
}

// queryOptions converts flags to query options. Only flags that were set
// are passed, so absent and zero stay distinct.
func (o *ShowOptions) queryOptions(cmd *cobra.Command) queryir.Options {
	q := queryir.Options{
		GroupBy:    queryir.GroupBy(o.GroupBy),
		GroupLimit: o.GroupLimit,
		CountsOnly: o.CountsOnly,
	}
	if cmd.Flags().Changed("until") {
		q.Until = queryir.Int64(o.Until)
	}
	if cmd.Flags().Changed("limit") {
		q.Limit = queryir.Int(o.Limit)
	}
	if cmd.Flags().Changed("skip") {
		q.Skip = queryir.Int(o.Skip)
	}
	return q
}

func runShow(opts *ShowOptions, path string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	return withBackend(ctx, opts.RootOptions, func(b backend) error {
		res, err := engine.New(b).Query(ctx, path, opts.queryOptions(cmd))
		if err != nil {
			if opts.Format == "json" {
				_ = out.Error(string(engine.ErrorCodeOf(err)), err.Error(), nil)
			}
			return queryExitError(err)
		}

		for _, w := range res.Warnings {
			out.VerboseLog("warning: %s", w)
		}
		return out.Success(res.Payload(), func(w io.Writer) {
			renderResult(w, res)
		})
	})
}

// renderResult writes a human-readable table of res.
func renderResult(w io.Writer, res engine.Result) {
	switch res.Mode {
	case queryir.ModeCount:
		fmt.Fprintf(w, "total: %d\n", res.Total)

	case queryir.ModeGrouped:
		if len(res.Nodes) == 0 {
			fmt.Fprintln(w, "No live nodes.")
			return
		}
		for _, n := range res.Nodes {
			fmt.Fprintln(w, n.NodeID)
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			for _, e := range n.Events {
				fmt.Fprint(tw, "  ")
				writeEventRow(tw, e)
			}
			tw.Flush()
		}

	default:
		if len(res.Events) == 0 {
			fmt.Fprintln(w, "No events.")
			return
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SEQ\tTIMESTAMP\tKIND\tNODE\tGRAPH\tPAYLOAD")
		for _, e := range res.Events {
			writeEventRow(tw, e)
		}
		tw.Flush()
	}
}

func writeEventRow(w io.Writer, e ir.Event) {
	payload := ""
	if len(e.Payload) > 0 {
		if b, err := ir.MarshalCanonical(e.Payload); err == nil {
			payload = string(b)
		}
	}
	fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%s\n", e.Seq, e.Timestamp, e.Kind, e.NodeID, e.Graph, payload)
}
