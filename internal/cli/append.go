package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/nodelog/internal/ir"
)

// AppendOptions holds flags for the append command.
type AppendOptions struct {
	*RootOptions
	Graph     string
	Timestamp int64
	Payload   string
}

// AppendResult reports one append.
type AppendResult struct {
	Event    ir.Event `json:"event"`
	Inserted bool     `json:"inserted"`
}

// NewAppendCommand creates the append command.
func NewAppendCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AppendOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "append <node-id> <created|updated|deleted>",
		Short: "Append one event to the log",
		Long: `Append a lifecycle event for a node.

A node's first event must be "created". A live node accepts "updated" and
"deleted"; a deleted node accepts "created" again. Timestamps must not go
backwards for a node. Appending an identical event again is a no-op.

Examples:
  nodelog append users/1 created --graph people --payload '{"name":"ada"}'
  nodelog append users/1 deleted --ts 1700000000000000`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAppend(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Graph, "graph", "", "graph the node belongs to")
	cmd.Flags().Int64Var(&opts.Timestamp, "ts", 0, "event timestamp in Unix microseconds (default now)")
	cmd.Flags().StringVar(&opts.Payload, "payload", "", "JSON object payload")

	return cmd
}

func runAppend(opts *AppendOptions, nodeID, kind string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	k, err := ir.ParseEventKind(kind)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid kind", err)
	}

	var payload map[string]any
	if opts.Payload != "" {
		payload, err = ir.DecodePayload([]byte(opts.Payload))
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid payload", err)
		}
	}

	ts := time.Now().UnixMicro()
	if cmd.Flags().Changed("ts") {
		ts = opts.Timestamp
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	return withBackend(ctx, opts.RootOptions, func(b backend) error {
		stored, inserted, err := b.Append(ctx, ir.Event{
			NodeID:    nodeID,
			Graph:     opts.Graph,
			Kind:      k,
			Timestamp: ts,
			Payload:   payload,
		})
		if err != nil {
			return appendExitError(err)
		}

		return out.Success(AppendResult{Event: stored, Inserted: inserted}, func(w io.Writer) {
			verb := "appended"
			if !inserted {
				verb = "already present"
			}
			fmt.Fprintf(w, "%s: %s %s @%d (seq %d, id %s)\n", verb, stored.NodeID, stored.Kind, stored.Timestamp, stored.Seq, stored.ID)
		})
	})
}

// appendExitError classifies a store append error: rejected events are
// command errors, store failures are failures.
func appendExitError(err error) *ExitError {
	if errors.Is(err, ir.ErrInvalidEvent) || errors.Is(err, ir.ErrLifecycle) {
		return WrapExitError(ExitCommandError, "append rejected", err)
	}
	return WrapExitError(ExitFailure, "append failed", err)
}
