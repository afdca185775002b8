package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cobra"

	"github.com/roach88/nodelog/internal/ir"
)

// zstdMagic starts every zstd frame.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Output string
	Raw    bool
}

// TransferResult reports an export or import.
type TransferResult struct {
	Events   int `json:"events"`
	Inserted int `json:"inserted,omitempty"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the whole log as zstd-compressed NDJSON",
		Long: `Export every event, one JSON object per line in log order, compressed
with zstd. The export can be loaded into any store with "nodelog import".

Examples:
  nodelog export -o log.ndjson.zst
  nodelog export --raw | jq .node_id`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&opts.Raw, "raw", false, "write uncompressed NDJSON")

	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	return withBackend(ctx, opts.RootOptions, func(b backend) error {
		events, err := b.ReadAll(ctx)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to read log", err)
		}

		w := cmd.OutOrStdout()
		if opts.Output != "" {
			f, err := os.Create(opts.Output)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to create output", err)
			}
			defer f.Close()
			w = f
		}

		if err := writeEvents(w, events, !opts.Raw); err != nil {
			return WrapExitError(ExitFailure, "failed to write export", err)
		}

		if opts.Output != "" {
			out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
			return out.Success(TransferResult{Events: len(events)}, func(w io.Writer) {
				fmt.Fprintf(w, "Exported %d event(s) to %s\n", len(events), opts.Output)
			})
		}
		return nil
	})
}

// writeEvents writes events as NDJSON, zstd-compressed if compress is set.
func writeEvents(w io.Writer, events []ir.Event, compress bool) error {
	if !compress {
		return encodeEvents(w, events)
	}

	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return err
	}
	if err := encodeEvents(zw, events); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

func encodeEvents(w io.Writer, events []ir.Event) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, e := range events {
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("encode seq %d: %w", e.Seq, err)
		}
	}
	return nil
}

// readEvents reads NDJSON events, decompressing if the input is zstd.
// Each event's id is recomputed and must match the recorded one.
func readEvents(r io.Reader) ([]ir.Event, error) {
	br := bufio.NewReader(r)
	if magic, err := br.Peek(len(zstdMagic)); err == nil && bytes.Equal(magic, zstdMagic) {
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		r = zr
	} else {
		r = br
	}

	dec := json.NewDecoder(r)
	dec.UseNumber()

	events := []ir.Event{}
	for line := 1; ; line++ {
		var e ir.Event
		if err := dec.Decode(&e); err != nil {
			if errors.Is(err, io.EOF) {
				return events, nil
			}
			return nil, fmt.Errorf("record %d: %w", line, err)
		}

		recorded := e.ID
		e.ID, e.Seq = "", 0
		prepared, err := ir.PrepareEvent(e)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", line, err)
		}
		if recorded != "" && recorded != prepared.ID {
			return nil, fmt.Errorf("record %d: id mismatch: recorded %s, computed %s", line, recorded, prepared.ID)
		}
		events = append(events, prepared)
	}
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Append events from an export",
		Long: `Import an export produced by "nodelog export" (zstd or plain NDJSON).

Event ids are recomputed and must match the export. Events are appended in
one transaction; events already present are skipped.

Examples:
  nodelog import log.ndjson.zst
  nodelog export --db a.db | nodelog import --db b.db -`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runImport(opts *RootOptions, path string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open input", err)
		}
		defer f.Close()
		r = f
	}

	events, err := readEvents(r)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid export", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	return withBackend(ctx, opts, func(b backend) error {
		n, err := b.AppendBatch(ctx, events)
		if err != nil {
			return appendExitError(err)
		}
		return out.Success(TransferResult{Events: len(events), Inserted: n}, func(w io.Writer) {
			fmt.Fprintf(w, "Imported %d event(s), %d inserted\n", len(events), n)
		})
	})
}
