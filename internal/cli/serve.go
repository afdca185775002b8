package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/nodelog/internal/engine"
	"github.com/roach88/nodelog/internal/httpapi"
	"github.com/roach88/nodelog/internal/telemetry"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve queries over HTTP",
		Long: `Start the HTTP API.

Routes:
  GET  /show?path=...&until=...   query with URL parameters
  POST /show                      query with a JSON body
  GET  /health                    liveness probe
  GET  /metrics                   Prometheus metrics

The server shuts down gracefully on SIGINT or SIGTERM.

Examples:
  nodelog serve
  nodelog serve --addr 127.0.0.1:9000 --db ./dev.db
  NODELOG_TRACE_STDOUT=true nodelog serve`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (overrides config)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := opts.Config()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	addr := cfg.Addr
	if opts.Addr != "" {
		addr = opts.Addr
	}

	shutdownTracing, err := telemetry.InitTracing(ctx, telemetry.Config{UseStdout: cfg.TraceStdout})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to initialize tracing", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			slog.Warn("tracing shutdown", "error", err)
		}
	}()

	return withBackend(ctx, opts.RootOptions, func(b backend) error {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to listen", err)
		}

		srv := &http.Server{
			Handler:           httpapi.New(engine.New(b)),
			ReadHeaderTimeout: 10 * time.Second,
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s\n", ln.Addr())
		slog.Info("server started", "addr", ln.Addr().String(), "driver", cfg.Driver)

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Serve(ln)
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return WrapExitError(ExitFailure, "server failed", err)
			}
			return nil
		case <-ctx.Done():
		}

		slog.Info("shutting down", "timeout_seconds", cfg.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeout)*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return WrapExitError(ExitFailure, "shutdown failed", err)
		}
		return nil
	})
}
