package cli

import (
	"context"
	"fmt"

	"github.com/roach88/nodelog/internal/config"
	"github.com/roach88/nodelog/internal/engine"
	"github.com/roach88/nodelog/internal/ir"
	"github.com/roach88/nodelog/internal/store"
	"github.com/roach88/nodelog/internal/store/pgstore"
)

// backend is a log store the CLI can read and write.
// Implemented by *store.Store and *pgstore.Store.
type backend interface {
	engine.LogReader
	Append(ctx context.Context, e ir.Event) (ir.Event, bool, error)
	AppendBatch(ctx context.Context, events []ir.Event) (int, error)
	ReadAll(ctx context.Context) ([]ir.Event, error)
	Close() error
}

// openBackend opens the store selected by cfg.Driver.
func openBackend(ctx context.Context, cfg config.Config) (backend, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return store.Open(cfg.DB)
	case config.DriverPostgres:
		return pgstore.Open(ctx, cfg.DB)
	default:
		return nil, fmt.Errorf("unknown driver %q", cfg.Driver)
	}
}

// withBackend resolves the config, opens the backend and runs fn.
// Open failures are command errors.
func withBackend(ctx context.Context, opts *RootOptions, fn func(backend) error) error {
	cfg, err := opts.Config()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	b, err := openBackend(ctx, cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer b.Close()
	return fn(b)
}
