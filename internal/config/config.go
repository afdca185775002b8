package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed schema.cue
var schemaCUE string

// DefaultFile is read by Load when no path is given and the file exists in
// the working directory.
const DefaultFile = "nodelog.cue"

// Drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all nodelog configuration.
type Config struct {
	DB              string `json:"db"`
	Driver          string `json:"driver"`
	Addr            string `json:"addr"`
	LogLevel        string `json:"log_level"`
	TraceStdout     bool   `json:"trace_stdout"`
	ShutdownTimeout int    `json:"shutdown_timeout"`
}

// Error is a configuration error, with the CUE position when one is known.
type Error struct {
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: config: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return "config: " + e.Message
}

// Load builds the configuration from, in increasing precedence:
//
//  1. schema defaults
//  2. the CUE file at path (or DefaultFile if path is "" and it exists)
//  3. NODELOG_* environment variables
//
// The result is validated against the schema after every layer.
// Command-line flags are applied by the caller, followed by Validate.
func Load(path string) (Config, error) {
	ctx := cuecontext.New()
	schema, err := schemaDef(ctx)
	if err != nil {
		return Config{}, err
	}

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}

	v := schema
	var file cue.Value
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, &Error{Message: fmt.Sprintf("read %s: %v", path, err)}
		}
		file = ctx.CompileBytes(data, cue.Filename(path))
		if err := file.Err(); err != nil {
			return Config{}, formatCUEError(err, path, file)
		}
		v = schema.Unify(file)
	}

	if err := v.Validate(cue.Concrete(true)); err != nil {
		return Config{}, formatCUEError(err, path, file)
	}

	var cfg Config
	if err := v.Decode(&cfg); err != nil {
		return Config{}, formatCUEError(err, path, file)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cfg against the schema.
func Validate(cfg Config) error {
	ctx := cuecontext.New()
	schema, err := schemaDef(ctx)
	if err != nil {
		return err
	}
	v := schema.Unify(ctx.Encode(cfg))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(err, "", cue.Value{})
	}
	return nil
}

func schemaDef(ctx *cue.Context) (cue.Value, error) {
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return cue.Value{}, formatCUEError(err, "", cue.Value{})
	}
	return schema.LookupPath(cue.ParsePath("#Config")), nil
}

// applyEnv overrides cfg with NODELOG_* variables that are set.
func applyEnv(cfg *Config) error {
	cfg.DB = getenv("NODELOG_DB", cfg.DB)
	cfg.Driver = getenv("NODELOG_DRIVER", cfg.Driver)
	cfg.Addr = getenv("NODELOG_ADDR", cfg.Addr)
	cfg.LogLevel = getenv("NODELOG_LOG_LEVEL", cfg.LogLevel)

	if v := os.Getenv("NODELOG_TRACE_STDOUT"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return &Error{Message: fmt.Sprintf("NODELOG_TRACE_STDOUT: %v", err)}
		}
		cfg.TraceStdout = b
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// formatCUEError extracts position info from CUE errors.
//
// Positions inside the config file win over positions in the embedded
// schema. Some errors, such as an empty disjunction, carry no position at
// all; their field path is then looked up in file, compiled from filename.
func formatCUEError(err error, filename string, file cue.Value) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &Error{Message: err.Error()}
	}

	return &Error{Message: errs[0].Error(), Pos: errorPos(errs, filename, file)}
}

// errorPos picks the most useful position for errs.
func errorPos(errs []errors.Error, filename string, file cue.Value) token.Pos {
	var fallback token.Pos
	for _, e := range errs {
		for _, pos := range errors.Positions(e) {
			if !pos.IsValid() {
				continue
			}
			if filename != "" && pos.Filename() == filename {
				return pos
			}
			if !fallback.IsValid() {
				fallback = pos
			}
		}
	}

	if file.Exists() {
		for _, e := range errs {
			if pos := fieldPos(file, e.Path()); pos.IsValid() {
				return pos
			}
		}
	}
	return fallback
}

// fieldPos returns the position of the field at path in file. Definition
// selectors such as #Config are skipped, since the file holds the fields
// of #Config at its top level.
func fieldPos(file cue.Value, path []string) token.Pos {
	var sels []cue.Selector
	for _, p := range path {
		if strings.HasPrefix(p, "#") {
			continue
		}
		sels = append(sels, cue.Str(p))
	}
	if len(sels) == 0 {
		return token.NoPos
	}
	field := file.LookupPath(cue.MakePath(sels...))
	if !field.Exists() {
		return token.NoPos
	}
	return field.Pos()
}
