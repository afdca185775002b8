package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/roach88/nodelog/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // fixture filter (glob pattern)
}

// FixtureResult holds the result of a single fixture execution.
type FixtureResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Fixtures []FixtureResult `json:"fixtures"`
	Passed   int             `json:"passed"`
	Failed   int             `json:"failed"`
	Total    int             `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <fixtures-dir>",
		Short: "Run conformance harness",
		Long: `Run conformance fixtures through the harness.

Each fixture is loaded into a scratch log, queried at every milestone,
and compared against an in-memory reference and its expectations. When
<fixtures-dir>/golden/<name>.golden exists the run snapshot must match it.

Exit codes:
  0 - All fixtures passed
  1 - One or more fixtures failed
  2 - Command error (invalid paths, etc.)

Examples:
  nodelog test ./fixtures
  nodelog test ./fixtures --filter "users-*"
  nodelog test ./fixtures --update
  nodelog test ./fixtures --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter fixtures by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, dir string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return NewExitError(ExitCommandError, fmt.Sprintf("fixtures directory not found: %s", dir))
	}
	if opts.Filter != "" && !doublestar.ValidatePattern(opts.Filter) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid filter pattern: %s", opts.Filter))
	}

	files, err := findFixtureFiles(dir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find fixtures", err)
	}

	result := TestResult{
		Fixtures: make([]FixtureResult, 0, len(files)),
		Total:    len(files),
	}
	for _, file := range files {
		fr := runFixture(ctx, file, dir, opts)
		result.Fixtures = append(result.Fixtures, fr)
		if fr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	return outputTests(opts, cmd, result)
}

// findFixtureFiles returns the YAML fixtures under dir, skipping the golden
// directory. filter is matched against the file name without extension.
func findFixtureFiles(dir, filter string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && d.Name() == "golden" {
				return filepath.SkipDir
			}
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			name := strings.TrimSuffix(d.Name(), ext)
			if ok, _ := doublestar.Match(filter, name); !ok {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})
	return files, err
}

// runFixture executes one fixture and checks or updates its golden file.
func runFixture(ctx context.Context, file, dir string, opts *TestOptions) FixtureResult {
	name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))

	f, err := harness.LoadFixture(file)
	if err != nil {
		return FixtureResult{Name: name, Errors: []string{fmt.Sprintf("failed to load fixture: %v", err)}}
	}
	if f.Name != "" {
		name = f.Name
	}

	result, err := harness.Run(ctx, f)
	if err != nil {
		return FixtureResult{Name: name, Errors: []string{fmt.Sprintf("execution failed: %v", err)}}
	}

	got, err := harness.GoldenBytes(result)
	if err != nil {
		return FixtureResult{Name: name, Errors: []string{fmt.Sprintf("failed to render snapshot: %v", err)}}
	}

	goldenPath := goldenFilePath(dir, file)
	if opts.Update {
		if err := writeGoldenFile(goldenPath, got); err != nil {
			return FixtureResult{Name: name, Errors: []string{err.Error()}}
		}
	} else if want, err := os.ReadFile(goldenPath); err == nil {
		if !bytes.Equal(want, got) {
			result.AddError("snapshot does not match golden file (run with --update to regenerate)")
		}
	} else if !os.IsNotExist(err) {
		result.AddError(fmt.Sprintf("failed to read golden file: %v", err))
	}

	return FixtureResult{Name: name, Pass: result.Pass, Errors: result.Errors}
}

// goldenFilePath returns <dir>/golden/<fixture>.golden.
func goldenFilePath(dir, file string) string {
	base := filepath.Base(file)
	return filepath.Join(dir, "golden", strings.TrimSuffix(base, filepath.Ext(base))+".golden")
}

func writeGoldenFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

func outputTests(opts *TestOptions, cmd *cobra.Command, result TestResult) error {
	w := cmd.OutOrStdout()

	if opts.Format == "json" {
		response := CLIResponse{Status: "ok", Data: result}
		if result.Failed > 0 {
			response.Status = "error"
			response.Error = &CLIError{
				Code:    "E_TEST_FAILED",
				Message: fmt.Sprintf("%d fixture(s) failed", result.Failed),
			}
		}
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
	} else {
		if result.Total == 0 {
			fmt.Fprintln(w, "No fixtures found.")
			return nil
		}
		for _, f := range result.Fixtures {
			if f.Pass {
				suffix := ""
				if opts.Update {
					suffix = " (golden updated)"
				}
				fmt.Fprintf(w, "✓ %s%s\n", f.Name, suffix)
				continue
			}
			fmt.Fprintf(w, "✗ %s\n", f.Name)
			for _, e := range f.Errors {
				fmt.Fprintf(w, "  %s\n", e)
			}
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
		if result.Failed == 0 {
			fmt.Fprintln(w, "✓ All fixtures passed")
		}
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d fixture(s) failed", result.Failed))
	}
	return nil
}
