// Package commands implements the run command line.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/runfile/pkg/version"
)

// Output formats for --deps.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

var (
	// ErrUsage reports a malformed invocation.
	ErrUsage = errors.New("usage: run <filename>")
	// ErrUnknownFormat is returned for an unsupported --format value.
	ErrUnknownFormat = errors.New("unknown output format")
)

var formats = []string{FormatTable, FormatJSON, FormatYAML}

// RunOptions carries the flags that shape a script run.
type RunOptions struct {
	ConfigPath string
	Verbose    bool
}

type scriptExecutor func(ctx context.Context, opts RunOptions, path string, stdout, stderr io.Writer) error

// RunCommand holds flags and dependencies for the root command.
type RunCommand struct {
	configPath string
	verbose    bool
	listDeps   bool
	format     string

	exec scriptExecutor
}

// NewRootCommand creates the run command.
func NewRootCommand() *cobra.Command {
	return newRootCommandWithDeps(runScript)
}

func newRootCommandWithDeps(exec scriptExecutor) *cobra.Command {
	rc := &RunCommand{
		format: FormatTable,
		exec:   exec,
	}

	cmd := &cobra.Command{
		Use:   "run [flags] <filename>",
		Short: "Run a single Rust or Python source file",
		Long: `Run executes a single source file chosen by its extension.

  .rs   staged into a throwaway cargo project; external crates named in
        top-level use declarations are added to Cargo.toml automatically
  .py   passed to the Python interpreter

Build artifacts and downloaded crates are shared through <cache.base>/.run_cache.`,
		Args:          exactlyOneFile,
		RunE:          rc.run,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("run {{.Version}}\n")
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	})

	// Everything after the file name belongs to the file, not to us.
	cmd.Flags().SetInterspersed(false)

	cmd.Flags().StringVar(&rc.configPath, "config", "", "Config file (default: $HOME/.config/runfile/runfile.yaml)")
	cmd.Flags().BoolVarP(&rc.verbose, "verbose", "v", false, "Debug logging to stderr")
	cmd.Flags().BoolVar(&rc.listDeps, "deps", false, "Print the crates a .rs file depends on and exit")
	cmd.Flags().StringVar(&rc.format, "format", FormatTable, "Output format for --deps: table, json, yaml")

	return cmd
}

func exactlyOneFile(_ *cobra.Command, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}

	return nil
}

func (rc *RunCommand) run(cmd *cobra.Command, args []string) error {
	path := args[0]

	if rc.listDeps {
		if !slices.Contains(formats, rc.format) {
			return fmt.Errorf("%w: %q (want one of %v)", ErrUnknownFormat, rc.format, formats)
		}

		return listDependencies(cmd.Context(), path, rc.format, cmd.OutOrStdout())
	}

	opts := RunOptions{
		ConfigPath: rc.configPath,
		Verbose:    rc.verbose,
	}

	return rc.exec(cmd.Context(), opts, path, cmd.OutOrStdout(), cmd.ErrOrStderr())
}
