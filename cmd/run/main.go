// Package main provides the entry point for the run CLI.
package main

import (
	"context"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/Sumatoshi-tech/runfile/cmd/run/commands"
	"github.com/Sumatoshi-tech/runfile/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	rootCmd := commands.NewRootCommand()

	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		colorize := isatty.IsTerminal(os.Stderr.Fd()) && os.Getenv("NO_COLOR") == ""
		os.Exit(commands.Report(os.Stderr, err, colorize))
	}
}
