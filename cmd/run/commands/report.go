package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
)

// ExitFailure is the process status for every reported error.
const ExitFailure = 1

// Report prints err once on w and returns the exit status. Usage errors print
// the usage line; everything else is prefixed with "error:", in red when
// colorize is set.
func Report(w io.Writer, err error, colorize bool) int {
	if errors.Is(err, ErrUsage) {
		fmt.Fprintln(w, err)

		return ExitFailure
	}

	prefix := color.New(color.FgRed, color.Bold)
	if colorize {
		prefix.EnableColor()
	} else {
		prefix.DisableColor()
	}

	prefix.Fprint(w, "error:")
	fmt.Fprintf(w, " %v\n", err)

	return ExitFailure
}
