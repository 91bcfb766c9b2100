package runner

import (
	"context"
	"fmt"

	"github.com/Sumatoshi-tech/runfile/pkg/toolchain"
)

// Interpreter runs a source file directly with an interpreter binary and
// relays its standard streams.
type Interpreter struct {
	Executor toolchain.Executor
	// Binary is the interpreter executable, e.g. "python3".
	Binary string
	// Language is the label reported by Lang.
	Language string
}

// Lang implements Backend.
func (i *Interpreter) Lang() string {
	return i.Language
}

// Execute implements Backend. A non-zero exit surfaces as *toolchain.ProcessError.
func (i *Interpreter) Execute(ctx context.Context, path string) error {
	_, err := i.Executor.Run(ctx, toolchain.Command{
		Name:   i.Binary,
		Args:   []string{path},
		Stream: true,
	})
	if err != nil {
		return fmt.Errorf("run %s: %w", i.Language, err)
	}

	return nil
}
