// Package project stages a single Rust source file into a throwaway cargo
// project, infers its crate dependencies, and builds and runs it against the
// shared cache.
package project

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/runfile/pkg/cachedir"
	"github.com/Sumatoshi-tech/runfile/pkg/importmodel"
	"github.com/Sumatoshi-tech/runfile/pkg/manifest"
	"github.com/Sumatoshi-tech/runfile/pkg/observability"
	"github.com/Sumatoshi-tech/runfile/pkg/rustdeps"
	"github.com/Sumatoshi-tech/runfile/pkg/toolchain"
)

const (
	scratchPattern = "run-*"
	manifestFile   = "Cargo.toml"
	sourcePerm     = 0o644
	sourceDirPerm  = 0o755
)

// EntryPoint is the path of the binary crate root inside a cargo project.
var EntryPoint = filepath.Join("src", "main.rs")

// Deps holds the collaborators of a Builder.
type Deps struct {
	Executor toolchain.Executor
	Out      io.Writer
	Logger   *slog.Logger
	Tracer   trace.Tracer
	Metrics  *observability.RunMetrics

	Cargo toolchain.Cargo

	// CacheBase and CacheDirName locate the shared cache; see cachedir.Resolve.
	CacheBase    string
	CacheDirName string

	// TempDir is the parent of scratch projects; empty uses os.TempDir.
	TempDir string
}

// Builder runs Rust sources through an ephemeral cargo project.
type Builder struct {
	deps  Deps
	synth *manifest.Synthesizer
}

// NewBuilder creates a Builder, filling unset logger and tracer with no-ops.
func NewBuilder(deps Deps) *Builder {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}

	if deps.Tracer == nil {
		deps.Tracer = nooptrace.NewTracerProvider().Tracer("")
	}

	if deps.Out == nil {
		deps.Out = io.Discard
	}

	return &Builder{
		deps:  deps,
		synth: manifest.NewSynthesizer(deps.Logger),
	}
}

// Lang returns the language label of this backend.
func (b *Builder) Lang() string {
	return rustdeps.Lang
}

// Execute stages sourcePath, builds it, runs it, and prints its trimmed
// standard output. The scratch project is removed on every return path.
func (b *Builder) Execute(ctx context.Context, sourcePath string) error {
	logger := b.deps.Logger.With("source", sourcePath)
	started := time.Now()

	cache, err := cachedir.Resolve(b.deps.CacheBase, b.deps.CacheDirName)
	if err != nil {
		return err
	}

	scratch, err := os.MkdirTemp(b.deps.TempDir, scratchPattern)
	if err != nil {
		return fmt.Errorf("create scratch project: %w", err)
	}

	defer func() {
		rmErr := os.RemoveAll(scratch)
		if rmErr != nil {
			logger.WarnContext(ctx, "scratch project not removed", "dir", scratch, "error", rmErr)
		}
	}()

	logger.DebugContext(ctx, "scratch project created", "dir", scratch, "cache", cache.Base)

	err = observability.Stage(ctx, b.deps.Tracer, "cargo.init", func(ctx context.Context) error {
		_, initErr := b.deps.Executor.Run(ctx, b.deps.Cargo.Init(scratch))
		if initErr != nil {
			return fmt.Errorf("initialize project: %w", initErr)
		}

		return nil
	})
	if err != nil {
		return err
	}

	entry := filepath.Join(scratch, EntryPoint)

	err = observability.Stage(ctx, b.deps.Tracer, "project.stage", func(ctx context.Context) error {
		return stageSource(ctx, logger, sourcePath, entry)
	})
	if err != nil {
		return err
	}

	var deps importmodel.Set

	err = observability.Stage(ctx, b.deps.Tracer, "deps.extract", func(ctx context.Context) error {
		src, readErr := os.ReadFile(entry)
		if readErr != nil {
			return fmt.Errorf("read staged source: %w", readErr)
		}

		var extractErr error

		deps, extractErr = rustdeps.Extract(ctx, src)

		return extractErr
	})
	if err != nil {
		return err
	}

	b.deps.Metrics.RecordDependencies(ctx, deps.Len())
	logger.DebugContext(ctx, "dependencies inferred", "dependencies", deps.Sorted())

	err = observability.Stage(ctx, b.deps.Tracer, "manifest.synthesize", func(ctx context.Context) error {
		return b.synth.Synthesize(ctx, filepath.Join(scratch, manifestFile), deps)
	})
	if err != nil {
		return err
	}

	var result toolchain.Result

	err = observability.Stage(ctx, b.deps.Tracer, "cargo.run", func(ctx context.Context) error {
		var runErr error

		result, runErr = b.deps.Executor.Run(ctx, b.deps.Cargo.Run(scratch, cache.Env()))

		return runErr
	})
	if err != nil {
		return err
	}

	logger.DebugContext(ctx, "program finished",
		"elapsed", time.Since(started).Round(time.Millisecond),
		"stdout", humanize.Bytes(uint64(len(result.Stdout))))

	return writeOutput(b.deps.Out, result.Stdout)
}

// stageSource copies the user's file over the generated entry point.
func stageSource(ctx context.Context, logger *slog.Logger, sourcePath, entry string) error {
	src, err := os.ReadFile(sourcePath)
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}

	err = os.MkdirAll(filepath.Dir(entry), sourceDirPerm)
	if err != nil {
		return fmt.Errorf("create source directory: %w", err)
	}

	err = os.WriteFile(entry, src, sourcePerm)
	if err != nil {
		return fmt.Errorf("stage source: %w", err)
	}

	logger.DebugContext(ctx, "source staged", "size", humanize.Bytes(uint64(len(src))))

	return nil
}

// writeOutput prints stdout without trailing whitespace. Empty output prints nothing.
func writeOutput(out io.Writer, stdout []byte) error {
	trimmed := strings.TrimRightFunc(string(stdout), unicode.IsSpace)
	if trimmed == "" {
		return nil
	}

	_, err := fmt.Fprintln(out, trimmed)
	if err != nil {
		return fmt.Errorf("write program output: %w", err)
	}

	return nil
}
