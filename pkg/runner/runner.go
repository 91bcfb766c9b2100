// Package runner selects an execution backend for a source file by its
// extension and records per-language run metrics.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/src-d/enry/v2"

	"github.com/Sumatoshi-tech/runfile/pkg/observability"
)

// ErrUnsupportedExtension is returned for files whose extension has no backend.
var ErrUnsupportedExtension = errors.New("unsupported file type")

// Backend executes one source file.
type Backend interface {
	// Lang returns the language label used in logs and metrics.
	Lang() string
	// Execute runs the file at path.
	Execute(ctx context.Context, path string) error
}

// Dispatcher maps exact, case-sensitive file extensions to backends.
type Dispatcher struct {
	backends map[string]Backend
	logger   *slog.Logger
	metrics  *observability.RunMetrics
}

// NewDispatcher creates a Dispatcher over the given extension table. Keys
// include the leading dot, e.g. ".rs".
func NewDispatcher(backends map[string]Backend, logger *slog.Logger, metrics *observability.RunMetrics) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Dispatcher{
		backends: backends,
		logger:   logger,
		metrics:  metrics,
	}
}

// Extensions returns the recognized extensions in sorted order.
func (d *Dispatcher) Extensions() []string {
	exts := make([]string, 0, len(d.backends))
	for ext := range d.backends {
		exts = append(exts, ext)
	}

	slices.Sort(exts)

	return exts
}

// Lookup returns the backend registered for path's extension.
func (d *Dispatcher) Lookup(path string) (Backend, error) {
	ext := Extension(path)

	backend, ok := d.backends[ext]
	if !ok || ext == "" {
		return nil, unsupported(path, ext)
	}

	return backend, nil
}

// Run executes path with its backend. An unknown extension fails before any
// backend is invoked.
func (d *Dispatcher) Run(ctx context.Context, path string) error {
	backend, err := d.Lookup(path)
	if err != nil {
		return err
	}

	lang := backend.Lang()
	started := time.Now()

	d.logger.DebugContext(ctx, "dispatching", "path", path, "lang", lang)

	err = backend.Execute(ctx, path)

	status := observability.StatusOK
	if err != nil {
		status = observability.StatusError
	}

	elapsed := time.Since(started)
	d.metrics.RecordRun(ctx, lang, status, elapsed)
	d.logger.DebugContext(ctx, "run finished", "lang", lang, "status", status, "elapsed", elapsed.Round(time.Millisecond))

	return err
}

// Extension returns the file extension of path. A dotfile such as ".rs" has
// none.
func Extension(path string) string {
	ext := filepath.Ext(path)
	if ext == filepath.Base(path) {
		return ""
	}

	return ext
}

func unsupported(path, ext string) error {
	name := strings.TrimPrefix(ext, ".")
	if name == "" {
		return fmt.Errorf("%w: %s", ErrUnsupportedExtension, filepath.Base(path))
	}

	if lang, _ := enry.GetLanguageByExtension(path); lang != "" {
		return fmt.Errorf("%w: %s (looks like %s)", ErrUnsupportedExtension, name, lang)
	}

	return fmt.Errorf("%w: %s", ErrUnsupportedExtension, name)
}
