// Package manifest merges inferred dependencies into a Cargo build manifest.
package manifest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/Sumatoshi-tech/runfile/pkg/importmodel"
)

const (
	// DependenciesKey is the manifest table mapping crate name to version requirement.
	DependenciesKey = "dependencies"
	// Wildcard is the version requirement meaning any available version.
	Wildcard = "*"

	filePerm = 0o644
)

// ErrManifest is the sentinel wrapped by every *ManifestError.
var ErrManifest = errors.New("malformed manifest")

var errDependenciesNotTable = errors.New(DependenciesKey + " is not a table")

// ManifestError reports a manifest document that cannot be decoded or merged.
type ManifestError struct {
	Err  error
	Path string
}

func (e *ManifestError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", ErrManifest, e.Err)
	}

	return fmt.Sprintf("%s %s: %v", ErrManifest, e.Path, e.Err)
}

// Unwrap exposes ErrManifest and the underlying cause.
func (e *ManifestError) Unwrap() []error {
	return []error{ErrManifest, e.Err}
}

// Apply merges deps into the TOML document doc and returns the re-encoded
// document and whether it differs from the input.
//
// An empty document is returned untouched. Every name in deps is upserted
// with the wildcard requirement; other keys and sections are kept. Encoding
// is deterministic, so applying the same set twice yields identical bytes.
func Apply(doc []byte, deps importmodel.Set) ([]byte, bool, error) {
	var parsed map[string]any

	err := toml.Unmarshal(doc, &parsed)
	if err != nil {
		return nil, false, &ManifestError{Err: err}
	}

	if len(parsed) == 0 {
		return doc, false, nil
	}

	table, err := dependencyTable(parsed)
	if err != nil {
		return nil, false, &ManifestError{Err: err}
	}

	for _, name := range deps.Sorted() {
		table[name] = Wildcard
	}

	out, err := toml.Marshal(parsed)
	if err != nil {
		return nil, false, &ManifestError{Err: fmt.Errorf("encode: %w", err)}
	}

	return out, !bytes.Equal(out, doc), nil
}

// dependencyTable returns the existing dependency table or installs a new one.
func dependencyTable(parsed map[string]any) (map[string]any, error) {
	raw, ok := parsed[DependenciesKey]
	if !ok {
		table := make(map[string]any)
		parsed[DependenciesKey] = table

		return table, nil
	}

	table, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", errDependenciesNotTable, raw)
	}

	return table, nil
}

// Synthesizer rewrites manifest files in place.
type Synthesizer struct {
	Logger *slog.Logger
}

// NewSynthesizer creates a Synthesizer logging to logger.
func NewSynthesizer(logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Synthesizer{Logger: logger}
}

// Synthesize merges deps into the manifest at path and writes it back when changed.
func (s *Synthesizer) Synthesize(ctx context.Context, path string, deps importmodel.Set) error {
	before, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}

	after, changed, err := Apply(before, deps)
	if err != nil {
		var manifestErr *ManifestError
		if errors.As(err, &manifestErr) {
			manifestErr.Path = path
		}

		return err
	}

	if !changed {
		s.Logger.DebugContext(ctx, "manifest unchanged", "path", path)

		return nil
	}

	if s.Logger.Enabled(ctx, slog.LevelDebug) {
		s.Logger.DebugContext(ctx, "manifest updated",
			"path", path,
			"dependencies", deps.Sorted(),
			"diff", LineDiff(string(before), string(after)))
	}

	err = os.WriteFile(path, after, filePerm)
	if err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	return nil
}
