// Package cachedir resolves the persistent cache shared by all invocations of the runner.
//
// The cache holds crate registry data and compiled build artifacts so that
// repeated runs of the same script skip downloads and reuse compiled crates.
// Nothing in this package ever deletes the cache.
package cachedir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultName is the cache directory created under the base path.
const DefaultName = ".run_cache"

const (
	registryDir = "registry"
	targetDir   = "target"

	dirPerm = 0o755

	// EnvCargoHome redirects cargo's registry and git checkouts.
	EnvCargoHome = "CARGO_HOME"
	// EnvCargoTargetDir redirects cargo's build artifacts.
	EnvCargoTargetDir = "CARGO_TARGET_DIR"
)

// ErrEmptyName is returned when the cache directory name is blank.
var ErrEmptyName = errors.New("cache directory name must not be empty")

// Dirs is a resolved cache location with guaranteed-existing subdirectories.
type Dirs struct {
	// Base is the cache root, e.g. ~/.run_cache.
	Base string
	// Registry holds downloaded registry data.
	Registry string
	// Target holds compiled build artifacts.
	Target string
}

// Resolve builds the cache layout under base and creates any missing directory.
// An empty base falls back to the current working directory. Concurrent calls
// are safe: directory creation tolerates directories that already exist.
func Resolve(base, name string) (Dirs, error) {
	if name == "" {
		return Dirs{}, ErrEmptyName
	}

	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Dirs{}, fmt.Errorf("resolve working directory: %w", err)
		}

		base = wd
	}

	absBase, err := filepath.Abs(base)
	if err != nil {
		return Dirs{}, fmt.Errorf("resolve cache base %s: %w", base, err)
	}

	root := filepath.Join(absBase, name)

	dirs := Dirs{
		Base:     root,
		Registry: filepath.Join(root, registryDir),
		Target:   filepath.Join(root, targetDir),
	}

	for _, dir := range []string{dirs.Registry, dirs.Target} {
		mkErr := os.MkdirAll(dir, dirPerm)
		if mkErr != nil {
			return Dirs{}, fmt.Errorf("create cache directory %s: %w", dir, mkErr)
		}
	}

	return dirs, nil
}

// Env returns the environment overrides that point cargo at the cache.
func (d Dirs) Env() []string {
	return []string{
		EnvCargoHome + "=" + d.Registry,
		EnvCargoTargetDir + "=" + d.Target,
	}
}
