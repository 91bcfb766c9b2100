package toolchain

// Cargo builds the cargo invocations used to stage and run a scratch project.
type Cargo struct {
	// Binary is the cargo executable, usually "cargo".
	Binary string
	// PackageName is the name given to generated projects.
	PackageName string
	// Release builds with optimizations.
	Release bool
}

// Init returns the skeleton-initialization command for dir.
func (c Cargo) Init(dir string) Command {
	return Command{
		Name: c.Binary,
		Args: []string{"init", "--bin", "--vcs", "none", "--quiet", "--name", c.PackageName},
		Dir:  dir,
	}
}

// Run returns the build-and-execute command for the project in dir. Output is
// captured; env redirects the registry and artifact locations.
func (c Cargo) Run(dir string, env []string) Command {
	args := []string{"run", "--quiet"}
	if c.Release {
		args = append(args, "--release")
	}

	return Command{
		Name: c.Binary,
		Args: args,
		Dir:  dir,
		Env:  env,
	}
}
