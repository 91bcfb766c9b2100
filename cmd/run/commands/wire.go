package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Sumatoshi-tech/runfile/pkg/config"
	"github.com/Sumatoshi-tech/runfile/pkg/observability"
	"github.com/Sumatoshi-tech/runfile/pkg/project"
	"github.com/Sumatoshi-tech/runfile/pkg/runner"
	"github.com/Sumatoshi-tech/runfile/pkg/toolchain"
	"github.com/Sumatoshi-tech/runfile/pkg/version"
)

const (
	rustExt    = ".rs"
	pythonExt  = ".py"
	pythonLang = "python"
)

// runScript loads configuration, sets up telemetry, and dispatches path.
func runScript(ctx context.Context, opts RunOptions, path string, stdout, stderr io.Writer) error {
	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}

	providers, err := observability.InitWithWriter(observabilityConfig(cfg, opts.Verbose), stderr)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	defer func() {
		shutdownErr := providers.Shutdown(context.WithoutCancel(ctx))
		if shutdownErr != nil {
			providers.Logger.WarnContext(ctx, "telemetry shutdown failed", "error", shutdownErr)
		}
	}()

	metrics, err := observability.NewRunMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	executor := toolchain.NewOSExecutor()
	executor.Stdout = stdout
	executor.Stderr = stderr

	dispatcher := newDispatcher(cfg, executor, providers, metrics, stdout)

	return dispatcher.Run(ctx, path)
}

func newDispatcher(
	cfg *config.Config,
	executor toolchain.Executor,
	providers observability.Providers,
	metrics *observability.RunMetrics,
	out io.Writer,
) *runner.Dispatcher {
	builder := project.NewBuilder(project.Deps{
		Executor: executor,
		Out:      out,
		Logger:   providers.Logger,
		Tracer:   providers.Tracer,
		Metrics:  metrics,
		Cargo: toolchain.Cargo{
			Binary:      cfg.Rust.Cargo,
			PackageName: cfg.Rust.PackageName,
			Release:     cfg.Rust.Release,
		},
		CacheBase:    cfg.Cache.Base,
		CacheDirName: cfg.Cache.DirName,
	})

	interpreter := &runner.Interpreter{
		Executor: executor,
		Binary:   cfg.Python.Interpreter,
		Language: pythonLang,
	}

	return runner.NewDispatcher(map[string]runner.Backend{
		rustExt:   builder,
		pythonExt: interpreter,
	}, providers.Logger, metrics)
}

func observabilityConfig(cfg *config.Config, verbose bool) observability.Config {
	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Environment = cfg.Telemetry.Environment
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(cfg.Telemetry.OTLPHeaders)
	obsCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obsCfg.SampleRatio = cfg.Telemetry.SampleRatio
	obsCfg.LogJSON = cfg.Logging.Format == config.LogFormatJSON

	level, err := cfg.Logging.SlogLevel()
	if err == nil {
		obsCfg.LogLevel = level
	}

	if verbose {
		obsCfg.LogLevel = slog.LevelDebug
		obsCfg.DebugTrace = true
	}

	return obsCfg
}
