package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/runfile/pkg/config"
	"github.com/Sumatoshi-tech/runfile/pkg/runner"
	"github.com/Sumatoshi-tech/runfile/pkg/rustdeps"
)

type recordedRun struct {
	opts RunOptions
	path string
}

func newRecordingCommand(calls *[]recordedRun, err error) (*bytes.Buffer, func(args ...string) error) {
	out := &bytes.Buffer{}

	fake := func(_ context.Context, opts RunOptions, path string, _, _ io.Writer) error {
		*calls = append(*calls, recordedRun{opts: opts, path: path})

		return err
	}

	return out, func(args ...string) error {
		cmd := newRootCommandWithDeps(fake)
		cmd.SetOut(out)
		cmd.SetErr(io.Discard)
		cmd.SetArgs(args)

		return cmd.Execute()
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestRootCommand_Usage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
	}{
		{name: "no arguments", args: nil},
		{name: "two arguments", args: []string{"a.rs", "b.rs"}},
		{name: "unknown flag", args: []string{"--bogus", "a.rs"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var calls []recordedRun

			_, run := newRecordingCommand(&calls, nil)

			err := run(tt.args...)
			require.ErrorIs(t, err, ErrUsage)
			assert.Empty(t, calls)
		})
	}
}

func TestRootCommand_ForwardsOptions(t *testing.T) {
	t.Parallel()

	var calls []recordedRun

	_, run := newRecordingCommand(&calls, nil)

	require.NoError(t, run("--config", "/tmp/runfile.yaml", "-v", "hello.py"))
	require.Len(t, calls, 1)
	assert.Equal(t, "hello.py", calls[0].path)
	assert.Equal(t, RunOptions{ConfigPath: "/tmp/runfile.yaml", Verbose: true}, calls[0].opts)
}

func TestRootCommand_FlagsAfterFileAreArguments(t *testing.T) {
	t.Parallel()

	var calls []recordedRun

	_, run := newRecordingCommand(&calls, nil)

	require.ErrorIs(t, run("hello.py", "-v"), ErrUsage)
	assert.Empty(t, calls)
}

func TestRootCommand_PropagatesError(t *testing.T) {
	t.Parallel()

	var calls []recordedRun

	boom := errors.New("boom")
	_, run := newRecordingCommand(&calls, boom)

	require.ErrorIs(t, run("main.rs"), boom)
}

func TestRootCommand_Version(t *testing.T) {
	t.Parallel()

	var calls []recordedRun

	out, run := newRecordingCommand(&calls, nil)

	require.NoError(t, run("--version"))
	assert.True(t, strings.HasPrefix(out.String(), "run "))
	assert.Empty(t, calls)
}

const depsSource = `use tokio::{io::AsyncReadExt, net::TcpStream};
use std::collections::HashMap;
use serde::Deserialize;
use crate::local::Thing;

fn main() {}
`

func TestDeps_JSON(t *testing.T) {
	t.Parallel()

	var calls []recordedRun

	path := writeFile(t, "main.rs", depsSource)
	out, run := newRecordingCommand(&calls, nil)

	require.NoError(t, run("--deps", "--format", "json", path))
	assert.Empty(t, calls, "--deps must not build or run")

	var report dependencyReport

	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, path, report.File)
	assert.Equal(t, []string{"serde", "tokio"}, report.Dependencies)
}

func TestDeps_YAML(t *testing.T) {
	t.Parallel()

	var calls []recordedRun

	path := writeFile(t, "main.rs", depsSource)
	out, run := newRecordingCommand(&calls, nil)

	require.NoError(t, run("--deps", "--format", "yaml", path))

	var report dependencyReport

	require.NoError(t, yaml.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, []string{"serde", "tokio"}, report.Dependencies)
}

func TestDeps_Table(t *testing.T) {
	t.Parallel()

	var calls []recordedRun

	path := writeFile(t, "main.rs", depsSource)
	out, run := newRecordingCommand(&calls, nil)

	require.NoError(t, run("--deps", path))

	rendered := out.String()
	assert.Contains(t, rendered, "serde")
	assert.Contains(t, rendered, "tokio")
	assert.NotContains(t, rendered, "HashMap")
	assert.Contains(t, strings.ToUpper(rendered), "TOTAL: 2")
	assert.Less(t, strings.Index(rendered, "serde"), strings.Index(rendered, "tokio"))
}

func TestDeps_EmptyListsAsArray(t *testing.T) {
	t.Parallel()

	var calls []recordedRun

	path := writeFile(t, "main.rs", "use std::io;\nfn main() {}\n")
	out, run := newRecordingCommand(&calls, nil)

	require.NoError(t, run("--deps", "--format", "json", path))
	assert.Contains(t, out.String(), `"dependencies": []`)
}

func TestDeps_Errors(t *testing.T) {
	t.Parallel()

	var calls []recordedRun

	_, run := newRecordingCommand(&calls, nil)

	pyPath := writeFile(t, "hello.py", "print('hi')\n")
	require.ErrorIs(t, run("--deps", pyPath), runner.ErrUnsupportedExtension)

	dotfile := writeFile(t, ".rs", "use rand::Rng;\n")
	require.ErrorIs(t, run("--deps", dotfile), runner.ErrUnsupportedExtension)

	rsPath := writeFile(t, "main.rs", "use rand::{;\n")
	require.ErrorIs(t, run("--deps", rsPath), rustdeps.ErrParse)

	okPath := writeFile(t, "ok.rs", "fn main() {}\n")
	require.ErrorIs(t, run("--deps", "--format", "xml", okPath), ErrUnknownFormat)

	require.ErrorIs(t, run("--deps", filepath.Join(t.TempDir(), "missing.rs")), os.ErrNotExist)
	assert.Empty(t, calls)
}

func TestRunScript_UnsupportedExtension(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	var stdout, stderr bytes.Buffer

	err := runScript(context.Background(), RunOptions{}, "notes.xyz", &stdout, &stderr)
	require.ErrorIs(t, err, runner.ErrUnsupportedExtension)
	assert.Contains(t, err.Error(), "unsupported file type: xyz")
	assert.Empty(t, stdout.String())
}

func TestRunScript_Interpreter(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	t.Setenv("HOME", t.TempDir())
	t.Setenv("RUNFILE_PYTHON_INTERPRETER", "sh")

	path := writeFile(t, "hello.py", "echo hello from script\n")

	var stdout, stderr bytes.Buffer

	require.NoError(t, runScript(context.Background(), RunOptions{}, path, &stdout, &stderr))
	assert.Equal(t, "hello from script\n", stdout.String())
}

func TestRunScript_InvalidConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("RUNFILE_LOGGING_LEVEL", "loud")

	err := runScript(context.Background(), RunOptions{}, "main.rs", io.Discard, io.Discard)
	require.ErrorIs(t, err, config.ErrInvalidLogLevel)
}

func TestObservabilityConfig(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		Logging: config.LoggingConfig{Level: "error", Format: config.LogFormatJSON},
		Telemetry: config.TelemetryConfig{
			OTLPEndpoint: "collector:4317",
			OTLPHeaders:  "authorization=token",
			SampleRatio:  0.5,
		},
	}

	quiet := observabilityConfig(cfg, false)
	assert.Equal(t, slog.LevelError, quiet.LogLevel)
	assert.True(t, quiet.LogJSON)
	assert.Equal(t, "collector:4317", quiet.OTLPEndpoint)
	assert.Equal(t, map[string]string{"authorization": "token"}, quiet.OTLPHeaders)
	assert.InDelta(t, 0.5, quiet.SampleRatio, 1e-9)
	assert.False(t, quiet.DebugTrace)

	verbose := observabilityConfig(cfg, true)
	assert.Equal(t, slog.LevelDebug, verbose.LogLevel)
	assert.True(t, verbose.DebugTrace)
}
