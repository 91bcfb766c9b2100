package config

// Cache defaults.
const (
	DefaultCacheDirName = ".run_cache"
)

// Rust backend defaults.
const (
	DefaultCargoBinary = "cargo"
	DefaultPackageName = "run_script"
	DefaultRelease     = false
)

// Python backend defaults.
const (
	DefaultPythonInterpreter = "python3"
)

// Logging defaults.
const (
	DefaultLogLevel  = "warn"
	DefaultLogFormat = LogFormatText
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)
