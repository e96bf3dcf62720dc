package main

import "time"

// Command names
const (
	CmdNameRun      = "run"
	CmdNameValidate = "validate"
	CmdNameServe    = "serve"
	CmdNameVersion  = "version"
	CmdNameHelp     = "help"
)

// Flag names - long form
const (
	FlagPlugins     = "plugins"
	FlagInput       = "input"
	FlagOutput      = "output"
	FlagHTML        = "html"
	FlagTitle       = "title"
	FlagFormat      = "format"
	FlagVerbose     = "verbose"
	FlagQuiet       = "quiet"
	FlagAddr        = "addr"
	FlagWatch       = "watch"
	FlagDebounce    = "debounce"
	FlagStorage     = "storage"
	FlagDSN         = "dsn"
	FlagNonBlocking = "non-blocking"
)

// Flag names - short form
const (
	FlagPluginsShort = "p"
	FlagInputShort   = "i"
	FlagOutputShort  = "o"
	FlagFormatShort  = "F"
	FlagVerboseShort = "v"
	FlagQuietShort   = "q"
	FlagWatchShort   = "w"
)

// Flag default values
const (
	FlagDefaultInput    = "-" // stdin
	FlagDefaultOutput   = "-" // stdout
	FlagDefaultFormat   = "text"
	FlagDefaultAddr     = ":8080"
	FlagDefaultTitle    = "Preview"
	FlagDefaultDebounce = 500 * time.Millisecond
)

// Output formats
const (
	OutputFormatText = "text"
	OutputFormatJSON = "json"
)

// Exit codes
const (
	ExitCodeSuccess         = 0
	ExitCodeError           = 1
	ExitCodeUsageError      = 2
	ExitCodeValidationError = 3
	ExitCodeInputError      = 4
	ExitCodeTransformError  = 5
)

// Input source indicators
const (
	InputSourceStdin = "-"
)

// Error messages - ALL must be constants
const (
	ErrMsgUnknownCommand     = "unknown command"
	ErrMsgInvalidArguments   = "invalid arguments"
	ErrMsgMissingPlugins     = "plugin definitions required"
	ErrMsgInvalidFormat      = "invalid output format"
	ErrMsgReadFileFailed     = "failed to read file"
	ErrMsgWriteOutputFailed  = "failed to write output"
	ErrMsgLoadPluginsFailed  = "failed to load plugins"
	ErrMsgTransformErrors    = "transformation reported errors"
	ErrMsgPreviewFailed      = "failed to render HTML preview"
	ErrMsgStorageOpenFailed  = "failed to open storage"
	ErrMsgWatcherFailed      = "failed to start watcher"
	ErrMsgServeFailed        = "http host failed"
	ErrMsgFlagsConflict      = "--plugins and --storage are mutually exclusive"
	ErrMsgWatchNeedsDir      = "--watch requires --plugins to be a directory"
	ErrMsgQuietVerbose       = "--quiet and --verbose are mutually exclusive"
	ErrMsgLoggerInitFailed   = "failed to initialize logger"
	ErrMsgManagerInitFailed  = "failed to create plugin manager"
	ErrMsgJSONMarshalFailed  = "failed to marshal JSON"
	ErrMsgValidationRejected = "plugin rejected"
)

// Help text templates
const (
	HelpMainUsage = `go-mdplug - Declarative line transformation for markdown

Usage:
    mdplug <command> [options]

Commands:
    run         Transform input with a set of plugins
    validate    Check plugin definitions
    serve       Serve transformations over HTTP
    version     Show version information
    help        Show help for a command

Use "mdplug help <command>" for more information about a command.`

	HelpRunUsage = `Transform input with a set of plugins

Usage:
    mdplug run [options]

Options:
    -p, --plugins <path>    Definition file or directory (.yaml, .yml, .json, .toml)
    -i, --input <file>      Input file (default: stdin)
    -o, --output <file>     Output file (default: stdout)
    --html                  Render the transformed markdown to an HTML document
    --title <text>          HTML document title (default: Preview)
    -F, --format <format>   Error report format: text, json (default: text)
    -v, --verbose           Log debug output, including debug_log effects
    -q, --quiet             Only log errors

Examples:
    mdplug run -p examples/plugins -i notes.md
    cat notes.md | mdplug run -p core.yaml --html -o notes.html`

	HelpValidateUsage = `Check plugin definitions

Usage:
    mdplug validate [options]

Options:
    -p, --plugins <path>    Definition file or directory
    -F, --format <format>   Output format: text, json (default: text)

Examples:
    mdplug validate -p examples/plugins
    mdplug validate -p core.yaml -F json`

	HelpServeUsage = `Serve transformations over HTTP

Usage:
    mdplug serve [options]

Options:
    -p, --plugins <path>    Definition file or directory
    --storage <driver>      Load definitions from a storage driver (memory, postgres)
    --dsn <string>          Storage connection string
    --addr <addr>           Listen address (default: :8080)
    -w, --watch             Reload when the plugin directory changes
    --debounce <duration>   Quiet period before a reload (default: 500ms)
    --non-blocking          Answer 503 instead of waiting while busy
    -v, --verbose           Log debug output
    -q, --quiet             Only log errors

Endpoints:
    POST /v1/transform         {"input": "...", "preview": false}
    GET  /v1/plugins
    POST /v1/plugins/reload
    GET  /healthz
    GET  /metrics`

	HelpVersionUsage = `Show version information

Usage:
    mdplug version [options]

Options:
    -F, --format <format>   Output format: text, json (default: text)`

	HelpHelpUsage = `Show help for a command

Usage:
    mdplug help [command]

Commands:
    run         Show help for run command
    validate    Show help for validate command
    serve       Show help for serve command
    version     Show help for version command`
)

// Version output format templates
const (
	VersionTextTemplate = "go-mdplug version %s\nCommit: %s\nGo: %s"
	VersionUnknown      = "unknown"
)

// Validation output format templates
const (
	ValidationTextValid    = "%s: valid (%d functions)"
	ValidationTextSkipped  = "%s: %d loaded, %d skipped"
	ValidationTextIssue    = "  - %s: %v"
	ValidationTextRejected = "%s: rejected: %v"
	ValidationTextDecode   = "decode error: %v"
)

// CLI metadata
const (
	CLIName        = "mdplug"
	CLIDescription = "Declarative line transformation for markdown"
)

// File permission constant
const (
	FilePermissions = 0644
)

// Format string constants
const (
	FmtErrorWithDetail = "%s: %s\n"
	FmtErrorWithCause  = "%s: %v\n"
	FmtNewline         = "\n"
)

// Server timeouts
const (
	ServerReadHeaderTimeout = 5 * time.Second
	ServerShutdownTimeout   = 10 * time.Second
)
