package mdplug

import "time"

// Position keywords used in plugin definitions
const (
	PositionNameLineStart = "line_start"
	PositionNameEol       = "eol"
)

// Effect keys used in plugin definitions
const (
	EffectKeyInsert   = "insert"
	EffectKeyReplace  = "replace"
	EffectKeyLog      = "log"
	EffectKeyDebugLog = "debug_log"
	EffectKeyText     = "text"
)

// Error phases recorded under MetaKeyPhase
const (
	PhaseLoad      = "load"
	PhaseExecution = "execution"
)

// Error code constants for categorization
const (
	ErrCodeLoad       = "MDPLUG_LOAD"
	ErrCodeExec       = "MDPLUG_EXEC"
	ErrCodeDefinition = "MDPLUG_DEFINITION"
)

// Metadata keys for cuserr.WithMetadata
const (
	MetaKeyPhase      = "phase"
	MetaKeyPlugin     = "plugin"
	MetaKeyFunction   = "function"
	MetaKeyLine       = "line"
	MetaKeyPattern    = "pattern"
	MetaKeyDetail     = "detail"
	MetaKeyIndex      = "index"
	MetaKeyLength     = "length"
	MetaKeyStart      = "start"
	MetaKeyEnd        = "end"
	MetaKeyMatchStart = "match_start"
	MetaKeyOffset     = "offset"
	MetaKeyReason     = "reason"
)

// Bounds failure reasons recorded under MetaKeyReason
const (
	ReasonNegative      = "negative"
	ReasonPastEnd       = "past_end"
	ReasonOverflow      = "overflow"
	ReasonCharBoundary  = "not_char_boundary"
	ReasonInvertedRange = "inverted_range"
)

// Log message constants
const (
	LogMsgManagerCreated     = "plugin manager created"
	LogMsgPluginLoaded       = "plugin loaded"
	LogMsgPluginRejected     = "plugin rejected"
	LogMsgPluginRemoved      = "plugin removed"
	LogMsgPluginsReplaced    = "plugins replaced"
	LogMsgDuplicatePlugin    = "duplicate plugin name"
	LogMsgFunctionSkipped    = "line function skipped"
	LogMsgTransformDone      = "transform completed"
	LogMsgTransformErrors    = "transform completed with errors"
	LogMsgWatcherStarted     = "plugin watcher started"
	LogMsgWatcherStopped     = "plugin watcher stopped"
	LogMsgWatcherReload      = "plugin directory reloaded"
	LogMsgWatcherReloadFail  = "plugin directory reload failed"
	LogMsgWatcherError       = "plugin watcher error"
	LogMsgWatcherEvent       = "plugin directory changed"
	LogMsgHTTPListening      = "http host listening"
	LogMsgHTTPStopped        = "http host stopped"
	LogMsgHTTPRequestFailed  = "http request failed"
	LogMsgStorageLoadedEntry = "stored plugin decoded"
)

// Log field constants
const (
	LogFieldPlugin     = "plugin"
	LogFieldFunction   = "function"
	LogFieldLine       = "line"
	LogFieldLineNumber = "line_number"
	LogFieldEffect     = "effect"
	LogFieldMessage    = "message"
	LogFieldError      = "error"
	LogFieldLines      = "lines"
	LogFieldErrors     = "errors"
	LogFieldFunctions  = "functions"
	LogFieldSkipped    = "skipped"
	LogFieldPlugins    = "plugins"
	LogFieldDir        = "dir"
	LogFieldPath       = "path"
	LogFieldDuration   = "duration"
	LogFieldVersion    = "version"
	LogFieldAddr       = "addr"
	LogFieldMethod     = "method"
	LogFieldStatus     = "status"
	LogFieldOp         = "op"
)

// Defaults
const (
	// DefaultPatternCacheSize bounds the shared compiled-pattern memo.
	DefaultPatternCacheSize = 256

	// DefaultWatchDebounce matches the editor's input debounce.
	DefaultWatchDebounce = 500 * time.Millisecond

	// MaxDefinitionSize limits a single plugin definition document (1MB).
	MaxDefinitionSize = 1 << 20
)
