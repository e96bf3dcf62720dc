package mdplug

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// Definition error messages
const (
	ErrMsgInvalidDefinition   = "invalid plugin definition"
	ErrMsgUnknownFormat       = "unknown definition format"
	ErrMsgDecodeFailed        = "definition decoding failed"
	ErrMsgEncodeFailed        = "definition encoding failed"
	ErrMsgDefinitionTooLarge  = "definition exceeds maximum size"
	ErrMsgMissingPluginName   = "plugin name is required"
	ErrMsgMissingFunctionName = "line function name is required"
	ErrMsgInvalidEffect       = "invalid effect"
	ErrMsgEffectArgumentCount = "effect must set exactly one of insert, replace, log or debug_log"
	ErrMsgReplaceArity        = "replace takes exactly two positions"
	ErrMsgInvalidPosition     = "position must be line_start, eol or an integer offset"
	ErrMsgUnknownKey          = "unknown key"
	ErrMsgReadFailed          = "definition read failed"
)

// ErrInvalidDefinition matches every DefinitionError with errors.Is.
var ErrInvalidDefinition = errors.New(ErrMsgInvalidDefinition)

var (
	errEffectArgumentCount = errors.New(ErrMsgEffectArgumentCount)
	errReplaceArity        = errors.New(ErrMsgReplaceArity)
)

// DefinitionError reports a plugin definition that could not be read or
// decoded. Effect is the 1-based effect number, 0 when not applicable.
type DefinitionError struct {
	Message  string
	Path     string
	Plugin   string
	Function string
	Effect   int
	Cause    error
}

// Error implements the error interface.
func (e *DefinitionError) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = e.Path + ": " + msg
	}
	if e.Plugin != "" {
		msg += " (plugin " + e.Plugin
		if e.Function != "" {
			msg += ", function " + e.Function
		}
		if e.Effect > 0 {
			msg += ", effect " + strconv.Itoa(e.Effect)
		}
		msg += ")"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *DefinitionError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrInvalidDefinition.
func (e *DefinitionError) Is(target error) bool {
	return target == ErrInvalidDefinition
}

type positionValueError struct {
	value any
}

func (e *positionValueError) Error() string {
	return fmt.Sprintf("%s: %v", ErrMsgInvalidPosition, e.value)
}

type unknownKeyError struct {
	key string
}

func (e *unknownKeyError) Error() string {
	return ErrMsgUnknownKey + ": " + e.key
}

// LoadFile reads and decodes one definition file. The format is taken from
// the file extension.
func LoadFile(path string) (*Plugin, error) {
	format, ok := FormatFromPath(path)
	if !ok {
		return nil, &DefinitionError{Path: path, Message: ErrMsgUnknownFormat}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &DefinitionError{Path: path, Message: ErrMsgReadFailed, Cause: err}
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxDefinitionSize+1))
	if err != nil {
		return nil, &DefinitionError{Path: path, Message: ErrMsgReadFailed, Cause: err}
	}

	p, err := DecodePlugin(data, format)
	if err != nil {
		var defErr *DefinitionError
		if errors.As(err, &defErr) {
			defErr.Path = path
			return nil, defErr
		}
		return nil, err
	}
	return p, nil
}

// LoadDir decodes every definition file directly inside dir, in file-name
// order. Files with an unrecognized extension are ignored. All decoding
// failures are returned together; plugins that decoded are still returned.
func LoadDir(dir string) ([]*Plugin, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &DefinitionError{Path: dir, Message: ErrMsgReadFailed, Cause: err}
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := FormatFromPath(entry.Name()); ok {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	plugins := make([]*Plugin, 0, len(names))
	var errs ErrorList
	for _, name := range names {
		p, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			errs = appendError(errs, err)
			continue
		}
		plugins = append(plugins, p)
	}
	return plugins, errs.ErrOrNil()
}

// LoadDir replaces the manager's plugins with the definitions in dir. Nothing
// is swapped when any file fails to decode or any plugin is rejected.
func (m *Manager) LoadDir(dir string) ([]*LoadReport, error) {
	plugins, err := LoadDir(dir)
	if err != nil {
		m.metrics.observeReload(false)
		return nil, err
	}
	return m.ReplacePlugins(plugins)
}
