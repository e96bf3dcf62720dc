package mdplug

import (
	"errors"
	"strconv"
	"strings"

	"github.com/itsatony/go-cuserr"
)

// Error message constants - ALL error messages must be constants (NO MAGIC STRINGS)
const (
	// Load errors
	ErrMsgIndexGivenWithoutPattern = "index position given on a line function without a pattern"
	ErrMsgInvalidRegex             = "invalid regex pattern"
	ErrMsgPluginRejected           = "plugin rejected"
	ErrMsgNilPlugin                = "plugin cannot be nil"
	ErrMsgNilLineFunction          = "line function cannot be nil"

	// Execution errors
	ErrMsgEffectIndexOutOfBounds     = "effect index out of bounds"
	ErrMsgEffectIndexGivenWithoutReg = "effect index given without a regex match"
	ErrMsgManagerBusy                = "plugin manager is busy"

	// Aggregation
	ErrMsgMultipleErrors = "errors"
)

// Sentinel errors. Structured errors wrap one of these, so errors.Is works
// through cuserr wrapping and through ErrorList.
var (
	ErrIndexGivenWithoutPattern     = errors.New(ErrMsgIndexGivenWithoutPattern)
	ErrInvalidRegex                 = errors.New(ErrMsgInvalidRegex)
	ErrEffectIndexOutOfBounds       = errors.New(ErrMsgEffectIndexOutOfBounds)
	ErrEffectIndexGivenWithoutRegex = errors.New(ErrMsgEffectIndexGivenWithoutReg)
	ErrManagerBusy                  = errors.New(ErrMsgManagerBusy)
	ErrPluginRejected               = errors.New(ErrMsgPluginRejected)
	ErrNilPlugin                    = errors.New(ErrMsgNilPlugin)
	ErrNilLineFunction              = errors.New(ErrMsgNilLineFunction)
)

// NewIndexGivenWithoutPatternError creates the load error for a relative index
// used by a function that has no pattern.
func NewIndexGivenWithoutPatternError(function string) error {
	return cuserr.WrapStdError(ErrIndexGivenWithoutPattern, ErrCodeLoad, ErrMsgIndexGivenWithoutPattern).
		WithMetadata(MetaKeyPhase, PhaseLoad).
		WithMetadata(MetaKeyFunction, function)
}

// NewLoadInvalidRegexError creates the load error for a pattern the regex engine rejected.
func NewLoadInvalidRegexError(function, pattern string, cause error) error {
	return cuserr.WrapStdError(ErrInvalidRegex, ErrCodeLoad, ErrMsgInvalidRegex).
		WithMetadata(MetaKeyPhase, PhaseLoad).
		WithMetadata(MetaKeyFunction, function).
		WithMetadata(MetaKeyPattern, pattern).
		WithMetadata(MetaKeyDetail, "Regex engine returned an error: "+cause.Error())
}

// NewExecInvalidRegexError creates the execution error for a lazy compilation failure.
func NewExecInvalidRegexError(sc scope, pattern string, cause error) error {
	return sc.annotate(cuserr.WrapStdError(ErrInvalidRegex, ErrCodeExec, ErrMsgInvalidRegex).
		WithMetadata(MetaKeyPhase, PhaseExecution).
		WithMetadata(MetaKeyPattern, pattern).
		WithMetadata(MetaKeyDetail, cause.Error()))
}

// NewEffectIndexOutOfBoundsError creates the execution error for an index that
// does not land inside the line.
func NewEffectIndexOutOfBoundsError(sc scope, index, length int, reason string) error {
	return sc.annotate(cuserr.WrapStdError(ErrEffectIndexOutOfBounds, ErrCodeExec, ErrMsgEffectIndexOutOfBounds).
		WithMetadata(MetaKeyPhase, PhaseExecution).
		WithMetadata(MetaKeyIndex, strconv.Itoa(index)).
		WithMetadata(MetaKeyLength, strconv.Itoa(length)).
		WithMetadata(MetaKeyReason, reason))
}

// NewInvertedRangeError creates the execution error for a replace range whose
// end lies before its start.
func NewInvertedRangeError(sc scope, start, end, length int) error {
	return sc.annotate(cuserr.WrapStdError(ErrEffectIndexOutOfBounds, ErrCodeExec, ErrMsgEffectIndexOutOfBounds).
		WithMetadata(MetaKeyPhase, PhaseExecution).
		WithMetadata(MetaKeyStart, strconv.Itoa(start)).
		WithMetadata(MetaKeyEnd, strconv.Itoa(end)).
		WithMetadata(MetaKeyLength, strconv.Itoa(length)).
		WithMetadata(MetaKeyReason, ReasonInvertedRange))
}

// NewEffectIndexGivenWithoutRegexError creates the execution error for an index
// evaluated without a match offset.
func NewEffectIndexGivenWithoutRegexError(sc scope, offset int) error {
	return sc.annotate(cuserr.WrapStdError(ErrEffectIndexGivenWithoutRegex, ErrCodeExec, ErrMsgEffectIndexGivenWithoutReg).
		WithMetadata(MetaKeyPhase, PhaseExecution).
		WithMetadata(MetaKeyOffset, strconv.Itoa(offset)))
}

// NewPluginRejectedError creates the load error for a plugin refused as a whole.
func NewPluginRejectedError(plugin string, cause error) error {
	return cuserr.WrapStdError(errors.Join(ErrPluginRejected, cause), ErrCodeLoad, ErrMsgPluginRejected).
		WithMetadata(MetaKeyPhase, PhaseLoad).
		WithMetadata(MetaKeyPlugin, plugin)
}

// NewNilPluginError creates the load error for a nil plugin.
func NewNilPluginError() error {
	return cuserr.WrapStdError(ErrNilPlugin, ErrCodeLoad, ErrMsgNilPlugin).
		WithMetadata(MetaKeyPhase, PhaseLoad)
}

// NewNilLineFunctionError creates the load error for a nil entry in a plugin.
func NewNilLineFunctionError(plugin string, position int) error {
	return cuserr.WrapStdError(ErrNilLineFunction, ErrCodeLoad, ErrMsgNilLineFunction).
		WithMetadata(MetaKeyPhase, PhaseLoad).
		WithMetadata(MetaKeyPlugin, plugin).
		WithMetadata(MetaKeyIndex, strconv.Itoa(position))
}

// IsLoadError reports whether err (or the first structured error it wraps)
// belongs to the load-time taxonomy.
func IsLoadError(err error) bool {
	return phaseOf(err) == PhaseLoad
}

// IsExecutionError reports whether err (or the first structured error it wraps)
// belongs to the run-time taxonomy.
func IsExecutionError(err error) bool {
	return phaseOf(err) == PhaseExecution
}

// ErrorMetadata returns a metadata value attached to a structured error.
func ErrorMetadata(err error, key string) (string, bool) {
	var customErr *cuserr.CustomError
	if !errors.As(err, &customErr) {
		return "", false
	}
	return customErr.GetMetadata(key)
}

func phaseOf(err error) string {
	phase, _ := ErrorMetadata(err, MetaKeyPhase)
	return phase
}

// ErrorList aggregates independent failures. It is returned instead of
// stopping at the first error.
type ErrorList []error

// Error implements the error interface.
func (l ErrorList) Error() string {
	switch len(l) {
	case 0:
		return ""
	case 1:
		return l[0].Error()
	}

	var b strings.Builder
	b.WriteString(strconv.Itoa(len(l)))
	b.WriteString(" ")
	b.WriteString(ErrMsgMultipleErrors)
	b.WriteString(": ")
	for i, err := range l {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(err.Error())
	}
	return b.String()
}

// Unwrap exposes the individual errors to errors.Is and errors.As.
func (l ErrorList) Unwrap() []error {
	return l
}

// ErrOrNil returns nil for an empty list, avoiding a typed-nil error.
func (l ErrorList) ErrOrNil() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

// appendError merges err into the list, flattening nested lists.
func appendError(list ErrorList, err error) ErrorList {
	if err == nil {
		return list
	}
	if nested, ok := err.(ErrorList); ok {
		return append(list, nested...)
	}
	return append(list, err)
}
