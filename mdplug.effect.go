package mdplug

import (
	"strconv"
	"unicode/utf8"

	"github.com/itsatony/go-cuserr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ArgumentKind identifies the variant of a PositionArgument.
type ArgumentKind int

const (
	ArgumentInsert ArgumentKind = iota
	ArgumentReplace
	ArgumentLog
	ArgumentDebugLog
)

// String returns the definition key of the kind.
func (k ArgumentKind) String() string {
	switch k {
	case ArgumentInsert:
		return EffectKeyInsert
	case ArgumentReplace:
		return EffectKeyReplace
	case ArgumentLog:
		return EffectKeyLog
	case ArgumentDebugLog:
		return EffectKeyDebugLog
	default:
		return "unknown"
	}
}

// PositionArgument describes where and how an effect acts on a line.
// Values are immutable once constructed.
type PositionArgument struct {
	kind    ArgumentKind
	at      Position
	end     Position
	message string
}

// Insert places the effect text at p.
func Insert(p Position) PositionArgument {
	return PositionArgument{kind: ArgumentInsert, at: p}
}

// Replace substitutes the inclusive span [start, end] with the effect text.
func Replace(start, end Position) PositionArgument {
	return PositionArgument{kind: ArgumentReplace, at: start, end: end}
}

// Log emits message at info level on the effect logger.
func Log(message string) PositionArgument {
	return PositionArgument{kind: ArgumentLog, message: message}
}

// DebugLog emits message at debug level on the effect logger.
func DebugLog(message string) PositionArgument {
	return PositionArgument{kind: ArgumentDebugLog, message: message}
}

// Kind returns the variant of the argument.
func (a PositionArgument) Kind() ArgumentKind {
	return a.kind
}

// Positions returns the positions the argument refers to.
func (a PositionArgument) Positions() []Position {
	switch a.kind {
	case ArgumentInsert:
		return []Position{a.at}
	case ArgumentReplace:
		return []Position{a.at, a.end}
	default:
		return nil
	}
}

// Message returns the literal message of a Log or DebugLog argument.
func (a PositionArgument) Message() string {
	return a.message
}

// HasIndex reports whether any position of the argument is match relative.
func (a PositionArgument) HasIndex() bool {
	for _, p := range a.Positions() {
		if p.IsIndex() {
			return true
		}
	}
	return false
}

// Apply performs the argument on line with text. logger receives Log and
// DebugLog output and may be nil.
func (a PositionArgument) Apply(line *string, match MatchOffset, text string, logger *zap.Logger) error {
	return a.apply(line, match, text, scope{logger: logger})
}

func (a PositionArgument) apply(line *string, match MatchOffset, text string, sc scope) error {
	switch a.kind {
	case ArgumentInsert:
		at, err := a.at.resolve(*line, match, sc)
		if err != nil {
			return err
		}
		*line = (*line)[:at] + text + (*line)[at:]
		return nil

	case ArgumentReplace:
		start, err := a.at.resolve(*line, match, sc)
		if err != nil {
			return err
		}
		end, err := a.end.resolve(*line, match, sc)
		if err != nil {
			return err
		}
		if end < start {
			return NewInvertedRangeError(sc, start, end, len(*line))
		}
		// the character starting at end is part of the span
		if end < len(*line) {
			_, size := utf8.DecodeRuneInString((*line)[end:])
			end += size
		}
		*line = (*line)[:start] + text + (*line)[end:]
		return nil

	case ArgumentLog:
		sc.emit(zap.InfoLevel, a.message, text, *line)
		return nil

	case ArgumentDebugLog:
		sc.emit(zap.DebugLevel, a.message, text, *line)
		return nil
	}
	return nil
}

// Effect pairs a position argument with the literal text it inserts, replaces
// with, or logs alongside.
type Effect struct {
	Argument PositionArgument
	Text     string
}

// scope carries the execution context attached to errors and log output.
type scope struct {
	plugin   string
	function string
	line     int
	logger   *zap.Logger
}

func (sc scope) annotate(ce *cuserr.CustomError) error {
	if sc.plugin != "" {
		ce = ce.WithMetadata(MetaKeyPlugin, sc.plugin)
	}
	if sc.function != "" {
		ce = ce.WithMetadata(MetaKeyFunction, sc.function)
	}
	if sc.line > 0 {
		ce = ce.WithMetadata(MetaKeyLine, strconv.Itoa(sc.line))
	}
	return ce
}

func (sc scope) emit(level zapcore.Level, message, text, line string) {
	if sc.logger == nil {
		return
	}
	entry := sc.logger.Check(level, message)
	if entry == nil {
		return
	}
	fields := make([]zap.Field, 0, 5)
	fields = append(fields, zap.String(LogFieldEffect, text), zap.String(LogFieldLine, line))
	if sc.plugin != "" {
		fields = append(fields, zap.String(LogFieldPlugin, sc.plugin))
	}
	if sc.function != "" {
		fields = append(fields, zap.String(LogFieldFunction, sc.function))
	}
	if sc.line > 0 {
		fields = append(fields, zap.Int(LogFieldLineNumber, sc.line))
	}
	entry.Write(fields...)
}
