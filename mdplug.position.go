package mdplug

import (
	"math"
	"strconv"
	"unicode/utf8"
)

// PositionKind identifies the variant of a Position.
type PositionKind int

const (
	// PositionIndex is an offset relative to the start of the regex match.
	PositionIndex PositionKind = iota
	// PositionLineStart is the start of the line.
	PositionLineStart
	// PositionEol is the end of the line.
	PositionEol
)

// String returns the definition keyword of the kind.
func (k PositionKind) String() string {
	switch k {
	case PositionIndex:
		return "index"
	case PositionLineStart:
		return PositionNameLineStart
	case PositionEol:
		return PositionNameEol
	default:
		return "unknown"
	}
}

// Position is a symbolic reference to a byte offset within a line.
// The zero value is Index(0).
type Position struct {
	kind   PositionKind
	offset int
}

// Index returns a position offset bytes away from the start of the regex match.
func Index(offset int) Position {
	return Position{kind: PositionIndex, offset: offset}
}

// LineStart returns the position at the start of the line.
func LineStart() Position {
	return Position{kind: PositionLineStart}
}

// Eol returns the position at the end of the line.
func Eol() Position {
	return Position{kind: PositionEol}
}

// Kind returns the variant of the position.
func (p Position) Kind() PositionKind {
	return p.kind
}

// Offset returns the relative offset of an Index position, 0 otherwise.
func (p Position) Offset() int {
	if p.kind != PositionIndex {
		return 0
	}
	return p.offset
}

// IsIndex reports whether the position depends on a regex match.
func (p Position) IsIndex() bool {
	return p.kind == PositionIndex
}

// String returns the definition form of the position.
func (p Position) String() string {
	if p.kind == PositionIndex {
		return strconv.Itoa(p.offset)
	}
	return p.kind.String()
}

// MatchOffset is the start of the first regex match in a line, if any.
type MatchOffset struct {
	Start int
	Valid bool
}

// NoMatch is the absent match offset used by functions without a pattern.
var NoMatch = MatchOffset{}

// MatchAt returns a present match offset.
func MatchAt(start int) MatchOffset {
	return MatchOffset{Start: start, Valid: true}
}

// Resolve converts the position into a byte offset within line.
// The result is always a character boundary in [0, len(line)].
func (p Position) Resolve(line string, match MatchOffset) (int, error) {
	return p.resolve(line, match, scope{})
}

func (p Position) resolve(line string, match MatchOffset, sc scope) (int, error) {
	switch p.kind {
	case PositionLineStart:
		return 0, nil
	case PositionEol:
		return len(line), nil
	}

	if !match.Valid {
		return 0, NewEffectIndexGivenWithoutRegexError(sc, p.offset)
	}

	// start + offset without wrapping
	if (p.offset > 0 && match.Start > math.MaxInt-p.offset) ||
		(p.offset < 0 && match.Start < math.MinInt-p.offset) {
		return 0, NewEffectIndexOutOfBoundsError(sc, p.offset, len(line), ReasonOverflow)
	}

	index := match.Start + p.offset
	if index < 0 {
		return 0, NewEffectIndexOutOfBoundsError(sc, index, len(line), ReasonNegative)
	}
	if index > len(line) {
		return 0, NewEffectIndexOutOfBoundsError(sc, index, len(line), ReasonPastEnd)
	}
	if !isCharBoundary(line, index) {
		return 0, NewEffectIndexOutOfBoundsError(sc, index, len(line), ReasonCharBoundary)
	}
	return index, nil
}

// isCharBoundary reports whether i is the first byte of a UTF-8 sequence or
// the end of s.
func isCharBoundary(s string, i int) bool {
	if i == 0 || i == len(s) {
		return true
	}
	return utf8.RuneStart(s[i])
}
