package mdplug

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPosition_Constructors(t *testing.T) {
	assert.Equal(t, PositionLineStart, LineStart().Kind())
	assert.Equal(t, PositionEol, Eol().Kind())

	p := Index(-3)
	assert.Equal(t, PositionIndex, p.Kind())
	assert.Equal(t, -3, p.Offset())
	assert.True(t, p.IsIndex())
	assert.False(t, Eol().IsIndex())
	assert.Equal(t, 0, LineStart().Offset())
}

func TestPosition_String(t *testing.T) {
	assert.Equal(t, PositionNameLineStart, LineStart().String())
	assert.Equal(t, PositionNameEol, Eol().String())
	assert.Equal(t, "4", Index(4).String())
	assert.Equal(t, "index", PositionIndex.String())
}

func TestPosition_Resolve(t *testing.T) {
	tests := []struct {
		name   string
		pos    Position
		line   string
		match  MatchOffset
		want   int
		reason string
		noRe   bool
	}{
		{name: "line start", pos: LineStart(), line: "hello", match: NoMatch, want: 0},
		{name: "eol", pos: Eol(), line: "hello", match: NoMatch, want: 5},
		{name: "eol empty line", pos: Eol(), line: "", match: NoMatch, want: 0},
		{name: "keywords ignore match", pos: Eol(), line: "abc", match: MatchAt(2), want: 3},
		{name: "index at match", pos: Index(0), line: "xxabc", match: MatchAt(2), want: 2},
		{name: "positive offset", pos: Index(2), line: "xxabc", match: MatchAt(2), want: 4},
		{name: "negative offset", pos: Index(-2), line: "xxabc", match: MatchAt(2), want: 0},
		{name: "exactly length", pos: Index(3), line: "xxabc", match: MatchAt(2), want: 5},
		{name: "past end", pos: Index(5), line: "a", match: MatchAt(0), reason: ReasonPastEnd},
		{name: "before start", pos: Index(-3), line: "xxabc", match: MatchAt(2), reason: ReasonNegative},
		{name: "overflow", pos: Index(math.MaxInt), line: "xxabc", match: MatchAt(2), reason: ReasonOverflow},
		{name: "underflow", pos: Index(math.MinInt), line: "xxabc", match: MatchAt(-1), reason: ReasonOverflow},
		{name: "inside multibyte", pos: Index(1), line: "éa", match: MatchAt(0), reason: ReasonCharBoundary},
		{name: "after multibyte", pos: Index(2), line: "éa", match: MatchAt(0), want: 2},
		{name: "index without match", pos: Index(0), line: "abc", match: NoMatch, noRe: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.pos.Resolve(tt.line, tt.match)
			switch {
			case tt.noRe:
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrEffectIndexGivenWithoutRegex))
				assert.True(t, IsExecutionError(err))
			case tt.reason != "":
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrEffectIndexOutOfBounds))
				reason, ok := ErrorMetadata(err, MetaKeyReason)
				assert.True(t, ok)
				assert.Equal(t, tt.reason, reason)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestPosition_ResolveDoesNotTouchLine(t *testing.T) {
	line := "abc"
	_, err := Index(10).Resolve(line, MatchAt(0))
	require.Error(t, err)
	assert.Equal(t, "abc", line)
}
