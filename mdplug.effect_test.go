package mdplug

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestEffect_Insert(t *testing.T) {
	tests := []struct {
		name  string
		pos   Position
		line  string
		match MatchOffset
		want  string
	}{
		{"line start", LineStart(), "hello", NoMatch, "> hello"},
		{"eol", Eol(), "hello", NoMatch, "hello> "},
		{"empty line", Eol(), "", NoMatch, "> "},
		{"relative to match", Index(1), "say hi", MatchAt(4), "say h> i"},
		{"at end via index", Index(2), "say hi", MatchAt(4), "say hi> "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := tt.line
			require.NoError(t, Insert(tt.pos).Apply(&line, tt.match, "> ", nil))
			assert.Equal(t, tt.want, line)
		})
	}
}

func TestEffect_Replace(t *testing.T) {
	tests := []struct {
		name  string
		start Position
		end   Position
		line  string
		match MatchOffset
		want  string
	}{
		{"single char at match", LineStart(), Index(0), "#Title", MatchAt(0), "<h1>Title"},
		{"inclusive range", Index(0), Index(2), "abcdef", MatchAt(1), "a<h1>ef"},
		{"through eol", Index(0), Eol(), "abcdef", MatchAt(3), "abc<h1>"},
		{"whole line", LineStart(), Eol(), "abc", NoMatch, "<h1>"},
		{"empty line", LineStart(), Eol(), "", NoMatch, "<h1>"},
		{"multibyte end removes whole rune", Index(0), Index(0), "éa", MatchAt(0), "<h1>a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := tt.line
			require.NoError(t, Replace(tt.start, tt.end).Apply(&line, tt.match, "<h1>", nil))
			assert.Equal(t, tt.want, line)
		})
	}
}

func TestEffect_ReplaceWholeLineYieldsText(t *testing.T) {
	for _, line := range []string{"a", "hello world", "#Title", "héllo", "tab\tseparated"} {
		got := line
		require.NoError(t, Replace(LineStart(), Eol()).Apply(&got, NoMatch, "s", nil))
		assert.Equal(t, "s", got, "line %q", line)
	}
}

func TestEffect_ReplaceInvertedRange(t *testing.T) {
	line := "abcdef"
	err := Replace(Index(3), Index(1)).Apply(&line, MatchAt(0), "x", nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEffectIndexOutOfBounds))
	reason, _ := ErrorMetadata(err, MetaKeyReason)
	assert.Equal(t, ReasonInvertedRange, reason)
	assert.Equal(t, "abcdef", line)
}

func TestEffect_OutOfBoundsLeavesLine(t *testing.T) {
	line := "a"
	err := Insert(Index(5)).Apply(&line, MatchAt(0), "Z", nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEffectIndexOutOfBounds))
	assert.Equal(t, "a", line)

	index, _ := ErrorMetadata(err, MetaKeyIndex)
	length, _ := ErrorMetadata(err, MetaKeyLength)
	assert.Equal(t, "5", index)
	assert.Equal(t, "1", length)
}

func TestEffect_IndexWithoutMatch(t *testing.T) {
	line := "abc"
	err := Replace(LineStart(), Index(1)).Apply(&line, NoMatch, "x", nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEffectIndexGivenWithoutRegex))
	assert.Equal(t, "abc", line)
}

func TestEffect_Log(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	line := "some line"
	require.NoError(t, Log("heading seen").Apply(&line, NoMatch, "extra", logger))
	require.NoError(t, DebugLog("debug seen").Apply(&line, NoMatch, "more", logger))
	assert.Equal(t, "some line", line)

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)

	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "heading seen", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "extra", fields[LogFieldEffect])
	assert.Equal(t, "some line", fields[LogFieldLine])

	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
	assert.Equal(t, "debug seen", entries[1].Message)
}

func TestEffect_DebugLogFilteredByLevel(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	line := "x"
	require.NoError(t, DebugLog("hidden").Apply(&line, NoMatch, "", logger))
	assert.Equal(t, 0, logs.Len())
}

func TestEffect_LogWithNilLogger(t *testing.T) {
	line := "x"
	assert.NoError(t, Log("nobody listens").Apply(&line, NoMatch, "", nil))
}

func TestArgument_Accessors(t *testing.T) {
	assert.Equal(t, ArgumentReplace, Replace(LineStart(), Eol()).Kind())
	assert.Equal(t, []Position{LineStart(), Eol()}, Replace(LineStart(), Eol()).Positions())
	assert.Nil(t, Log("m").Positions())
	assert.Equal(t, "m", Log("m").Message())
	assert.True(t, Insert(Index(0)).HasIndex())
	assert.False(t, Insert(Eol()).HasIndex())
	assert.Equal(t, EffectKeyDebugLog, ArgumentDebugLog.String())
}
