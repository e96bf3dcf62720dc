package mdplug

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func headingPlugin() *Plugin {
	return &Plugin{
		Name: "core",
		LineFunctions: []*LineFunction{
			newLineFunction("heading", Pattern("^(#).+"), headingEffects()),
		},
	}
}

func quotePlugin() *Plugin {
	return &Plugin{
		Name: "quote",
		LineFunctions: []*LineFunction{
			newLineFunction("quote", Pattern("^>"), []Effect{
				{Argument: Replace(Index(0), Index(0)), Text: "<blockquote>"},
				{Argument: Insert(Eol()), Text: "</blockquote>"},
			}),
		},
	}
}

func TestNew_Defaults(t *testing.T) {
	m, err := New()
	require.NoError(t, err)
	assert.Empty(t, m.PluginNames())

	line := "unchanged"
	require.NoError(t, m.ExecuteLineFunctions(&line))
	assert.Equal(t, "unchanged", line)
}

func TestNew_WithPlugins(t *testing.T) {
	m, err := New(
		WithLogger(zaptest.NewLogger(t)),
		WithPlugins(headingPlugin(), quotePlugin()),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"core", "quote"}, m.PluginNames())
}

func TestNew_RejectedPlugin(t *testing.T) {
	strict := &Plugin{
		Name:           "strict",
		FailOneFailAll: true,
		LineFunctions:  []*LineFunction{newLineFunction("bad", Pattern("["), nil)},
	}

	_, err := New(WithPlugins(strict))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPluginRejected))
	assert.True(t, errors.Is(err, ErrInvalidRegex))

	assert.Panics(t, func() { MustNew(WithPlugins(strict)) })
}

func TestManager_ExecuteLineFunctions(t *testing.T) {
	m := MustNew(WithPlugins(headingPlugin()))

	line := "#Title"
	require.NoError(t, m.ExecuteLineFunctions(&line))
	assert.Equal(t, "<h1>Title</h1>", line)
}

func TestManager_ExecuteLineFunctionsAggregatesAcrossPlugins(t *testing.T) {
	a := &Plugin{Name: "a", LineFunctions: []*LineFunction{
		newLineFunction("a1", Pattern("x"), []Effect{{Argument: Insert(Index(9)), Text: "!"}}),
	}}
	b := &Plugin{Name: "b", LineFunctions: []*LineFunction{
		newLineFunction("b1", Pattern("x"), []Effect{{Argument: Insert(Index(-9)), Text: "!"}}),
		newLineFunction("b2", nil, []Effect{{Argument: Insert(Eol()), Text: "."}}),
	}}
	m := MustNew(WithPlugins(a, b))

	line := "x"
	err := m.ExecuteLineFunctions(&line)

	require.Error(t, err)
	var list ErrorList
	require.True(t, errors.As(err, &list))
	require.Len(t, list, 2)
	p0, _ := ErrorMetadata(list[0], MetaKeyPlugin)
	p1, _ := ErrorMetadata(list[1], MetaKeyPlugin)
	assert.Equal(t, "a", p0)
	assert.Equal(t, "b", p1)
	assert.Equal(t, "x.", line)
}

func TestManager_Transform(t *testing.T) {
	m := MustNew(WithPlugins(headingPlugin(), quotePlugin()))

	result := m.Transform("#Title\n>quoted\nplain")

	require.NoError(t, result.Err())
	assert.Equal(t, 3, result.Lines)
	assert.Equal(t, "<h1>Title</h1>\n<blockquote>quoted</blockquote>\nplain", result.Output)
}

func TestManager_TransformPreservesLineEndings(t *testing.T) {
	m := MustNew(WithPlugins(headingPlugin()))

	result := m.Transform("#A\r\n#B\n\n")

	require.NoError(t, result.Err())
	assert.Equal(t, "<h1>A</h1>\r\n<h1>B</h1>\n\n", result.Output)
	assert.Equal(t, 4, result.Lines)
}

func TestManager_TransformReportsLineNumbers(t *testing.T) {
	far := &Plugin{Name: "far", LineFunctions: []*LineFunction{
		newLineFunction("far", Pattern("^z"), []Effect{{Argument: Insert(Index(5)), Text: "!"}}),
	}}
	m := MustNew(WithPlugins(far))

	result := m.Transform("a\nz\nb\nz")

	require.Len(t, result.Errors, 2)
	l0, _ := ErrorMetadata(result.Errors[0], MetaKeyLine)
	l1, _ := ErrorMetadata(result.Errors[1], MetaKeyLine)
	assert.Equal(t, "2", l0)
	assert.Equal(t, "4", l1)
	assert.Equal(t, "a\nz\nb\nz", result.Output)
}

func TestManager_EffectLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logPlugin := &Plugin{Name: "log", LineFunctions: []*LineFunction{
		newLineFunction("announce", Pattern("^#"), []Effect{
			{Argument: Log("heading found"), Text: "h"},
			{Argument: DebugLog("heading debug"), Text: "d"},
		}),
	}}
	m := MustNew(WithEffectLogger(zap.New(core)), WithPlugins(logPlugin))

	result := m.Transform("plain\n#Head")
	require.NoError(t, result.Err())
	assert.Equal(t, "plain\n#Head", result.Output)

	infos := logs.FilterMessage("heading found").AllUntimed()
	require.Len(t, infos, 1)
	fields := infos[0].ContextMap()
	assert.Equal(t, "log", fields[LogFieldPlugin])
	assert.Equal(t, "announce", fields[LogFieldFunction])
	assert.EqualValues(t, 2, fields[LogFieldLineNumber])
	assert.Equal(t, 1, logs.FilterMessage("heading debug").Len())
}

func TestManager_TryTransformBusy(t *testing.T) {
	metrics := NewMetrics(nil)
	m := MustNew(WithMetrics(metrics), WithPlugins(headingPlugin()))

	m.mu.Lock()
	_, err := m.TryTransform("#x")
	m.mu.Unlock()

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrManagerBusy))

	result, err := m.TryTransform("#x")
	require.NoError(t, err)
	assert.Equal(t, "<h1>x</h1>", result.Output)
}

func TestManager_ConcurrentTransform(t *testing.T) {
	m := MustNew(WithPlugins(headingPlugin()))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := m.Transform("#T\nx")
			assert.Equal(t, "<h1>T</h1>\nx", result.Output)
		}()
	}
	wg.Wait()
}

func TestManager_LoadPluginSkipsInvalidFunctions(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	m := MustNew(WithLogger(zap.New(core)))

	p := &Plugin{Name: "lenient", LineFunctions: []*LineFunction{
		newLineFunction("bad_regex", Pattern("("), nil),
		newLineFunction("ok", nil, []Effect{{Argument: Insert(Eol()), Text: "!"}}),
		newLineFunction("no_pattern", nil, []Effect{{Argument: Insert(Index(0)), Text: "x"}}),
	}}

	report, err := m.LoadPlugin(p)
	require.NoError(t, err)
	assert.Equal(t, "lenient", report.Plugin)
	assert.Equal(t, []string{"ok"}, report.Loaded)
	require.Len(t, report.Skipped, 2)
	assert.Equal(t, "bad_regex", report.Skipped[0].Name)
	assert.True(t, errors.Is(report.Skipped[1].Err, ErrIndexGivenWithoutPattern))
	assert.Equal(t, 2, logs.FilterMessage(LogMsgFunctionSkipped).Len())

	// caller's plugin is left untouched
	assert.Len(t, p.LineFunctions, 3)

	line := "a"
	require.NoError(t, m.ExecuteLineFunctions(&line))
	assert.Equal(t, "a!", line)
}

func TestManager_LoadPluginFailOneFailAll(t *testing.T) {
	m := MustNew(WithPlugins(headingPlugin()))

	p := &Plugin{Name: "strict", FailOneFailAll: true, LineFunctions: []*LineFunction{
		newLineFunction("ok", nil, []Effect{{Argument: Insert(Eol()), Text: "!"}}),
		newLineFunction("bad", Pattern("("), nil),
	}}

	report, err := m.LoadPlugin(p)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPluginRejected))
	assert.True(t, IsLoadError(err))
	assert.Nil(t, report.Loaded)
	assert.Len(t, report.Skipped, 1)
	assert.Equal(t, []string{"core"}, m.PluginNames())
}

func TestManager_LoadNilPlugin(t *testing.T) {
	m := MustNew()
	report, err := m.LoadPlugin(nil)
	require.Error(t, err)
	assert.NotNil(t, report)
	assert.True(t, errors.Is(err, ErrNilPlugin))
}

func TestManager_DuplicateNamesWarn(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	m := MustNew(WithLogger(zap.New(core)), WithPlugins(headingPlugin()))

	_, err := m.LoadPlugin(headingPlugin())
	require.NoError(t, err)

	assert.Equal(t, []string{"core", "core"}, m.PluginNames())
	assert.Equal(t, 1, logs.FilterMessage(LogMsgDuplicatePlugin).Len())

	line := "#x"
	require.NoError(t, m.ExecuteLineFunctions(&line))
	// the second heading function sees "<h1>x</h1>", which does not match
	assert.Equal(t, "<h1>x</h1>", line)
}

func TestManager_ReplacePlugins(t *testing.T) {
	m := MustNew(WithPlugins(headingPlugin()))

	reports, err := m.ReplacePlugins([]*Plugin{quotePlugin()})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, []string{"quote"}, m.PluginNames())
}

func TestManager_ReplacePluginsIsAllOrNothing(t *testing.T) {
	m := MustNew(WithPlugins(headingPlugin()))

	strict := &Plugin{Name: "strict", FailOneFailAll: true, LineFunctions: []*LineFunction{
		newLineFunction("bad", Pattern("("), nil),
	}}
	reports, err := m.ReplacePlugins([]*Plugin{quotePlugin(), strict})

	require.Error(t, err)
	assert.Len(t, reports, 2)
	assert.True(t, errors.Is(err, ErrPluginRejected))
	assert.Equal(t, []string{"core"}, m.PluginNames())
}

func TestManager_RemovePlugin(t *testing.T) {
	m := MustNew(WithPlugins(headingPlugin(), quotePlugin(), headingPlugin()))

	assert.True(t, m.RemovePlugin("core"))
	assert.Equal(t, []string{"quote"}, m.PluginNames())
	assert.False(t, m.RemovePlugin("core"))
	assert.Len(t, m.Plugins(), 1)
}

func TestManager_SharedPatternCache(t *testing.T) {
	m := MustNew(WithPatternCacheSize(8), WithPlugins(headingPlugin(), headingPlugin()))

	stats := m.PatternCacheStats()
	assert.Equal(t, 1, stats.Entries)
	assert.EqualValues(t, 1, stats.Misses)
	assert.EqualValues(t, 1, stats.Hits)
}

func TestManager_SharedFunctionKeepsFirstPatternCache(t *testing.T) {
	lf := newLineFunction("heading", Pattern("^(#).+"), headingEffects())
	p := &Plugin{Name: "core", LineFunctions: []*LineFunction{lf}}

	first := MustNew(WithPlugins(p))
	second := MustNew(WithPlugins(p))

	assert.Same(t, first.patterns, lf.slot.patterns)
	assert.Equal(t, 1, first.PatternCacheStats().Entries)
	assert.Equal(t, 0, second.PatternCacheStats().Entries)

	// both managers still run the shared function
	for _, m := range []*Manager{first, second} {
		result := m.Transform("#Title")
		require.NoError(t, result.Err())
		assert.Equal(t, "<h1>Title</h1>", result.Output)
	}
}
