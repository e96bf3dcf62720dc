package mdplug

import (
	"sync"
	"time"

	"github.com/itsatony/go-mdplug/internal"
	"go.uber.org/zap"
)

// Manager holds an ordered set of plugins and runs them over text.
//
// A Manager is safe for concurrent use. One mutex serializes whole
// transformations and plugin set changes, so a reload never interleaves with
// a transformation.
type Manager struct {
	mu           sync.Mutex
	plugins      []*Plugin
	logger       *zap.Logger
	effectLogger *zap.Logger
	metrics      *Metrics
	patterns     *internal.PatternCache
}

// Result is the outcome of a transformation. Output always holds the
// best-effort text, including partial edits on lines that failed.
type Result struct {
	Output string
	Errors ErrorList
	Lines  int
}

// Err returns the aggregated errors, or nil.
func (r *Result) Err() error {
	return r.Errors.ErrOrNil()
}

// PatternCacheStats is a snapshot of compiled-pattern memo activity.
type PatternCacheStats = internal.PatternCacheStats

// SkippedFunction records a line function left out at load time.
type SkippedFunction struct {
	Name string
	Err  error
}

// LoadReport describes what a load kept and what it skipped.
type LoadReport struct {
	Plugin  string
	Loaded  []string
	Skipped []SkippedFunction
}

// New creates a Manager and loads the plugins passed through WithPlugins.
func New(opts ...Option) (*Manager, error) {
	config := defaultManagerConfig()
	for _, opt := range opts {
		opt(config)
	}

	logger := config.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	effectLogger := config.effectLogger
	if effectLogger == nil {
		effectLogger = logger
	}

	m := &Manager{
		logger:       logger,
		effectLogger: effectLogger,
		metrics:      config.metrics,
		patterns:     internal.NewPatternCache(config.patternCacheSize),
	}

	for _, p := range config.plugins {
		if _, err := m.LoadPlugin(p); err != nil {
			return nil, err
		}
	}

	logger.Debug(LogMsgManagerCreated, zap.Int(LogFieldPlugins, len(m.plugins)))
	return m, nil
}

// MustNew creates a new Manager and panics if there's an error.
func MustNew(opts ...Option) *Manager {
	m, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return m
}

// ExecuteLineFunctions runs every function of every plugin, in plugin order
// then function order, on line. Nothing short-circuits; all errors are
// returned together.
func (m *Manager) ExecuteLineFunctions(line *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.executeLine(line, 0)
}

// Transform splits input into lines, runs every plugin on each line and joins
// the lines back with their original terminators. The manager lock is held
// for the whole input.
func (m *Manager) Transform(input string) *Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transform(input)
}

// TryTransform is like Transform but returns ErrManagerBusy instead of
// waiting when another caller holds the manager.
func (m *Manager) TryTransform(input string) (*Result, error) {
	if !m.mu.TryLock() {
		m.metrics.observeBusy()
		return nil, ErrManagerBusy
	}
	defer m.mu.Unlock()
	return m.transform(input), nil
}

func (m *Manager) transform(input string) *Result {
	start := time.Now()

	lines := internal.SplitLines(input)
	var errs ErrorList
	for i := range lines {
		errs = appendError(errs, m.executeLine(&lines[i].Text, i+1))
	}

	result := &Result{
		Output: internal.JoinLines(lines),
		Errors: errs,
		Lines:  len(lines),
	}

	elapsed := time.Since(start)
	m.metrics.observeTransform(len(lines), errs, elapsed)
	if len(errs) > 0 {
		m.logger.Debug(LogMsgTransformErrors,
			zap.Int(LogFieldLines, len(lines)),
			zap.Int(LogFieldErrors, len(errs)),
			zap.Duration(LogFieldDuration, elapsed))
	} else {
		m.logger.Debug(LogMsgTransformDone,
			zap.Int(LogFieldLines, len(lines)),
			zap.Duration(LogFieldDuration, elapsed))
	}
	return result
}

// executeLine must be called with m.mu held.
func (m *Manager) executeLine(line *string, number int) error {
	sc := scope{line: number, logger: m.effectLogger}

	var errs ErrorList
	for _, p := range m.plugins {
		errs = appendError(errs, p.apply(line, sc))
	}
	return errs.ErrOrNil()
}

// LoadPlugin validates p and appends it to the plugin list.
//
// Invalid functions are skipped and listed in the report, unless
// p.FailOneFailAll is set, in which case the whole plugin is rejected with
// ErrPluginRejected. The loaded plugin is a copy of p sharing its line
// functions. A function not yet loaded anywhere is bound to this manager's
// pattern cache; functions already bound elsewhere keep their cache.
func (m *Manager) LoadPlugin(p *Plugin) (*LoadReport, error) {
	prepared, report, err := m.prepare(p)
	if err != nil {
		return report, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.plugins {
		if existing.Name == prepared.Name {
			m.logger.Warn(LogMsgDuplicatePlugin, zap.String(LogFieldPlugin, prepared.Name))
			break
		}
	}
	m.plugins = append(m.plugins, prepared)
	m.metrics.observePlugins(len(m.plugins), len(report.Skipped))

	m.logger.Info(LogMsgPluginLoaded,
		zap.String(LogFieldPlugin, prepared.Name),
		zap.Int(LogFieldFunctions, len(report.Loaded)),
		zap.Int(LogFieldSkipped, len(report.Skipped)))
	return report, nil
}

// ReplacePlugins validates every plugin and swaps the whole list in one step.
// If any plugin is rejected the current list is kept and all rejections are
// returned.
func (m *Manager) ReplacePlugins(plugins []*Plugin) ([]*LoadReport, error) {
	prepared := make([]*Plugin, 0, len(plugins))
	reports := make([]*LoadReport, 0, len(plugins))
	skipped := 0

	var errs ErrorList
	for _, p := range plugins {
		pp, report, err := m.prepare(p)
		reports = append(reports, report)
		if err != nil {
			errs = appendError(errs, err)
			continue
		}
		prepared = append(prepared, pp)
		skipped += len(report.Skipped)
	}
	if len(errs) > 0 {
		m.metrics.observeReload(false)
		return reports, errs
	}

	seen := make(map[string]struct{}, len(prepared))
	for _, p := range prepared {
		if _, dup := seen[p.Name]; dup {
			m.logger.Warn(LogMsgDuplicatePlugin, zap.String(LogFieldPlugin, p.Name))
		}
		seen[p.Name] = struct{}{}
	}

	m.mu.Lock()
	m.plugins = prepared
	m.mu.Unlock()

	m.metrics.observeReload(true)
	m.metrics.observePlugins(len(prepared), skipped)
	m.logger.Info(LogMsgPluginsReplaced,
		zap.Int(LogFieldPlugins, len(prepared)),
		zap.Int(LogFieldSkipped, skipped))
	return reports, nil
}

// RemovePlugin removes every plugin named name and reports whether any was
// removed.
func (m *Manager) RemovePlugin(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.plugins[:0:0]
	for _, p := range m.plugins {
		if p.Name != name {
			kept = append(kept, p)
		}
	}
	removed := len(kept) != len(m.plugins)
	m.plugins = kept

	if removed {
		m.metrics.observePlugins(len(kept), 0)
		m.logger.Info(LogMsgPluginRemoved, zap.String(LogFieldPlugin, name))
	}
	return removed
}

// PluginNames returns the loaded plugin names in execution order.
func (m *Manager) PluginNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, len(m.plugins))
	for i, p := range m.plugins {
		names[i] = p.Name
	}
	return names
}

// Plugins returns the loaded plugins in execution order.
func (m *Manager) Plugins() []*Plugin {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Plugin(nil), m.plugins...)
}

// PatternCacheStats reports activity of the manager's compiled-pattern memo.
func (m *Manager) PatternCacheStats() PatternCacheStats {
	return m.patterns.Stats()
}

// prepare validates p against the load policy and returns the plugin to
// install. The report is always non-nil.
func (m *Manager) prepare(p *Plugin) (*Plugin, *LoadReport, error) {
	if p == nil {
		return nil, &LoadReport{}, NewNilPluginError()
	}

	report := &LoadReport{Plugin: p.Name}
	prepared := &Plugin{
		Name:           p.Name,
		FailOneFailAll: p.FailOneFailAll,
		LineFunctions:  make([]*LineFunction, 0, len(p.LineFunctions)),
	}

	var errs ErrorList
	for i, lf := range p.LineFunctions {
		if lf == nil {
			err := NewNilLineFunctionError(p.Name, i)
			errs = appendError(errs, err)
			report.Skipped = append(report.Skipped, SkippedFunction{Err: err})
			continue
		}
		lf.bindPatternCache(m.patterns)
		if err := lf.Validate(); err != nil {
			errs = appendError(errs, err)
			report.Skipped = append(report.Skipped, SkippedFunction{Name: lf.Name(), Err: err})
			continue
		}
		prepared.LineFunctions = append(prepared.LineFunctions, lf)
		report.Loaded = append(report.Loaded, lf.Name())
	}

	if len(errs) > 0 && p.FailOneFailAll {
		m.logger.Warn(LogMsgPluginRejected,
			zap.String(LogFieldPlugin, p.Name),
			zap.Error(errs))
		report.Loaded = nil
		return nil, report, NewPluginRejectedError(p.Name, errs)
	}

	for _, s := range report.Skipped {
		m.logger.Warn(LogMsgFunctionSkipped,
			zap.String(LogFieldPlugin, p.Name),
			zap.String(LogFieldFunction, s.Name),
			zap.Error(s.Err))
	}
	return prepared, report, nil
}
