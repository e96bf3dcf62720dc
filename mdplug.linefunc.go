package mdplug

import (
	"regexp"
	"sync"

	"github.com/itsatony/go-mdplug/internal"
	"go.uber.org/zap"
)

// defaultPatterns backs line functions that are not bound to a Manager.
var defaultPatterns = internal.NewPatternCache(DefaultPatternCacheSize)

// Pattern returns a pointer to s, for use as the optional pattern argument
// of NewLineFunction.
func Pattern(s string) *string {
	return &s
}

// LineFunction matches a line against an optional pattern and applies its
// effects relative to the first match.
//
// The definition (name, pattern, effects) is immutable. The compiled matcher
// lives in a separate slot that is filled on first use and reused afterwards;
// it never takes part in encoding.
type LineFunction struct {
	name    string
	pattern *string
	effects []Effect

	slot matcherSlot
}

type matcherSlot struct {
	mu       sync.Mutex
	re       *regexp.Regexp
	patterns *internal.PatternCache
}

// NewLineFunction creates a line function and validates it. A pattern, when
// given, is compiled immediately.
func NewLineFunction(name string, pattern *string, effects []Effect) (*LineFunction, error) {
	lf := newLineFunction(name, pattern, effects)
	if err := lf.Validate(); err != nil {
		return nil, err
	}
	return lf, nil
}

// MustNewLineFunction is like NewLineFunction but panics on error.
func MustNewLineFunction(name string, pattern *string, effects []Effect) *LineFunction {
	lf, err := NewLineFunction(name, pattern, effects)
	if err != nil {
		panic(err)
	}
	return lf
}

// newLineFunction builds an unvalidated function with an empty matcher slot.
func newLineFunction(name string, pattern *string, effects []Effect) *LineFunction {
	lf := &LineFunction{
		name:    name,
		effects: append([]Effect(nil), effects...),
	}
	if pattern != nil {
		p := *pattern
		lf.pattern = &p
	}
	return lf
}

// Name returns the function name.
func (lf *LineFunction) Name() string {
	return lf.name
}

// Pattern returns the pattern source and whether one is set.
func (lf *LineFunction) Pattern() (string, bool) {
	if lf.pattern == nil {
		return "", false
	}
	return *lf.pattern, true
}

// Effects returns a copy of the ordered effects.
func (lf *LineFunction) Effects() []Effect {
	return append([]Effect(nil), lf.effects...)
}

// Compiled reports whether the matcher slot has been filled.
func (lf *LineFunction) Compiled() bool {
	lf.slot.mu.Lock()
	defer lf.slot.mu.Unlock()
	return lf.slot.re != nil
}

// Validate runs the construction checks. Without a pattern no effect may use
// an Index position; with one, the pattern must compile, and the compiled
// matcher is kept.
func (lf *LineFunction) Validate() error {
	if lf.pattern == nil {
		for _, e := range lf.effects {
			if e.Argument.HasIndex() {
				return NewIndexGivenWithoutPatternError(lf.name)
			}
		}
		return nil
	}

	lf.slot.mu.Lock()
	defer lf.slot.mu.Unlock()
	if lf.slot.re != nil {
		return nil
	}
	re, err := lf.slot.cache().Compile(*lf.pattern)
	if err != nil {
		return NewLoadInvalidRegexError(lf.name, *lf.pattern, err)
	}
	lf.slot.re = re
	return nil
}

// Apply runs the function on line. The line is mutated in place and keeps
// every successful edit even when other effects fail. logger receives Log and
// DebugLog output and may be nil.
func (lf *LineFunction) Apply(line *string, logger *zap.Logger) error {
	return lf.apply(line, scope{logger: logger})
}

func (lf *LineFunction) apply(line *string, sc scope) error {
	sc.function = lf.name

	re, err := lf.matcher(sc)
	if err != nil {
		return ErrorList{err}
	}

	match := NoMatch
	if re != nil {
		loc := re.FindStringIndex(*line)
		if loc == nil {
			return nil
		}
		match = MatchAt(loc[0])
	}

	// offsets are resolved against the match found above, even after earlier
	// effects have moved text around
	var errs ErrorList
	for _, e := range lf.effects {
		errs = appendError(errs, e.Argument.apply(line, match, e.Text, sc))
	}
	return errs.ErrOrNil()
}

// matcher returns the compiled pattern, compiling it on first use. A function
// without a pattern has no matcher.
func (lf *LineFunction) matcher(sc scope) (*regexp.Regexp, error) {
	if lf.pattern == nil {
		return nil, nil
	}

	lf.slot.mu.Lock()
	defer lf.slot.mu.Unlock()
	if lf.slot.re != nil {
		return lf.slot.re, nil
	}
	re, err := lf.slot.cache().Compile(*lf.pattern)
	if err != nil {
		return nil, NewExecInvalidRegexError(sc, *lf.pattern, err)
	}
	lf.slot.re = re
	return re, nil
}

// bindPatternCache makes later compilations go through c unless the
// function is already bound to a cache. The first Manager to load a function
// owns its compilations.
func (lf *LineFunction) bindPatternCache(c *internal.PatternCache) {
	lf.slot.mu.Lock()
	if lf.slot.patterns == nil {
		lf.slot.patterns = c
	}
	lf.slot.mu.Unlock()
}

func (s *matcherSlot) cache() *internal.PatternCache {
	if s.patterns != nil {
		return s.patterns
	}
	return defaultPatterns
}
