package mdplug

import "go.uber.org/zap"

// Plugin is a named, ordered collection of line functions.
type Plugin struct {
	Name string

	// FailOneFailAll rejects the whole plugin at load time when any of its
	// functions is invalid. Otherwise invalid functions are skipped.
	FailOneFailAll bool

	LineFunctions []*LineFunction
}

// FunctionNames returns the names of the plugin's functions in order.
func (p *Plugin) FunctionNames() []string {
	names := make([]string, 0, len(p.LineFunctions))
	for _, lf := range p.LineFunctions {
		if lf != nil {
			names = append(names, lf.Name())
		}
	}
	return names
}

// Apply runs every function in order on line and returns all of their
// errors. logger receives Log and DebugLog output and may be nil.
func (p *Plugin) Apply(line *string, logger *zap.Logger) error {
	return p.apply(line, scope{logger: logger})
}

func (p *Plugin) apply(line *string, sc scope) error {
	sc.plugin = p.Name

	var errs ErrorList
	for _, lf := range p.LineFunctions {
		if lf == nil {
			continue
		}
		errs = appendError(errs, lf.apply(line, sc))
	}
	return errs.ErrOrNil()
}

// Validate checks every function and returns all failures.
func (p *Plugin) Validate() error {
	var errs ErrorList
	for i, lf := range p.LineFunctions {
		if lf == nil {
			errs = appendError(errs, NewNilLineFunctionError(p.Name, i))
			continue
		}
		errs = appendError(errs, lf.Validate())
	}
	return errs.ErrOrNil()
}
