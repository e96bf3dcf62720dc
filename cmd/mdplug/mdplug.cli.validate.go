package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/itsatony/go-mdplug"
	flag "github.com/spf13/pflag"
)

// validateConfig holds parsed validate command configuration
type validateConfig struct {
	pluginsPath string
	format      string
}

// validationOutput represents JSON output for validation
type validationOutput struct {
	Valid   bool                     `json:"valid"`
	Plugins []validationPluginOutput `json:"plugins"`
	Errors  []string                 `json:"errors,omitempty"`
}

type validationPluginOutput struct {
	Name     string                  `json:"name"`
	Rejected bool                    `json:"rejected,omitempty"`
	Loaded   []string                `json:"loaded"`
	Issues   []validationIssueOutput `json:"issues,omitempty"`
}

type validationIssueOutput struct {
	Function string `json:"function,omitempty"`
	Message  string `json:"message"`
}

// validationResult collects the outcome of loading every plugin into a
// scratch manager.
type validationResult struct {
	decodeErr error
	plugins   []pluginValidation
}

type pluginValidation struct {
	report   *mdplug.LoadReport
	rejected error
}

func (r *validationResult) valid() bool {
	if r.decodeErr != nil {
		return false
	}
	for _, p := range r.plugins {
		if p.rejected != nil || len(p.report.Skipped) > 0 {
			return false
		}
	}
	return true
}

func runValidate(args []string, stdout, stderr io.Writer) int {
	cfg, err := parseValidateFlags(args)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgInvalidArguments, err)
		return ExitCodeUsageError
	}

	plugins, decodeErr := loadDefinitions(cfg.pluginsPath)
	if decodeErr != nil && len(plugins) == 0 && !errors.Is(decodeErr, mdplug.ErrInvalidDefinition) {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgReadFileFailed, decodeErr)
		return ExitCodeInputError
	}

	result := validatePlugins(plugins)
	result.decodeErr = decodeErr

	if cfg.format == OutputFormatJSON {
		outputValidationJSON(result, stdout)
	} else {
		outputValidationText(result, stdout)
	}

	if !result.valid() {
		return ExitCodeValidationError
	}
	return ExitCodeSuccess
}

func parseValidateFlags(args []string) (*validateConfig, error) {
	fs := flag.NewFlagSet(CmdNameValidate, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	cfg := &validateConfig{}
	fs.StringVarP(&cfg.pluginsPath, FlagPlugins, FlagPluginsShort, "", "")
	fs.StringVarP(&cfg.format, FlagFormat, FlagFormatShort, FlagDefaultFormat, "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.pluginsPath == "" {
		return nil, errors.New(ErrMsgMissingPlugins)
	}
	if cfg.format != OutputFormatText && cfg.format != OutputFormatJSON {
		return nil, errors.New(ErrMsgInvalidFormat)
	}

	return cfg, nil
}

// validatePlugins loads each plugin on its own so one rejection does not hide
// the reports of the others.
func validatePlugins(plugins []*mdplug.Plugin) *validationResult {
	result := &validationResult{}
	manager := mdplug.MustNew()
	for _, p := range plugins {
		report, err := manager.LoadPlugin(p)
		result.plugins = append(result.plugins, pluginValidation{report: report, rejected: err})
	}
	return result
}

func outputValidationText(r *validationResult, stdout io.Writer) {
	if r.decodeErr != nil {
		for _, err := range decodeErrors(r.decodeErr) {
			fmt.Fprintf(stdout, ValidationTextDecode+FmtNewline, err)
		}
	}

	for _, p := range r.plugins {
		switch {
		case p.rejected != nil:
			fmt.Fprintf(stdout, ValidationTextRejected+FmtNewline, p.report.Plugin, p.rejected)
			continue
		case len(p.report.Skipped) == 0:
			fmt.Fprintf(stdout, ValidationTextValid+FmtNewline, p.report.Plugin, len(p.report.Loaded))
			continue
		}
		fmt.Fprintf(stdout, ValidationTextSkipped+FmtNewline,
			p.report.Plugin, len(p.report.Loaded), len(p.report.Skipped))
		for _, s := range p.report.Skipped {
			fmt.Fprintf(stdout, ValidationTextIssue+FmtNewline, s.Name, s.Err)
		}
	}
}

func outputValidationJSON(r *validationResult, stdout io.Writer) {
	output := validationOutput{
		Valid:   r.valid(),
		Plugins: make([]validationPluginOutput, 0, len(r.plugins)),
	}
	if r.decodeErr != nil {
		for _, err := range decodeErrors(r.decodeErr) {
			output.Errors = append(output.Errors, err.Error())
		}
	}

	for _, p := range r.plugins {
		po := validationPluginOutput{
			Name:     p.report.Plugin,
			Rejected: p.rejected != nil,
			Loaded:   p.report.Loaded,
		}
		if po.Loaded == nil {
			po.Loaded = []string{}
		}
		for _, s := range p.report.Skipped {
			po.Issues = append(po.Issues, validationIssueOutput{
				Function: s.Name,
				Message:  s.Err.Error(),
			})
		}
		output.Plugins = append(output.Plugins, po)
	}

	jsonBytes, _ := json.MarshalIndent(output, "", "  ")
	fmt.Fprintln(stdout, string(jsonBytes))
}

func decodeErrors(err error) []error {
	var list mdplug.ErrorList
	if errors.As(err, &list) {
		return list
	}
	return []error{err}
}
