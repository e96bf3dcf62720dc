package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/itsatony/go-mdplug"
	"github.com/itsatony/go-mdplug/internal"
	flag "github.com/spf13/pflag"
)

// runConfig holds parsed run command configuration
type runConfig struct {
	pluginsPath string
	inputPath   string
	outputPath  string
	html        bool
	title       string
	format      string
	verbose     bool
	quiet       bool
}

// runErrorOutput represents JSON output for transformation errors
type runErrorOutput struct {
	Lines  int              `json:"lines"`
	Errors []runErrorDetail `json:"errors"`
}

type runErrorDetail struct {
	Message  string `json:"message"`
	Plugin   string `json:"plugin,omitempty"`
	Function string `json:"function,omitempty"`
	Line     string `json:"line,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

func runTransform(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := parseRunFlags(args)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgInvalidArguments, err)
		return ExitCodeUsageError
	}

	logger, err := newLogger(stderr, cfg.verbose, cfg.quiet)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgLoggerInitFailed, err)
		return ExitCodeUsageError
	}
	defer func() { _ = logger.Sync() }()

	plugins, err := loadDefinitions(cfg.pluginsPath)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgLoadPluginsFailed, err)
		return ExitCodeValidationError
	}

	manager, err := mdplug.New(mdplug.WithLogger(logger), mdplug.WithPlugins(plugins...))
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgManagerInitFailed, err)
		return ExitCodeValidationError
	}

	source, err := readInput(cfg.inputPath, stdin)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgReadFileFailed, err)
		return ExitCodeInputError
	}

	result := manager.Transform(string(source))

	output := result.Output
	if cfg.html {
		output, err = internal.NewPreviewer().Document(context.Background(), cfg.title, output)
		if err != nil {
			fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgPreviewFailed, err)
			return ExitCodeError
		}
	}

	if err := writeOutput(cfg.outputPath, []byte(output), stdout); err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgWriteOutputFailed, err)
		return ExitCodeError
	}

	if len(result.Errors) == 0 {
		return ExitCodeSuccess
	}
	if cfg.format == OutputFormatJSON {
		reportRunErrorsJSON(result, stderr)
	} else {
		reportRunErrorsText(result, stderr)
	}
	return ExitCodeTransformError
}

func parseRunFlags(args []string) (*runConfig, error) {
	fs := flag.NewFlagSet(CmdNameRun, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	cfg := &runConfig{}
	fs.StringVarP(&cfg.pluginsPath, FlagPlugins, FlagPluginsShort, "", "")
	fs.StringVarP(&cfg.inputPath, FlagInput, FlagInputShort, FlagDefaultInput, "")
	fs.StringVarP(&cfg.outputPath, FlagOutput, FlagOutputShort, FlagDefaultOutput, "")
	fs.BoolVar(&cfg.html, FlagHTML, false, "")
	fs.StringVar(&cfg.title, FlagTitle, FlagDefaultTitle, "")
	fs.StringVarP(&cfg.format, FlagFormat, FlagFormatShort, FlagDefaultFormat, "")
	fs.BoolVarP(&cfg.verbose, FlagVerbose, FlagVerboseShort, false, "")
	fs.BoolVarP(&cfg.quiet, FlagQuiet, FlagQuietShort, false, "")

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

func reportRunErrorsText(result *mdplug.Result, stderr io.Writer) {
	fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgTransformErrors, len(result.Errors))
	for _, err := range result.Errors {
		fmt.Fprintf(stderr, ValidationTextIssue+FmtNewline, lineLabel(err), err)
	}
}

func reportRunErrorsJSON(result *mdplug.Result, stderr io.Writer) {
	output := runErrorOutput{
		Lines:  result.Lines,
		Errors: make([]runErrorDetail, 0, len(result.Errors)),
	}
	for _, err := range result.Errors {
		detail := runErrorDetail{Message: err.Error()}
		detail.Plugin, _ = mdplug.ErrorMetadata(err, mdplug.MetaKeyPlugin)
		detail.Function, _ = mdplug.ErrorMetadata(err, mdplug.MetaKeyFunction)
		detail.Line, _ = mdplug.ErrorMetadata(err, mdplug.MetaKeyLine)
		detail.Reason, _ = mdplug.ErrorMetadata(err, mdplug.MetaKeyReason)
		output.Errors = append(output.Errors, detail)
	}

	jsonBytes, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgJSONMarshalFailed, err)
		return
	}
	fmt.Fprintln(stderr, string(jsonBytes))
}

func lineLabel(err error) string {
	if line, ok := mdplug.ErrorMetadata(err, mdplug.MetaKeyLine); ok {
		return "line " + line
	}
	return "-"
}
