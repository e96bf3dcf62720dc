package main

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/itsatony/go-mdplug"
	flag "github.com/spf13/pflag"
)

type versionOutput struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	GoVersion string `json:"go_version"`
}

func runVersion(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(CmdNameVersion, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	format := fs.StringP(FlagFormat, FlagFormatShort, FlagDefaultFormat, "")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgInvalidArguments, err)
		return ExitCodeUsageError
	}

	v := buildVersion()
	switch *format {
	case OutputFormatJSON:
		out, _ := json.MarshalIndent(v, "", "  ")
		fmt.Fprintln(stdout, string(out))
	case OutputFormatText:
		fmt.Fprintf(stdout, VersionTextTemplate+FmtNewline, v.Version, v.Commit, v.GoVersion)
	default:
		fmt.Fprintf(stderr, FmtErrorWithDetail, ErrMsgInvalidFormat, *format)
		return ExitCodeUsageError
	}
	return ExitCodeSuccess
}

// buildVersion adds the vcs.revision stamped by the go toolchain, if any.
func buildVersion() versionOutput {
	v := versionOutput{Version: mdplug.Version, Commit: VersionUnknown, GoVersion: runtime.Version()}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && s.Value != "" {
				v.Commit = s.Value
			}
		}
	}
	return v
}
