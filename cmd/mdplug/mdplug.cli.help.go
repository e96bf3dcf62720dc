package main

import (
	"fmt"
	"io"
)

var usages = map[string]string{
	CmdNameRun:      HelpRunUsage,
	CmdNameValidate: HelpValidateUsage,
	CmdNameServe:    HelpServeUsage,
	CmdNameVersion:  HelpVersionUsage,
	CmdNameHelp:     HelpHelpUsage,
}

func runHelp(args []string, stdout io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stdout, HelpMainUsage)
		return ExitCodeSuccess
	}
	usage, ok := usages[args[0]]
	if !ok {
		fmt.Fprintf(stdout, FmtErrorWithDetail, ErrMsgUnknownCommand, args[0])
		fmt.Fprintln(stdout, HelpMainUsage)
		return ExitCodeUsageError
	}
	fmt.Fprintln(stdout, usage)
	return ExitCodeSuccess
}
