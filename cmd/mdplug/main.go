package main

import (
	"io"
	"os"
)

type commandFunc func(args []string, stdin io.Reader, stdout, stderr io.Writer) int

var commands = map[string]commandFunc{
	CmdNameRun: runTransform,
	CmdNameValidate: func(args []string, _ io.Reader, stdout, stderr io.Writer) int {
		return runValidate(args, stdout, stderr)
	},
	CmdNameServe: func(args []string, _ io.Reader, stdout, stderr io.Writer) int {
		return runServe(args, stdout, stderr)
	},
	CmdNameVersion: func(args []string, _ io.Reader, stdout, stderr io.Writer) int {
		return runVersion(args, stdout, stderr)
	},
	CmdNameHelp: func(args []string, _ io.Reader, stdout, _ io.Writer) int {
		return runHelp(args, stdout)
	},
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run dispatches args[0] and returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		return runHelp(nil, stdout)
	}
	if cmd, ok := commands[args[0]]; ok {
		return cmd(args[1:], stdin, stdout, stderr)
	}
	// unknown commands print the error plus the main usage
	return runHelp(args[:1], stdout)
}
