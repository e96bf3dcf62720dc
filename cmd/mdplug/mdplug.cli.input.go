package main

import (
	"errors"
	"io"
	"os"

	"github.com/itsatony/go-mdplug"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// readInput reads content from a file or stdin
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == InputSourceStdin {
		return io.ReadAll(stdin)
	}

	return os.ReadFile(path)
}

// writeOutput writes content to a file or stdout
func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == FlagDefaultOutput {
		_, err := stdout.Write(data)
		return err
	}

	return os.WriteFile(path, data, FilePermissions)
}

// loadDefinitions decodes a single definition file or every definition in a
// directory.
func loadDefinitions(path string) ([]*mdplug.Plugin, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return mdplug.LoadDir(path)
	}
	p, err := mdplug.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return []*mdplug.Plugin{p}, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// newLogger builds a console logger on w. Effect log messages share it.
func newLogger(w io.Writer, verbose, quiet bool) (*zap.Logger, error) {
	if verbose && quiet {
		return nil, errors.New(ErrMsgQuietVerbose)
	}

	level := zapcore.InfoLevel
	switch {
	case verbose:
		level = zapcore.DebugLevel
	case quiet:
		level = zapcore.ErrorLevel
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.TimeKey = ""
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(w),
		level,
	)
	return zap.New(core).Named(CLIName), nil
}
