package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/itsatony/go-mdplug"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
)

// serveConfig holds parsed serve command configuration
type serveConfig struct {
	pluginsPath string
	storage     string
	dsn         string
	addr        string
	watch       bool
	debounce    time.Duration
	nonBlocking bool
	verbose     bool
	quiet       bool
}

func runServe(args []string, stdout, stderr io.Writer) int {
	cfg, err := parseServeFlags(args)
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, logger); err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgServeFailed, err)
		return ExitCodeError
	}
	return ExitCodeSuccess
}

func parseServeFlags(args []string) (*serveConfig, error) {
	fs := flag.NewFlagSet(CmdNameServe, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	cfg := &serveConfig{}
	fs.StringVarP(&cfg.pluginsPath, FlagPlugins, FlagPluginsShort, "", "")
	fs.StringVar(&cfg.storage, FlagStorage, "", "")
	fs.StringVar(&cfg.dsn, FlagDSN, "", "")
	fs.StringVar(&cfg.addr, FlagAddr, FlagDefaultAddr, "")
	fs.BoolVarP(&cfg.watch, FlagWatch, FlagWatchShort, false, "")
	fs.DurationVar(&cfg.debounce, FlagDebounce, FlagDefaultDebounce, "")
	fs.BoolVar(&cfg.nonBlocking, FlagNonBlocking, false, "")
	fs.BoolVarP(&cfg.verbose, FlagVerbose, FlagVerboseShort, false, "")
	fs.BoolVarP(&cfg.quiet, FlagQuiet, FlagQuietShort, false, "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	switch {
	case cfg.pluginsPath == "" && cfg.storage == "":
		return nil, errors.New(ErrMsgMissingPlugins)
	case cfg.pluginsPath != "" && cfg.storage != "":
		return nil, errors.New(ErrMsgFlagsConflict)
	case cfg.watch && !isDir(cfg.pluginsPath):
		return nil, errors.New(ErrMsgWatchNeedsDir)
	}

	return cfg, nil
}

// serve runs the HTTP host until ctx is done.
func serve(ctx context.Context, cfg *serveConfig, logger *zap.Logger) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	manager, err := mdplug.New(
		mdplug.WithLogger(logger),
		mdplug.WithMetrics(mdplug.NewMetrics(registry)),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgManagerInitFailed, err)
	}

	reload, cleanup, err := newReloadFunc(cfg, manager)
	if err != nil {
		return err
	}
	defer cleanup()

	if _, err := reload(ctx); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgLoadPluginsFailed, err)
	}

	if cfg.watch {
		watcher, err := mdplug.NewWatcher(manager, cfg.pluginsPath,
			mdplug.WithWatchDebounce(cfg.debounce),
			mdplug.WithoutInitialReload())
		if err != nil {
			return fmt.Errorf("%s: %w", ErrMsgWatcherFailed, err)
		}
		defer watcher.Close()
		go func() {
			if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn(mdplug.LogMsgWatcherError, zap.Error(err))
			}
		}()
	}

	serverOpts := []mdplug.ServerOption{
		mdplug.WithReloadFunc(reload),
		mdplug.WithMetricsGatherer(registry),
	}
	if cfg.nonBlocking {
		serverOpts = append(serverOpts, mdplug.WithNonBlocking())
	}

	srv := &http.Server{
		Addr:              cfg.addr,
		Handler:           mdplug.NewServer(manager, serverOpts...),
		ReadHeaderTimeout: ServerReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(mdplug.LogMsgHTTPListening, zap.String(mdplug.LogFieldAddr, cfg.addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ServerShutdownTimeout)
	defer cancel()
	err = srv.Shutdown(shutdownCtx)
	logger.Info(mdplug.LogMsgHTTPStopped, zap.String(mdplug.LogFieldAddr, cfg.addr))
	return err
}

// newReloadFunc returns the plugin source for cfg: a definition path or a
// storage driver.
func newReloadFunc(cfg *serveConfig, manager *mdplug.Manager) (mdplug.ReloadFunc, func(), error) {
	if cfg.storage == "" {
		path := cfg.pluginsPath
		reload := func(ctx context.Context) ([]*mdplug.LoadReport, error) {
			plugins, err := loadDefinitions(path)
			if err != nil {
				return nil, err
			}
			return manager.ReplacePlugins(plugins)
		}
		return reload, func() {}, nil
	}

	storage, err := mdplug.OpenStorage(cfg.storage, cfg.dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", ErrMsgStorageOpenFailed, err)
	}
	reload := func(ctx context.Context) ([]*mdplug.LoadReport, error) {
		return manager.LoadFromStorage(ctx, storage)
	}
	return reload, func() { _ = storage.Close() }, nil
}
