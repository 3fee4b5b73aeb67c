// oosikle browses and imports into a media library catalog from the command
// line. The catalog address and logging come from OOSIKLE_* environment
// variables and can be overridden by flags:
//
//	oosikle --catalog sqlite://library.db import ~/roms
//	oosikle ls pico8
//	oosikle glob '**/*.p8.png'
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	oosikle "github.com/Zaphodious/oosikle-app"
	"github.com/Zaphodious/oosikle-app/cmd"
	"github.com/Zaphodious/oosikle-app/cmd/builtin"
	"github.com/Zaphodious/oosikle-app/config"
	"github.com/Zaphodious/oosikle-app/log"
	"github.com/Zaphodious/oosikle-app/metrics"
)

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }
func (e *exitError) ExitCode() int { return e.code }

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	registry := builtin.NewRegistry()

	flagSet := pflag.NewFlagSet("oosikle", pflag.ContinueOnError)
	flagSet.StringVarP(&cfg.Catalog, "catalog", "c", cfg.Catalog, "catalog address (sqlite://, postgres://, consul://, s3:// or :memory:)")
	flagSet.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	flagSet.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "write logs to this file instead of stderr")
	flagSet.DurationVar(&cfg.CallTimeout, "timeout", cfg.CallTimeout, "overall time limit for the command (0 disables)")
	flagSet.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "serve Prometheus metrics on this address while running")
	flagSet.BoolP("help", "h", false, "show help")
	// Flags after the command name belong to the command
	flagSet.SetInterspersed(false)

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		return &exitError{code: 2, err: err}
	}
	if help, _ := flagSet.GetBool("help"); help || flagSet.NArg() == 0 {
		printHelp(flagSet, registry)
		return nil
	}
	if err := cfg.Validate(); err != nil {
		return &exitError{code: 2, err: err}
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	log.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.CallTimeout)
		defer cancel()
	}

	if cfg.MetricsAddr != "" {
		metricsServer := &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: metrics.Handler(),
		}
		go func() {
			logger.Info("Metrics server listening on %s", cfg.MetricsAddr)
			if err := metricsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server failed: %v", err)
			}
		}()
		defer metricsServer.Close()
	}

	lib, err := oosikle.Open(ctx, cfg, oosikle.WithLogger(logger))
	if err != nil {
		return err
	}
	defer func() {
		if err := lib.Close(); err != nil {
			logger.Warn("Failed to close catalog: %v", err)
		}
	}()

	code, err := registry.Run(ctx, lib, flagSet.Args(), os.Stdout)
	if err != nil {
		return &exitError{code: code, err: err}
	}
	if code != 0 {
		return &exitError{code: code, err: fmt.Errorf("%s exited with code %d", flagSet.Arg(0), code)}
	}
	return nil
}

// newLogger keeps stdout free for command output: logs go to stderr unless a
// log file is configured.
func newLogger(cfg *config.Config) (*log.Logger, error) {
	level, err := log.Parse(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	var logger *log.Logger
	if cfg.LogFile != "" {
		logger = log.NewLogger("oosikle", level, cfg.LogFile, true)
	} else {
		logger = log.NewWithWriter("oosikle", level, os.Stderr)
	}
	logger.JSON = cfg.LogJSON
	return logger, nil
}

func printHelp(flagSet *pflag.FlagSet, registry *cmd.Registry) {
	fmt.Fprintf(os.Stderr, "Usage: oosikle [flags] <command> [args]\n\n")
	registry.PrintUsage(os.Stderr)
	fmt.Fprintf(os.Stderr, "\nFlags:\n")
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
