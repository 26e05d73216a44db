// Package cli implements the cmdbridge command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/jonwraymond/cmdbridge/config"
	"github.com/jonwraymond/cmdbridge/errclass"
	"github.com/jonwraymond/cmdbridge/observe"
)

// ServiceName identifies this binary in telemetry.
const ServiceName = "cmdbridge"

// Version is set at build time with -ldflags.
var Version = "dev"

type app struct {
	logLevel string
	logFile  string
	debug    bool

	// environ replaces the process environment when non-nil.
	environ map[string]string

	cfg      config.Config
	logOut   io.Writer
	logFileW *lumberjack.Logger
	obs      observe.Observer
	logger   observe.Logger

	stdout io.Writer
	stderr io.Writer
}

// NewRootCommand returns the cmdbridge root command wired to the process
// streams.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWithIO(os.Stdout, os.Stderr)
}

// NewRootCommandWithIO returns the root command writing to out and errOut.
func NewRootCommandWithIO(out, errOut io.Writer) *cobra.Command {
	return newRootCommand(out, errOut, nil)
}

func newRootCommand(out, errOut io.Writer, environ map[string]string) *cobra.Command {
	a := &app{
		environ: environ,
		stdout:  out,
		stderr:  errOut,
	}

	cmd := &cobra.Command{
		Use:           "cmdbridge",
		Short:         "Invoke backend commands over the native bridge or its HTTP fallback",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug|info|warn|error (default from CMDBRIDGE_LOG_LEVEL)")
	cmd.PersistentFlags().StringVar(&a.logFile, "log-file", "", "write logs to a rotated file instead of stderr")
	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "log every invocation and cache decision")

	cmd.AddCommand(
		newInvokeCmd(a),
		newServeCmd(a),
		newHealthCmd(a),
	)
	return cmd
}

func (a *app) setup(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		cfg config.Config
		err error
	)
	if a.environ != nil {
		cfg, err = config.LoadFrom(ctx, a.environ)
	} else {
		cfg, err = config.Load(ctx)
	}
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("debug") {
		cfg.Debug = a.debug
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	a.cfg = cfg

	a.logOut = a.stderr
	if a.logFile != "" {
		a.logFileW = &lumberjack.Logger{
			Filename:   a.logFile,
			MaxSize:    10, // MB
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		a.logOut = a.logFileW
	}

	obsCfg := cfg.ObserveConfig(ServiceName, Version)
	obsCfg.Logging.Writer = a.logOut
	obs, err := observe.NewObserver(ctx, obsCfg)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	a.obs = obs
	a.logger = obs.Logger()
	return nil
}

// runE releases telemetry and the log file after fn, even when it fails.
func (a *app) runE(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		if terr := a.teardown(cmd.Context()); terr != nil && err == nil {
			err = terr
		}
		return err
	}
}

func (a *app) teardown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var errs []error
	if a.obs != nil {
		errs = append(errs, a.obs.Shutdown(ctx))
	}
	if a.logFileW != nil {
		errs = append(errs, a.logFileW.Close())
	}
	return errors.Join(errs...)
}

// Execute runs the root command and returns the process exit code.
// Classified invocation failures are already reported by the invoke
// command and are not printed again.
func Execute(ctx context.Context) int {
	cmd := NewRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		var ce *errclass.Error
		if !errors.As(err, &ce) {
			fmt.Fprintln(os.Stderr, "cmdbridge:", err)
		}
		return 1
	}
	return 0
}
