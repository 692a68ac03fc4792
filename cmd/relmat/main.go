package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/atinylittleshell/relmat/internal/bash"
	"github.com/atinylittleshell/relmat/internal/config"
	"github.com/atinylittleshell/relmat/internal/core"
	"github.com/atinylittleshell/relmat/internal/styles"
	"github.com/atinylittleshell/relmat/internal/verify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var BUILD_VERSION = "dev"

// Exit codes.
const (
	exitOK              = 0
	exitFatal           = 1
	exitRootMissing     = 2
	exitRequiredMissing = 3
)

// exitError carries a process exit code. A nil err means the message was
// already reported.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

// app holds the process-wide dependencies shared by every subcommand.
type app struct {
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string
	now    func() time.Time

	// newExecutor builds the runner for external tools once the logger exists.
	newExecutor func(logger *zap.Logger) verify.Executor

	logger *zap.Logger
	cfg    *config.Config

	configPath string
	logFile    string
	verbose    bool
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout: stdout,
		stderr: stderr,
		getenv: os.Getenv,
		now:    time.Now,
		newExecutor: func(logger *zap.Logger) verify.Executor {
			return bash.NewRunner(logger, nil)
		},
	}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, newApp(os.Stdout, os.Stderr)))
}

func run(args []string, stdout, stderr io.Writer, a *app) int {
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(context.Background())
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	if err == nil {
		return exitOK
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		if exitErr.err != nil {
			a.reportError(exitErr.err)
		}
		return exitErr.code
	}
	a.reportError(err)
	return exitFatal
}

func (a *app) reportError(err error) {
	fmt.Fprintf(a.stderr, "%s %v\n", styles.For(a.stderr).Error("[ERROR]"), err)
}

func (a *app) warn(format string, args ...any) {
	fmt.Fprintf(a.stderr, "%s %s\n", styles.For(a.stderr).Warn("[WARN]"), fmt.Sprintf(format, args...))
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "relmat",
		Short: "Resolve iOS internal release materials with a local-first strategy",
		Long: `relmat gathers the App Store Connect credentials, tester list and Xcode
identifiers needed to ship an internal TestFlight build.

Values are taken, per field, from the first source that has one:
  explicit --set > environment > project files > memory > defaults

Resolved values can be remembered per project so later runs need fewer inputs.`,
		Version:       BUILD_VERSION,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initialize()
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ~/.relmat/config.yaml)")
	root.PersistentFlags().StringVar(&a.logFile, "log-file", "", "log file (default ~/.relmat/relmat.log)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newResolveCmd(a),
		newVerifyCmd(a),
		newMemoryCmd(a),
	)
	return root
}

// initialize loads the config and builds the logger. A logger injected
// beforehand is kept.
func (a *app) initialize() error {
	configPath := a.configPath
	if configPath == "" {
		configPath = core.ConfigFile()
	}
	cfg, err := config.Load(core.ExpandHome(configPath))
	if err != nil {
		return &exitError{code: exitFatal, err: err}
	}
	a.cfg = cfg

	if a.logger != nil {
		return nil
	}
	logger, err := a.buildLogger()
	if err != nil {
		return &exitError{code: exitFatal, err: fmt.Errorf("failed to initialize logger: %w", err)}
	}
	a.logger = logger
	a.logger.Debug("-------- new relmat run --------", zap.Strings("args", os.Args))
	return nil
}

func (a *app) buildLogger() (*zap.Logger, error) {
	level, err := a.cfg.Level()
	if err != nil {
		return nil, err
	}
	if a.verbose {
		level = zap.DebugLevel
	}

	logFile := a.cfg.ResolvedLogFile()
	if a.logFile != "" {
		logFile = core.ExpandHome(a.logFile)
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
		return nil, err
	}

	loggerConfig := zap.NewProductionConfig()
	loggerConfig.Level = zap.NewAtomicLevelAt(level)
	loggerConfig.OutputPaths = []string{logFile}
	loggerConfig.ErrorOutputPaths = []string{logFile}
	return loggerConfig.Build()
}

// absPath expands ~ and makes path absolute.
func absPath(path string) (string, error) {
	return filepath.Abs(core.ExpandHome(path))
}
