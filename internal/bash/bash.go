// Package bash runs external tools through the mvdan.cc/sh interpreter, so
// collaborator commands see the same PATH lookup and environment handling a
// POSIX shell would give them.
package bash

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// Runner executes single commands in a fresh interpreter per call.
type Runner struct {
	env    []string
	logger *zap.Logger
}

// NewRunner creates a Runner. A nil env means the current process
// environment; a nil logger is replaced by a no-op logger.
func NewRunner(logger *zap.Logger, env []string) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if env == nil {
		env = os.Environ()
	}
	return &Runner{env: env, logger: logger}
}

// Quote renders args as one shell command line, quoting each word as needed.
func Quote(args []string) (string, error) {
	words := make([]string, 0, len(args))
	for _, arg := range args {
		q, err := syntax.Quote(arg, syntax.LangBash)
		if err != nil {
			return "", fmt.Errorf("failed to quote %q: %w", arg, err)
		}
		words = append(words, q)
	}
	return strings.Join(words, " "), nil
}

// Output runs args in dir and returns stdout with surrounding whitespace
// trimmed. Stderr is discarded. A non-zero exit status is returned as an
// interp.ExitStatus error.
func (r *Runner) Output(ctx context.Context, dir string, args ...string) (string, error) {
	var out bytes.Buffer
	code, err := r.run(ctx, dir, nil, &out, io.Discard, args)
	if err != nil {
		return "", err
	}
	if code != 0 {
		return "", interp.ExitStatus(code)
	}
	return strings.TrimSpace(out.String()), nil
}

// Stream runs args in dir with extraEnv layered over the runner environment,
// writing stdout and stderr to w as the command produces them. A non-zero
// exit status is reported through the returned code, not as an error.
func (r *Runner) Stream(ctx context.Context, dir string, extraEnv map[string]string, w io.Writer, args ...string) (int, error) {
	return r.run(ctx, dir, extraEnv, w, w, args)
}

func (r *Runner) run(ctx context.Context, dir string, extraEnv map[string]string, stdout, stderr io.Writer, args []string) (int, error) {
	if len(args) == 0 {
		return 0, nil
	}

	command, err := Quote(args)
	if err != nil {
		return 1, err
	}
	prog, err := syntax.NewParser().Parse(strings.NewReader(command), "")
	if err != nil {
		return 1, fmt.Errorf("failed to parse command: %w", err)
	}

	env := append([]string{}, r.env...)
	for k, v := range extraEnv {
		env = append(env, k+"="+v)
	}

	runner, err := interp.New(
		interp.Dir(dir),
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(nil, stdout, stderr),
	)
	if err != nil {
		return 1, fmt.Errorf("failed to create shell runner: %w", err)
	}

	r.logger.Debug("running command", zap.String("dir", dir), zap.String("command", command))

	err = runner.Run(ctx, prog)
	if err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			return int(exitStatus), nil
		}
		return 1, err
	}
	return 0, nil
}
