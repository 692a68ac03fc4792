// Package verify checks, and fixes up, the internal tester distribution of a
// project by running its assign_internal_tester fastlane lane, which is
// idempotent on the App Store Connect side.
package verify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/atinylittleshell/relmat/internal/bash"
	"github.com/atinylittleshell/relmat/internal/materials"
	"github.com/atinylittleshell/relmat/internal/report"
	"github.com/atinylittleshell/relmat/internal/styles"
	"go.uber.org/zap"
)

// ExitPrecondition is the exit code for a project that cannot be verified.
const ExitPrecondition = 2

const laneName = "assign_internal_tester"

// ErrPrecondition wraps every reason a verification could not start.
var ErrPrecondition = errors.New("verification precondition failed")

// Executor runs the git lookup and the lane itself. *bash.Runner satisfies it.
type Executor interface {
	Output(ctx context.Context, dir string, args ...string) (string, error)
	Stream(ctx context.Context, dir string, extraEnv map[string]string, w io.Writer, args ...string) (int, error)
}

// Options selects the project and the distribution to verify.
type Options struct {
	ProjectRoot   string
	Group         string
	Testers       string
	AppIdentifier string
	DryRun        bool
}

// Verifier runs distribution verification for one project.
type Verifier struct {
	executor Executor
	stdout   io.Writer
	logger   *zap.Logger
}

// NewVerifier creates a Verifier writing progress and lane output to stdout.
func NewVerifier(executor Executor, stdout io.Writer, logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{executor: executor, stdout: stdout, logger: logger}
}

// Run verifies the distribution and returns the process exit code. Failed
// preconditions return ExitPrecondition with an error wrapping
// ErrPrecondition; a failing lane returns the lane's own exit code.
func (v *Verifier) Run(ctx context.Context, opts Options) (int, error) {
	root := opts.ProjectRoot
	if !isDir(root) {
		return ExitPrecondition, fmt.Errorf("%w: project root does not exist: %s", ErrPrecondition, root)
	}
	if !isFile(filepath.Join(root, "fastlane", "Fastfile")) {
		return ExitPrecondition, fmt.Errorf("%w: missing fastlane/Fastfile", ErrPrecondition)
	}

	testers := strings.TrimSpace(opts.Testers)
	if testers == "" {
		email, err := v.executor.Output(ctx, root, "git", "config", "user.email")
		if err != nil {
			v.logger.Debug("error reading git user.email", zap.Error(err))
		}
		testers = email
	}
	if testers == "" {
		return ExitPrecondition, fmt.Errorf("%w: no tester emails (use --testers or %s)", ErrPrecondition, materials.TesterEmails)
	}

	group := opts.Group
	args := LaneCommand(root, group, testers, opts.AppIdentifier)
	line, err := bash.Quote(args)
	if err != nil {
		return 1, err
	}

	if opts.DryRun {
		fmt.Fprintf(v.stdout, "[DRY-RUN] %s\n", line)
		return 0, nil
	}

	env := map[string]string{
		string(materials.InternalGroupName): group,
		string(materials.TesterEmails):      testers,
	}
	if opts.AppIdentifier != "" {
		env[string(materials.IOSAppIdentifier)] = opts.AppIdentifier
	}

	v.logger.Info("running distribution lane",
		zap.String("project_root", root),
		zap.String("group", group),
		zap.String("testers", report.Mask(materials.TesterEmails, testers)))
	fmt.Fprintf(v.stdout, "[RUN] %s\n", line)

	code, err := v.executor.Stream(ctx, root, env, v.stdout, args...)
	if err != nil {
		return 1, fmt.Errorf("failed to run fastlane: %w", err)
	}
	if code != 0 {
		fmt.Fprintln(v.stdout, styles.For(v.stdout).Error("[FAIL]")+" distribution verification failed, check the fastlane output above.")
		return code, nil
	}

	fmt.Fprintln(v.stdout, styles.For(v.stdout).Success("[DONE]")+" internal group and tester distribution verified.")
	return 0, nil
}

// LaneCommand builds the fastlane invocation, going through bundler when the
// project has a Gemfile.
func LaneCommand(projectRoot, group, testers, appIdentifier string) []string {
	args := []string{"fastlane"}
	if isFile(filepath.Join(projectRoot, "Gemfile")) {
		args = []string{"bundle", "exec", "fastlane"}
	}
	args = append(args,
		"ios",
		laneName,
		"group:"+group,
		"testers:"+testers,
	)
	if appIdentifier != "" {
		args = append(args, "app_identifier:"+appIdentifier)
	}
	return args
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
