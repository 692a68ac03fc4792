package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/atinylittleshell/relmat/internal/collect"
	"github.com/atinylittleshell/relmat/internal/materials"
	"github.com/atinylittleshell/relmat/internal/memory"
	"github.com/atinylittleshell/relmat/internal/report"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var ErrProjectRootMissing = errors.New("project root does not exist")

type resolveOptions struct {
	projectRoot string
	memoryFile  string
	set         []string
	scan        bool
	json        bool
	printExport bool
	writeMemory bool
}

func newResolveCmd(a *app) *cobra.Command {
	opts := resolveOptions{}
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve release materials for a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runResolve(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.projectRoot, "project-root", ".", "iOS project root")
	flags.StringVar(&opts.memoryFile, "memory-file", "", "memory store (default ~/.relmat/data/memory.json)")
	flags.StringArrayVar(&opts.set, "set", nil, "explicit override KEY=VALUE, repeatable")
	flags.BoolVar(&opts.scan, "scan", false, "print the markdown scan report")
	flags.BoolVar(&opts.json, "json", false, "print resolved values and provenance as JSON")
	flags.BoolVar(&opts.printExport, "print-export", false, "print shell export lines")
	flags.BoolVar(&opts.writeMemory, "write-memory", false, "remember the resolved values for this project")
	return cmd
}

func (a *app) runResolve(ctx context.Context, opts resolveOptions) error {
	root, err := canonicalProjectRoot(opts.projectRoot)
	if err != nil {
		return &exitError{code: exitRootMissing, err: err}
	}

	overrides, err := collect.ParseOverrides(opts.set)
	if err != nil {
		return &exitError{code: exitFatal, err: err}
	}
	for _, key := range overrides.Unknown {
		if suggestion := collect.SuggestField(key); suggestion != "" {
			a.warn("ignoring unknown field %s (did you mean %s?)", key, suggestion)
		} else {
			a.warn("ignoring unknown field %s", key)
		}
	}

	memoryPath, err := a.memoryPath(opts.memoryFile)
	if err != nil {
		return &exitError{code: exitFatal, err: err}
	}

	env := collect.FromEnv(a.getenv)
	local := collect.NewLocalDetector(a.newExecutor(a.logger), a.logger).Detect(ctx, root)
	store := memory.Load(memoryPath, a.logger)

	res := materials.ResolveTiers(
		materials.StandardTiers(overrides.Values, env, local, store.Snapshot(root)),
		a.cfg.DefaultValues(),
	)
	a.logger.Info("resolved release materials",
		zap.String("project_root", root),
		zap.Any("values", report.MaskValues(res.Values)),
		zap.Any("provenance", res.Provenance),
	)

	if opts.writeMemory {
		store.Put(root, res.Persistable(), a.now())
		if err := memory.Save(memoryPath, store); err != nil {
			return &exitError{code: exitFatal, err: err}
		}
		if err := memory.RenderHumanView(memoryPath, store); err != nil {
			a.logger.Warn("error rendering memory view", zap.Error(err))
		}
		a.logger.Info("wrote project memory", zap.String("memory_file", memoryPath))
	}

	if opts.scan {
		if err := report.WriteScan(a.stdout, root, res); err != nil {
			return err
		}
	}
	if opts.printExport {
		if err := report.WriteExports(a.stdout, res); err != nil {
			return err
		}
	}
	if opts.json {
		if err := report.WriteJSON(a.stdout, res); err != nil {
			return err
		}
	}

	if missing := res.MissingRequired(); len(missing) > 0 {
		names := lo.Map(missing, func(f materials.Field, _ int) string { return f.String() })
		a.warn("missing required fields: %s", strings.Join(names, ", "))
		return &exitError{code: exitRequiredMissing}
	}
	return nil
}

// canonicalProjectRoot expands ~, makes the path absolute and resolves
// symlinks. The result is the project's memory key.
func canonicalProjectRoot(path string) (string, error) {
	abs, err := absPath(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrProjectRootMissing, path)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrProjectRootMissing, abs)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrProjectRootMissing, abs)
	}
	return resolved, nil
}

// memoryPath picks the memory store from the flag, then the config.
func (a *app) memoryPath(flagValue string) (string, error) {
	if flagValue == "" {
		return a.cfg.ResolvedMemoryFile(), nil
	}
	return absPath(flagValue)
}
