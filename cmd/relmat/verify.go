package main

import (
	"errors"
	"fmt"

	"github.com/atinylittleshell/relmat/internal/materials"
	"github.com/atinylittleshell/relmat/internal/styles"
	"github.com/atinylittleshell/relmat/internal/verify"
	"github.com/spf13/cobra"
)

func newVerifyCmd(a *app) *cobra.Command {
	opts := verify.Options{}
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify internal TestFlight distribution by running the assign_internal_tester lane",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := absPath(opts.ProjectRoot)
			if err != nil {
				return &exitError{code: verify.ExitPrecondition, err: err}
			}
			opts.ProjectRoot = root

			code, err := verify.NewVerifier(a.newExecutor(a.logger), a.stdout, a.logger).Run(cmd.Context(), opts)
			if errors.Is(err, verify.ErrPrecondition) {
				fmt.Fprintf(a.stderr, "%s %v\n", styles.For(a.stderr).Error("[FAIL]"), err)
				return &exitError{code: code}
			}
			if err != nil || code != exitOK {
				return &exitError{code: code, err: err}
			}
			return nil
		},
	}

	group := a.getenv(materials.InternalGroupName.String())
	if group == "" {
		group = materials.Defaults().Get(materials.InternalGroupName)
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.ProjectRoot, "project-root", ".", "iOS project root")
	flags.StringVar(&opts.Group, "group", group, "internal TestFlight group name")
	flags.StringVar(&opts.Testers, "testers", a.getenv(materials.TesterEmails.String()), "comma-separated tester emails (default git user.email)")
	flags.StringVar(&opts.AppIdentifier, "app-identifier", a.getenv(materials.IOSAppIdentifier.String()), "bundle identifier passed to the lane")
	flags.BoolVar(&opts.DryRun, "dry-run", false, "print the lane command without running it")
	return cmd
}
