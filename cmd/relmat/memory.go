package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/atinylittleshell/relmat/internal/memory"
	"github.com/atinylittleshell/relmat/internal/styles"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newMemoryCmd(a *app) *cobra.Command {
	var memoryFile string

	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Inspect remembered project materials",
	}
	cmd.PersistentFlags().StringVar(&memoryFile, "memory-file", "", "memory store (default ~/.relmat/data/memory.json)")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List remembered projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.memoryPath(memoryFile)
			if err != nil {
				return &exitError{code: exitFatal, err: err}
			}
			return a.listMemory(path)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "render",
		Short: "Regenerate the human-readable memory.md view",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.memoryPath(memoryFile)
			if err != nil {
				return &exitError{code: exitFatal, err: err}
			}
			if err := memory.RenderHumanView(path, memory.Load(path, a.logger)); err != nil {
				return &exitError{code: exitFatal, err: err}
			}
			fmt.Fprintln(a.stdout, memory.HumanViewPath(path))
			return nil
		},
	})

	return cmd
}

func (a *app) listMemory(path string) error {
	store := memory.Load(path, a.logger)
	projects := store.ProjectPaths()
	style := styles.For(a.stdout)
	if len(projects) == 0 {
		fmt.Fprintln(a.stdout, style.Faint("No remembered projects in "+path))
		return nil
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PROJECT\tFIELDS\tUPDATED")
	for _, project := range projects {
		record := store.Projects[project]
		updated := record.UpdatedAt
		if t, ok := record.UpdatedTime(); ok {
			updated = humanize.RelTime(t, a.now(), "ago", "from now")
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", project, len(record.Values), style.Faint(updated))
	}
	return tw.Flush()
}
