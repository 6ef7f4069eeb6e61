package cmd

import (
	"os"

	"github.com/mitchellh/colorstring"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/lucabello/docker-captain/pkg"
	"github.com/lucabello/docker-captain/pkg/prompt"
)

var manageCmd = &cobra.Command{
	Use:   "manage",
	Short: "Interactively select which projects are active",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		folder, projects, err := discoverProjects()
		if err != nil {
			return err
		}

		names := projects.Names()
		if len(names) == 0 {
			return pkg.Exit(pkg.ExitFailure, eris.Errorf("no projects found in %s", folder))
		}

		ctx := cmd.Context()
		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		active, err := store.ActiveProjects(ctx)
		if err != nil {
			return err
		}

		selected, err := prompt.AskCheckbox(os.Stdin, cmd.OutOrStdout(),
			"Select active projects (space to toggle, enter to confirm):", names, active)
		if eris.Is(err, prompt.ErrAborted) {
			colorstring.Fprintln(cmd.OutOrStdout(), "[yellow]Aborted (no changes made).[reset]")
			return nil
		}
		if err != nil {
			return err
		}

		changes, err := store.ReplaceActiveProjects(ctx, selected)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, name := range changes.Added {
			colorstring.Fprintf(out, "  [green]+ %s[reset]\n", name)
		}
		for _, name := range changes.Removed {
			colorstring.Fprintf(out, "  [red]- %s[reset]\n", name)
		}
		if changes.Empty() {
			colorstring.Fprintln(out, "[yellow]No changes.[reset]")
		}

		colorstring.Fprintf(out, "[green]Saved %d active project(s) to %s[reset]\n", len(selected), store.Path())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(manageCmd)
}
