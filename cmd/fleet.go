package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/colorstring"
	"github.com/rotisserie/eris"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/lucabello/docker-captain/pkg"
	"github.com/lucabello/docker-captain/pkg/compose"
)

type fleetAction func(ctx context.Context, composeFile string) int

func fleetProgress(total int, desc string) *progressbar.ProgressBar {
	if os.Getenv("CI") == "true" {
		return progressbar.NewOptions(total, progressbar.OptionSetVisibility(false))
	}

	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
	)
}

// runFleet applies action to every named project in order. The returned code is the first
// non-zero exit code, the error lists every failure.
func runFleet(ctx context.Context, out io.Writer, bar *progressbar.ProgressBar, names []string, projects compose.Projects, action fleetAction) (int, error) {
	var result *multierror.Error
	code := pkg.ExitSuccess

	for _, name := range names {
		if ctx.Err() != nil {
			result = multierror.Append(result, ctx.Err())
			if code == pkg.ExitSuccess {
				code = pkg.ExitFailure
			}
			break
		}

		bar.Describe(name)
		composeFile, ok := projects[name]
		if !ok {
			colorstring.Fprintf(out, "[red]Skipping %s: project not found.[reset]\n", name)
			result = multierror.Append(result, &compose.ProjectMissing{Name: name})
			if code == pkg.ExitSuccess {
				code = pkg.ExitFailure
			}
			_ = bar.Add(1)
			continue
		}

		rc := action(ctx, composeFile)
		if rc != 0 {
			result = multierror.Append(result, eris.Errorf("%s exited with code %d", name, rc))
			if code == pkg.ExitSuccess {
				code = rc
			}
		}
		_ = bar.Add(1)
	}

	return code, result.ErrorOrNil()
}

func fleetCommand(cmd *cobra.Command, desc string, action fleetAction) error {
	_, projects, err := discoverProjects()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	active, err := store.ActiveProjects(ctx)
	store.Close()
	if err != nil {
		return err
	}

	if len(active) == 0 {
		colorstring.Fprintf(cmd.OutOrStdout(), "[yellow]No active projects found in %s. Run `docker-captain manage` first.[reset]\n", store.Path())
		return nil
	}

	code, err := runFleet(ctx, cmd.OutOrStdout(), fleetProgress(len(active), desc), active, projects, action)
	return pkg.Exit(code, err)
}

var rallyCmd = &cobra.Command{
	Use:   "rally",
	Short: "Start all active projects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts compose.UpOptions
		var err error
		if opts.Detach, err = cmd.Flags().GetBool("detach"); err != nil {
			return err
		}
		if opts.RemoveOrphans, err = cmd.Flags().GetBool("remove-orphans"); err != nil {
			return err
		}

		client := composeClient()
		return fleetCommand(cmd, "starting", func(ctx context.Context, composeFile string) int {
			return client.Up(ctx, composeFile, opts)
		})
	},
}

var abandonCmd = &cobra.Command{
	Use:   "abandon",
	Short: "Stop all active projects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts compose.DownOptions
		var err error
		if opts.RemoveOrphans, err = cmd.Flags().GetBool("remove-orphans"); err != nil {
			return err
		}

		client := composeClient()
		return fleetCommand(cmd, "stopping", func(ctx context.Context, composeFile string) int {
			return client.Down(ctx, composeFile, opts)
		})
	},
}

func init() {
	rallyCmd.Flags().BoolP("detach", "d", false, "run with --detach")
	rallyCmd.Flags().Bool("remove-orphans", false, "include --remove-orphans")
	abandonCmd.Flags().Bool("remove-orphans", false, "include --remove-orphans")

	rootCmd.AddCommand(rallyCmd)
	rootCmd.AddCommand(abandonCmd)
}
