package cmd

import (
	"github.com/spf13/cobra"

	"github.com/lucabello/docker-captain/pkg"
	"github.com/lucabello/docker-captain/pkg/compose"
)

var startCmd = &cobra.Command{
	Use:     "start <project>",
	Short:   "Start a single project using `docker compose up`",
	Example: "  docker-captain start calibre --detach",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts compose.UpOptions
		var err error
		if opts.Detach, err = cmd.Flags().GetBool("detach"); err != nil {
			return err
		}
		if opts.RemoveOrphans, err = cmd.Flags().GetBool("remove-orphans"); err != nil {
			return err
		}

		_, projects, err := discoverProjects()
		if err != nil {
			return err
		}

		composeFile, err := requireProject(projects, args[0])
		if err != nil {
			return err
		}

		return pkg.Exit(composeClient().Up(cmd.Context(), composeFile, opts), nil)
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop <project>",
	Short: "Stop a single project using `docker compose down`",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts compose.DownOptions
		var err error
		if opts.RemoveOrphans, err = cmd.Flags().GetBool("remove-orphans"); err != nil {
			return err
		}

		_, projects, err := discoverProjects()
		if err != nil {
			return err
		}

		composeFile, err := requireProject(projects, args[0])
		if err != nil {
			return err
		}

		return pkg.Exit(composeClient().Down(cmd.Context(), composeFile, opts), nil)
	},
}

var restartCmd = &cobra.Command{
	Use:   "restart <project>",
	Short: "Restart a single project using `docker compose restart`",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, projects, err := discoverProjects()
		if err != nil {
			return err
		}

		composeFile, err := requireProject(projects, args[0])
		if err != nil {
			return err
		}

		return pkg.Exit(composeClient().Restart(cmd.Context(), composeFile), nil)
	},
}

func init() {
	startCmd.Flags().BoolP("detach", "d", false, "run `docker compose up --detach`")
	startCmd.Flags().Bool("remove-orphans", false, "include --remove-orphans")
	stopCmd.Flags().Bool("remove-orphans", false, "include --remove-orphans")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(restartCmd)
}
