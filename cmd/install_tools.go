package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/lucabello/docker-captain/pkg"
)

var installToolsCmd = &cobra.Command{
	Use:   "install-tools",
	Short: "Installs Go CLI tools",
	Long: `Installs the tools listed in tools.go into the .tools directory. Both are expected next to
the closest task file, whose tasks add that directory to PATH.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}

		root, err := pkg.GetProjectRoot(wd, cfg.Tasks.File)
		if err != nil {
			return err
		}

		pkg.PrintTask("Installing tools into " + root)
		return pkg.InstallTools(root)
	},
}

func init() {
	toolCmd.AddCommand(installToolsCmd)
}
