package cmd

import (
	"github.com/spf13/cobra"

	"github.com/lucabello/docker-captain/pkg/posix"
)

var toolCmd = &cobra.Command{
	Use:   "tool",
	Short: "Cross-platform helpers used by the task runner",
	Long: `These commands behave the same on every platform and are also available inside task
scripts, where rm, mv and mkdir always resolve to them.`,
}

func posixCommand(name, short string) *cobra.Command {
	return &cobra.Command{
		Use:                name + " [flags] <path>...",
		Short:              short,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return posix.Run(".", append([]string{name}, args...))
		},
	}
}

func init() {
	toolCmd.AddCommand(posixCommand("rm", "A cross-platform implementation of the POSIX rm command (-r, -f)"))
	toolCmd.AddCommand(posixCommand("mv", "A cross-platform implementation of the POSIX mv command"))
	toolCmd.AddCommand(posixCommand("mkdir", "A cross-platform implementation of the POSIX mkdir command (-p)"))

	rootCmd.AddCommand(toolCmd)
}
