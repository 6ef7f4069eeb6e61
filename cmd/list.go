package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/lucabello/docker-captain/pkg/compose"
)

const checkMark = "✓"

var (
	tableTitleStyle  = lipgloss.NewStyle().Bold(true).Italic(true)
	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	tableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
	tableMarkStyle   = tableCellStyle.Foreground(lipgloss.Color("10")).Align(lipgloss.Center)
)

// projectRows builds one row per project in alphabetical order
func projectRows(projects compose.Projects, active, running []string, verbose bool) [][]string {
	isActive := make(map[string]bool, len(active))
	for _, name := range active {
		isActive[name] = true
	}
	isRunning := make(map[string]bool, len(running))
	for _, name := range running {
		isRunning[name] = true
	}

	rows := make([][]string, 0, len(projects))
	for _, name := range projects.Names() {
		row := []string{name, "", ""}
		if isActive[name] {
			row[1] = checkMark
		}
		if isRunning[name] {
			row[2] = checkMark
		}
		if verbose {
			row = append(row, projects[name])
		}
		rows = append(rows, row)
	}
	return rows
}

func renderProjectTable(folder string, rows [][]string, verbose bool) string {
	headers := []string{"Project", "Active", "Running"}
	if verbose {
		headers = append(headers, "Compose File")
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderColumn(false).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return tableHeaderStyle
			case col == 1 || col == 2:
				return tableMarkStyle
			default:
				return tableCellStyle
			}
		})

	return tableTitleStyle.Render("Projects in "+folder) + "\n" + t.String()
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all discovered projects and show which ones are active and running",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		verbose, err := cmd.Flags().GetBool("verbose")
		if err != nil {
			return err
		}

		folder, projects, err := discoverProjects()
		if err != nil {
			return err
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

		running := composeClient().RunningProjects(ctx)
		fmt.Fprintln(cmd.OutOrStdout(), renderProjectTable(folder, projectRows(projects, active, running, verbose), verbose))
		return nil
	},
}

func init() {
	listCmd.Flags().BoolP("verbose", "v", false, "show compose file paths")
	rootCmd.AddCommand(listCmd)
}
