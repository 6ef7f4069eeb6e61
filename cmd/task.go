package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/lucabello/docker-captain/pkg"
	"github.com/lucabello/docker-captain/pkg/buildsys"
	"github.com/lucabello/docker-captain/pkg/storage"
)

// splitTaskArgs separates name=value options from task names
func splitTaskArgs(args []string) (map[string]string, []string) {
	options := make(map[string]string)
	taskArgs := make([]string, 0, len(args))
	for _, part := range args {
		pos := strings.Index(part, "=")
		if pos > -1 {
			options[part[:pos]] = part[pos+1:]
		} else {
			taskArgs = append(taskArgs, part)
		}
	}
	return options, taskArgs
}

func printTaskList(out io.Writer, taskList buildsys.TaskList, meta *buildsys.ScriptMeta) {
	fmt.Fprintln(out, "Available tasks:")
	names := taskList.Names()
	maxNameLen := 0
	for _, name := range names {
		if len(name) > maxNameLen {
			maxNameLen = len(name)
		}
	}

	lineFmt := fmt.Sprintf(" * %%-%ds %%s\n", maxNameLen+3)
	for _, name := range names {
		fmt.Fprintf(out, lineFmt, name+":", taskList[name].Desc)
	}

	options := meta.OptionNames()
	if len(options) == 0 {
		return
	}

	fmt.Fprintln(out, "\nOptions (pass as name=value):")
	for _, name := range options {
		option := meta.Options[name]
		fmt.Fprintf(out, " * %s (default %q)", name, option.Default)
		if option.Help != "" {
			fmt.Fprintf(out, ": %s", option.Help)
		}
		fmt.Fprintln(out)
	}
}

func printHistory(ctx context.Context, out io.Writer, store *storage.Store, n int) error {
	runs, err := store.LastRuns(ctx, n)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No task runs recorded yet.")
		return nil
	}

	for _, run := range runs {
		mode := ""
		if run.DryRun {
			mode = " (dry run)"
		}
		fmt.Fprintf(out, "%s  %-12s exit %-3d %8s%s\n", run.Started.Local().Format("2006-01-02 15:04:05"),
			run.Task, run.ExitCode, run.Duration.Round(time.Millisecond), mode)
	}
	return nil
}

// recordRuns stores the outcome of the executed tasks. Failures only produce a warning since
// the history is informational.
func recordRuns(ctx context.Context, store *storage.Store, runs []storage.TaskRun) {
	if store == nil || len(runs) == 0 {
		return
	}

	if err := store.RecordRuns(ctx, runs); err != nil {
		logger.Warn().Err(err).Int("runs", len(runs)).Msg("failed to record task runs")
	}
}

var taskCmd = &cobra.Command{
	Use:   "task [name=value ...] [task ...]",
	Short: "Run tasks from the closest tasks.star file",
	Long: `This command parses the first task file it finds in the working directory or one of its
parents and executes the given tasks. Arguments of the form name=value set options declared
with option(). Without tasks, the available tasks are listed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		dryRun, err := flags.GetBool("dry")
		if err != nil {
			return err
		}

		force, err := flags.GetBool("force")
		if err != nil {
			return err
		}

		check, err := flags.GetBool("check")
		if err != nil {
			return err
		}

		noCache, err := flags.GetBool("no-cache")
		if err != nil {
			return err
		}

		history, err := flags.GetInt("history")
		if err != nil {
			return err
		}

		options, taskArgs := splitTaskArgs(args)
		ctx := buildsys.WithLogger(cmd.Context(), &logger)

		if history > 0 {
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			return printHistory(ctx, cmd.OutOrStdout(), store, history)
		}

		wd, err := os.Getwd()
		if err != nil {
			return eris.Wrap(err, "failed to retrieve the current working directory")
		}

		taskPath, err := pkg.FindUpwards(wd, cfg.Tasks.File)
		if err != nil {
			return err
		}

		projectRoot := filepath.Dir(taskPath)
		cacheFile := ""
		if !noCache && cfg.Tasks.Cache != "" {
			cacheFile = filepath.Join(projectRoot, cfg.Tasks.Cache)
		}

		taskList, meta, err := buildsys.LoadTasks(ctx, taskPath, projectRoot, cacheFile, options)
		if err != nil {
			return eris.Wrap(err, "failed to parse tasks")
		}

		if check {
			problems := buildsys.Check(ctx, taskList)
			for _, problem := range problems {
				pkg.PrintWarning(problem.String())
			}

			if len(problems) > 0 {
				return pkg.Exit(pkg.ExitFailure, eris.Errorf("found %d problem(s) in %s", len(problems), taskPath))
			}
			pkg.PrintSubtask("no problems found")
			return nil
		}

		if len(taskArgs) == 0 {
			printTaskList(cmd.OutOrStdout(), taskList, meta)
			return nil
		}

		for _, name := range taskArgs {
			if _, ok := taskList[name]; !ok {
				return eris.Errorf("task %s not found", name)
			}
		}

		store, err := openStore(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("task history is unavailable")
			store = nil
		} else {
			defer store.Close()
		}

		runs := make([]storage.TaskRun, 0, len(taskArgs))
		defer func() { recordRuns(ctx, store, runs) }()

		for _, name := range taskArgs {
			started := time.Now()
			err = buildsys.RunTask(ctx, projectRoot, name, taskList, buildsys.RunOptions{
				DryRun: dryRun,
				Force:  force,
				Stdin:  cmd.InOrStdin(),
				Stdout: cmd.OutOrStdout(),
				Stderr: cmd.ErrOrStderr(),
			})

			code := pkg.ExitSuccess
			if err != nil {
				code = pkg.ExitFailure
				if status, ok := buildsys.ExitStatus(err); ok && status != 0 {
					code = int(status)
				}
			}

			runs = append(runs, storage.TaskRun{
				Task:     name,
				Started:  started,
				Duration: time.Since(started),
				ExitCode: code,
				DryRun:   dryRun,
			})

			if err != nil {
				return pkg.Exit(code, eris.Wrapf(err, "task %s failed", name))
			}
		}

		return nil
	},
}

func init() {
	taskCmd.Flags().BoolP("dry", "n", false, "dry run; only print the commands, don't execute anything")
	taskCmd.Flags().BoolP("force", "f", false, "force build; always execute the passed steps even if they don't have to run")
	taskCmd.Flags().Bool("check", false, "verify dependencies and commands of every task instead of running them")
	taskCmd.Flags().Bool("no-cache", false, "always parse the task file instead of using the cached task list")
	taskCmd.Flags().Int("history", 0, "show the last N task runs")

	rootCmd.AddCommand(taskCmd)
}
