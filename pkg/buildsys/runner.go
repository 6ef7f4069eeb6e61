package buildsys

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/lucabello/docker-captain/pkg/posix"
)

type (
	runtimeCtxKey struct{}
	runtimeCtx    struct {
		runTasks    map[string]bool
		projectRoot string
		opts        RunOptions
	}
)

func getRuntimeCtx(ctx context.Context) *runtimeCtx {
	return ctx.Value(runtimeCtxKey{}).(*runtimeCtx)
}

// CommandError is returned when a task command fails
type CommandError struct {
	Task    string
	Command string
	Status  uint8
	Err     error
}

var _ error = (*CommandError)(nil)

func (e *CommandError) Error() string {
	return fmt.Sprintf("task %s: command %q failed with exit status %d", e.Task, e.Command, e.Status)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExitStatus returns the exit status of the shell command that caused err
func ExitStatus(err error) (uint8, bool) {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Status, true
	}

	return interp.IsExitStatus(err)
}

// posixHandler serves rm, mv and mkdir in-process so that the same flags work on every OS
func posixHandler(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(ctx context.Context, args []string) error {
		if len(args) == 0 || !posix.IsCommand(args[0]) {
			return next(ctx, args)
		}

		hc := interp.HandlerCtx(ctx)
		err := posix.Run(hc.Dir, args)
		if err != nil {
			fmt.Fprintf(hc.Stderr, "%s: %s\n", args[0], err)
			return interp.NewExitStatus(1)
		}
		return nil
	}
}

var defaultOpenHandler = interp.DefaultOpenHandler()

func openHandler(ctx context.Context, path string, flag int, perm os.FileMode) (io.ReadWriteCloser, error) {
	if path == "/dev/null" {
		path = os.DevNull
	}

	return defaultOpenHandler(ctx, path, flag, perm)
}

func newShell(dir string, env []string, stdin io.Reader, stdout, stderr io.Writer) (*interp.Runner, error) {
	runner, err := interp.New(
		interp.Dir(dir),
		interp.Env(expand.ListEnviron(env...)),
		interp.ExecHandlers(posixHandler),
		interp.OpenHandler(openHandler),
		interp.StdIO(stdin, stdout, stderr),
		interp.Params("-e"),
	)
	if err != nil {
		return nil, eris.Wrap(err, "failed to initialize shell")
	}

	return runner, nil
}

func resolvePatternLists(ctx context.Context, base string, patterns []string) ([]string, error) {
	result := []string{}
	cfg := expand.Config{
		ReadDir:  shellReadDir,
		GlobStar: true,
	}

	parser := syntax.NewParser()
	parserCtx := &parserCtx{
		filepath:    filepath.Join(base, "tasks.star"),
		projectRoot: getRuntimeCtx(ctx).projectRoot,
	}

	for _, item := range patterns {
		item = normalizePath(parserCtx, item)
		item = filepath.ToSlash(item)

		words := make([]*syntax.Word, 0)
		err := parser.Words(strings.NewReader(item), func(w *syntax.Word) bool {
			words = append(words, w)
			return true
		})
		if err != nil {
			return nil, eris.Wrapf(err, "failed to parse pattern %s", item)
		}

		matches, err := expand.Fields(&cfg, words...)
		if err != nil {
			return nil, eris.Wrapf(err, "failed to resolve pattern %s", item)
		}

		for _, match := range matches {
			// patterns without matches are returned as is, skip those
			if !strings.Contains(match, "*") {
				result = append(result, match)
			}
		}
	}
	return result, nil
}

// RunTask executes the named task after its dependencies
func RunTask(ctx context.Context, projectRoot, task string, tasks TaskList, opts RunOptions) error {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	rctx := runtimeCtx{
		projectRoot: projectRoot,
		runTasks:    make(map[string]bool),
		opts:        opts,
	}

	ctx = context.WithValue(ctx, runtimeCtxKey{}, &rctx)
	taskMeta, found := tasks[task]
	if !found {
		return eris.Errorf("task %s not found", task)
	}

	return runTaskInternal(ctx, taskMeta, tasks, opts.Force)
}

// upToDate checks skip_if_exists and the input / output timestamps
func upToDate(ctx context.Context, task *Task) (bool, error) {
	skipList, err := resolvePatternLists(ctx, task.Base, task.SkipIfExists)
	if err != nil {
		return false, eris.Wrap(err, "failed to resolve skip_if_exists list")
	}

	found := 0
	for _, item := range skipList {
		_, err := os.Stat(item)
		if err == nil {
			found++
		} else if !eris.Is(err, os.ErrNotExist) {
			return false, eris.Wrapf(err, "failed to check %s", item)
		}
	}

	if found > 0 && found == len(skipList) {
		taskLog(ctx, task).Info().Msg("skipped because all skip files exist")
		return true, nil
	}

	var newestInput time.Time
	inputList, err := resolvePatternLists(ctx, task.Base, task.Inputs)
	if err != nil {
		return false, eris.Wrap(err, "failed to resolve inputs")
	}

	for _, item := range inputList {
		info, err := os.Stat(item)
		if err != nil {
			return false, eris.Wrapf(err, "failed to check input %s", item)
		}

		if info.ModTime().After(newestInput) {
			newestInput = info.ModTime()
		}
	}

	if newestInput.IsZero() {
		return false, nil
	}

	outputList, err := resolvePatternLists(ctx, task.Base, task.Outputs)
	if err != nil {
		return false, eris.Wrap(err, "failed to resolve output list")
	}

	// every output has to exist and be newer than every input
	if len(outputList) == 0 {
		return false, nil
	}

	oldestOutput := time.Time{}
	for _, item := range outputList {
		info, err := os.Stat(item)
		if err != nil {
			if eris.Is(err, os.ErrNotExist) {
				return false, nil
			}
			return false, eris.Wrapf(err, "failed to check output %s", item)
		}

		if oldestOutput.IsZero() || info.ModTime().Before(oldestOutput) {
			oldestOutput = info.ModTime()
		}
	}

	if oldestOutput.After(newestInput) {
		taskLog(ctx, task).Info().
			Msgf("nothing to do (output is %.1f seconds newer)", oldestOutput.Sub(newestInput).Seconds())
		return true, nil
	}

	return false, nil
}

func runTaskInternal(ctx context.Context, task *Task, tasks TaskList, force bool) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	rctx := getRuntimeCtx(ctx)
	status, ok := rctx.runTasks[task.Short]
	if ok {
		if status {
			log(ctx).Debug().Msgf("Task %s already run", task.Short)
			return nil
		}

		return eris.Errorf("task %s was called recursively", task.Short)
	}

	rctx.runTasks[task.Short] = false

	for _, dep := range task.Deps {
		depTask, ok := tasks[dep]
		if !ok {
			return eris.Errorf("task %s not found (required by %s)", dep, task.Short)
		}

		err := runTaskInternal(ctx, depTask, tasks, false)
		if err != nil {
			taskLog(ctx, task).Warn().Msgf("aborted because its dependency %s failed", dep)
			return err
		}
	}

	if !force {
		skip, err := upToDate(ctx, task)
		if err != nil {
			return err
		}

		if skip {
			rctx.runTasks[task.Short] = true
			return nil
		}
	}

	runner, err := newShell(task.Base, mergeEnv(task.Env, task.PathPrefix), rctx.opts.Stdin, rctx.opts.Stdout, rctx.opts.Stderr)
	if err != nil {
		return err
	}

	parser := syntax.NewParser()
	printer := syntax.NewPrinter(syntax.Minify(true))
	strBuffer := strings.Builder{}

	for _, item := range task.Cmds {
		stmts, err := item.ToShellStmts(parser)
		if err != nil {
			return eris.Wrap(err, "failed to parse shell script")
		}

		if stmts == nil {
			subTask, err := item.ToTask()
			if err != nil {
				return eris.Wrap(err, "failed to retrieve task ref")
			}

			if subTask == nil {
				// empty script
				continue
			}

			err = runTaskInternal(ctx, subTask, tasks, force)
			if err != nil {
				return err
			}
			continue
		}

		for _, stm := range stmts {
			strBuffer.Reset()
			if err := printer.Print(&strBuffer, stm); err != nil {
				return eris.Wrap(err, "failed to print command")
			}

			taskLog(ctx, task).Info().
				Bool("command", true).
				Msg(strBuffer.String())

			if rctx.opts.DryRun {
				continue
			}

			err = runner.Run(ctx, stm)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}

				status, ok := interp.IsExitStatus(err)
				if !ok {
					return eris.Wrapf(err, "task %s: failed to run %s", task.Short, strBuffer.String())
				}

				return &CommandError{
					Task:    task.Short,
					Command: strBuffer.String(),
					Status:  status,
					Err:     err,
				}
			}

			if runner.Exited() {
				// an explicit exit 0 ends the task successfully
				rctx.runTasks[task.Short] = true
				return nil
			}
		}

		if err = ctx.Err(); err != nil {
			return err
		}
	}

	rctx.runTasks[task.Short] = true
	return nil
}
