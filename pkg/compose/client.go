package compose

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mitchellh/colorstring"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Runner starts external commands
type Runner interface {
	// Run executes the command in the foreground and returns its exit code. err is only set if
	// the command couldn't be started.
	Run(ctx context.Context, name string, args ...string) (int, error)
	// Output executes the command and returns what it printed on stdout
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec and passes the given streams through
type ExecRunner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

var _ Runner = (*ExecRunner)(nil)

// Run doesn't stop the command when ctx is cancelled after it started. Ctrl+C already reaches
// docker compose through the terminal and killing it would cut its shutdown short.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 1, err
	}

	cmd := exec.Command(name, args...)
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return 1, err
	}
	return 0, nil
}

func (r *ExecRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = r.Stderr
	return cmd.Output()
}

// UpOptions are passed to `docker compose up`
type UpOptions struct {
	Detach        bool
	RemoveOrphans bool
}

// DownOptions are passed to `docker compose down`
type DownOptions struct {
	RemoveOrphans bool
}

// Client wraps the `docker compose` CLI
type Client struct {
	binary string
	runner Runner
	out    io.Writer
	log    *zerolog.Logger
}

// NewClient returns a client which runs binary (usually "docker") with the process' stdio
func NewClient(binary string, logger *zerolog.Logger) *Client {
	return NewClientWithRunner(binary, &ExecRunner{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}, os.Stdout, logger)
}

// NewClientWithRunner returns a client that starts commands through runner and prints status
// lines to out
func NewClientWithRunner(binary string, runner Runner, out io.Writer, logger *zerolog.Logger) *Client {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Client{
		binary: binary,
		runner: runner,
		out:    out,
		log:    logger,
	}
}

type lsEntry struct {
	Name        string
	Status      string
	ConfigFiles string
}

// RunningProjects returns the names of the compose projects that are currently running. If
// that can't be determined, a warning is logged and the result is empty.
func (c *Client) RunningProjects(ctx context.Context) []string {
	output, err := c.runner.Output(ctx, c.binary, "compose", "ls", "--format", "json")
	if err != nil {
		var exitErr *exec.ExitError
		// `docker compose ls` exits with 1 if there's nothing to list
		if !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
			c.log.Warn().Err(err).Msg("could not determine running projects")
			return []string{}
		}
	}

	var entries []lsEntry
	if len(strings.TrimSpace(string(output))) > 0 {
		if err := json.Unmarshal(output, &entries); err != nil {
			c.log.Warn().Err(eris.Wrap(err, "failed to parse docker compose ls")).Msg("could not determine running projects")
			return []string{}
		}
	}

	running := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Name != "" && strings.HasPrefix(strings.ToLower(entry.Status), "running") {
			running = append(running, entry.Name)
		}
	}
	return running
}

// Up runs `docker compose up` for the given compose file and returns its exit code
func (c *Client) Up(ctx context.Context, composeFile string, opts UpOptions) int {
	args := []string{}
	if opts.Detach {
		args = append(args, "--detach")
	}
	if opts.RemoveOrphans {
		args = append(args, "--remove-orphans")
	}

	return c.run(ctx, composeFile, "up", args...)
}

// Down runs `docker compose down` for the given compose file and returns its exit code
func (c *Client) Down(ctx context.Context, composeFile string, opts DownOptions) int {
	args := []string{}
	if opts.RemoveOrphans {
		args = append(args, "--remove-orphans")
	}

	return c.run(ctx, composeFile, "down", args...)
}

// Restart runs `docker compose restart` for the given compose file and returns its exit code
func (c *Client) Restart(ctx context.Context, composeFile string) int {
	return c.run(ctx, composeFile, "restart")
}

func (c *Client) run(ctx context.Context, composeFile, action string, extra ...string) int {
	project := filepath.Base(filepath.Dir(composeFile))
	colorstring.Fprintf(c.out, "[blue][bold]──── %s %s ────[reset]\n", strings.ToUpper(action), project)

	args := append([]string{"compose", "--file", composeFile, action}, extra...)
	c.log.Debug().Str("project", project).Strs("args", args).Msg("running docker compose")

	code, err := c.runner.Run(ctx, c.binary, args...)
	if err != nil {
		colorstring.Fprintf(c.out, "[red]Error executing docker compose: %s[reset]\n", err)
		return 1
	}

	if code != 0 {
		colorstring.Fprintf(c.out, "[red]Command failed with exit code %d[reset]\n", code)
		return code
	}

	colorstring.Fprintf(c.out, "[green]✓ %s succeeded for %s[reset]\n", action, project)
	return 0
}
