package buildsys

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.starlark.net/starlark"
	starsyntax "go.starlark.net/syntax"
	"mvdan.cc/sh/v3/syntax"
)

// Task is a single entry of tasks.star as declared by task(). Paths are absolute, Deps and
// task references point at other entries of the same TaskList.
type Task struct {
	Short        string
	Desc         string
	Base         string
	Hidden       bool
	Deps         []string
	Inputs       []string
	Outputs      []string
	SkipIfExists []string
	Cmds         []TaskCmd
	// Env holds the task's own variables plus everything set with setenv()
	Env map[string]string
	// PathPrefix lists the prepend_path() directories. They're put in front of PATH when the
	// task runs, not when the script is parsed, so cached tasks follow the caller's PATH.
	PathPrefix []string
}

// TaskList indexes tasks by their short name
type TaskList map[string]*Task

// Names returns the sorted names of all visible tasks
func (l TaskList) Names() []string {
	names := make([]string, 0, len(l))
	for name, task := range l {
		if !task.Hidden {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	return names
}

// TaskCmd is one step of a task. Script steps yield shell statements, task references
// yield the nested task; the other method returns nil.
type TaskCmd interface {
	ToTask() (*Task, error)
	ToShellStmts(*syntax.Parser) ([]*syntax.Stmt, error)
}

// TaskCmdScript is shell source from a cmds entry. Index is the entry's position and only
// used to label parser errors.
type TaskCmdScript struct {
	TaskName string
	Index    int
	Content  string
}

func (s TaskCmdScript) ToShellStmts(parser *syntax.Parser) ([]*syntax.Stmt, error) {
	file, err := parser.Parse(strings.NewReader(s.Content), fmt.Sprintf("%s:%d", s.TaskName, s.Index))
	if err != nil {
		return nil, eris.Wrapf(err, "task %s: invalid command %q", s.TaskName, s.Content)
	}

	return file.Stmts, nil
}

func (TaskCmdScript) ToTask() (*Task, error) { return nil, nil }

// TaskCmdTaskRef runs another task (usually an inline one) in place
type TaskCmdTaskRef struct {
	Task *Task
}

func (r TaskCmdTaskRef) ToTask() (*Task, error) { return r.Task, nil }

func (TaskCmdTaskRef) ToShellStmts(*syntax.Parser) ([]*syntax.Stmt, error) { return nil, nil }

// ScriptOption is declared with option() and set with name=value on the command line
type ScriptOption struct {
	Default string
	Help    string
}

// EnvValue is an environment variable as seen while the script was evaluated
type EnvValue struct {
	Value string
	Set   bool
}

// ScriptMeta describes a parsed script beyond its tasks. It's stored next to the tasks in the
// cache and decides whether the cached list is still valid.
type ScriptMeta struct {
	Options map[string]ScriptOption
	// Env records every variable the script read from the process environment
	Env map[string]EnvValue
	// Volatile is set once the script called execute(). Its result can't be cached.
	Volatile bool
}

// OptionNames returns the declared options in alphabetical order
func (m *ScriptMeta) OptionNames() []string {
	if m == nil {
		return nil
	}

	names := make([]string, 0, len(m.Options))
	for name := range m.Options {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// RunOptions controls a RunTask() call
type RunOptions struct {
	DryRun bool
	// Force skips the up-to-date check of the requested task (not of its dependencies)
	Force bool
	// Nil streams fall back to os.Stdin, os.Stdout and os.Stderr
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// * Starlark values

// task() returns *Task so scripts can nest tasks in cmds and read a few fields back
var (
	_ starlark.HasAttrs  = (*Task)(nil)
	_ starlark.Sliceable = StarlarkPath("")
)

func (t *Task) String() string {
	if t.Hidden {
		return fmt.Sprintf("task(%q, hidden)", t.Short)
	}
	return fmt.Sprintf("task(%q)", t.Short)
}

func (t *Task) Type() string         { return "task" }
func (t *Task) Freeze()              {}
func (t *Task) Truth() starlark.Bool { return starlark.True }

// Hash uses the name; task names are unique within a script
func (t *Task) Hash() (uint32, error) {
	return starlark.String(t.Short).Hash()
}

func (t *Task) Attr(name string) (starlark.Value, error) {
	switch name {
	case "name":
		return starlark.String(t.Short), nil
	case "desc":
		return starlark.String(t.Desc), nil
	case "base":
		return StarlarkPath(t.Base), nil
	case "deps":
		deps := make([]starlark.Value, len(t.Deps))
		for idx, dep := range t.Deps {
			deps[idx] = starlark.String(dep)
		}
		return starlark.Tuple(deps), nil
	}

	return nil, nil
}

func (t *Task) AttrNames() []string {
	return []string{"base", "deps", "desc", "name"}
}

// StarlarkPath is what resolve_path() returns. It behaves like a string in scripts but is
// rewritten relative to the task's base directory when used as a command argument.
type StarlarkPath string

func (p StarlarkPath) str() starlark.String { return starlark.String(p) }

func (p StarlarkPath) String() string        { return p.str().String() }
func (p StarlarkPath) Type() string          { return "path" }
func (p StarlarkPath) Freeze()               {}
func (p StarlarkPath) Truth() starlark.Bool  { return p != "" }
func (p StarlarkPath) Hash() (uint32, error) { return p.str().Hash() }
func (p StarlarkPath) Len() int              { return p.str().Len() }

func (p StarlarkPath) Index(i int) starlark.Value { return p.str().Index(i) }

func (p StarlarkPath) Slice(start, end, step int) starlark.Value {
	return p.str().Slice(start, end, step)
}

func (p StarlarkPath) CompareSameType(op starsyntax.Token, other starlark.Value, depth int) (bool, error) {
	return p.str().CompareSameType(op, other.(StarlarkPath).str(), depth)
}
