package buildsys

import (
	"context"
	"fmt"
	"sort"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/lucabello/docker-captain/pkg/posix"
)

// Problem describes a defect found by Check
type Problem struct {
	Task    string
	Message string
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: %s", p.Task, p.Message)
}

// shellBuiltins are the builtins implemented by mvdan.cc/sh/v3/interp
var shellBuiltins = map[string]bool{
	":": true, ".": true, "[": true, "alias": true, "bg": true, "break": true, "builtin": true,
	"cd": true, "command": true, "continue": true, "dirs": true, "echo": true, "eval": true,
	"exec": true, "exit": true, "false": true, "fg": true, "getopts": true, "mapfile": true,
	"popd": true, "printf": true, "pushd": true, "pwd": true, "read": true, "readarray": true,
	"return": true, "set": true, "shift": true, "shopt": true, "source": true, "test": true,
	"trap": true, "true": true, "type": true, "umask": true, "unalias": true, "unset": true,
	"wait": true,
}

// commandNames returns the literal command names used by stmts. Names built from expansions
// (i.e. $GO) can't be resolved statically and are skipped. Functions declared in the script
// are returned separately.
func commandNames(stmts []*syntax.Stmt) (names []string, funcs map[string]bool) {
	funcs = make(map[string]bool)
	for _, stmt := range stmts {
		syntax.Walk(stmt, func(node syntax.Node) bool {
			switch node := node.(type) {
			case *syntax.FuncDecl:
				funcs[node.Name.Value] = true
			case *syntax.CallExpr:
				if len(node.Args) > 0 {
					if lit := node.Args[0].Lit(); lit != "" {
						names = append(names, lit)
					}
				}
			}
			return true
		})
	}

	return names, funcs
}

// Check verifies that every dependency exists and that every command used by the tasks
// resolves to a shell builtin, a script function, an in-process helper or an executable on
// the task's PATH.
func Check(ctx context.Context, tasks TaskList) []Problem {
	problems := make([]Problem, 0)
	names := make([]string, 0, len(tasks))
	for name := range tasks {
		names = append(names, name)
	}
	sort.Strings(names)

	parser := syntax.NewParser()
	for _, name := range names {
		task := tasks[name]

		for _, dep := range task.Deps {
			if _, ok := tasks[dep]; !ok {
				problems = append(problems, Problem{Task: name, Message: fmt.Sprintf("unknown dependency %s", dep)})
			}
		}

		env := expand.ListEnviron(mergeEnv(task.Env, task.PathPrefix)...)
		checked := make(map[string]bool)

		for _, item := range task.Cmds {
			stmts, err := item.ToShellStmts(parser)
			if err != nil {
				problems = append(problems, Problem{Task: name, Message: err.Error()})
				continue
			}

			cmds, funcs := commandNames(stmts)
			for _, cmd := range cmds {
				if checked[cmd] {
					continue
				}
				checked[cmd] = true

				if funcs[cmd] || posix.IsCommand(cmd) || shellBuiltins[cmd] {
					continue
				}

				if _, err := interp.LookPathDir(task.Base, env, cmd); err != nil {
					problems = append(problems, Problem{Task: name, Message: fmt.Sprintf("command %s not found", cmd)})
				}
			}
		}

		log(ctx).Debug().Str("task", name).Int("commands", len(checked)).Msg("checked")
	}

	return problems
}
