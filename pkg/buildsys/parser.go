package buildsys

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/aidarkhanov/nanoid"
	"github.com/rotisserie/eris"
	"go.starlark.net/starlark"
	"mvdan.cc/sh/v3/syntax"
)

// ReservedTaskName can't be used by task scripts since it names the script's entry point
const ReservedTaskName = "configure"

type parserCtx struct {
	ctx          context.Context
	options      map[string]ScriptOption
	optionValues map[string]string
	envOverrides map[string]string
	envReads     map[string]EnvValue
	pathPrefix   []string
	volatile     bool
	yamlCache    map[string]interface{}
	filepath     string
	projectRoot  string
	tasks        []*Task
	initPhase    bool
}

func getCtx(thread *starlark.Thread) *parserCtx {
	return thread.Local("parserCtx").(*parserCtx)
}

// quoteWord turns value into a single shell word
func quoteWord(value string) *syntax.Word {
	var wordPart syntax.WordPart

	if value == "" || strings.ContainsAny(value, " \t\n$'\"`\\*?[]{}();&|<>#~") {
		if strings.Contains(value, "'") {
			node := new(syntax.DblQuoted)
			lit := new(syntax.Lit)
			lit.Value = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "$", `\$`, "`", "\\`").Replace(value)
			node.Parts = []syntax.WordPart{lit}
			wordPart = node
		} else {
			node := new(syntax.SglQuoted)
			node.Value = value
			wordPart = node
		}
	} else {
		node := new(syntax.Lit)
		node.Value = value
		wordPart = node
	}

	return &syntax.Word{Parts: []syntax.WordPart{wordPart}}
}

// processCmdParts converts an argv-style command into a shell call. Leading KEY=value parts
// become variable assignments for that call.
func processCmdParts(parts starlark.Tuple, parser *syntax.Parser, base string) (*syntax.CallExpr, error) {
	envVars := make([]string, 0, len(parts))
	for _, part := range parts {
		value, ok := part.(starlark.String)
		if !ok || !strings.Contains(value.GoString(), "=") {
			break
		}
		envVars = append(envVars, value.GoString())
	}

	var cmd *syntax.CallExpr
	if len(envVars) > 0 {
		joinedEnvVars := strings.Join(envVars, " ")
		result, err := parser.Parse(strings.NewReader(joinedEnvVars), "env vars")
		if err != nil {
			return nil, eris.Wrapf(err, "failed to parse command vars %s", joinedEnvVars)
		}

		if len(result.Stmts) != 1 || result.Stmts[0].Cmd == nil {
			return nil, eris.Errorf("malformed env vars %s", joinedEnvVars)
		}

		var ok bool
		cmd, ok = result.Stmts[0].Cmd.(*syntax.CallExpr)
		if !ok || cmd.Assigns == nil {
			return nil, eris.Errorf("malformed env vars %s", joinedEnvVars)
		}
	} else {
		cmd = new(syntax.CallExpr)
	}

	rest := parts[len(envVars):]
	if len(rest) == 0 {
		return nil, eris.New("command has no arguments")
	}

	cmd.Args = make([]*syntax.Word, len(rest))
	for a, arg := range rest {
		var encodedValue string

		switch value := arg.(type) {
		case starlark.String:
			encodedValue = value.GoString()
		case StarlarkPath:
			encodedValue = string(value)

			if filepath.IsAbs(encodedValue) {
				relValue, err := filepath.Rel(base, encodedValue)
				if err == nil {
					encodedValue = relValue
				}
			}

			encodedValue = filepath.ToSlash(encodedValue)
		default:
			return nil, eris.Errorf("found argument of type %s but only strings and paths are supported: %s", arg.Type(), arg.String())
		}

		cmd.Args[a] = quoteWord(encodedValue)
	}

	return cmd, nil
}

func info(thread *starlark.Thread, msg string, args ...interface{}) {
	ctx := getCtx(thread)
	pos := thread.CallFrame(1).Pos

	log(ctx.ctx).Info().
		Msgf("%s:%d:%d: %s", simplifyPath(ctx, ctx.filepath), pos.Line, pos.Col, fmt.Sprintf(msg, args...))
}

func warn(thread *starlark.Thread, msg string, args ...interface{}) {
	ctx := getCtx(thread)
	pos := thread.CallFrame(1).Pos

	log(ctx.ctx).Warn().
		Msgf("%s:%d:%d: %s", simplifyPath(ctx, ctx.filepath), pos.Line, pos.Col, fmt.Sprintf(msg, args...))
}

// * Builtin functions

func option(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	var defaultValue starlark.String
	var help string

	err := starlark.UnpackArgs(fn.Name(), args, kwargs, "name", &name, "default?", &defaultValue, "help?", &help)
	if err != nil {
		return nil, err
	}

	ctx := getCtx(thread)
	if !ctx.initPhase {
		return nil, eris.New("option() can only be called during the init phase (in the global scope)")
	}

	ctx.options[name] = ScriptOption{
		Default: defaultValue.GoString(),
		Help:    help,
	}

	value, ok := ctx.optionValues[name]
	if ok {
		return starlark.String(value), nil
	}

	return defaultValue, nil
}

func commandList(list *starlark.List, taskName string, base string) ([]TaskCmd, error) {
	cmds := make([]TaskCmd, 0)
	if list == nil {
		return cmds, nil
	}

	strBuffer := strings.Builder{}
	printer := syntax.NewPrinter(syntax.Minify(true))
	parser := syntax.NewParser()

	addParts := func(idx int, parts starlark.Tuple) error {
		cmd, err := processCmdParts(parts, parser, base)
		if err != nil {
			return eris.Wrapf(err, "failed to process command #%d", idx)
		}

		strBuffer.Reset()
		err = printer.Print(&strBuffer, cmd)
		if err != nil {
			return eris.Wrapf(err, "failed to process command #%d", idx)
		}

		cmds = append(cmds, TaskCmdScript{TaskName: taskName, Index: idx, Content: strBuffer.String()})
		return nil
	}

	iter := list.Iterate()
	defer iter.Done()

	var item starlark.Value
	for idx := 0; iter.Next(&item); idx++ {
		switch value := item.(type) {
		case starlark.String:
			script := TaskCmdScript{TaskName: taskName, Index: idx, Content: value.GoString()}

			// reject syntax errors while we still know where the command came from
			if _, err := script.ToShellStmts(parser); err != nil {
				return nil, err
			}
			cmds = append(cmds, script)
		case starlark.Tuple:
			if err := addParts(idx, value); err != nil {
				return nil, err
			}
		case *starlark.List:
			parts := make(starlark.Tuple, 0, value.Len())
			subIter := value.Iterate()
			var subItem starlark.Value
			for subIter.Next(&subItem) {
				parts = append(parts, subItem)
			}
			subIter.Done()

			if err := addParts(idx, parts); err != nil {
				return nil, err
			}
		case *Task:
			cmds = append(cmds, TaskCmdTaskRef{Task: value})
		default:
			return nil, eris.Errorf("unexpected type %s in cmds. Only strings, tuples, lists and tasks are valid", item.Type())
		}
	}

	return cmds, nil
}

func task(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var deps *starlark.List
	var skipIfExists *starlark.List
	var inputs *starlark.List
	var outputs *starlark.List
	var env *starlark.Dict
	var cmds *starlark.List

	task := new(Task)

	err := starlark.UnpackArgs(fn.Name(), args, kwargs, "short??", &task.Short, "hidden?", &task.Hidden,
		"desc?", &task.Desc, "deps?", &deps, "base?", &task.Base, "skip_if_exists?", &skipIfExists, "inputs?",
		&inputs, "outputs?", &outputs, "env?", &env, "cmds?", &cmds)
	if err != nil {
		return nil, err
	}

	ctx := getCtx(thread)
	if ctx.initPhase {
		return nil, eris.New("task() can only be called from configure()")
	}

	if task.Short == "" {
		task.Hidden = true
		task.Short = "auto#" + nanoid.New()
	}

	if task.Short == ReservedTaskName {
		return nil, eris.Errorf(`the task name "%s" is reserved, please use a different name`, ReservedTaskName)
	}

	for _, other := range ctx.tasks {
		if other.Short == task.Short {
			return nil, eris.Errorf("task %s is declared more than once", task.Short)
		}
	}

	task.Env = map[string]string{}

	if task.Base == "" {
		task.Base = "."
	}
	task.Base = normalizePath(ctx, task.Base)

	task.Deps, err = starlarkIterable2stringSlice(deps, "deps")
	if err != nil {
		return nil, err
	}

	task.SkipIfExists, err = starlarkIterable2stringSlice(skipIfExists, "skip_if_exists")
	if err != nil {
		return nil, err
	}

	task.Inputs, err = starlarkIterable2stringSlice(inputs, "inputs")
	if err != nil {
		return nil, err
	}

	task.Outputs, err = starlarkIterable2stringSlice(outputs, "outputs")
	if err != nil {
		return nil, err
	}

	if env != nil {
		for _, item := range env.Items() {
			key, ok := item[0].(starlark.String)
			if !ok {
				return nil, eris.Errorf("found key type %s in env map but only strings are supported", item[0].Type())
			}

			value, ok := item[1].(starlark.String)
			if !ok {
				return nil, eris.Errorf("found value of type %s for key %s but only strings are supported", item[1].Type(), key.GoString())
			}

			task.Env[key.GoString()] = value.GoString()
		}
	}

	task.Cmds, err = commandList(cmds, task.Short, task.Base)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: task %s", fn.Name(), task.Short)
	}

	if len(task.Inputs) > 0 && len(task.Outputs) == 0 {
		warn(thread, "%s: task %s has inputs but no outputs", fn.Name(), task.Short)
	}

	ctx.tasks = append(ctx.tasks, task)
	return task, nil
}

// Parse executes a task script and returns the declared tasks together with the script's
// metadata (declared options, environment reads). options contains the values passed on the
// command line. Hidden and inline tasks are part of the result so they can be referenced as
// dependencies.
func Parse(ctx context.Context, filename, projectRoot string, options map[string]string) (TaskList, *ScriptMeta, error) {
	projectRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, nil, err
	}

	filename, err = filepath.Abs(filename)
	if err != nil {
		return nil, nil, err
	}

	if options == nil {
		options = map[string]string{}
	}

	builtins := starlark.StringDict{
		"OS":           starlark.String(runtime.GOOS),
		"ARCH":         starlark.String(runtime.GOARCH),
		"info":         starlark.NewBuiltin("info", starInfo),
		"warn":         starlark.NewBuiltin("warn", starWarn),
		"error":        starlark.NewBuiltin("error", starError),
		"resolve_path": starlark.NewBuiltin("resolve_path", resolvePath),
		"option":       starlark.NewBuiltin("option", option),
		"getenv":       starlark.NewBuiltin("getenv", getenv),
		"setenv":       starlark.NewBuiltin("setenv", setenv),
		"prepend_path": starlark.NewBuiltin("prepend_path", prependPathDir),
		"read_yaml":    starlark.NewBuiltin("read_yaml", readYaml),
		"isdir":        starlark.NewBuiltin("isdir", starIsdir),
		"isfile":       starlark.NewBuiltin("isfile", starIsfile),
		"execute":      starlark.NewBuiltin("execute", starExec),
		"task":         starlark.NewBuiltin("task", task),
	}

	thread := &starlark.Thread{
		Name: "main",
		Print: func(thread *starlark.Thread, msg string) {
			log(ctx).Info().Str("thread", thread.Name).Msg(msg)
		},
	}
	threadCtx := parserCtx{
		ctx:          ctx,
		filepath:     filename,
		projectRoot:  projectRoot,
		options:      make(map[string]ScriptOption),
		optionValues: options,
		envOverrides: make(map[string]string),
		envReads:     make(map[string]EnvValue),
		tasks:        make([]*Task, 0),
		yamlCache:    make(map[string]interface{}),
		initPhase:    true,
	}
	thread.SetLocal("parserCtx", &threadCtx)

	script, err := os.ReadFile(filename)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "failed to read %s", filename)
	}

	globals, err := starlark.ExecFile(thread, simplifyPath(&threadCtx, filename), script, builtins)
	if err != nil {
		if evalError, ok := err.(*starlark.EvalError); ok {
			return nil, nil, eris.Errorf("failed to execute %s:\n%s", simplifyPath(&threadCtx, filename), evalError.Backtrace())
		}
		return nil, nil, eris.Wrapf(err, "failed to execute %s", simplifyPath(&threadCtx, filename))
	}

	for name := range options {
		if _, ok := threadCtx.options[name]; !ok {
			return nil, nil, eris.Errorf("unknown option %s", name)
		}
	}

	configure, ok := globals[ReservedTaskName]
	if !ok {
		return nil, nil, eris.Errorf("%s did not declare a configure function", simplifyPath(&threadCtx, filename))
	}

	configureFunc, ok := configure.(starlark.Callable)
	if !ok {
		return nil, nil, eris.Errorf("%s did declare a configure value but it's not a function", simplifyPath(&threadCtx, filename))
	}

	threadCtx.initPhase = false
	_, err = starlark.Call(thread, configureFunc, nil, nil)
	if err != nil {
		if evalError, ok := err.(*starlark.EvalError); ok {
			return nil, nil, eris.New(evalError.Backtrace())
		}
		return nil, nil, eris.Wrapf(err, "failed configure call in %s", simplifyPath(&threadCtx, filename))
	}

	tasks := TaskList{}
	for _, task := range threadCtx.tasks {
		for name, value := range threadCtx.envOverrides {
			if _, present := task.Env[name]; !present {
				task.Env[name] = value
			}
		}
		task.PathPrefix = append([]string(nil), threadCtx.pathPrefix...)

		tasks[task.Short] = task
	}

	meta := &ScriptMeta{
		Options:  threadCtx.options,
		Env:      threadCtx.envReads,
		Volatile: threadCtx.volatile,
	}

	return tasks, meta, nil
}
