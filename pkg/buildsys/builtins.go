package buildsys

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.starlark.net/starlark"
	"gopkg.in/yaml.v3"
	"mvdan.cc/sh/v3/syntax"
)

func resolvePath(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	base := ""
	ctx := getCtx(thread)

	for _, kv := range kwargs {
		key := kv[0].(starlark.String).GoString()
		if key != "base" {
			return nil, eris.Errorf("%s: unexpected keyword argument %s", fn.Name(), key)
		}

		switch value := kv[1].(type) {
		case starlark.String:
			base = value.GoString()
		case StarlarkPath:
			base = string(value)
		default:
			return nil, eris.Errorf("%s: invalid type %s for keyword base, expected string or path", fn.Name(), kv[1].Type())
		}

		base = normalizePath(ctx, base)
	}

	if len(args) < 1 {
		return nil, eris.Errorf("%s: expects at least one argument", fn.Name())
	}

	parts := make([]string, len(args))
	for idx, path := range args {
		switch value := path.(type) {
		case starlark.String:
			parts[idx] = value.GoString()
		case StarlarkPath:
			parts[idx] = string(value)
		default:
			return nil, eris.Errorf("%s: only accepts string arguments but argument %d was a %s", fn.Name(), idx, path.Type())
		}
	}

	normPath := normalizePath(ctx, parts...)
	if base != "" {
		var err error
		normPath, err = filepath.Rel(base, normPath)
		if err != nil {
			return nil, err
		}
	}

	return StarlarkPath(normPath), nil
}

func starInfo(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var message string

	err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &message)
	if err != nil {
		return nil, err
	}

	info(thread, "%s", message)
	return starlark.None, nil
}

func starWarn(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var message string

	err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &message)
	if err != nil {
		return nil, err
	}

	warn(thread, "%s", message)
	return starlark.None, nil
}

func starError(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var message string

	err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &message)
	if err != nil {
		return nil, err
	}

	return nil, eris.New(message)
}

func getenv(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var key string
	var fallback string

	err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &key, &fallback)
	if err != nil {
		return nil, err
	}

	ctx := getCtx(thread)
	if envKey(key) == "PATH" {
		return starlark.String(ctx.searchPath()), nil
	}

	value, ok := ctx.envOverrides[key]
	if !ok {
		value, ok = ctx.lookupEnv(key)
	}

	if !ok {
		value = fallback
	}

	return starlark.String(value), nil
}

func setenv(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var key string
	var value string

	err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 2, &key, &value)
	if err != nil {
		return nil, err
	}

	getCtx(thread).envOverrides[key] = value
	return starlark.True, nil
}

func prependPathDir(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var pathDir string

	if len(args) != 1 {
		return nil, eris.Errorf("%s: got %d arguments, want 1", fn.Name(), len(args))
	}

	switch value := args[0].(type) {
	case starlark.String:
		pathDir = value.GoString()
	case StarlarkPath:
		pathDir = string(value)
	default:
		return nil, eris.Errorf("%s: for parameter 1: got %s, want path or string", fn.Name(), args[0].Type())
	}

	ctx := getCtx(thread)
	ctx.pathPrefix = append([]string{normalizePath(ctx, pathDir)}, ctx.pathPrefix...)

	return starlark.String(ctx.searchPath()), nil
}

// lookupKey follows a dotted key (i.e. "project.versions.0") through a decoded YAML document
func lookupKey(doc interface{}, key string) (interface{}, bool) {
	value := doc
	for _, part := range strings.Split(key, ".") {
		switch node := value.(type) {
		case map[string]interface{}:
			next, ok := node[part]
			if !ok {
				return nil, false
			}
			value = next
		case []interface{}:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			value = node[idx]
		default:
			return nil, false
		}
	}

	return value, value != nil
}

func readYaml(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var yamlFile string
	var yamlKey string
	var defaultValue starlark.Value = starlark.None

	err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 2, &yamlFile, &yamlKey, &defaultValue)
	if err != nil {
		return nil, err
	}

	ctx := getCtx(thread)
	yamlFile = normalizePath(ctx, yamlFile)

	doc, loaded := ctx.yamlCache[yamlFile]
	if !loaded {
		content, err := os.ReadFile(yamlFile)
		if err != nil {
			return nil, eris.Wrapf(err, "failed to open file %s", yamlFile)
		}

		err = yaml.Unmarshal(content, &doc)
		if err != nil {
			return nil, eris.Wrapf(err, "failed to parse file %s", yamlFile)
		}

		ctx.yamlCache[yamlFile] = doc
	}

	value, found := lookupKey(doc, yamlKey)
	if !found {
		return defaultValue, nil
	}

	return interfaceToStarlark(value)
}

func starIsdir(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var dirPath string

	err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &dirPath)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(normalizePath(getCtx(thread), dirPath))
	return starlark.Bool(err == nil && info.IsDir()), nil
}

func starIsfile(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var filePath string

	err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &filePath)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(normalizePath(getCtx(thread), filePath))
	return starlark.Bool(err == nil && info.Mode().IsRegular()), nil
}

// starExec runs a command while the task file is evaluated and returns its output (or False if
// it failed). With format="json" the output is decoded.
func starExec(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var command starlark.Value
	var outputFormat string
	var showError bool

	err := starlark.UnpackArgs(fn.Name(), args, kwargs, "command", &command, "format?", &outputFormat, "show_error?", &showError)
	if err != nil {
		return nil, err
	}

	if outputFormat == "" {
		outputFormat = "text"
	}

	if outputFormat != "text" && outputFormat != "json" {
		return nil, eris.Errorf("%s: unsupported format %s", fn.Name(), outputFormat)
	}

	var shellCmd []syntax.Node
	parser := syntax.NewParser()
	ctx := getCtx(thread)
	base := filepath.Dir(ctx.filepath)

	switch command := command.(type) {
	case starlark.String:
		part := TaskCmdScript{
			TaskName: fn.Name(),
			Content:  command.GoString(),
		}

		stmts, err := part.ToShellStmts(parser)
		if err != nil {
			return nil, err
		}

		for _, stmt := range stmts {
			shellCmd = append(shellCmd, stmt)
		}
	case starlark.Tuple:
		expr, err := processCmdParts(command, parser, base)
		if err != nil {
			return nil, err
		}

		shellCmd = []syntax.Node{expr}
	default:
		return nil, eris.Errorf("%s: unexpected type %s for command parameter, only strings and tuples are valid", fn.Name(), command.Type())
	}

	outputBuffer := strings.Builder{}
	errOut := &strings.Builder{}

	ctx.volatile = true
	runner, err := newShell(base, mergeEnv(ctx.envOverrides, ctx.pathPrefix), nil, &outputBuffer, errOut)
	if err != nil {
		return nil, err
	}

	for _, cmd := range shellCmd {
		err := runner.Run(ctx.ctx, cmd)
		if err != nil {
			if showError {
				log(ctx.ctx).Error().Err(err).Str("stderr", errOut.String()).Msg("shell error")
			}
			return starlark.False, nil
		}
	}

	if outputFormat == "json" {
		var decoded interface{}
		err = json.Unmarshal([]byte(outputBuffer.String()), &decoded)
		if err != nil {
			return nil, eris.Wrap(err, "failed to parse command output")
		}

		return interfaceToStarlark(decoded)
	}

	return starlark.String(outputBuffer.String()), nil
}
