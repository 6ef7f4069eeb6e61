package buildsys

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.starlark.net/starlark"
)

// normalizePath resolves pathList relative to the directory of the task file. A leading //
// refers to the project root.
func normalizePath(ctx *parserCtx, pathList ...string) string {
	result := filepath.Dir(ctx.filepath)

	for _, path := range pathList {
		if strings.HasPrefix(path, "//") {
			result = filepath.Join(ctx.projectRoot, path[2:])
		} else if strings.HasPrefix(path, "/") && runtime.GOOS == "windows" {
			result = filepath.Join(filepath.VolumeName(result), path)
		} else if !filepath.IsAbs(path) {
			result = filepath.Join(result, path)
		} else {
			result = path
		}
	}

	return filepath.Clean(result)
}

// simplifyPath turns paths inside the project root into // paths for log messages
func simplifyPath(ctx *parserCtx, path string) string {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}

	rel, err := filepath.Rel(ctx.projectRoot, absPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}

	return "//" + filepath.ToSlash(rel)
}

func envKey(name string) string {
	if runtime.GOOS == "windows" {
		return strings.ToUpper(name)
	}
	return name
}

// lookupEnv reads key from the process environment and remembers the result so a cached
// task list can be discarded once the variable changes
func (ctx *parserCtx) lookupEnv(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	ctx.envReads[key] = EnvValue{Value: value, Set: ok}

	return value, ok
}

// searchPath is the PATH tasks will see, prepend_path() directories included
func (ctx *parserCtx) searchPath() string {
	path, ok := ctx.envOverrides["PATH"]
	if !ok {
		path, _ = ctx.lookupEnv("PATH")
	}

	return joinPath(ctx.pathPrefix, path)
}

func joinPath(prefix []string, path string) string {
	if len(prefix) == 0 {
		return path
	}

	parts := append(append([]string(nil), prefix...), path)
	return strings.Join(parts, string(os.PathListSeparator))
}

// mergeEnv returns the process environment with overrides applied. Overridden entries are
// dropped from the base list to avoid duplicates. pathPrefix goes in front of the PATH that's
// current when mergeEnv is called.
func mergeEnv(overrides map[string]string, pathPrefix []string) []string {
	if len(pathPrefix) > 0 {
		withPath := make(map[string]string, len(overrides)+1)
		for k, v := range overrides {
			withPath[k] = v
		}

		path, ok := overrides["PATH"]
		if !ok {
			path = os.Getenv("PATH")
		}
		withPath["PATH"] = joinPath(pathPrefix, path)
		overrides = withPath
	}

	osEnv := os.Environ()
	shellEnv := make([]string, 0, len(osEnv)+len(overrides))

	normalized := make(map[string]bool, len(overrides))
	for k := range overrides {
		normalized[envKey(k)] = true
	}

	for _, item := range osEnv {
		parts := strings.SplitN(item, "=", 2)
		if !normalized[envKey(parts[0])] {
			shellEnv = append(shellEnv, item)
		}
	}

	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		shellEnv = append(shellEnv, fmt.Sprintf("%s=%s", k, overrides[k]))
	}

	return shellEnv
}

type starlarkIterable interface {
	Len() int
	Iterate() starlark.Iterator
}

func starlarkIterable2stringSlice(input starlarkIterable, field string) ([]string, error) {
	if value, ok := input.(*starlark.List); ok && value == nil {
		return []string{}, nil
	}

	result := make([]string, 0, input.Len())
	iter := input.Iterate()
	defer iter.Done()

	var item starlark.Value
	for iter.Next(&item) {
		switch value := item.(type) {
		case starlark.String:
			result = append(result, value.GoString())
		case StarlarkPath:
			result = append(result, string(value))
		default:
			return nil, eris.Errorf("expected all items in %s to be strings but found %s", field, item.Type())
		}
	}
	return result, nil
}

func shellReadDir(path string) ([]fs.FileInfo, error) {
	if path == "" {
		path = "."
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	result := make([]fs.FileInfo, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		result = append(result, info)
	}
	return result, nil
}

func interfaceToStarlark(value interface{}) (starlark.Value, error) {
	switch value := value.(type) {
	case nil:
		return starlark.None, nil
	case string:
		return starlark.String(value), nil
	case int:
		return starlark.MakeInt(value), nil
	case int64:
		return starlark.MakeInt64(value), nil
	case bool:
		return starlark.Bool(value), nil
	case float32:
		return starlark.Float(value), nil
	case float64:
		return starlark.Float(value), nil
	case []string:
		items := make(starlark.Tuple, len(value))
		for idx, raw := range value {
			items[idx] = starlark.String(raw)
		}

		return items, nil
	case map[string]string:
		dict := starlark.NewDict(len(value))
		for k, v := range value {
			err := dict.SetKey(starlark.String(k), starlark.String(v))
			if err != nil {
				return nil, err
			}
		}

		return dict, nil
	}

	refValue := reflect.ValueOf(value)
	switch refValue.Kind() {
	case reflect.Slice, reflect.Array:
		tuple := make(starlark.Tuple, refValue.Len())
		for idx := 0; idx < refValue.Len(); idx++ {
			item, err := interfaceToStarlark(refValue.Index(idx).Interface())
			if err != nil {
				return nil, err
			}
			tuple[idx] = item
		}

		return tuple, nil
	case reflect.Map:
		dict := starlark.NewDict(refValue.Len())
		iter := refValue.MapRange()
		for iter.Next() {
			key, err := interfaceToStarlark(iter.Key().Interface())
			if err != nil {
				return nil, err
			}

			item, err := interfaceToStarlark(iter.Value().Interface())
			if err != nil {
				return nil, err
			}

			err = dict.SetKey(key, item)
			if err != nil {
				return nil, err
			}
		}

		return dict, nil
	}

	return nil, eris.Errorf("encountered unsupported type %v", refValue.Kind())
}
