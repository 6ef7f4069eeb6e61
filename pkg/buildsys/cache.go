package buildsys

import (
	"context"
	"encoding/gob"
	"os"
	"path/filepath"
	"reflect"

	"github.com/rotisserie/eris"
)

func init() {
	gob.Register(TaskList{})
	gob.Register(Task{})
	gob.Register(TaskCmdScript{})
	gob.Register(TaskCmdTaskRef{})
}

type cacheContent struct {
	Options map[string]string
	Meta    ScriptMeta
	Tasks   TaskList
}

// WriteCache stores the parsed task list together with the options it was generated for and
// the script's metadata
func WriteCache(file string, options map[string]string, meta *ScriptMeta, list TaskList) error {
	err := os.MkdirAll(filepath.Dir(file), 0o755)
	if err != nil {
		return eris.Wrapf(err, "failed to create cache directory for %s", file)
	}

	handle, err := os.Create(file)
	if err != nil {
		return eris.Wrapf(err, "failed to create %s", file)
	}
	defer handle.Close()

	content := cacheContent{Options: options, Tasks: list}
	if meta != nil {
		content.Meta = *meta
	}

	return eris.Wrap(gob.NewEncoder(handle).Encode(content), "failed to encode tasks")
}

// ReadCache loads a file written by WriteCache
func ReadCache(file string) (map[string]string, *ScriptMeta, TaskList, error) {
	handle, err := os.Open(file)
	if err != nil {
		return nil, nil, nil, err
	}
	defer handle.Close()

	var content cacheContent
	err = gob.NewDecoder(handle).Decode(&content)
	if err != nil {
		return nil, nil, nil, eris.Wrap(err, "failed to decode tasks")
	}

	return content.Options, &content.Meta, content.Tasks, nil
}

func sameOptions(a, b map[string]string) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}

// envChanged reports the first variable whose value differs from what the script saw
func envChanged(reads map[string]EnvValue) (string, bool) {
	for key, seen := range reads {
		value, ok := os.LookupEnv(key)
		if ok != seen.Set || value != seen.Value {
			return key, true
		}
	}

	return "", false
}

// LoadTasks returns the tasks declared in filename. If cacheFile is not empty, a cached result
// is used as long as it's newer than the task file, was generated with the same options and
// every environment variable the script read still has the same value. Scripts calling
// execute() are never cached.
func LoadTasks(ctx context.Context, filename, projectRoot, cacheFile string, options map[string]string) (TaskList, *ScriptMeta, error) {
	if cacheFile != "" {
		scriptInfo, err := os.Stat(filename)
		if err != nil {
			return nil, nil, eris.Wrapf(err, "failed to check %s", filename)
		}

		cacheInfo, err := os.Stat(cacheFile)
		if err == nil && cacheInfo.ModTime().After(scriptInfo.ModTime()) {
			cachedOptions, meta, tasks, err := ReadCache(cacheFile)
			switch {
			case err != nil:
				log(ctx).Warn().Err(err).Str("path", cacheFile).Msg("ignoring unreadable task cache")
			case !sameOptions(cachedOptions, options):
				log(ctx).Debug().Str("path", cacheFile).Msg("options changed, parsing again")
			default:
				if key, changed := envChanged(meta.Env); changed {
					log(ctx).Debug().Str("path", cacheFile).Str("var", key).Msg("environment changed, parsing again")
					break
				}

				log(ctx).Debug().Str("path", cacheFile).Msg("using cached task list")
				return tasks, meta, nil
			}
		}
	}

	tasks, meta, err := Parse(ctx, filename, projectRoot, options)
	if err != nil {
		return nil, nil, err
	}

	if cacheFile != "" {
		if meta.Volatile {
			// drop stale results so the next run doesn't pick them up
			if err := os.Remove(cacheFile); err != nil && !os.IsNotExist(err) {
				log(ctx).Warn().Err(err).Str("path", cacheFile).Msg("failed to remove task cache")
			}
		} else if err := WriteCache(cacheFile, options, meta, tasks); err != nil {
			log(ctx).Warn().Err(err).Str("path", cacheFile).Msg("failed to write task cache")
		}
	}

	return tasks, meta, nil
}
