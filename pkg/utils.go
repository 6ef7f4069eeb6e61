package pkg

import (
	"os"
	"path/filepath"

	"github.com/mitchellh/colorstring"
	"github.com/rotisserie/eris"
)

// ErrNotFound is returned by FindUpwards if none of the parent directories contains the
// requested entry
var ErrNotFound = eris.New("not found")

// FindUpwards walks from start towards the filesystem root and returns the path of the first
// entry called name.
func FindUpwards(start, name string) (string, error) {
	path, err := filepath.Abs(start)
	if err != nil {
		return "", eris.Wrapf(err, "failed to resolve %s", start)
	}

	for {
		candidate := filepath.Join(path, name)
		_, err := os.Stat(candidate)
		if err == nil {
			return candidate, nil
		}

		if !eris.Is(err, os.ErrNotExist) {
			return "", eris.Wrapf(err, "failed to check %s", candidate)
		}

		parent := filepath.Dir(path)
		if parent == path {
			break
		}
		path = parent
	}

	return "", eris.Wrapf(ErrNotFound, "no %s in %s or any of its parents", name, start)
}

// GetProjectRoot returns the directory of the closest task file above start. Tasks run relative
// to it and it's where tools.go and .tools live.
func GetProjectRoot(start, taskFile string) (string, error) {
	taskPath, err := FindUpwards(start, taskFile)
	if err != nil {
		return "", eris.Wrap(err, "project root not found")
	}

	return filepath.Dir(taskPath), nil
}

func PrintTask(msg string) {
	colorstring.Printf("[blue][bold]==>[reset] %s\n", msg)
}

func PrintSubtask(msg string) {
	colorstring.Printf("[green][bold]  ->[reset] %s\n", msg)
}

func PrintWarning(msg string) {
	colorstring.Printf("[yellow][bold]  ->[reset] %s\n", msg)
}

func PrintError(msg string) {
	colorstring.Printf("[red][bold]  ->[reset] %s\n", msg)
}
