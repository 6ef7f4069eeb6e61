package posix

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rotisserie/eris"
	"github.com/spf13/pflag"
)

// RemoveOptions mirrors the flags of rm
type RemoveOptions struct {
	Recursive bool
	// Force suppresses errors caused by missing files or folders
	Force bool
}

// Commands lists the command names Run can handle
var Commands = []string{"rm", "mv", "mkdir"}

// IsCommand returns true if name is handled by Run
func IsCommand(name string) bool {
	for _, cmd := range Commands {
		if cmd == name {
			return true
		}
	}
	return false
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

func absolute(dir, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(dir, path)
}

// resolve turns the passed arguments into absolute paths. Patterns are expanded here because
// the shell leaves patterns without matches untouched (and Windows shells never expand them).
func resolve(dir string, args []string, allowEmpty bool) ([]string, error) {
	items := make([]string, 0, len(args))
	for _, arg := range args {
		path := absolute(dir, arg)
		if !hasMeta(arg) && runtime.GOOS != "windows" {
			items = append(items, path)
			continue
		}

		matches, err := doublestar.FilepathGlob(path)
		if err != nil {
			return nil, eris.Wrapf(err, "failed to resolve pattern %s", arg)
		}

		if len(matches) == 0 {
			if !hasMeta(arg) {
				// plain path on Windows
				items = append(items, path)
				continue
			}

			if allowEmpty {
				continue
			}
			return nil, eris.Errorf("pattern %s produced no matches", arg)
		}

		items = append(items, matches...)
	}

	return items, nil
}

// Remove deletes the passed paths relative to dir. Every path is checked before anything is
// deleted.
func Remove(dir string, args []string, opts RemoveOptions) error {
	items, err := resolve(dir, args, opts.Force)
	if err != nil {
		return err
	}

	targets := make([]string, 0, len(items))
	for _, item := range items {
		info, err := os.Lstat(item)
		if err != nil {
			if opts.Force && eris.Is(err, os.ErrNotExist) {
				continue
			}
			return eris.Wrapf(err, "could not stat %s", item)
		}

		if info.IsDir() && !opts.Recursive {
			return eris.Errorf("%s is a directory but -r wasn't passed", item)
		}
		targets = append(targets, item)
	}

	for _, item := range targets {
		err := os.RemoveAll(item)
		if err != nil && (!opts.Force || !eris.Is(err, os.ErrNotExist)) {
			return eris.Wrapf(err, "could not delete %s", item)
		}
	}

	return nil
}

// Move moves the passed sources into the last argument. With a single source, the destination
// may also be a new name.
func Move(dir string, args []string) error {
	if len(args) < 2 {
		return eris.New("not enough parameters")
	}

	dest := absolute(dir, args[len(args)-1])
	destParent := filepath.Dir(dest)
	info, err := os.Stat(destParent)
	if err != nil {
		return eris.Wrapf(err, "could not find destination directory %s", destParent)
	}

	if !info.IsDir() {
		return eris.Errorf("%s is not a directory", destParent)
	}

	destIsDir := false
	info, err = os.Stat(dest)
	if err == nil {
		destIsDir = info.IsDir()
	} else if !eris.Is(err, os.ErrNotExist) {
		return eris.Wrapf(err, "failed to retrieve info about destination %s", dest)
	}

	items, err := resolve(dir, args[:len(args)-1], false)
	if err != nil {
		return err
	}

	if len(items) > 1 && !destIsDir {
		return eris.Errorf("can't move multiple items to %s because it is not a directory", dest)
	}

	for _, item := range items {
		itemDest := dest
		if destIsDir {
			itemDest = filepath.Join(dest, filepath.Base(item))
		}

		err = os.Rename(item, itemDest)
		if err != nil {
			return eris.Wrapf(err, "failed to move %s to %s", item, itemDest)
		}
	}

	return nil
}

// Mkdir creates the passed directories relative to dir
func Mkdir(dir string, args []string, parents bool) error {
	for _, item := range args {
		path := absolute(dir, item)

		var err error
		if parents {
			err = os.MkdirAll(path, 0o755)
		} else {
			err = os.Mkdir(path, 0o755)
		}

		if err != nil {
			return eris.Wrapf(err, "failed to create %s", item)
		}
	}

	return nil
}

// Run parses a full command line (i.e. ["rm", "-rf", "dist"]) and executes it in dir.
func Run(dir string, args []string) error {
	if len(args) == 0 {
		return eris.New("missing command")
	}

	flags := pflag.NewFlagSet(args[0], pflag.ContinueOnError)
	flags.SetOutput(io.Discard)

	switch args[0] {
	case "rm":
		var opts RemoveOptions
		flags.BoolVarP(&opts.Recursive, "recursive", "r", false, "recursively delete directories")
		flags.BoolVarP(&opts.Force, "force", "f", false, "ignore missing files")
		if err := flags.Parse(args[1:]); err != nil {
			return eris.Wrap(err, "rm")
		}
		return Remove(dir, flags.Args(), opts)
	case "mv":
		if err := flags.Parse(args[1:]); err != nil {
			return eris.Wrap(err, "mv")
		}
		return Move(dir, flags.Args())
	case "mkdir":
		parents := flags.BoolP("parents", "p", false, "create parent directories as needed")
		if err := flags.Parse(args[1:]); err != nil {
			return eris.Wrap(err, "mkdir")
		}
		return Mkdir(dir, flags.Args(), *parents)
	}

	return eris.Errorf("unsupported command %s", args[0])
}
