package compose

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rotisserie/eris"
)

// FileNames lists the compose file names in the order they are looked for
var FileNames = []string{
	"compose.yaml",
	"compose.yml",
	"docker-compose.yaml",
	"docker-compose.yml",
}

// Projects maps project names to the path of their compose file
type Projects map[string]string

// Names returns the project names in alphabetical order
func (p Projects) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ProjectMissing is returned if a project isn't among the discovered ones
type ProjectMissing struct {
	Name string
}

var _ error = (*ProjectMissing)(nil)

func (e *ProjectMissing) Error() string {
	return fmt.Sprintf("no such project: %s", e.Name)
}

// Discover returns every direct sub-directory of root which contains a compose file. A missing
// root isn't an error and results in an empty list.
func Discover(root string) (Projects, error) {
	projects := Projects{}

	entries, err := os.ReadDir(root)
	if err != nil {
		if eris.Is(err, os.ErrNotExist) {
			return projects, nil
		}
		return nil, eris.Wrapf(err, "failed to list %s", root)
	}

	for _, entry := range entries {
		dir := filepath.Join(root, entry.Name())
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			continue
		}

		for _, name := range FileNames {
			candidate := filepath.Join(dir, name)
			info, err := os.Stat(candidate)
			if err == nil && info.Mode().IsRegular() {
				projects[entry.Name()] = candidate
				break
			}
		}
	}

	return projects, nil
}

// Require returns the compose file of the named project
func (p Projects) Require(name string) (string, error) {
	path, ok := p[name]
	if !ok {
		return "", &ProjectMissing{Name: name}
	}
	return path, nil
}
