package pkg

import (
	"fmt"
	"go/parser"
	"go/token"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// InstallTools installs the tools imported by the tools.go file in projectRoot into
// projectRoot/.tools. The lint and format tasks prepend that directory to PATH.
func InstallTools(projectRoot string) error {
	binPath := filepath.Join(projectRoot, ".tools")
	toolsFile := filepath.Join(projectRoot, "tools.go")

	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, toolsFile, nil, parser.ImportsOnly)
	if err != nil {
		return eris.Wrapf(err, "failed to parse %s", toolsFile)
	}

	for _, path := range f.Imports {
		dep := strings.Trim(path.Path.Value, `"`)
		PrintSubtask(dep)

		cmd := exec.Command("go", "install", dep)
		cmd.Dir = projectRoot
		cmd.Env = append(os.Environ(), fmt.Sprintf("GOBIN=%s", binPath))
		cmd.Stderr = os.Stderr
		cmd.Stdout = os.Stdout
		err := cmd.Run()
		if err != nil {
			return eris.Wrapf(err, "failed to install %s", dep)
		}
	}

	return nil
}
