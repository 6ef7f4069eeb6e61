package buildsys

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, content string) (string, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.star")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return dir, path
}

func parseScript(t *testing.T, content string, options map[string]string) (string, TaskList) {
	t.Helper()

	dir, path := writeScript(t, content)
	tasks, _, err := Parse(context.Background(), path, dir, options)
	require.NoError(t, err)
	return dir, tasks
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(content)
}

func TestParse(t *testing.T) {
	_, tasks := parseScript(t, `
registry = option("registry", default="ghcr.io", help="where images are pushed")

def configure():
    task(short="lint", desc="Run linters", cmds=["echo lint"])
    task(short="publish", desc="Publish to " + registry, deps=["lint"], cmds=[("echo", "it's done")])
    task(short="internal", hidden=True, cmds=["echo hidden"])
`, map[string]string{"registry": "example.com"})

	require.Contains(t, tasks, "lint")
	require.Contains(t, tasks, "publish")
	require.Contains(t, tasks, "internal")

	assert.Equal(t, "Run linters", tasks["lint"].Desc)
	assert.Equal(t, "Publish to example.com", tasks["publish"].Desc)
	assert.Equal(t, []string{"lint"}, tasks["publish"].Deps)
	assert.True(t, tasks["internal"].Hidden)

	require.Len(t, tasks["publish"].Cmds, 1)
	script, ok := tasks["publish"].Cmds[0].(TaskCmdScript)
	require.True(t, ok)
	assert.Equal(t, `echo "it's done"`, script.Content)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		options map[string]string
	}{
		{
			name: "duplicate task",
			script: `
def configure():
    task(short="build", cmds=["echo a"])
    task(short="build", cmds=["echo b"])
`,
		},
		{
			name: "reserved name",
			script: `
def configure():
    task(short="configure", cmds=["echo a"])
`,
		},
		{
			name:   "missing configure",
			script: `x = 1`,
		},
		{
			name: "unknown option",
			script: `
def configure():
    task(short="build", cmds=["echo a"])
`,
			options: map[string]string{"nope": "1"},
		},
		{
			name: "shell syntax error",
			script: `
def configure():
    task(short="build", cmds=["echo 'unterminated"])
`,
		},
		{
			name: "task outside configure",
			script: `
task(short="build", cmds=["echo a"])

def configure():
    pass
`,
		},
		{
			name: "error builtin",
			script: `
def configure():
    error("missing toolchain")
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, path := writeScript(t, tt.script)
			_, _, err := Parse(context.Background(), path, dir, tt.options)
			assert.Error(t, err)
		})
	}
}

func TestRunTaskExecutesCommandsInOrder(t *testing.T) {
	dir, tasks := parseScript(t, `
def configure():
    task(short="build", cmds=["echo one >> log.txt", "echo two >> log.txt", ["echo", "three four"]])
`, nil)

	var stdout bytes.Buffer
	err := RunTask(context.Background(), dir, "build", tasks, RunOptions{Stdout: &stdout})
	require.NoError(t, err)

	assert.Equal(t, "one\ntwo\n", readFile(t, filepath.Join(dir, "log.txt")))
	assert.Equal(t, "three four\n", stdout.String())
}

func TestRunTaskAbortsOnFailure(t *testing.T) {
	dir, tasks := parseScript(t, `
def configure():
    task(short="lint", cmds=["echo one >> log.txt", "exit 3", "echo two >> log.txt"])
    task(short="release", deps=["lint"], cmds=["echo released >> log.txt"])
`, nil)

	err := RunTask(context.Background(), dir, "release", tasks, RunOptions{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}})
	require.Error(t, err)

	status, ok := ExitStatus(err)
	require.True(t, ok)
	assert.Equal(t, uint8(3), status)
	assert.Equal(t, "one\n", readFile(t, filepath.Join(dir, "log.txt")))
}

func TestRunTaskDependenciesRunOnce(t *testing.T) {
	dir, tasks := parseScript(t, `
def configure():
    task(short="clean", cmds=["echo clean >> log.txt"])
    task(short="build", deps=["clean"], cmds=["echo build >> log.txt"])
    task(short="release", deps=["clean", "build"], cmds=["echo release >> log.txt"])
`, nil)

	err := RunTask(context.Background(), dir, "release", tasks, RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, "clean\nbuild\nrelease\n", readFile(t, filepath.Join(dir, "log.txt")))
}

func TestRunTaskRecursion(t *testing.T) {
	dir, tasks := parseScript(t, `
def configure():
    task(short="a", deps=["b"], cmds=["echo a"])
    task(short="b", deps=["a"], cmds=["echo b"])
`, nil)

	err := RunTask(context.Background(), dir, "a", tasks, RunOptions{Stdout: &bytes.Buffer{}})
	assert.Error(t, err)
}

func TestRunTaskUnknown(t *testing.T) {
	err := RunTask(context.Background(), t.TempDir(), "missing", TaskList{}, RunOptions{})
	assert.Error(t, err)
}

func TestRunTaskInlineTask(t *testing.T) {
	dir, tasks := parseScript(t, `
def configure():
    prepare = task(cmds=["echo prepare >> log.txt"])
    task(short="build", cmds=[prepare, "echo build >> log.txt"])
`, nil)

	err := RunTask(context.Background(), dir, "build", tasks, RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, "prepare\nbuild\n", readFile(t, filepath.Join(dir, "log.txt")))
}

func TestCleanToleratesMissingTargets(t *testing.T) {
	dir, tasks := parseScript(t, `
def configure():
    task(short="clean", cmds=["rm -rf dist build coverage.out", "mkdir -p dist/bin", "rm -r dist"])
`, nil)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "coverage.out"), []byte("mode: set"), 0o644))

	err := RunTask(context.Background(), dir, "clean", tasks, RunOptions{})
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "coverage.out"))
	assert.NoDirExists(t, filepath.Join(dir, "dist"))

	// running it again on a clean tree still succeeds
	require.NoError(t, RunTask(context.Background(), dir, "clean", tasks, RunOptions{}))
}

func TestRemoveWithoutForceFails(t *testing.T) {
	dir, tasks := parseScript(t, `
def configure():
    task(short="clean", cmds=["rm dist"])
`, nil)

	err := RunTask(context.Background(), dir, "clean", tasks, RunOptions{Stderr: &bytes.Buffer{}})
	require.Error(t, err)

	status, ok := ExitStatus(err)
	require.True(t, ok)
	assert.Equal(t, uint8(1), status)
}

func TestRunTaskDryRun(t *testing.T) {
	dir, tasks := parseScript(t, `
def configure():
    task(short="build", cmds=["echo build >> log.txt"])
`, nil)

	err := RunTask(context.Background(), dir, "build", tasks, RunOptions{DryRun: true})
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "log.txt"))
}

func TestRunTaskSkipsUpToDateOutputs(t *testing.T) {
	dir, tasks := parseScript(t, `
def configure():
    task(short="build", inputs=["src/*.txt"], outputs=["out.txt"], cmds=["echo built >> log.txt", "echo x > out.txt"])
`, nil)

	src := filepath.Join(dir, "src", "main.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(src), 0o755))
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(src, old, old))

	require.NoError(t, RunTask(context.Background(), dir, "build", tasks, RunOptions{}))
	require.NoError(t, RunTask(context.Background(), dir, "build", tasks, RunOptions{}))
	assert.Equal(t, "built\n", readFile(t, filepath.Join(dir, "log.txt")))

	require.NoError(t, RunTask(context.Background(), dir, "build", tasks, RunOptions{Force: true}))
	assert.Equal(t, "built\nbuilt\n", readFile(t, filepath.Join(dir, "log.txt")))
}

func TestRunTaskCancelled(t *testing.T) {
	dir, tasks := parseScript(t, `
def configure():
    task(short="build", cmds=["echo build >> log.txt"])
`, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RunTask(ctx, dir, "build", tasks, RunOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCheck(t *testing.T) {
	_, tasks := parseScript(t, `
def configure():
    task(short="good", cmds=["echo ok", "rm -rf dist", "f() { echo hi; }; f", "$CC --version"])
    task(short="bad", deps=["missing"], cmds=["definitely-not-a-real-command-4711 --flag"])
`, nil)

	problems := Check(context.Background(), tasks)
	require.Len(t, problems, 2)
	assert.Equal(t, "bad", problems[0].Task)
	assert.Contains(t, problems[0].Message, "unknown dependency missing")
	assert.Contains(t, problems[1].Message, "definitely-not-a-real-command-4711")
}

func TestBuiltins(t *testing.T) {
	dir, path := writeScript(t, `
version = read_yaml("manifest.yaml", "project.version", "0.0.0")
missing = read_yaml("manifest.yaml", "project.nope", "fallback")
output = execute("echo hello")
data = execute("echo '{\"name\": \"captain\"}'", format="json")

def configure():
    setenv("CAPTAIN_TEST", "1")
    task(short="show", desc=" ".join([version, missing, output.strip(), data["name"]]), cmds=["echo $CAPTAIN_TEST > env.txt"])
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.yaml"), []byte("project:\n  version: 1.2.3\n"), 0o644))

	tasks, meta, err := Parse(context.Background(), path, dir, nil)
	require.NoError(t, err)
	assert.True(t, meta.Volatile)
	assert.Equal(t, "1.2.3 fallback hello captain", tasks["show"].Desc)
	assert.Equal(t, "1", tasks["show"].Env["CAPTAIN_TEST"])

	require.NoError(t, RunTask(context.Background(), dir, "show", tasks, RunOptions{}))
	assert.Equal(t, "1\n", readFile(t, filepath.Join(dir, "env.txt")))
}

func TestLoadTasksWritesCache(t *testing.T) {
	dir, path := writeScript(t, `
flavour = option("flavour", default="plain", help="build flavour")

def configure():
    task(short="build", desc="Build it", cmds=["echo build"])
`)
	cacheFile := filepath.Join(dir, ".cache", "tasks.gob")

	tasks, meta, err := LoadTasks(context.Background(), path, dir, cacheFile, nil)
	require.NoError(t, err)
	require.Contains(t, tasks, "build")
	assert.Equal(t, ScriptOption{Default: "plain", Help: "build flavour"}, meta.Options["flavour"])

	options, cachedMeta, cached, err := ReadCache(cacheFile)
	require.NoError(t, err)
	assert.Empty(t, options)
	assert.Equal(t, meta.Options, cachedMeta.Options)
	require.Contains(t, cached, "build")
	assert.Equal(t, "Build it", cached["build"].Desc)

	again, againMeta, err := LoadTasks(context.Background(), path, dir, cacheFile, nil)
	require.NoError(t, err)
	assert.Equal(t, tasks["build"].Desc, again["build"].Desc)
	assert.Equal(t, []string{"flavour"}, againMeta.OptionNames())
}

func TestLoadTasksReparsesWhenEnvChanges(t *testing.T) {
	t.Setenv("CAPTAIN_CHANNEL", "stable")
	dir, path := writeScript(t, `
def configure():
    task(short="build", desc="Build for " + getenv("CAPTAIN_CHANNEL", "dev"), cmds=["echo build"])
`)
	cacheFile := filepath.Join(dir, ".cache", "tasks.gob")

	tasks, _, err := LoadTasks(context.Background(), path, dir, cacheFile, nil)
	require.NoError(t, err)
	assert.Equal(t, "Build for stable", tasks["build"].Desc)

	t.Setenv("CAPTAIN_CHANNEL", "edge")
	tasks, _, err = LoadTasks(context.Background(), path, dir, cacheFile, nil)
	require.NoError(t, err)
	assert.Equal(t, "Build for edge", tasks["build"].Desc)

	require.NoError(t, os.Unsetenv("CAPTAIN_CHANNEL"))
	tasks, _, err = LoadTasks(context.Background(), path, dir, cacheFile, nil)
	require.NoError(t, err)
	assert.Equal(t, "Build for dev", tasks["build"].Desc)
}

func TestLoadTasksSkipsCacheForExecute(t *testing.T) {
	dir, path := writeScript(t, `
stamp = execute("echo stamp")

def configure():
    task(short="build", desc=stamp.strip(), cmds=["echo build"])
`)
	cacheFile := filepath.Join(dir, ".cache", "tasks.gob")

	_, meta, err := LoadTasks(context.Background(), path, dir, cacheFile, nil)
	require.NoError(t, err)
	assert.True(t, meta.Volatile)
	assert.NoFileExists(t, cacheFile)
}

func envValue(env []string, key string) (string, bool) {
	for _, item := range env {
		if strings.HasPrefix(item, key+"=") {
			return strings.TrimPrefix(item, key+"="), true
		}
	}
	return "", false
}

func TestPrependPathFollowsCurrentPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("PATH is spelled differently on Windows")
	}

	t.Setenv("PATH", "/old/bin")
	dir, path := writeScript(t, `
def configure():
    prepend_path("//.tools")
    task(short="lint", desc=getenv("PATH"), cmds=["golangci-lint run"])
`)
	cacheFile := filepath.Join(dir, ".cache", "tasks.gob")
	tools := filepath.Join(dir, ".tools")

	tasks, _, err := LoadTasks(context.Background(), path, dir, cacheFile, nil)
	require.NoError(t, err)
	assert.Equal(t, tools+":/old/bin", tasks["lint"].Desc)
	assert.Equal(t, []string{tools}, tasks["lint"].PathPrefix)
	assert.NotContains(t, tasks["lint"].Env, "PATH")

	// a task list cached under the old PATH still runs with the new one
	_, _, cached, err := ReadCache(cacheFile)
	require.NoError(t, err)
	t.Setenv("PATH", "/new/bin")

	value, ok := envValue(mergeEnv(cached["lint"].Env, cached["lint"].PathPrefix), "PATH")
	require.True(t, ok)
	assert.Equal(t, tools+":/new/bin", value)

	tasks, _, err = LoadTasks(context.Background(), path, dir, cacheFile, nil)
	require.NoError(t, err)
	assert.Equal(t, tools+":/new/bin", tasks["lint"].Desc)
}

func TestRunTaskReadsStdin(t *testing.T) {
	dir, tasks := parseScript(t, `
def configure():
    task(short="release", cmds=["read answer; echo \"$answer\" > answer.txt"])
`, nil)

	err := RunTask(context.Background(), dir, "release", tasks, RunOptions{Stdin: strings.NewReader("y\n")})
	require.NoError(t, err)
	assert.Equal(t, "y\n", readFile(t, filepath.Join(dir, "answer.txt")))
}

func TestCheckKnowsShellBuiltins(t *testing.T) {
	_, tasks := parseScript(t, `
def configure():
    task(short="release", cmds=["read -r answer", "[ \"$answer\" = y ]", "test -n \"$answer\"", "cd dist && pwd", "shopt -s globstar", ": noop"])
`, nil)

	assert.Empty(t, Check(context.Background(), tasks))
}

func TestRepositoryTasks(t *testing.T) {
	tasks, meta, err := Parse(context.Background(), "../../tasks.star", "../..", nil)
	require.NoError(t, err)

	for _, name := range []string{"install-tools", "lint", "format", "test", "build", "clean", "release", "publish"} {
		assert.Contains(t, tasks, name)
	}
	assert.Equal(t, []string{"clean", "build"}, tasks["release"].Deps)
	assert.Equal(t, []string{"install-tools"}, tasks["format"].Deps)
	assert.NotEmpty(t, tasks["lint"].PathPrefix)
	assert.Contains(t, meta.Options, "release_args")
}

func TestStarlarkValues(t *testing.T) {
	_, tasks := parseScript(t, `
def configure():
    lint = task(short="lint", cmds=["echo lint"])
    seen = {lint: True}
    ordered = resolve_path("//b") > resolve_path("//a")
    task(
        short="build",
        deps=[lint.name],
        desc="%s %s %s %s" % (lint.name, lint in seen, ordered, resolve_path("//src")[-3:]),
        cmds=["echo build"],
    )
`, nil)

	assert.Equal(t, []string{"lint"}, tasks["build"].Deps)
	assert.Equal(t, "lint True True src", tasks["build"].Desc)
	assert.Equal(t, `task("lint")`, tasks["lint"].String())
}
