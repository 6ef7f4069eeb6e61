package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel())
	assert.Equal(t, "docker", cfg.Docker.Binary)
	assert.Equal(t, "tasks.star", cfg.Tasks.File)
	assert.Equal(t, "github", cfg.Release.Provider)
	assert.Equal(t, "VERSION", cfg.Release.Manifest)
	assert.Equal(t, "v", cfg.Release.TagPrefix)
	assert.Equal(t, "main", cfg.Release.Ref)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
projects_folder = "/srv/file"

[log]
level = "debug"

[release]
provider = "gitlab"
repository = "group/captain"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/file", cfg.ProjectsFolder)
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel())
	assert.Equal(t, "gitlab", cfg.Release.Provider)
	assert.Equal(t, "group/captain", cfg.Release.Repository)

	t.Setenv("DOCKER_CAPTAIN_PROJECTS_FOLDER", "/srv/env")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/env", cfg.ProjectsFolder)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"log level", func(c *Config) { c.Log.Level = "loud" }},
		{"provider", func(c *Config) { c.Release.Provider = "bitbucket" }},
		{"tag prefix", func(c *Config) { c.Release.TagPrefix = "release/" }},
		{"docker binary", func(c *Config) { c.Docker.Binary = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, ""))
			require.NoError(t, err)

			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestProjectsPath(t *testing.T) {
	cfg := &Config{}
	_, err := cfg.ProjectsPath()
	assert.ErrorIs(t, err, ErrProjectsFolderUnset)

	cfg.ProjectsFolder = filepath.Join(t.TempDir(), "missing")
	_, err = cfg.ProjectsPath()
	var missing *FolderMissing
	assert.True(t, errors.As(err, &missing))

	dir := t.TempDir()
	cfg.ProjectsFolder = dir
	path, err := cfg.ProjectsPath()
	require.NoError(t, err)
	assert.Equal(t, dir, path)
}

func TestDirectories(t *testing.T) {
	// runs after t.Setenv restored the environment
	t.Cleanup(xdg.Reload)

	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(base, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(base, "data"))
	t.Setenv("XDG_CONFIG_DIRS", filepath.Join(base, "etc"))
	xdg.Reload()

	assert.Equal(t, filepath.Join(base, "config", AppName), Dir())
	assert.Equal(t, filepath.Join(base, "data", AppName), DataDir())
	assert.Equal(t, filepath.Join(base, "config", AppName, "config.toml"), DefaultPath())

	// a system wide file is used until the user creates their own
	system := filepath.Join(base, "etc", AppName, "config.toml")
	require.NoError(t, os.MkdirAll(filepath.Dir(system), 0o755))
	require.NoError(t, os.WriteFile(system, []byte("projects_folder = \"/srv\"\n"), 0o644))
	assert.Equal(t, system, DefaultPath())

	user := filepath.Join(Dir(), "config.toml")
	require.NoError(t, os.MkdirAll(Dir(), 0o755))
	require.NoError(t, os.WriteFile(user, []byte(""), 0o644))
	assert.Equal(t, user, DefaultPath())
}
