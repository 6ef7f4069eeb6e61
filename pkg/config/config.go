package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigtoml"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// AppName is used for the config and data directories
const AppName = "docker-captain"

// EnvPrefix is prepended to every environment variable (i.e. DOCKER_CAPTAIN_PROJECTS_FOLDER)
const EnvPrefix = "DOCKER_CAPTAIN"

// Config describes all configuration options
type Config struct {
	ProjectsFolder string `env:"PROJECTS_FOLDER" toml:"projects_folder" usage:"Folder containing one sub-folder per Docker Compose project"`
	Log            struct {
		Level string `default:"info" toml:"level"`
		JSON  bool   `default:"false" toml:"json" usage:"Output JSON lines instead of pretty console messages"`
	} `toml:"log"`
	Docker struct {
		Binary string `default:"docker" toml:"binary" usage:"docker CLI used to run compose commands"`
	} `toml:"docker"`
	Tasks struct {
		File  string `default:"tasks.star" toml:"file" usage:"Name of the task file searched from the working directory upwards"`
		Cache string `default:".captain/tasks.cache" toml:"cache" usage:"Task list cache, relative to the task file"`
	} `toml:"tasks"`
	Release struct {
		Provider   string `default:"github" toml:"provider" usage:"Release hosting service (github or gitlab)"`
		Repository string `toml:"repository" usage:"owner/name on GitHub or the project path on GitLab"`
		Token      string `toml:"token" usage:"API token used to create releases"`
		BaseURL    string `toml:"base_url" usage:"API base URL for self-hosted instances"`
		Manifest   string `default:"VERSION" toml:"manifest" usage:"File containing the version to release"`
		TagPrefix  string `default:"v" toml:"tag_prefix"`
		Ref        string `default:"main" toml:"ref" usage:"Branch or commit the release tag is created from"`
	} `toml:"release"`
}

var logLevels = map[string]zerolog.Level{
	"debug":   zerolog.DebugLevel,
	"info":    zerolog.InfoLevel,
	"warn":    zerolog.WarnLevel,
	"warning": zerolog.WarnLevel,
	"error":   zerolog.ErrorLevel,
}

var providers = map[string]bool{
	"github": true,
	"gitlab": true,
}

// Dir returns the user's directory for config.toml
func Dir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DataDir returns the directory holding the state database
func DataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// DefaultPath returns the config file used if --config isn't passed: the first existing one
// in the user and system config directories, otherwise the one in Dir()
func DefaultPath() string {
	relPath := filepath.Join(AppName, "config.toml")
	if path, err := xdg.SearchConfigFile(relPath); err == nil {
		return path
	}
	return filepath.Join(xdg.ConfigHome, relPath)
}

// Loader initializes an empty config object and returns a new Loader for this object. An empty
// path selects DefaultPath(); a missing default file is fine, a missing explicit one is not.
func Loader(path string) (*Config, *aconfig.Loader, error) {
	files := []string{}
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, nil, eris.Wrapf(err, "failed to read config file %s", path)
		}
		files = append(files, path)
	} else if _, err := os.Stat(DefaultPath()); err == nil {
		files = append(files, DefaultPath())
	}

	cfg := Config{}
	return &cfg, aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: EnvPrefix,
		SkipFlags: true,
		Files:     files,
		FileDecoders: map[string]aconfig.FileDecoder{
			".toml": aconfigtoml.New(),
		},
	}), nil
}

// Load reads the configuration from defaults, the config file and the environment
func Load(path string) (*Config, error) {
	cfg, loader, err := Loader(path)
	if err != nil {
		return nil, err
	}

	if err := loader.Load(); err != nil {
		return nil, eris.Wrap(err, "failed to load configuration")
	}

	return cfg, cfg.Validate()
}

// Validate verifies that all config fields have valid values
func (cfg *Config) Validate() error {
	if _, ok := logLevels[cfg.Log.Level]; !ok {
		return eris.Errorf(`invalid value for log.level: %s`, cfg.Log.Level)
	}

	if !providers[cfg.Release.Provider] {
		return eris.Errorf(`invalid value for release.provider: %s (must be github or gitlab)`, cfg.Release.Provider)
	}

	if strings.ContainsAny(cfg.Release.TagPrefix, " \t/") {
		return eris.Errorf(`invalid value for release.tag_prefix: %q`, cfg.Release.TagPrefix)
	}

	if cfg.Docker.Binary == "" {
		return eris.New(`docker.binary can't be empty`)
	}

	return nil
}

// LogLevel converts the .Log.Level field to a zerolog.Level
func (cfg *Config) LogLevel() zerolog.Level {
	return logLevels[cfg.Log.Level]
}

// ErrProjectsFolderUnset is returned by ProjectsPath if no folder has been configured
var ErrProjectsFolderUnset = eris.New("projects folder is not configured")

// FolderMissing is returned by ProjectsPath if the configured folder doesn't exist
type FolderMissing struct {
	Path string
}

var _ error = (*FolderMissing)(nil)

func (e *FolderMissing) Error() string {
	return "the configured projects folder " + e.Path + " does not exist"
}

// ProjectsPath returns the absolute path of the configured projects folder
func (cfg *Config) ProjectsPath() (string, error) {
	if cfg.ProjectsFolder == "" {
		return "", ErrProjectsFolderUnset
	}

	path, err := filepath.Abs(cfg.ProjectsFolder)
	if err != nil {
		return "", eris.Wrapf(err, "failed to resolve %s", cfg.ProjectsFolder)
	}

	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return "", &FolderMissing{Path: path}
	}

	return path, nil
}
