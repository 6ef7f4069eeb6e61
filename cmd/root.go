package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lucabello/docker-captain/pkg"
	"github.com/lucabello/docker-captain/pkg/compose"
	"github.com/lucabello/docker-captain/pkg/config"
	"github.com/lucabello/docker-captain/pkg/storage"
)

var (
	cfg    *config.Config
	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "docker-captain",
	Short: "A friendly CLI tool for managing multiple Docker Compose projects",
	Long: `docker-captain detects Docker Compose projects in a single folder, lets you mark them as
active and starts, stops, restarts or lists them individually or all at once.

It also ships the task runner used to lint, format, build and release this repository.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default "+config.DefaultPath()+")")
	flags.String("projects-folder", "", "folder containing your Docker Compose projects")
	flags.Bool("log-json", false, "print log messages as JSON lines")
}

func setup(cmd *cobra.Command) error {
	flags := cmd.Flags()
	configPath, err := flags.GetString("config")
	if err != nil {
		return err
	}

	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}

	if flags.Changed("projects-folder") {
		cfg.ProjectsFolder, err = flags.GetString("projects-folder")
		if err != nil {
			return err
		}
	}

	if flags.Changed("log-json") {
		cfg.Log.JSON, err = flags.GetBool("log-json")
		if err != nil {
			return err
		}
	}

	if cfg.Log.JSON {
		zerolog.ErrorMarshalFunc = func(err error) interface{} {
			return eris.ToJSON(err, os.Getenv(DebugEnv) != "")
		}
		logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(NewConsoleWriter(os.Stderr))
	}
	logger = logger.Level(cfg.LogLevel())

	cmd.SetContext(logger.WithContext(cmd.Context()))
	return nil
}

// projectsFolder resolves the configured projects folder and maps configuration problems to
// their exit codes
func projectsFolder() (string, error) {
	folder, err := cfg.ProjectsPath()
	if err == nil {
		return folder, nil
	}

	if eris.Is(err, config.ErrProjectsFolderUnset) {
		return "", pkg.Exit(pkg.ExitFailure, eris.Errorf(
			"please set the path containing your Docker Compose projects: either add projects_folder "+
				"to %s or set %s_PROJECTS_FOLDER=/path/to/your/deployments",
			config.DefaultPath(), config.EnvPrefix))
	}

	var missing *config.FolderMissing
	if errors.As(err, &missing) {
		return "", pkg.Exit(pkg.ExitUsage, err)
	}
	return "", err
}

func discoverProjects() (string, compose.Projects, error) {
	folder, err := projectsFolder()
	if err != nil {
		return "", nil, err
	}

	projects, err := compose.Discover(folder)
	if err != nil {
		return "", nil, err
	}
	return folder, projects, nil
}

func requireProject(projects compose.Projects, name string) (string, error) {
	path, err := projects.Require(name)
	if err != nil {
		return "", pkg.Exit(pkg.ExitUsage, err)
	}
	return path, nil
}

func openStore(ctx context.Context) (*storage.Store, error) {
	return storage.Open(ctx, config.DataDir())
}

func composeClient() *compose.Client {
	return compose.NewClient(cfg.Docker.Binary, &logger)
}

// Execute runs the CLI and terminates the process with the resulting exit code
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	cancel()

	code := pkg.ExitCode(err)

	var exitErr *pkg.ExitError
	if err != nil && (!errors.As(err, &exitErr) || exitErr.Err != nil) {
		pkg.PrintError(err.Error())
	}

	os.Exit(code)
}
