package cmd

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/lucabello/docker-captain/pkg"
	"github.com/lucabello/docker-captain/pkg/prompt"
	"github.com/lucabello/docker-captain/pkg/release"
)

// tokenEnv lists the conventional token variables used if no token has been configured
var tokenEnv = map[string]string{
	"github": "GITHUB_TOKEN",
	"gitlab": "GITLAB_TOKEN",
}

func stringFlag(cmd *cobra.Command, name string, target *string) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}

	value, err := cmd.Flags().GetString(name)
	if err != nil {
		return err
	}
	*target = value
	return nil
}

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Publish the version from the manifest as a new release",
	Long: `Reads the version from the release manifest, compares it against the latest release on
GitHub or GitLab and, after confirmation, creates a release tagged <prefix><version>.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rel := cfg.Release
		for flag, target := range map[string]*string{
			"provider":   &rel.Provider,
			"repository": &rel.Repository,
			"manifest":   &rel.Manifest,
			"tag-prefix": &rel.TagPrefix,
			"ref":        &rel.Ref,
		} {
			if err := stringFlag(cmd, flag, target); err != nil {
				return err
			}
		}

		dryRun, err := cmd.Flags().GetBool("dry-run")
		if err != nil {
			return err
		}

		yes, err := cmd.Flags().GetBool("yes")
		if err != nil {
			return err
		}

		notes, err := cmd.Flags().GetString("notes")
		if err != nil {
			return err
		}

		manifest := rel.Manifest
		if !filepath.IsAbs(manifest) {
			wd, err := os.Getwd()
			if err != nil {
				return eris.Wrap(err, "failed to retrieve the current working directory")
			}

			manifest, err = pkg.FindUpwards(wd, manifest)
			if err != nil {
				return err
			}
		}

		if rel.Token == "" {
			rel.Token = os.Getenv(tokenEnv[rel.Provider])
		}

		provider, err := release.NewProvider(release.ProviderConfig{
			Name:       rel.Provider,
			Repository: rel.Repository,
			Token:      rel.Token,
			BaseURL:    rel.BaseURL,
		})
		if err != nil {
			return err
		}

		opts := release.Options{
			Manifest:  manifest,
			TagPrefix: rel.TagPrefix,
			Ref:       rel.Ref,
			Notes:     notes,
			DryRun:    dryRun,
			Out:       cmd.OutOrStdout(),
			Logger:    &logger,
		}
		if !yes {
			opts.Confirm = func(question string) (bool, error) {
				return prompt.AskConfirm(os.Stdin, cmd.OutOrStdout(), question)
			}
		}

		result, err := release.Run(cmd.Context(), provider, opts)
		if err != nil {
			return err
		}

		if result.Created {
			logger.Info().Str("tag", result.Tag).Str("url", result.URL).Msg("release created")
		}
		return nil
	},
}

func init() {
	flags := releaseCmd.Flags()
	flags.Bool("dry-run", false, "only check the versions and print what would be released")
	flags.BoolP("yes", "y", false, "don't ask for confirmation")
	flags.String("provider", "", "release hosting service (github or gitlab)")
	flags.String("repository", "", "owner/name on GitHub or the project path on GitLab")
	flags.String("manifest", "", "file containing the version to release")
	flags.String("tag-prefix", "", "prefix of the release tag")
	flags.String("ref", "", "branch or commit the release tag is created from")
	flags.String("notes", "", "release notes (generated by the hosting service if empty on GitHub)")

	rootCmd.AddCommand(releaseCmd)
}
