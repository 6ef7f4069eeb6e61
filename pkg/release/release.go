package release

import (
	"context"
	"fmt"
	"io"

	"github.com/Masterminds/semver/v3"
	"github.com/mitchellh/colorstring"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// ErrNotNewer is returned if the manifest version isn't greater than the latest release
var ErrNotNewer = eris.New("the manifest version is not newer than the latest release")

// ConfirmFunc asks the user whether the release should be created
type ConfirmFunc func(question string) (bool, error)

// Options controls a release
type Options struct {
	// Manifest is the file containing the version
	Manifest  string
	TagPrefix string
	Ref       string
	Notes     string
	DryRun    bool
	// Confirm is skipped if nil
	Confirm ConfirmFunc
	Out     io.Writer
	Logger  *zerolog.Logger
}

// Result describes the outcome of Run
type Result struct {
	Version  *semver.Version
	Previous string
	Tag      string
	URL      string
	Created  bool
}

// Run publishes the manifest version through provider if it's newer than the latest release.
// A declined confirmation isn't an error; Result.Created is false in that case.
func Run(ctx context.Context, provider Provider, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	out := opts.Out
	if out == nil {
		out = io.Discard
	}

	version, err := ReadVersion(opts.Manifest)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Version: version,
		Tag:     opts.TagPrefix + version.String(),
	}
	logger.Debug().Str("version", version.String()).Str("manifest", opts.Manifest).Msg("read manifest")

	latest, err := provider.LatestTag(ctx)
	if err != nil {
		return nil, err
	}
	result.Previous = latest

	if latest == "" {
		logger.Info().Msg("no previous release found")
	} else {
		previous, err := ParseTag(latest, opts.TagPrefix)
		if err != nil {
			return nil, err
		}

		if !version.GreaterThan(previous) {
			return result, eris.Wrapf(ErrNotNewer, "%s is not newer than %s", version, previous)
		}
	}

	if opts.DryRun {
		colorstring.Fprintf(out, "[yellow]Would create release %s (previous: %s)[reset]\n", result.Tag, describePrevious(latest))
		return result, nil
	}

	if opts.Confirm != nil {
		ok, err := opts.Confirm(fmt.Sprintf("Create release %s (previous: %s)?", result.Tag, describePrevious(latest)))
		if err != nil {
			return nil, eris.Wrap(err, "confirmation failed")
		}
		if !ok {
			colorstring.Fprintln(out, "[yellow]Release aborted.[reset]")
			return result, nil
		}
	}

	url, err := provider.Create(ctx, Draft{
		Tag:   result.Tag,
		Name:  result.Tag,
		Ref:   opts.Ref,
		Notes: opts.Notes,
	})
	if err != nil {
		return nil, err
	}

	result.URL = url
	result.Created = true
	colorstring.Fprintf(out, "[green]✓ Released %s[reset] %s\n", result.Tag, url)
	return result, nil
}

func describePrevious(tag string) string {
	if tag == "" {
		return "none"
	}
	return tag
}
