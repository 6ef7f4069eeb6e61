package release

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/go-github/v57/github"
	"github.com/rotisserie/eris"
	"golang.org/x/oauth2"
)

// GitHubProvider publishes releases on GitHub or a GitHub Enterprise instance
type GitHubProvider struct {
	client *github.Client
	owner  string
	repo   string
}

var _ Provider = (*GitHubProvider)(nil)

// NewGitHubProvider returns a provider for owner/repo. baseURL selects a GitHub Enterprise
// instance and can be left empty for github.com.
func NewGitHubProvider(token, baseURL, owner, repo string) (*GitHubProvider, error) {
	if token == "" {
		return nil, eris.New("a GitHub token is required to create releases")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	client := github.NewClient(oauth2.NewClient(context.Background(), ts))

	if baseURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(baseURL, baseURL)
		if err != nil {
			return nil, eris.Wrapf(err, "invalid GitHub URL %s", baseURL)
		}
	}

	return &GitHubProvider{client: client, owner: owner, repo: repo}, nil
}

func (p *GitHubProvider) LatestTag(ctx context.Context) (string, error) {
	release, resp, err := p.client.Repositories.GetLatestRelease(ctx, p.owner, p.repo)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return "", nil
		}
		return "", eris.Wrapf(err, "failed to fetch the latest release of %s/%s", p.owner, p.repo)
	}

	return release.GetTagName(), nil
}

func (p *GitHubProvider) Create(ctx context.Context, draft Draft) (string, error) {
	release := &github.RepositoryRelease{
		TagName: github.String(draft.Tag),
		Name:    github.String(draft.Name),
	}
	if draft.Ref != "" {
		release.TargetCommitish = github.String(draft.Ref)
	}
	if strings.TrimSpace(draft.Notes) != "" {
		release.Body = github.String(draft.Notes)
	} else {
		release.GenerateReleaseNotes = github.Bool(true)
	}

	created, _, err := p.client.Repositories.CreateRelease(ctx, p.owner, p.repo, release)
	if err != nil {
		return "", eris.Wrapf(err, "failed to create release %s", draft.Tag)
	}

	return created.GetHTMLURL(), nil
}
