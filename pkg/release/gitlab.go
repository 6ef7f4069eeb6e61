package release

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/xanzy/go-gitlab"
)

// GitLabProvider publishes releases on gitlab.com or a self-hosted GitLab
type GitLabProvider struct {
	client  *gitlab.Client
	project string
}

var _ Provider = (*GitLabProvider)(nil)

// NewGitLabProvider returns a provider for project (numeric ID or "namespace/project"). An empty
// baseURL selects gitlab.com.
func NewGitLabProvider(token, baseURL, project string) (*GitLabProvider, error) {
	if token == "" {
		return nil, eris.New("a GitLab token is required to create releases")
	}

	opts := []gitlab.ClientOptionFunc{}
	if baseURL != "" {
		opts = append(opts, gitlab.WithBaseURL(baseURL))
	}

	client, err := gitlab.NewClient(token, opts...)
	if err != nil {
		return nil, eris.Wrap(err, "failed to create GitLab client")
	}

	return &GitLabProvider{client: client, project: project}, nil
}

func (p *GitLabProvider) LatestTag(ctx context.Context) (string, error) {
	releases, _, err := p.client.Releases.ListReleases(p.project, &gitlab.ListReleasesOptions{
		ListOptions: gitlab.ListOptions{PerPage: 1},
		OrderBy:     gitlab.Ptr("released_at"),
		Sort:        gitlab.Ptr("desc"),
	}, gitlab.WithContext(ctx))
	if err != nil {
		return "", eris.Wrapf(err, "failed to fetch the latest release of %s", p.project)
	}

	if len(releases) == 0 {
		return "", nil
	}
	return releases[0].TagName, nil
}

func (p *GitLabProvider) Create(ctx context.Context, draft Draft) (string, error) {
	opts := &gitlab.CreateReleaseOptions{
		Name:    gitlab.Ptr(draft.Name),
		TagName: gitlab.Ptr(draft.Tag),
	}
	if draft.Ref != "" {
		opts.Ref = gitlab.Ptr(draft.Ref)
	}
	if draft.Notes != "" {
		opts.Description = gitlab.Ptr(draft.Notes)
	}

	release, _, err := p.client.Releases.CreateRelease(p.project, opts, gitlab.WithContext(ctx))
	if err != nil {
		return "", eris.Wrapf(err, "failed to create release %s", draft.Tag)
	}

	return release.Links.Self, nil
}
