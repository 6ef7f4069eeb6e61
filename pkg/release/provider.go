package release

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
)

// Draft describes a release that should be created
type Draft struct {
	Tag   string
	Name  string
	Ref   string
	Notes string
}

// Provider talks to a release hosting service
type Provider interface {
	// LatestTag returns the tag of the newest release or "" if nothing has been released yet
	LatestTag(ctx context.Context) (string, error)
	// Create publishes the release and returns its URL
	Create(ctx context.Context, draft Draft) (string, error)
}

// ProviderConfig selects and configures a Provider
type ProviderConfig struct {
	Name       string
	Repository string
	Token      string
	BaseURL    string
}

// NewProvider returns the provider named in cfg
func NewProvider(cfg ProviderConfig) (Provider, error) {
	if cfg.Repository == "" {
		return nil, eris.New("release.repository is not configured")
	}

	switch cfg.Name {
	case "github":
		owner, repo, ok := strings.Cut(cfg.Repository, "/")
		if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
			return nil, eris.Errorf("expected owner/name as GitHub repository but got %q", cfg.Repository)
		}
		return NewGitHubProvider(cfg.Token, cfg.BaseURL, owner, repo)
	case "gitlab":
		return NewGitLabProvider(cfg.Token, cfg.BaseURL, cfg.Repository)
	default:
		return nil, eris.Errorf("unknown release provider %q", cfg.Name)
	}
}
