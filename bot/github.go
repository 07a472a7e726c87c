package bot

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bradleyfalzon/ghinstallation"
	"github.com/google/go-github/v33/github"
	"golang.org/x/oauth2"
)

const searchPageSize = 100

// Platform is the subset of the GitHub API prnag depends on
type Platform interface {
	// CurrentUser returns the login of the authenticated user
	CurrentUser(ctx context.Context) (string, error)
	// Organization returns the login of the named organization
	Organization(ctx context.Context, name string) (string, error)
	// SearchRepositories returns all repositories matching query
	SearchRepositories(ctx context.Context, query string) ([]*github.Repository, error)
	// SearchIssues returns all issues and pull requests matching query
	SearchIssues(ctx context.Context, query string) ([]*github.Issue, error)
	RateLimit(ctx context.Context) (*github.RateLimits, error)
}

// IssueQuery holds the qualifiers of an issue search
type IssueQuery struct {
	Repo   string
	State  string
	Author string
	Type   string
}

// String renders the query in GitHub search syntax
func (q IssueQuery) String() string {
	var parts []string
	for _, kv := range [][2]string{
		{"repo", q.Repo},
		{"state", q.State},
		{"author", q.Author},
		{"type", q.Type},
	} {
		if kv[1] == "" {
			continue
		}
		parts = append(parts, kv[0]+":"+kv[1])
	}
	return strings.Join(parts, " ")
}

type ghPlatform struct {
	client *github.Client
}

// NewPlatform creates a GitHub client from the auth settings in cfg
func NewPlatform(cfg Config) (Platform, error) {
	var transport http.RoundTripper
	if cfg.GitHubApp != nil {
		ghtp, err := ghinstallation.NewKeyFromFile(http.DefaultTransport, cfg.GitHubApp.AppID, cfg.GitHubApp.InstallationID, cfg.GitHubApp.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("GitHub config error: %w", err)
		}
		transport = ghtp
	} else {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.GitHubToken}),
			Base:   http.DefaultTransport,
		}
	}

	httpClient := &http.Client{
		Transport: transport,
		Timeout:   30 * time.Second,
	}

	webURL := cfg.WebURL()
	if webURL == defaultGitHubURL {
		return &ghPlatform{client: github.NewClient(httpClient)}, nil
	}

	client, err := github.NewEnterpriseClient(webURL+"/api/v3/", webURL+"/api/uploads/", httpClient)
	if err != nil {
		return nil, fmt.Errorf("GitHub config error: %w", err)
	}
	return &ghPlatform{client: client}, nil
}

func (p *ghPlatform) CurrentUser(ctx context.Context) (string, error) {
	user, _, err := p.client.Users.Get(ctx, "")
	if err != nil {
		return "", err
	}
	return user.GetLogin(), nil
}

func (p *ghPlatform) Organization(ctx context.Context, name string) (string, error) {
	org, _, err := p.client.Organizations.Get(ctx, name)
	if err != nil {
		return "", err
	}
	return org.GetLogin(), nil
}

func (p *ghPlatform) SearchRepositories(ctx context.Context, query string) ([]*github.Repository, error) {
	var (
		res  []*github.Repository
		page int
	)
	for {
		repos, resp, err := p.client.Search.Repositories(ctx, query, &github.SearchOptions{
			ListOptions: github.ListOptions{
				Page:    page,
				PerPage: searchPageSize,
			},
		})
		if err != nil {
			return nil, err
		}
		res = append(res, repos.Repositories...)

		if resp.NextPage == 0 {
			break
		}
		page = resp.NextPage
	}
	return res, nil
}

func (p *ghPlatform) SearchIssues(ctx context.Context, query string) ([]*github.Issue, error) {
	var (
		res  []*github.Issue
		page int
	)
	for {
		issues, resp, err := p.client.Search.Issues(ctx, query, &github.SearchOptions{
			ListOptions: github.ListOptions{
				Page:    page,
				PerPage: searchPageSize,
			},
		})
		if err != nil {
			return nil, err
		}
		res = append(res, issues.Issues...)

		if resp.NextPage == 0 {
			break
		}
		page = resp.NextPage
	}
	return res, nil
}

func (p *ghPlatform) RateLimit(ctx context.Context) (*github.RateLimits, error) {
	limits, _, err := p.client.RateLimits(ctx)
	if err != nil {
		return nil, err
	}
	return limits, nil
}
