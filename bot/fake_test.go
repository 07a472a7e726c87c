package bot

import (
	"context"
	"time"

	"github.com/google/go-github/v33/github"
)

type fakePlatform struct {
	user     string
	org      string
	orgErr   error
	repos    []*github.Repository
	issues   map[string][]*github.Issue
	issueErr map[string]error
	queries  []string
}

func (p *fakePlatform) CurrentUser(ctx context.Context) (string, error) {
	return p.user, nil
}

func (p *fakePlatform) Organization(ctx context.Context, name string) (string, error) {
	if p.orgErr != nil {
		return "", p.orgErr
	}
	if p.org != "" {
		return p.org, nil
	}
	return name, nil
}

func (p *fakePlatform) SearchRepositories(ctx context.Context, query string) ([]*github.Repository, error) {
	p.queries = append(p.queries, query)
	return p.repos, nil
}

func (p *fakePlatform) SearchIssues(ctx context.Context, query string) ([]*github.Issue, error) {
	p.queries = append(p.queries, query)
	if err, ok := p.issueErr[query]; ok {
		return nil, err
	}
	return p.issues[query], nil
}

func (p *fakePlatform) RateLimit(ctx context.Context) (*github.RateLimits, error) {
	return &github.RateLimits{
		Core:   &github.Rate{Limit: 5000, Remaining: 4999},
		Search: &github.Rate{Limit: 30, Remaining: 29, Reset: github.Timestamp{Time: time.Now().Add(time.Minute)}},
	}, nil
}

func repo(fullName string, fork bool) *github.Repository {
	return &github.Repository{FullName: github.String(fullName), Fork: github.Bool(fork)}
}

func issue(number int, title string) *github.Issue {
	return &github.Issue{Number: github.Int(number), Title: github.String(title)}
}

func prQuery(repo, author string) string {
	return IssueQuery{Repo: repo, State: "open", Author: author, Type: "pr"}.String()
}

type fakeNotifier struct {
	messages []string
	err      error
}

func (n *fakeNotifier) Notify(ctx context.Context, text string) error {
	n.messages = append(n.messages, text)
	return n.err
}
