package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// PullRequest is an open pull request found by the search
type PullRequest struct {
	Repository string
	Title      string
	Number     int
	URL        string
}

// Report groups pull requests by repository. Repositories keep the order in
// which their first pull request was added.
type Report struct {
	repos []string
	prs   map[string][]PullRequest
}

// NewReport returns an empty report
func NewReport() *Report {
	return &Report{prs: make(map[string][]PullRequest)}
}

// Add appends pr to the list of its repository
func (r *Report) Add(pr PullRequest) {
	if _, ok := r.prs[pr.Repository]; !ok {
		r.repos = append(r.repos, pr.Repository)
	}
	r.prs[pr.Repository] = append(r.prs[pr.Repository], pr)
}

// Repositories returns the repositories with at least one pull request
func (r *Report) Repositories() []string {
	return r.repos
}

// PullRequests returns the pull requests of repo
func (r *Report) PullRequests(repo string) []PullRequest {
	return r.prs[repo]
}

// Len returns the total number of pull requests in the report
func (r *Report) Len() int {
	var n int
	for _, prs := range r.prs {
		n += len(prs)
	}
	return n
}

// PullRequestURL builds the web link of pull request number in repo
func PullRequestURL(webURL, repo string, number int) string {
	return fmt.Sprintf("%s/%s/pull/%d", webURL, repo, number)
}

// Finder searches repositories for open pull requests of one author
type Finder struct {
	Platform Platform
	WebURL   string
	Exclude  []string
	Delay    time.Duration

	sleep func(context.Context, time.Duration) error
}

// FindPullRequests searches each repository in order and groups the open pull
// requests of author by repository. Excluded URLs never make it into the report.
// The first failing search aborts the whole run.
func (f *Finder) FindPullRequests(ctx context.Context, repos []string, author string) (*Report, error) {
	sleep := f.sleep
	if sleep == nil {
		sleep = sleepContext
	}
	webURL := f.WebURL
	if webURL == "" {
		webURL = defaultGitHubURL
	}
	excluded := make(map[string]struct{}, len(f.Exclude))
	for _, u := range f.Exclude {
		excluded[u] = struct{}{}
	}

	report := NewReport()
	for _, repo := range repos {
		log := logrus.WithField("repo", repo)

		// pause before and after each search to stay below the search rate limit
		err := sleep(ctx, f.Delay)
		if err != nil {
			return nil, err
		}

		q := IssueQuery{Repo: repo, State: "open", Author: author, Type: "pr"}
		log.WithField("query", q.String()).Info("searching for pull requests")
		issues, err := f.Platform.SearchIssues(ctx, q.String())
		if err != nil {
			return nil, fmt.Errorf("cannot search pull requests in %s: %w", repo, err)
		}

		for _, issue := range issues {
			pr := PullRequest{
				Repository: repo,
				Title:      issue.GetTitle(),
				Number:     issue.GetNumber(),
				URL:        PullRequestURL(webURL, repo, issue.GetNumber()),
			}
			if _, ok := excluded[pr.URL]; ok {
				log.WithField("pr", pr.URL).Info("excluding pull request")
				continue
			}
			log.WithField("pr", pr.URL).Info("adding pull request")
			report.Add(pr)
		}

		err = sleep(ctx, f.Delay)
		if err != nil {
			return nil, err
		}
	}

	return report, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	logrus.WithField("delay", d).Debug("sleeping")

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
