package bot

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-github/v33/github"
)

func TestFindPullRequests(t *testing.T) {
	type Expectation struct {
		Error string
		Repos []string
		PRs   map[string][]PullRequest
	}
	tests := []struct {
		Name        string
		Repos       []string
		Issues      map[string][]*github.Issue
		IssueErr    map[string]error
		Exclude     []string
		Expectation Expectation
	}{
		{
			Name:  "groups by repository",
			Repos: []string{"org/a", "org/b"},
			Issues: map[string][]*github.Issue{
				prQuery("org/a", "me"): {issue(1, "t1"), issue(2, "t2")},
				prQuery("org/b", "me"): {issue(5, "t5")},
			},
			Expectation: Expectation{
				Repos: []string{"org/a", "org/b"},
				PRs: map[string][]PullRequest{
					"org/a": {testPR("org/a", 1, "t1"), testPR("org/a", 2, "t2")},
					"org/b": {testPR("org/b", 5, "t5")},
				},
			},
		},
		{
			Name:  "exclusion removes single pull request",
			Repos: []string{"org/a", "org/b"},
			Issues: map[string][]*github.Issue{
				prQuery("org/a", "me"): {issue(1, "t1"), issue(2, "t2")},
				prQuery("org/b", "me"): {issue(5, "t5")},
			},
			Exclude: []string{"https://github.com/org/a/pull/2"},
			Expectation: Expectation{
				Repos: []string{"org/a", "org/b"},
				PRs: map[string][]PullRequest{
					"org/a": {testPR("org/a", 1, "t1")},
					"org/b": {testPR("org/b", 5, "t5")},
				},
			},
		},
		{
			Name:  "fully excluded repository has no entry",
			Repos: []string{"org/a", "org/b"},
			Issues: map[string][]*github.Issue{
				prQuery("org/a", "me"): {issue(1, "t1")},
				prQuery("org/b", "me"): {issue(5, "t5")},
			},
			Exclude: []string{"https://github.com/org/a/pull/1"},
			Expectation: Expectation{
				Repos: []string{"org/b"},
				PRs: map[string][]PullRequest{
					"org/b": {testPR("org/b", 5, "t5")},
				},
			},
		},
		{
			Name:  "repository without pull requests has no entry",
			Repos: []string{"org/empty", "org/b"},
			Issues: map[string][]*github.Issue{
				prQuery("org/b", "me"): {issue(5, "t5")},
			},
			Expectation: Expectation{
				Repos: []string{"org/b"},
				PRs: map[string][]PullRequest{
					"org/b": {testPR("org/b", 5, "t5")},
				},
			},
		},
		{
			Name:  "exclusion needs an exact match",
			Repos: []string{"org/a"},
			Issues: map[string][]*github.Issue{
				prQuery("org/a", "me"): {issue(1, "t1"), issue(10, "t10")},
			},
			Exclude: []string{"https://github.com/org/a/pull/1/", "github.com/org/a/pull/10"},
			Expectation: Expectation{
				Repos: []string{"org/a"},
				PRs: map[string][]PullRequest{
					"org/a": {testPR("org/a", 1, "t1"), testPR("org/a", 10, "t10")},
				},
			},
		},
		{
			Name:  "failed search aborts",
			Repos: []string{"org/a", "org/gone"},
			Issues: map[string][]*github.Issue{
				prQuery("org/a", "me"): {issue(1, "t1")},
			},
			IssueErr: map[string]error{
				prQuery("org/gone", "me"): errors.New("422 Validation Failed"),
			},
			Expectation: Expectation{
				Error: "cannot search pull requests in org/gone: 422 Validation Failed",
			},
		},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			p := &fakePlatform{issues: test.Issues, issueErr: test.IssueErr}
			f := &Finder{
				Platform: p,
				Exclude:  test.Exclude,
				sleep:    func(context.Context, time.Duration) error { return nil },
			}

			report, err := f.FindPullRequests(context.Background(), test.Repos, "me")
			var act Expectation
			if err != nil {
				act.Error = err.Error()
			} else {
				act.Repos = report.Repositories()
				act.PRs = report.prs
			}

			if diff := cmp.Diff(test.Expectation, act); diff != "" {
				t.Errorf("FindPullRequests() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFindPullRequestsDelay(t *testing.T) {
	p := &fakePlatform{}
	var (
		calls []string
		delay time.Duration
	)
	f := &Finder{
		Platform: p,
		Delay:    2 * time.Second,
		sleep: func(ctx context.Context, d time.Duration) error {
			delay = d
			calls = append(calls, fmt.Sprintf("sleep after %d queries", len(p.queries)))
			return nil
		},
	}

	_, err := f.FindPullRequests(context.Background(), []string{"org/a", "org/b"}, "me")
	if err != nil {
		t.Fatal(err)
	}

	exp := []string{
		"sleep after 0 queries",
		"sleep after 1 queries",
		"sleep after 1 queries",
		"sleep after 2 queries",
	}
	if diff := cmp.Diff(exp, calls); diff != "" {
		t.Errorf("sleep calls mismatch (-want +got):\n%s", diff)
	}
	if delay != 2*time.Second {
		t.Errorf("delay = %s, want 2s", delay)
	}
}

func TestFindPullRequestsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &fakePlatform{}
	f := &Finder{Platform: p, Delay: time.Hour}
	_, err := f.FindPullRequests(ctx, []string{"org/a"}, "me")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("FindPullRequests() error = %v, want context.Canceled", err)
	}
	if len(p.queries) != 0 {
		t.Errorf("searched %v after cancellation", p.queries)
	}
}

func TestPullRequestURL(t *testing.T) {
	tests := []struct {
		WebURL string
		Repo   string
		Number int
		Want   string
	}{
		{defaultGitHubURL, "org/a", 1, "https://github.com/org/a/pull/1"},
		{"https://ghe.example.com", "team/svc", 42, "https://ghe.example.com/team/svc/pull/42"},
	}
	for i, test := range tests {
		t.Run(fmt.Sprintf("%03d", i), func(t *testing.T) {
			if act := PullRequestURL(test.WebURL, test.Repo, test.Number); act != test.Want {
				t.Errorf("PullRequestURL() = %q, want %q", act, test.Want)
			}
		})
	}
}
