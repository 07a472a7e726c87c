package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/go-github/v33/github"
	"github.com/sirupsen/logrus"
)

// Bot implements prnag
type Bot struct {
	Config   Config
	Platform Platform
	Notifier Notifier
}

// New creates a new bot that talks to GitHub and Slack
func New(cfg Config) (*Bot, error) {
	platform, err := NewPlatform(cfg)
	if err != nil {
		return nil, err
	}

	return &Bot{
		Config:   cfg,
		Platform: platform,
		Notifier: NewSlackWebhook(cfg),
	}, nil
}

// Run produces one report and sends it. GitHub failures abort the run and
// are returned, delivery failures are only logged.
func (b *Bot) Run(ctx context.Context) error {
	limits, err := b.Platform.RateLimit(ctx)
	if err != nil {
		return fmt.Errorf("cannot get rate limits: %w", err)
	}
	logRateLimits(limits)

	author := b.Config.Author
	if author == "" {
		author, err = b.Platform.CurrentUser(ctx)
		if err != nil {
			return fmt.Errorf("cannot get authenticated user: %w", err)
		}
	}
	logrus.WithField("author", author).Info("reporting open pull requests")

	repos, err := ListRepositories(ctx, b.Platform, b.Config.OrgName)
	if err != nil {
		return err
	}

	finder := &Finder{
		Platform: b.Platform,
		WebURL:   b.Config.WebURL(),
		Exclude:  b.Config.Exclude,
		Delay:    b.Config.SearchDelay(),
	}
	report, err := finder.FindPullRequests(ctx, repos, author)
	if err != nil {
		return err
	}
	logrus.WithField("repos", len(report.Repositories())).WithField("prs", report.Len()).Info("found open pull requests")

	msg := FormatReport(b.Config.Slack.PreMessage, b.Config.Slack.PostMessage, report)
	b.notify(ctx, msg)

	return nil
}

func (b *Bot) notify(ctx context.Context, msg string) {
	log := logrus.WithField("channel", b.Config.Slack.Channel).WithField("username", b.Config.Slack.Username)
	log.Info("posting message to Slack")

	err := b.Notifier.Notify(ctx, msg)
	switch {
	case err == nil:
		log.Info("Slack message sent")
	case errors.Is(err, ErrNotDelivered):
		log.WithError(err).WithField("reason", "rejected").Error("Slack message failed")
	default:
		// nothing was received, so there is no response to look at
		log.WithError(err).WithField("reason", "unreachable").Error("Slack message failed")
	}
}

func logRateLimits(limits *github.RateLimits) {
	fields := logrus.Fields{}
	if limits.Core != nil {
		fields["core"] = fmt.Sprintf("%d/%d", limits.Core.Remaining, limits.Core.Limit)
	}
	if limits.Search != nil {
		fields["search"] = fmt.Sprintf("%d/%d", limits.Search.Remaining, limits.Search.Limit)
		fields["searchReset"] = limits.Search.Reset.Time
	}
	logrus.WithFields(fields).Info("GitHub API rate limits")
}
