package bot

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// ListRepositories returns the full names of all repositories of org that
// are not forks, in the order the search API yields them.
func ListRepositories(ctx context.Context, p Platform, org string) ([]string, error) {
	login, err := p.Organization(ctx, org)
	if err != nil {
		return nil, fmt.Errorf("cannot get organization %s: %w", org, err)
	}

	log := logrus.WithField("org", login)
	log.Info("searching for repositories")
	repos, err := p.SearchRepositories(ctx, "org:"+login)
	if err != nil {
		return nil, fmt.Errorf("cannot search repositories of %s: %w", login, err)
	}

	var res []string
	for _, r := range repos {
		if r.GetFork() {
			log.WithField("repo", r.GetFullName()).Debug("skipping fork")
			continue
		}
		log.WithField("repo", r.GetFullName()).Debug("adding repository")
		res = append(res, r.GetFullName())
	}
	log.WithField("count", len(res)).Info("found repositories")

	return res, nil
}
