package bot

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultDelay     = 2 * time.Second
	defaultGitHubURL = "https://github.com"
)

// Config configures prnag
type Config struct {
	GitHubToken string    `yaml:"github_token"`
	GitHubURL   string    `yaml:"github_url,omitempty"`
	GitHubApp   *AppAuth  `yaml:"github_app,omitempty"`
	OrgName     string    `yaml:"org_name"`
	Author      string    `yaml:"author,omitempty"`
	Delay       *Duration `yaml:"delay,omitempty"`
	Exclude     []string  `yaml:"exclude"`
	Slack       struct {
		URL         string `yaml:"url"`
		Channel     string `yaml:"channel"`
		Username    string `yaml:"username"`
		IconEmoji   string `yaml:"icon_emoji"`
		PreMessage  string `yaml:"pre_message"`
		PostMessage string `yaml:"post_message"`
	} `yaml:"slack"`
}

// AppAuth authenticates as a GitHub App installation instead of using a token
type AppAuth struct {
	AppID          int64  `yaml:"app_id"`
	InstallationID int64  `yaml:"installation_id"`
	PrivateKeyPath string `yaml:"private_key"`
}

// Duration is a time.Duration that reads and writes as "2s" in YAML
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// LoadConfig reads and validates the config file at fn. An empty github_token
// is taken from the GITHUB_TOKEN environment variable.
func LoadConfig(fn string) (*Config, error) {
	fd, err := os.Open(fn)
	if err != nil {
		return nil, fmt.Errorf("cannot open config file %v: %w", fn, err)
	}
	defer fd.Close()

	dec := yaml.NewDecoder(fd)
	dec.KnownFields(true)
	var cfg Config
	err = dec.Decode(&cfg)
	if err != nil {
		return nil, fmt.Errorf("cannot load config: %w", err)
	}

	if cfg.GitHubToken == "" {
		cfg.GitHubToken = os.Getenv("GITHUB_TOKEN")
	}

	err = cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid config %v: %w", fn, err)
	}

	return &cfg, nil
}

// Validate checks that all fields a run depends on are present
func (c *Config) Validate() error {
	var missing []string
	if c.OrgName == "" {
		missing = append(missing, "org_name")
	}
	if c.Slack.URL == "" {
		missing = append(missing, "slack.url")
	}
	if c.GitHubToken == "" && c.GitHubApp == nil {
		missing = append(missing, "github_token (or github_app)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}

	if c.GitHubApp != nil {
		if c.GitHubApp.AppID == 0 || c.GitHubApp.InstallationID == 0 || c.GitHubApp.PrivateKeyPath == "" {
			return errors.New("github_app needs app_id, installation_id and private_key")
		}
		if c.Author == "" {
			return errors.New("author is required when authenticating as a GitHub App")
		}
	}
	if c.Delay != nil && *c.Delay < 0 {
		return fmt.Errorf("delay must not be negative, got %s", time.Duration(*c.Delay))
	}

	return nil
}

// SearchDelay returns the pause applied around each repository search
func (c *Config) SearchDelay() time.Duration {
	if c.Delay == nil {
		return defaultDelay
	}
	return time.Duration(*c.Delay)
}

// WebURL returns the base URL pull request links are built from
func (c *Config) WebURL() string {
	if c.GitHubURL == "" {
		return defaultGitHubURL
	}
	return strings.TrimSuffix(c.GitHubURL, "/")
}

// ExampleConfig returns a config that documents every field
func ExampleConfig() Config {
	delay := Duration(defaultDelay)

	var cfg Config
	cfg.GitHubToken = "ghp_..."
	cfg.OrgName = "my-org"
	cfg.Delay = &delay
	cfg.Exclude = []string{"https://github.com/my-org/my-repo/pull/1"}
	cfg.Slack.URL = "https://hooks.slack.com/services/..."
	cfg.Slack.Channel = "#team"
	cfg.Slack.Username = "prnag"
	cfg.Slack.IconEmoji = ":eyes:"
	cfg.Slack.PreMessage = "Please review my open pull requests:"
	cfg.Slack.PostMessage = "Thank you!"
	return cfg
}
