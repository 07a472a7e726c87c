package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/slack-go/slack"
)

// Notifier delivers a finished report
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// ErrNotDelivered matches errors of webhooks that answered with a non-200 status
var ErrNotDelivered = errors.New("message not delivered")

// DeliveryError is returned when the webhook was reached but refused the message.
// Err is a slack.StatusCodeError or a *slack.RateLimitedError.
type DeliveryError struct {
	Err  error
	Body string
}

func (e *DeliveryError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%v: %v", ErrNotDelivered, e.Err)
	}
	return fmt.Sprintf("%v: %v: %s", ErrNotDelivered, e.Err, e.Body)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrNotDelivered) hold for every DeliveryError
func (e *DeliveryError) Is(target error) bool { return target == ErrNotDelivered }

// webhookPayload always carries all four keys, even when empty
type webhookPayload struct {
	IconEmoji string `json:"icon_emoji"`
	Channel   string `json:"channel"`
	Username  string `json:"username"`
	Text      string `json:"text"`
}

// SlackWebhook posts messages to a Slack incoming webhook
type SlackWebhook struct {
	URL       string
	Channel   string
	Username  string
	IconEmoji string

	Client *http.Client
}

// NewSlackWebhook creates a webhook notifier from the slack section of cfg
func NewSlackWebhook(cfg Config) *SlackWebhook {
	return &SlackWebhook{
		URL:       cfg.Slack.URL,
		Channel:   cfg.Slack.Channel,
		Username:  cfg.Slack.Username,
		IconEmoji: cfg.Slack.IconEmoji,
		Client:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Notify posts text as JSON to the webhook. A transport failure and a non-200
// answer are reported as distinct errors, only the latter is a *DeliveryError.
func (s *SlackWebhook) Notify(ctx context.Context, text string) error {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	raw, err := json.Marshal(webhookPayload{
		IconEmoji: s.IconEmoji,
		Channel:   s.Channel,
		Username:  s.Username,
		Text:      text,
	})
	if err != nil {
		return fmt.Errorf("cannot marshal slack message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("cannot post to slack: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("cannot post to slack: %w", err)
	}
	defer resp.Body.Close()

	return checkWebhookResponse(resp)
}

func checkWebhookResponse(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if resp.StatusCode == http.StatusTooManyRequests {
		retry, _ := strconv.ParseInt(resp.Header.Get("Retry-After"), 10, 64)
		return &DeliveryError{
			Err:  &slack.RateLimitedError{RetryAfter: time.Duration(retry) * time.Second},
			Body: string(body),
		}
	}
	return &DeliveryError{
		Err:  slack.StatusCodeError{Code: resp.StatusCode, Status: resp.Status},
		Body: string(body),
	}
}

// StdoutNotifier prints the report instead of sending it
type StdoutNotifier struct {
	Out io.Writer
}

// Notify writes text to Out
func (n StdoutNotifier) Notify(ctx context.Context, text string) error {
	_, err := fmt.Fprintln(n.Out, text)
	return err
}
