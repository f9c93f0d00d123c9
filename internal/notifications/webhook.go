package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/kjannette/stocks-backend/internal/httputil"
)

// Sender posts short operational messages to a Slack or Discord webhook.
type Sender struct {
	webhookURL string
	appName    string
	http       *resty.Client
	retry      httputil.RetryConfig
	log        zerolog.Logger
}

func NewSender(webhookURL, appName string, log zerolog.Logger) *Sender {
	if appName == "" {
		appName = "StocksBackend"
	}
	l := log.With().Str("component", "notifications").Logger()
	return &Sender{
		webhookURL: webhookURL,
		appName:    appName,
		http:       resty.New().SetTimeout(10 * time.Second).SetRetryCount(0),
		retry: httputil.RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   1 * time.Second,
			MaxDelay:    5 * time.Second,
			Logger:      &l,
		},
		log: l,
	}
}

// Send logs msg and, when a webhook is configured, delivers it. Delivery
// failures are logged, never returned.
func (s *Sender) Send(ctx context.Context, msg string) {
	formatted := fmt.Sprintf("[%s] %s", s.appName, msg)
	s.log.Info().Msg(formatted)

	if s.webhookURL == "" {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	payload := s.formatPayload(formatted)
	resp, err := httputil.Do(ctx, s.retry, func(ctx context.Context) (*resty.Response, error) {
		return s.http.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(payload).
			Post(s.webhookURL)
	})
	if err != nil {
		s.log.Error().Err(err).Msg("failed to send notification after retries")
		return
	}
	if !resp.IsSuccess() {
		s.log.Error().Int("status", resp.StatusCode()).Msg("webhook rejected notification")
	}
}

// StateChanged announces a poller lifecycle transition.
func (s *Sender) StateChanged(ctx context.Context, state fmt.Stringer) {
	s.Send(ctx, "poller "+state.String())
}

func (s *Sender) formatPayload(msg string) map[string]string {
	if strings.Contains(s.webhookURL, "discord") {
		return map[string]string{
			"content":  msg,
			"username": s.appName,
		}
	}
	return map[string]string{
		"text":     fmt.Sprintf("`%s`", msg),
		"username": s.appName,
	}
}

func (s *Sender) Enabled() bool {
	return s.webhookURL != ""
}
