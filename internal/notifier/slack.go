package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/amishk599/jobscout/internal/model"
)

// Slack rejects messages with more than 50 blocks.
const maxSlackListings = 45

// Ensure SlackSender implements model.Sender.
var _ model.Sender = (*SlackSender)(nil)

// SlackSender posts messages to a Slack channel via an Incoming Webhook. The
// webhook decides the channel, so the recipient is only mentioned in the text.
type SlackSender struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSlackSender returns a sender that posts each message to Slack via webhook.
func NewSlackSender(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackSender {
	return &SlackSender{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Send posts msg as one Block Kit message. A 429 is retried once after the
// advertised delay.
func (s *SlackSender) Send(ctx context.Context, msg model.Message) error {
	body, err := json.Marshal(buildPayload(msg))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	status, retryAfter, err := s.post(ctx, body)
	if err != nil {
		return fmt.Errorf("post to slack: %w", err)
	}

	if status == http.StatusTooManyRequests {
		secs, _ := strconv.Atoi(retryAfter)
		if secs <= 0 {
			secs = 1
		}
		s.logger.Warn("slack rate limited, retrying", "retry_after_secs", secs)
		select {
		case <-ctx.Done():
			return fmt.Errorf("slack retry cancelled: %w", ctx.Err())
		case <-time.After(time.Duration(secs) * time.Second):
		}

		status, _, err = s.post(ctx, body)
		if err != nil {
			return fmt.Errorf("post to slack (retry): %w", err)
		}
		if status != http.StatusOK {
			return fmt.Errorf("slack returned %d on retry", status)
		}
		s.logger.Info("slack message sent", "subject", msg.Subject, "retried", true)
		return nil
	}

	if status != http.StatusOK {
		return fmt.Errorf("slack returned %d", status)
	}
	s.logger.Info("slack message sent", "subject", msg.Subject)
	return nil
}

func (s *SlackSender) post(ctx context.Context, body []byte) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()
	return resp.StatusCode, resp.Header.Get("Retry-After"), nil
}

// Block Kit payload types.

type slackPayload struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type      string        `json:"type"`
	Text      *slackText    `json:"text,omitempty"`
	Elements  []slackText   `json:"elements,omitempty"`
	Accessory *slackElement `json:"accessory,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackElement struct {
	Type  string    `json:"type"`
	Text  slackText `json:"text"`
	URL   string    `json:"url"`
	Style string    `json:"style,omitempty"`
}

// capitalize upper-cases the first rune of s.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func buildPayload(msg model.Message) slackPayload {
	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: "🚀 " + msg.Subject},
		},
	}
	if msg.Recipient != "" {
		blocks = append(blocks, slackBlock{
			Type:     "context",
			Elements: []slackText{{Type: "mrkdwn", Text: "For " + msg.Recipient}},
		})
	}

	shown := msg.Listings
	if len(shown) > maxSlackListings {
		shown = shown[:maxSlackListings]
	}
	for _, l := range shown {
		text := "*" + l.Title + "*"
		if l.Company != "" {
			text += "\n" + capitalize(l.Company)
		}
		if l.Location != "" {
			text += " · " + l.Location
		}
		if len(l.Tags) > 0 {
			text += "\n_" + l.TagString() + "_"
		}
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: text},
			Accessory: &slackElement{
				Type:  "button",
				Text:  slackText{Type: "plain_text", Text: "View on " + capitalize(string(l.Source))},
				URL:   l.Link,
				Style: "primary",
			},
		})
	}
	if hidden := len(msg.Listings) - len(shown); hidden > 0 {
		blocks = append(blocks, slackBlock{
			Type:     "context",
			Elements: []slackText{{Type: "mrkdwn", Text: fmt.Sprintf("…and %d more", hidden)}},
		})
	}
	blocks = append(blocks, slackBlock{Type: "divider"})

	return slackPayload{Text: msg.Subject, Blocks: blocks}
}
