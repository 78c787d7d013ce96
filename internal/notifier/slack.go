package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/autojob/internal/model"
)

// slackPreviewRunes bounds the JD excerpt included in a message.
const slackPreviewRunes = 280

// Ensure SlackNotifier implements model.Notifier.
var _ model.Notifier = (*SlackNotifier)(nil)

// SlackNotifier sends newly cached records to a Slack channel via Incoming Webhooks.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
	pause      time.Duration // gap between consecutive messages
	sleep      func(time.Duration)
}

// NewSlackNotifier returns a notifier that posts each record to Slack via webhook.
func NewSlackNotifier(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
		pause:      500 * time.Millisecond,
		sleep:      time.Sleep,
	}
}

// Notify sends each record as a separate Slack message using Block Kit.
// Returns an error only if ALL messages fail. Individual failures are logged.
func (s *SlackNotifier) Notify(records []model.JobRecord) error {
	if len(records) == 0 {
		return nil
	}

	failures := 0
	for i, r := range records {
		if i > 0 {
			s.sleep(s.pause)
		}

		if err := s.sendMessage(r); err != nil {
			s.logger.Error("slack notification failed", "company", r.Company, "role", r.Role, "error", err)
			failures++
		}
	}

	sent := len(records) - failures
	if failures == len(records) {
		return fmt.Errorf("all %d slack notifications failed", failures)
	}
	s.logger.Info("slack notifications complete", "sent", sent, "failed", failures)
	return nil
}

func (s *SlackNotifier) sendMessage(r model.JobRecord) error {
	body, err := json.Marshal(buildPayload(r))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	resp, err := s.httpClient.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		secs, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		if secs <= 0 {
			secs = 1
		}
		s.logger.Warn("slack rate limited, retrying", "retry_after_secs", secs)
		s.sleep(time.Duration(secs) * time.Second)

		resp2, err := s.httpClient.Post(s.webhookURL, "application/json", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("post to slack (retry): %w", err)
		}
		defer resp2.Body.Close()

		if resp2.StatusCode != http.StatusOK {
			return fmt.Errorf("slack returned %d on retry", resp2.StatusCode)
		}
		s.logger.Info("slack message sent", "company", r.Company, "role", r.Role, "retried", true)
		return nil
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack returned %d", resp.StatusCode)
	}
	s.logger.Info("slack message sent", "company", r.Company, "role", r.Role)
	return nil
}

// Block Kit payload types.

type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type   string      `json:"type"`
	Text   *slackText  `json:"text,omitempty"`
	Fields []slackText `json:"fields,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// SendTestMessage sends a dummy record notification to verify the integration works.
func SendTestMessage(n model.Notifier) error {
	test := model.JobRecord{
		Company:  "autojob",
		Role:     "Test Notification: Integration Verified",
		Location: "Everywhere",
		Salary:   "negotiable",
		Content:  "If you can read this, notifications are wired up.",
		Tags:     []string{"test"},
		Date:     time.Now().Format(model.DateLayout),
	}
	return n.Notify([]model.JobRecord{test})
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func buildPayload(r model.JobRecord) slackPayload {
	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: "📌 " + r.Company + ": " + r.Role},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Company:*\n" + r.Company},
				{Type: "mrkdwn", Text: "*Location:*\n" + orPlaceholder(r.Location)},
			},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Salary:*\n" + orPlaceholder(r.Salary)},
				{Type: "mrkdwn", Text: "*Cached:*\n" + orPlaceholder(r.Date)},
			},
		},
	}

	if len(r.Tags) > 0 {
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: "*Tags:* " + strings.Join(r.Tags, ", ")},
		})
	}

	if content := strings.TrimSpace(r.Content); content != "" {
		if runes := []rune(content); len(runes) > slackPreviewRunes {
			content = string(runes[:slackPreviewRunes]) + "..."
		}
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: content},
		})
	}

	blocks = append(blocks, slackBlock{Type: "divider"})

	return slackPayload{Blocks: blocks}
}
