package notifier

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/shawty-app/shawty/internal/model"
)

// Action is what the user was doing when loop protection fired
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
)

// SlackNotifier posts loop-protection alerts to a Slack incoming webhook.
// Delivery is best effort: every failure is logged and swallowed, and callers
// are expected to dispatch without waiting on the result.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
}

func NewSlackNotifier(webhookURL string) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

type slackText struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

type slackBlock struct {
	Type     string       `json:"type"`
	Text     *slackText   `json:"text,omitempty"`
	Fields   []slackText  `json:"fields,omitempty"`
	Elements []slackText  `json:"elements,omitempty"`
}

type slackMessage struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks"`
}

// SelfReferenceAlert reports a blocked attempt at a self-referencing link.
// Safe to call from a detached goroutine; it never returns an error.
func (n *SlackNotifier) SelfReferenceAlert(user model.User, attemptedURL string, action Action) {
	if n.webhookURL == "" {
		log.Printf("slack webhook not configured, skipping alert: user=%s url=%s", user.Email, attemptedURL)
		return
	}

	mention := user.DisplayName()
	if user.SlackID != nil && *user.SlackID != "" {
		mention = "<@" + *user.SlackID + ">"
	}

	actionLabel := "Create new link"
	if action == ActionUpdate {
		actionLabel = "Update existing link"
	}

	msg := slackMessage{
		Text: "🚨 Loop Protection Alert",
		Blocks: []slackBlock{
			{
				Type: "header",
				Text: &slackText{Type: "plain_text", Text: "🚨 Attempted Self-Referencing Link", Emoji: true},
			},
			{
				Type: "section",
				Fields: []slackText{
					{Type: "mrkdwn", Text: "*User:*\n" + mention},
					{Type: "mrkdwn", Text: "*Action:*\n" + actionLabel},
					{Type: "mrkdwn", Text: "*Email:*\n" + orNA(user.Email)},
					{Type: "mrkdwn", Text: "*Slack ID:*\n" + orNA(deref(user.SlackID))},
				},
			},
			{
				Type: "section",
				Text: &slackText{Type: "mrkdwn", Text: "*Attempted URL:*\n`" + attemptedURL + "`"},
			},
			{
				Type: "context",
				Elements: []slackText{
					{Type: "mrkdwn", Text: "Blocked at " + time.Now().UTC().Format(time.RFC3339)},
				},
			},
		},
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		log.Printf("slack payload marshal failed: err=%v", err)
		return
	}

	resp, err := n.httpClient.Post(n.webhookURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		log.Printf("slack notification failed: user=%s err=%v", user.Email, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("slack notification rejected: user=%s status=%d", user.Email, resp.StatusCode)
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
