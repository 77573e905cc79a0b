package notifier

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shawty-app/shawty/internal/model"
)

// captureMessage runs a webhook server, fires the alert and returns the
// decoded payload. json.Marshal HTML-escapes < and >, so assertions go
// against the decoded message, not the raw bytes.
func captureMessage(t *testing.T, user model.User, attemptedURL string, action Action) slackMessage {
	t.Helper()

	var body []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		body, _ = io.ReadAll(r.Body)
	}))
	defer server.Close()

	n := NewSlackNotifier(server.URL)
	n.SelfReferenceAlert(user, attemptedURL, action)

	if body == nil {
		t.Fatal("webhook was never called")
	}

	var msg slackMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	return msg
}

func blockTexts(msg slackMessage) []string {
	var out []string
	for _, block := range msg.Blocks {
		if block.Text != nil {
			out = append(out, block.Text.Text)
		}
		for _, f := range block.Fields {
			out = append(out, f.Text)
		}
		for _, e := range block.Elements {
			out = append(out, e.Text)
		}
	}
	return out
}

func containsText(texts []string, want string) bool {
	for _, text := range texts {
		if strings.Contains(text, want) {
			return true
		}
	}
	return false
}

func TestSelfReferenceAlertPayload(t *testing.T) {
	slackID := "U12345"
	user := model.User{
		ID:      "u1",
		Email:   "orpheus@hackclub.com",
		Name:    "orpheus",
		SlackID: &slackID,
	}

	msg := captureMessage(t, user, "https://shawty.app/loop", ActionCreate)

	if len(msg.Blocks) == 0 {
		t.Fatal("payload has no blocks")
	}
	if msg.Blocks[0].Type != "header" {
		t.Errorf("first block type = %q, want header", msg.Blocks[0].Type)
	}

	texts := blockTexts(msg)
	for _, want := range []string{"<@U12345>", "orpheus@hackclub.com", "https://shawty.app/loop", "Create new link"} {
		if !containsText(texts, want) {
			t.Errorf("payload missing %q in %v", want, texts)
		}
	}
}

func TestSelfReferenceAlertUpdateAction(t *testing.T) {
	msg := captureMessage(t, model.User{Email: "orpheus@hackclub.com"}, "https://shawty.app/x", ActionUpdate)

	if !containsText(blockTexts(msg), "Update existing link") {
		t.Error("payload should carry the update action label")
	}
}

func TestSelfReferenceAlertNoSlackID(t *testing.T) {
	msg := captureMessage(t, model.User{Email: "orpheus@hackclub.com", Name: "Orpheus"}, "https://shawty.app/x", ActionCreate)

	texts := blockTexts(msg)
	if containsText(texts, "<@") {
		t.Error("payload should not mention anyone without a slack id")
	}
	if !containsText(texts, "Orpheus") {
		t.Error("payload should fall back to the display name")
	}
}

func TestSelfReferenceAlertUnconfigured(t *testing.T) {
	n := NewSlackNotifier("")
	// Must not panic or hang without a webhook.
	n.SelfReferenceAlert(model.User{Email: "orpheus@hackclub.com"}, "https://shawty.app/x", ActionCreate)
}

func TestSelfReferenceAlertSwallowsServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	n := NewSlackNotifier(server.URL)
	n.SelfReferenceAlert(model.User{Email: "orpheus@hackclub.com"}, "https://shawty.app/x", ActionCreate)
}
