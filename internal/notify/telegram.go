package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// telegram delivers via the Bot API sendMessage endpoint.
type telegram struct {
	token  string
	chatID string
	client *http.Client
}

func newTelegram(token, chatID string) *telegram {
	return &telegram{
		token:  token,
		chatID: chatID,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *telegram) Send(ctx context.Context, title, message string) error {
	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.token)
	payload := map[string]string{
		"chat_id":    t.chatID,
		"text":       fmt.Sprintf("*%s*\n%s", title, message),
		"parse_mode": "Markdown",
	}
	return postJSON(ctx, t.client, url, payload, "telegram")
}

func (t *telegram) Name() string { return "telegram" }
