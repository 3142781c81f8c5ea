package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// discord delivers via an incoming webhook.
type discord struct {
	webhookURL string
	client     *http.Client
}

func newDiscord(webhookURL string) *discord {
	return &discord{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (d *discord) Send(ctx context.Context, title, message string) error {
	payload := map[string]string{
		"content": fmt.Sprintf("**%s**\n%s", title, message),
	}
	return postJSON(ctx, d.client, d.webhookURL, payload, "discord")
}

func (d *discord) Name() string { return "discord" }
