package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sjsage522/profitsniper/internal/models"
	"sjsage522/profitsniper/logger"
	sniperrors "sjsage522/profitsniper/pkg/errors"
)

// WebhookPath is appended to the notifier base URL
const WebhookPath = "/webhook/listing"

// HTTPPublisher posts listings to the notification service webhook
type HTTPPublisher struct {
	client *http.Client
	url    string
	log    *logger.Logger
}

// NewHTTPPublisher creates a publisher for baseURL. A nil client gets a 10s timeout.
func NewHTTPPublisher(baseURL string, client *http.Client) *HTTPPublisher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPPublisher{
		client: client,
		url:    strings.TrimRight(baseURL, "/") + WebhookPath,
		log:    logger.ForPublisher(),
	}
}

// Publish posts the payload. Any status other than 200 is an error.
func (p *HTTPPublisher) Publish(ctx context.Context, l models.Listing) (string, error) {
	body, err := json.Marshal(BuildPayload(l))
	if err != nil {
		return "", sniperrors.NewPublisher("http", "encode payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return "", sniperrors.NewPublisher("http", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", sniperrors.NewPublisher("http", "post "+p.url, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode != http.StatusOK {
		return "", sniperrors.NewPublisher("http",
			fmt.Sprintf("notifier returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody))), nil)
	}

	return messageRef(respBody), nil
}

// messageRef reads an optional message_id (string or number) from the webhook response
func messageRef(body []byte) string {
	var parsed map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&parsed); err != nil {
		return ""
	}
	switch v := parsed["message_id"].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	}
	return ""
}

func (p *HTTPPublisher) Close() error {
	p.client.CloseIdleConnections()
	return nil
}
