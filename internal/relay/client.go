package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Conversly/design-assistant/internal/conversation"
	"github.com/Conversly/design-assistant/internal/utils"
)

const maxResponseBytes = 4 << 20

// Relay generates the next model turn for a conversation.
type Relay interface {
	Generate(ctx context.Context, conv conversation.Conversation) (string, error)
}

// Client calls the relay over HTTP.
type Client struct {
	url    string
	token  string
	client *http.Client
}

// NewClient creates a relay client. timeout bounds every call.
func NewClient(url, token string, timeout time.Duration) *Client {
	return &Client{
		url:    url,
		token:  token,
		client: &http.Client{Timeout: timeout},
	}
}

// Generate posts the full conversation and returns the generated text.
func (c *Client) Generate(ctx context.Context, conv conversation.Conversation) (string, error) {
	jsonBody, err := json.Marshal(Request{Conversation: conv, Security: c.token})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("request timed out: %w", err)
		}
		return "", &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	var envelope Response
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	if !envelope.Success {
		msg := ""
		if envelope.Message != nil {
			msg = *envelope.Message
		}
		if msg == "" && resp.StatusCode >= 400 {
			return "", &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("relay returned status %d", resp.StatusCode)}
		}
		return "", &ApplicationError{Message: msg}
	}

	if envelope.Message == nil {
		utils.Zlog.Error("Unexpected relay response",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body))
		return "", &UnexpectedShapeError{Body: body}
	}

	return *envelope.Message, nil
}
