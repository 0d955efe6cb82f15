package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cap-ma/helperinfo/internal/requests"
)

const defaultTelegramEndpoint = "https://api.telegram.org"

// TelegramClient posts operator notifications into a Telegram chat.
// An unconfigured client is nil; callers treat that as notifications off.
type TelegramClient struct {
	token      string
	chatID     string
	endpoint   string
	httpClient *http.Client
}

func NewTelegramClient(token, chatID string) *TelegramClient {
	if strings.TrimSpace(token) == "" || strings.TrimSpace(chatID) == "" {
		return nil
	}
	return &TelegramClient{
		token:    token,
		chatID:   chatID,
		endpoint: defaultTelegramEndpoint,
		httpClient: &http.Client{
			Timeout: 8 * time.Second,
		},
	}
}

func (c *TelegramClient) SendServiceRequestNotification(ctx context.Context, sr requests.ServiceRequest) error {
	if c == nil {
		return errors.New("telegram client is nil")
	}
	text, err := buildServiceRequestMessage(sr)
	if err != nil {
		return err
	}
	return c.sendMessage(ctx, text)
}

type telegramSendRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type telegramSendResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (c *TelegramClient) sendMessage(ctx context.Context, text string) error {
	if c == nil {
		return errors.New("telegram client is nil")
	}
	if strings.TrimSpace(text) == "" {
		return errors.New("missing message text")
	}

	payload := telegramSendRequest{
		ChatID:    c.chatID,
		Text:      text,
		ParseMode: "HTML",
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.endpoint, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("telegram create request: %w", err)
	}
	req.Header.Set("content-type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("telegram send failed: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out telegramSendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("telegram decode response: %w", err)
	}
	if !out.OK {
		return fmt.Errorf("telegram send rejected: %s", out.Description)
	}
	return nil
}
