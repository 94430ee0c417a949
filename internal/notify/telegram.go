package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"burnwatch/internal/model"
)

const DefaultTelegramAPI = "https://api.telegram.org"

// TelegramConfig configures the Telegram Bot API notifier.
type TelegramConfig struct {
	BotToken string
	ChatID   string
	// APIURL overrides DefaultTelegramAPI.
	APIURL   string
	Decimals uint8
	Client   *http.Client
}

// Telegram posts burn messages to a chat through the Bot API.
type Telegram struct {
	endpoint string
	chatID   string
	decimals uint8
	client   *http.Client
}

func NewTelegram(cfg TelegramConfig) (*Telegram, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}
	if cfg.ChatID == "" {
		return nil, fmt.Errorf("telegram chat id is required")
	}
	api := strings.TrimRight(cfg.APIURL, "/")
	if api == "" {
		api = DefaultTelegramAPI
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Telegram{
		endpoint: api + "/bot" + cfg.BotToken + "/sendMessage",
		chatID:   cfg.ChatID,
		decimals: cfg.Decimals,
		client:   client,
	}, nil
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (t *Telegram) Notify(ctx context.Context, event model.BurnEvent, explorerURL string) error {
	payload := map[string]string{
		"chat_id":    t.chatID,
		"text":       FormatBurnMessage(event, explorerURL, t.decimals),
		"parse_mode": "Markdown",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		// The bot token is part of the URL; keep it out of logs.
		return fmt.Errorf("send telegram message: %w", redactURLError(err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return fmt.Errorf("read telegram response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var tr telegramResponse
	if err := json.Unmarshal(respBody, &tr); err != nil {
		return fmt.Errorf("decode telegram response: %w", err)
	}
	if !tr.OK {
		return fmt.Errorf("telegram rejected message: %s", tr.Description)
	}
	return nil
}

func redactURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}
