package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const defaultTelegramBaseURL = "https://api.telegram.org"

// HTTPClient is the subset of *http.Client the Telegram sender needs.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// TelegramOption configures a TelegramSender.
type TelegramOption func(*TelegramSender)

// WithTelegramBaseURL points the sender at another Bot API host.
func WithTelegramBaseURL(url string) TelegramOption {
	return func(t *TelegramSender) {
		if url != "" {
			t.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithTelegramHTTPClient replaces the default HTTP client.
func WithTelegramHTTPClient(c HTTPClient) TelegramOption {
	return func(t *TelegramSender) { t.http = c }
}

// TelegramSender posts alerts to a chat through the Bot API.
type TelegramSender struct {
	token   string
	chatID  string
	baseURL string
	http    HTTPClient
}

// NewTelegramSender builds a sender for the bot token and chat.
func NewTelegramSender(token, chatID string, opts ...TelegramOption) (*TelegramSender, error) {
	if strings.TrimSpace(token) == "" || strings.TrimSpace(chatID) == "" {
		return nil, eris.New("telegram: bot token and chat id are required")
	}
	t := &TelegramSender{
		token:   token,
		chatID:  chatID,
		baseURL: defaultTelegramBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(t)
	}
	return t, nil
}

// Name implements Sender.
func (t *TelegramSender) Name() string {
	return "telegram"
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type botResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

// Send implements Sender.
func (t *TelegramSender) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(sendMessageRequest{
		ChatID:                t.chatID,
		Text:                  msg.HTML,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	})
	if err != nil {
		return eris.Wrap(err, "telegram: marshal message")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/bot"+t.token+"/sendMessage", bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "telegram: create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.http.Do(req)
	if err != nil {
		// *url.Error embeds the URL, which carries the bot token.
		return eris.New("telegram: send message request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return eris.Wrap(err, "telegram: read response")
	}

	var out botResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return eris.Errorf("telegram: unexpected response (status %d)", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK || !out.OK {
		return eris.Errorf("telegram: send message failed (status %d): %s", resp.StatusCode, out.Description)
	}
	return nil
}
