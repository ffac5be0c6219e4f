// Package telegram adapts the Telegram Bot API to the messaging ports:
// an HTTP client, a messenger, update mapping, the per-identity dispatch
// queue and the two inbound transports (long polling and webhook).
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ErrConflict means another getUpdates consumer or an active webhook holds
// the bot token.
var ErrConflict = errors.New("telegram: conflicting update consumer")

// APIError is a non-ok Bot API reply.
type APIError struct {
	Method      string
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s failed (%d): %s", e.Method, e.Code, e.Description)
}

// ClientConfig configures the Bot API client.
type ClientConfig struct {
	Token      string
	APIURL     string
	Timeout    time.Duration
	RetryCount int
}

// Client calls the Bot API over HTTP.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
}

// NewClient creates a Bot API client.
func NewClient(cfg ClientConfig, logger *zap.Logger) *Client {
	baseURL := strings.TrimRight(cfg.APIURL, "/") + "/bot" + cfg.Token

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Accept", "application/json")

	return &Client{http: client, logger: logger}
}

// GetMe returns the bot's own user.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var me User
	if err := c.call(ctx, "getMe", c.http.R(), &me); err != nil {
		return nil, err
	}
	return &me, nil
}

// GetUpdates long-polls for updates starting at offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	body := map[string]any{
		"offset":          offset,
		"timeout":         int(timeout.Seconds()),
		"allowed_updates": []string{"message"},
	}

	var updates []Update
	if err := c.call(ctx, "getUpdates", c.http.R().SetBody(body), &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

type sendMessageRequest struct {
	ChatID      int64  `json:"chat_id"`
	Text        string `json:"text"`
	ReplyMarkup any    `json:"reply_markup,omitempty"`
}

// SendMessage sends text with an optional reply markup (ReplyKeyboardMarkup
// or ReplyKeyboardRemove).
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, markup any) error {
	req := c.http.R().SetBody(sendMessageRequest{ChatID: chatID, Text: text, ReplyMarkup: markup})
	return c.call(ctx, "sendMessage", req, nil)
}

// SendPhoto uploads an image.
func (c *Client) SendPhoto(ctx context.Context, chatID int64, image []byte, filename, caption string) error {
	req := c.http.R().
		SetFormData(map[string]string{
			"chat_id": strconv.FormatInt(chatID, 10),
			"caption": caption,
		}).
		SetFileReader("photo", filename, bytes.NewReader(image))
	return c.call(ctx, "sendPhoto", req, nil)
}

// SendDocument uploads a file.
func (c *Client) SendDocument(ctx context.Context, chatID int64, content []byte, filename, caption string) error {
	req := c.http.R().
		SetFormData(map[string]string{
			"chat_id": strconv.FormatInt(chatID, 10),
			"caption": caption,
		}).
		SetFileReader("document", filename, bytes.NewReader(content))
	return c.call(ctx, "sendDocument", req, nil)
}

// SetWebhook registers url for update delivery. Telegram echoes secret in
// the X-Telegram-Bot-Api-Secret-Token header of every call.
func (c *Client) SetWebhook(ctx context.Context, url, secret string) error {
	body := map[string]any{
		"url":             url,
		"allowed_updates": []string{"message"},
	}
	if secret != "" {
		body["secret_token"] = secret
	}
	return c.call(ctx, "setWebhook", c.http.R().SetBody(body), nil)
}

// DeleteWebhook switches the bot back to getUpdates delivery.
func (c *Client) DeleteWebhook(ctx context.Context) error {
	return c.call(ctx, "deleteWebhook", c.http.R().SetBody(map[string]any{"drop_pending_updates": false}), nil)
}

func (c *Client) call(ctx context.Context, method string, req *resty.Request, result any) error {
	resp, err := req.SetContext(ctx).Post(method)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}

	var envelope apiResponse
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return &APIError{Method: method, Code: resp.StatusCode(), Description: fmt.Sprintf("undecodable reply: %v", err)}
	}

	if resp.StatusCode() == http.StatusConflict || envelope.ErrorCode == http.StatusConflict {
		return fmt.Errorf("%w: %s", ErrConflict, envelope.Description)
	}
	if !envelope.OK {
		code := envelope.ErrorCode
		if code == 0 {
			code = resp.StatusCode()
		}
		return &APIError{Method: method, Code: code, Description: envelope.Description}
	}

	if result != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return fmt.Errorf("telegram %s: failed to decode result: %w", method, err)
		}
	}

	c.logger.Debug("telegram call", zap.String("method", method), zap.Duration("took", resp.Time()))
	return nil
}
