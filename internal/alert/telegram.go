// Package alert pushes error notifications to a Telegram chat without ever
// blocking the request path.
package alert

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/faisolarifin/custom-gateway/internal/config"
)

// Notifier is the seam the forwarder, token manager, and ingress depend on.
type Notifier interface {
	SendErrorAlert(message, correlationID string)
}

// Telegram posts alert messages to the Bot API chat endpoint. One HTTP
// client, configured with the main client timeout, is shared by all alerts.
type Telegram struct {
	client *http.Client
	cfg    config.TelegramAlert
	logger zerolog.Logger
}

// NewTelegram builds the alerter.
func NewTelegram(cfg config.TelegramAlert, client *http.Client, logger zerolog.Logger) *Telegram {
	return &Telegram{client: client, cfg: cfg, logger: logger}
}

type chatMessage struct {
	ChatID          string `json:"chat_id"`
	MessageThreadID int    `json:"message_thread_id"`
	Text            string `json:"text"`
}

// SendErrorAlert returns immediately; delivery happens on a short-lived
// goroutine. Delivery failures are logged and never surfaced to the caller.
// An empty correlationID omits the request-id tag.
func (t *Telegram) SendErrorAlert(message, correlationID string) {
	go t.deliver(message, correlationID)
}

func (t *Telegram) deliver(message, correlationID string) {
	text := t.cfg.AlertMessagePrefix
	if correlationID != "" {
		text += " [request-id: " + correlationID + "]"
	}
	text += " " + message

	payload, err := json.Marshal(chatMessage{
		ChatID:          t.cfg.ChatID,
		MessageThreadID: t.cfg.MessageThreadID,
		Text:            text,
	})
	if err != nil {
		t.logger.Error().Err(err).Msg("failed to encode telegram alert payload")
		return
	}

	req, err := http.NewRequest(http.MethodPost, t.cfg.APIURL, bytes.NewReader(payload))
	if err != nil {
		t.logger.Error().Err(err).Msg("failed to build telegram alert request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		t.logger.Error().Err(err).Msg("failed to send telegram alert")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		t.logger.Error().
			Int("status", resp.StatusCode).
			Str("response", string(respBody)).
			Msg("telegram alert rejected")
		return
	}

	t.logger.Info().Str("text", text).Msg("telegram alert sent")
}
