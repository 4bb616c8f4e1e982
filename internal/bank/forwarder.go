package bank

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/faisolarifin/custom-gateway/internal/alert"
	"github.com/faisolarifin/custom-gateway/internal/apperr"
	"github.com/faisolarifin/custom-gateway/internal/config"
	"github.com/faisolarifin/custom-gateway/internal/logging"
	"github.com/faisolarifin/custom-gateway/internal/payload"
	"github.com/faisolarifin/custom-gateway/internal/signing"
)

// ForwardResult is the bank's response, returned verbatim to the ingress.
type ForwardResult struct {
	StatusCode int
	Body       string
}

// Forwarder is the capability the ingress depends on; tests substitute
// in-memory fakes.
type Forwarder interface {
	Forward(ctx context.Context, body, requestID, correlationID string) (*ForwardResult, error)
}

// Client signs webhook bodies and POSTs them to the bank callback-status
// endpoint, proxying the response back untouched.
type Client struct {
	http      *http.Client
	staticKey string
	webhook   config.PermataWebhook
	web       config.WebClient
	tokens    TokenProvider
	alerter   alert.Notifier
	logger    zerolog.Logger
	now       func() time.Time
}

// NewClient builds the forwarder.
func NewClient(cfg *config.Config, httpClient *http.Client, tokens TokenProvider, alerter alert.Notifier, logger zerolog.Logger) *Client {
	return &Client{
		http:      httpClient,
		staticKey: cfg.PermataLogin.PermataStaticKey,
		webhook:   cfg.PermataWebhook,
		web:       cfg.WebClient,
		tokens:    tokens,
		alerter:   alerter,
		logger:    logger,
		now:       time.Now,
	}
}

// Forward delivers the body to the bank with bounded retries. Only
// transport failures are retried; authentication and signing failures stop
// immediately. A non-2xx bank response is a successful forward and is
// returned as-is.
func (c *Client) Forward(ctx context.Context, body, requestID, correlationID string) (*ForwardResult, error) {
	log := logging.WithRequest(c.logger, correlationID)

	if strings.TrimSpace(body) == "" {
		return nil, apperr.New(apperr.KindWebhookType, "empty webhook body")
	}

	var lastErr error
	for attempt := 1; attempt <= c.web.MaxRetries; attempt++ {
		res, err := c.attempt(ctx, body, requestID, correlationID, log)
		if err == nil {
			log.Info().
				Int("attempt", attempt).
				Str("requestId", requestID).
				Msg("webhook forwarded")
			return res, nil
		}

		if !apperr.Retryable(err) {
			if apperr.IsAuthentication(err) {
				log.Error().Err(err).Str("requestId", requestID).Msg("authentication failed, not retrying")
			} else {
				log.Error().Err(err).Str("requestId", requestID).Msg("forward failed with non-retryable error")
			}
			return nil, err
		}

		lastErr = err
		if attempt < c.web.MaxRetries {
			log.Warn().
				Int("attempt", attempt).
				Int("retryDelaySec", c.web.RetryDelay).
				Err(err).
				Msg("forward attempt failed, retrying")
			select {
			case <-time.After(c.web.RetryDelayDuration()):
			case <-ctx.Done():
				return nil, apperr.Wrap(apperr.KindHTTPTransport, "forward aborted", ctx.Err())
			}
		} else {
			log.Error().Err(err).Str("requestId", requestID).Msg("all forward attempts failed")
		}
	}
	return nil, lastErr
}

func (c *Client) attempt(ctx context.Context, body, requestID, correlationID string, log zerolog.Logger) (*ForwardResult, error) {
	token, err := c.tokens.GetToken(ctx, correlationID)
	if err != nil {
		c.alerter.SendErrorAlert("Token acquisition failed: "+err.Error(), correlationID)
		if apperr.IsAuthentication(err) {
			return nil, err
		}
		return nil, apperr.Wrap(apperr.KindAuthenticationFailed, "token acquisition failed", err)
	}

	ts := signing.Timestamp(c.now())

	// The compacted form is only for signing; the original body goes on
	// the wire.
	compacted, err := payload.Compact(body)
	if err != nil {
		c.alerter.SendErrorAlert("Payload conversion failed: "+err.Error(), correlationID)
		return nil, err
	}

	sig, err := signing.Sign(c.staticKey, token, ts, compacted)
	if err != nil {
		c.alerter.SendErrorAlert("Signature construction failed: "+err.Error(), correlationID)
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhook.CallbackStatusURL, strings.NewReader(body))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindHTTPTransport, "building forward request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("permata-signature", sig)
	req.Header.Set("organizationname", c.webhook.OrganizationName)
	req.Header.Set("permata-timestamp", ts)

	log.Info().Str("requestId", requestID).Msg("sending webhook to Permata Bank")

	resp, err := c.http.Do(req)
	if err != nil {
		msg := "request timeout/connection error for Permata Bank"
		log.Error().Err(err).Msg(msg)
		c.alerter.SendErrorAlert(msg+": "+err.Error(), correlationID)
		return nil, apperr.Wrap(apperr.KindHTTPTransport, msg, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		msg := "reading Permata Bank response"
		c.alerter.SendErrorAlert(msg+": "+err.Error(), correlationID)
		return nil, apperr.Wrap(apperr.KindHTTPTransport, msg, err)
	}

	status := resp.StatusCode
	if status >= 200 && status < 300 {
		log.Info().Int("status", status).Str("requestId", requestID).Msg("received response from Permata Bank")
	} else {
		log.Error().
			Int("status", status).
			Str("response", string(respBody)).
			Msg("received error status from Permata Bank")
		c.alerter.SendErrorAlert(
			fmt.Sprintf("Received non-2xx HTTP %d from Permata Bank", status),
			correlationID,
		)
	}

	return &ForwardResult{StatusCode: status, Body: string(respBody)}, nil
}
