// Package bank talks to the Permata bank APIs: token acquisition with a
// proactively refreshed cache, and signed webhook forwarding.
package bank

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/faisolarifin/custom-gateway/internal/alert"
	"github.com/faisolarifin/custom-gateway/internal/apperr"
	"github.com/faisolarifin/custom-gateway/internal/config"
	"github.com/faisolarifin/custom-gateway/internal/logging"
	"github.com/faisolarifin/custom-gateway/internal/signing"
)

const (
	// tokenCacheKey is the single logical slot the cache holds.
	tokenCacheKey = "permata_bank_token"

	// expirySafetyMarginSec is subtracted from expires_in so callers always
	// see at least a five-minute margin before the bank-side expiry.
	expirySafetyMarginSec = 300

	// schedulerCorrelationID stamps log lines from the periodic refresher.
	schedulerCorrelationID = "scheduler"
)

// TokenProvider is the capability the forwarder depends on; tests
// substitute in-memory fakes.
type TokenProvider interface {
	GetToken(ctx context.Context, correlationID string) (string, error)
	ClearCache(correlationID string)
	Shutdown()
}

// loginResponse is the bank token endpoint's success body.
type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Scope       string `json:"scope"`
}

type cachedToken struct {
	token     string
	expiresAt time.Time
}

// TokenManager caches the bank bearer token and keeps it fresh with a
// periodic background refresher. The cache and the scheduler handle are the
// only shared mutable state; the mutex is never held across network I/O.
type TokenManager struct {
	client  *http.Client
	login   config.PermataLogin
	web     config.WebClient
	sched   config.TokenScheduler
	alerter alert.Notifier
	logger  zerolog.Logger
	now     func() time.Time

	mu            sync.Mutex
	cache         map[string]cachedToken
	schedulerDone chan struct{}
}

// NewTokenManager builds the manager and starts the periodic refresher.
// The refresher runs until Shutdown; it is never stopped by finalization.
func NewTokenManager(cfg *config.Config, client *http.Client, alerter alert.Notifier, logger zerolog.Logger) *TokenManager {
	m := &TokenManager{
		client:  client,
		login:   cfg.PermataLogin,
		web:     cfg.WebClient,
		sched:   cfg.TokenScheduler,
		alerter: alerter,
		logger:  logger,
		now:     time.Now,
		cache:   make(map[string]cachedToken),
	}
	m.startScheduler()
	return m
}

// GetToken returns the cached token when still valid, otherwise performs a
// login round and caches the result. Concurrent callers racing a miss may
// both log in; the last write wins and both tokens are usable.
func (m *TokenManager) GetToken(ctx context.Context, correlationID string) (string, error) {
	log := logging.WithRequest(m.logger, correlationID)

	m.mu.Lock()
	if entry, ok := m.cache[tokenCacheKey]; ok && m.now().Before(entry.expiresAt) {
		m.mu.Unlock()
		log.Info().Msg("using cached token")
		return entry.token, nil
	}
	m.mu.Unlock()

	log.Info().Msg("fetching new token from API")
	resp, err := m.loginWithRetry(ctx, correlationID, log)
	if err != nil {
		return "", err
	}

	ttlSec := resp.ExpiresIn - expirySafetyMarginSec
	if ttlSec < 0 {
		ttlSec = 0
	}

	m.mu.Lock()
	m.cache[tokenCacheKey] = cachedToken{
		token:     resp.AccessToken,
		expiresAt: m.now().Add(time.Duration(ttlSec) * time.Second),
	}
	m.mu.Unlock()

	return resp.AccessToken, nil
}

// ClearCache forcibly evicts the cached token; the next GetToken logs in.
func (m *TokenManager) ClearCache(correlationID string) {
	m.mu.Lock()
	delete(m.cache, tokenCacheKey)
	m.mu.Unlock()

	log := logging.WithRequest(m.logger, correlationID)
	log.Info().Msg("token cache cleared")
}

// loginWithRetry attempts a login up to max_retries times with a fixed
// delay between attempts. Every failure is retried here: the only way to
// recover from a failed login is another attempt.
func (m *TokenManager) loginWithRetry(ctx context.Context, correlationID string, log zerolog.Logger) (*loginResponse, error) {
	var lastErr error
	for attempt := 1; attempt <= m.web.MaxRetries; attempt++ {
		resp, err := m.loginOnce(ctx, correlationID, log)
		if err == nil {
			log.Info().Int("attempt", attempt).Msg("login successful")
			return resp, nil
		}
		lastErr = err

		if attempt < m.web.MaxRetries {
			log.Warn().
				Int("attempt", attempt).
				Int("retryDelaySec", m.web.RetryDelay).
				Err(err).
				Msg("login attempt failed, retrying")
			select {
			case <-time.After(m.web.RetryDelayDuration()):
			case <-ctx.Done():
				return nil, apperr.Wrap(apperr.KindHTTPTransport, "login aborted", ctx.Err())
			}
		} else {
			log.Error().Err(err).Msg("all login attempts failed")
		}
	}
	return nil, lastErr
}

// loginOnce performs a single login round. Failed attempts dispatch an
// alert with the status and body.
func (m *TokenManager) loginOnce(ctx context.Context, correlationID string, log zerolog.Logger) (*loginResponse, error) {
	ts := signing.Timestamp(m.now())
	sig, err := signing.Sign(m.login.PermataStaticKey, m.login.APIKey, ts, m.login.LoginPayload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.login.TokenURL, strings.NewReader(m.login.LoginPayload))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindHTTPTransport, "building login request", err)
	}

	basic := base64.StdEncoding.EncodeToString([]byte(m.login.Username + ":" + m.login.Password))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("OAUTH-Signature", sig)
	req.Header.Set("OAUTH-Timestamp", ts)
	req.Header.Set("API-Key", m.login.APIKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.client.Do(req)
	if err != nil {
		log.Error().Err(err).Msg("login request failed")
		m.alerter.SendErrorAlert("Login request failed: "+err.Error(), correlationID)
		return nil, apperr.Wrap(apperr.KindHTTPTransport, "login request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindHTTPTransport, "reading login response", err)
	}

	if resp.StatusCode >= 400 {
		msg := fmt.Sprintf("Login failed: %d - %s", resp.StatusCode, body)
		log.Error().Int("status", resp.StatusCode).Msg(msg)
		m.alerter.SendErrorAlert(msg, correlationID)
		return nil, apperr.New(apperr.KindAuthenticationFailed, msg)
	}

	var lr loginResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return nil, apperr.Wrap(apperr.KindSerialization, "decoding login response", err)
	}

	log.Info().Int64("expiresInSec", lr.ExpiresIn).Msg("obtained token")
	return &lr, nil
}

// startScheduler launches the refresh loop, stopping any prior one under
// the same mutex.
func (m *TokenManager) startScheduler() {
	m.mu.Lock()
	if m.schedulerDone != nil {
		close(m.schedulerDone)
	}
	done := make(chan struct{})
	m.schedulerDone = done
	m.mu.Unlock()

	go m.runScheduler(done)
}

// runScheduler fires immediately, then on every tick. time.Ticker coalesces
// missed ticks, so at most one refresh is outstanding.
func (m *TokenManager) runScheduler(done <-chan struct{}) {
	interval := m.sched.Interval()
	m.logger.Info().
		Int("intervalMins", m.sched.PeriodicIntervalMins).
		Msg("starting periodic token refresh scheduler")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		m.refreshOnce()
		select {
		case <-done:
			m.logger.Info().Msg("periodic token refresh scheduler stopped")
			return
		case <-ticker.C:
		}
	}
}

// refreshOnce clears the cache and re-acquires a token. Failures never stop
// the loop.
func (m *TokenManager) refreshOnce() {
	log := logging.WithRequest(m.logger, schedulerCorrelationID)

	m.ClearCache(schedulerCorrelationID)
	if _, err := m.GetToken(context.Background(), schedulerCorrelationID); err != nil {
		log.Error().Err(err).Msg("periodic token refresh failed")
		return
	}
	log.Info().Msg("periodic token refresh completed")
}

// Shutdown stops the periodic refresher. Idempotent.
func (m *TokenManager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.schedulerDone != nil {
		close(m.schedulerDone)
		m.schedulerDone = nil
	}
}

// SchedulerActive reports whether the refresher is running.
func (m *TokenManager) SchedulerActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.schedulerDone != nil
}

// SchedulerInfo describes the running refresher for health and ops paths.
func (m *TokenManager) SchedulerInfo() (string, bool) {
	if !m.SchedulerActive() {
		return "", false
	}
	return fmt.Sprintf("periodic token refresh scheduler active (interval: %d minutes)", m.sched.PeriodicIntervalMins), true
}
