// Package config loads the gateway configuration from config.yaml and
// applies APP_-prefixed environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultPeriodicIntervalMins is used when token_scheduler.periodic_interval_mins is unset.
	DefaultPeriodicIntervalMins = 15

	envPrefix = "APP_"
)

// Config is the root configuration tree. Field names mirror the keys in
// config.yaml; environment overrides use APP_<SECTION>_<FIELD> form, e.g.
// APP_SERVER_LISTEN_PORT or APP_PERMATA_BANK_LOGIN_API_KEY.
type Config struct {
	Server         Server         `yaml:"server" envPrefix:"SERVER_"`
	WebClient      WebClient      `yaml:"webclient" envPrefix:"WEBCLIENT_"`
	PermataLogin   PermataLogin   `yaml:"permata_bank_login" envPrefix:"PERMATA_BANK_LOGIN_"`
	PermataWebhook PermataWebhook `yaml:"permata_bank_webhook" envPrefix:"PERMATA_BANK_WEBHOOK_"`
	TokenScheduler TokenScheduler `yaml:"token_scheduler" envPrefix:"TOKEN_SCHEDULER_"`
	TelegramAlert  TelegramAlert  `yaml:"telegram_alert" envPrefix:"TELEGRAM_ALERT_"`
	Logger         Logger         `yaml:"logger" envPrefix:"LOGGER_"`
}

// Server configures the listen socket and webhook route.
type Server struct {
	ListenHost  string `yaml:"listen_host" env:"LISTEN_HOST"`
	ListenPort  int    `yaml:"listen_port" env:"LISTEN_PORT"`
	WebhookPath string `yaml:"webhook_path" env:"WEBHOOK_PATH"`
}

// Addr returns the host:port pair to bind.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.ListenHost, s.ListenPort)
}

// WebClient configures every outbound HTTP client and the shared retry policy.
// Timeout and RetryDelay are in seconds.
type WebClient struct {
	Timeout    int `yaml:"timeout" env:"TIMEOUT"`
	MaxRetries int `yaml:"max_retries" env:"MAX_RETRIES"`
	RetryDelay int `yaml:"retry_delay" env:"RETRY_DELAY"`
}

// TimeoutDuration returns the per-request client timeout.
func (w WebClient) TimeoutDuration() time.Duration {
	return time.Duration(w.Timeout) * time.Second
}

// RetryDelayDuration returns the sleep between retry attempts.
func (w WebClient) RetryDelayDuration() time.Duration {
	return time.Duration(w.RetryDelay) * time.Second
}

// PermataLogin configures the bank token endpoint and signing material.
// LoginPayload is an opaque form-encoded string sent verbatim as the login
// body and signed as-is.
type PermataLogin struct {
	PermataStaticKey string `yaml:"permata_static_key" env:"PERMATA_STATIC_KEY"`
	APIKey           string `yaml:"api_key" env:"API_KEY"`
	TokenURL         string `yaml:"token_url" env:"TOKEN_URL"`
	Username         string `yaml:"username" env:"USERNAME"`
	Password         string `yaml:"password" env:"PASSWORD"`
	LoginPayload     string `yaml:"login_payload" env:"LOGIN_PAYLOAD"`
}

// PermataWebhook configures the bank callback-status endpoint.
type PermataWebhook struct {
	CallbackStatusURL string `yaml:"callbackstatus_url" env:"CALLBACKSTATUS_URL"`
	OrganizationName  string `yaml:"organizationname" env:"ORGANIZATIONNAME"`
}

// TokenScheduler configures the periodic token refresher.
type TokenScheduler struct {
	PeriodicIntervalMins int `yaml:"periodic_interval_mins" env:"PERIODIC_INTERVAL_MINS"`
}

// Interval returns the refresh period.
func (t TokenScheduler) Interval() time.Duration {
	return time.Duration(t.PeriodicIntervalMins) * time.Minute
}

// TelegramAlert configures the out-of-band error channel.
type TelegramAlert struct {
	APIURL             string `yaml:"api_url" env:"API_URL"`
	ChatID             string `yaml:"chat_id" env:"CHAT_ID"`
	MessageThreadID    int    `yaml:"message_thread_id" env:"MESSAGE_THREAD_ID"`
	AlertMessagePrefix string `yaml:"alert_message_prefix" env:"ALERT_MESSAGE_PREFIX"`
}

// Logger configures the daily error-log files. MaxSize is in megabytes,
// MaxAge and the implied rotation windows in days.
type Logger struct {
	Dir        string `yaml:"dir" env:"DIR"`
	FileName   string `yaml:"file_name" env:"FILE_NAME"`
	MaxBackups int    `yaml:"max_backups" env:"MAX_BACKUPS"`
	MaxSize    int    `yaml:"max_size" env:"MAX_SIZE"`
	MaxAge     int    `yaml:"max_age" env:"MAX_AGE"`
	Compress   bool   `yaml:"compress" env:"COMPRESS"`
	LocalTime  bool   `yaml:"local_time" env:"LOCAL_TIME"`
}

// Load reads the YAML file at path, applies environment overrides, fills
// defaults, and validates. A .env file in the working directory is honoured
// when present.
func Load(path string) (*Config, error) {
	// Missing .env is the normal case outside local dev.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: envPrefix}); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.TokenScheduler.PeriodicIntervalMins <= 0 {
		c.TokenScheduler.PeriodicIntervalMins = DefaultPeriodicIntervalMins
	}
	if c.Server.ListenHost == "" {
		c.Server.ListenHost = "0.0.0.0"
	}
}

// Validate checks the fields without which the gateway cannot run.
func (c *Config) Validate() error {
	if c.Server.ListenPort <= 0 || c.Server.ListenPort > 65535 {
		return fmt.Errorf("server.listen_port %d is out of range", c.Server.ListenPort)
	}
	if c.Server.WebhookPath == "" || !strings.HasPrefix(c.Server.WebhookPath, "/") {
		return fmt.Errorf("server.webhook_path %q must start with /", c.Server.WebhookPath)
	}
	if c.WebClient.Timeout <= 0 {
		return fmt.Errorf("webclient.timeout must be positive, got %d", c.WebClient.Timeout)
	}
	if c.WebClient.MaxRetries < 1 {
		return fmt.Errorf("webclient.max_retries must be at least 1, got %d", c.WebClient.MaxRetries)
	}
	if c.WebClient.RetryDelay < 0 {
		return fmt.Errorf("webclient.retry_delay must not be negative, got %d", c.WebClient.RetryDelay)
	}
	if c.PermataLogin.PermataStaticKey == "" {
		return fmt.Errorf("permata_bank_login.permata_static_key is required")
	}
	if c.PermataLogin.TokenURL == "" {
		return fmt.Errorf("permata_bank_login.token_url is required")
	}
	if c.PermataWebhook.CallbackStatusURL == "" {
		return fmt.Errorf("permata_bank_webhook.callbackstatus_url is required")
	}
	return nil
}
