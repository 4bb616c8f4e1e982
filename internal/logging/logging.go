// Package logging builds the gateway's zerolog logger: JSON lines to
// stdout, with ERROR-level lines duplicated into one append-only file per
// day under the configured directory.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/faisolarifin/custom-gateway/internal/config"
)

// mainCorrelationID stamps log lines that are not tied to one request.
const mainCorrelationID = "MAIN"

// New returns the root logger and a closer for the error-log file chain.
func New(cfg config.Logger) (zerolog.Logger, io.Closer, error) {
	zerolog.TimestampFieldName = "timestamp"
	zerolog.TimeFieldFormat = "2006-01-02 15:04:05.000"
	if cfg.LocalTime {
		zerolog.TimestampFunc = time.Now
	} else {
		zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }
	}

	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return zerolog.Logger{}, nil, fmt.Errorf("creating log directory %s: %w", cfg.Dir, err)
		}
	}

	daily := newDailyWriter(cfg)
	out := zerolog.MultiLevelWriter(os.Stdout, errorFileWriter{daily})
	logger := zerolog.New(out).With().Timestamp().Logger()
	return logger, daily, nil
}

// WithRequest stamps a logger with the correlation id fields every line
// must carry. An empty id falls back to the MAIN marker.
func WithRequest(logger zerolog.Logger, correlationID string) zerolog.Logger {
	if correlationID == "" {
		correlationID = mainCorrelationID
	}
	return logger.With().
		Str("uniqueId", correlationID).
		Str("x-request-id", correlationID).
		Logger()
}

// errorFileWriter forwards only ERROR-and-above lines to the daily file.
// INFO and WARN stay on stdout alone.
type errorFileWriter struct {
	w io.Writer
}

func (e errorFileWriter) Write(p []byte) (int, error) {
	// Lines without a level never reach the error file.
	return len(p), nil
}

func (e errorFileWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level >= zerolog.ErrorLevel && level < zerolog.NoLevel {
		return e.w.Write(p)
	}
	return len(p), nil
}

// dailyWriter appends to {dir}/{file_name}.{YYYY-MM-DD}.error.log, rolling
// to a new file when the date changes. Each dated file is a lumberjack
// logger so the size/backup/age/compress limits apply within a day.
type dailyWriter struct {
	cfg config.Logger

	mu   sync.Mutex
	date string
	file *lumberjack.Logger
}

func newDailyWriter(cfg config.Logger) *dailyWriter {
	return &dailyWriter{cfg: cfg}
}

func (d *dailyWriter) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	if !d.cfg.LocalTime {
		now = now.UTC()
	}
	day := now.Format("2006-01-02")
	if day != d.date {
		if d.file != nil {
			_ = d.file.Close()
		}
		d.file = &lumberjack.Logger{
			Filename:   filepath.Join(d.cfg.Dir, fmt.Sprintf("%s.%s.error.log", d.cfg.FileName, day)),
			MaxSize:    d.cfg.MaxSize,
			MaxBackups: d.cfg.MaxBackups,
			MaxAge:     d.cfg.MaxAge,
			Compress:   d.cfg.Compress,
			LocalTime:  d.cfg.LocalTime,
		}
		d.date = day
	}
	return d.file.Write(p)
}

func (d *dailyWriter) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	d.date = ""
	return err
}
