package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

type AppConfig struct {
	OCRBaseURL   string
	OCRTimeoutMS int
	OCRRetryMax  int

	RedisURL    string
	DatabaseURL string

	PendingPageTTLSec  int
	HistoryLimit       int
	MessageOverrideDir string
	PreviewEnabled     bool
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		OCRTimeoutMS:      15000,
		OCRRetryMax:       2,
		PendingPageTTLSec: 86400,
		HistoryLimit:      10,
		PreviewEnabled:    true,
	}

	cfg.OCRBaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("OCR_BASE_URL")), "/")
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.MessageOverrideDir = strings.TrimSpace(os.Getenv("MESSAGE_OVERRIDE_DIR"))

	if v := strings.TrimSpace(os.Getenv("OCR_TIMEOUT_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.OCRTimeoutMS = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("OCR_RETRY_MAX")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.OCRRetryMax = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("PENDING_PAGE_TTL_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PendingPageTTLSec = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("HISTORY_LIMIT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HistoryLimit = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("PREVIEW_ENABLED")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.PreviewEnabled = b
		}
	}

	if cfg.OCRBaseURL == "" {
		return nil, errors.New("OCR_BASE_URL is required")
	}

	return cfg, nil
}
