package config

import "testing"

func TestLoadRequiresOCRBaseURL(t *testing.T) {
	t.Setenv("OCR_BASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error without OCR_BASE_URL")
	}
}

func TestLoadDefaultsAndOverrides(t *testing.T) {
	t.Setenv("OCR_BASE_URL", "http://ocr.local/")
	t.Setenv("OCR_TIMEOUT_MS", "2500")
	t.Setenv("OCR_RETRY_MAX", "0")
	t.Setenv("HISTORY_LIMIT", "-3")
	t.Setenv("PREVIEW_ENABLED", "false")
	t.Setenv("PENDING_PAGE_TTL_SEC", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.OCRBaseURL != "http://ocr.local" {
		t.Fatalf("base url = %q", cfg.OCRBaseURL)
	}
	if cfg.OCRTimeoutMS != 2500 || cfg.OCRRetryMax != 0 {
		t.Fatalf("ocr settings = %d/%d", cfg.OCRTimeoutMS, cfg.OCRRetryMax)
	}
	if cfg.HistoryLimit != 10 {
		t.Fatalf("invalid history limit should keep default, got %d", cfg.HistoryLimit)
	}
	if cfg.PreviewEnabled {
		t.Fatalf("preview should be disabled")
	}
	if cfg.PendingPageTTLSec != 86400 {
		t.Fatalf("ttl = %d", cfg.PendingPageTTLSec)
	}
}
